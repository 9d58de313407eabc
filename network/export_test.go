package network

// Hooks for the external test package.

var HixieKeyNumber = hixieKeyNumber

func (c *Conn) PushInputForTest(b byte) { c.pushInput(b) }

func (c *Conn) InputLen() int { return c.in.Len() }

func (c *Conn) InputBytes() []byte { return c.in.Bytes() }
