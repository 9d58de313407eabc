package console

import "bytes"

// Headless is a scriptable Console for tests and for doors running
// without a sysop screen. Keys are fed with Press; output accumulates in
// a buffer.
type Headless struct {
	Output bytes.Buffer
	keys   []byte
}

func NewHeadless() *Headless {
	return &Headless{}
}

// Press queues keystrokes for ReadKey.
func (c *Headless) Press(keys ...byte) {
	c.keys = append(c.keys, keys...)
}

func (c *Headless) Write(p []byte) (int, error) {
	return c.Output.Write(p)
}

func (c *Headless) KeyPressed() bool {
	return len(c.keys) > 0
}

func (c *Headless) ReadKey() (byte, bool) {
	if len(c.keys) == 0 {
		return 0, false
	}
	b := c.keys[0]
	c.keys = c.keys[1:]
	return b, true
}

func (c *Headless) GotoXY(x, y int) {}

func (c *Headless) SetAttr(attr byte) {}

func (c *Headless) ClearScreen() {
	c.Output.Reset()
}

func (c *Headless) Size() (int, int) { return 80, 25 }

func (c *Headless) Close() error { return nil }
