package console

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"doorway/ansi"
)

// Local drives the real terminal the door was launched in. The tty is
// put in raw mode so single keystrokes arrive unbuffered; Close restores
// it.
type Local struct {
	in       *os.File
	out      *os.File
	oldState *term.State
	keys     chan byte
	closed   chan struct{}
}

// OpenLocal switches stdin to raw mode and starts delivering keys.
func OpenLocal() (*Local, error) {
	c := &Local{
		in:     os.Stdin,
		out:    os.Stdout,
		keys:   make(chan byte, 64),
		closed: make(chan struct{}),
	}

	if term.IsTerminal(int(c.in.Fd())) {
		state, err := term.MakeRaw(int(c.in.Fd()))
		if err != nil {
			return nil, fmt.Errorf("raw mode: %w", err)
		}
		c.oldState = state
	}

	go c.pump()
	return c, nil
}

func (c *Local) pump() {
	buf := make([]byte, 64)
	for {
		n, err := c.in.Read(buf)
		for i := 0; i < n; i++ {
			select {
			case c.keys <- buf[i]:
			case <-c.closed:
				return
			}
		}
		if err != nil {
			close(c.keys)
			return
		}
	}
}

func (c *Local) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

func (c *Local) KeyPressed() bool {
	return len(c.keys) > 0
}

func (c *Local) ReadKey() (byte, bool) {
	b, ok := <-c.keys
	return b, ok
}

func (c *Local) GotoXY(x, y int) {
	fmt.Fprint(c.out, ansi.GotoXY(x, y))
}

func (c *Local) SetAttr(attr byte) {
	fmt.Fprint(c.out, ansi.Attr(attr))
}

func (c *Local) ClearScreen() {
	fmt.Fprint(c.out, ansi.ClearScreen())
}

func (c *Local) Size() (int, int) {
	w, h, err := term.GetSize(int(c.out.Fd()))
	if err != nil || w <= 0 {
		return 80, 25
	}
	return w, h
}

func (c *Local) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	if c.oldState != nil {
		return term.Restore(int(c.in.Fd()), c.oldState)
	}
	return nil
}
