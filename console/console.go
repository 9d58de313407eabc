// Package console abstracts the sysop-side screen and keyboard. A door
// session talks to one Console for local echo and status display; tests
// and headless hosts substitute the fake.
package console

import "io"

// Console is what a door session needs from the local terminal. A
// Console is process-global state behind an injected interface; only one
// session drives it.
type Console interface {
	io.Writer

	// KeyPressed reports whether a local key is waiting without
	// consuming it.
	KeyPressed() bool

	// ReadKey returns the next local key, blocking until one arrives.
	// ok is false once the console cannot deliver keys anymore.
	ReadKey() (b byte, ok bool)

	// GotoXY addresses the cursor, 1-based.
	GotoXY(x, y int)

	// SetAttr applies a DOS text attribute.
	SetAttr(attr byte)

	// ClearScreen clears and homes.
	ClearScreen()

	// Size reports the window dimensions in character cells.
	Size() (w, h int)

	// Close restores whatever state the console changed at open.
	Close() error
}
