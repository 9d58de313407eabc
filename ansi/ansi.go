// Package ansi generates the escape sequences door programs paint with:
// DOS color attributes translated to SGR, cursor movement, and screen
// clearing. Everything here is a pure function of its arguments.
package ansi

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	Esc      = "\x1b["
	ResetSeq = "\x1b[0m"
)

// DOS color indices, as dropfile-era software counts them.
const (
	Black = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	Yellow
	White
)

// dosToAnsi maps a DOS color index (0-7) to its ANSI color offset.
var dosToAnsi = [8]int{0, 4, 2, 6, 1, 5, 3, 7}

// Attr renders a full DOS text attribute byte: low nibble foreground with
// intensity, bits 4-6 background, bit 7 blink.
func Attr(attr byte) string {
	fg := int(attr & 0x0F)
	bg := int(attr>>4) & 0x07
	blink := attr&0x80 != 0

	parts := []string{"0"}
	if fg&8 != 0 {
		parts = append(parts, "1")
	}
	if blink {
		parts = append(parts, "5")
	}
	parts = append(parts,
		strconv.Itoa(30+dosToAnsi[fg&7]),
		strconv.Itoa(40+dosToAnsi[bg]))

	return Esc + strings.Join(parts, ";") + "m"
}

// Fg sets the foreground from a DOS color index 0-15. Bright colors set
// bold; normal colors start with a reset, which also clears the
// background and any other attributes.
func Fg(color int) string {
	color &= 0x0F
	if color&8 != 0 {
		return fmt.Sprintf("%s1;%dm", Esc, 30+dosToAnsi[color&7])
	}
	return fmt.Sprintf("%s0;%dm", Esc, 30+dosToAnsi[color&7])
}

// Bg sets only the background from a DOS color index 0-7.
func Bg(color int) string {
	return fmt.Sprintf("%s%dm", Esc, 40+dosToAnsi[color&7])
}

// GotoXY addresses the cursor, 1-based.
func GotoXY(x, y int) string {
	return fmt.Sprintf("%s%d;%dH", Esc, y, x)
}

func CursorUp(n int) string    { return fmt.Sprintf("%s%dA", Esc, n) }
func CursorDown(n int) string  { return fmt.Sprintf("%s%dB", Esc, n) }
func CursorRight(n int) string { return fmt.Sprintf("%s%dC", Esc, n) }
func CursorLeft(n int) string  { return fmt.Sprintf("%s%dD", Esc, n) }

func SaveCursor() string    { return Esc + "s" }
func RestoreCursor() string { return Esc + "u" }

// ClearScreen clears and homes the cursor.
func ClearScreen() string { return Esc + "2J" + Esc + "H" }

// ClearEOL clears from the cursor to the end of the line.
func ClearEOL() string { return Esc + "K" }
