package door

import (
	"strings"
	"time"

	"doorway/ansi"
)

// Pipe color grammar: "|XX" with two hex digits becomes the SGR sequence
// for DOS attribute 0xXX. Anything else passes through.
func expandPipeCodes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '|' && i+2 < len(s) {
			hi, okHi := hexVal(s[i+1])
			lo, okLo := hexVal(s[i+2])
			if okHi && okLo {
				sb.WriteString(ansi.Attr(byte(hi<<4 | lo)))
				i += 2
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// backtickFg maps the LORD color codes to DOS foreground indices: `1
// through `9 count up from blue, then `0 ! @ # $ % continue to bright
// white, and `* is black.
var backtickFg = map[byte]int{
	'1': ansi.Blue,
	'2': ansi.Green,
	'3': ansi.Cyan,
	'4': ansi.Red,
	'5': ansi.Magenta,
	'6': ansi.Brown,
	'7': ansi.LightGray,
	'8': ansi.DarkGray,
	'9': ansi.LightBlue,
	'0': ansi.LightGreen,
	'!': ansi.LightCyan,
	'@': ansi.LightRed,
	'#': ansi.LightMagenta,
	'$': ansi.Yellow,
	'%': ansi.White,
	'*': ansi.Black,
}

// WriteLORD writes s expanding the backtick grammar LORD scripts use:
// color codes, backgrounds (`r0-`r7), clear screen (`c), delays (`d `l
// `w), the press-a-key prompt (`k), and a couple of literals. A doubled
// backtick emits one backtick.
func (s *Session) WriteLORD(text string) {
	var out strings.Builder
	flush := func() {
		if out.Len() > 0 {
			s.WriteRaw(out.String())
			out.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '`' || i+1 >= len(text) {
			out.WriteByte(text[i])
			continue
		}
		i++
		code := text[i]

		if fg, ok := backtickFg[code]; ok {
			out.WriteString(ansi.Fg(fg))
			continue
		}

		switch code {
		case '`':
			out.WriteByte('`')
		case 'r':
			if i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '7' {
				i++
				out.WriteString(ansi.Bg(int(text[i] - '0')))
			}
		case 'c':
			out.WriteString(ansi.Attr(0x07))
			out.WriteString(ansi.ClearScreen())
		case 'b':
			// Blink stays on until the next attribute change.
			out.WriteString(ansi.Esc + "5m")
		case 'd':
			flush()
			s.pause(500 * time.Millisecond)
		case 'l':
			flush()
			s.pause(250 * time.Millisecond)
		case 'w':
			flush()
			s.pause(100 * time.Millisecond)
		case 'k':
			flush()
			s.morePrompt()
		case 'x':
			out.WriteByte(' ')
		case '\\':
			out.WriteString("\r\n")
		case '|':
			out.WriteByte('|')
		case '.':
			// Explicit terminator, emits nothing.
		default:
			// Unknown code: keep the text, something upstream may want it.
			out.WriteByte('`')
			out.WriteByte(code)
		}
	}
	flush()
}

// morePrompt paints the LORD pause marker, waits for any key, and erases
// itself.
func (s *Session) morePrompt() {
	const marker = "<MORE>"
	s.WriteRaw(ansi.Fg(ansi.LightGreen) + marker + ansi.Attr(0x07))
	s.ReadKey()
	s.WriteRaw(strings.Repeat("\x08", len(marker)) +
		strings.Repeat(" ", len(marker)) +
		strings.Repeat("\x08", len(marker)))
}
