package door

import (
	"time"
)

// KeySource says which side of the session pressed a key.
type KeySource int

const (
	KeySourceNone KeySource = iota
	KeySourceLocal
	KeySourceRemote
)

// LastKey remembers the most recent keystroke; the idle check consumes
// its timestamp.
type LastKey struct {
	Char      byte
	Extended  bool
	Source    KeySource
	PressedAt time.Time
}

// DOS extended scan codes for the arrow keys, what dropfile-era doors
// expect an Extended key to carry.
const (
	KeyUp    byte = 72
	KeyDown  byte = 80
	KeyLeft  byte = 75
	KeyRight byte = 77
)

// arrowKeys maps the final byte of an ANSI "ESC [ X" sequence to its
// scan code.
var arrowKeys = map[byte]byte{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
}

// KeyPressed reports whether a key is waiting on either side. For
// non-local sessions it also runs the once-per-second event tick, which
// is how carrier, idle and time checks stay alive while a door sits at a
// prompt.
func (s *Session) KeyPressed() bool {
	if !s.Local() {
		s.tick()
	}
	if s.local.KeyPressed() {
		return true
	}
	return s.Conn != nil && s.Conn.CanRead()
}

// ReadKey blocks until a key arrives from the local console or the
// remote connection, recording it in LastKey. Remote ESC may open an
// ANSI arrow sequence; up to two further bytes are collected inside a
// 100 ms grace window before deciding whether the ESC stood alone.
//
// ok is false when the session can no longer deliver keys: the carrier is
// gone, the event tick ended the session, or, for a console-only
// session, the console closed.
func (s *Session) ReadKey() (b byte, ok bool) {
	for {
		if !s.Local() {
			if s.tick() == Exit {
				return 0, false
			}
		}

		if s.local.KeyPressed() {
			if key, ok := s.local.ReadKey(); ok {
				s.record(key, false, KeySourceLocal)
				return key, true
			}
		}

		if s.Conn != nil {
			if !s.Conn.Connected() {
				return 0, false
			}
			if s.Conn.CanRead() {
				key, _ := s.Conn.ReadByte(0)
				if key == 0x1B {
					if ext, isArrow := s.readArrowTail(); isArrow {
						s.record(ext, true, KeySourceRemote)
						return ext, true
					}
				}
				s.record(key, false, KeySourceRemote)
				return key, true
			}
		} else {
			// Console-only session: block on the console itself.
			key, ok := s.local.ReadKey()
			if !ok {
				return 0, false
			}
			s.record(key, false, KeySourceLocal)
			return key, true
		}

		s.sleep(time.Millisecond)
	}
}

// readArrowTail collects the rest of an ANSI arrow sequence. It returns
// the scan code when one matched; otherwise the consumed bytes were not
// an arrow and the caller reports the bare ESC.
func (s *Session) readArrowTail() (byte, bool) {
	b1, ok := s.Conn.ReadByte(arrowGraceMs)
	if !ok {
		return 0, false
	}
	if b1 != '[' {
		// Not a CSI; push-back is not worth the machinery, doors treat
		// stray escapes as ESC anyway.
		return 0, false
	}
	b2, ok := s.Conn.ReadByte(arrowGraceMs)
	if !ok {
		return 0, false
	}
	code, isArrow := arrowKeys[b2]
	return code, isArrow
}

func (s *Session) record(key byte, extended bool, source KeySource) {
	s.LastKey = LastKey{
		Char:      key,
		Extended:  extended,
		Source:    source,
		PressedAt: s.now(),
	}
	s.lastIdleWarn = -1
}
