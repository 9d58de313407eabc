package network

import (
	"log/slog"
	"strings"
)

type rloginState int

const (
	rloginAwaitZero rloginState = iota
	rloginAwaitStrings
	rloginPassThrough
)

// RloginFramer implements the server side of the BSD rlogin startup
// exchange. The client opens with a single 0x00 followed by three
// NUL-terminated strings: local user, remote user, and terminal/speed.
// The server acknowledges with one 0x00 and the stream is raw application
// bytes from then on.
type RloginFramer struct {
	state rloginState
	ident []byte
	nuls  int

	// Populated from the client handshake.
	LocalUser  string
	RemoteUser string
	Terminal   string

	log *slog.Logger
}

func NewRloginFramer(log *slog.Logger) *RloginFramer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &RloginFramer{log: log}
}

func (f *RloginFramer) Inbound(c *Conn, data []byte) error {
	i := 0
	for i < len(data) && f.state != rloginPassThrough {
		b := data[i]
		switch f.state {
		case rloginAwaitZero:
			i++
			if b == 0 {
				f.state = rloginAwaitStrings
			} else {
				// Not an rlogin opener; treat the stream as already raw.
				f.state = rloginPassThrough
				c.pushInput(b)
			}

		case rloginAwaitStrings:
			i++
			f.ident = append(f.ident, b)
			if b == 0 {
				f.nuls++
			}
			if f.nuls == 3 {
				f.finishHandshake(c)
			}
		}
	}
	for ; i < len(data); i++ {
		c.pushInput(data[i])
	}
	return nil
}

func (f *RloginFramer) finishHandshake(c *Conn) {
	parts := strings.SplitN(string(f.ident), "\x00", 4)
	if len(parts) >= 3 {
		f.LocalUser = parts[0]
		f.RemoteUser = parts[1]
		f.Terminal = parts[2]
	}
	f.ident = nil
	f.state = rloginPassThrough

	f.log.Debug("rlogin handshake complete",
		"localUser", f.LocalUser, "remoteUser", f.RemoteUser, "terminal", f.Terminal)

	// Single NUL acknowledges the connection.
	c.reply([]byte{0})
}

// HandshakeComplete reports whether the client ident has been consumed.
func (f *RloginFramer) HandshakeComplete() bool {
	return f.state == rloginPassThrough
}

// TerminalType returns the terminal half of the client's "terminal/speed"
// string, e.g. "ansi" from "ansi/115200".
func (f *RloginFramer) TerminalType() string {
	term, _, _ := strings.Cut(f.Terminal, "/")
	return term
}

func (f *RloginFramer) Outbound(q *ByteQueue, data []byte) {
	q.Write(data)
}
