package network

import (
	"log/slog"
	"net"
	"strings"
	"time"
)

// Conn couples a Transport with a Framer and two ByteQueues and presents
// the application's I/O surface: timed byte reads, a line reader with echo
// and masking, and atomic framed writes.
//
// A Conn is single-owner. Nothing here is safe for concurrent use, and the
// input queue only advances when the application calls one of the Read
// methods or CanRead.
type Conn struct {
	transport *Transport
	framer    Framer
	in        ByteQueue
	out       ByteQueue
	log       *slog.Logger

	lastByteIn      byte
	lineEnding      string
	stripLF         bool
	stripNull       bool
	timedOut        bool
	connected       bool
	shutdownOnClose bool

	localAddr  net.Addr
	remoteAddr net.Addr

	recvBuf []byte
}

// NewConn wires a Transport to a Framer. CR/LF and CR/NUL suppression are
// on by default, matching what every terminal-era client sends.
func NewConn(t *Transport, f Framer, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Conn{
		transport:       t,
		framer:          f,
		log:             log,
		lineEnding:      "\r\n",
		stripLF:         true,
		stripNull:       true,
		shutdownOnClose: true,
		recvBuf:         make([]byte, recvChunk),
	}
}

type shaker interface {
	Shake(c *Conn) error
}

// Open marks the connection live and, when the framer owes the client an
// opening handshake, drives it to completion. On handshake failure the
// socket is closed and the error returned.
func (c *Conn) Open() error {
	c.connected = true
	c.localAddr = c.transport.LocalAddr()
	c.remoteAddr = c.transport.RemoteAddr()

	if s, ok := c.framer.(shaker); ok {
		if err := s.Shake(c); err != nil {
			c.log.Warn("connection handshake failed", "err", err)
			c.Close()
			return err
		}
	}
	return nil
}

// Connected reports whether the peer is still there.
func (c *Conn) Connected() bool { return c.connected }

// TimedOut reports whether the most recent read gave up waiting. It is
// cleared by the next successful read.
func (c *Conn) TimedOut() bool { return c.timedOut }

// Framer returns the protocol state machine this connection runs on.
func (c *Conn) Framer() Framer { return c.framer }

func (c *Conn) LocalAddr() net.Addr  { return c.localAddr }
func (c *Conn) RemoteAddr() net.Addr { return c.remoteAddr }

// SetLineEnding changes the terminator WriteLine appends.
func (c *Conn) SetLineEnding(s string) { c.lineEnding = s }

// SetStripLF controls dropping a \n whose wire predecessor was \r.
func (c *Conn) SetStripLF(on bool) { c.stripLF = on }

// SetStripNull controls dropping a NUL whose wire predecessor was \r.
func (c *Conn) SetStripNull(on bool) { c.stripNull = on }

// SetShutdownOnClose controls the half-close before the socket close.
func (c *Conn) SetShutdownOnClose(on bool) { c.shutdownOnClose = on }

// pushInput applies the CR/LF and CR/NUL suppression and appends b to the
// input queue. Framers call it for every decoded application byte.
func (c *Conn) pushInput(b byte) {
	prev := c.lastByteIn
	c.lastByteIn = b
	if prev == '\r' {
		if (c.stripLF && b == '\n') || (c.stripNull && b == 0) {
			return
		}
	}
	c.in.WriteByte(b)
}

// reply sends protocol bytes (negotiation answers, handshake responses)
// straight to the transport, bypassing the outbound framer.
func (c *Conn) reply(p []byte) error {
	return c.transport.SendAll(p)
}

// fill polls the transport for up to ms milliseconds and feeds anything
// received through the framer. It returns false once the connection is
// down.
func (c *Conn) fill(ms int) bool {
	if !c.connected {
		return false
	}
	if !c.transport.PollReadable(ms) {
		return true
	}
	n, err := c.transport.Recv(c.recvBuf)
	if n > 0 {
		if ferr := c.framer.Inbound(c, c.recvBuf[:n]); ferr != nil {
			// Framer parse errors (malformed frame, close opcode) take
			// the connection down.
			c.log.Debug("inbound framing error", "err", ferr)
			c.disconnect()
			return false
		}
	}
	if err != nil {
		c.disconnect()
		return false
	}
	return true
}

func (c *Conn) disconnect() {
	if !c.connected {
		return
	}
	c.connected = false
	c.transport.Close()
}

// CanRead reports whether a byte is already available, polling the
// transport once.
func (c *Conn) CanRead() bool {
	if c.in.Len() > 0 {
		return true
	}
	c.fill(1)
	return c.in.Len() > 0
}

// Peek returns the next input byte without consuming it.
func (c *Conn) Peek() (byte, bool) {
	if !c.CanRead() {
		return 0, false
	}
	return c.in.Bytes()[0], true
}

// ReadByte returns the next application byte, waiting up to timeoutMs
// milliseconds. A timeout of 0 waits forever. The second return value is
// false on timeout (TimedOut reports true) or disconnect (it reports
// false).
func (c *Conn) ReadByte(timeoutMs int) (byte, bool) {
	var deadline time.Time
	if timeoutMs > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}
	for {
		if b, ok := c.in.ReadByte(); ok {
			c.timedOut = false
			return b, true
		}
		if !c.connected {
			c.timedOut = false
			return 0, false
		}
		c.fill(1)
		if !deadline.IsZero() && time.Now().After(deadline) {
			c.timedOut = true
			return 0, false
		}
	}
}

// ReadChar is ReadByte for callers thinking in characters.
func (c *Conn) ReadChar(timeoutMs int) (byte, bool) {
	return c.ReadByte(timeoutMs)
}

// ReadBytes waits up to timeoutMs for input, then drains and returns
// everything queued. It returns nil on timeout or disconnect.
func (c *Conn) ReadBytes(timeoutMs int) []byte {
	var deadline time.Time
	if timeoutMs > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}
	for {
		if c.in.Len() > 0 {
			c.timedOut = false
			out := make([]byte, c.in.Len())
			copy(out, c.in.Next(c.in.Len()))
			return out
		}
		if !c.connected {
			return nil
		}
		c.fill(1)
		if !deadline.IsZero() && time.Now().After(deadline) {
			c.timedOut = true
			return nil
		}
	}
}

// ReadLine accumulates characters until the accumulator ends with
// terminator (pass "" for the default "\r\n").
//
// With echo on, printable bytes are echoed back to the peer, replaced by
// mask when mask is nonzero; 0x08/0x7F erase the last accumulated byte and
// rub it out on screen when it was printable; non-printable bytes are only
// kept when they belong to the terminator. With echo off every byte is
// kept verbatim and nothing is sent.
//
// On timeout the partial accumulator is returned as-is. Otherwise the
// terminator is stripped and, with echo on, a "\r\n" is sent.
func (c *Conn) ReadLine(terminator string, echo bool, mask byte, timeoutMs int) string {
	if terminator == "" {
		terminator = "\r\n"
	}
	var acc []byte
	for {
		ch, ok := c.ReadByte(timeoutMs)
		if !ok {
			// Timeout or disconnect: hand back what we have.
			return string(acc)
		}

		if !echo {
			acc = append(acc, ch)
		} else {
			switch {
			case ch == 0x08 || ch == 0x7F:
				if len(acc) > 0 {
					last := acc[len(acc)-1]
					acc = acc[:len(acc)-1]
					if last >= 0x20 {
						c.WriteString("\x08 \x08")
					}
				}
				continue
			case ch >= 0x20:
				acc = append(acc, ch)
				if mask != 0 {
					c.Write([]byte{mask})
				} else {
					c.Write([]byte{ch})
				}
			case strings.IndexByte(terminator, ch) >= 0:
				acc = append(acc, ch)
			default:
				continue
			}
		}

		if len(acc) >= len(terminator) && string(acc[len(acc)-len(terminator):]) == terminator {
			line := string(acc[:len(acc)-len(terminator)])
			if echo {
				c.WriteString("\r\n")
			}
			return line
		}
	}
}

// Write passes p through the outbound framer and sends the whole framed
// payload before returning.
func (c *Conn) Write(p []byte) error {
	if !c.connected || len(p) == 0 {
		return nil
	}
	c.framer.Outbound(&c.out, p)
	err := c.transport.SendAll(c.out.Bytes())
	c.out.Reset()
	if err != nil {
		c.log.Error("send failed", "err", err)
		c.disconnect()
	}
	if c.transport.Closed() {
		c.connected = false
	}
	return err
}

func (c *Conn) WriteString(s string) error {
	return c.Write([]byte(s))
}

// WriteLine writes s followed by the configured line ending.
func (c *Conn) WriteLine(s string) error {
	return c.Write([]byte(s + c.lineEnding))
}

// Close half-closes (when configured), closes the socket, and leaves the
// Conn disconnected. Reopening requires a fresh Conn.
func (c *Conn) Close() {
	if c.transport == nil {
		return
	}
	if c.connected && c.shutdownOnClose {
		c.transport.Shutdown()
	}
	c.connected = false
	c.transport.Close()
}
