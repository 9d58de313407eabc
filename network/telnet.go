package network

import (
	"log/slog"
)

type telnetState int

const (
	telnetData telnetState = iota
	telnetSawIAC
	telnetSawCommand
	telnetInSB
	telnetSawSBIAC
)

// TelnetFramer strips RFC 854 option negotiation from the inbound stream
// and answers it server-side. The response policy is deliberately small:
// agree to BINARY, ECHO and SUPPRESS-GA, refuse everything else.
//
//	DO   opt -> WILL opt  for BINARY, ECHO, SGA; WONT opt otherwise
//	DONT opt -> WONT opt
//	WILL opt -> DO opt    for BINARY, SGA; DONT opt otherwise
//	WONT opt -> DONT opt  when we had the option enabled
//
// Duplicate WILL/DO replies are suppressed to avoid negotiation loops.
type TelnetFramer struct {
	state telnetState
	cmd   byte
	sb    []byte

	localOn  map[byte]bool // options WE have agreed to (WILL)
	remoteOn map[byte]bool // options THE CLIENT has agreed to (DO)
	sentWill map[byte]bool
	sentDo   map[byte]bool

	log *slog.Logger
}

func NewTelnetFramer(log *slog.Logger) *TelnetFramer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &TelnetFramer{
		localOn:  make(map[byte]bool),
		remoteOn: make(map[byte]bool),
		sentWill: make(map[byte]bool),
		sentDo:   make(map[byte]bool),
		log:      log,
	}
}

func (f *TelnetFramer) Inbound(c *Conn, data []byte) error {
	for _, b := range data {
		switch f.state {
		case telnetData:
			if b == TelnetIAC {
				f.state = telnetSawIAC
			} else {
				c.pushInput(b)
			}

		case telnetSawIAC:
			switch b {
			case TelnetWILL, TelnetWONT, TelnetDO, TelnetDONT:
				f.cmd = b
				f.state = telnetSawCommand
			case TelnetSB:
				f.sb = f.sb[:0]
				f.state = telnetInSB
			case TelnetIAC:
				// Escaped data byte 255.
				c.pushInput(TelnetIAC)
				f.state = telnetData
			default:
				// NOP, AYT, GA and the rest carry no option and no reply.
				f.log.Debug("telnet command [IN]", "cmd", telnetCommandNames[b])
				f.state = telnetData
			}

		case telnetSawCommand:
			if err := f.respond(c, f.cmd, b); err != nil {
				return err
			}
			f.state = telnetData

		case telnetInSB:
			if b == TelnetIAC {
				f.state = telnetSawSBIAC
			} else {
				f.sb = append(f.sb, b)
			}

		case telnetSawSBIAC:
			switch b {
			case TelnetSE:
				f.handleSubNegotiation()
				f.state = telnetData
			case TelnetIAC:
				// Literal 255 inside sub-negotiation data.
				f.sb = append(f.sb, TelnetIAC)
				f.state = telnetInSB
			default:
				// Malformed; drop the sub-negotiation and resync.
				f.state = telnetData
			}
		}
	}
	return nil
}

func (f *TelnetFramer) respond(c *Conn, cmd, option byte) error {
	f.log.Debug("telnet command [IN]",
		"cmd", telnetCommandNames[cmd], "opt", telnetOptionName(option))

	switch cmd {
	case TelnetDO:
		switch option {
		case OptBinary, OptEcho, OptSGA:
			f.localOn[option] = true
			return f.sendWill(c, option)
		default:
			return f.reply(c, TelnetWONT, option)
		}

	case TelnetDONT:
		f.localOn[option] = false
		f.sentWill[option] = false
		return f.reply(c, TelnetWONT, option)

	case TelnetWILL:
		switch option {
		case OptBinary, OptSGA:
			f.remoteOn[option] = true
			return f.sendDo(c, option)
		default:
			return f.reply(c, TelnetDONT, option)
		}

	case TelnetWONT:
		if f.remoteOn[option] {
			f.remoteOn[option] = false
			f.sentDo[option] = false
			return f.reply(c, TelnetDONT, option)
		}
	}
	return nil
}

func (f *TelnetFramer) sendWill(c *Conn, option byte) error {
	if f.sentWill[option] {
		return nil
	}
	f.sentWill[option] = true
	return f.reply(c, TelnetWILL, option)
}

func (f *TelnetFramer) sendDo(c *Conn, option byte) error {
	if f.sentDo[option] {
		return nil
	}
	f.sentDo[option] = true
	return f.reply(c, TelnetDO, option)
}

func (f *TelnetFramer) reply(c *Conn, cmd, option byte) error {
	f.log.Debug("telnet command [OUT]",
		"cmd", telnetCommandNames[cmd], "opt", telnetOptionName(option))
	return c.reply([]byte{TelnetIAC, cmd, option})
}

func (f *TelnetFramer) handleSubNegotiation() {
	if len(f.sb) == 0 {
		return
	}
	// Door clients rarely sub-negotiate anything we act on; record it for
	// the sysop log and move on.
	f.log.Debug("telnet sub-negotiation [IN]",
		"opt", telnetOptionName(f.sb[0]), "len", len(f.sb)-1)
}

// IsLocalOptionEnabled reports whether we have agreed to perform option.
func (f *TelnetFramer) IsLocalOptionEnabled(option byte) bool {
	return f.localOn[option]
}

// IsRemoteOptionEnabled reports whether the client has agreed to perform
// option.
func (f *TelnetFramer) IsRemoteOptionEnabled(option byte) bool {
	return f.remoteOn[option]
}

// Announce starts server-side negotiation for the options a door host
// wants: we echo, we suppress go-ahead, the client transmits binary. Hosts
// that accept raw telnet connections call it right after Accept; a door
// adopting an inherited socket does not, the host already negotiated.
func (f *TelnetFramer) Announce(c *Conn) error {
	f.localOn[OptEcho] = true
	f.localOn[OptSGA] = true
	if err := f.sendWill(c, OptEcho); err != nil {
		return err
	}
	if err := f.sendWill(c, OptSGA); err != nil {
		return err
	}
	return f.sendDo(c, OptBinary)
}

// Outbound escapes literal 0xFF data bytes as IAC IAC.
func (f *TelnetFramer) Outbound(q *ByteQueue, data []byte) {
	for _, b := range data {
		q.WriteByte(b)
		if b == TelnetIAC {
			q.WriteByte(TelnetIAC)
		}
	}
}
