// Package door runs one BBS door session: it reads the host's command
// line and dropfile, opens the inherited socket behind the right protocol
// framer, multiplexes local and remote input, and enforces the idle and
// time limits the host granted.
package door

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"doorway/console"
	"doorway/dropfile"
	"doorway/network"
)

// Control is what an event handler tells the session to do next.
type Control int

const (
	Continue Control = iota
	Exit
)

// ExitReason distinguishes the ways a session ends. Each has its own
// process exit code, so the host can tell them apart. Every abnormal end
// has its own banner; for usage that is the OnUsage output.
type ExitReason int

const (
	ReasonNone ExitReason = iota
	ReasonUsage
	ReasonDropfileMissing
	ReasonNoCarrier
	ReasonHangup
	ReasonTimeUp
	ReasonIdle
)

var exitBanners = map[ExitReason]string{
	ReasonDropfileMissing: "Dropfile Not Found",
	ReasonNoCarrier:       "No Carrier Detected",
	ReasonHangup:          "Carrier Lost - Connection Closed",
	ReasonTimeUp:          "Time Limit Reached - Returning To BBS",
	ReasonIdle:            "Idle Too Long - Disconnected",
}

// exitCodes give the host a distinguishable failure per reason.
var exitCodes = map[ExitReason]int{
	ReasonNone:            0,
	ReasonUsage:           1,
	ReasonDropfileMissing: 2,
	ReasonNoCarrier:       3,
	ReasonHangup:          4,
	ReasonTimeUp:          5,
	ReasonIdle:            6,
}

const (
	dropfileWait    = 5 * time.Second
	bannerPause     = 2500 * time.Millisecond
	defaultMaxIdle  = 5 * time.Minute
	defaultMaxTime  = time.Hour
	arrowGraceMs    = 100
	warningMinutes  = 5
)

// Session is one door run. It is single-owner: nothing here is safe for
// concurrent use.
type Session struct {
	Info *dropfile.DropInfo
	Conn *network.Conn

	// LastKey records the most recent keystroke from either side; the
	// idle check runs off its timestamp.
	LastKey LastKey

	// Handlers for the once-per-second events. The defaults banner and
	// terminate the process; a door may replace them to clean up first.
	OnHangup  func(*Session) Control
	OnTimeUp  func(*Session) Control
	OnTimeout func(*Session) Control
	OnUsage   func(*Session)

	// ExitFunc ends the process; replaceable for tests.
	ExitFunc func(code int)

	opts    Options
	local   console.Console
	log     *slog.Logger
	sleep   func(time.Duration)
	now     func() time.Time

	eventsEnabled    bool
	idleCheckEnabled bool
	maxIdle          time.Duration
	timeStarted      time.Time
	lastTick         time.Time
	statusBarOn      bool
	lastTimeWarn     int
	lastIdleWarn     int
	identAdopted     bool

	exitReason ExitReason
}

// New builds a session over the given console. A nil console gets the
// headless fake; a nil logger discards.
func New(local console.Console, log *slog.Logger) *Session {
	if local == nil {
		local = console.NewHeadless()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		local:            local,
		log:              log,
		ExitFunc:         os.Exit,
		sleep:            time.Sleep,
		now:              time.Now,
		eventsEnabled:    true,
		idleCheckEnabled: true,
		maxIdle:          defaultMaxIdle,
		statusBarOn:      true,
		lastTimeWarn:     -1,
		lastIdleWarn:     -1,
	}
	s.OnHangup = func(s *Session) Control { return Exit }
	s.OnTimeUp = func(s *Session) Control { return Exit }
	s.OnTimeout = func(s *Session) Control { return Exit }
	s.OnUsage = func(s *Session) {
		fmt.Fprintln(os.Stderr, "usage: door [-L] [-D<dropfile>] [-H<handle>] [-N<node>] [-C<comtype>]")
	}
	return s
}

// Startup parses args, locates the dropfile, and opens the connection.
// It does not return on a fatal startup problem: the banner is shown,
// the pause runs, and ExitFunc fires.
func (s *Session) Startup(args []string, onUnknownFlag func(string)) {
	opts, err := ParseFlags(args, onUnknownFlag)
	if err != nil {
		s.log.Error("bad command line", "err", err)
		s.usageAndExit()
		return
	}
	s.opts = opts

	if !opts.usable() {
		s.usageAndExit()
		return
	}

	if opts.DropfilePath != "" {
		if err := dropfile.Wait(opts.DropfilePath, dropfileWait); err != nil {
			s.log.Error("dropfile never appeared", "path", opts.DropfilePath)
			s.Shutdown(ReasonDropfileMissing)
			return
		}
		info, err := dropfile.Load(opts.DropfilePath)
		if err != nil {
			s.log.Error("dropfile unreadable", "path", opts.DropfilePath, "err", err)
			s.Shutdown(ReasonDropfileMissing)
			return
		}
		s.Info = info
	} else if opts.Local {
		s.Info = &dropfile.DropInfo{
			ComType:      dropfile.ComLocal,
			SocketHandle: -1,
			MaxTime:      int(defaultMaxTime / time.Second),
			Alias:        "Sysop",
			RealName:     "Sysop",
			Emulation:    dropfile.EmulationANSI,
		}
	} else {
		s.Info = &dropfile.DropInfo{
			ComType:      dropfile.ComTelnet,
			SocketHandle: opts.SocketHandle,
			Node:         opts.Node,
			MaxTime:      int(defaultMaxTime / time.Second),
			Emulation:    dropfile.EmulationANSI,
		}
	}

	// Command-line overrides win over the dropfile.
	if opts.Node >= 0 {
		s.Info.Node = opts.Node
	}
	if opts.SocketHandle >= 0 {
		s.Info.SocketHandle = opts.SocketHandle
	}
	if opts.ComType >= 0 {
		s.Info.ComType = dropfile.ComType(opts.ComType)
	}
	if opts.Local {
		s.Info.ComType = dropfile.ComLocal
	}

	if err := s.open(); err != nil {
		s.log.Error("connection open failed", "err", err)
		s.Shutdown(ReasonNoCarrier)
		return
	}

	s.timeStarted = s.now()
	s.LastKey = LastKey{PressedAt: s.now()}
	s.log.Info("door session started",
		"comtype", s.Info.ComType.String(),
		"node", s.Info.Node,
		"alias", s.Info.Alias)
}

// FramerFor returns the protocol state machine matching a dropfile com
// type. The WebSocket framer is built with the handshake already done:
// by the time a host launches a door it has upgraded the connection
// itself.
func FramerFor(comType dropfile.ComType, log *slog.Logger) (network.Framer, error) {
	switch comType {
	case dropfile.ComTelnet:
		return network.NewTelnetFramer(log), nil
	case dropfile.ComRlogin:
		return network.NewRloginFramer(log), nil
	case dropfile.ComWebSocket:
		return network.NewWebSocketFramer(false, log), nil
	case dropfile.ComLocal:
		return network.RawFramer{}, nil
	default:
		return nil, fmt.Errorf("unsupported com type %s", comType)
	}
}

func (s *Session) open() error {
	if s.Info.ComType == dropfile.ComLocal {
		return nil
	}

	framer, err := FramerFor(s.Info.ComType, s.log)
	if err != nil {
		return err
	}

	transport, err := network.Adopt(s.Info.SocketHandle)
	if err != nil {
		return err
	}

	conn := network.NewConn(transport, framer, s.log)
	if err := conn.Open(); err != nil {
		return err
	}
	s.Conn = conn
	return nil
}

// AttachConn substitutes an already-open connection, for hosts that hand
// the session a live socket rather than a descriptor (and for tests).
func (s *Session) AttachConn(conn *network.Conn) {
	s.Conn = conn
	if s.Info == nil {
		s.Info = &dropfile.DropInfo{ComType: dropfile.ComTelnet, SocketHandle: -1,
			MaxTime: int(defaultMaxTime / time.Second), Emulation: dropfile.EmulationANSI}
	}
	if s.timeStarted.IsZero() {
		s.timeStarted = s.now()
		s.LastKey = LastKey{PressedAt: s.now()}
	}
}

// Local reports whether this session has no remote peer.
func (s *Session) Local() bool {
	return s.Info == nil || s.Info.ComType == dropfile.ComLocal
}

// Connected reports whether the carrier is still present. Local sessions
// are always connected.
func (s *Session) Connected() bool {
	if s.Local() {
		return true
	}
	return s.Conn != nil && s.Conn.Connected()
}

// SecondsLeft reports the remaining session time.
func (s *Session) SecondsLeft() int {
	if s.Info == nil || s.timeStarted.IsZero() {
		return int(defaultMaxTime / time.Second)
	}
	used := int(s.now().Sub(s.timeStarted) / time.Second)
	return s.Info.MaxTime - used
}

// SetMaxIdle adjusts the idle limit.
func (s *Session) SetMaxIdle(d time.Duration) { s.maxIdle = d }

// EnableEvents turns the once-per-second tick on or off.
func (s *Session) EnableEvents(on bool) { s.eventsEnabled = on }

// EnableIdleCheck turns only the idle portion of the tick on or off.
func (s *Session) EnableIdleCheck(on bool) { s.idleCheckEnabled = on }

// EnableStatusBar turns the sysop status line on or off.
func (s *Session) EnableStatusBar(on bool) { s.statusBarOn = on }

// WriteRaw sends text to the remote side untouched and echoes it on the
// local console.
func (s *Session) WriteRaw(text string) {
	if s.Conn != nil {
		s.Conn.WriteString(text)
	}
	s.local.Write([]byte(text))
}

// Write sends text after expanding |XX pipe color codes.
func (s *Session) Write(text string) {
	s.WriteRaw(expandPipeCodes(text))
}

// WriteLine is Write plus CRLF.
func (s *Session) WriteLine(text string) {
	s.Write(text + "\r\n")
}

// ReadLine reads a line from the remote side with echo, or from the
// local console for local sessions.
func (s *Session) ReadLine(timeoutMs int) string {
	if s.Conn != nil {
		// Clients send a bare CR once the CR/LF filter has run.
		return s.Conn.ReadLine("\r", true, 0, timeoutMs)
	}
	return s.readLocalLine()
}

// ReadPassword is ReadLine with masked echo.
func (s *Session) ReadPassword(mask byte, timeoutMs int) string {
	if s.Conn != nil {
		return s.Conn.ReadLine("\r", true, mask, timeoutMs)
	}
	return s.readLocalLine()
}

func (s *Session) readLocalLine() string {
	var acc []byte
	for {
		b, ok := s.local.ReadKey()
		if !ok {
			return string(acc)
		}
		switch {
		case b == '\r' || b == '\n':
			s.local.Write([]byte("\r\n"))
			return string(acc)
		case b == 0x08 || b == 0x7F:
			if len(acc) > 0 {
				acc = acc[:len(acc)-1]
				s.local.Write([]byte("\x08 \x08"))
			}
		case b >= 0x20:
			acc = append(acc, b)
			s.local.Write([]byte{b})
		}
	}
}

// pause sleeps while keeping the tick alive, so a long LORD delay cannot
// hide a dropped carrier.
func (s *Session) pause(d time.Duration) {
	deadline := s.now().Add(d)
	for s.now().Before(deadline) {
		s.sleep(time.Millisecond)
		if !s.Local() {
			s.tick()
		}
	}
}

// Shutdown banners the given reason on both screens, pauses so the user
// can read it, releases the console and socket, and ends the process
// through ExitFunc. Usage exits pause after the OnUsage output instead of
// a banner; ReasonNone has no banner and no pause.
func (s *Session) Shutdown(reason ExitReason) {
	s.exitReason = reason

	if reason == ReasonUsage {
		s.sleep(bannerPause)
		s.Close()
		s.ExitFunc(exitCodes[reason])
		return
	}

	if banner, ok := exitBanners[reason]; ok {
		s.WriteRaw("\r\n\r\n" + banner + "\r\n")
		s.sleep(bannerPause)
	}
	s.log.Info("door session ended", "reason", reason)
	s.Close()
	s.ExitFunc(exitCodes[reason])
}

func (s *Session) usageAndExit() {
	if s.OnUsage != nil {
		s.OnUsage(s)
	}
	s.Shutdown(ReasonUsage)
}

// ExitReason reports how the session ended, for hosts embedding the
// session in-process with a non-exiting ExitFunc.
func (s *Session) ExitReason() ExitReason { return s.exitReason }

// Close releases the socket and restores the console. Safe to call more
// than once; every exit path funnels through it.
func (s *Session) Close() {
	if s.Conn != nil {
		s.Conn.Close()
	}
	s.local.Close()
}
