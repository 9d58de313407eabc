package door

import (
	"fmt"
	"time"

	"doorway/network"
)

// tick runs the once-per-second session events: carrier check, time
// limit, idle limit, the minute warnings for both, and the status bar
// refresh. Calls inside the same second are no-ops, so it is safe to
// invoke from every poll loop.
func (s *Session) tick() Control {
	if !s.eventsEnabled || s.Local() {
		return Continue
	}

	now := s.now()
	if now.Sub(s.lastTick) < time.Second {
		return Continue
	}
	s.lastTick = now

	// Carrier first: nothing else matters if the user is gone.
	if s.Conn == nil || !s.Conn.Connected() {
		s.log.Info("carrier dropped")
		if s.OnHangup(s) == Exit {
			s.Shutdown(ReasonHangup)
		}
		return Exit
	}

	s.adoptRloginIdent()

	secondsLeft := s.SecondsLeft()
	if secondsLeft < 1 {
		if s.OnTimeUp(s) == Exit {
			s.Shutdown(ReasonTimeUp)
			return Exit
		}
	}

	if s.idleCheckEnabled {
		idle := now.Sub(s.LastKey.PressedAt)
		if idle > s.maxIdle {
			if s.OnTimeout(s) == Exit {
				s.Shutdown(ReasonIdle)
				return Exit
			}
		} else {
			s.warnIdle(idle)
		}
	}

	s.warnTime(secondsLeft)

	if s.statusBarOn {
		s.refreshStatusBar()
	}
	return Continue
}

// adoptRloginIdent copies the client ident into the session info once an
// rlogin handshake lands, for hosts that skip the dropfile.
func (s *Session) adoptRloginIdent() {
	if s.identAdopted || s.Conn == nil {
		return
	}
	rl, ok := s.Conn.Framer().(*network.RloginFramer)
	if !ok || !rl.HandshakeComplete() {
		return
	}
	s.identAdopted = true
	if s.Info.Alias == "" {
		s.Info.Alias = rl.RemoteUser
	}
	if s.Info.RealName == "" {
		s.Info.RealName = rl.LocalUser
	}
}

// warnTime nags at each minute boundary once five or fewer minutes
// remain.
func (s *Session) warnTime(secondsLeft int) {
	minutes := secondsLeft / 60
	if minutes < 1 || minutes > warningMinutes || secondsLeft%60 != 0 {
		return
	}
	if minutes == s.lastTimeWarn {
		return
	}
	s.lastTimeWarn = minutes
	s.WriteLine(fmt.Sprintf("\r\n|0C%d minute(s) of BBS time remaining.|07", minutes))
}

// warnIdle nags at each minute boundary of remaining idle allowance once
// five or fewer remain. A keypress resets the ladder.
func (s *Session) warnIdle(idle time.Duration) {
	remaining := s.maxIdle - idle
	minutes := int(remaining / time.Minute)
	if minutes < 1 || minutes > warningMinutes {
		return
	}
	if int(remaining/time.Second)%60 != 0 {
		return
	}
	if minutes == s.lastIdleWarn {
		return
	}
	s.lastIdleWarn = minutes
	s.WriteLine(fmt.Sprintf("\r\n|0CAre you still there? %d minute(s) before the door gives up.|07", minutes))
}
