package door

import "time"

// Hooks for the external test package.

var ExpandPipeCodes = expandPipeCodes

func (s *Session) Tick() Control { return s.tick() }

// SetClockForTest replaces the wall clock and the sleeper so event tests
// do not wait in real time.
func (s *Session) SetClockForTest(now func() time.Time, sleep func(time.Duration)) {
	if now != nil {
		s.now = now
	}
	if sleep != nil {
		s.sleep = sleep
	}
}

func (s *Session) SetStartedForTest(t time.Time) { s.timeStarted = t }
