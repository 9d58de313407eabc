// doordemo is a minimal door built on this library: it greets the caller
// and echoes lines. It reads input through Session.ReadLine, which does
// not run the once-per-second event tick, so the host's idle and time
// limits are not enforced while it waits. Run it from a host (doorcheck
// serve, Mystic, anything writing DOOR32.SYS) or locally with -L.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"doorway/console"
	"doorway/door"
)

func main() {
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))

	local, err := console.OpenLocal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}

	s := door.New(local, log)
	s.Startup(os.Args[1:], nil)
	defer s.Close()

	s.WriteLORD("`c`%Welcome to the demo door, `$" + s.Info.Alias + "`%!`\\`\\")
	s.Write("|0BType something and I will repeat it. \"quit\" leaves.|07\r\n")

	for {
		s.Write("\r\n|0E> |07")
		line := s.ReadLine(60_000)
		if !s.Connected() {
			return
		}
		if line == "quit" {
			break
		}
		if line != "" {
			s.WriteLine("You said: " + line)
		}
	}

	s.WriteLORD("`2Thanks for stopping by.`\\")
	s.Shutdown(door.ReasonNone)
}
