// Package dropfile reads the small text files a BBS host writes before
// launching a door: the user's identity, the time they have left, and the
// descriptor of the already-open socket.
package dropfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrMissing reports that the dropfile never appeared.
	ErrMissing = errors.New("dropfile not found")

	// ErrMalformed reports a dropfile with too few lines or a field that
	// does not parse.
	ErrMalformed = errors.New("malformed dropfile")
)

// ComType enumerates the framing the host established for the inherited
// socket.
type ComType int

const (
	ComLocal     ComType = 0
	ComSerial    ComType = 1 // unsupported, carried for completeness
	ComTelnet    ComType = 2
	ComRlogin    ComType = 3
	ComWebSocket ComType = 4
)

func (t ComType) String() string {
	switch t {
	case ComLocal:
		return "local"
	case ComSerial:
		return "serial"
	case ComTelnet:
		return "telnet"
	case ComRlogin:
		return "rlogin"
	case ComWebSocket:
		return "websocket"
	}
	return fmt.Sprintf("comtype(%d)", int(t))
}

// Emulation is the terminal capability the host recorded for the user.
type Emulation int

const (
	EmulationASCII Emulation = iota
	EmulationANSI
)

func (e Emulation) String() string {
	if e == EmulationANSI {
		return "ANSI"
	}
	return "ASCII"
}

// DropInfo is the configuration extracted from the dropfile. It is built
// once by Load and read-only from then on.
type DropInfo struct {
	ComType      ComType
	SocketHandle int // platform-native descriptor, -1 for local
	Baud         int
	Node         int
	Access       int
	RecPos       int // 0-based user record position
	MaxTime      int // seconds
	Alias        string
	RealName     string
	Emulation    Emulation

	// LORD-specific flags, populated from INFO.* dropfiles.
	Fairy      bool
	Registered bool
	Clean      bool
}

// Load parses the dropfile at path, dispatching on its filename:
// DOOR32.SYS gets the Mystic/EleBBS 11-line format, INFO.* the LORD
// 14-line format.
func Load(path string) (*DropInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, err
	}

	lines := splitLines(string(data))
	name := strings.ToLower(filepath.Base(path))
	switch {
	case name == "door32.sys":
		return parseDoor32(lines)
	case strings.HasPrefix(name, "info"):
		return parseInfo(lines)
	default:
		return nil, fmt.Errorf("%w: unrecognized dropfile %s", ErrMalformed, name)
	}
}

// splitLines tolerates CRLF and a missing final newline.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}

func intField(lines []string, idx int, what string) (int, error) {
	if idx >= len(lines) {
		return 0, fmt.Errorf("%w: missing %s (line %d)", ErrMalformed, what, idx+1)
	}
	n, err := strconv.Atoi(strings.TrimSpace(lines[idx]))
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", ErrMalformed, what, lines[idx])
	}
	return n, nil
}

func strField(lines []string, idx int, what string) (string, error) {
	if idx >= len(lines) {
		return "", fmt.Errorf("%w: missing %s (line %d)", ErrMalformed, what, idx+1)
	}
	return strings.TrimSpace(lines[idx]), nil
}
