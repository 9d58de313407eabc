package dropfile

import "strings"

// INFO.*, the LORD 14-line format:
//
//	1  user record position, 0-based
//	2  emulation ("3" means ANSI, anything else ASCII)
//	3  RIP flag (ignored)
//	4  "FAIRY YES" / "FAIRY NO"
//	5  time left, minutes
//	6  alias
//	7  first name
//	8  last name, appended when nonempty
//	9  com port / socket handle
//	10 baud rate
//	11 port baud (ignored)
//	12 fossil/internal/telnet (ignored)
//	13 "REGISTERED" / "UNREGISTERED"
//	14 "CLEAN MODE ON" / "CLEAN MODE OFF"
//
// The format predates com types; a positive handle means the host holds a
// telnet socket for us, otherwise the session is local.
func parseInfo(lines []string) (*DropInfo, error) {
	info := &DropInfo{SocketHandle: -1}

	var err error
	if info.RecPos, err = intField(lines, 0, "record position"); err != nil {
		return nil, err
	}

	emulation, err := strField(lines, 1, "emulation")
	if err != nil {
		return nil, err
	}
	if emulation == "3" {
		info.Emulation = EmulationANSI
	}

	fairy, err := strField(lines, 3, "fairy flag")
	if err != nil {
		return nil, err
	}
	info.Fairy = strings.EqualFold(fairy, "FAIRY YES")

	minutes, err := intField(lines, 4, "time left")
	if err != nil {
		return nil, err
	}
	info.MaxTime = minutes * 60

	if info.Alias, err = strField(lines, 5, "alias"); err != nil {
		return nil, err
	}

	first, err := strField(lines, 6, "first name")
	if err != nil {
		return nil, err
	}
	last, err := strField(lines, 7, "last name")
	if err != nil {
		return nil, err
	}
	info.RealName = first
	if last != "" {
		info.RealName = first + " " + last
	}

	if info.SocketHandle, err = intField(lines, 8, "com port"); err != nil {
		return nil, err
	}
	if info.Baud, err = intField(lines, 9, "baud rate"); err != nil {
		return nil, err
	}

	registered, err := strField(lines, 12, "registered flag")
	if err != nil {
		return nil, err
	}
	info.Registered = strings.EqualFold(registered, "REGISTERED")

	clean, err := strField(lines, 13, "clean mode")
	if err != nil {
		return nil, err
	}
	info.Clean = strings.EqualFold(clean, "CLEAN MODE ON")

	if info.SocketHandle > 0 {
		info.ComType = ComTelnet
	} else {
		info.ComType = ComLocal
		info.SocketHandle = -1
	}

	return info, nil
}
