package dropfile

// DOOR32.SYS, 11 lines:
//
//	1  com type (0 local, 1 serial, 2 telnet, 3 rlogin, 4 websocket)
//	2  socket handle
//	3  baud rate
//	4  BBS id (ignored)
//	5  user record position, 1-based
//	6  real name
//	7  alias
//	8  access level
//	9  time left, minutes
//	10 emulation (0 ASCII, 1 ANSI, anything higher treated as ANSI)
//	11 node number
func parseDoor32(lines []string) (*DropInfo, error) {
	info := &DropInfo{SocketHandle: -1}

	comType, err := intField(lines, 0, "com type")
	if err != nil {
		return nil, err
	}
	info.ComType = ComType(comType)

	if info.SocketHandle, err = intField(lines, 1, "socket handle"); err != nil {
		return nil, err
	}
	if info.Baud, err = intField(lines, 2, "baud rate"); err != nil {
		return nil, err
	}

	recPos, err := intField(lines, 4, "record position")
	if err != nil {
		return nil, err
	}
	info.RecPos = recPos - 1

	if info.RealName, err = strField(lines, 5, "real name"); err != nil {
		return nil, err
	}
	if info.Alias, err = strField(lines, 6, "alias"); err != nil {
		return nil, err
	}
	if info.Access, err = intField(lines, 7, "access level"); err != nil {
		return nil, err
	}

	minutes, err := intField(lines, 8, "time left")
	if err != nil {
		return nil, err
	}
	info.MaxTime = minutes * 60

	emulation, err := intField(lines, 9, "emulation")
	if err != nil {
		return nil, err
	}
	if emulation >= 1 {
		info.Emulation = EmulationANSI
	}

	if info.Node, err = intField(lines, 10, "node number"); err != nil {
		return nil, err
	}

	return info, nil
}
