package door

import (
	"fmt"
	"strconv"
	"strings"
)

// Options is the launch configuration a host passes on the command line.
// Doors inherited their flag style from DOS: single letters, values
// attached, "-" or "/" prefix, case-insensitive.
//
//	-L          local session, no socket
//	-D<path>    dropfile to load
//	-H<int>     inherited socket handle
//	-N<int>     node number
//	-C<int>     com type override
type Options struct {
	Local        bool
	DropfilePath string
	SocketHandle int
	Node         int
	ComType      int // -1 when not overridden
}

// ParseFlags reads the host's command line. Flags it does not recognize
// are handed to onUnknown so the door can define its own.
func ParseFlags(args []string, onUnknown func(arg string)) (Options, error) {
	opts := Options{
		SocketHandle: -1,
		Node:         -1,
		ComType:      -1,
	}

	for _, arg := range args {
		if len(arg) < 2 || (arg[0] != '-' && arg[0] != '/') {
			if onUnknown != nil {
				onUnknown(arg)
			}
			continue
		}
		key := arg[1] | 0x20 // lowercase
		value := arg[2:]

		switch key {
		case 'l':
			opts.Local = true
		case 'd':
			opts.DropfilePath = value
		case 'h':
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, fmt.Errorf("bad socket handle %q", value)
			}
			opts.SocketHandle = n
		case 'n':
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, fmt.Errorf("bad node number %q", value)
			}
			opts.Node = n
		case 'c':
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, fmt.Errorf("bad com type %q", value)
			}
			opts.ComType = n
		default:
			if onUnknown != nil {
				onUnknown(arg)
			}
		}
	}
	return opts, nil
}

// usable reports whether the options describe a runnable session: local,
// an explicit handle+node pair, or a dropfile to read.
func (o Options) usable() bool {
	if o.Local || o.DropfilePath != "" {
		return true
	}
	return o.SocketHandle >= 0 && o.Node >= 0
}

// String renders the options for logging.
func (o Options) String() string {
	var parts []string
	if o.Local {
		parts = append(parts, "local")
	}
	if o.DropfilePath != "" {
		parts = append(parts, "dropfile="+o.DropfilePath)
	}
	if o.SocketHandle >= 0 {
		parts = append(parts, fmt.Sprintf("handle=%d", o.SocketHandle))
	}
	if o.Node >= 0 {
		parts = append(parts, fmt.Sprintf("node=%d", o.Node))
	}
	if o.ComType >= 0 {
		parts = append(parts, fmt.Sprintf("comtype=%d", o.ComType))
	}
	return strings.Join(parts, " ")
}
