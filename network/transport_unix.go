//go:build !windows

package network

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// adoptConn wraps an inherited socket descriptor. On unix-likes the
// descriptor is usable as-is; net.FileConn dups it into the runtime
// poller, so the original is closed after the wrap, whether or not it
// succeeded.
func adoptConn(handle int) (net.Conn, error) {
	if handle < 0 {
		return nil, fmt.Errorf("invalid socket descriptor %d", handle)
	}
	f := os.NewFile(uintptr(handle), "inherited-socket")
	if f == nil {
		return nil, fmt.Errorf("descriptor %d is not open", handle)
	}
	conn, err := net.FileConn(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func isConnReset(err error) bool {
	return errors.Is(err, unix.ECONNRESET) ||
		errors.Is(err, unix.ECONNABORTED) ||
		errors.Is(err, unix.EPIPE)
}
