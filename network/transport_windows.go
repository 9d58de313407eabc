//go:build windows

package network

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// adoptConn wraps an inherited socket handle. A Winsock handle belongs to
// the catalog of the process that created it, so it must be duplicated
// into this process with WSADuplicateSocket before it can be used.
func adoptConn(handle int) (net.Conn, error) {
	if handle < 0 {
		return nil, fmt.Errorf("invalid socket handle %d", handle)
	}

	var info windows.WSAProtocolInfo
	if err := windows.WSADuplicateSocket(windows.Handle(handle), uint32(os.Getpid()), &info); err != nil {
		return nil, fmt.Errorf("WSADuplicateSocket: %w", err)
	}

	s, err := windows.WSASocket(-1, -1, -1, &info, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("WSASocket: %w", err)
	}

	if err := windows.SetNonblock(s, true); err != nil {
		windows.Closesocket(s)
		return nil, fmt.Errorf("SetNonblock: %w", err)
	}

	return &sockConn{s: s}, nil
}

func isConnReset(err error) bool {
	return errors.Is(err, windows.WSAECONNRESET) ||
		errors.Is(err, windows.WSAECONNABORTED) ||
		errors.Is(err, windows.WSAENOTCONN)
}

// sockConn is a minimal net.Conn over a raw non-blocking Winsock handle.
// Deadlines are honored with a 1 ms sleep loop; the runtime poller cannot
// take ownership of a handle created outside the net package.
type sockConn struct {
	s             windows.Handle
	readDeadline  time.Time
	writeDeadline time.Time
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func (c *sockConn) Read(p []byte) (int, error) {
	bufs := windows.WSABuf{Len: uint32(len(p)), Buf: &p[0]}
	for {
		var n, flags uint32
		err := windows.WSARecv(c.s, &bufs, 1, &n, &flags, nil, nil)
		if err == nil {
			if n == 0 {
				return 0, net.ErrClosed
			}
			return int(n), nil
		}
		if !errors.Is(err, windows.WSAEWOULDBLOCK) {
			return 0, err
		}
		if !c.readDeadline.IsZero() && time.Now().After(c.readDeadline) {
			return 0, timeoutError{}
		}
		time.Sleep(time.Millisecond)
	}
}

func (c *sockConn) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		rem := p[total:]
		bufs := windows.WSABuf{Len: uint32(len(rem)), Buf: &rem[0]}
		var n uint32
		err := windows.WSASend(c.s, &bufs, 1, &n, 0, nil, nil)
		if err != nil {
			if errors.Is(err, windows.WSAEWOULDBLOCK) {
				if !c.writeDeadline.IsZero() && time.Now().After(c.writeDeadline) {
					return total, timeoutError{}
				}
				time.Sleep(time.Millisecond)
				continue
			}
			return total, err
		}
		total += int(n)
	}
	return total, nil
}

func (c *sockConn) Close() error {
	return windows.Closesocket(c.s)
}

func (c *sockConn) CloseWrite() error {
	return windows.Shutdown(c.s, windows.SHUT_WR)
}

func (c *sockConn) LocalAddr() net.Addr {
	sa, err := windows.Getsockname(c.s)
	if err != nil {
		return nil
	}
	return sockaddrToTCP(sa)
}

func (c *sockConn) RemoteAddr() net.Addr {
	sa, err := windows.Getpeername(c.s)
	if err != nil {
		return nil
	}
	return sockaddrToTCP(sa)
}

func (c *sockConn) SetDeadline(t time.Time) error {
	c.readDeadline = t
	c.writeDeadline = t
	return nil
}

func (c *sockConn) SetReadDeadline(t time.Time) error {
	c.readDeadline = t
	return nil
}

func (c *sockConn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline = t
	return nil
}

func sockaddrToTCP(sa windows.Sockaddr) net.Addr {
	if in4, ok := sa.(*windows.SockaddrInet4); ok {
		return &net.TCPAddr{IP: net.IP(in4.Addr[:]), Port: in4.Port}
	}
	return nil
}
