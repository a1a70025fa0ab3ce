//go:build linux

package sink

import (
	"net"

	"golang.org/x/sys/unix"
)

// enableBroadcast sets SO_BROADCAST on conn's underlying file descriptor.
func enableBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return sockErr
}
