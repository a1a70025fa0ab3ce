//go:build !linux

package sink

import (
	"fmt"
	"net"
)

// enableBroadcast is unsupported outside linux in this module; SO_BROADCAST
// setup is Linux-specific syscall plumbing (see udp_linux.go).
func enableBroadcast(conn *net.UDPConn) error {
	return fmt.Errorf("udp sink: broadcast is not supported on this platform")
}
