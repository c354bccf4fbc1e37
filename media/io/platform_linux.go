//go:build linux

package io

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlSocket configures the socket before it is bound: the address may be shared with other sniffers and the
// socket receives only datagrams of the groups joined on it (IP_MULTICAST_ALL off).
func controlSocket(_, _ string, raw syscall.RawConn) error {
	var sockErr error
	err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if sockErr != nil {
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_ALL, 0)
	})
	if sockErr != nil {
		return sockErr // Return the most specific error
	}
	return err
}
