//go:build unix

package io

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/eluv-io/errors-go"
)

// transientErrno classifies the errno wrapped in err, if any. The second return value is false if err carries no
// errno.
func transientErrno(err error) (transient bool, ok bool) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false, false
	}
	switch errno {
	case unix.EINTR, unix.EAGAIN, unix.ECONNREFUSED, unix.ENOBUFS, unix.ENOMEM:
		return true, true
	}
	return false, true
}
