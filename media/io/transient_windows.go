//go:build windows

package io

import (
	"syscall"

	"github.com/eluv-io/errors-go"
)

func transientErrno(err error) (transient bool, ok bool) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false, false
	}
	return errno.Temporary(), true
}
