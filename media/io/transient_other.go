//go:build !unix && !windows

package io

// transientErrno reports no errno on platforms without syscall.Errno. Timeouts are still classified by IsTransient.
func transientErrno(error) (transient bool, ok bool) {
	return false, false
}
