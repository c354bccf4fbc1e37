package io

import (
	"net"

	"github.com/eluv-io/errors-go"
)

// IsTransient returns true if the given receive error is expected to go away on its own, e.g. an interrupted system
// call, a read timeout or a temporary lack of buffer space. A receive loop should retry after a transient error and
// give up on any other error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return false
	}
	if transient, ok := transientErrno(err); ok {
		return transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
