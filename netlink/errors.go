//go:build linux

package netlink

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrTruncated signals that a datagram didn't fit the receive buffer and
// the kernel threw the tail away. The caller's only option is a bigger
// buffer.
var ErrTruncated = errors.New("netlink message truncated")

// TransportError wraps a socket-level failure (setup, send, recv). The
// originating errno is preserved through Unwrap.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("netlink %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is an NLMSG_ERROR frame the kernel sent back, carrying
// the errno embedded in its payload.
type ProtocolError struct {
	Errno unix.Errno
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("kernel-reported netlink error: %v", e.Errno)
}

func (e *ProtocolError) Unwrap() error {
	return e.Errno
}
