//go:build linux

package unixfd

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Send ships the given descriptors and payload as one message over a
// connected unix-domain socket. The descriptors stay open on the
// sending side; callers close their own copies when done.
//
// An empty payload is replaced by a single placeholder byte, since a
// message carrying only ancillary data would not travel.
func Send(sock int, fds []int, payload []byte) error {
	if len(fds) > MaxTransferFds {
		return fmt.Errorf("%w: %d descriptors exceed the per-message ceiling of %d",
			ErrInvalidArgument, len(fds), MaxTransferFds)
	}

	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}

	if len(payload) == 0 {
		payload = []byte{0}
	}

	for {
		_, err := unix.SendmsgN(sock, payload, oob, nil, unix.MSG_NOSIGNAL)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("couldn't send %d descriptors: %w", len(fds), err)
		}
		return nil
	}
}

// SendFile is the single-descriptor convenience over Send.
func SendFile(sock int, fd int, payload []byte) error {
	return Send(sock, []int{fd}, payload)
}
