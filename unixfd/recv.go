//go:build linux

package unixfd

import (
	"fmt"
	"log/slog"
	"unsafe"

	ne "github.com/josharian/native"
	"golang.org/x/sys/unix"
)

// Receive reads one message off a connected unix-domain socket,
// expecting maxFds descriptors and tolerating deviations per the
// policy. Descriptors are installed with CLOEXEC set before any user
// code can run.
//
// The payload comes back exactly as it travelled: a payload-less Send
// ships one placeholder byte, and that byte reaches the caller, who
// knows from their own protocol whether to ignore it. Stripping it
// here would eat a genuine one-byte zero payload.
//
// On any error, every descriptor the kernel installed has been closed;
// the caller never inherits half a transfer. On success the batch owns
// the descriptors it reports and has closed any tolerated excess.
func Receive(sock int, maxFds int, policy Policy, payload []byte) (*Batch, error) {
	if maxFds < 0 || maxFds > MaxTransferFds {
		return nil, fmt.Errorf("%w: expected count %d outside [0, %d]",
			ErrInvalidArgument, maxFds, MaxTransferFds)
	}

	// A zero-length read on a stream socket returns no data at all, so
	// an empty buffer gets the same 1-byte scratch a nil one does.
	if len(payload) == 0 {
		payload = make([]byte, 1)
	}

	// Sized for the ceiling, not for maxFds: an over-sent message must
	// arrive whole so its excess can be counted and closed rather than
	// silently truncated by the kernel.
	oob := make([]byte, unix.CmsgSpace(MaxTransferFds*4))

	var n, oobn, flags int
	var err error
	for {
		n, oobn, flags, _, err = unix.Recvmsg(sock, payload, oob, unix.MSG_CMSG_CLOEXEC)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("couldn't receive descriptor message: %w", err)
		}
		break
	}

	return assemble(n, flags, payload, oob[:oobn], maxFds, policy)
}

// assemble classifies one received message against the expectation and
// the policy, closing everything that won't be handed over. Split from
// Receive so the truncation branches can be driven without a kernel
// that breaks its own 253 ceiling.
func assemble(n, flags int, payload, oob []byte, maxFds int, policy Policy) (*Batch, error) {
	fds, err := decodeRights(oob)
	if err != nil {
		closeAll(fds)
		return nil, err
	}

	if flags&unix.MSG_CTRUNC != 0 {
		// The ancillary block outgrew a buffer sized for the ceiling.
		// Whatever did land is closed; the rest is lost to the kernel.
		closeAll(fds)
		return nil, fmt.Errorf("%w: control data truncated at %d", ErrTooManyFds, len(fds))
	}

	b := &Batch{
		MaxFds: maxFds,
		Count:  len(fds),
		Fds:    fds,
	}

	switch {
	case len(fds) == maxFds:
		b.Flag = Exact

	case len(fds) == 0:
		if policy&(AcceptNone|AcceptLess) == 0 {
			return nil, fmt.Errorf("%w: got none, wanted %d", ErrUnexpectedCount, maxFds)
		}
		b.Flag = None

	case len(fds) < maxFds:
		if policy&AcceptLess == 0 {
			closeAll(fds)
			return nil, fmt.Errorf("%w: got %d, wanted %d", ErrUnexpectedCount, len(fds), maxFds)
		}
		b.Flag = Less

	default:
		if policy&AcceptMore == 0 {
			closeAll(fds)
			return nil, fmt.Errorf("%w: got %d, wanted at most %d", ErrUnexpectedCount, len(fds), maxFds)
		}
		slog.Debug("closing excess descriptors", "got", len(fds), "wanted", maxFds)
		closeAll(fds[maxFds:])
		b.Fds = fds[:maxFds]
		b.Count = maxFds
		b.Flag = More
	}

	// Pad out to the promised width so callers can index by position.
	for len(b.Fds) < maxFds {
		b.Fds = append(b.Fds, NoFd)
	}

	b.Payload = payload[:n]

	return b, nil
}

// ReceiveFile is the single-descriptor convenience over Receive with an
// exact-count policy.
func ReceiveFile(sock int, payload []byte) (int, []byte, error) {
	b, err := Receive(sock, 1, AcceptExact, payload)
	if err != nil {
		return NoFd, nil, err
	}
	return b.Fds[0], b.Payload, nil
}

// cmsgAlign rounds a length up to the kernel's cmsg alignment.
func cmsgAlign(n int) int {
	const align = unix.SizeofPtr
	return (n + align - 1) &^ (align - 1)
}

// decodeRights walks the raw ancillary buffer and collects every
// descriptor from every SCM_RIGHTS block. Unlike the stock parser it
// also decodes a final block the kernel cut short, so that truncated
// messages can still be cleaned up fd by fd.
func decodeRights(oob []byte) ([]int, error) {
	var fds []int

	for len(oob) >= unix.SizeofCmsghdr {
		h := (*unix.Cmsghdr)(unsafe.Pointer(&oob[0]))
		if h.Len < unix.SizeofCmsghdr {
			return fds, fmt.Errorf("mangled control header: length %d", h.Len)
		}

		end := int(h.Len)
		if end > len(oob) {
			end = len(oob)
		}

		if h.Level == unix.SOL_SOCKET && h.Type == unix.SCM_RIGHTS {
			data := oob[unix.SizeofCmsghdr:end]
			for len(data) >= 4 {
				fds = append(fds, int(int32(ne.Endian.Uint32(data))))
				data = data[4:]
			}
		}

		next := cmsgAlign(int(h.Len))
		if next >= len(oob) {
			break
		}
		oob = oob[next:]
	}

	return fds, nil
}

func closeAll(fds []int) {
	for _, fd := range fds {
		if fd >= 0 {
			unix.Close(fd)
		}
	}
}
