//go:build linux

package unixfd

import (
	"errors"
	"fmt"
	"os"
)

const (
	// MaxTransferFds is the most descriptors one message can carry,
	// matching the kernel's SCM_MAX_FD ceiling on an SCM_RIGHTS block.
	MaxTransferFds = 253

	// NoFd pads the descriptor slice where a tolerated shortfall left
	// a slot empty.
	NoFd = -1
)

var (
	// ErrInvalidArgument flags a request the channel cannot express,
	// like asking to move more than MaxTransferFds descriptors.
	ErrInvalidArgument = errors.New("invalid descriptor transfer request")

	// ErrTooManyFds reports a message whose ancillary block no buffer
	// sized for MaxTransferFds could hold in full.
	ErrTooManyFds = errors.New("too many descriptors in message")

	// ErrUnexpectedCount reports a received descriptor count the
	// caller's policy refuses to accept.
	ErrUnexpectedCount = errors.New("unexpected descriptor count")
)

// Policy states which deviations from the expected descriptor count a
// receiver tolerates. The zero value accepts only the exact count.
type Policy uint8

const (
	// AcceptExact admits only messages carrying exactly the expected
	// number of descriptors. It is implied; the constant exists so a
	// call site can spell out that nothing else is tolerated.
	AcceptExact Policy = 0

	// AcceptLess admits messages carrying fewer descriptors than
	// expected, including none. Missing slots are padded with NoFd.
	AcceptLess Policy = 1 << iota

	// AcceptMore admits messages carrying more descriptors than
	// expected. The excess is closed and only the expected count is
	// handed over.
	AcceptMore

	// AcceptNone admits messages carrying no descriptors at all even
	// when some were expected, without admitting other shortfalls.
	AcceptNone
)

func (p Policy) String() string {
	if p == AcceptExact {
		return "exact"
	}

	s := ""
	if p&AcceptLess != 0 {
		s += "|less"
	}
	if p&AcceptMore != 0 {
		s += "|more"
	}
	if p&AcceptNone != 0 {
		s += "|none"
	}
	return "exact" + s
}

// Result classifies how a received message's descriptor count related
// to the expectation.
type Result uint8

const (
	resultUnset Result = iota

	// Exact: the message carried precisely the expected count.
	Exact

	// Less: fewer than expected arrived and the policy let it pass.
	Less

	// More: more than expected arrived; the excess has been closed.
	More

	// None: descriptors were expected but none arrived.
	None
)

func (r Result) String() string {
	switch r {
	case Exact:
		return "exact"
	case Less:
		return "less"
	case More:
		return "more"
	case None:
		return "none"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// Batch is the outcome of one Receive: the descriptors handed over, how
// their count relates to what was asked for, and the in-band payload
// that rode along.
type Batch struct {
	// MaxFds is the count the receiver asked for.
	MaxFds int

	// Count is how many live descriptors Fds actually holds. Padded
	// NoFd slots don't count.
	Count int

	// Flag classifies the count against MaxFds under the policy.
	Flag Result

	// Fds holds MaxFds slots. The first Count are live descriptors in
	// arrival order; the rest are NoFd.
	Fds []int

	// Payload is the in-band data exactly as it travelled. A
	// payload-less Send ships one placeholder zero byte, and it shows
	// up here; only the caller's protocol can tell it apart from a
	// genuine one-byte payload.
	Payload []byte
}

// Files wraps the live descriptors in *os.File handles with the given
// names, leaving padded slots out. Name slots beyond len(names) fall
// back to a generated name. Ownership moves to the returned files.
func (b *Batch) Files(names ...string) []*os.File {
	files := make([]*os.File, 0, b.Count)
	for i, fd := range b.Fds[:b.Count] {
		name := fmt.Sprintf("unixfd-%d", i)
		if i < len(names) {
			name = names[i]
		}
		files = append(files, os.NewFile(uintptr(fd), name))
	}
	return files
}

// CloseAll closes every live descriptor still in the batch and marks
// the slots empty. Safe to call more than once.
func (b *Batch) CloseAll() {
	closeAll(b.Fds[:b.Count])
	for i := range b.Fds {
		b.Fds[i] = NoFd
	}
	b.Count = 0
}
