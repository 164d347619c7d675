//go:build linux

package unixfd

import (
	"errors"
	"os"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
)

func TestDecodeRightsChoppedBlock(t *testing.T) {
	// A control block whose header advertises more bytes than actually
	// arrived: the descriptors that did land must still be decoded so
	// they can be closed instead of leaking.
	oob := unix.UnixRights(1001, 1002, 1003)

	fds, err := decodeRights(oob[:unix.CmsgLen(3*4)-4])
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff([]int{1001, 1002}, fds); diff != "" {
		t.Errorf("decoded descriptors mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRightsChoppedSecondBlock(t *testing.T) {
	first := unix.UnixRights(1001, 1002)
	second := unix.UnixRights(2001, 2002, 2003)

	// The first block is whole, the second lost two descriptors to the
	// chop; everything present must surface.
	oob := append(append([]byte(nil), first...), second[:unix.CmsgLen(3*4)-8]...)

	fds, err := decodeRights(oob)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff([]int{1001, 1002, 2001}, fds); diff != "" {
		t.Errorf("decoded descriptors mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRightsMangledHeader(t *testing.T) {
	first := unix.UnixRights(1001)

	// A follow-up header whose length undercuts a cmsghdr poisons the
	// walk, but what was decoded before it still comes back.
	bogus := make([]byte, unix.SizeofCmsghdr)
	(*unix.Cmsghdr)(unsafe.Pointer(&bogus[0])).Len = 4

	oob := append(append([]byte(nil), first...), bogus...)

	fds, err := decodeRights(oob)
	if err == nil {
		t.Errorf("a mangled control header decoded fine")
	}
	if diff := cmp.Diff([]int{1001}, fds); diff != "" {
		t.Errorf("decoded descriptors mismatch (-want +got):\n%s", diff)
	}
}

func TestControlTruncationClosesFds(t *testing.T) {
	fds := make([]int, 3)
	for i := range fds {
		fd, err := unix.Open(os.DevNull, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			t.Fatalf("open %s: %v", os.DevNull, err)
		}
		fds[i] = fd
	}

	// MSG_CTRUNC with a buffer already sized for the ceiling means the
	// transfer can never be made whole: it must fail, and whatever the
	// kernel installed must be gone again.
	batch, err := assemble(1, unix.MSG_CTRUNC, []byte{0}, unix.UnixRights(fds...), 3, AcceptExact)
	if !errors.Is(err, ErrTooManyFds) {
		closeAll(fds)
		t.Fatalf("got err %v; want ErrTooManyFds", err)
	}
	if batch != nil {
		t.Errorf("a truncated transfer still produced a batch: %+v", batch)
	}

	for i, fd := range fds {
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); !errors.Is(err, unix.EBADF) {
			t.Errorf("descriptor %d survived the truncated transfer (fcntl err %v)", i, err)
		}
	}
}
