//go:build linux

package netlink

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
)

func init() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelError,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove time.
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			// Remove the directory from the source's filename.
			if a.Key == slog.SourceKey {
				source := a.Value.Any().(*slog.Source)
				source.File = filepath.Base(source.File)
			}
			return a
		},
	}))
	slog.SetDefault(logger)
}

// rawFrame packs a header and payload the way the kernel would.
func rawFrame(typ, flags uint16, seq uint32, payload []byte) []byte {
	b := make([]byte, unix.SizeofNlMsghdr, unix.SizeofNlMsghdr+align4(len(payload)))
	native.PutUint32(b[0:4], uint32(unix.SizeofNlMsghdr+len(payload)))
	native.PutUint16(b[4:6], typ)
	native.PutUint16(b[6:8], flags)
	native.PutUint32(b[8:12], seq)
	b = append(b, payload...)
	if pad := align4(len(payload)) - len(payload); pad > 0 {
		b = append(b, make([]byte, pad)...)
	}
	return b
}

func rawAttr(typ uint16, data []byte) []byte {
	b := make([]byte, unix.SizeofRtAttr, unix.SizeofRtAttr+align4(len(data)))
	native.PutUint16(b[0:2], uint16(unix.SizeofRtAttr+len(data)))
	native.PutUint16(b[2:4], typ)
	b = append(b, data...)
	if pad := align4(len(data)) - len(data); pad > 0 {
		b = append(b, make([]byte, pad)...)
	}
	return b
}

func TestFrameReaderWalk(t *testing.T) {
	buf := append(rawFrame(unix.RTM_NEWLINK, 0, 1, []byte{1, 2, 3, 4, 5}), rawFrame(unix.NLMSG_DONE, 0, 1, nil)...)

	r := NewFrameReader(buf)

	f, ok := r.Next()
	if !ok {
		t.Fatalf("expected a first frame: %v", r.Err())
	}
	if f.Header.Type != unix.RTM_NEWLINK || f.Header.Seq != 1 {
		t.Errorf("unexpected header: %+v", f.Header)
	}
	if diff := cmp.Diff([]byte{1, 2, 3, 4, 5}, f.Payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	f, ok = r.Next()
	if !ok {
		t.Fatalf("expected a second frame: %v", r.Err())
	}
	if f.Header.Type != unix.NLMSG_DONE {
		t.Errorf("got frame type %#x; want NLMSG_DONE", f.Header.Type)
	}

	if _, ok := r.Next(); ok {
		t.Errorf("expected the reader to be drained")
	}
	if r.Err() != nil {
		t.Errorf("clean walk reported an error: %v", r.Err())
	}
}

func TestFrameReaderBogusLength(t *testing.T) {
	buf := rawFrame(unix.RTM_NEWLINK, 0, 1, []byte{1, 2, 3, 4})

	// Advertise more bytes than the buffer holds.
	native.PutUint32(buf[0:4], uint32(len(buf)+128))

	r := NewFrameReader(buf)
	if _, ok := r.Next(); ok {
		t.Fatalf("a frame outrunning the buffer must not decode")
	}
	if r.Err() == nil {
		t.Fatalf("expected the reader to report the bogus length")
	}
}

func TestFrameReaderShortHeader(t *testing.T) {
	r := NewFrameReader(make([]byte, unix.SizeofNlMsghdr-1))
	if _, ok := r.Next(); ok {
		t.Fatalf("a truncated header must not decode")
	}
	if r.Err() != nil {
		t.Errorf("trailing garbage is not an error, got: %v", r.Err())
	}
}

func TestAttrCursorWalk(t *testing.T) {
	payload := append(rawAttr(IFLA_IFNAME, []byte("eth0\x00")), rawAttr(IFLA_MTU, []byte{0xdc, 0x05, 0, 0})...)

	var got []Attr
	cur := Attrs(payload)
	for a, ok := cur.Next(); ok; a, ok = cur.Next() {
		got = append(got, a)
	}
	if err := cur.Err(); err != nil {
		t.Fatalf("clean walk reported an error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d attributes; want 2", len(got))
	}
	if got[0].Type != IFLA_IFNAME || string(got[0].Data) != "eth0\x00" {
		t.Errorf("first attribute mismatch: %+v", got[0])
	}
	if got[1].Type != IFLA_MTU || len(got[1].Data) != 4 {
		t.Errorf("second attribute mismatch: %+v", got[1])
	}
}

func TestAttrCursorBogusLength(t *testing.T) {
	tests := map[string][]byte{
		// Length field larger than the remaining bytes.
		"overrun": func() []byte {
			b := rawAttr(IFLA_IFNAME, []byte("eth0"))
			native.PutUint16(b[0:2], uint16(len(b)+64))
			return b
		}(),
		// Length field smaller than the attribute header itself.
		"underrun": func() []byte {
			b := rawAttr(IFLA_IFNAME, []byte("eth0"))
			native.PutUint16(b[0:2], 1)
			return b
		}(),
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			cur := Attrs(payload)
			if _, ok := cur.Next(); ok {
				t.Fatalf("a poisoned attribute must not decode")
			}
			if cur.Err() == nil {
				t.Fatalf("expected the cursor to report the bogus length")
			}
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Type:  unix.RTM_GETLINK,
		Flags: unix.NLM_F_REQUEST | unix.NLM_F_DUMP,
		Seq:   1,
		Body:  make([]byte, unix.SizeofIfInfomsg),
	}
	req.AddAttr(IFLA_TARGET_NETNSID, []byte{7, 0, 0, 0})

	b := req.Marshal()

	r := NewFrameReader(b)
	f, ok := r.Next()
	if !ok {
		t.Fatalf("marshalled request doesn't decode: %v", r.Err())
	}
	if f.Header.Type != unix.RTM_GETLINK || f.Header.Flags != unix.NLM_F_REQUEST|unix.NLM_F_DUMP {
		t.Errorf("unexpected header: %+v", f.Header)
	}
	if int(f.Header.Len) != len(b) {
		t.Errorf("header length %d doesn't cover the %d marshalled bytes", f.Header.Len, len(b))
	}

	cur := Attrs(f.Payload[unix.SizeofIfInfomsg:])
	a, ok := cur.Next()
	if !ok {
		t.Fatalf("expected the netnsid attribute: %v", cur.Err())
	}
	if a.Type != IFLA_TARGET_NETNSID {
		t.Errorf("got attribute type %d; want IFLA_TARGET_NETNSID", a.Type)
	}
	if diff := cmp.Diff([]byte{7, 0, 0, 0}, a.Data); diff != "" {
		t.Errorf("attribute data mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeError(t *testing.T) {
	mkError := func(code int32) *Frame {
		payload := make([]byte, 4+unix.SizeofNlMsghdr)
		native.PutUint32(payload[0:4], uint32(code))
		b := rawFrame(unix.NLMSG_ERROR, 0, 1, payload)
		r := NewFrameReader(b)
		f, ok := r.Next()
		if !ok {
			t.Fatalf("error frame doesn't decode: %v", r.Err())
		}
		return f
	}

	if err := mkError(0).DecodeError(); err != nil {
		t.Errorf("an ACK must decode to nil, got %v", err)
	}

	err := mkError(-int32(unix.ENODEV)).DecodeError()
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *ProtocolError, got %v", err)
	}
	if perr.Errno != unix.ENODEV {
		t.Errorf("got errno %v; want ENODEV", perr.Errno)
	}
	if !errors.Is(err, unix.ENODEV) {
		t.Errorf("the embedded errno must survive errors.Is")
	}
}
