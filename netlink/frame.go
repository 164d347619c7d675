//go:build linux

package netlink

import (
	"fmt"

	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"
)

// Netlink messages use host byte ordering throughout.
var native = nl.NativeEndian()

// align4 rounds n up to the 4-byte boundary netlink packs everything on,
// as per NLMSG_ALIGN/RTA_ALIGN.
func align4(n int) int {
	return (n + 3) &^ 3
}

// Header is the Go counterpart of struct nlmsghdr.
type Header struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	Pid   uint32
}

// Frame is one netlink message as pulled out of a receive buffer: the
// fixed header plus its payload, attributes still TLV-encoded.
type Frame struct {
	Header  Header
	Payload []byte
}

// DecodeError maps an NLMSG_ERROR frame onto the error it carries. A
// zero embedded code is a plain ACK and decodes to nil; frames of any
// other type decode to nil too.
func (f *Frame) DecodeError() error {
	if f.Header.Type != unix.NLMSG_ERROR {
		return nil
	}

	// The payload opens with the struct nlmsgerr error code; anything
	// shorter is a malformed frame.
	if len(f.Payload) < 4 {
		return &ProtocolError{Errno: unix.EINVAL}
	}

	code := int32(native.Uint32(f.Payload[0:4]))
	if code == 0 {
		return nil
	}
	if code > 0 {
		// Error codes travel negated; a positive one is nonsense.
		return &ProtocolError{Errno: unix.EINVAL}
	}

	return &ProtocolError{Errno: unix.Errno(-code)}
}

// FrameReader walks the messages packed into one receive buffer. It's a
// one-shot cursor over a finite stream: Next never backtracks and the
// reader cannot be rewound.
type FrameReader struct {
	buf []byte
	off int
	err error
}

func NewFrameReader(buf []byte) *FrameReader {
	return &FrameReader{buf: buf}
}

// Next yields the following frame, or false once the buffer is drained
// or poisoned. A frame whose advertised length outruns the buffer stops
// the walk and surfaces through Err.
func (r *FrameReader) Next() (*Frame, bool) {
	if r.err != nil || len(r.buf)-r.off < unix.SizeofNlMsghdr {
		return nil, false
	}

	rest := r.buf[r.off:]
	h := Header{
		Len:   native.Uint32(rest[0:4]),
		Type:  native.Uint16(rest[4:6]),
		Flags: native.Uint16(rest[6:8]),
		Seq:   native.Uint32(rest[8:12]),
		Pid:   native.Uint32(rest[12:16]),
	}

	if int(h.Len) < unix.SizeofNlMsghdr || int(h.Len) > len(rest) {
		r.err = fmt.Errorf("frame length %d out of bounds with %d bytes left", h.Len, len(rest))
		return nil, false
	}

	r.off += align4(int(h.Len))

	return &Frame{Header: h, Payload: rest[unix.SizeofNlMsghdr:h.Len]}, true
}

// Err reports whether the walk died on a malformed frame.
func (r *FrameReader) Err() error {
	return r.err
}

// Attr is one TLV attribute: a type tag and its raw bytes.
type Attr struct {
	Type uint16
	Data []byte
}

// AttrCursor walks the 4-byte-aligned TLV attributes of a frame payload.
// Same contract as FrameReader: lazy, finite, not restartable, and every
// advertised length is checked against the remaining bytes before any
// slicing happens.
type AttrCursor struct {
	rest []byte
	err  error
}

// Attrs returns a cursor over the attribute section of a payload. The
// caller is expected to have stripped the fixed-size message body first.
func Attrs(payload []byte) *AttrCursor {
	return &AttrCursor{rest: payload}
}

func (c *AttrCursor) Next() (Attr, bool) {
	if c.err != nil || len(c.rest) < unix.SizeofRtAttr {
		return Attr{}, false
	}

	l := int(native.Uint16(c.rest[0:2]))
	t := native.Uint16(c.rest[2:4])

	if l < unix.SizeofRtAttr || l > len(c.rest) {
		c.err = fmt.Errorf("attribute length %d out of bounds with %d bytes left", l, len(c.rest))
		return Attr{}, false
	}

	a := Attr{Type: t, Data: c.rest[unix.SizeofRtAttr:l]}

	if next := align4(l); next >= len(c.rest) {
		c.rest = nil
	} else {
		c.rest = c.rest[next:]
	}

	return a, true
}

func (c *AttrCursor) Err() error {
	return c.err
}

// Request is a serializable netlink request: type and flags for the
// header, a fixed-size body (e.g. struct ifinfomsg) and any number of
// appended TLV attributes.
type Request struct {
	Type  uint16
	Flags uint16
	Seq   uint32
	Body  []byte

	attrs []byte
}

// AddAttr appends one TLV attribute, padding it out to the alignment the
// kernel expects.
func (r *Request) AddAttr(typ uint16, data []byte) {
	h := make([]byte, unix.SizeofRtAttr)
	native.PutUint16(h[0:2], uint16(unix.SizeofRtAttr+len(data)))
	native.PutUint16(h[2:4], typ)

	r.attrs = append(r.attrs, h...)
	r.attrs = append(r.attrs, data...)
	if pad := align4(len(data)) - len(data); pad > 0 {
		r.attrs = append(r.attrs, make([]byte, pad)...)
	}
}

// Marshal lays the request out on the wire. The sender port id is left
// zeroed: the kernel fills it in.
func (r *Request) Marshal() []byte {
	total := unix.SizeofNlMsghdr + align4(len(r.Body)) + len(r.attrs)

	b := make([]byte, unix.SizeofNlMsghdr, total)
	native.PutUint32(b[0:4], uint32(total))
	native.PutUint16(b[4:6], r.Type)
	native.PutUint16(b[6:8], r.Flags)
	native.PutUint32(b[8:12], r.Seq)

	b = append(b, r.Body...)
	if pad := align4(len(r.Body)) - len(r.Body); pad > 0 {
		b = append(b, make([]byte, pad)...)
	}

	return append(b, r.attrs...)
}
