//go:build linux

package netlink

import (
	"fmt"

	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

// Conn is a raw netlink socket bound to the kernel. It holds no protocol
// state besides the descriptor itself; see the package comment for the
// single-caller requirement.
type Conn struct {
	fd   int
	port uint32
}

// Open creates and binds a netlink socket for the given protocol (for
// this module that's always unix.NETLINK_ROUTE, but the transport doesn't
// care). The socket never outlives a setup failure.
func Open(proto int) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return nil, &TransportError{Op: "socket", Err: err}
	}

	// Dumps on busy boxes overflow the default buffers; the kernel
	// clamps these to net.core.{w,r}mem_max so asking big is safe.
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, sendBufSize); err != nil {
		unix.Close(fd)
		return nil, &TransportError{Op: "setsockopt SO_SNDBUF", Err: err}
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, recvBufSize); err != nil {
		unix.Close(fd)
		return nil, &TransportError{Op: "setsockopt SO_RCVBUF", Err: err}
	}

	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		unix.Close(fd)
		return nil, &TransportError{Op: "bind", Err: err}
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, &TransportError{Op: "getsockname", Err: err}
	}
	nsa, ok := sa.(*unix.SockaddrNetlink)
	if !ok {
		unix.Close(fd)
		return nil, &TransportError{Op: "getsockname", Err: unix.EAFNOSUPPORT}
	}

	return &Conn{fd: fd, port: nsa.Pid}, nil
}

func (c *Conn) Close() error {
	return unix.Close(c.fd)
}

// PortID is the sender id the kernel assigned this socket at bind time.
func (c *Conn) PortID() uint32 {
	return c.port
}

// SetStrictCheck toggles NETLINK_GET_STRICT_CHK. Without it the kernel
// silently ignores unknown dump request attributes, which turns a
// netnsid-scoped dump into a dump of the wrong namespace.
func (c *Conn) SetStrictCheck(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := unix.SetsockoptInt(c.fd, unix.SOL_NETLINK, unix.NETLINK_GET_STRICT_CHK, v); err != nil {
		return &TransportError{Op: "setsockopt NETLINK_GET_STRICT_CHK", Err: err}
	}
	return nil
}

// Send writes one request. Only interrupted calls are retried; every
// other failure surfaces with its errno intact.
func (c *Conn) Send(b []byte) error {
	for {
		err := unix.Sendto(c.fd, b, 0, &unix.SockaddrNetlink{Family: unix.AF_NETLINK})
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return &TransportError{Op: "send", Err: err}
		}
		return nil
	}
}

// Recv reads one datagram into buf, retrying only on interrupted calls.
// A datagram that filled the whole buffer while the kernel flags it as
// truncated is reported as ErrTruncated rather than passed off as a
// complete message.
func (c *Conn) Recv(buf []byte) (int, error) {
	for {
		n, _, flags, _, err := unix.Recvmsg(c.fd, buf, nil, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, &TransportError{Op: "recv", Err: err}
		}
		if flags&unix.MSG_TRUNC != 0 && n >= len(buf) {
			return 0, ErrTruncated
		}
		return n, nil
	}
}

// Transaction runs one request/reply exchange: send, recv into buf, and
// inspect the first reply frame. Kernel-reported errors come back as a
// *ProtocolError carrying the embedded code; otherwise the frame payload
// is returned, aliasing buf.
func (c *Conn) Transaction(req []byte, buf []byte) ([]byte, error) {
	if err := c.Send(req); err != nil {
		return nil, err
	}

	n, err := c.Recv(buf)
	if err != nil {
		return nil, err
	}

	r := NewFrameReader(buf[:n])
	f, ok := r.Next()
	if !ok {
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("undecodable reply: %w", err)
		}
		return nil, fmt.Errorf("empty reply to request type %#x", native.Uint16(req[4:6]))
	}

	if err := f.DecodeError(); err != nil {
		return nil, err
	}

	return f.Payload, nil
}

// GetNetnsID maps an open network-namespace descriptor onto the numeric
// id the kernel assigned it, through an RTM_GETNSID exchange on this
// socket. A namespace that never got an id assigned yields -1 with no
// error, mirroring what the kernel reports.
func (c *Conn) GetNetnsID(nsFd int) (int32, error) {
	req := Request{
		Type:  unix.RTM_GETNSID,
		Flags: unix.NLM_F_REQUEST,
		Seq:   1,
		// struct rtgenmsg padded out to its aligned size.
		Body: []byte{unix.AF_UNSPEC, 0, 0, 0},
	}
	req.AddAttr(NETNSA_FD, nlenc.Uint32Bytes(uint32(nsFd)))

	buf := make([]byte, DumpBufSize)
	payload, err := c.Transaction(req.Marshal(), buf)
	if err != nil {
		return -1, err
	}

	if len(payload) < 4 {
		return -1, fmt.Errorf("short RTM_NEWNSID reply: %d bytes", len(payload))
	}

	cur := Attrs(payload[4:])
	for a, ok := cur.Next(); ok; a, ok = cur.Next() {
		if a.Type == NETNSA_NSID && len(a.Data) >= 4 {
			return int32(native.Uint32(a.Data[0:4])), nil
		}
	}
	if err := cur.Err(); err != nil {
		return -1, fmt.Errorf("mangled RTM_NEWNSID reply: %w", err)
	}

	return -1, fmt.Errorf("RTM_NEWNSID reply carried no NETNSA_NSID attribute")
}
