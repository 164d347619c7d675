//go:build linux

package ifaddrs

import (
	"fmt"
	"log/slog"

	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"

	"github.com/kelpdock/nsnet/netlink"
)

// dumpPhase tracks where in the two-dump protocol an enumeration is.
// The phases are strictly ordered; a frame is only ever interpreted
// under the phase its dump belongs to.
type dumpPhase int

const (
	phaseIdle dumpPhase = iota
	phaseLinkDump
	phaseAddrDump
	phaseDone
)

type enumerator struct {
	conn *netlink.Conn
	nsID int32

	// index correlates address frames back to their link; it lives for
	// exactly one enumeration.
	index map[int32]*Interface
	list  []*Interface

	phase dumpPhase

	// Netnsid awareness is latched per phase; the kernel supports
	// scoped enumeration only if both dumps echoed the attribute.
	linkNetnsidAware bool
	addrNetnsidAware bool
}

// Enumerate dumps the links and addresses of one network namespace and
// returns the interfaces in first-seen dump order, along with whether
// the kernel honoured the netnsid scoping on both dumps.
//
// A negative nsID means "the caller's own namespace" and adds no scoping
// attribute. The families are the usual unix.AF_UNSPEC/AF_INET/AF_INET6
// selectors for the link and address dumps respectively.
//
// Any failure aborts the whole call: no partial list is ever returned.
func Enumerate(linkFamily, addrFamily int, nsID int32) ([]*Interface, bool, error) {
	conn, err := netlink.Open(unix.NETLINK_ROUTE)
	if err != nil {
		return nil, false, err
	}
	defer conn.Close()

	if err := conn.SetStrictCheck(true); err != nil {
		// Old kernels miss the option. A same-namespace dump can live
		// without it; a cross-namespace dump cannot, as the kernel
		// would silently ignore the scoping attribute.
		if nsID >= 0 {
			return nil, false, fmt.Errorf("can't scope the dump to netnsid %d: %w", nsID, err)
		}
		slog.Debug("strict checking unavailable, enumerating our own namespace", "err", err)
	}

	e := &enumerator{conn: conn, nsID: nsID, index: map[int32]*Interface{}}

	e.phase = phaseLinkDump
	if err := e.dump(1, unix.RTM_GETLINK, uint8(linkFamily)); err != nil {
		return nil, false, fmt.Errorf("link dump: %w", err)
	}

	e.phase = phaseAddrDump
	if err := e.dump(2, unix.RTM_GETADDR, uint8(addrFamily)); err != nil {
		return nil, false, fmt.Errorf("address dump: %w", err)
	}

	e.phase = phaseDone

	return e.list, e.linkNetnsidAware && e.addrNetnsidAware, nil
}

// EnumerateDefault enumerates the caller's own namespace across all
// families.
func EnumerateDefault() ([]*Interface, bool, error) {
	return Enumerate(unix.AF_UNSPEC, unix.AF_UNSPEC, -1)
}

// EnumerateNamespace enumerates the namespace behind a bind-mounted
// namespace path (e.g. /run/netns/blue) by first resolving it to the
// netnsid the kernel knows it by.
func EnumerateNamespace(nsPath string) ([]*Interface, error) {
	fd, err := unix.Open(nsPath, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("couldn't open %q: %w", nsPath, err)
	}
	defer unix.Close(fd)

	conn, err := netlink.Open(unix.NETLINK_ROUTE)
	if err != nil {
		return nil, err
	}
	id, err := conn.GetNetnsID(fd)
	conn.Close()
	if err != nil {
		return nil, fmt.Errorf("couldn't resolve %q to a netnsid: %w", nsPath, err)
	}
	if id < 0 {
		return nil, fmt.Errorf("namespace %q has no netnsid assigned", nsPath)
	}

	ifaces, scoped, err := Enumerate(unix.AF_UNSPEC, unix.AF_UNSPEC, id)
	if err != nil {
		return nil, err
	}
	if !scoped {
		// Results would describe our own namespace, not the target's.
		return nil, fmt.Errorf("kernel ignored the netnsid scope for %q", nsPath)
	}

	return ifaces, nil
}

// dump issues one full-table dump and consumes frames until the DONE
// sentinel or an error frame ends it.
func (e *enumerator) dump(seq uint32, typ uint16, family uint8) error {
	req := netlink.Request{
		Type:  typ,
		Flags: unix.NLM_F_REQUEST | unix.NLM_F_DUMP,
		Seq:   seq,
	}

	switch typ {
	case unix.RTM_GETLINK:
		body := make([]byte, unix.SizeofIfInfomsg)
		body[0] = family
		req.Body = body
		if e.nsID >= 0 {
			req.AddAttr(netlink.IFLA_TARGET_NETNSID, nlenc.Uint32Bytes(uint32(e.nsID)))
		}
	case unix.RTM_GETADDR:
		body := make([]byte, unix.SizeofIfAddrmsg)
		body[0] = family
		req.Body = body
		if e.nsID >= 0 {
			req.AddAttr(netlink.IFA_TARGET_NETNSID, nlenc.Uint32Bytes(uint32(e.nsID)))
		}
	default:
		return fmt.Errorf("unsupported dump type %#x", typ)
	}

	if err := e.conn.Send(req.Marshal()); err != nil {
		return err
	}

	buf := make([]byte, netlink.DumpBufSize)
	for {
		n, err := e.conn.Recv(buf)
		if err != nil {
			return err
		}

		fr := netlink.NewFrameReader(buf[:n])
		for f, ok := fr.Next(); ok; f, ok = fr.Next() {
			switch f.Header.Type {
			case unix.NLMSG_DONE:
				return nil
			case unix.NLMSG_ERROR:
				if err := f.DecodeError(); err != nil {
					return err
				}
				// A bare ACK never terminates a dump we didn't ask an
				// ACK for; treat it as the kernel refusing the request.
				return &netlink.ProtocolError{Errno: unix.EINVAL}
			}
			if err := e.consume(f); err != nil {
				return err
			}
		}
		if err := fr.Err(); err != nil {
			return err
		}
	}
}

// consume feeds one dump frame into the record index and output list
// according to the phase in flight.
func (e *enumerator) consume(f *netlink.Frame) error {
	switch e.phase {
	case phaseLinkDump:
		if f.Header.Type != unix.RTM_NEWLINK {
			return nil
		}

		iface, sawNetnsid, err := parseLink(f.Payload)
		if sawNetnsid {
			e.linkNetnsidAware = true
		}
		if err != nil {
			return err
		}

		// A record that never resolved a name doesn't surface, and an
		// ifindex is committed at most once.
		if iface.Name == "" {
			slog.Debug("dropping unnamed link record", "ifindex", iface.Index)
			return nil
		}
		if _, dup := e.index[iface.Index]; dup {
			slog.Debug("dropping duplicate link record", "ifindex", iface.Index)
			return nil
		}

		e.index[iface.Index] = iface
		e.list = append(e.list, iface)

	case phaseAddrDump:
		if f.Header.Type != unix.RTM_NEWADDR {
			return nil
		}

		sawNetnsid, err := parseAddr(f.Payload, e.index)
		if sawNetnsid {
			e.addrNetnsidAware = true
		}
		if err != nil {
			return err
		}
	}

	return nil
}
