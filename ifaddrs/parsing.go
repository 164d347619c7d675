//go:build linux

package ifaddrs

import (
	"bytes"
	"fmt"
	"net"

	ne "github.com/josharian/native"
	"golang.org/x/sys/unix"

	"github.com/kelpdock/nsnet/netlink"
)

// maxLLAddrLen bounds link-layer address copies. Ethernet needs 6 bytes,
// but e.g. Infiniband addresses run longer than a stock sockaddr_ll can
// hold; 24 covers every hardware type the kernel ships.
const maxLLAddrLen = 24

// parseLink decodes one RTM_NEWLINK payload (struct ifinfomsg plus
// attributes) into a fresh Interface. It also reports whether the kernel
// echoed the target-netnsid attribute back, which is how netnsid
// awareness is detected.
func parseLink(payload []byte) (*Interface, bool, error) {
	if len(payload) < unix.SizeofIfInfomsg {
		return nil, false, fmt.Errorf("link frame too short: %d bytes", len(payload))
	}

	iface := &Interface{
		Index: int32(ne.Endian.Uint32(payload[4:8])),
		Flags: ne.Endian.Uint32(payload[8:12]),
	}

	sawNetnsid := false

	cur := netlink.Attrs(payload[unix.SizeofIfInfomsg:])
	for a, ok := cur.Next(); ok; a, ok = cur.Next() {
		switch a.Type {
		case netlink.IFLA_IFNAME:
			// Copied only when it fits an IFNAMSIZ buffer; an oversized
			// name leaves the record unnamed and thus dropped.
			if len(a.Data) <= unix.IFNAMSIZ {
				iface.Name = string(bytes.TrimRight(a.Data, "\x00"))
			}
		case netlink.IFLA_ADDRESS:
			if len(a.Data) <= maxLLAddrLen {
				iface.HardwareAddr = net.HardwareAddr(append([]byte(nil), a.Data...))
			}
		case netlink.IFLA_BROADCAST:
			if len(a.Data) <= maxLLAddrLen {
				iface.HardwareBroadcast = net.HardwareAddr(append([]byte(nil), a.Data...))
			}
		case netlink.IFLA_MTU:
			if len(a.Data) >= 4 {
				iface.MTU = int32(ne.Endian.Uint32(a.Data[0:4]))
			}
		case netlink.IFLA_LINK:
			if len(a.Data) >= 4 {
				iface.PeerIndex = int32(ne.Endian.Uint32(a.Data[0:4]))
			}
		case netlink.IFLA_STATS64:
			iface.Stats = parseStats64(a.Data)
		case netlink.IFLA_TARGET_NETNSID:
			sawNetnsid = true
		}
	}
	if err := cur.Err(); err != nil {
		return nil, sawNetnsid, fmt.Errorf("mangled link frame: %w", err)
	}

	return iface, sawNetnsid, nil
}

// parseStats64 fills as many counters as the blob actually carries.
// Older kernels ship shorter structs; whatever is missing stays zero.
func parseStats64(b []byte) *LinkStats64 {
	st := &LinkStats64{}

	fields := []*uint64{
		&st.RxPackets, &st.TxPackets, &st.RxBytes, &st.TxBytes,
		&st.RxErrors, &st.TxErrors, &st.RxDropped, &st.TxDropped,
		&st.Multicast, &st.Collisions,
		&st.RxLengthErrors, &st.RxOverErrors, &st.RxCrcErrors,
		&st.RxFrameErrors, &st.RxFifoErrors, &st.RxMissedErrors,
		&st.TxAbortedErrors, &st.TxCarrierErrors, &st.TxFifoErrors,
		&st.TxHeartbeatErrors, &st.TxWindowErrors,
		&st.RxCompressed, &st.TxCompressed, &st.RxNohandler,
	}

	for i, f := range fields {
		if len(b) < (i+1)*8 {
			break
		}
		*f = ne.Endian.Uint64(b[i*8 : (i+1)*8])
	}

	return st
}

// parseAddr decodes one RTM_NEWADDR payload and folds it into the owning
// record from idx. An address whose ifindex matches no known link is
// dropped whole: an address for an interface we never saw is ignored,
// not invented. Returns whether the target-netnsid attribute was echoed.
func parseAddr(payload []byte, idx map[int32]*Interface) (bool, error) {
	if len(payload) < unix.SizeofIfAddrmsg {
		return false, fmt.Errorf("address frame too short: %d bytes", len(payload))
	}

	family := payload[0]
	prefixLen := int(payload[1])
	ifindex := int32(ne.Endian.Uint32(payload[4:8]))

	owner := idx[ifindex]
	if owner == nil {
		return false, nil
	}

	ai := AddrInfo{}
	sawNetnsid := false

	cur := netlink.Attrs(payload[unix.SizeofIfAddrmsg:])
	for a, ok := cur.Next(); ok; a, ok = cur.Next() {
		switch a.Type {
		case netlink.IFA_ADDRESS:
			// An IFA_LOCAL seen earlier means this is the peer of a
			// point-to-point link, not a second local address.
			if ai.Addr != nil {
				ai.Dst = ipFromAttr(family, a.Data)
			} else {
				ai.Addr = ipFromAttr(family, a.Data)
			}
		case netlink.IFA_LOCAL:
			// IFA_ADDRESS came first: point-to-point semantics, what we
			// took for the local address is really the destination.
			if ai.Addr != nil {
				ai.Dst = ai.Addr
			}
			ai.Addr = ipFromAttr(family, a.Data)
		case netlink.IFA_BROADCAST:
			ai.Broadcast = ipFromAttr(family, a.Data)
		case netlink.IFA_LABEL:
			if len(a.Data) <= unix.IFNAMSIZ {
				ai.Label = string(bytes.TrimRight(a.Data, "\x00"))
			}
		case netlink.IFA_TARGET_NETNSID:
			sawNetnsid = true
		}
	}
	if err := cur.Err(); err != nil {
		return sawNetnsid, fmt.Errorf("mangled address frame: %w", err)
	}

	if ai.Addr == nil {
		return sawNetnsid, nil
	}

	ai.PrefixLen = prefixLen
	ai.Netmask = PrefixMask(len(ai.Addr)*8, prefixLen)
	if len(ai.Addr) == net.IPv6len && (ai.Addr.IsLinkLocalUnicast() || ai.Addr.IsLinkLocalMulticast()) {
		ai.ScopeID = uint32(ifindex)
	}

	owner.Addrs = append(owner.Addrs, ai)

	return sawNetnsid, nil
}

// ipFromAttr copies a protocol address out of an attribute, yielding nil
// for families we don't model or payloads too short for theirs.
func ipFromAttr(family uint8, data []byte) net.IP {
	switch family {
	case unix.AF_INET:
		if len(data) < net.IPv4len {
			return nil
		}
		return net.IP(append([]byte(nil), data[:net.IPv4len]...))
	case unix.AF_INET6:
		if len(data) < net.IPv6len {
			return nil
		}
		return net.IP(append([]byte(nil), data[:net.IPv6len]...))
	default:
		return nil
	}
}
