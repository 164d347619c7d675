//go:build linux

package ifaddrs

import (
	"net"
)

// LinkStats64 is the Go counterpart of struct rtnl_link_stats64 as
// shipped in IFLA_STATS64 blobs. The structs tags name each counter the
// way the kernel does; the stats collector derives its metric set from
// them.
type LinkStats64 struct {
	RxPackets uint64 `json:"rxPackets" structs:"rx_packets"`
	TxPackets uint64 `json:"txPackets" structs:"tx_packets"`
	RxBytes   uint64 `json:"rxBytes" structs:"rx_bytes"`
	TxBytes   uint64 `json:"txBytes" structs:"tx_bytes"`
	RxErrors  uint64 `json:"rxErrors" structs:"rx_errors"`
	TxErrors  uint64 `json:"txErrors" structs:"tx_errors"`
	RxDropped uint64 `json:"rxDropped" structs:"rx_dropped"`
	TxDropped uint64 `json:"txDropped" structs:"tx_dropped"`

	Multicast  uint64 `json:"multicast" structs:"multicast"`
	Collisions uint64 `json:"collisions" structs:"collisions"`

	RxLengthErrors uint64 `json:"rxLengthErrors" structs:"rx_length_errors"`
	RxOverErrors   uint64 `json:"rxOverErrors" structs:"rx_over_errors"`
	RxCrcErrors    uint64 `json:"rxCrcErrors" structs:"rx_crc_errors"`
	RxFrameErrors  uint64 `json:"rxFrameErrors" structs:"rx_frame_errors"`
	RxFifoErrors   uint64 `json:"rxFifoErrors" structs:"rx_fifo_errors"`
	RxMissedErrors uint64 `json:"rxMissedErrors" structs:"rx_missed_errors"`

	TxAbortedErrors   uint64 `json:"txAbortedErrors" structs:"tx_aborted_errors"`
	TxCarrierErrors   uint64 `json:"txCarrierErrors" structs:"tx_carrier_errors"`
	TxFifoErrors      uint64 `json:"txFifoErrors" structs:"tx_fifo_errors"`
	TxHeartbeatErrors uint64 `json:"txHeartbeatErrors" structs:"tx_heartbeat_errors"`
	TxWindowErrors    uint64 `json:"txWindowErrors" structs:"tx_window_errors"`

	RxCompressed uint64 `json:"rxCompressed" structs:"rx_compressed"`
	TxCompressed uint64 `json:"txCompressed" structs:"tx_compressed"`
	RxNohandler  uint64 `json:"rxNohandler" structs:"rx_nohandler"`
}

// AddrInfo is one address record as reported by an RTM_NEWADDR frame,
// already folded into the shape callers want: on point-to-point links
// Addr is the local end and Dst the peer, no matter which order the
// kernel delivered the attributes in.
type AddrInfo struct {
	Addr      net.IP     `json:"addr"`
	Dst       net.IP     `json:"dst,omitempty"`
	Broadcast net.IP     `json:"broadcast,omitempty"`
	Netmask   net.IPMask `json:"netmask,omitempty"`
	PrefixLen int        `json:"prefixLen"`

	// ScopeID carries the owning ifindex for link-local IPv6 addresses
	// (the sin6_scope_id a socket would need), zero otherwise.
	ScopeID uint32 `json:"scopeId,omitempty"`

	// Label is the address label (eth0:1 style aliases), when the
	// kernel reported one that fits an interface-name buffer.
	Label string `json:"label,omitempty"`
}

// Interface is one enumerated link together with every address record
// the dump attributed to it. Exactly one Interface exists per ifindex in
// an enumeration result.
type Interface struct {
	Index     int32  `json:"index"`
	PeerIndex int32  `json:"peerIndex,omitempty"`
	Name      string `json:"name"`
	Flags     uint32 `json:"flags"`
	MTU       int32  `json:"mtu"`

	HardwareAddr      net.HardwareAddr `json:"hardwareAddr,omitempty"`
	HardwareBroadcast net.HardwareAddr `json:"hardwareBroadcast,omitempty"`

	// Stats is the IFLA_STATS64 blob when the kernel sent one.
	Stats *LinkStats64 `json:"stats,omitempty"`

	// Addrs holds the address records in dump order; Addrs[0] is the
	// primary address.
	Addrs []AddrInfo `json:"addrs,omitempty"`
}

// Addr is the primary address, nil when the interface has none.
func (i *Interface) Addr() net.IP {
	if len(i.Addrs) == 0 {
		return nil
	}
	return i.Addrs[0].Addr
}
