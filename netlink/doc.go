// Package netlink implements the raw routing-netlink channel the rest of
// the module drives its dumps through. It deliberately stops short of
// being a netlink library: one socket type, request serialization, and a
// pair of cursors over the length-prefixed byte stream the kernel hands
// back. Be sure to check netlink(7) and rtnetlink(7) for the protocol
// itself.
//
// Everything coming out of the socket is treated as untrusted input:
// every length field is checked against the bytes actually present
// before a single byte is sliced. The kernel is well behaved, but
// whatever else got a hold of the socket need not be.
//
// A Conn must not be driven by more than one goroutine at a time. Dumps
// are a stateful per-socket protocol (request, then a sequence of frames
// terminated by NLMSG_DONE) and interleaved callers would corrupt the
// sequence-number correlation.
package netlink
