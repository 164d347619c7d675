// Package ifaddrs enumerates the network interfaces of a network
// namespace straight over routing netlink, without ever entering the
// namespace: the dump requests carry the target's netnsid instead.
//
// The enumeration is the classic getifaddrs two-step, RTM_GETLINK
// followed by RTM_GETADDR on one socket, with the address frames
// correlated back to their owning link through the kernel interface
// index. Unlike libc's getifaddrs the output is one record per
// interface, addresses folded into their link, and it carries the bits
// libc drops: the peer ifindex of veth-style pairs, the MTU, and the
// 64-bit counters from IFLA_STATS64.
//
// Cross-namespace dumps need NETLINK_GET_STRICT_CHK: without strict
// validation the kernel ignores the scoping attribute and happily dumps
// the wrong namespace, so enumeration refuses to proceed on kernels
// that reject the option while a netnsid was supplied.
package ifaddrs
