//go:build linux

package netlink

// Attribute types plundered from linux/if_link.h, linux/if_addr.h and
// linux/net_namespace.h. The unix package stops short of some of these,
// so they're spelled out here the way the kernel headers do.
const (
	IFLA_ADDRESS        = 1
	IFLA_BROADCAST      = 2
	IFLA_IFNAME         = 3
	IFLA_MTU            = 4
	IFLA_LINK           = 5
	IFLA_STATS64        = 23
	IFLA_TARGET_NETNSID = 46

	IFA_ADDRESS        = 1
	IFA_LOCAL          = 2
	IFA_LABEL          = 3
	IFA_BROADCAST      = 4
	IFA_TARGET_NETNSID = 10

	NETNSA_NSID = 1
	NETNSA_FD   = 3
)

const (
	// DumpBufSize is the per-recvmsg scratch size used when draining
	// dumps. Matches the 8 KiB the kernel tends to pack multi-part
	// replies into.
	DumpBufSize = 8192

	sendBufSize = 32 * 1024
	recvBufSize = 1024 * 1024
)
