//go:build linux

package ifaddrs

import "net"

// PrefixMask derives the netmask for a numeric prefix length over an
// address bits wide: the first prefixLen bits are ones, the rest zeros.
// Out-of-range prefix lengths are clamped to [0, bits], so a kernel
// reporting a nonsense prefix yields an all-ones mask rather than a
// panic.
func PrefixMask(bits, prefixLen int) net.IPMask {
	if prefixLen > bits {
		prefixLen = bits
	}
	if prefixLen < 0 {
		prefixLen = 0
	}

	mask := make(net.IPMask, bits/8)

	full := prefixLen / 8
	for i := 0; i < full; i++ {
		mask[i] = 0xff
	}
	if rem := prefixLen % 8; rem != 0 {
		mask[full] = 0xff << (8 - rem)
	}

	return mask
}
