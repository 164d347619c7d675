//go:build linux

package ifaddrs

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/kelpdock/nsnet/netlink"
)

// enumerateOrSkip runs a default-namespace enumeration, skipping the
// test on machines where routing netlink isn't reachable at all.
func enumerateOrSkip(t *testing.T) []*Interface {
	t.Helper()

	ifaces, _, err := EnumerateDefault()
	if err != nil {
		var terr *netlink.TransportError
		if errors.As(err, &terr) && (errors.Is(terr.Err, unix.EPERM) ||
			errors.Is(terr.Err, unix.EPROTONOSUPPORT) ||
			errors.Is(terr.Err, unix.EAFNOSUPPORT)) {
			t.Skipf("routing netlink unavailable here: %v", err)
		}
		t.Fatalf("enumeration failed: %v", err)
	}

	return ifaces
}

func TestEnumerateDefaultHasLoopback(t *testing.T) {
	ifaces := enumerateOrSkip(t)

	var lo *Interface
	for _, iface := range ifaces {
		if iface.Name == "lo" {
			lo = iface
			break
		}
	}
	if lo == nil {
		t.Fatalf("no loopback among %d interfaces", len(ifaces))
	}
	if lo.Flags&unix.IFF_LOOPBACK == 0 {
		t.Errorf("lo lacks IFF_LOOPBACK in flags %#x", lo.Flags)
	}
}

func TestEnumerateDefaultUniqueIndexes(t *testing.T) {
	ifaces := enumerateOrSkip(t)

	seen := map[int32]string{}
	for _, iface := range ifaces {
		if prev, dup := seen[iface.Index]; dup {
			t.Errorf("ifindex %d appears as both %q and %q", iface.Index, prev, iface.Name)
		}
		seen[iface.Index] = iface.Name
		if iface.Name == "" {
			t.Errorf("ifindex %d surfaced without a name", iface.Index)
		}
	}
}

func TestEnumerateDefaultRepeatable(t *testing.T) {
	first := enumerateOrSkip(t)
	second := enumerateOrSkip(t)

	// Interfaces may come and go between the calls on a busy host, but
	// on the usual test box the two snapshots match.
	if len(first) != len(second) {
		t.Skipf("interface count changed between snapshots (%d vs %d)", len(first), len(second))
	}
	for i := range first {
		if first[i].Index != second[i].Index || first[i].Name != second[i].Name {
			t.Errorf("snapshot drift at position %d: %q/%d vs %q/%d",
				i, first[i].Name, first[i].Index, second[i].Name, second[i].Index)
		}
	}
}
