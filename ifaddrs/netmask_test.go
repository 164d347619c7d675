//go:build linux

package ifaddrs

import (
	"bytes"
	"testing"
)

// onesThenZeros checks a mask against one built bit by bit: exactly p
// leading one-bits, zeros everywhere after.
func onesThenZeros(t *testing.T, mask []byte, p int) {
	t.Helper()

	want := make([]byte, len(mask))
	for bit := 0; bit < p; bit++ {
		want[bit/8] |= 0x80 >> (bit % 8)
	}
	if !bytes.Equal(mask, want) {
		t.Fatalf("prefix %d: got mask %v; want %v", p, mask, want)
	}
}

func TestPrefixMaskIPv4(t *testing.T) {
	for p := 0; p <= 32; p++ {
		mask := PrefixMask(32, p)
		if len(mask) != 4 {
			t.Fatalf("prefix %d: mask is %d bytes; want 4", p, len(mask))
		}
		onesThenZeros(t, mask, p)
	}
}

func TestPrefixMaskIPv6(t *testing.T) {
	for p := 0; p <= 128; p++ {
		mask := PrefixMask(128, p)
		if len(mask) != 16 {
			t.Fatalf("prefix %d: mask is %d bytes; want 16", p, len(mask))
		}
		onesThenZeros(t, mask, p)
	}
}

func TestPrefixMaskClamping(t *testing.T) {
	for _, p := range []int{33, 64, 255} {
		mask := PrefixMask(32, p)
		for i, b := range mask {
			if b != 0xff {
				t.Fatalf("prefix %d: byte %d is %#x; want a full mask", p, i, b)
			}
		}
	}

	mask := PrefixMask(32, -4)
	for i, b := range mask {
		if b != 0 {
			t.Fatalf("negative prefix: byte %d is %#x; want an empty mask", i, b)
		}
	}
}
