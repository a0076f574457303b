package symbolize

import "testing"

func TestParseAddr(t *testing.T) {
	tests := []struct {
		in   string
		addr uint64
		ok   bool
	}{
		{"0x1000", 0x1000, true},
		{"0X1000", 0x1000, true},
		{"1000", 0x1000, true},
		{"  deadbeef ", 0xdeadbeef, true},
		{"0xffffffffffffffff", 0xffffffffffffffff, true},
		{"0x", 0, false},
		{"", 0, false},
		{"0x10000000000000000", 0, false},
		{"main.go:10", 0, false},
	}
	for _, tc := range tests {
		addr, err := ParseAddr(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("ParseAddr(%q): unexpected error state %v", tc.in, err)
		}
		if tc.ok && addr != tc.addr {
			t.Fatalf("ParseAddr(%q): expected %#x got %#x", tc.in, tc.addr, addr)
		}
	}
}
