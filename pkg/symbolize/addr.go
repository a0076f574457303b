package symbolize

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAddr parses an address written in hexadecimal, with or without a
// 0x prefix.
func ParseAddr(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if hex == "" {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	addr, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return addr, nil
}
