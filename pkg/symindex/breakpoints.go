package symindex

import "sort"

// breakpoint is an address at which the source location changes. The
// location is valid until the address of the next breakpoint.
type breakpoint struct {
	addr uint64
	loc  SourceLocation
}

// breakpoints is the set of breakpoints of one compile unit, sorted by
// address once finish has been called.
type breakpoints struct {
	bps []breakpoint
}

func (b *breakpoints) reset() {
	b.bps = b.bps[:0]
}

// set adds a breakpoint at addr. Of breakpoints added at the same address
// the last one wins.
func (b *breakpoints) set(addr uint64, loc SourceLocation) {
	b.bps = append(b.bps, breakpoint{addr: addr, loc: loc})
}

// finish sorts the breakpoints and removes duplicate addresses.
func (b *breakpoints) finish() {
	sort.SliceStable(b.bps, func(i, j int) bool { return b.bps[i].addr < b.bps[j].addr })
	out := b.bps[:0]
	for _, bp := range b.bps {
		if n := len(out); n > 0 && out[n-1].addr == bp.addr {
			out[n-1] = bp
			continue
		}
		out = append(out, bp)
	}
	b.bps = out
}

// split returns the breakpoints whose address is in [begin, upper), where
// upper is the address of the first breakpoint at or after end, or
// unbounded if there is none. The returned slice aliases b, changes to its
// elements are changes to b.
func (b *breakpoints) split(begin, end uint64) []breakpoint {
	lo := sort.Search(len(b.bps), func(i int) bool { return b.bps[i].addr >= begin })
	upper := sort.Search(len(b.bps), func(i int) bool { return b.bps[i].addr >= end })
	if upper < lo {
		return nil
	}
	return b.bps[lo:upper]
}
