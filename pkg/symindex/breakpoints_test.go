package symindex

import "testing"

func makeBreakpoints(addrs ...uint64) *breakpoints {
	b := &breakpoints{}
	for i, addr := range addrs {
		b.set(addr, SourceLocation{Line: uint32(i + 1)})
	}
	b.finish()
	return b
}

func splitAddrs(b *breakpoints, begin, end uint64) []uint64 {
	var r []uint64
	for _, bp := range b.split(begin, end) {
		r = append(r, bp.addr)
	}
	return r
}

func assertAddrs(t *testing.T, got, tgt []uint64) {
	t.Helper()
	if len(got) != len(tgt) {
		t.Fatalf("\nexpected:\t%#x\ngot:\t\t%#x", tgt, got)
	}
	for i := range got {
		if got[i] != tgt[i] {
			t.Fatalf("\nexpected:\t%#x\ngot:\t\t%#x", tgt, got)
		}
	}
}

func TestSplit(t *testing.T) {
	b := makeBreakpoints(10, 20, 30)
	tests := []struct {
		begin, end uint64
		tgt        []uint64
	}{
		{12, 25, []uint64{20}},
		{15, 20, nil},          // end equal to a key excludes it
		{10, 20, []uint64{10}}, // begin equal to a key includes it
		{10, 31, []uint64{10, 20, 30}},
		{25, 100, []uint64{30}}, // no key >= end: up to the last breakpoint
		{0, 10, nil},
		{31, 40, nil},
		{20, 20, nil},
		{30, 10, nil},
	}
	for _, tc := range tests {
		assertAddrs(t, splitAddrs(b, tc.begin, tc.end), tc.tgt)
	}
}

func TestSplitAliases(t *testing.T) {
	b := makeBreakpoints(10, 20, 30)
	for i := range b.split(15, 35) {
		b.split(15, 35)[i].loc.Line = 100
	}
	if b.bps[0].loc.Line != 1 || b.bps[1].loc.Line != 100 || b.bps[2].loc.Line != 100 {
		t.Fatalf("split did not modify the breakpoints in place: %v", b.bps)
	}
}

func TestFinishLastWins(t *testing.T) {
	b := &breakpoints{}
	b.set(30, SourceLocation{Line: 1})
	b.set(10, SourceLocation{Line: 2})
	b.set(30, SourceLocation{Line: 3})
	b.set(20, SourceLocation{Line: 4})
	b.set(10, SourceLocation{Line: 5})
	b.finish()

	tgt := []breakpoint{{10, SourceLocation{Line: 5}}, {20, SourceLocation{Line: 4}}, {30, SourceLocation{Line: 3}}}
	if len(b.bps) != len(tgt) {
		t.Fatalf("expected %v got %v", tgt, b.bps)
	}
	for i := range tgt {
		if b.bps[i] != tgt[i] {
			t.Fatalf("expected %v got %v", tgt, b.bps)
		}
	}

	b.reset()
	if len(b.bps) != 0 {
		t.Fatal("reset did not empty the set")
	}
}
