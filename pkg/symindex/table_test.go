package symindex

import "testing"

func TestTableInterning(t *testing.T) {
	var strs Table[string]
	a := strs.Insert("a.c")
	b := strs.Insert("b.c")
	a2 := strs.Insert("a.c")
	if a != 0 || b != 1 {
		t.Fatalf("expected sequential handles got %d %d", a, b)
	}
	if a2 != a {
		t.Fatalf("expected %d got %d", a, a2)
	}
	if strs.Len() != 2 {
		t.Fatalf("expected 2 strings got %d", strs.Len())
	}
	if strs.Get(b) != "b.c" {
		t.Fatalf("expected b.c got %q", strs.Get(b))
	}

	var files Table[File]
	f1 := files.Insert(File{Dir: Some(a), Path: b})
	f2 := files.Insert(File{Path: b})
	f3 := files.Insert(File{Dir: Some(a), Path: b})
	if f1 != f3 || f1 == f2 || files.Len() != 2 {
		t.Fatalf("files not interned: %d %d %d (len %d)", f1, f2, f3, files.Len())
	}

	var locs Table[SourceLocation]
	caller := locs.Insert(SourceLocation{File: Some(f1), Line: 3})
	l1 := locs.Insert(SourceLocation{File: Some(f2), Line: 10, InlinedInto: Some(caller)})
	l2 := locs.Insert(SourceLocation{File: Some(f2), Line: 10, InlinedInto: Some(caller)})
	l3 := locs.Insert(SourceLocation{File: Some(f2), Line: 10})
	if l1 != l2 || l1 == l3 || locs.Len() != 3 {
		t.Fatalf("locations not interned: %d %d %d (len %d)", l1, l2, l3, locs.Len())
	}
}

func TestOptHandle(t *testing.T) {
	var none OptHandle
	if _, ok := none.Get(); ok || none.IsSome() {
		t.Fatal("zero OptHandle should be absent")
	}
	if none.String() != "none" {
		t.Fatalf("expected none got %q", none.String())
	}
	h, ok := Some(0).Get()
	if !ok || h != 0 {
		t.Fatalf("expected 0 got %d %v", h, ok)
	}
	if Some(0) == none {
		t.Fatal("handle 0 must be distinct from the absent handle")
	}
	if Some(42).String() != "42" {
		t.Fatalf("expected 42 got %q", Some(42).String())
	}
}
