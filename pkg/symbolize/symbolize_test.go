package symbolize

import (
	"testing"

	"github.com/google/pprof/profile"

	"github.com/go-delve/dwarfindex/pkg/config"
	"github.com/go-delve/dwarfindex/pkg/dwarf/dwarfbuilder"
	"github.com/go-delve/dwarfindex/pkg/symindex"
)

func assertNoError(err error, t testing.TB, s string) {
	t.Helper()
	if err != nil {
		t.Fatalf("failed assertion %s: %v", s, err)
	}
}

// testConverter returns the index of a unit with a function at
// [0x1000, 0x1020) inlining a callee at [0x1008, 0x1010).
func testConverter(t *testing.T) *symindex.Converter {
	lp := dwarfbuilder.NewLineProgram(4, []string{"/work/inc"},
		dwarfbuilder.LineFile{Name: "main.c", Dir: 0},
		dwarfbuilder.LineFile{Name: "callee.h", Dir: 1})
	lp.Row(0x1000, 1, 10)
	lp.Row(0x1008, 2, 3)
	lp.Row(0x1010, 1, 12)
	lp.EndSequence(0x1020)

	b := dwarfbuilder.New()
	b.AddCompileUnit("main.c", "/work", lp)
	b.AddSubprogram("main", 0x1000, 0x1020)
	b.AddInlinedSubroutine("callee", 1, 11, dwarfbuilder.Range{Low: 0x1008, High: 0x1010})
	b.TagClose()
	b.TagClose()
	b.TagClose()

	secs, err := b.Build()
	assertNoError(err, t, "Build")
	conv := symindex.New()
	assertNoError(conv.Process(secs), t, "Process")
	return conv
}

func TestSymbolize(t *testing.T) {
	s, err := New(testConverter(t), &config.Config{})
	assertNoError(err, t, "New")

	frames := s.Symbolize(0x100a)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames got %v", frames)
	}
	tgt := []Frame{
		{Addr: 0x100a, File: "/work/inc/callee.h", Dir: "/work/inc", Line: 3, Inlined: true},
		{Addr: 0x100a, File: "/work/main.c", Dir: "/work", Line: 11},
	}
	for i := range tgt {
		if frames[i] != tgt[i] {
			t.Fatalf("frame %d: expected %#v got %#v", i, tgt[i], frames[i])
		}
	}

	again := s.Symbolize(0x100a)
	if &again[0] != &frames[0] {
		t.Fatal("second lookup was not served from the cache")
	}

	if frames := s.Symbolize(0x10); len(frames) != 0 {
		t.Fatalf("expected no frames got %v", frames)
	}
	if got := s.Symbolize(0x1000)[0].String(); got != "0x1000 /work/main.c:10" {
		t.Fatalf("wrong frame string %q", got)
	}
}

func TestSymbolizeSmallCache(t *testing.T) {
	size := 1
	s, err := New(testConverter(t), &config.Config{LookupCacheSize: &size})
	assertNoError(err, t, "New")
	a := s.Symbolize(0x1000)
	s.Symbolize(0x1008)
	b := s.Symbolize(0x1000)
	if &a[0] == &b[0] {
		t.Fatal("entry was not evicted from a cache of size 1")
	}
	if a[0] != b[0] {
		t.Fatalf("different frames after eviction: %v %v", a, b)
	}
}

func TestSubstitutePath(t *testing.T) {
	cfg := &config.Config{SubstitutePath: config.SubstitutePathRules{{From: "/work", To: "/home/user/src"}}}
	s, err := New(testConverter(t), cfg)
	assertNoError(err, t, "New")

	frames := s.Symbolize(0x1008)
	if frames[0].File != "/home/user/src/inc/callee.h" || frames[1].File != "/home/user/src/main.c" {
		t.Fatalf("path substitution not applied: %v", frames)
	}
	if frames[0].Base() != "callee.h" {
		t.Fatalf("wrong base name %q", frames[0].Base())
	}

	files := s.FilesWithPrefix("/home/user/src/inc")
	if len(files) != 1 || files[0] != "/home/user/src/inc/callee.h" {
		t.Fatalf("wrong files with prefix: %q", files)
	}
	if files := s.FilesWithPrefix(""); len(files) != 2 {
		t.Fatalf("expected all files got %q", files)
	}
	if files := s.FilesWithSuffix("main.c"); len(files) != 1 || files[0] != "/home/user/src/main.c" {
		t.Fatalf("wrong files with suffix: %q", files)
	}
	if files := s.FilesWithSuffix("ain.c"); len(files) != 0 {
		t.Fatalf("suffix matched a partial path component: %q", files)
	}
}

func TestSymbolizeProfile(t *testing.T) {
	s, err := New(testConverter(t), nil)
	assertNoError(err, t, "New")

	exe := &profile.Mapping{ID: 1, Start: 0x400000, Limit: 0x500000, Offset: 0, File: "/bin/prog"}
	lib := &profile.Mapping{ID: 2, Start: 0x7f0000, Limit: 0x800000, File: "/lib/libc.so"}
	p := &profile.Profile{
		Mapping: []*profile.Mapping{exe, lib},
		Location: []*profile.Location{
			{ID: 1, Mapping: exe, Address: 0x401008},
			{ID: 2, Mapping: exe, Address: 0x401010},
			{ID: 3, Mapping: lib, Address: 0x7f1008},
			{ID: 4, Mapping: exe, Address: 0x400100},
		},
	}

	err = s.SymbolizeProfile(p, ProfileOptions{Relocatable: true})
	assertNoError(err, t, "SymbolizeProfile")

	l := p.Location[0]
	if len(l.Line) != 2 {
		t.Fatalf("expected 2 lines got %d", len(l.Line))
	}
	if l.Line[0].Function.Filename != "/work/inc/callee.h" || l.Line[0].Line != 3 {
		t.Fatalf("wrong innermost line %s:%d", l.Line[0].Function.Filename, l.Line[0].Line)
	}
	if l.Line[1].Function.Filename != "/work/main.c" || l.Line[1].Line != 11 {
		t.Fatalf("wrong outer line %s:%d", l.Line[1].Function.Filename, l.Line[1].Line)
	}
	if l.Line[0].Function.Name != "??" {
		t.Fatalf("unexpected function name %q", l.Line[0].Function.Name)
	}

	if loc := p.Location[1]; len(loc.Line) != 1 || loc.Line[0].Function != l.Line[1].Function {
		t.Fatalf("functions of the same file were not shared: %v", loc.Line)
	}
	if len(p.Location[2].Line) != 0 {
		t.Fatal("location of an unselected mapping was symbolized")
	}
	if len(p.Location[3].Line) != 0 {
		t.Fatal("unmapped address was symbolized")
	}
	if len(p.Function) != 2 {
		t.Fatalf("expected 2 functions got %d", len(p.Function))
	}
	for i, fn := range p.Function {
		if fn.ID != uint64(i+1) {
			t.Fatalf("function %d has ID %d", i, fn.ID)
		}
	}
	if !exe.HasFilenames || !exe.HasLineNumbers || !exe.HasInlineFrames {
		t.Fatalf("mapping flags not set: %#v", exe)
	}
	if lib.HasFilenames {
		t.Fatal("flags set on unselected mapping")
	}
	assertNoError(p.CheckValid(), t, "CheckValid")

	if err := s.SymbolizeProfile(p, ProfileOptions{MappingFile: "missing"}); err != ErrNoMapping {
		t.Fatalf("expected ErrNoMapping got %v", err)
	}
}
