package terminal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-delve/dwarfindex/pkg/config"
	"github.com/go-delve/dwarfindex/pkg/dwarf/dwarfbuilder"
	"github.com/go-delve/dwarfindex/pkg/symbolize"
	"github.com/go-delve/dwarfindex/pkg/symindex"
)

type FakeTerminal struct {
	*Term
	out *bytes.Buffer
	t   testing.TB
}

func newFakeTerminal(t testing.TB, conf *config.Config) *FakeTerminal {
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
	if err != nil {
		t.Fatal(err)
	}
	conv := symindex.New()
	if err := conv.Process(secs); err != nil {
		t.Fatal(err)
	}
	sym, err := symbolize.New(conv, conf)
	if err != nil {
		t.Fatal(err)
	}
	out := new(bytes.Buffer)
	return &FakeTerminal{Term: newTerm(sym, conv, conf, out, true), out: out, t: t}
}

func (ft *FakeTerminal) Exec(cmdstr string) (string, error) {
	ft.out.Reset()
	err := ft.cmds.Call(cmdstr, ft.Term)
	return ft.out.String(), err
}

func (ft *FakeTerminal) MustExec(cmdstr string) string {
	ft.t.Helper()
	out, err := ft.Exec(cmdstr)
	if err != nil {
		ft.t.Fatalf("Error executing <%s>: %v", cmdstr, err)
	}
	return out
}

func TestCommandDefault(t *testing.T) {
	var (
		cmds = Commands{}
		cmd  = cmds.Find("non-existant-command")
	)

	if cmd != nil {
		t.Fatal("expected no command")
	}

	ft := newFakeTerminal(t, nil)
	if _, err := ft.Exec("non-existant-command"); err != noCmdError {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestCommandReplayWithoutPreviousCommand(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	if out := ft.MustExec(""); out != "" {
		t.Fatalf("unexpected output for empty command: %q", out)
	}
}

func TestCommandThrowsError(t *testing.T) {
	var (
		cmds = Commands{}
		cmd  = cmds.Find("foo")
	)
	if cmd != nil {
		t.Fatal("expected no command")
	}

	ft := newFakeTerminal(t, nil)
	ft.cmds.Register("foo", func(t *Term, args []string) error {
		return noCmdError
	}, "")
	if _, err := ft.Exec("foo"); err != noCmdError {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestLookupCommand(t *testing.T) {
	ft := newFakeTerminal(t, nil)

	out := ft.MustExec("lookup 0x100a 1000")
	tgt := "0x100a:\n    /work/inc/callee.h:3 (inlined)\n    /work/main.c:11\n0x1000:\n    /work/main.c:10\n"
	if out != tgt {
		t.Fatalf("wrong output\nexpected:\n%s\ngot:\n%s", tgt, out)
	}

	out = ft.MustExec("l 0x10")
	if out != "0x10: no source location\n" {
		t.Fatalf("wrong output for unmapped address: %q", out)
	}

	if _, err := ft.Exec("lookup"); err == nil {
		t.Fatal("expected error for lookup without arguments")
	}
	if _, err := ft.Exec("lookup 0x1000 main.c"); err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func TestLookupQuoted(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	out := ft.MustExec(`lookup "0x1000"`)
	if !strings.Contains(out, "/work/main.c:10") {
		t.Fatalf("wrong output %q", out)
	}
	if _, err := ft.Exec("lookup `echo 0x1000`"); err == nil {
		t.Fatal("expected error for backtick")
	}
}

func TestFilesCommand(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	out := ft.MustExec("files")
	if out != "/work/inc/callee.h\n/work/main.c\n" {
		t.Fatalf("wrong output %q", out)
	}
	out = ft.MustExec("files /work/m")
	if out != "/work/main.c\n" {
		t.Fatalf("wrong output %q", out)
	}
}

func TestStatsCommand(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	out := ft.MustExec("stats")
	for _, s := range []string{"units:", "ranges:", "max inline depth: 1"} {
		if !strings.Contains(out, s) {
			t.Fatalf("%q not found in output:\n%s", s, out)
		}
	}
}

func TestConfigAliases(t *testing.T) {
	conf := &config.Config{Aliases: map[string][]string{"lookup": {"addr2line", "a"}}}
	ft := newFakeTerminal(t, conf)
	out := ft.MustExec("addr2line 0x1000")
	if !strings.Contains(out, "/work/main.c:10") {
		t.Fatalf("alias not working: %q", out)
	}
	out = ft.MustExec("help lookup")
	if !strings.HasPrefix(out, "Prints the source frames of addresses.") {
		t.Fatalf("wrong help: %q", out)
	}
	out = ft.MustExec("help")
	if !strings.Contains(out, "lookup (alias: l | addr2line | a)") {
		t.Fatalf("aliases missing from help:\n%s", out)
	}

	ft.cmds.Merge(map[string][]string{})
	if _, err := ft.Exec("addr2line 0x1000"); err != noCmdError {
		t.Fatalf("alias not removed by Merge: %v", err)
	}
}

func TestExitCommand(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	for _, cmd := range []string{"exit", "quit", "q"} {
		if _, err := ft.Exec(cmd); err != (ExitRequestError{}) {
			t.Fatalf("%s: expected ExitRequestError got %v", cmd, err)
		}
	}
}

func TestSourceCommand(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	path := filepath.Join(t.TempDir(), "cmds")
	script := "# comment\n\nlookup 0x1000\nbogus\nlookup 0x1008\n"
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatal(err)
	}
	out := ft.MustExec("source " + path)
	if !strings.Contains(out, "/work/main.c:10") || !strings.Contains(out, "/work/inc/callee.h:3") {
		t.Fatalf("script not executed:\n%s", out)
	}
	if !strings.Contains(out, path+":4: command not available") {
		t.Fatalf("error of line 4 not reported:\n%s", out)
	}
}

func TestComplete(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	c := ft.complete("st")
	if len(c) != 1 || c[0] != "stats" {
		t.Fatalf("wrong completion %q", c)
	}
	c = ft.complete("files /work/i")
	if len(c) != 1 || c[0] != "files /work/inc/callee.h" {
		t.Fatalf("wrong file completion %q", c)
	}
	if c := ft.complete("lookup 0x"); c != nil {
		t.Fatalf("unexpected completion %q", c)
	}
}

func TestPrintlnColor(t *testing.T) {
	ft := newFakeTerminal(t, &config.Config{SourceListLineColor: ansiRed})
	ft.dumb = false
	ft.out.Reset()
	ft.Println("main.c:1", " x")
	if got := ft.out.String(); got != "\033[31mmain.c:1\033[0m x\n" {
		t.Fatalf("wrong colored output %q", got)
	}

	ft = newFakeTerminal(t, &config.Config{SourceListLineColor: 1000})
	if ft.conf.SourceListLineColor != ansiBlue {
		t.Fatalf("invalid color not replaced: %d", ft.conf.SourceListLineColor)
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	IndexCommands().WriteMarkdown(&buf)
	out := buf.String()
	for _, s := range []string{"## Looking up addresses", "[lookup](#lookup)", "## exit\nExit the shell.\n\nAliases: quit q"} {
		if !strings.Contains(out, s) {
			t.Fatalf("%q not found in:\n%s", s, out)
		}
	}
}
