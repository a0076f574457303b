// Package terminal implements the interactive shell of dwarfindex.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"

	"github.com/go-delve/dwarfindex/pkg/symbolize"
	"github.com/go-delve/dwarfindex/pkg/symtypes"
)

type cmdfunc func(t *Term, args []string) error

type command struct {
	aliases        []string
	builtinAliases []string
	group          commandGroup
	// files is true if the arguments of the command are source files.
	files   bool
	helpMsg string
	cmdFn   cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands of the dwarfindex shell.
type Commands struct {
	cmds []command
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

// IndexCommands returns a Commands struct with default commands defined.
func IndexCommands() *Commands {
	c := &Commands{}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"lookup", "l"}, group: lookupCmds, cmdFn: lookup, helpMsg: `Prints the source frames of addresses.

	lookup <address> [address...]

Addresses are hexadecimal, the 0x prefix is optional. Frames are printed
innermost first, frames of inlined calls are followed by the frame of
their call site.`},
		{aliases: []string{"files"}, group: indexCmds, files: true, cmdFn: files, helpMsg: `Lists source files.

	files [prefix]

Without arguments lists every source file of the index, otherwise only
the files whose path starts with prefix.`},
		{aliases: []string{"stats"}, group: indexCmds, cmdFn: stats, helpMsg: "Prints statistics about the index."},
		{aliases: []string{"source"}, cmdFn: c.sourceCommand, helpMsg: `Executes a file containing a list of commands.

	source <path>

Empty lines and lines starting with # are ignored.`},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: "Exit the shell."},
	}

	sort.Sort(byFirstAlias(c.cmds))
	return c
}

// Register custom commands. Expects cf to be a func of type cmdfunc,
// returning only an error.
func (c *Commands) Register(cmdstr string, cf cmdfunc, helpMsg string) {
	for i := range c.cmds {
		if c.cmds[i].match(cmdstr) {
			c.cmds[i].cmdFn = cf
			return
		}
	}

	c.cmds = append(c.cmds, command{aliases: []string{cmdstr}, cmdFn: cf, helpMsg: helpMsg})
}

// Find will look up the command function for the given command input.
// It returns nil if the command does not exist.
func (c *Commands) Find(cmdstr string) cmdfunc {
	if cmdstr == "" {
		return nullCommand
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn
		}
	}

	return nil
}

func (c *Commands) completesFiles(cmdstr string) bool {
	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.files
		}
	}
	return false
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term) error {
	v, err := argv.Argv(cmdstr,
		func(s string) (string, error) {
			return "", fmt.Errorf("backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return err
	}
	if len(v) > 1 {
		return errors.New("pipes are not supported")
	}
	var args []string
	if len(v) == 1 {
		args = v[0]
	}
	if len(args) == 0 {
		return nil
	}
	fn := c.Find(args[0])
	if fn == nil {
		return noCmdError
	}
	return fn(t, args[1:])
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

var noCmdError = errors.New("command not available")

func nullCommand(t *Term, args []string) error {
	return nil
}

func (c *Commands) help(t *Term, args []string) error {
	if len(args) > 0 {
		for _, cmd := range c.cmds {
			if cmd.match(args[0]) {
				fmt.Fprintln(t.stdout, cmd.helpMsg)
				return nil
			}
		}
		return noCmdError
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")

	for _, cgd := range commandGroupDescriptions {
		fmt.Fprintf(t.stdout, "\n%s:\n", cgd.description)
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 0, '-', 0)
		for _, cmd := range c.cmds {
			if cmd.group != cgd.group {
				continue
			}
			h := cmd.helpMsg
			if idx := strings.Index(h, "\n"); idx >= 0 {
				h = h[:idx]
			}
			if len(cmd.aliases) > 1 {
				fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
			} else {
				fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func lookup(t *Term, args []string) error {
	if len(args) == 0 {
		return errors.New("not enough arguments")
	}
	addrs := make([]uint64, len(args))
	for i := range args {
		addr, err := symbolize.ParseAddr(args[i])
		if err != nil {
			return err
		}
		addrs[i] = addr
	}
	for _, addr := range addrs {
		frames := t.sym.Symbolize(addr)
		if len(frames) == 0 {
			fmt.Fprintf(t.stdout, "%#x: no source location\n", addr)
			continue
		}
		fmt.Fprintf(t.stdout, "%#x:\n", addr)
		for _, fr := range frames {
			file := fr.File
			if file == "" {
				file = "??"
			}
			suffix := ""
			if fr.Inlined {
				suffix = " (inlined)"
			}
			t.Println(fmt.Sprintf("    %s:%d", file, fr.Line), suffix)
		}
	}
	return nil
}

func files(t *Term, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	if !t.dumb {
		t.stdout.PageMaybe(nil)
	}
	for _, p := range t.sym.FilesWithPrefix(prefix) {
		fmt.Fprintln(t.stdout, p)
	}
	return nil
}

func stats(t *Term, args []string) error {
	s := t.conv.Stats()
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)
	fmt.Fprintf(w, "units:\t%d\n", s.Units)
	fmt.Fprintf(w, "skipped units:\t%d\n", s.SkippedUnits)
	fmt.Fprintf(w, "strings:\t%d\n", s.Strings)
	fmt.Fprintf(w, "files:\t%d\n", s.Files)
	fmt.Fprintf(w, "locations:\t%d\n", s.Locations)
	fmt.Fprintf(w, "ranges:\t%d\n", s.Ranges)
	fmt.Fprintf(w, "collisions:\t%d\n", s.Collisions)
	fmt.Fprintf(w, "max inline depth:\t%d\n", s.MaxInlineDepth)
	langs := make([]symtypes.Language, 0, len(s.Languages))
	for lang := range s.Languages {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	for _, lang := range langs {
		fmt.Fprintf(w, "%s units:\t%d\n", lang, s.Languages[lang])
	}
	return w.Flush()
}

// ExitRequestError is returned when the user
// exits the shell.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exitCommand(t *Term, args []string) error {
	return ExitRequestError{}
}

func (c *Commands) sourceCommand(t *Term, args []string) error {
	if len(args) != 1 {
		return errors.New("wrong number of arguments: source <filename>")
	}
	return c.executeFile(t, args[0])
}

func (c *Commands) executeFile(t *Term, name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	lineno := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineno++

		if line == "" || line[0] == '#' {
			continue
		}

		if err := c.Call(line, t); err != nil {
			if _, isExitRequest := err.(ExitRequestError); isExitRequest {
				return err
			}
			fmt.Fprintf(t.stdout, "%s:%d: %v\n", name, lineno, err)
		}
	}

	return scanner.Err()
}
