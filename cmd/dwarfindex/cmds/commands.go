package cmds

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/pprof/profile"
	"github.com/spf13/cobra"

	"github.com/go-delve/dwarfindex/pkg/config"
	"github.com/go-delve/dwarfindex/pkg/dwarf/godwarf"
	"github.com/go-delve/dwarfindex/pkg/logflags"
	"github.com/go-delve/dwarfindex/pkg/symbolize"
	"github.com/go-delve/dwarfindex/pkg/symindex"
	"github.com/go-delve/dwarfindex/pkg/terminal"
	"github.com/go-delve/dwarfindex/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// initFile is the path to initialization file.
	initFile string
	// skipBrokenUnits makes the converter skip compile units it can not decode.
	skipBrokenUnits bool
	// normalizeBackslash converts backslashes in file names to slashes.
	normalizeBackslash bool

	// profileOutput is the path the symbolized profile is written to.
	profileOutput string
	// mappingFile selects the profile mappings to symbolize.
	mappingFile string
	// forceSymbolize symbolizes mappings that already have line information.
	forceSymbolize bool

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

const dwarfindexCommandLongDesc = `Dwarfindex converts the DWARF debug information of an executable into an
address index and resolves addresses to source locations, including the
chain of functions that were inlined at that address.

Addresses are hexadecimal, with or without the 0x prefix, and refer to the
addresses recorded in the debug information of the binary.`

// New returns an initialized command tree.
func New(docCall bool) *cobra.Command {
	// Config setup and load.
	var err error
	conf, err = config.LoadConfig()
	if err != nil && !docCall {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Main dwarfindex root command.
	rootCommand = &cobra.Command{
		Use:          "dwarfindex",
		Short:        "Dwarfindex resolves addresses to inlined source locations.",
		Long:         dwarfindexCommandLongDesc,
		SilenceUsage: true,
	}

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'dwarfindex help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'dwarfindex help log').")
	rootCommand.PersistentFlags().BoolVarP(&skipBrokenUnits, "skip-broken-units", "", false, "Skip compile units with malformed debug information instead of failing.")
	rootCommand.PersistentFlags().BoolVarP(&normalizeBackslash, "normalize-backslash", "", false, "Convert backslashes in file names to forward slashes.")

	// 'lookup' subcommand.
	lookupCommand := &cobra.Command{
		Use:   "lookup <path/to/binary> [address...]",
		Short: "Print the source locations of addresses.",
		Long: `Print the source locations of addresses.

For every address the innermost source location is printed first, followed
by the locations of the call sites it was inlined into. If no address is
given on the command line addresses are read from standard input, separated
by white space.`,
		Args: cobra.MinimumNArgs(1),
		RunE: lookupCmd,
	}
	rootCommand.AddCommand(lookupCommand)

	// 'stats' subcommand.
	statsCommand := &cobra.Command{
		Use:   "stats <path/to/binary>",
		Short: "Print statistics about the address index of a binary.",
		Args:  cobra.ExactArgs(1),
		RunE:  statsCmd,
	}
	rootCommand.AddCommand(statsCommand)

	// 'pprof' subcommand.
	pprofCommand := &cobra.Command{
		Use:   "pprof <path/to/binary> <path/to/profile>",
		Short: "Add inlined source locations to a pprof profile.",
		Long: `Add file and line information, including inlined frames, to the
locations of a pprof profile collected from the binary.

By default only the first mapping of the profile, which is the main
executable, is symbolized. Use --mapping to select mappings by the base
name of their file instead.`,
		Args: cobra.ExactArgs(2),
		RunE: pprofCmd,
	}
	pprofCommand.Flags().StringVarP(&profileOutput, "output", "o", "", "Output path for the symbolized profile, standard output if empty.")
	pprofCommand.Flags().StringVar(&mappingFile, "mapping", "", "Base name of the mapping file to symbolize.")
	pprofCommand.Flags().BoolVar(&forceSymbolize, "force", false, "Symbolize mappings that already have line information.")
	rootCommand.AddCommand(pprofCommand)

	// 'shell' subcommand.
	shellCommand := &cobra.Command{
		Use:   "shell <path/to/binary>",
		Short: "Start an interactive shell to query the address index.",
		Args:  cobra.ExactArgs(1),
		RunE:  shellCmd,
	}
	shellCommand.Flags().StringVar(&initFile, "init", "", "Init file, executed by the shell before the first prompt.")
	rootCommand.AddCommand(shellCommand)

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Dwarfindex\n%s\n", version.DwarfIndexVersion)
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "Build Details: %s\n", version.BuildInfo())
			}
		},
	}
	versionCommand.Flags().BoolP("verbose", "v", false, "print verbose version info")
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	converter	Log the processing of every compile unit (default)
	debuglineerr	Log recoverable errors reading .debug_line
	loader		Log the debug sections read from the object file
	symbolizer	Log symbolizer cache and profile decisions

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

// index holds everything built from a binary.
type index struct {
	img  *godwarf.Image
	conv *symindex.Converter
	sym  *symbolize.Symbolizer
}

func load(path string) (*index, error) {
	img, err := godwarf.Load(path)
	if err != nil {
		return nil, err
	}
	conv := symindex.New(
		symindex.WithSkipBrokenUnits(skipBrokenUnits || conf.SkipBrokenUnits),
		symindex.WithNormalizeBackslash(normalizeBackslash || conf.NormalizeBackslash))
	if err := conv.Process(img.Sections); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sym, err := symbolize.New(conv, conf)
	if err != nil {
		return nil, err
	}
	return &index{img: img, conv: conv, sym: sym}, nil
}

// withIndex sets up logging, loads the binary named by the first argument
// and calls fn with it.
func withIndex(args []string, fn func(*index) error) error {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		return err
	}
	defer logflags.Close()

	if conf == nil {
		conf = &config.Config{}
	}
	idx, err := load(args[0])
	if err != nil {
		return err
	}
	return fn(idx)
}

func lookupCmd(cmd *cobra.Command, args []string) error {
	return withIndex(args, func(idx *index) error {
		out := bufio.NewWriter(cmd.OutOrStdout())
		defer out.Flush()
		if len(args) > 1 {
			for _, arg := range args[1:] {
				if err := printLookup(out, idx.sym, arg); err != nil {
					return err
				}
			}
			return nil
		}
		s := bufio.NewScanner(cmd.InOrStdin())
		s.Split(bufio.ScanWords)
		for s.Scan() {
			if err := printLookup(out, idx.sym, s.Text()); err != nil {
				return err
			}
		}
		return s.Err()
	})
}

func printLookup(w io.Writer, sym *symbolize.Symbolizer, arg string) error {
	addr, err := symbolize.ParseAddr(arg)
	if err != nil {
		return err
	}
	frames := sym.Symbolize(addr)
	if len(frames) == 0 {
		fmt.Fprintf(w, "%#x: no source location\n", addr)
		return nil
	}
	fmt.Fprintf(w, "%#x:\n", addr)
	for _, fr := range frames {
		file := fr.File
		if file == "" {
			file = "??"
		}
		if fr.Inlined {
			fmt.Fprintf(w, "    %s:%d (inlined)\n", file, fr.Line)
		} else {
			fmt.Fprintf(w, "    %s:%d\n", file, fr.Line)
		}
	}
	return nil
}

func statsCmd(cmd *cobra.Command, args []string) error {
	return withIndex(args, func(idx *index) error {
		s := idx.conv.Stats()
		w := new(tabwriter.Writer)
		w.Init(cmd.OutOrStdout(), 0, 8, 1, ' ', 0)
		fmt.Fprintf(w, "binary:\t%s\n", idx.img.Path)
		fmt.Fprintf(w, "format:\t%v %v\n", idx.img.Kind, idx.img.Arch)
		fmt.Fprintf(w, "units:\t%d\n", s.Units)
		fmt.Fprintf(w, "skipped units:\t%d\n", s.SkippedUnits)
		fmt.Fprintf(w, "files:\t%d\n", s.Files)
		fmt.Fprintf(w, "locations:\t%d\n", s.Locations)
		fmt.Fprintf(w, "ranges:\t%d\n", s.Ranges)
		fmt.Fprintf(w, "collisions:\t%d\n", s.Collisions)
		fmt.Fprintf(w, "max inline depth:\t%d\n", s.MaxInlineDepth)
		return w.Flush()
	})
}

func pprofCmd(cmd *cobra.Command, args []string) error {
	return withIndex(args, func(idx *index) error {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		p, err := profile.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("could not parse profile %s: %v", args[1], err)
		}

		err = idx.sym.SymbolizeProfile(p, symbolize.ProfileOptions{
			MappingFile: mappingFile,
			Relocatable: idx.img.Relocatable,
			Force:       forceSymbolize,
		})
		if err != nil {
			return err
		}

		if profileOutput == "" {
			return p.Write(cmd.OutOrStdout())
		}
		out, err := os.Create(profileOutput)
		if err != nil {
			return err
		}
		if err := p.Write(out); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}

func shellCmd(cmd *cobra.Command, args []string) error {
	return withIndex(args, func(idx *index) error {
		term := terminal.New(idx.sym, idx.conv, conf)
		term.InitFile = initFile
		_, err := term.Run()
		return err
	})
}
