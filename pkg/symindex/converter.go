// Package symindex converts DWARF debug information into an index that
// maps instruction addresses to source locations, including the call
// sites of inlined functions.
//
// A Converter is filled by one or more calls to Process and is safe for
// concurrent lookups once Process has returned.
package symindex

import (
	"sort"

	"github.com/go-delve/dwarfindex/pkg/dwarf/godwarf"
	"github.com/go-delve/dwarfindex/pkg/dwarf/reader"
	"github.com/go-delve/dwarfindex/pkg/logflags"
	"github.com/go-delve/dwarfindex/pkg/symtypes"
)

// Converter builds the address index.
type Converter struct {
	strings   Table[string]
	files     Table[File]
	locations Table[SourceLocation]

	// ranges maps addresses to the location that is valid up to the next
	// entry. It is sorted by address when Process returns.
	ranges   []rangeEntry
	occupied map[uint64]struct{}

	skipBrokenUnits    bool
	normalizeBackslash bool
	log                logflags.Logger

	stats Stats
}

type rangeEntry struct {
	addr uint64
	loc  Handle
}

// Option configures a Converter.
type Option func(*Converter)

// WithSkipBrokenUnits makes Process skip compile units that can not be
// decoded instead of returning an error. Skipped units are counted in
// Stats.SkippedUnits.
func WithSkipBrokenUnits(skip bool) Option {
	return func(conv *Converter) {
		conv.skipBrokenUnits = skip
	}
}

// WithNormalizeBackslash rewrites backslashes in file and directory names
// to forward slashes.
func WithNormalizeBackslash(normalize bool) Option {
	return func(conv *Converter) {
		conv.normalizeBackslash = normalize
	}
}

// WithLogger sets the logger used to report progress and skipped units.
func WithLogger(log logflags.Logger) Option {
	return func(conv *Converter) {
		conv.log = log
	}
}

// New returns an empty Converter.
func New(opts ...Option) *Converter {
	conv := &Converter{
		occupied: make(map[uint64]struct{}),
		log:      logflags.ConverterLogger(),
		stats:    Stats{Languages: make(map[symtypes.Language]int)},
	}
	for _, opt := range opts {
		opt(conv)
	}
	return conv
}

// Stats describes the contents of a Converter.
type Stats struct {
	// Units is the number of compile units with a line number program.
	Units int
	// SkippedUnits is the number of units that could not be decoded, only
	// non-zero when WithSkipBrokenUnits is used.
	SkippedUnits int
	// Collisions is the number of addresses claimed by more than one unit,
	// only the first unit's location is kept.
	Collisions int
	// Languages counts units by DW_AT_language.
	Languages map[symtypes.Language]int
	// MaxInlineDepth is the deepest nesting of inlined subroutines.
	MaxInlineDepth int

	Strings   int
	Files     int
	Locations int
	Ranges    int
}

// Process adds the debug information in secs to the index.
// Units are processed in the order they appear in .debug_info, if two
// units describe the same address the first one wins.
func (conv *Converter) Process(secs *godwarf.Sections) error {
	data, err := secs.Data()
	if err != nil {
		return &ConvertError{Stage: StageUnits, Err: err}
	}
	offs, err := secs.UnitOffsets()
	if err != nil {
		return &ConvertError{Stage: StageUnits, Err: err}
	}

	defer conv.sortRanges()

	u := &unit{conv: conv, secs: secs, data: data, rdr: reader.New(data)}
	var bufs unitBuffers
	for _, off := range offs {
		err := u.process(&bufs, off)
		if err == nil {
			continue
		}
		if !conv.skipBrokenUnits {
			return err
		}
		conv.log.Errorf("skipping unit at %#x: %v", off, err)
		conv.stats.SkippedUnits++
	}
	return nil
}

// merge adds the breakpoints of a unit to the index. Addresses that are
// already in the index keep their location.
func (conv *Converter) merge(bps *breakpoints) {
	for _, bp := range bps.bps {
		h := conv.locations.Insert(bp.loc)
		if _, ok := conv.occupied[bp.addr]; ok {
			conv.log.Debugf("address %#x already mapped, dropping location %d", bp.addr, h)
			conv.stats.Collisions++
			continue
		}
		conv.occupied[bp.addr] = struct{}{}
		conv.ranges = append(conv.ranges, rangeEntry{addr: bp.addr, loc: h})
	}
}

func (conv *Converter) sortRanges() {
	sort.Slice(conv.ranges, func(i, j int) bool { return conv.ranges[i].addr < conv.ranges[j].addr })
}

// Stats returns counters describing the index.
func (conv *Converter) Stats() Stats {
	s := conv.stats
	s.Languages = make(map[symtypes.Language]int, len(conv.stats.Languages))
	for lang, n := range conv.stats.Languages {
		s.Languages[lang] = n
	}
	s.Strings = conv.strings.Len()
	s.Files = conv.files.Len()
	s.Locations = conv.locations.Len()
	s.Ranges = len(conv.ranges)
	return s
}

// FilePaths returns the full path of every file in the index.
func (conv *Converter) FilePaths() []string {
	r := make([]string, 0, conv.files.Len())
	for i := 0; i < conv.files.Len(); i++ {
		r = append(r, conv.filePath(conv.files.Get(Handle(i))))
	}
	return r
}

func (conv *Converter) filePath(f File) string {
	dir := ""
	if h, ok := f.Dir.Get(); ok {
		dir = conv.strings.Get(h)
	}
	return joinPath(dir, conv.strings.Get(f.Path))
}
