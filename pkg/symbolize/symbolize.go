// Package symbolize turns addresses into source frames using the index
// built by package symindex.
package symbolize

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/derekparker/trie"
	lru "github.com/hashicorp/golang-lru"

	"github.com/go-delve/dwarfindex/pkg/config"
	"github.com/go-delve/dwarfindex/pkg/logflags"
	"github.com/go-delve/dwarfindex/pkg/symindex"
)

// Frame is a source frame of an address.
type Frame struct {
	Addr uint64
	// File is the full path of the source file after path substitution,
	// empty if unknown.
	File string
	// Dir is the compilation directory of File as recorded in the debug
	// info, if any.
	Dir  string
	Line int
	// Inlined is true if the frame was inlined into the next one.
	Inlined bool
}

func (f Frame) String() string {
	file := f.File
	if file == "" {
		file = "??"
	}
	return fmt.Sprintf("%#x %s:%d", f.Addr, file, f.Line)
}

// Symbolizer resolves addresses to frames. It is safe for concurrent use.
type Symbolizer struct {
	conv  *symindex.Converter
	rules config.SubstitutePathRules
	cache *lru.Cache
	files *trie.Trie
	log   logflags.Logger
}

// New returns a Symbolizer for conv, which must be fully processed.
func New(conv *symindex.Converter, cfg *config.Config) (*Symbolizer, error) {
	cache, err := lru.New(cfg.CacheSize())
	if err != nil {
		return nil, fmt.Errorf("could not create lookup cache: %v", err)
	}
	s := &Symbolizer{
		conv:  conv,
		cache: cache,
		files: trie.New(),
		log:   logflags.SymbolizerLogger(),
	}
	if cfg != nil {
		s.rules = cfg.SubstitutePath
	}
	for _, p := range conv.FilePaths() {
		s.files.Add(s.substitute(p), nil)
	}
	return s, nil
}

// Symbolize returns the frames of addr, innermost first. The returned
// slice is shared with the cache and must not be modified.
func (s *Symbolizer) Symbolize(addr uint64) []Frame {
	if v, ok := s.cache.Get(addr); ok {
		s.log.Debugf("cache hit for %#x", addr)
		return v.([]Frame)
	}
	var frames []Frame
	for it := s.conv.Lookup(addr); it.Next(); {
		loc := it.Location()
		fr := Frame{Addr: addr, Line: int(loc.Line()), Inlined: loc.Inlined()}
		if p := loc.FullPath(); p != "" {
			fr.File = s.substitute(p)
		}
		fr.Dir, _ = loc.Dir()
		frames = append(frames, fr)
	}
	if s.cache.Add(addr, frames) {
		s.log.Debugf("cache full, evicted oldest entry")
	}
	return frames
}

func (s *Symbolizer) substitute(p string) string {
	if len(s.rules) == 0 {
		return p
	}
	return config.SubstitutePath(p, s.rules)
}

// FilesWithPrefix returns the sorted list of known source files whose
// path starts with prefix.
func (s *Symbolizer) FilesWithPrefix(prefix string) []string {
	var r []string
	if prefix == "" {
		r = s.files.Keys()
	} else {
		r = s.files.PrefixSearch(prefix)
	}
	sort.Strings(r)
	return r
}

// FilesWithSuffix returns the sorted list of known source files whose
// path ends with suffix, matching whole path components.
func (s *Symbolizer) FilesWithSuffix(suffix string) []string {
	var r []string
	for _, p := range s.files.Keys() {
		if p == suffix || strings.HasSuffix(p, "/"+strings.TrimPrefix(suffix, "/")) {
			r = append(r, p)
		}
	}
	sort.Strings(r)
	return r
}

// Base returns the last element of the path of f.
func (f Frame) Base() string {
	if f.File == "" {
		return "??"
	}
	return path.Base(strings.ReplaceAll(f.File, "\\", "/"))
}
