package symbolize

import (
	"errors"
	"path/filepath"

	"github.com/google/pprof/profile"
)

// ProfileOptions controls SymbolizeProfile.
type ProfileOptions struct {
	// MappingFile selects the mappings to symbolize by the base name of
	// their file. If empty only the first mapping, which by convention is
	// the main executable, is symbolized.
	MappingFile string
	// Relocatable must be set if the binary is position independent,
	// profile addresses are then converted to file offsets using the
	// mapping.
	Relocatable bool
	// Force symbolizes mappings that already have line information.
	Force bool
}

// ErrNoMapping is returned by SymbolizeProfile when no mapping of the
// profile matches.
var ErrNoMapping = errors.New("no matching mapping in profile")

// SymbolizeProfile adds file and line information to the locations of p
// that belong to the selected mappings. Every frame of a location becomes
// a profile.Line, innermost first. Function names are not resolved, each
// source file gets a function named "??".
func (s *Symbolizer) SymbolizeProfile(p *profile.Profile, opts ProfileOptions) error {
	selected := make(map[*profile.Mapping]bool)
	for i, m := range p.Mapping {
		if opts.MappingFile == "" {
			if i != 0 {
				break
			}
		} else if filepath.Base(m.File) != opts.MappingFile {
			continue
		}
		if !opts.Force && (m.HasFilenames || m.HasLineNumbers) {
			s.log.Debugf("mapping %s already symbolized", m.File)
			continue
		}
		selected[m] = true
	}
	if len(selected) == 0 && len(p.Mapping) > 0 {
		return ErrNoMapping
	}

	functions := make(map[profile.Function]*profile.Function)
	for _, fn := range p.Function {
		key := *fn
		key.ID = 0
		functions[key] = fn
	}

	n := 0
	for _, l := range p.Location {
		m := l.Mapping
		if m != nil && !selected[m] {
			continue
		}
		addr := l.Address
		if m != nil && opts.Relocatable {
			addr = addr - m.Start + m.Offset
		}
		frames := s.Symbolize(addr)
		if len(frames) == 0 {
			continue
		}

		l.Line = make([]profile.Line, len(frames))
		for i, fr := range frames {
			f := &profile.Function{
				Name:       "??",
				SystemName: "??",
				Filename:   fr.File,
			}
			if fp := functions[*f]; fp != nil {
				f = fp
			} else {
				functions[*f] = f
				f.ID = uint64(len(p.Function)) + 1
				p.Function = append(p.Function, f)
			}
			l.Line[i] = profile.Line{Function: f, Line: int64(fr.Line)}

			if m != nil {
				if fr.File != "" {
					m.HasFilenames = true
				}
				if fr.Line != 0 {
					m.HasLineNumbers = true
				}
			}
		}
		if m != nil && len(frames) > 1 {
			m.HasInlineFrames = true
		}
		n++
	}
	s.log.Debugf("symbolized %d of %d locations", n, len(p.Location))
	return nil
}
