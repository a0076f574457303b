package symindex

import (
	"debug/dwarf"
	"fmt"
	"math"

	"github.com/go-delve/dwarfindex/pkg/dwarf/godwarf"
	"github.com/go-delve/dwarfindex/pkg/dwarf/line"
	"github.com/go-delve/dwarfindex/pkg/dwarf/reader"
	"github.com/go-delve/dwarfindex/pkg/dwarf/util"
	"github.com/go-delve/dwarfindex/pkg/logflags"
	"github.com/go-delve/dwarfindex/pkg/symtypes"
)

// unit converts the compile units of one set of debug sections.
type unit struct {
	conv *Converter
	secs *godwarf.Sections
	data *dwarf.Data
	rdr  *reader.Reader
}

// process converts the unit whose root entry is at off and merges its
// breakpoints into the index. Nothing is merged if an error is returned.
func (u *unit) process(bufs *unitBuffers, off dwarf.Offset) error {
	bufs.reset()

	u.rdr.Seek(off)
	cu, err := u.rdr.Next()
	if err != nil {
		return &ConvertError{Stage: StageUnits, Unit: off, Err: err}
	}
	if cu == nil {
		return &ConvertError{Stage: StageUnits, Unit: off, Err: fmt.Errorf("no entry at %#x", off)}
	}
	stmtList, ok := cu.Val(dwarf.AttrStmtList).(int64)
	if !ok {
		// no line number program, nothing to map
		return nil
	}

	name, _ := cu.Val(dwarf.AttrName).(string)
	compDir, _ := cu.Val(dwarf.AttrCompDir).(string)
	lang := symtypes.LanguageUnknown
	if code, ok := cu.Val(dwarf.AttrLanguage).(int64); ok {
		lang, _ = symtypes.LanguageFromDwarf(code)
	}

	lineInfo, err := u.lineProgram(stmtList, compDir)
	if err != nil {
		return &ConvertError{Stage: StageLineProgram, Unit: off, Err: err}
	}
	seqs, err := lineInfo.Sequences()
	if err != nil {
		return &ConvertError{Stage: StageLineProgram, Unit: off, Err: err}
	}
	for _, seq := range seqs {
		for _, row := range seq.Rows {
			ln := uint32(0)
			switch {
			case int64(row.Line) > math.MaxUint32:
				ln = math.MaxUint32
			case row.Line > 0:
				ln = uint32(row.Line)
			}
			bufs.bps.set(row.Address, SourceLocation{
				File: u.conv.resolveFile(bufs, lineInfo, row.File),
				Line: ln,
			})
		}
	}
	bufs.bps.finish()

	depth, err := u.walk(bufs, lineInfo, cu)
	if err != nil {
		return err
	}

	u.conv.merge(&bufs.bps)

	u.conv.stats.Units++
	u.conv.stats.Languages[lang]++
	if depth > u.conv.stats.MaxInlineDepth {
		u.conv.stats.MaxInlineDepth = depth
	}
	u.conv.log.Debugf("unit %s at %#x (%s): %d sequences, %d breakpoints", name, off, lang, len(seqs), len(bufs.bps.bps))
	return nil
}

func (u *unit) lineProgram(stmtList int64, compDir string) (*line.DebugLineInfo, error) {
	if stmtList < 0 || stmtList >= int64(len(u.secs.Line)) {
		return nil, dwarf.DecodeError{Name: "line", Offset: dwarf.Offset(stmtList), Err: "line program offset out of range"}
	}
	buf := util.MakeBuf("line", u.secs.Endianness.ByteOrder(), dwarf.Offset(stmtList), u.secs.Line[stmtList:])
	strs := line.StringSections{LineStr: u.secs.LineStr, Str: u.secs.Str}
	return line.Parse(compDir, &buf, strs, logflags.DebugLineLogger().Debugf, u.conv.normalizeBackslash)
}

// walk visits the entries of cu and attributes the breakpoints covered by
// inlined subroutines to their call sites. It returns the deepest nesting
// of inlined subroutines in the unit.
func (u *unit) walk(bufs *unitBuffers, lineInfo *line.DebugLineInfo, cu *dwarf.Entry) (int, error) {
	// depths of the inlined subroutines enclosing the current entry
	var inlined []int
	maxDepth := 0

	u.rdr.Walk(cu)
	for {
		e, depth, err := u.rdr.NextDFS()
		if err != nil {
			return 0, &ConvertError{Stage: StageEntries, Unit: cu.Offset, Err: err}
		}
		if e == nil {
			break
		}
		for len(inlined) > 0 && inlined[len(inlined)-1] >= depth {
			inlined = inlined[:len(inlined)-1]
		}

		switch e.Tag {
		case dwarf.TagSubprogram:
			rngs, err := u.data.Ranges(e)
			if err != nil {
				return 0, &ConvertError{Stage: StageRanges, Unit: cu.Offset, Err: err}
			}
			fn := functionFor(e)
			for _, rng := range rngs {
				bps := bufs.bps.split(rng[0], rng[1])
				for i := range bps {
					bps[i].loc.Function = fn
				}
			}

		case dwarf.TagInlinedSubroutine:
			inlined = append(inlined, depth)
			if len(inlined) > maxDepth {
				maxDepth = len(inlined)
			}

			rngs, err := u.data.Ranges(e)
			if err != nil {
				return 0, &ConvertError{Stage: StageRanges, Unit: cu.Offset, Err: err}
			}
			var callFile OptHandle
			if idx, ok := e.Val(dwarf.AttrCallFile).(int64); ok && idx >= 0 {
				callFile = u.conv.resolveFile(bufs, lineInfo, uint64(idx))
			}
			callLine := uint32(0)
			if l, ok := e.Val(dwarf.AttrCallLine).(int64); ok && l > 0 {
				callLine = uint32(min(l, math.MaxUint32))
			}
			fn := functionFor(e)

			for _, rng := range rngs {
				bps := bufs.bps.split(rng[0], rng[1])
				for i := range bps {
					caller := bps[i].loc
					caller.File = callFile
					caller.Line = callLine
					bps[i].loc.InlinedInto = Some(u.conv.locations.Insert(caller))
					bps[i].loc.Function = fn
				}
			}
		}
	}
	return maxDepth, nil
}

// functionFor returns the function handle for locations covered by the
// subprogram or inlined subroutine e. Function names are not resolved, the
// handle is always absent.
func functionFor(e *dwarf.Entry) OptHandle {
	return OptHandle{}
}
