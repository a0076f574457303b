// Package dwarfbuilder provides a way to build DWARF sections with
// arbitrary contents.
package dwarfbuilder

import (
	"bytes"
	"debug/dwarf"
	"encoding/binary"
	"fmt"

	"github.com/go-delve/dwarfindex/pkg/dwarf/godwarf"
	"github.com/go-delve/dwarfindex/pkg/symtypes"
)

// Builder dwarf builder
type Builder struct {
	info     bytes.Buffer
	line     bytes.Buffer
	lineStr  bytes.Buffer
	ranges   bytes.Buffer
	abbrevs  []tagDescr
	tagStack []*tagState

	// unitOff is the offset of the header of the compile unit being built,
	// -1 if there is none.
	unitOff int
}

// New creates a new DWARF builder. Call AddCompileUnit to start the
// first compile unit.
func New() *Builder {
	return &Builder{unitOff: -1}
}

// AddCompileUnit starts a new DWARFv4 compile unit, call TagClose after
// adding all its children.
// If lp is not nil its contents are appended to .debug_line and the unit
// gets a DW_AT_stmt_list attribute pointing to it, if compDir is not
// empty the unit gets a DW_AT_comp_dir attribute.
func (b *Builder) AddCompileUnit(name, compDir string, lp *LineProgram) dwarf.Offset {
	if len(b.tagStack) > 0 {
		panic("AddCompileUnit with open tags")
	}
	b.unitOff = b.info.Len()
	b.info.Write([]byte{
		0x0, 0x0, 0x0, 0x0, // length
		0x4, 0x0, // version
		0x0, 0x0, 0x0, 0x0, // debug_abbrev_offset
		0x8, // address_size
	})

	r := b.TagOpen(dwarf.TagCompileUnit, name)
	if compDir != "" {
		b.Attr(dwarf.AttrCompDir, compDir)
	}
	if lp != nil {
		b.Attr(dwarf.AttrStmtList, LinePtr(b.line.Len()))
		b.line.Write(lp.encode(&b.lineStr))
	}
	return r
}

// Build returns all the dwarf sections.
func (b *Builder) Build() (*godwarf.Sections, error) {
	if len(b.tagStack) > 0 {
		return nil, fmt.Errorf("unbalanced TagOpen/TagClose %d", len(b.tagStack))
	}

	return &godwarf.Sections{
		Abbrev:     b.makeAbbrevTable(),
		Info:       b.info.Bytes(),
		Line:       b.line.Bytes(),
		LineStr:    nilIfEmpty(b.lineStr.Bytes()),
		Ranges:     b.ranges.Bytes(),
		Endianness: symtypes.Little,
	}, nil
}

func (b *Builder) closeUnit() {
	info := b.info.Bytes()
	binary.LittleEndian.PutUint32(info[b.unitOff:], uint32(len(info)-b.unitOff-4))
	b.unitOff = -1
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
