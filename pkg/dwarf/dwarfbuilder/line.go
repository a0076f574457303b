package dwarfbuilder

import (
	"bytes"
	"encoding/binary"

	"github.com/go-delve/dwarfindex/pkg/dwarf/leb128"
)

// Line number program opcodes.
const (
	DW_LNS_copy             = 0x01
	DW_LNS_advance_pc       = 0x02
	DW_LNS_advance_line     = 0x03
	DW_LNS_set_file         = 0x04
	DW_LNS_negate_stmt      = 0x06
	DW_LNS_const_add_pc     = 0x08
	DW_LNS_fixed_advance_pc = 0x09

	DW_LNE_end_sequence = 0x01
	DW_LNE_set_address  = 0x02
	DW_LNE_define_file  = 0x03
)

var defaultStdOpLengths = []uint8{0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1}

// LineFile is an entry of the file table of a line number program.
type LineFile struct {
	Name string
	Dir  uint64
}

// LineProgram builds one unit of .debug_line.
// Its methods append opcodes to the program and track the state machine
// registers the way a consumer would, Row uses them to pick the shortest
// encoding.
type LineProgram struct {
	Version        uint16
	Dwarf64        bool
	MinInstrLength uint8
	LineBase       int8
	LineRange      uint8
	OpcodeBase     uint8
	// StdOpLengths overrides the standard_opcode_lengths array, it must
	// have OpcodeBase-1 elements.
	StdOpLengths []uint8
	IncludeDirs  []string
	Files        []LineFile
	// UseLineStr makes DWARFv5 tables reference their strings through
	// DW_FORM_line_strp instead of storing them inline.
	UseLineStr bool

	prog    bytes.Buffer
	addr    uint64
	file    uint64
	line    int
	started bool
}

// NewLineProgram returns an empty line number program with the given
// directory and file tables. Before version 5 dirs should not contain
// the compilation directory and file indices are 1-based.
func NewLineProgram(version uint16, dirs []string, files ...LineFile) *LineProgram {
	lp := &LineProgram{
		Version:        version,
		MinInstrLength: 1,
		LineBase:       -4,
		LineRange:      10,
		OpcodeBase:     13,
		IncludeDirs:    dirs,
		Files:          files,
	}
	lp.resetRegisters()
	return lp
}

func (lp *LineProgram) resetRegisters() {
	lp.addr = 0
	lp.file = 1
	lp.line = 1
	lp.started = false
}

func (lp *LineProgram) extended(op byte, args []byte) {
	lp.prog.WriteByte(0)
	leb128.EncodeUnsigned(&lp.prog, uint64(len(args)+1))
	lp.prog.WriteByte(op)
	lp.prog.Write(args)
}

// SetAddress emits DW_LNE_set_address.
func (lp *LineProgram) SetAddress(addr uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], addr)
	lp.extended(DW_LNE_set_address, b[:])
	lp.addr = addr
	lp.started = true
}

// SetFile emits DW_LNS_set_file.
func (lp *LineProgram) SetFile(idx uint64) {
	lp.prog.WriteByte(DW_LNS_set_file)
	leb128.EncodeUnsigned(&lp.prog, idx)
	lp.file = idx
}

// AdvanceLine emits DW_LNS_advance_line.
func (lp *LineProgram) AdvanceLine(delta int) {
	lp.prog.WriteByte(DW_LNS_advance_line)
	leb128.EncodeSigned(&lp.prog, int64(delta))
	lp.line += delta
}

// AdvancePC emits DW_LNS_advance_pc, delta is in bytes.
func (lp *LineProgram) AdvancePC(delta uint64) {
	lp.prog.WriteByte(DW_LNS_advance_pc)
	leb128.EncodeUnsigned(&lp.prog, delta/uint64(lp.MinInstrLength))
	lp.addr += delta
}

// FixedAdvancePC emits DW_LNS_fixed_advance_pc.
func (lp *LineProgram) FixedAdvancePC(delta uint16) {
	lp.prog.WriteByte(DW_LNS_fixed_advance_pc)
	binary.Write(&lp.prog, binary.LittleEndian, delta)
	lp.addr += uint64(delta)
}

// ConstAddPC emits DW_LNS_const_add_pc.
func (lp *LineProgram) ConstAddPC() {
	lp.prog.WriteByte(DW_LNS_const_add_pc)
	lp.addr += uint64((255-lp.OpcodeBase)/lp.LineRange) * uint64(lp.MinInstrLength)
}

// NegateStmt emits DW_LNS_negate_stmt.
func (lp *LineProgram) NegateStmt() {
	lp.prog.WriteByte(DW_LNS_negate_stmt)
}

// Copy emits DW_LNS_copy, appending a row.
func (lp *LineProgram) Copy() {
	lp.prog.WriteByte(DW_LNS_copy)
}

// Special emits the special opcode that advances the address by addrDelta
// bytes and the line by lineDelta, appending a row. It returns false and
// emits nothing if no special opcode can encode the pair.
func (lp *LineProgram) Special(addrDelta uint64, lineDelta int) bool {
	l := lineDelta - int(lp.LineBase)
	if l < 0 || l >= int(lp.LineRange) {
		return false
	}
	opcode := uint64(l) + uint64(lp.LineRange)*(addrDelta/uint64(lp.MinInstrLength)) + uint64(lp.OpcodeBase)
	if opcode > 255 {
		return false
	}
	lp.prog.WriteByte(byte(opcode))
	lp.addr += addrDelta
	lp.line += lineDelta
	return true
}

// Raw appends b to the program unchanged.
func (lp *LineProgram) Raw(b ...byte) {
	lp.prog.Write(b)
}

// Row appends a row mapping addr to file and line, using whatever
// opcodes are needed.
func (lp *LineProgram) Row(addr, file uint64, line int) {
	if file != lp.file {
		lp.SetFile(file)
	}
	if !lp.started || addr < lp.addr {
		lp.SetAddress(addr)
	}
	if lp.Special(addr-lp.addr, line-lp.line) {
		return
	}
	if addr != lp.addr {
		lp.AdvancePC(addr - lp.addr)
	}
	if line != lp.line {
		lp.AdvanceLine(line - lp.line)
	}
	lp.Copy()
}

// EndSequence emits DW_LNE_end_sequence at addr, which is the first
// address after the sequence.
func (lp *LineProgram) EndSequence(addr uint64) {
	if !lp.started || addr < lp.addr {
		lp.SetAddress(addr)
	} else if addr != lp.addr {
		lp.AdvancePC(addr - lp.addr)
	}
	lp.extended(DW_LNE_end_sequence, nil)
	lp.resetRegisters()
}

// DefineFile emits DW_LNE_define_file.
func (lp *LineProgram) DefineFile(name string, dir uint64) {
	var args bytes.Buffer
	args.WriteString(name)
	args.WriteByte(0)
	leb128.EncodeUnsigned(&args, dir)
	leb128.EncodeUnsigned(&args, 0)
	leb128.EncodeUnsigned(&args, 0)
	lp.extended(DW_LNE_define_file, args.Bytes())
}

// Bytes returns the encoded line number program unit. Strings referenced
// with UseLineStr are written to a .debug_line_str section that is
// discarded, use BytesWithLineStr to keep it.
func (lp *LineProgram) Bytes() []byte {
	var lineStr bytes.Buffer
	return lp.encode(&lineStr)
}

// BytesWithLineStr is like Bytes but appends the strings referenced with
// UseLineStr to lineStr.
func (lp *LineProgram) BytesWithLineStr(lineStr *bytes.Buffer) []byte {
	return lp.encode(lineStr)
}

func (lp *LineProgram) encode(lineStr *bytes.Buffer) []byte {
	var hdr bytes.Buffer
	hdr.WriteByte(lp.MinInstrLength)
	if lp.Version >= 4 {
		hdr.WriteByte(1) // maximum_operations_per_instruction
	}
	hdr.WriteByte(1) // default_is_stmt
	hdr.WriteByte(byte(lp.LineBase))
	hdr.WriteByte(lp.LineRange)
	hdr.WriteByte(lp.OpcodeBase)
	stdOpLengths := lp.StdOpLengths
	if stdOpLengths == nil {
		stdOpLengths = make([]uint8, lp.OpcodeBase-1)
		copy(stdOpLengths, defaultStdOpLengths)
	}
	hdr.Write(stdOpLengths)

	if lp.Version >= 5 {
		lp.writeTables5(&hdr, lineStr)
	} else {
		for _, dir := range lp.IncludeDirs {
			hdr.WriteString(dir)
			hdr.WriteByte(0)
		}
		hdr.WriteByte(0)
		for _, f := range lp.Files {
			hdr.WriteString(f.Name)
			hdr.WriteByte(0)
			leb128.EncodeUnsigned(&hdr, f.Dir)
			leb128.EncodeUnsigned(&hdr, 0) // modification time
			leb128.EncodeUnsigned(&hdr, 0) // length
		}
		hdr.WriteByte(0)
	}

	var rest bytes.Buffer
	binary.Write(&rest, binary.LittleEndian, lp.Version)
	if lp.Version >= 5 {
		rest.WriteByte(8) // address_size
		rest.WriteByte(0) // segment_selector_size
	}
	writeOffset(&rest, uint64(hdr.Len()), lp.Dwarf64)
	rest.Write(hdr.Bytes())
	rest.Write(lp.prog.Bytes())

	var out bytes.Buffer
	if lp.Dwarf64 {
		binary.Write(&out, binary.LittleEndian, uint32(0xffffffff))
	}
	writeOffset(&out, uint64(rest.Len()), lp.Dwarf64)
	out.Write(rest.Bytes())
	return out.Bytes()
}

const (
	dwLnctPath           = 0x1
	dwLnctDirectoryIndex = 0x2
	dwFormString         = 0x08
	dwFormUdata          = 0x0f
	dwFormLineStrp       = 0x1f
)

func (lp *LineProgram) writeTables5(hdr, lineStr *bytes.Buffer) {
	strForm := uint64(dwFormString)
	if lp.UseLineStr {
		strForm = dwFormLineStrp
	}
	writeStr := func(s string) {
		if lp.UseLineStr {
			writeOffset(hdr, uint64(lineStr.Len()), lp.Dwarf64)
			lineStr.WriteString(s)
			lineStr.WriteByte(0)
			return
		}
		hdr.WriteString(s)
		hdr.WriteByte(0)
	}

	hdr.WriteByte(1) // directory_entry_format_count
	leb128.EncodeUnsigned(hdr, dwLnctPath)
	leb128.EncodeUnsigned(hdr, strForm)
	leb128.EncodeUnsigned(hdr, uint64(len(lp.IncludeDirs)))
	for _, dir := range lp.IncludeDirs {
		writeStr(dir)
	}

	hdr.WriteByte(2) // file_name_entry_format_count
	leb128.EncodeUnsigned(hdr, dwLnctPath)
	leb128.EncodeUnsigned(hdr, strForm)
	leb128.EncodeUnsigned(hdr, dwLnctDirectoryIndex)
	leb128.EncodeUnsigned(hdr, dwFormUdata)
	leb128.EncodeUnsigned(hdr, uint64(len(lp.Files)))
	for _, f := range lp.Files {
		writeStr(f.Name)
		leb128.EncodeUnsigned(hdr, f.Dir)
	}
}

func writeOffset(out *bytes.Buffer, v uint64, dwarf64 bool) {
	if dwarf64 {
		binary.Write(out, binary.LittleEndian, v)
		return
	}
	binary.Write(out, binary.LittleEndian, uint32(v))
}
