package line

import (
	"errors"
	"io"

	"github.com/go-delve/dwarfindex/pkg/dwarf/util"
)

// Row is a row of the line number matrix.
type Row struct {
	Address uint64
	// File is the unit-local file index, see DebugLineInfo.File.
	File        uint64
	Line        int
	IsStmt      bool
	EndSequence bool
}

// StateMachine executes a line number program.
type StateMachine struct {
	dbl           *DebugLineInfo
	file          uint64
	line          int
	address       uint64
	column        uint64
	isStmt        bool
	isa           uint64 // instruction set architecture register (DWARFv4)
	discriminator uint64
	basicBlock    bool
	endSeq        bool
	prologueEnd   bool
	epilogueBegin bool
	// valid is true if the current value of the state machine is the address of
	// an instruction (using the terminology used by DWARF spec the current
	// value of the state machine should be appended to the matrix representing
	// the compilation unit)
	valid bool

	buf     util.Buf // remaining instructions
	opcodes []opcodefn
	err     error
}

type opcodefn func(*StateMachine, *util.Buf)

// Standard opcodes
const (
	DW_LNS_copy             = 1
	DW_LNS_advance_pc       = 2
	DW_LNS_advance_line     = 3
	DW_LNS_set_file         = 4
	DW_LNS_set_column       = 5
	DW_LNS_negate_stmt      = 6
	DW_LNS_set_basic_block  = 7
	DW_LNS_const_add_pc     = 8
	DW_LNS_fixed_advance_pc = 9
	DW_LNS_prologue_end     = 10
	DW_LNS_epilogue_begin   = 11
	DW_LNS_set_isa          = 12
)

// Extended opcodes
const (
	DW_LINE_end_sequence      = 1
	DW_LINE_set_address       = 2
	DW_LINE_define_file       = 3
	DW_LINE_set_discriminator = 4
)

var standardopcodes = map[byte]opcodefn{
	DW_LNS_copy:             copyfn,
	DW_LNS_advance_pc:       advancepc,
	DW_LNS_advance_line:     advanceline,
	DW_LNS_set_file:         setfile,
	DW_LNS_set_column:       setcolumn,
	DW_LNS_negate_stmt:      negatestmt,
	DW_LNS_set_basic_block:  setbasicblock,
	DW_LNS_const_add_pc:     constaddpc,
	DW_LNS_fixed_advance_pc: fixedadvancepc,
	DW_LNS_prologue_end:     prologueend,
	DW_LNS_epilogue_begin:   epiloguebegin,
	DW_LNS_set_isa:          setisa,
}

var extendedopcodes = map[byte]opcodefn{
	DW_LINE_end_sequence:      endsequence,
	DW_LINE_set_address:       setaddress,
	DW_LINE_define_file:       definefile,
	DW_LINE_set_discriminator: setdiscriminator,
}

func newStateMachine(dbl *DebugLineInfo) *StateMachine {
	opcodes := make([]opcodefn, len(standardopcodes)+1)
	opcodes[0] = execExtendedOpcode
	for op := range standardopcodes {
		opcodes[op] = standardopcodes[op]
	}
	dbl.definedFiles = dbl.definedFiles[:0]
	sm := &StateMachine{
		dbl:     dbl,
		buf:     util.MakeBuf("line", dbl.buf.Order(), dbl.Offset, dbl.Instructions),
		opcodes: opcodes,
	}
	sm.resetRegisters()
	return sm
}

func (sm *StateMachine) resetRegisters() {
	sm.address = 0
	sm.file = 1
	sm.line = 1
	sm.column = 0
	sm.isStmt = sm.dbl.Prologue.InitialIsStmt == uint8(1)
	sm.isa = 0
	sm.discriminator = 0
	sm.basicBlock = false
	sm.endSeq = false
	sm.prologueEnd = false
	sm.epilogueBegin = false
}

// Run executes the line number program from the start and calls fn for
// every row it emits, in program order.
// Running the program again discards the files defined by the previous
// run with DW_LNE_define_file.
func (lineInfo *DebugLineInfo) Run(fn func(Row)) error {
	if lineInfo == nil {
		return errors.New("no line table")
	}
	sm := newStateMachine(lineInfo)
	for {
		err := sm.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if sm.valid {
			fn(sm.row())
		}
	}
}

func (sm *StateMachine) row() Row {
	return Row{Address: sm.address, File: sm.file, Line: sm.line, IsStmt: sm.isStmt, EndSequence: sm.endSeq}
}

func (sm *StateMachine) next() error {
	if sm.valid {
		// valid is set by either a special opcode or a DW_LNS_copy, in both cases
		// we need to reset basic_block, prologue_end, epilogue_begin and
		// discriminator
		sm.basicBlock = false
		sm.prologueEnd = false
		sm.epilogueBegin = false
		sm.discriminator = 0
	}
	if sm.endSeq {
		sm.resetRegisters()
	}
	sm.valid = false
	if sm.buf.Len() == 0 {
		return io.EOF
	}
	b := sm.buf.Uint8()
	if b < sm.dbl.Prologue.OpcodeBase {
		if int(b) < len(sm.opcodes) {
			sm.opcodes[b](sm, &sm.buf)
		} else {
			// unimplemented standard opcode, read the number of arguments specified
			// in the prologue and do nothing with them
			opnum := sm.dbl.Prologue.StdOpLengths[b-1]
			for i := 0; i < int(opnum); i++ {
				sm.buf.Uleb()
			}
			sm.dbl.Logf("unknown opcode %d(0x%x), %d arguments, file %d, line %d, address 0x%x", b, b, opnum, sm.file, sm.line, sm.address)
		}
	} else {
		execSpecialOpcode(sm, b)
	}
	if sm.err != nil {
		return sm.err
	}
	return sm.buf.Err
}

func execSpecialOpcode(sm *StateMachine, instr byte) {
	var (
		opcode  = uint8(instr)
		decoded = opcode - sm.dbl.Prologue.OpcodeBase
	)

	sm.line += int(sm.dbl.Prologue.LineBase) + int(decoded%sm.dbl.Prologue.LineRange)
	sm.address += uint64(decoded/sm.dbl.Prologue.LineRange) * uint64(sm.dbl.Prologue.MinInstrLength)
	sm.valid = true
}

func execExtendedOpcode(sm *StateMachine, buf *util.Buf) {
	length := buf.Uleb()
	if buf.Err != nil {
		return
	}
	if length > uint64(buf.Len()) {
		buf.Errorf("extended opcode length %d exceeds program size", length)
		return
	}
	if length == 0 {
		return
	}
	ext := buf.Slice(int(length))
	b := ext.Uint8()
	if fn, ok := extendedopcodes[b]; ok {
		fn(sm, &ext)
	} else {
		sm.dbl.Logf("unknown extended opcode %#x at %#x", b, ext.Off()-1)
	}
	if ext.Err != nil {
		sm.err = ext.Err
	}
}

func copyfn(sm *StateMachine, buf *util.Buf) {
	sm.valid = true
}

func advancepc(sm *StateMachine, buf *util.Buf) {
	addr := buf.Uleb()
	sm.address += addr * uint64(sm.dbl.Prologue.MinInstrLength)
}

func advanceline(sm *StateMachine, buf *util.Buf) {
	line := buf.Sleb()
	sm.line += int(line)
}

func setfile(sm *StateMachine, buf *util.Buf) {
	sm.file = buf.Uleb()
}

func setcolumn(sm *StateMachine, buf *util.Buf) {
	sm.column = buf.Uleb()
}

func negatestmt(sm *StateMachine, buf *util.Buf) {
	sm.isStmt = !sm.isStmt
}

func setbasicblock(sm *StateMachine, buf *util.Buf) {
	sm.basicBlock = true
}

func constaddpc(sm *StateMachine, buf *util.Buf) {
	sm.address += uint64((255-sm.dbl.Prologue.OpcodeBase)/sm.dbl.Prologue.LineRange) * uint64(sm.dbl.Prologue.MinInstrLength)
}

func fixedadvancepc(sm *StateMachine, buf *util.Buf) {
	sm.address += uint64(buf.Uint16())
}

func prologueend(sm *StateMachine, buf *util.Buf) {
	sm.prologueEnd = true
}

func epiloguebegin(sm *StateMachine, buf *util.Buf) {
	sm.epilogueBegin = true
}

func setisa(sm *StateMachine, buf *util.Buf) {
	sm.isa = buf.Uleb()
}

func endsequence(sm *StateMachine, buf *util.Buf) {
	sm.endSeq = true
	sm.valid = true
}

func setaddress(sm *StateMachine, buf *util.Buf) {
	// The operand fills the rest of the instruction, its size is the
	// target's address size.
	n := buf.Len()
	switch n {
	case 1, 2, 4, 8:
		sm.address = buf.UintN(n)
	default:
		buf.Errorf("unsupported address size %d in DW_LNE_set_address", n)
	}
}

func definefile(sm *StateMachine, buf *util.Buf) {
	entry := readFileEntry(sm.dbl, buf, false)
	if entry != nil {
		sm.dbl.definedFiles = append(sm.dbl.definedFiles, entry)
	}
}

func setdiscriminator(sm *StateMachine, buf *util.Buf) {
	sm.discriminator = buf.Uleb()
}
