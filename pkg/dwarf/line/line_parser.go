package line

import (
	"bytes"
	"debug/dwarf"
	"fmt"
	"strings"

	"github.com/go-delve/dwarfindex/pkg/dwarf/util"
)

// DebugLinePrologue prologue of .debug_line data.
type DebugLinePrologue struct {
	UnitLength     uint64
	Dwarf64        bool
	Version        uint16
	AddrSize       uint8 // DWARFv5 only
	SegSelSize     uint8 // DWARFv5 only
	Length         uint64
	MinInstrLength uint8
	MaxOpPerInstr  uint8
	InitialIsStmt  uint8
	LineBase       int8
	LineRange      uint8
	OpcodeBase     uint8
	StdOpLengths   []uint8
}

// DebugLineInfo info of .debug_line data.
type DebugLineInfo struct {
	Prologue    *DebugLinePrologue
	IncludeDirs []string
	FileNames   []*FileEntry

	// Instructions is the line number program, Offset is the offset of its
	// first byte inside .debug_line.
	Instructions []byte
	Offset       dwarf.Offset

	Logf func(string, ...interface{})

	// hasCompDir is true if IncludeDirs[0] was taken from DW_AT_comp_dir
	// (DWARF version 4 and earlier only).
	hasCompDir bool

	// definedFiles are the files defined by DW_LNE_define_file during the
	// last execution of the line number program.
	definedFiles []*FileEntry

	strs StringSections
	buf  util.Buf

	// if normalizeBackslash is true all backslashes (\) will be converted into forward slashes (/)
	normalizeBackslash bool
}

// FileEntry file entry in File Name Table.
type FileEntry struct {
	// Path is the file name as it appears in the file table, it is not
	// joined with its include directory.
	Path        string
	DirIdx      uint64
	LastModTime uint64
	Length      uint64
}

// StringSections are the string sections that DWARFv5 file tables can
// reference.
type StringSections struct {
	LineStr []byte // .debug_line_str
	Str     []byte // .debug_str
}

// Parse parses a single debug_line unit header from buf, leaving buf
// positioned at the start of the next unit. Compdir is the
// DW_AT_comp_dir attribute of the associated compile unit, the empty
// string if the unit does not have one.
func Parse(compdir string, buf *util.Buf, strs StringSections, logfn func(string, ...interface{}), normalizeBackslash bool) (*DebugLineInfo, error) {
	dbl := new(DebugLineInfo)
	dbl.Logf = logfn
	if logfn == nil {
		dbl.Logf = func(string, ...interface{}) {}
	}
	dbl.strs = strs
	dbl.normalizeBackslash = normalizeBackslash

	start := buf.Off()
	unitLength, dwarf64 := buf.UnitLength()
	if buf.Err != nil {
		return nil, buf.Err
	}
	if unitLength > uint64(buf.Len()) {
		return nil, dwarf.DecodeError{Name: "line", Offset: start, Err: fmt.Sprintf("unit length %#x exceeds section size", unitLength)}
	}
	unit := buf.Slice(int(unitLength))
	dbl.buf = unit

	tablesLen, err := parseDebugLinePrologue(dbl, &dbl.buf, unitLength, dwarf64)
	if err != nil {
		return nil, err
	}

	if dbl.Prologue.Version < 5 {
		dbl.hasCompDir = compdir != ""
		dbl.IncludeDirs = append(dbl.IncludeDirs, dbl.normalize(compdir))
	}

	// The program starts header_length bytes after the header_length field,
	// whatever the header tables contain.
	header := dbl.buf.Slice(int(tablesLen))
	if header.Err != nil {
		return nil, header.Err
	}
	dbl.Instructions = dbl.buf.Rest()
	dbl.Offset = dbl.buf.Off()

	if dbl.Prologue.Version >= 5 {
		if err = parseIncludeDirs5(dbl, &header); err == nil {
			err = parseFileEntries5(dbl, &header)
		}
	} else {
		if err = parseIncludeDirs2(dbl, &header); err == nil {
			err = parseFileEntries2(dbl, &header)
		}
	}
	if err != nil {
		return nil, err
	}

	return dbl, nil
}

// parseDebugLinePrologue parses the fixed part of the header and returns
// the size of the directory and file tables that follow it.
func parseDebugLinePrologue(dbl *DebugLineInfo, buf *util.Buf, unitLength uint64, dwarf64 bool) (uint64, error) {
	p := new(DebugLinePrologue)

	p.UnitLength = unitLength
	p.Dwarf64 = dwarf64
	p.Version = buf.Uint16()
	if buf.Err == nil && (p.Version < 2 || p.Version > 5) {
		return 0, dwarf.DecodeError{Name: "line", Offset: buf.Off() - 2, Err: fmt.Sprintf("unsupported line table version %d", p.Version)}
	}
	if p.Version >= 5 {
		p.AddrSize = buf.Uint8()
		p.SegSelSize = buf.Uint8()
	}

	p.Length = buf.Offset(dwarf64)
	hdrStart := buf.Off()
	p.MinInstrLength = buf.Uint8()
	if p.Version >= 4 {
		p.MaxOpPerInstr = buf.Uint8()
	} else {
		p.MaxOpPerInstr = 1
	}
	p.InitialIsStmt = buf.Uint8()
	p.LineBase = int8(buf.Uint8())
	p.LineRange = uint8(buf.Uint8())
	p.OpcodeBase = uint8(buf.Uint8())
	if buf.Err != nil {
		return 0, buf.Err
	}
	if p.LineRange == 0 {
		return 0, dwarf.DecodeError{Name: "line", Offset: buf.Off(), Err: "line range is zero"}
	}
	if p.OpcodeBase == 0 {
		return 0, dwarf.DecodeError{Name: "line", Offset: buf.Off(), Err: "opcode base is zero"}
	}
	p.StdOpLengths = append([]uint8(nil), buf.Bytes(int(p.OpcodeBase-1))...)
	if buf.Err != nil {
		return 0, buf.Err
	}

	dbl.Prologue = p

	consumed := uint64(buf.Off() - hdrStart)
	if consumed > p.Length {
		return 0, dwarf.DecodeError{Name: "line", Offset: hdrStart, Err: fmt.Sprintf("header length %#x too short", p.Length)}
	}
	return p.Length - consumed, nil
}

// parseIncludeDirs2 parses the directory table for DWARF version 2 through 4.
func parseIncludeDirs2(info *DebugLineInfo, buf *util.Buf) error {
	for {
		str := buf.CString()
		if buf.Err != nil {
			info.Logf("error reading string: %v", buf.Err)
			return buf.Err
		}
		if str == "" {
			break
		}

		info.IncludeDirs = append(info.IncludeDirs, info.normalize(str))
	}
	return nil
}

// parseIncludeDirs5 parses the directory table for DWARF version 5.
func parseIncludeDirs5(info *DebugLineInfo, buf *util.Buf) error {
	dirEntryFormReader := readEntryFormat(buf, info)
	if dirEntryFormReader == nil {
		return buf.Err
	}
	dirCount := buf.Uleb()
	if buf.Err != nil {
		return buf.Err
	}
	if dirCount > uint64(buf.Len()) {
		return dwarf.DecodeError{Name: "line", Offset: buf.Off(), Err: fmt.Sprintf("directory count %d exceeds header size", dirCount)}
	}
	info.IncludeDirs = make([]string, 0, dirCount)
	for i := uint64(0); i < dirCount; i++ {
		dirEntryFormReader.reset()
		dir := ""
		for dirEntryFormReader.next(buf) {
			switch dirEntryFormReader.contentType {
			case _DW_LNCT_path:
				dir = dirEntryFormReader.string()
			case _DW_LNCT_directory_index:
			case _DW_LNCT_timestamp:
			case _DW_LNCT_size:
			case _DW_LNCT_MD5:
			}
		}
		if dirEntryFormReader.err != nil {
			info.Logf("error reading directory entries table: %v", dirEntryFormReader.err)
			return dirEntryFormReader.err
		}
		info.IncludeDirs = append(info.IncludeDirs, info.normalize(dir))
	}
	return nil
}

// parseFileEntries2 parses the file table for DWARF 2 through 4
func parseFileEntries2(info *DebugLineInfo, buf *util.Buf) error {
	for {
		entry := readFileEntry(info, buf, true)
		if entry == nil {
			return buf.Err
		}
		if entry.Path == "" {
			break
		}

		info.FileNames = append(info.FileNames, entry)
	}
	return nil
}

func readFileEntry(info *DebugLineInfo, buf *util.Buf, exitOnEmptyPath bool) *FileEntry {
	entry := new(FileEntry)

	entry.Path = buf.CString()
	if buf.Err != nil {
		info.Logf("error reading file entry: %v", buf.Err)
		return nil
	}
	if entry.Path == "" && exitOnEmptyPath {
		return entry
	}

	entry.Path = info.normalize(entry.Path)
	entry.DirIdx = buf.Uleb()
	entry.LastModTime = buf.Uleb()
	entry.Length = buf.Uleb()
	if buf.Err != nil {
		info.Logf("error reading file entry: %v", buf.Err)
		return nil
	}

	return entry
}

// parseFileEntries5 parses the file table for DWARF 5
func parseFileEntries5(info *DebugLineInfo, buf *util.Buf) error {
	fileEntryFormReader := readEntryFormat(buf, info)
	if fileEntryFormReader == nil {
		return buf.Err
	}
	fileCount := buf.Uleb()
	if buf.Err != nil {
		return buf.Err
	}
	if fileCount > uint64(buf.Len()) {
		return dwarf.DecodeError{Name: "line", Offset: buf.Off(), Err: fmt.Sprintf("file count %d exceeds header size", fileCount)}
	}
	info.FileNames = make([]*FileEntry, 0, fileCount)
	for i := uint64(0); i < fileCount; i++ {
		entry := new(FileEntry)

		fileEntryFormReader.reset()

		for fileEntryFormReader.next(buf) {
			switch fileEntryFormReader.contentType {
			case _DW_LNCT_path:
				entry.Path = info.normalize(fileEntryFormReader.string())
			case _DW_LNCT_directory_index:
				entry.DirIdx = fileEntryFormReader.u64
			case _DW_LNCT_timestamp:
				entry.LastModTime = fileEntryFormReader.u64
			case _DW_LNCT_size:
				entry.Length = fileEntryFormReader.u64
			case _DW_LNCT_MD5:
				// not implemented
			}
		}
		if fileEntryFormReader.err != nil {
			info.Logf("error reading file entries table: %v", fileEntryFormReader.err)
			return fileEntryFormReader.err
		}

		info.FileNames = append(info.FileNames, entry)
	}
	return nil
}

func (info *DebugLineInfo) normalize(p string) string {
	if info.normalizeBackslash {
		return strings.ReplaceAll(p, "\\", "/")
	}
	return p
}

// File returns the entry of the file table for the unit-local file index
// idx, as used by DW_LNS_set_file and DW_AT_call_file, or nil if there is
// no such entry.
// Before DWARFv5 file indices are 1-based, files defined by
// DW_LNE_define_file follow the header's table.
func (info *DebugLineInfo) File(idx uint64) *FileEntry {
	if info == nil {
		return nil
	}
	if info.Prologue.Version < 5 {
		if idx == 0 {
			return nil
		}
		idx--
	}
	if idx < uint64(len(info.FileNames)) {
		return info.FileNames[idx]
	}
	idx -= uint64(len(info.FileNames))
	if idx < uint64(len(info.definedFiles)) {
		return info.definedFiles[idx]
	}
	return nil
}

// Dir returns the include directory with index idx. The second return
// value is false if the directory does not exist, this includes
// directory 0 of DWARFv4 and earlier units without DW_AT_comp_dir.
func (info *DebugLineInfo) Dir(idx uint64) (string, bool) {
	if info == nil || idx >= uint64(len(info.IncludeDirs)) {
		return "", false
	}
	if idx == 0 && info.Prologue.Version < 5 && !info.hasCompDir {
		return "", false
	}
	return info.IncludeDirs[idx], true
}

// readCString returns the NUL terminated string at offset off of sec.
func readCString(sec []byte, off uint64) (string, bool) {
	if off >= uint64(len(sec)) {
		return "", false
	}
	s := sec[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		return string(s[:i]), true
	}
	return "", false
}
