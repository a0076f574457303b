package godwarf

import (
	"bytes"
	"compress/zlib"
	"debug/dwarf"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-delve/dwarfindex/pkg/logflags"
	"github.com/go-delve/dwarfindex/pkg/symtypes"
)

// ErrNoDebugInfo is returned by Load when the object file has no
// .debug_info section.
var ErrNoDebugInfo = errors.New("could not find .debug_info section")

// Sections holds the raw contents of the DWARF sections of an object
// file. Sections that are not present are nil.
type Sections struct {
	Abbrev   []byte
	Aranges  []byte
	Frame    []byte
	Info     []byte
	Line     []byte
	Pubnames []byte
	Ranges   []byte
	Str      []byte

	// DWARFv5 sections
	Addr       []byte
	LineStr    []byte
	RngLists   []byte
	StrOffsets []byte

	Endianness symtypes.Endianness
}

// Data returns a debug/dwarf reader for s.
func (s *Sections) Data() (*dwarf.Data, error) {
	d, err := dwarf.New(s.Abbrev, s.Aranges, s.Frame, s.Info, s.Line, s.Pubnames, s.Ranges, s.Str)
	if err != nil {
		return nil, err
	}
	for _, sec := range []struct {
		name string
		data []byte
	}{
		{".debug_addr", s.Addr},
		{".debug_line_str", s.LineStr},
		{".debug_rnglists", s.RngLists},
		{".debug_str_offsets", s.StrOffsets},
	} {
		if sec.data == nil {
			continue
		}
		if err := d.AddSection(sec.name, sec.data); err != nil {
			return nil, fmt.Errorf("could not add %s: %w", sec.name, err)
		}
	}
	return d, nil
}

// Image is an object file loaded by Load.
type Image struct {
	Path     string
	Kind     symtypes.ObjectKind
	Arch     symtypes.Arch
	Sections *Sections

	// Relocatable is true for position independent executables and
	// shared libraries, whose addresses at runtime are offset from the
	// addresses in their debug info.
	Relocatable bool
}

// Load opens the ELF, Mach-O or PE file at path and reads its debug
// sections.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	logger := logflags.LoaderLogger()
	img := &Image{Path: path}

	var get func(name string) ([]byte, error)
	if ef, err := elf.NewFile(f); err == nil {
		img.Kind = symtypes.ObjectElf
		img.Relocatable = ef.Type == elf.ET_DYN
		img.Arch, err = symtypes.ArchFromElfMachine(ef.Machine)
		if err != nil {
			logger.Warnf("%s: %v", path, err)
		}
		img.Sections = &Sections{Endianness: symtypes.EndiannessOf(ef.ByteOrder)}
		get = func(name string) ([]byte, error) { return GetDebugSectionElf(ef, name) }
	} else if mf, err := macho.NewFile(f); err == nil {
		img.Kind = symtypes.ObjectMachO
		img.Relocatable = mf.Flags&macho.FlagPIE != 0 || mf.Type == macho.TypeDylib
		img.Arch, err = symtypes.ArchFromMachO(mf.Cpu, mf.SubCpu)
		if err != nil {
			logger.Warnf("%s: %v", path, err)
		}
		img.Sections = &Sections{Endianness: symtypes.EndiannessOf(mf.ByteOrder)}
		get = func(name string) ([]byte, error) { return GetDebugSectionMacho(mf, name) }
	} else if pf, err := pe.NewFile(f); err == nil {
		img.Kind = symtypes.ObjectPE
		img.Arch = archFromPE(pf.Machine)
		img.Sections = &Sections{Endianness: symtypes.Little}
		get = func(name string) ([]byte, error) { return GetDebugSectionPE(pf, name) }
	} else {
		return nil, fmt.Errorf("%s: unrecognized object file format", path)
	}

	s := img.Sections
	s.Info, err = get("info")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoDebugInfo)
	}
	for _, opt := range []struct {
		name string
		dst  *[]byte
	}{
		{"abbrev", &s.Abbrev},
		{"aranges", &s.Aranges},
		{"frame", &s.Frame},
		{"line", &s.Line},
		{"pubnames", &s.Pubnames},
		{"ranges", &s.Ranges},
		{"str", &s.Str},
		{"addr", &s.Addr},
		{"line_str", &s.LineStr},
		{"rnglists", &s.RngLists},
		{"str_offsets", &s.StrOffsets},
	} {
		*opt.dst, err = get(opt.name)
		if err != nil {
			logger.Debugf("%s: %v", path, err)
			*opt.dst = nil
		}
	}
	logger.Debugf("loaded %s: %v %v %v-endian, %d bytes of .debug_info", path, img.Kind, img.Arch, s.Endianness, len(s.Info))
	return img, nil
}

func archFromPE(machine uint16) symtypes.Arch {
	switch machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		return symtypes.ArchX86
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return symtypes.ArchX86_64
	case pe.IMAGE_FILE_MACHINE_ARMNT:
		return symtypes.ArchArmV7
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return symtypes.ArchArm64
	}
	return symtypes.ArchUnknown
}

// GetDebugSectionElf returns the data contents of the specified debug
// section, decompressing it if it is compressed.
// For example GetDebugSectionElf("line") will return the contents of
// .debug_line, if .debug_line doesn't exist it will try to return the
// decompressed contents of .zdebug_line.
func GetDebugSectionElf(f *elf.File, name string) ([]byte, error) {
	sec := f.Section(".debug_" + name)
	if sec != nil {
		return sec.Data()
	}
	sec = f.Section(".zdebug_" + name)
	if sec == nil {
		return nil, fmt.Errorf("could not find .debug_%s section", name)
	}
	b, err := sec.Data()
	if err != nil {
		return nil, err
	}
	return decompressMaybe(b)
}

// GetDebugSectionPE returns the data contents of the specified debug
// section, decompressing it if it is compressed.
func GetDebugSectionPE(f *pe.File, name string) ([]byte, error) {
	sec := f.Section(".debug_" + name)
	if sec != nil {
		return peSectionData(sec)
	}
	sec = f.Section(".zdebug_" + name)
	if sec == nil {
		return nil, fmt.Errorf("could not find .debug_%s section", name)
	}
	b, err := peSectionData(sec)
	if err != nil {
		return nil, err
	}
	return decompressMaybe(b)
}

func peSectionData(sec *pe.Section) ([]byte, error) {
	b, err := sec.Data()
	if err != nil {
		return nil, err
	}
	if 0 < sec.VirtualSize && sec.VirtualSize < sec.Size {
		b = b[:sec.VirtualSize]
	}
	return b, nil
}

// GetDebugSectionMacho returns the data contents of the specified debug
// section, decompressing it if it is compressed.
// Mach-O section names are truncated to 16 bytes, __debug_str_offsets is
// looked up as __debug_str_offs.
func GetDebugSectionMacho(f *macho.File, name string) ([]byte, error) {
	secname := "__debug_" + name
	if len(secname) > 16 {
		secname = secname[:16]
	}
	sec := f.Section(secname)
	if sec != nil {
		return sec.Data()
	}
	sec = f.Section("__zdebug_" + name)
	if sec == nil {
		return nil, fmt.Errorf("could not find .debug_%s section", name)
	}
	b, err := sec.Data()
	if err != nil {
		return nil, err
	}
	return decompressMaybe(b)
}

func decompressMaybe(b []byte) ([]byte, error) {
	if len(b) < 12 || string(b[:4]) != "ZLIB" {
		// not compressed
		return b, nil
	}

	dlen := binary.BigEndian.Uint64(b[4:12])
	dbuf := make([]byte, dlen)
	r, err := zlib.NewReader(bytes.NewBuffer(b[12:]))
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, dbuf); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return dbuf, nil
}
