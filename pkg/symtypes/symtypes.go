// Package symtypes contains the value types shared by the debug
// information loader and the symbol index: byte order, CPU architecture,
// source language and object file kind.
package symtypes

import (
	"debug/elf"
	"debug/macho"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownArch is returned when a value does not name a supported
	// architecture.
	ErrUnknownArch = errors.New("unknown architecture")
	// ErrUnknownLanguage is returned when a value does not name a
	// supported language.
	ErrUnknownLanguage = errors.New("unknown language")
)

// Endianness is the byte order of the target.
type Endianness uint8

const (
	Little Endianness = iota
	Big
)

// ByteOrder returns the encoding/binary byte order for e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endianness) String() string {
	if e == Big {
		return "big"
	}
	return "little"
}

// EndiannessOf returns the Endianness corresponding to order.
func EndiannessOf(order binary.ByteOrder) Endianness {
	if order == binary.BigEndian {
		return Big
	}
	return Little
}

// CpuFamily is a family of CPUs.
type CpuFamily uint8

const (
	CpuFamilyUnknown CpuFamily = iota
	CpuFamilyIntel32
	CpuFamilyIntel64
	CpuFamilyArm32
	CpuFamilyArm64
)

func (f CpuFamily) String() string {
	switch f {
	case CpuFamilyIntel32:
		return "intel32"
	case CpuFamilyIntel64:
		return "intel64"
	case CpuFamilyArm32:
		return "arm32"
	case CpuFamilyArm64:
		return "arm64"
	}
	return "unknown"
}

// Arch is a CPU architecture. The numeric values are stable and can be
// stored, use ArchFromUint32 to convert them back.
type Arch uint32

const (
	ArchUnknown Arch = iota
	ArchX86
	ArchX86_64
	ArchArmV5
	ArchArmV6
	ArchArmV7
	ArchArmV7f
	ArchArmV7s
	ArchArmV7k
	ArchArmV7m
	ArchArmV7em
	ArchArm64
	archMax
)

var archNames = [...]string{
	ArchUnknown: "unknown",
	ArchX86:     "x86",
	ArchX86_64:  "x86_64",
	ArchArmV5:   "armv5",
	ArchArmV6:   "armv6",
	ArchArmV7:   "armv7",
	ArchArmV7f:  "armv7f",
	ArchArmV7s:  "armv7s",
	ArchArmV7k:  "armv7k",
	ArchArmV7m:  "armv7m",
	ArchArmV7em: "armv7em",
	ArchArm64:   "arm64",
}

// ArchFromUint32 converts the numeric encoding of an architecture back to
// an Arch.
func ArchFromUint32(v uint32) (Arch, error) {
	if v >= uint32(archMax) {
		return ArchUnknown, fmt.Errorf("%w: %d", ErrUnknownArch, v)
	}
	return Arch(v), nil
}

// ParseArch parses the name of an architecture, as returned by String.
// The name "unknown" is not accepted.
func ParseArch(s string) (Arch, error) {
	for i := ArchX86; i < archMax; i++ {
		if archNames[i] == s {
			return i, nil
		}
	}
	return ArchUnknown, fmt.Errorf("%w: %q", ErrUnknownArch, s)
}

// ArchFromElfMachine returns the architecture for the e_machine field of
// an ELF header. All 32bit ARM binaries are reported as armv7, the exact
// version is only recorded in the .ARM.attributes section.
func ArchFromElfMachine(m elf.Machine) (Arch, error) {
	switch m {
	case elf.EM_386:
		return ArchX86, nil
	case elf.EM_X86_64:
		return ArchX86_64, nil
	case elf.EM_ARM:
		return ArchArmV7, nil
	case elf.EM_AARCH64:
		return ArchArm64, nil
	}
	return ArchUnknown, fmt.Errorf("%w: ELF machine %v", ErrUnknownArch, m)
}

// Mach-O ARM CPU subtypes.
const (
	cpuSubtypeArmV5tej = 7
	cpuSubtypeArmV6    = 6
	cpuSubtypeArmV7    = 9
	cpuSubtypeArmV7f   = 10
	cpuSubtypeArmV7s   = 11
	cpuSubtypeArmV7k   = 12
	cpuSubtypeArmV7m   = 15
	cpuSubtypeArmV7em  = 16

	cpuSubtypeMask = 0x00ffffff
)

// ArchFromMachO returns the architecture for a Mach-O CPU type and
// subtype pair.
func ArchFromMachO(cputype macho.Cpu, cpusubtype uint32) (Arch, error) {
	switch cputype {
	case macho.Cpu386:
		return ArchX86, nil
	case macho.CpuAmd64:
		return ArchX86_64, nil
	case macho.CpuArm64:
		return ArchArm64, nil
	case macho.CpuArm:
		switch cpusubtype & cpuSubtypeMask {
		case cpuSubtypeArmV5tej:
			return ArchArmV5, nil
		case cpuSubtypeArmV6:
			return ArchArmV6, nil
		case cpuSubtypeArmV7:
			return ArchArmV7, nil
		case cpuSubtypeArmV7f:
			return ArchArmV7f, nil
		case cpuSubtypeArmV7s:
			return ArchArmV7s, nil
		case cpuSubtypeArmV7k:
			return ArchArmV7k, nil
		case cpuSubtypeArmV7m:
			return ArchArmV7m, nil
		case cpuSubtypeArmV7em:
			return ArchArmV7em, nil
		}
	}
	return ArchUnknown, fmt.Errorf("%w: Mach-O cpu %v subtype %#x", ErrUnknownArch, cputype, cpusubtype)
}

func (a Arch) String() string {
	if a >= archMax {
		return archNames[ArchUnknown]
	}
	return archNames[a]
}

// CpuFamily returns the CPU family of a.
func (a Arch) CpuFamily() CpuFamily {
	switch a {
	case ArchX86:
		return CpuFamilyIntel32
	case ArchX86_64:
		return CpuFamilyIntel64
	case ArchArm64:
		return CpuFamilyArm64
	case ArchArmV5, ArchArmV6, ArchArmV7, ArchArmV7f, ArchArmV7s, ArchArmV7k, ArchArmV7m, ArchArmV7em:
		return CpuFamilyArm32
	}
	return CpuFamilyUnknown
}

// PointerSize returns the size of a native pointer in bytes, or 0 if a is
// unknown.
func (a Arch) PointerSize() int {
	switch a.CpuFamily() {
	case CpuFamilyIntel64, CpuFamilyArm64:
		return 8
	case CpuFamilyIntel32, CpuFamilyArm32:
		return 4
	}
	return 0
}

// Language is the source language of a compile unit, it selects the
// demangling rules for its function names.
type Language uint32

const (
	LanguageUnknown Language = iota
	LanguageC
	LanguageCpp
	LanguageD
	LanguageGo
	LanguageObjC
	LanguageObjCpp
	LanguageRust
	LanguageSwift
	languageMax
)

var languageNames = [...]string{
	LanguageUnknown: "unknown",
	LanguageC:       "C",
	LanguageCpp:     "C++",
	LanguageD:       "D",
	LanguageGo:      "Go",
	LanguageObjC:    "Objective-C",
	LanguageObjCpp:  "Objective-C++",
	LanguageRust:    "Rust",
	LanguageSwift:   "Swift",
}

// LanguageFromUint32 converts the numeric encoding of a language back to
// a Language.
func LanguageFromUint32(v uint32) (Language, error) {
	if v >= uint32(languageMax) {
		return LanguageUnknown, fmt.Errorf("%w: %d", ErrUnknownLanguage, v)
	}
	return Language(v), nil
}

// DWARF language codes (DW_LANG_*).
const (
	dwLangC89          = 0x0001
	dwLangC            = 0x0002
	dwLangCPlusPlus    = 0x0004
	dwLangC99          = 0x000c
	dwLangObjC         = 0x0010
	dwLangObjCPlusPlus = 0x0011
	dwLangD            = 0x0013
	dwLangGo           = 0x0016
	dwLangCPlusPlus03  = 0x0019
	dwLangCPlusPlus11  = 0x001a
	dwLangRust         = 0x001c
	dwLangC11          = 0x001d
	dwLangSwift        = 0x001e
	dwLangCPlusPlus14  = 0x0021
)

// LanguageFromDwarf converts the value of a DW_AT_language attribute.
// The second return value is false for languages without demangling
// support.
func LanguageFromDwarf(code int64) (Language, bool) {
	switch code {
	case dwLangC, dwLangC89, dwLangC99, dwLangC11:
		return LanguageC, true
	case dwLangCPlusPlus, dwLangCPlusPlus03, dwLangCPlusPlus11, dwLangCPlusPlus14:
		return LanguageCpp, true
	case dwLangD:
		return LanguageD, true
	case dwLangGo:
		return LanguageGo, true
	case dwLangObjC:
		return LanguageObjC, true
	case dwLangObjCPlusPlus:
		return LanguageObjCpp, true
	case dwLangRust:
		return LanguageRust, true
	case dwLangSwift:
		return LanguageSwift, true
	}
	return LanguageUnknown, false
}

func (l Language) String() string {
	if l >= languageMax {
		return languageNames[LanguageUnknown]
	}
	return languageNames[l]
}

// ObjectKind is the container format of an object file.
type ObjectKind uint8

const (
	ObjectMachO ObjectKind = iota
	ObjectElf
	ObjectPE
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectMachO:
		return "MachO"
	case ObjectElf:
		return "ELF"
	case ObjectPE:
		return "PE"
	}
	return fmt.Sprintf("ObjectKind(%d)", uint8(k))
}
