package symtypes

import (
	"debug/elf"
	"debug/macho"
	"encoding/binary"
	"errors"
	"testing"
)

func TestArchRoundTrip(t *testing.T) {
	for a := ArchX86; a < archMax; a++ {
		parsed, err := ParseArch(a.String())
		if err != nil {
			t.Fatalf("ParseArch(%q): %v", a.String(), err)
		}
		if parsed != a {
			t.Fatalf("expected %v got %v", a, parsed)
		}
		conv, err := ArchFromUint32(uint32(a))
		if err != nil || conv != a {
			t.Fatalf("ArchFromUint32(%d): expected %v got %v (%v)", uint32(a), a, conv, err)
		}
	}
	if _, err := ParseArch("unknown"); !errors.Is(err, ErrUnknownArch) {
		t.Fatalf("expected ErrUnknownArch got %v", err)
	}
	if _, err := ArchFromUint32(uint32(archMax)); !errors.Is(err, ErrUnknownArch) {
		t.Fatalf("expected ErrUnknownArch got %v", err)
	}
}

func TestArchProperties(t *testing.T) {
	tests := []struct {
		arch   Arch
		family CpuFamily
		ptrsz  int
	}{
		{ArchUnknown, CpuFamilyUnknown, 0},
		{ArchX86, CpuFamilyIntel32, 4},
		{ArchX86_64, CpuFamilyIntel64, 8},
		{ArchArmV7s, CpuFamilyArm32, 4},
		{ArchArm64, CpuFamilyArm64, 8},
	}
	for _, tc := range tests {
		if got := tc.arch.CpuFamily(); got != tc.family {
			t.Errorf("%v: expected family %v got %v", tc.arch, tc.family, got)
		}
		if got := tc.arch.PointerSize(); got != tc.ptrsz {
			t.Errorf("%v: expected pointer size %d got %d", tc.arch, tc.ptrsz, got)
		}
	}
}

func TestArchFromObjectHeaders(t *testing.T) {
	if a, err := ArchFromElfMachine(elf.EM_X86_64); err != nil || a != ArchX86_64 {
		t.Fatalf("expected x86_64 got %v (%v)", a, err)
	}
	if a, err := ArchFromElfMachine(elf.EM_ARM); err != nil || a != ArchArmV7 {
		t.Fatalf("expected armv7 got %v (%v)", a, err)
	}
	if _, err := ArchFromElfMachine(elf.EM_MIPS); !errors.Is(err, ErrUnknownArch) {
		t.Fatalf("expected ErrUnknownArch got %v", err)
	}
	if a, err := ArchFromMachO(macho.CpuArm, cpuSubtypeArmV7k); err != nil || a != ArchArmV7k {
		t.Fatalf("expected armv7k got %v (%v)", a, err)
	}
	if a, err := ArchFromMachO(macho.CpuArm64, 0x80000002); err != nil || a != ArchArm64 {
		t.Fatalf("expected arm64 got %v (%v)", a, err)
	}
	if _, err := ArchFromMachO(macho.CpuArm, 1); !errors.Is(err, ErrUnknownArch) {
		t.Fatalf("expected ErrUnknownArch got %v", err)
	}
}

func TestLanguage(t *testing.T) {
	names := map[Language]string{
		LanguageUnknown: "unknown",
		LanguageCpp:     "C++",
		LanguageObjCpp:  "Objective-C++",
		LanguageSwift:   "Swift",
	}
	for l, name := range names {
		if l.String() != name {
			t.Errorf("expected %q got %q", name, l.String())
		}
	}
	if _, err := LanguageFromUint32(uint32(languageMax)); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage got %v", err)
	}
	if l, ok := LanguageFromDwarf(dwLangCPlusPlus11); !ok || l != LanguageCpp {
		t.Fatalf("expected C++ got %v", l)
	}
	if l, ok := LanguageFromDwarf(dwLangGo); !ok || l != LanguageGo {
		t.Fatalf("expected Go got %v", l)
	}
	if _, ok := LanguageFromDwarf(0x8001); ok {
		t.Fatal("vendor language code accepted")
	}
}

func TestEndianness(t *testing.T) {
	if Big.ByteOrder() != binary.BigEndian || Little.ByteOrder() != binary.LittleEndian {
		t.Fatal("wrong byte order")
	}
	if EndiannessOf(binary.BigEndian) != Big {
		t.Fatal("wrong endianness")
	}
}
