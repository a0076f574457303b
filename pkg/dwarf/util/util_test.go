package util

import (
	"debug/dwarf"
	"encoding/binary"
	"errors"
	"testing"
)

func TestBufCString(t *testing.T) {
	b := MakeBuf("test", binary.LittleEndian, 0, []byte{'h', 'i', 0x0, 0xFF, 0xCC})
	str := b.CString()

	if str != "hi" {
		t.Fatalf("String was not parsed correctly %#v", str)
	}
	if b.Off() != 3 || b.Len() != 2 {
		t.Fatalf("wrong position after string: off %d len %d", b.Off(), b.Len())
	}
}

func TestBufByteOrder(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	le := MakeBuf("test", binary.LittleEndian, 0, data)
	if v := le.Uint32(); v != 0x04030201 {
		t.Fatalf("little endian: expected %#x got %#x", 0x04030201, v)
	}
	be := MakeBuf("test", binary.BigEndian, 0, data)
	if v := be.Uint32(); v != 0x01020304 {
		t.Fatalf("big endian: expected %#x got %#x", 0x01020304, v)
	}
	be = MakeBuf("test", binary.BigEndian, 0, data)
	if v := be.Uint24(); v != 0x010203 {
		t.Fatalf("big endian uint24: expected %#x got %#x", 0x010203, v)
	}
}

func TestBufLEB128(t *testing.T) {
	b := MakeBuf("test", binary.LittleEndian, 0, []byte{0xE5, 0x8E, 0x26, 0x9b, 0xf1, 0x59})
	if n := b.Uleb(); n != 624485 {
		t.Fatalf("expected 624485 got %d", n)
	}
	if n := b.Sleb(); n != -624485 {
		t.Fatalf("expected -624485 got %d", n)
	}
	if b.Err != nil {
		t.Fatal(b.Err)
	}
}

func TestBufUnderflowIsSticky(t *testing.T) {
	b := MakeBuf("line", binary.LittleEndian, 0x10, []byte{0x01, 0x02})
	if v := b.Uint32(); v != 0 {
		t.Fatalf("expected zero value on underflow, got %#x", v)
	}
	var de dwarf.DecodeError
	if !errors.As(b.Err, &de) {
		t.Fatalf("expected dwarf.DecodeError got %T %v", b.Err, b.Err)
	}
	if de.Name != "line" || de.Offset != 0x10 {
		t.Fatalf("wrong error location: %#v", de)
	}
	if v := b.Uint8(); v != 0 {
		t.Fatalf("read after error returned %#x", v)
	}
}

func TestBufUnitLength(t *testing.T) {
	b := MakeBuf("test", binary.LittleEndian, 0, []byte{0xff, 0xff, 0xff, 0xff, 0x10, 0, 0, 0, 0, 0, 0, 0})
	length, dwarf64 := b.UnitLength()
	if !dwarf64 || length != 0x10 {
		t.Fatalf("expected 64bit length 0x10, got %#x %v", length, dwarf64)
	}
}
