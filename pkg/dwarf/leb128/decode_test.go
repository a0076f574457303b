package leb128

import (
	"bytes"
	"io"
	"testing"
)

func TestDecodeUnsigned(t *testing.T) {
	leb128 := bytes.NewBuffer([]byte{0xE5, 0x8E, 0x26})

	n, c, err := DecodeUnsigned(leb128)
	if err != nil {
		t.Fatal(err)
	}
	if n != 624485 {
		t.Fatal("Number was not decoded properly, got: ", n, c)
	}

	if c != 3 {
		t.Fatal("Count not returned correctly")
	}
}

func TestDecodeSigned(t *testing.T) {
	sleb128 := bytes.NewBuffer([]byte{0x9b, 0xf1, 0x59})

	n, c, err := DecodeSigned(sleb128)
	if err != nil {
		t.Fatal(err)
	}
	if n != -624485 {
		t.Fatal("Number was not decoded properly, got: ", n, c)
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, _, err := DecodeUnsigned(bytes.NewBuffer([]byte{0x80, 0x80})); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF got %v", err)
	}
	if _, _, err := DecodeSigned(bytes.NewBuffer(nil)); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF got %v", err)
	}
}

func TestDecodeUnsignedOverflow(t *testing.T) {
	b := bytes.Repeat([]byte{0xff}, 10)
	b = append(b, 0x01)
	if _, _, err := DecodeUnsigned(bytes.NewBuffer(b)); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow got %v", err)
	}
}
