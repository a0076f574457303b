// Copyright 2009 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Buffered reading and decoding of DWARF data streams.

package util

import (
	"bytes"
	"debug/dwarf"
	"encoding/binary"
	"fmt"

	"github.com/go-delve/dwarfindex/pkg/dwarf/leb128"
)

// Buf is a buffer of DWARF data being decoded.
// The first decoding failure is recorded in Err, after that every read
// returns a zero value.
type Buf struct {
	order binary.ByteOrder
	name  string
	off   dwarf.Offset
	data  []byte
	Err   error
}

// MakeBuf returns a Buf reading data, which starts at offset off of
// section name.
func MakeBuf(name string, order binary.ByteOrder, off dwarf.Offset, data []byte) Buf {
	return Buf{order: order, name: name, off: off, data: data}
}

// Len returns the number of unread bytes.
func (b *Buf) Len() int {
	return len(b.data)
}

// Off returns the section offset of the next unread byte.
func (b *Buf) Off() dwarf.Offset {
	return b.off
}

// Order returns the byte order used to decode multi-byte values.
func (b *Buf) Order() binary.ByteOrder {
	return b.order
}

// Slice returns a Buf for the next length bytes and advances b past them.
func (b *Buf) Slice(length int) Buf {
	n := *b
	data := b.data
	b.Skip(length) // Will validate length.
	if b.Err != nil {
		n.data = nil
		n.Err = b.Err
		return n
	}
	n.data = data[:length]
	return n
}

// Rest returns the unread bytes without consuming them.
func (b *Buf) Rest() []byte {
	return b.data
}

func (b *Buf) Uint8() uint8 {
	if len(b.data) < 1 {
		b.error("underflow")
		return 0
	}
	val := b.data[0]
	b.data = b.data[1:]
	b.off++
	return val
}

func (b *Buf) Uint16() uint16 {
	a := b.Bytes(2)
	if a == nil {
		return 0
	}
	return b.order.Uint16(a)
}

func (b *Buf) Uint24() uint32 {
	a := b.Bytes(3)
	if a == nil {
		return 0
	}
	if b.order == binary.BigEndian {
		return uint32(a[2]) | uint32(a[1])<<8 | uint32(a[0])<<16
	}
	return uint32(a[0]) | uint32(a[1])<<8 | uint32(a[2])<<16
}

func (b *Buf) Uint32() uint32 {
	a := b.Bytes(4)
	if a == nil {
		return 0
	}
	return b.order.Uint32(a)
}

func (b *Buf) Uint64() uint64 {
	a := b.Bytes(8)
	if a == nil {
		return 0
	}
	return b.order.Uint64(a)
}

// UintN reads an unsigned integer of size bytes, size must be 1, 2, 4 or 8.
func (b *Buf) UintN(size int) uint64 {
	switch size {
	case 1:
		return uint64(b.Uint8())
	case 2:
		return uint64(b.Uint16())
	case 4:
		return uint64(b.Uint32())
	case 8:
		return b.Uint64()
	}
	b.error(fmt.Sprintf("unsupported integer size %d", size))
	return 0
}

// Bytes returns the next n bytes.
func (b *Buf) Bytes(n int) []byte {
	if n < 0 || len(b.data) < n {
		b.error("underflow")
		return nil
	}
	data := b.data[0:n]
	b.data = b.data[n:]
	b.off += dwarf.Offset(n)
	return data
}

func (b *Buf) Skip(n int) { b.Bytes(n) }

// CString returns the NUL-terminated (C-like) string at the start of the buffer.
// The terminal NUL is discarded.
func (b *Buf) CString() string {
	i := bytes.IndexByte(b.data, 0)
	if i < 0 {
		b.error("underflow")
		return ""
	}
	s := string(b.data[0:i])
	b.data = b.data[i+1:]
	b.off += dwarf.Offset(i + 1)
	return s
}

// Uleb reads an unsigned LEB128 number.
func (b *Buf) Uleb() uint64 {
	if b.Err != nil {
		return 0
	}
	x, n, err := leb128.DecodeUnsigned(bytes.NewReader(b.data))
	if err != nil {
		b.error(err.Error())
		return 0
	}
	b.data = b.data[n:]
	b.off += dwarf.Offset(n)
	return x
}

// Sleb reads a signed LEB128 number.
func (b *Buf) Sleb() int64 {
	if b.Err != nil {
		return 0
	}
	x, n, err := leb128.DecodeSigned(bytes.NewReader(b.data))
	if err != nil {
		b.error(err.Error())
		return 0
	}
	b.data = b.data[n:]
	b.off += dwarf.Offset(n)
	return x
}

// UnitLength reads an initial length field, returning the length and
// whether the unit uses the 64-bit DWARF format.
func (b *Buf) UnitLength() (length uint64, dwarf64 bool) {
	length = uint64(b.Uint32())
	if length == 0xffffffff {
		dwarf64 = true
		length = b.Uint64()
	} else if length >= 0xfffffff0 {
		b.error("unit length has reserved value")
		return 0, false
	}
	return length, dwarf64
}

// Offset reads a section offset, 8 bytes wide for 64-bit DWARF, 4 bytes otherwise.
func (b *Buf) Offset(dwarf64 bool) uint64 {
	if dwarf64 {
		return b.Uint64()
	}
	return uint64(b.Uint32())
}

// Errorf records a decoding error at the current offset, unless one was
// already recorded.
func (b *Buf) Errorf(format string, args ...interface{}) {
	b.error(fmt.Sprintf(format, args...))
}

func (b *Buf) error(s string) {
	if b.Err == nil {
		b.data = nil
		b.Err = dwarf.DecodeError{Name: b.name, Offset: b.off, Err: s}
	}
}
