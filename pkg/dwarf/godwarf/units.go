package godwarf

import (
	"debug/dwarf"
	"fmt"

	"github.com/go-delve/dwarfindex/pkg/dwarf/util"
)

// Unit types of DWARFv5 unit headers.
const (
	_DW_UT_compile       = 0x01
	_DW_UT_type          = 0x02
	_DW_UT_partial       = 0x03
	_DW_UT_skeleton      = 0x04
	_DW_UT_split_compile = 0x05
	_DW_UT_split_type    = 0x06
)

// UnitOffsets returns the offset of the first entry of every unit in
// .debug_info, these are the offsets debug/dwarf uses for the unit's
// root entry.
// Knowing them allows a reader to move to the next unit when the entries
// of a unit can not be decoded.
func (s *Sections) UnitOffsets() ([]dwarf.Offset, error) {
	var r []dwarf.Offset
	buf := util.MakeBuf("info", s.Endianness.ByteOrder(), 0, s.Info)
	for buf.Len() > 0 {
		start := buf.Off()
		length, dwarf64 := buf.UnitLength()
		if buf.Err != nil {
			return r, buf.Err
		}
		if length > uint64(buf.Len()) {
			return r, dwarf.DecodeError{Name: "info", Offset: start, Err: fmt.Sprintf("unit length %#x exceeds section size", length)}
		}
		unit := buf.Slice(int(length))

		vers := unit.Uint16()
		switch {
		case vers >= 2 && vers <= 4:
			unit.Offset(dwarf64) // debug_abbrev_offset
			unit.Uint8()         // address_size
		case vers == 5:
			unitType := unit.Uint8()
			unit.Uint8()         // address_size
			unit.Offset(dwarf64) // debug_abbrev_offset
			switch unitType {
			case _DW_UT_skeleton, _DW_UT_split_compile:
				unit.Uint64() // dwo_id
			case _DW_UT_type, _DW_UT_split_type:
				unit.Uint64()        // type_signature
				unit.Offset(dwarf64) // type_offset
			}
		default:
			return r, dwarf.DecodeError{Name: "info", Offset: start, Err: fmt.Sprintf("unsupported version %d", vers)}
		}
		if unit.Err != nil {
			return r, unit.Err
		}
		r = append(r, unit.Off())
	}
	return r, nil
}
