package symindex

import (
	"debug/dwarf"
	"fmt"
)

// Stage is the step of the conversion of a compile unit that failed.
type Stage uint8

const (
	// StageUnits is the enumeration of compile units and the decoding of
	// their root entry.
	StageUnits Stage = iota
	// StageLineProgram is the decoding of the unit's line number program.
	StageLineProgram
	// StageEntries is the walk of the unit's debug info entries.
	StageEntries
	// StageRanges is the decoding of the PC ranges of an entry.
	StageRanges
)

func (s Stage) String() string {
	switch s {
	case StageUnits:
		return "reading compile units"
	case StageLineProgram:
		return "decoding line program"
	case StageEntries:
		return "reading entries"
	case StageRanges:
		return "reading ranges"
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// ConvertError is returned by Process when the debug info can not be
// decoded.
type ConvertError struct {
	Stage Stage
	// Unit is the offset of the root entry of the compile unit.
	Unit dwarf.Offset
	Err  error
}

func (err *ConvertError) Error() string {
	return fmt.Sprintf("%s of unit at %#x: %v", err.Stage, err.Unit, err.Err)
}

func (err *ConvertError) Unwrap() error {
	return err.Err
}
