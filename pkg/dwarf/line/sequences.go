package line

import "sort"

// Sequence is a contiguous range of machine instructions [Start, End)
// with the rows that describe it. Consecutive rows always differ in
// address and in their (File, Line) pair.
type Sequence struct {
	Start uint64
	End   uint64
	Rows  []Row
}

// Sequences runs the line number program and returns its sequences
// sorted by start address.
// Rows at the same address collapse into the last one, rows that repeat
// the file and line of the previous row are dropped.
func (lineInfo *DebugLineInfo) Sequences() ([]Sequence, error) {
	var sb sequenceBuilder
	if err := lineInfo.Run(sb.add); err != nil {
		return nil, err
	}
	return sb.finish(), nil
}

type sequenceBuilder struct {
	seqs []Sequence
	rows []Row
}

func (sb *sequenceBuilder) add(row Row) {
	if row.EndSequence {
		if len(sb.rows) > 0 {
			sb.seqs = append(sb.seqs, Sequence{Start: sb.rows[0].Address, End: row.Address, Rows: sb.rows})
			sb.rows = nil
		}
		return
	}
	if n := len(sb.rows); n > 0 {
		last := &sb.rows[n-1]
		if last.Address == row.Address {
			last.File, last.Line, last.IsStmt = row.File, row.Line, row.IsStmt
			return
		}
		if last.File == row.File && last.Line == row.Line {
			return
		}
	}
	sb.rows = append(sb.rows, row)
}

// finish returns the sequences sorted by start address. Rows of an
// unterminated sequence are discarded.
func (sb *sequenceBuilder) finish() []Sequence {
	sort.SliceStable(sb.seqs, func(i, j int) bool { return sb.seqs[i].Start < sb.seqs[j].Start })
	return sb.seqs
}
