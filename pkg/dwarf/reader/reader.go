package reader

import (
	"debug/dwarf"
)

// Reader wraps a dwarf.Reader and keeps track of the nesting depth of the
// entries it returns.
type Reader struct {
	*dwarf.Reader
	depth  int
	dfsEnd bool
}

// New returns a reader for the specified dwarf data.
func New(data *dwarf.Data) *Reader {
	return &Reader{Reader: data.Reader(), dfsEnd: true}
}

// Seek moves the reader to an arbitrary offset.
func (reader *Reader) Seek(off dwarf.Offset) {
	reader.depth = 0
	reader.dfsEnd = true
	reader.Reader.Seek(off)
}

// Walk prepares the reader to visit the descendants of entry with
// NextDFS. Entry must be the last entry returned by the reader.
func (reader *Reader) Walk(entry *dwarf.Entry) {
	reader.depth = 0
	reader.dfsEnd = !entry.Children
}

// NextDFS returns the next descendant of the entry passed to Walk, in
// depth first order, and its depth. Children of the walked entry have
// depth 1.
// Returns a nil entry after the last descendant.
func (reader *Reader) NextDFS() (*dwarf.Entry, int, error) {
	for !reader.dfsEnd {
		entry, err := reader.Next()
		if err != nil || entry == nil {
			reader.dfsEnd = true
			return nil, 0, err
		}
		if entry.Tag == 0 {
			// end of a list of siblings
			if reader.depth == 0 {
				reader.dfsEnd = true
				break
			}
			reader.depth--
			continue
		}
		depth := reader.depth + 1
		if entry.Children {
			reader.depth++
		}
		return entry, depth, nil
	}
	return nil, 0, nil
}
