package symindex

import "sort"

// Location is a source location returned by a lookup.
type Location struct {
	conv   *Converter
	handle Handle
	loc    SourceLocation
}

// Handle returns the handle of the location in the location table.
func (loc Location) Handle() Handle {
	return loc.handle
}

// SourceLocation returns the raw location.
func (loc Location) SourceLocation() SourceLocation {
	return loc.loc
}

// Path returns the path of the file, relative to Dir unless it is
// absolute. It returns the empty string if the file is unknown.
func (loc Location) Path() string {
	f, ok := loc.file()
	if !ok {
		return ""
	}
	return loc.conv.strings.Get(f.Path)
}

// Dir returns the directory of the file. The second return value is false
// if the file has no directory.
func (loc Location) Dir() (string, bool) {
	f, ok := loc.file()
	if !ok {
		return "", false
	}
	h, ok := f.Dir.Get()
	if !ok {
		return "", false
	}
	return loc.conv.strings.Get(h), true
}

// FullPath returns Path joined with Dir.
func (loc Location) FullPath() string {
	f, ok := loc.file()
	if !ok {
		return ""
	}
	return loc.conv.filePath(f)
}

// Line returns the line number, 0 if unknown.
func (loc Location) Line() uint32 {
	return loc.loc.Line
}

// Inlined returns true if the code at this location was inlined into the
// location of the next frame.
func (loc Location) Inlined() bool {
	return loc.loc.InlinedInto.IsSome()
}

func (loc Location) file() (File, bool) {
	h, ok := loc.loc.File.Get()
	if !ok {
		return File{}, false
	}
	return loc.conv.files.Get(h), true
}

// LocationIter iterates over the frames of an address, starting from the
// innermost one. Use Next to advance the iterator and Location to read
// the current frame:
//
//	it := conv.Lookup(pc)
//	for it.Next() {
//		loc := it.Location()
//		...
//	}
type LocationIter struct {
	conv  *Converter
	first OptHandle
	next  OptHandle
	cur   Location
}

// Lookup returns the frames of addr. The location of addr is the one of
// the closest mapped address at or below addr, if there is none the
// iterator is empty.
func (conv *Converter) Lookup(addr uint64) *LocationIter {
	it := &LocationIter{conv: conv}
	i := sort.Search(len(conv.ranges), func(i int) bool { return conv.ranges[i].addr > addr })
	if i > 0 {
		it.first = Some(conv.ranges[i-1].loc)
	}
	it.next = it.first
	return it
}

// Next advances to the next frame, it returns false when there are no
// more frames.
func (it *LocationIter) Next() bool {
	h, ok := it.next.Get()
	if !ok {
		it.cur = Location{}
		return false
	}
	loc := it.conv.locations.Get(h)
	it.cur = Location{conv: it.conv, handle: h, loc: loc}
	it.next = loc.InlinedInto
	return true
}

// Location returns the current frame.
func (it *LocationIter) Location() Location {
	return it.cur
}

// Reset moves the iterator back before the first frame.
func (it *LocationIter) Reset() {
	it.next = it.first
	it.cur = Location{}
}

// Frames returns all the frames of addr, innermost first.
func (conv *Converter) Frames(addr uint64) []Location {
	var r []Location
	for it := conv.Lookup(addr); it.Next(); {
		r = append(r, it.Location())
	}
	return r
}
