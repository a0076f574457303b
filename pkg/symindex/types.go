package symindex

// File is a source file, split into its directory and its path relative
// to it. Both are handles into the string table.
type File struct {
	Dir  OptHandle
	Path Handle
}

// SourceLocation attributes an address to a line of a file.
// InlinedInto, when present, is the location of the call site that the
// code at this location was inlined into. Following InlinedInto walks
// from the innermost frame to the outermost one.
type SourceLocation struct {
	File OptHandle
	Line uint32
	// Function is reserved for the function the location belongs to,
	// function names are not resolved and it is always absent.
	Function    OptHandle
	InlinedInto OptHandle
}
