package symindex

import (
	"path"
	"strings"

	"github.com/go-delve/dwarfindex/pkg/dwarf/line"
)

// unitBuffers holds the state of the compile unit being converted. It is
// owned by the caller of processUnit and reset at the start of every unit,
// nothing in it is meaningful across units.
type unitBuffers struct {
	// files maps the unit-local file indices seen so far to the handle of
	// the interned File.
	files map[uint64]OptHandle
	bps   breakpoints
}

func (bufs *unitBuffers) reset() {
	if bufs.files == nil {
		bufs.files = make(map[uint64]OptHandle)
	}
	clear(bufs.files)
	bufs.bps.reset()
}

// resolveFile returns the handle of the file with index idx in the file
// table of lineInfo. Indices without an entry in the table resolve to an
// absent handle.
func (conv *Converter) resolveFile(bufs *unitBuffers, lineInfo *line.DebugLineInfo, idx uint64) OptHandle {
	if h, ok := bufs.files[idx]; ok {
		return h
	}
	var h OptHandle
	if entry := lineInfo.File(idx); entry != nil {
		f := File{Path: conv.strings.Insert(entry.Path)}
		if dir, ok := lineInfo.Dir(entry.DirIdx); ok {
			f.Dir = Some(conv.strings.Insert(dir))
		}
		h = Some(conv.files.Insert(f))
	}
	bufs.files[idx] = h
	return h
}

// joinPath joins dir and p unless p is already absolute. Directories
// recorded on Windows hosts keep their separator.
func joinPath(dir, p string) string {
	if dir == "" || isAbs(p) {
		return p
	}
	if strings.Contains(dir, "\\") && !strings.Contains(dir, "/") {
		return strings.TrimSuffix(dir, "\\") + "\\" + p
	}
	return path.Join(dir, p)
}

func isAbs(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, "\\") {
		return true
	}
	// drive letter
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}
