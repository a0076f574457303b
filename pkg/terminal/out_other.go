//go:build !linux && !darwin && !freebsd && !windows

package terminal

func (w *pagingWriter) getWindowSize() {
	w.mode = pagingWriterNormal
}
