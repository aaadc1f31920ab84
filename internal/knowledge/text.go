// Package knowledge implements the behavior and knowledge store: a plain-text
// knowledge file read on every prompt assembly, and a JSON behavior-override
// file with atomic writes and mtime-gated reloads.
package knowledge

import (
	"fmt"
	"os"
)

// TextFile is a plain-text file read fresh on every access so external
// edits (including the admin HTTP surface's writes) take effect live — the
// prompt assembler reloads it from source text on every turn.
type TextFile struct {
	path string
}

// NewTextFile wraps path. The file need not exist yet.
func NewTextFile(path string) *TextFile {
	return &TextFile{path: path}
}

// Read returns the file's contents. A missing file contributes an empty
// string (not an error); other read failures return a visible marker string
// so an operator notices.
func (f *TextFile) Read() string {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		return fmt.Sprintf("[knowledge file error: %v]", err)
	}
	return string(data)
}

// Write atomically replaces the file's contents via a temp-file-plus-rename
// swap, so a reader never observes a partial write.
func (f *TextFile) Write(content string) error {
	return atomicWrite(f.path, []byte(content))
}

// Path returns the underlying file path (used for mtime checks elsewhere).
func (f *TextFile) Path() string {
	return f.path
}
