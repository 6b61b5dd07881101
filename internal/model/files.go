package model

import (
	"bytes"
	"io"
	"os"
)

// UploadedFile describes one file of a form submission. Content, when set,
// takes precedence over Path.
type UploadedFile struct {
	// Path is the file on disk holding the contents.
	Path string
	// Name is the client-side file name sent as the part filename.
	Name string
	// Type is the part content type.
	Type string
	// Content holds in-memory contents.
	Content []byte
}

// Empty reports an upload slot with nothing attached, as browsers send for
// untouched file inputs.
func (f *UploadedFile) Empty() bool {
	return f == nil || (f.Path == "" && f.Content == nil)
}

// Open returns a reader over the file contents.
func (f *UploadedFile) Open() (io.ReadCloser, error) {
	if f.Content != nil {
		return io.NopCloser(bytes.NewReader(f.Content)), nil
	}
	return os.Open(f.Path)
}

// FileField is a named file input. A FileField with Children is a nested
// file array (files[0], files[avatar], ...).
type FileField struct {
	Name     string
	File     *UploadedFile
	Children Files
}

// Files is an ordered list of file inputs.
type Files []FileField

// File builds a file field.
func File(name string, f *UploadedFile) FileField {
	return FileField{Name: name, File: f}
}

// FilePath builds a file field from a path, like a bare upload entry with
// no client name or type.
func FilePath(name, path string) FileField {
	return FileField{Name: name, File: &UploadedFile{Path: path}}
}

// FileGroup builds a nested file field.
func FileGroup(name string, children ...FileField) FileField {
	if children == nil {
		children = Files{}
	}
	return FileField{Name: name, Children: children}
}
