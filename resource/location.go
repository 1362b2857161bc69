// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"path"
	"path/filepath"
)

// Location identifies where a resource comes from. Locations are
// immutable once constructed.
type Location interface {
	// Filename returns a human readable identifier, used in
	// diagnostics and by loaders that work with files.
	Filename() string

	// Key returns the identity of the location. Two locations with
	// equal keys refer to the same resource.
	Key() string

	// Clone returns an owned copy that is independent
	// of the receiver.
	Clone() Location
}

// NewFileLocation creates a Location for a file path.
func NewFileLocation(filename string) FileLocation {
	return FileLocation{
		filename: filename,
		key:      path.Clean(filepath.ToSlash(filename)),
	}
}

// FileLocation is a Location backed by a file path. Paths that
// clean to the same slash separated form are the same location.
type FileLocation struct {
	filename string
	key      string
}

// Filename implements interface
func (f FileLocation) Filename() string {
	return f.filename
}

// Key implements interface
func (f FileLocation) Key() string {
	return f.key
}

// Clone implements interface
func (f FileLocation) Clone() Location {
	return FileLocation{
		filename: f.filename,
		key:      f.key,
	}
}

// Ext returns the extension of the file, including the dot.
func (f FileLocation) Ext() string {
	return path.Ext(f.key)
}

func (f FileLocation) String() string {
	return f.filename
}
