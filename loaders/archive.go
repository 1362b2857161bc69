// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loaders

import (
	"io"

	"github.com/devblok/korures/resource"
	"github.com/devblok/korures/utility/kar"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/exp/mmap"
)

// OpenArchive opens a kar archive and returns a loader for the files
// inside it. Archives on the operating system filesystem are memory
// mapped, other filesystems are read through afero.
func OpenArchive(fs afero.Fs, path string) (*ArchiveLoader, error) {
	var (
		reader io.ReaderAt
		closer io.Closer
	)
	if _, ok := fs.(*afero.OsFs); ok {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "mapping %s", path)
		}
		reader, closer = m, m
	} else {
		f, err := fs.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		reader, closer = f, f
	}

	ar, err := kar.Open(reader)
	if err != nil {
		closer.Close()
		return nil, errors.Wrapf(err, "opening archive %s", path)
	}

	loader := NewArchiveLoader(ar)
	loader.name = path
	loader.closer = closer
	return loader, nil
}

// NewArchiveLoader creates a loader over an already opened archive.
func NewArchiveLoader(ar *kar.Archive) *ArchiveLoader {
	return &ArchiveLoader{
		archive: ar,
	}
}

// ArchiveLoader loads files stored in a kar archive as blobs.
type ArchiveLoader struct {
	name    string
	archive *kar.Archive
	closer  io.Closer
}

// ReadLocation implements Source
func (a *ArchiveLoader) ReadLocation(loc resource.Location) ([]byte, bool, error) {
	name := cleanName(loc)
	if !a.archive.Has(name) {
		return nil, false, nil
	}
	data, err := a.archive.ReadAll(name)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Load implements resource.Loader
func (a *ArchiveLoader) Load(loc resource.Location) (resource.Resource, error) {
	return loadBlob(a, loc)
}

// Close unmaps or closes the underlying archive file.
func (a *ArchiveLoader) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func (a *ArchiveLoader) String() string {
	return "archive:" + a.name
}
