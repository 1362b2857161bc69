// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loaders

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/devblok/korures/resource"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// NewFileLoader creates a loader reading files below root.
// Only files with one of the extensions are accepted,
// no extensions accept every file.
func NewFileLoader(fs afero.Fs, root string, extensions ...string) *FileLoader {
	return &FileLoader{
		fs:         fs,
		root:       root,
		extensions: extensions,
	}
}

// FileLoader loads files from a filesystem as blobs. Locations
// pointing outside of the root are declined.
type FileLoader struct {
	fs         afero.Fs
	root       string
	extensions []string
}

// ReadLocation implements Source
func (f *FileLoader) ReadLocation(loc resource.Location) ([]byte, bool, error) {
	if !matchExtension(loc.Filename(), f.extensions) {
		return nil, false, nil
	}

	clean := cleanName(loc)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, false, nil
	}

	name := filepath.Join(f.root, filepath.FromSlash(clean))
	info, err := f.fs.Stat(name)
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "stat %s", name)
	}
	if info.IsDir() {
		return nil, false, nil
	}

	data, err := afero.ReadFile(f.fs, name)
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading %s", name)
	}
	return data, true, nil
}

// Load implements resource.Loader
func (f *FileLoader) Load(loc resource.Location) (resource.Resource, error) {
	return loadBlob(f, loc)
}

func (f *FileLoader) String() string {
	return "file:" + f.root
}
