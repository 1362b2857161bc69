// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package loaders provides the resource loaders the engine ships with.
// Raw loaders (files, kar archives, packr boxes) produce blobs and double
// as sources for the decoding loaders (textures, models).
package loaders

import (
	"io"
	"path"
	"strings"

	"github.com/devblok/korures/resource"
)

// Source fetches the raw contents behind a location. A source that
// does not have the location reports ok as false and no error.
type Source interface {
	ReadLocation(loc resource.Location) (data []byte, ok bool, err error)
}

// loadBlob implements the resource.Loader contract on top of a Source.
func loadBlob(src Source, loc resource.Location) (resource.Resource, error) {
	data, ok, err := src.ReadLocation(loc)
	if err != nil || !ok {
		return nil, err
	}
	return resource.NewBlob(loc, data), nil
}

// matchExtension reports whether name has one of exts,
// an empty list matches every name.
func matchExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// cleanName turns a location into the slash separated
// name used inside archives and boxes.
func cleanName(loc resource.Location) string {
	return strings.TrimPrefix(loc.Key(), "./")
}

// closeSource closes src if it holds open files.
func closeSource(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
