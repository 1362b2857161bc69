// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loaders

import (
	"github.com/devblok/korures/resource"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
)

// NewBoxLoader creates a loader for assets packed into a packr box.
func NewBoxLoader(box packr.Box, extensions ...string) *BoxLoader {
	return &BoxLoader{
		box:        box,
		extensions: extensions,
	}
}

// BoxLoader loads static assets bundled with the binary.
type BoxLoader struct {
	box        packr.Box
	extensions []string
}

// ReadLocation implements Source
func (b *BoxLoader) ReadLocation(loc resource.Location) ([]byte, bool, error) {
	name := cleanName(loc)
	if !matchExtension(name, b.extensions) || !b.box.Has(name) {
		return nil, false, nil
	}
	data, err := b.box.Find(name)
	if err != nil {
		return nil, false, errors.Wrapf(err, "box %s", name)
	}
	return data, true, nil
}

// Load implements resource.Loader
func (b *BoxLoader) Load(loc resource.Location) (resource.Resource, error) {
	return loadBlob(b, loc)
}

func (b *BoxLoader) String() string {
	return "box:" + b.box.Path
}
