// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loaders

import (
	"fmt"

	"github.com/devblok/korures/model"
	"github.com/devblok/korures/resource"
	"github.com/pkg/errors"
)

// ModelExtensions are the model formats ModelLoader imports.
var ModelExtensions = []string{".dae"}

// NewModelLoader creates a loader importing models read from src.
func NewModelLoader(src Source) *ModelLoader {
	return &ModelLoader{
		source: src,
	}
}

// ModelLoader imports COLLADA documents as meshes.
type ModelLoader struct {
	source Source
}

// Load implements resource.Loader
func (m *ModelLoader) Load(loc resource.Location) (resource.Resource, error) {
	if !matchExtension(loc.Filename(), ModelExtensions) {
		return nil, nil
	}
	data, ok, err := m.source.ReadLocation(loc)
	if err != nil || !ok {
		return nil, err
	}

	mesh, err := model.ImportCollada(data)
	if err != nil {
		return nil, errors.Wrapf(err, "importing %s", loc.Filename())
	}
	return &Model{Mesh: mesh}, nil
}

// Close closes the source of the loader.
func (m *ModelLoader) Close() error {
	return closeSource(m.source)
}

func (m *ModelLoader) String() string {
	return fmt.Sprintf("model:%v", m.source)
}

// Model is a mesh held by a pool.
type Model struct {
	resource.Base
	*model.Mesh
}

// Release implements interface
func (m *Model) Release() {
	m.Mesh = nil
}
