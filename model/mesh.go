// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"sync"

	"github.com/devblok/korures/util/collada"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ImportCollada reads given file contents and converts the first
// Collada geometry to engine's internal object
func ImportCollada(fileContents []byte) (*Mesh, error) {
	doc, err := collada.Decode(fileContents)
	if err != nil {
		return nil, err
	}
	if len(doc.Geometries) == 0 {
		return nil, errors.New("collada document has no geometry")
	}

	mesh := doc.Geometries[0].Mesh
	positions, err := mesh.FindSource("positions")
	if err != nil {
		return nil, err
	}
	normals, err := mesh.FindSource("normals")
	if err != nil {
		normals = collada.Source{}
	}

	var posOffset, normOffset = -1, -1
	for _, in := range mesh.Triangles.Inputs {
		switch in.Semantic {
		case "VERTEX":
			posOffset = int(in.Offset)
		case "NORMAL":
			normOffset = int(in.Offset)
		}
	}
	if posOffset < 0 {
		return nil, errors.New("triangles have no vertex input")
	}

	stride := mesh.Triangles.Stride()
	index := mesh.Triangles.Index
	if stride == 0 || len(index)%stride != 0 {
		return nil, errors.Errorf("index list of %d elements does not fit stride %d", len(index), stride)
	}

	vertices := make([]Vertex, 0, len(index)/stride)
	for idx := 0; idx < len(index); idx += stride {
		pos, err := vec3At(positions.Floats.Data, index[idx+posOffset])
		if err != nil {
			return nil, errors.Wrap(err, "position")
		}
		vert := Vertex{
			Pos:   pos,
			Color: DefaultColor,
		}
		if normOffset >= 0 && len(normals.Floats.Data) > 0 {
			if vert.Normal, err = vec3At(normals.Floats.Data, index[idx+normOffset]); err != nil {
				return nil, errors.Wrap(err, "normal")
			}
		}
		vertices = append(vertices, vert)
	}

	return &Mesh{
		name:     doc.Geometries[0].Name,
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		vertices: vertices,
	}, nil
}

func vec3At(data []float32, i int) (glm.Vec3, error) {
	if i < 0 || 3*i+2 >= len(data) {
		return glm.Vec3{}, errors.Errorf("index %d out of range of %d values", i, len(data))
	}
	return glm.Vec3{data[3*i], data[3*i+1], data[3*i+2]}, nil
}

// Mesh is imported from a collada (.dae) file.
// Loaded and held in memory
type Mesh struct {
	name string

	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
}

// Name returns the geometry name from the source document.
func (m *Mesh) Name() string {
	return m.name
}

// SetPosition implements interface
func (m *Mesh) SetPosition(pos glm.Mat4) {
	m.mutex.Lock()
	m.position = pos
	m.mutex.Unlock()
}

// Position implements interface
func (m *Mesh) Position() glm.Mat4 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.position
}

// SetRotation implements interface
func (m *Mesh) SetRotation(rot glm.Mat4) {
	m.mutex.Lock()
	m.rotation = rot
	m.mutex.Unlock()
}

// Rotation implements interface
func (m *Mesh) Rotation() glm.Mat4 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.rotation
}

// Vertices implements interface
func (m *Mesh) Vertices() []Vertex {
	return m.vertices
}

// Bounds returns the smallest axis aligned box containing every vertex.
func (m *Mesh) Bounds() (min, max glm.Vec3) {
	if len(m.vertices) == 0 {
		return
	}
	min, max = m.vertices[0].Pos, m.vertices[0].Pos
	for _, v := range m.vertices[1:] {
		for axis := 0; axis < 3; axis++ {
			if v.Pos[axis] < min[axis] {
				min[axis] = v.Pos[axis]
			}
			if v.Pos[axis] > max[axis] {
				max[axis] = v.Pos[axis]
			}
		}
	}
	return
}
