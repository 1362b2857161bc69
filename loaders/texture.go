// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loaders

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/devblok/korures/resource"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// TextureExtensions are the image formats TextureLoader decodes.
var TextureExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// NewTextureLoader creates a loader decoding images read from src.
func NewTextureLoader(src Source) *TextureLoader {
	return &TextureLoader{
		source: src,
	}
}

// TextureLoader decodes images into RGBA textures.
type TextureLoader struct {
	source Source
}

// Load implements resource.Loader
func (t *TextureLoader) Load(loc resource.Location) (resource.Resource, error) {
	if !matchExtension(loc.Filename(), TextureExtensions) {
		return nil, nil
	}
	data, ok, err := t.source.ReadLocation(loc)
	if err != nil || !ok {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", loc.Filename())
	}

	bounds := img.Bounds()
	return &Texture{
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: GetPixels(img, 0),
	}, nil
}

// Close closes the source of the loader.
func (t *TextureLoader) Close() error {
	return closeSource(t.source)
}

func (t *TextureLoader) String() string {
	return fmt.Sprintf("texture:%v", t.source)
}

// Texture is a decoded image, four bytes per pixel in RGBA order.
type Texture struct {
	resource.Base

	Format string
	Width  int
	Height int
	Pixels []uint8
}

// Release implements interface
func (t *Texture) Release() {
	t.Pixels = nil
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas
func GetPixels(img image.Image, rowPitch int) []uint8 {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if rowPitch >= 4*bounds.Dx() {
		// apply the proposed row pitch only if it fits a row
		canvas.Stride = rowPitch
		canvas.Pix = make([]uint8, rowPitch*bounds.Dy())
	}
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
	return canvas.Pix
}
