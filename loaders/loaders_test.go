// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loaders_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/devblok/korures/loaders"
	"github.com/devblok/korures/resource"
	"github.com/devblok/korures/utility/kar"
	"github.com/gobuffalo/packr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

const quadDocument = `<COLLADA><library_geometries><geometry name="Quad"><mesh>
	<source id="Quad-mesh-positions"><float_array count="12">-1 -1 0 1 -1 0 1 1 0 -1 1 0</float_array></source>
	<triangles count="2"><input semantic="VERTEX" offset="0"/><p>0 1 2 0 2 3</p></triangles>
</mesh></geometry></library_geometries></COLLADA>`

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func testFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()

	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, testImage()))
	var bmpData bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpData, testImage()))

	require.NoError(t, afero.WriteFile(fs, "assets/notes.txt", []byte("some notes"), 0644))
	require.NoError(t, afero.WriteFile(fs, "assets/bricks.png", pngData.Bytes(), 0644))
	require.NoError(t, afero.WriteFile(fs, "assets/bricks.bmp", bmpData.Bytes(), 0644))
	require.NoError(t, afero.WriteFile(fs, "assets/quad.dae", []byte(quadDocument), 0644))
	require.NoError(t, afero.WriteFile(fs, "assets/broken.png", []byte("not a png"), 0644))
	require.NoError(t, fs.MkdirAll("assets/dir.txt", 0755))
	return fs
}

func testArchive(t *testing.T) []byte {
	t.Helper()
	builder, err := kar.NewBuilder(kar.Header{Author: "devblok", Version: 1})
	require.NoError(t, err)
	defer builder.Close()

	require.NoError(t, builder.Add("maps/level1.map", bytes.NewReader([]byte("level one"))))
	require.NoError(t, builder.Add("models/quad.dae", bytes.NewReader([]byte(quadDocument))))

	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestFileLoader(t *testing.T) {
	loader := loaders.NewFileLoader(testFs(t), "assets", ".txt")

	res, err := loader.Load(resource.NewFileLocation("notes.txt"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "some notes", string(res.(*resource.Blob).Bytes()))

	for _, name := range []string{"missing.txt", "bricks.png", "dir.txt"} {
		res, err := loader.Load(resource.NewFileLocation(name))
		assert.NoError(t, err, name)
		assert.Nil(t, res, name)
	}
}

func TestFileLoaderStaysInRoot(t *testing.T) {
	fs := testFs(t)
	require.NoError(t, afero.WriteFile(fs, "secret.txt", []byte("top secret"), 0644))
	loader := loaders.NewFileLoader(fs, "assets")

	for _, name := range []string{"../secret.txt", "maps/../../secret.txt", "..", "/secret.txt"} {
		res, err := loader.Load(resource.NewFileLocation(name))
		assert.NoError(t, err, name)
		assert.Nil(t, res, name)
	}

	res, err := loader.Load(resource.NewFileLocation("maps/../notes.txt"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "some notes", string(res.(*resource.Blob).Bytes()))
}

func TestArchiveLoader(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data.kar", testArchive(t), 0644))

	loader, err := loaders.OpenArchive(fs, "data.kar")
	require.NoError(t, err)
	defer loader.Close()

	res, err := loader.Load(resource.NewFileLocation("maps/level1.map"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "level one", string(res.(*resource.Blob).Bytes()))

	res, err = loader.Load(resource.NewFileLocation("./maps/level2.map"))
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestArchiveLoaderMapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.kar")
	require.NoError(t, afero.WriteFile(afero.NewOsFs(), path, testArchive(t), 0644))

	loader, err := loaders.OpenArchive(afero.NewOsFs(), path)
	require.NoError(t, err)

	data, ok, err := loader.ReadLocation(resource.NewFileLocation("models/quad.dae"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, quadDocument, string(data))
	assert.NoError(t, loader.Close())
	assert.NoError(t, loader.Close())
}

func TestOpenArchiveRejectsOtherFiles(t *testing.T) {
	fs := testFs(t)
	_, err := loaders.OpenArchive(fs, "assets/notes.txt")
	assert.Error(t, err)
	_, err = loaders.OpenArchive(fs, "assets/missing.kar")
	assert.Error(t, err)
}

func TestBoxLoader(t *testing.T) {
	loader := loaders.NewBoxLoader(packr.NewBox("./testdata/box"))

	res, err := loader.Load(resource.NewFileLocation("hello.txt"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "hello from the box", string(res.(*resource.Blob).Bytes()))

	res, err = loader.Load(resource.NewFileLocation("goodbye.txt"))
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestTextureLoader(t *testing.T) {
	loader := loaders.NewTextureLoader(loaders.NewFileLoader(testFs(t), "assets"))

	for _, name := range []string{"bricks.png", "bricks.bmp"} {
		res, err := loader.Load(resource.NewFileLocation(name))
		require.NoError(t, err, name)
		require.NotNil(t, res, name)

		tex := res.(*loaders.Texture)
		assert.Equal(t, 2, tex.Width)
		assert.Equal(t, 2, tex.Height)
		require.Len(t, tex.Pixels, 2*2*4)
		assert.Equal(t, []uint8{255, 0, 0, 255}, tex.Pixels[0:4], name)
		assert.Equal(t, []uint8{0, 255, 0, 255}, tex.Pixels[4:8], name)

		tex.Release()
		assert.Nil(t, tex.Pixels)
	}

	res, err := loader.Load(resource.NewFileLocation("notes.txt"))
	assert.NoError(t, err)
	assert.Nil(t, res)

	_, err = loader.Load(resource.NewFileLocation("broken.png"))
	assert.Error(t, err)
}

func TestGetPixelsRowPitch(t *testing.T) {
	pixels := loaders.GetPixels(testImage(), 16)
	require.Len(t, pixels, 2*16)
	assert.Equal(t, []uint8{0, 0, 255, 255}, pixels[16:20])

	// A pitch smaller than a row is ignored.
	assert.Len(t, loaders.GetPixels(testImage(), 4), 2*2*4)
}

func TestModelLoader(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data.kar", testArchive(t), 0644))
	archive, err := loaders.OpenArchive(fs, "data.kar")
	require.NoError(t, err)

	loader := loaders.NewModelLoader(archive)
	defer loader.Close()

	res, err := loader.Load(resource.NewFileLocation("models/quad.dae"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.(*loaders.Model).Vertices(), 6)
	assert.Equal(t, "Quad", res.(*loaders.Model).Name())

	res, err = loader.Load(resource.NewFileLocation("maps/level1.map"))
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestFromConfiguration(t *testing.T) {
	chain, err := loaders.FromConfiguration([]loaders.Configuration{
		{
			Type: loaders.TextureType,
			Params: map[string]interface{}{
				"source": map[string]interface{}{
					"type":   loaders.FileType,
					"params": map[string]interface{}{"root": "assets"},
				},
			},
		},
		{
			Type: loaders.ModelType,
			Params: map[string]interface{}{
				"source": map[string]interface{}{
					"type":   loaders.FileType,
					"params": map[string]interface{}{"root": "assets"},
				},
			},
		},
		{
			Type:   loaders.FileType,
			Params: map[string]interface{}{"root": "assets", "extensions": []interface{}{".txt"}},
		},
	}, testFs(t))
	require.NoError(t, err)
	require.Len(t, chain, 3)

	pool := resource.NewPool("assets")
	for _, l := range chain {
		pool.AddLoader(l)
	}
	defer pool.Close()

	texture, err := resource.GetAs[*loaders.Texture](pool, pool.AddFile("bricks.png"), true)
	require.NoError(t, err)
	assert.Equal(t, "png", texture.Format)

	mesh, err := resource.GetAs[*loaders.Model](pool, pool.AddFile("quad.dae"), true)
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices(), 6)

	notes, err := resource.GetAs[*resource.Blob](pool, pool.AddFile("notes.txt"), true)
	require.NoError(t, err)
	assert.Equal(t, "some notes", string(notes.Bytes()))

	_, err = pool.Get(pool.AddFile("song.ogg"), true)
	assert.Error(t, err)
}

func TestFromConfigurationErrors(t *testing.T) {
	fs := testFs(t)
	for name, cfg := range map[string]loaders.Configuration{
		"unknown type": {Type: "ftp"},
		"unused param": {Type: loaders.FileType, Params: map[string]interface{}{"rooot": "assets"}},
		"missing path": {Type: loaders.ArchiveType},
		"bad archive":  {Type: loaders.ArchiveType, Params: map[string]interface{}{"path": "assets/notes.txt"}},
		"no source":    {Type: loaders.TextureType},
		"bad source":   {Type: loaders.ModelType, Params: map[string]interface{}{"source": map[string]interface{}{"type": "texture"}}},
		"wrong kind":   {Type: loaders.FileType, Params: map[string]interface{}{"root": map[string]interface{}{"a": 1}}},
	} {
		_, err := loaders.FromConfiguration([]loaders.Configuration{cfg}, fs)
		assert.Error(t, err, name)
	}
}
