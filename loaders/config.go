// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loaders

import (
	"io"
	"path/filepath"

	"github.com/devblok/korures/resource"
	"github.com/gobuffalo/packr"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Loader types understood by FromConfiguration
const (
	FileType    = "file"
	ArchiveType = "archive"
	BoxType     = "box"
	TextureType = "texture"
	ModelType   = "model"
)

// Configuration describes one loader of a pool's chain.
type Configuration struct {
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

type fileOptions struct {
	Root       string
	Extensions []string
}

type archiveOptions struct {
	Path string
}

type boxOptions struct {
	Path       string
	Extensions []string
}

type decoderOptions struct {
	Source Configuration
}

// FromConfiguration builds the loaders in the order they are
// configured. Loaders opened before a failure are closed again.
func FromConfiguration(cfgs []Configuration, fs afero.Fs) ([]resource.Loader, error) {
	var built []resource.Loader
	for idx, cfg := range cfgs {
		loader, err := build(cfg, fs)
		if err != nil {
			return nil, abandon(errors.Wrapf(err, "loader %d", idx), built)
		}
		built = append(built, loader)
	}
	return built, nil
}

func build(cfg Configuration, fs afero.Fs) (resource.Loader, error) {
	switch cfg.Type {
	case FileType:
		var opts fileOptions
		if err := decode(cfg.Params, &opts); err != nil {
			return nil, err
		}
		return NewFileLoader(fs, opts.Root, opts.Extensions...), nil
	case ArchiveType:
		var opts archiveOptions
		if err := decode(cfg.Params, &opts); err != nil {
			return nil, err
		}
		if opts.Path == "" {
			return nil, errors.New("archive loader needs a path")
		}
		return OpenArchive(fs, opts.Path)
	case BoxType:
		var opts boxOptions
		if err := decode(cfg.Params, &opts); err != nil {
			return nil, err
		}
		path, err := filepath.Abs(opts.Path)
		if err != nil {
			return nil, err
		}
		return NewBoxLoader(packr.NewBox(path), opts.Extensions...), nil
	case TextureType, ModelType:
		var opts decoderOptions
		if err := decode(cfg.Params, &opts); err != nil {
			return nil, err
		}
		inner, err := build(opts.Source, fs)
		if err != nil {
			return nil, errors.Wrap(err, "source")
		}
		src, ok := inner.(Source)
		if !ok {
			err := errors.Errorf("%s loader can not be used as a source", opts.Source.Type)
			return nil, abandon(err, []resource.Loader{inner})
		}
		if cfg.Type == TextureType {
			return NewTextureLoader(src), nil
		}
		return NewModelLoader(src), nil
	default:
		return nil, errors.Errorf("unknown loader type %q", cfg.Type)
	}
}

func decode(params map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(params)
}

// abandon closes loaders built before err occurred and
// reports close failures along with err.
func abandon(err error, built []resource.Loader) error {
	if closeErr := closeAll(built); closeErr != nil {
		return multierror.Append(err, closeErr)
	}
	return err
}

func closeAll(loaders []resource.Loader) error {
	var result error
	for _, l := range loaders {
		if c, ok := l.(io.Closer); ok {
			if err := c.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result
}
