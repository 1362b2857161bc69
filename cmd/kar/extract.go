// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"path/filepath"
	"strings"

	"github.com/devblok/korures/utility/kar"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	extractCmd.Flags().StringVarP(&outDir, "output", "o", ".", "Directory to extract into")
}

var outDir string

var extractCmd = &cobra.Command{
	Use:   "extract <archive> [name...]",
	Short: "Extract files from an archive, all of them when no names are given",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ar, f, err := openArchive(fs, args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return extractFiles(fs, ar, args[1:], outDir)
	},
}

func extractFiles(fs afero.Fs, ar *kar.Archive, names []string, dir string) error {
	if len(names) == 0 {
		names = ar.List()
	}

	for _, name := range names {
		target := filepath.Join(dir, filepath.FromSlash(name))
		if rel, err := filepath.Rel(dir, target); err != nil || strings.HasPrefix(rel, "..") {
			return errors.Errorf("%s points outside of %s", name, dir)
		}

		data, err := ar.ReadAll(name)
		if err != nil {
			return err
		}
		if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(fs, target, data, 0644); err != nil {
			return err
		}
		log.WithField("name", name).Debug("file extracted")
	}
	return nil
}
