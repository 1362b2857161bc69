// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/devblok/korures/utility/kar"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	packCmd.Flags().StringVarP(&dstFile, "file", "f", "out.kar", "Destination file")
	packCmd.Flags().StringVar(&author, "author", "", "Set the author of the package, defaults to the current user")
	packCmd.Flags().Int64Var(&version, "version", 1, "Archive version number to create it with")
	packCmd.Flags().BoolVar(&overwrite, "force", false, "Overwrite the destination file")
}

var (
	dstFile   string
	author    string
	version   int64
	overwrite bool
)

var packCmd = &cobra.Command{
	Use:   "pack <directory>",
	Short: "Compress every file below a directory into an archive",
	Args:  cobra.ExactArgs(1),
	RunE:  pack,
}

func pack(_ *cobra.Command, args []string) error {
	if _, err := fs.Stat(dstFile); err == nil && !overwrite {
		return errors.Errorf("destination file %s exists, will not overwrite", dstFile)
	}

	if author == "" {
		author = currentUserName
	}
	header := kar.Header{
		Author:      author,
		DateCreated: time.Now().Unix(),
		Version:     version,
	}

	dst, err := fs.Create(dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	count, err := packDirectory(fs, args[0], dst, header)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"files":   count,
		"archive": dstFile,
	}).Info("archive written")
	return nil
}

// packDirectory writes an archive of every regular file below dir to w.
// Files are named by their slash separated path relative to dir.
func packDirectory(fs afero.Fs, dir string, w io.Writer, header kar.Header) (int, error) {
	builder, err := kar.NewBuilder(header)
	if err != nil {
		return 0, err
	}
	defer builder.Close()

	if err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		f, err := fs.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		name := filepath.ToSlash(rel)
		if err := builder.Add(name, f); err != nil {
			return errors.Wrapf(err, "adding %s", name)
		}
		log.WithField("name", name).Debug("file added")
		return nil
	}); err != nil {
		return 0, err
	}

	if builder.Len() == 0 {
		return 0, errors.Errorf("no files found in %s", dir)
	}
	if _, err := builder.WriteTo(w); err != nil {
		return 0, errors.Wrap(err, "writing archive")
	}
	return builder.Len(), nil
}
