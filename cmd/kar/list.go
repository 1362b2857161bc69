// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/devblok/korures/utility/kar"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the files stored in an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ar, f, err := openArchive(fs, args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return listArchive(cmd.OutOrStdout(), ar)
	},
}

func openArchive(fs afero.Fs, path string) (*kar.Archive, afero.File, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ar, err := kar.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "opening %s", path)
	}
	return ar, f, nil
}

func listArchive(w io.Writer, ar *kar.Archive) error {
	header := ar.Header()
	fmt.Fprintf(w, "author: %s, version: %d, created: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).UTC().Format(time.RFC3339))

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tCOMPRESSED")
	for _, e := range header.Index {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", e.Name, e.Size, e.CompressedSize)
	}
	return tw.Flush()
}
