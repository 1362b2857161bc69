// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/devblok/korures/resource"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func init() {
	loadCmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	loadCmd.Flags().BoolVar(&hold, "hold", false, "Keep references until all locations are loaded")
}

var (
	asJSON bool
	hold   bool
)

var loadCmd = &cobra.Command{
	Use:   "load <location>...",
	Short: "Load locations through the pool and report the outcome",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		rep := loadLocations(engine.Pool(), args, hold)
		if err := rep.write(cmd.OutOrStdout(), asJSON); err != nil {
			return err
		}
		if rep.Failed > 0 {
			return fmt.Errorf("%d of %d locations failed to load", rep.Failed, len(rep.Results))
		}
		return nil
	},
}

type result struct {
	Index    int    `json:"index"`
	Location string `json:"location"`
	Type     string `json:"type,omitempty"`
	Error    string `json:"error,omitempty"`
}

type report struct {
	Pool       string              `json:"pool"`
	Results    []result            `json:"results"`
	Failed     int                 `json:"failed"`
	Statistics resource.Statistics `json:"statistics"`
}

// loadLocations fetches every location once. Unless hold is set each
// resource is released right after it was loaded.
func loadLocations(pool *resource.Pool, names []string, hold bool) report {
	rep := report{
		Pool: pool.Name(),
	}

	var held []int
	for _, name := range names {
		idx := pool.AddFile(name)
		res := result{
			Index:    idx,
			Location: name,
		}

		r, err := pool.Get(idx, true)
		if err != nil {
			res.Error = err.Error()
			rep.Failed++
		} else {
			res.Type = strings.TrimPrefix(fmt.Sprintf("%T", r), "*")
			if hold {
				held = append(held, idx)
			} else {
				pool.Release(idx, true)
			}
		}
		rep.Results = append(rep.Results, res)
	}

	rep.Statistics = pool.Statistics()
	for _, idx := range held {
		pool.Release(idx, true)
	}
	return rep
}

func (r report) write(w io.Writer, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	for _, res := range r.Results {
		if res.Error != "" {
			fmt.Fprintf(w, "#%d %s: %s\n", res.Index, res.Location, res.Error)
			continue
		}
		fmt.Fprintf(w, "#%d %s: %s\n", res.Index, res.Location, res.Type)
	}
	s := r.Statistics
	_, err := fmt.Fprintf(w, "pool %s: %d loaded, %d not loaded, %d locked, %d total\n",
		r.Pool, s.Loaded, s.NotLoaded, s.Locked, s.Total)
	return err
}
