// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/devblok/korures/core"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "koru.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "Environment files loaded before the configuration")
	rootCmd.AddCommand(loadCmd, runCmd)
}

var (
	configPath string
	envFiles   []string

	fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:          "koru",
	Short:        "Load resources through a configured resource pool",
	SilenceUsage: true,
}

// newEngine loads the configuration and builds an engine from it.
func newEngine() (*core.Engine, error) {
	if len(envFiles) > 0 {
		if err := core.LoadEnvironment(envFiles...); err != nil {
			return nil, err
		}
	}

	cfg, err := core.LoadConfiguration(fs, configPath)
	if err != nil {
		return nil, err
	}
	return core.NewEngine(cfg, fs)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("error (%v)", err)
	}
}
