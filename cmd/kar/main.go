// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os/user"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}

	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "Only log errors")
	rootCmd.AddCommand(packCmd, listCmd, extractCmd)
}

var (
	currentUserName string
	silent          bool

	fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:          "kar",
	Short:        "Create and inspect kar resource archives",
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if silent {
			log.SetLevel(log.ErrorLevel)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("error (%v)", err)
	}
}
