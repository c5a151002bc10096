package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sushrusha/sushrusha"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sushrusha",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sushrusha version %s\n", strings.TrimSpace(sushrusha.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
