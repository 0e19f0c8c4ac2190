package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tsupplyd",
		Short: "TREVEE Supply Reporting Daemon",
	}

	InitRootCmd(rootCmd) // add subcommands like `init`, `start` and `version`

	return rootCmd
}
