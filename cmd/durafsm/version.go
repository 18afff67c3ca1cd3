package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/durafsm"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of durafsm",
	Args:  cobra.NoArgs,
	// Printing the version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "durafsm version %s\n", strings.TrimSpace(durafsm.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
