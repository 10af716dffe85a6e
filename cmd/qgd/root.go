// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qgd",
		Short:         "Quantum gate decomposition",
		Long:          `qgd searches gate structures and angles that reproduce a unitary or a state up to a global phase.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDecomposeCmd(), newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("qgd", version)
		},
	}
}
