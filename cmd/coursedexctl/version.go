package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/coursedex/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of coursedexctl",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coursedexctl %s\n", version.String())
		},
	}
}
