package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/coursedex/internal/app"
)

func newCourseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "course [id]",
		Short: "Print one course record, or all of them, from the record store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if len(args) == 0 {
					courses, err := a.Catalog.List(cmd.Context())
					if err != nil {
						return err //nolint:wrapcheck // already descriptive
					}
					return printJSON(cmd.OutOrStdout(), courses)
				}
				c, err := a.Catalog.Get(cmd.Context(), args[0])
				if err != nil {
					return err //nolint:wrapcheck // already descriptive
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
}
