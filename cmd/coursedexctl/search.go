package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/coursedex/internal/app"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
)

type searchView struct {
	FromCache bool              `json:"fromCache"`
	Degraded  bool              `json:"degraded,omitempty"`
	Data      []domdoc.Document `json:"data"`
}

func newSearchCmd() *cobra.Command {
	var (
		keyword, university, level string
		minPrice, maxPrice         float64
		limit                      int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a course search through the cache and engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var lo, hi *float64
			if cmd.Flags().Changed("min") {
				lo = &minPrice
			}
			if cmd.Flags().Changed("max") {
				hi = &maxPrice
			}
			c, err := criteria.New(keyword, university, level, lo, hi)
			if err != nil {
				return err //nolint:wrapcheck // already descriptive
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Search.Search(cmd.Context(), c, limit)
				if err != nil {
					return err //nolint:wrapcheck // already descriptive
				}
				return printJSON(cmd.OutOrStdout(), searchView{
					FromCache: res.FromCache,
					Degraded:  res.Degraded,
					Data:      res.Documents,
				})
			})
		},
	}
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "free-text keyword")
	cmd.Flags().StringVarP(&university, "university", "u", "all", "university code or name")
	cmd.Flags().StringVarP(&level, "level", "l", "all", "course level")
	cmd.Flags().Float64Var(&minPrice, "min", 0, "minimum tuition")
	cmd.Flags().Float64Var(&maxPrice, "max", 0, "maximum tuition")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	return cmd
}
