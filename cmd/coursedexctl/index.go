package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/coursedex/internal/app"
	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
)

type failureView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type reportView struct {
	Items     int           `json:"items"`
	Indexed   int           `json:"indexed"`
	Failed    int           `json:"failed"`
	Unindexed int           `json:"unindexed"`
	Failures  []failureView `json:"failures"`
}

func toReportView(r *dombatch.Report) reportView {
	v := reportView{
		Items:     r.Processed,
		Indexed:   r.Indexed,
		Failed:    r.Failed,
		Unindexed: r.Unindexed,
		Failures:  make([]failureView, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		fv := failureView{ID: f.ID(), Status: string(f.Status())}
		if f.Err() != nil {
			fv.Reason = f.Err().Error()
		}
		v.Failures = append(v.Failures, fv)
	}
	return v
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the record store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				report, err := a.Indexer.ReindexAll(cmd.Context())
				if perr := printJSON(cmd.OutOrStdout(), toReportView(&report)); perr != nil {
					return perr
				}
				if err != nil {
					return fmt.Errorf("reindex: %w", err)
				}
				return nil
			})
		},
	}
}

func newUpsertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upsert COURSE_ID",
		Short: "Index a single course by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				report, err := a.Indexer.UpsertOne(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("upsert %s: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), toReportView(&report))
			})
		},
	}
}
