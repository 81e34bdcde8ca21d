// Command coursedexctl runs index maintenance and ad-hoc searches against the
// configured engine, cache and record store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/app"
	"github.com/kailas-cloud/coursedex/internal/config"
	logpkg "github.com/kailas-cloud/coursedex/internal/logger"
)

var (
	envFlag   string
	levelFlag string
	rootCmd   = &cobra.Command{
		Use:           "coursedexctl",
		Short:         "Operate the coursedex search index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", config.GetEnv(), "config environment (config/{env}.yaml)")
	rootCmd.PersistentFlags().StringVar(&levelFlag, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newReindexCmd(), newUpsertCmd(), newSearchCmd(), newCourseCmd(), newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp loads config, wires the services and runs fn.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.Load(envFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(envFlag, levelFlag)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.Build(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := fn(a); err != nil {
		logger.Debug("command failed", zap.Error(err))
		return err
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v) //nolint:wrapcheck // terminal output
}
