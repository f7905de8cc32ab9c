package main

import (
	"context"
	"fmt"

	"asindir/client/internal/config"
	"asindir/client/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is built once per invocation by the root command's pre-run hook.
var app *container.Container

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "asinctl",
		Short:         "manage the ASIN directory: taxonomy, imports, exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			level, err := log.ParseLevel(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("invalid log.level %q: %w", cfg.Log.Level, err)
			}
			log.SetLevel(level)

			app, err = container.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			return nil
		},
	}

	root.AddCommand(
		newLevelCmd(levelCategories),
		newLevelCmd(levelRanges),
		newLevelCmd(levelProducts),
		newSelectCmd(),
		newMoveCmd(),
		newImportCmd(),
		newExportCmd(),
		newSyncCmd(),
		newLookupCmd(),
		newWorkerCmd(),
	)

	return root
}

// execute runs cmd and closes the container afterwards, also when the
// command failed.
func execute(ctx context.Context, cmd *cobra.Command) (err error) {
	defer func() {
		if app == nil {
			return
		}
		if closeErr := app.Close(); err == nil {
			err = closeErr
		}
		app = nil
	}()

	return cmd.ExecuteContext(ctx)
}
