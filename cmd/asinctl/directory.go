package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"asindir/client/internal/asin"
	"asindir/client/internal/service"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "add ASINs to the directory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "bulk [FILE]",
		Short: "import ASINs separated by newlines, commas, semicolons or spaces; reads stdin without FILE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				text []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				text, err = io.ReadAll(cmd.InOrStdin())
			} else {
				text, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			sub, err := app.Service.SubmitBulkText(cmd.Context(), string(text))
			if sub != nil {
				printSubmission(cmd.OutOrStdout(), sub)
			}
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "csv FILE",
		Short: "import the ASIN column of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			info, err := os.Stat(name)
			if err != nil {
				return err
			}
			if err := asin.CheckImportFile(name, info.Size(), app.Config.Import.MaxFileSize); err != nil {
				return err
			}

			data, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}

			sub, err := app.Service.SubmitCsvFile(cmd.Context(), info.Name(), data)
			if sub != nil {
				printSubmission(cmd.OutOrStdout(), sub)
			}
			return err
		},
	})

	return cmd
}

func printSubmission(w io.Writer, sub *service.Submission) {
	fmt.Fprintf(w, "%d valid ASINs\n", sub.Submitted)
	if len(sub.Invalid) > 0 {
		fmt.Fprintf(w, "%d invalid: %s\n", len(sub.Invalid), strings.Join(sub.Invalid, ", "))
	}
	for _, rowErr := range sub.RowErrors {
		fmt.Fprintf(w, "row %d: %q %s\n", rowErr.Row, rowErr.Asin, rowErr.Reason)
	}
	if len(sub.Duplicates) > 0 {
		fmt.Fprintf(w, "%d repeated in input: %s\n", len(sub.Duplicates), strings.Join(sub.Duplicates, ", "))
	}

	switch {
	case sub.MessageID != "":
		fmt.Fprintf(w, "Queued as %s\n", sub.MessageID)
	case sub.Result != nil:
		fmt.Fprintf(w, "Added %d, already present %d\n", sub.Result.Added, sub.Result.Duplicates)
		for _, msg := range sub.Result.Errors {
			fmt.Fprintln(w, msg)
		}
	}
}

func newExportCmd() *cobra.Command {
	var search, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "write the directory's ASINs to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = asin.ExportFilename(time.Now())
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}

			n, err := app.Service.ExportCsv(cmd.Context(), search, f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return errors.Join(err, os.Remove(output))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d ASINs to %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only export records matching this search")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default asin-directory-<date>.csv)")

	return cmd
}

func newSyncCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "archive a snapshot of the directory into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.Service.SyncDirectory(cmd.Context(), search)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d records from %d pages\n", results.Total, results.TotalPages)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only archive records matching this search")

	return cmd
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup ASIN",
		Short: "fetch title, price, brand and images of one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := app.Lookup.LookupProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(details)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "consume queued imports until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers <= 0 {
				workers = app.Config.API.MaxWorkers
			}
			return app.Run(cmd.Context(), workers)
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "consumers per stream (default api.max_workers)")

	return cmd
}
