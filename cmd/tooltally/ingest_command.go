package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tooltally/internal/ingest"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.jsonl> [file.jsonl...]",
		Short: "Load scraper JSONL output into the raw listing log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var total ingest.Result
			for _, path := range args {
				result, err := ingest.File(cmd.Context(), store, logger, path)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				fmt.Fprintf(out, "%s: %d read, %d inserted, %d duplicates, %d malformed\n",
					path, result.Read, result.Inserted, result.Duplicates, result.Malformed)
				total.Read += result.Read
				total.Inserted += result.Inserted
				total.Duplicates += result.Duplicates
				total.Malformed += result.Malformed
			}
			if len(args) > 1 {
				fmt.Fprintf(out, "total: %d read, %d inserted, %d duplicates, %d malformed\n",
					total.Read, total.Inserted, total.Duplicates, total.Malformed)
			}
			return nil
		},
	}
	return cmd
}
