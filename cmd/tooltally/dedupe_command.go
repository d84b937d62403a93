package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tooltally/internal/dedupe"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Collapse duplicate offers per product and vendor",
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

			result, err := dedupe.Run(cmd.Context(), store, logger, dedupe.Options{DryRun: dryRun})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.DryRun {
				fmt.Fprintf(out, "dry run: %d duplicate offers across %d vendor groups; nothing deleted\n",
					result.Duplicates, result.Groups)
				return nil
			}
			fmt.Fprintf(out, "deleted %d duplicate offers across %d vendor groups\n",
				result.Deleted, result.Groups)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report duplicates without deleting")
	return cmd
}
