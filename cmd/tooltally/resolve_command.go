package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"tooltally/internal/fingerprint"
	"tooltally/internal/resolver"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var fullRebuild bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Cluster pending raw listings into canonical products and offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			driver, err := resolver.New(cfg, store, logger)
			if err != nil {
				return err
			}
			summary, err := driver.Run(cmd.Context(), resolver.Options{
				DryRun:      dryRun,
				FullRebuild: fullRebuild,
			})
			if err != nil {
				return err
			}

			printResolveSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the clustering result without writing")
	cmd.Flags().BoolVar(&fullRebuild, "full-rebuild", false, "Reprocess every raw listing from scratch")
	return cmd
}

func printResolveSummary(cmd *cobra.Command, summary *resolver.Summary) {
	out := cmd.OutOrStdout()

	mode := "resolve"
	if summary.FullRebuild {
		mode = "full rebuild"
	}
	if summary.DryRun {
		mode += " (dry run)"
	}
	fmt.Fprintf(out, "%s run %s: %d listings loaded, %d skipped in %s\n",
		mode, summary.RunID, summary.Loaded, summary.Skipped, summary.Duration.Round(time.Millisecond))

	tiers := make([]fingerprint.Tier, 0, len(summary.TierCounts))
	for tier := range summary.TierCounts {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	rows := make([][]string, 0, len(tiers))
	for _, tier := range tiers {
		rows = append(rows, []string{string(tier), fmt.Sprintf("%d", summary.TierCounts[tier])})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Tier", "Listings"},
			rows,
			[]columnAlignment{alignLeft, alignRight},
		))
	}

	if summary.DryRun {
		fmt.Fprintf(out, "would create %d products (%d fuzzy merges); nothing written\n",
			summary.NewProducts, summary.FuzzyMerges)
		return
	}
	applied := summary.Applied
	fmt.Fprintf(out, "products: %d inserted, %d updated; offers: %d inserted, %d updated, %d flagged; %d raw rows marked\n",
		applied.ProductsInserted, applied.ProductsUpdated,
		applied.OffersInserted, applied.OffersUpdated, applied.OffersFlagged,
		applied.RawMarked)
}
