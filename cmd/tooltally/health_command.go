package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report catalog counts, merge tiers, and top clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()

			check, err := store.CheckHealth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "database: %s\n", check.DBPath)
			fmt.Fprintf(out, "readable: %s  integrity: %s\n", yesNo(check.DatabaseReadable), yesNo(check.IntegrityCheck))
			if len(check.MissingTables) > 0 {
				fmt.Fprintf(out, "missing tables: %v\n", check.MissingTables)
			}
			if checkOnly {
				return nil
			}

			report, err := store.Health(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Metric", "Count"},
				[][]string{
					{"raw listings", strconv.Itoa(report.RawListings)},
					{"raw unprocessed", strconv.Itoa(report.RawUnprocessed)},
					{"products", strconv.Itoa(report.Products)},
					{"offers", strconv.Itoa(report.Offers)},
					{"vendors", strconv.Itoa(report.Vendors)},
					{"categories", strconv.Itoa(report.Categories)},
					{"multi-vendor products", strconv.Itoa(report.MultiVendorProducts)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))

			tierRows := make([][]string, 0, len(report.TierBreakdown))
			for _, tier := range []string{"ean", "mpn", "model", "fuzzy"} {
				tierRows = append(tierRows, []string{tier, strconv.Itoa(report.TierBreakdown[tier])})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tier", "Products"},
				tierRows,
				[]columnAlignment{alignLeft, alignRight},
			))

			if len(report.TopClusters) > 0 {
				clusterRows := make([][]string, 0, len(report.TopClusters))
				for _, cluster := range report.TopClusters {
					clusterRows = append(clusterRows, []string{
						strconv.FormatInt(cluster.ProductID, 10),
						cluster.Name,
						cluster.NormalizedKey,
						strconv.Itoa(cluster.VendorCount),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Product", "Key", "Vendors"},
					clusterRows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only verify database presence and integrity")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
