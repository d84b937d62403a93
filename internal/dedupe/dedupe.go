// Package dedupe collapses duplicate offers left behind by overlapping
// scrapes. Within each (product, vendor) group one offer survives: in-stock
// beats out-of-stock, then lowest price, then newest scrape, then newest row.
package dedupe

import (
	"context"
	"log/slog"

	"tooltally/internal/catalog"
)

// Options controls a dedupe pass.
type Options struct {
	// DryRun reports what would be removed without deleting anything.
	DryRun bool
}

// Result reports what a dedupe pass found and removed. Groups counts only
// the (product, vendor) groups that held at least one duplicate; clean
// groups do not inflate it.
type Result struct {
	Groups     int
	Duplicates int
	Deleted    int64
	DryRun     bool
}

type groupKey struct {
	productID int64
	vendorID  int64
}

// Run removes duplicate offers. The store returns offers ordered by the
// keep-preference within each (product, vendor) group, so the first row of a
// group is the keeper and the rest are duplicates. Running on a clean
// catalog is a no-op.
func Run(ctx context.Context, store *catalog.Store, logger *slog.Logger, opts Options) (Result, error) {
	result := Result{DryRun: opts.DryRun}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	offers, err := store.Offers(ctx)
	if err != nil {
		return result, err
	}

	var (
		doomed  []int64
		current groupKey
		seen    bool
		counted bool
	)
	for _, offer := range offers {
		key := groupKey{productID: offer.ProductID, vendorID: offer.VendorID}
		if !seen || key != current {
			current = key
			seen = true
			counted = false
			continue
		}
		if !counted {
			counted = true
			result.Groups++
		}
		doomed = append(doomed, offer.ID)
		result.Duplicates++
		logger.Debug("duplicate offer",
			"offer_id", offer.ID,
			"product_id", offer.ProductID,
			"vendor_id", offer.VendorID,
			"price", offer.Price)
	}

	if opts.DryRun || len(doomed) == 0 {
		return result, nil
	}

	deleted, err := store.DeleteOffers(ctx, doomed)
	if err != nil {
		return result, err
	}
	result.Deleted = deleted
	logger.Info("dedupe complete", "groups", result.Groups, "deleted", deleted)
	return result, nil
}
