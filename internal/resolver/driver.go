package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tooltally/internal/catalog"
	"tooltally/internal/config"
	"tooltally/internal/fingerprint"
	"tooltally/internal/matcher"
	"tooltally/internal/normalize"
	"tooltally/internal/pipeline"
)

// Phase identifies where a run currently is. Exposed for logging and for
// failure reports; transitions always move forward within one run.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseClustering Phase = "clustering"
	PhaseCommitting Phase = "committing"
	PhaseFailed     Phase = "failed"
)

// Options controls a single resolver run.
type Options struct {
	// DryRun computes the full clustering result but skips the canonical
	// write, leaving the database untouched.
	DryRun bool
	// FullRebuild reprocesses every raw listing from scratch instead of
	// only the pending ones.
	FullRebuild bool
}

// Summary reports what one run did.
type Summary struct {
	RunID       string
	Loaded      int
	Skipped     int
	TierCounts  map[fingerprint.Tier]int
	FuzzyMerges int
	NewProducts int
	Applied     catalog.ApplyResult
	DryRun      bool
	FullRebuild bool
	Duration    time.Duration
}

// Driver executes resolver runs against one catalog store.
type Driver struct {
	cfg    *config.Config
	store  *catalog.Store
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	phase Phase
}

// New constructs a driver. The lock file lives next to the database so two
// processes pointed at the same catalog cannot resolve concurrently.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Driver, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("resolver requires config and store")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "resolver.lock")
	return &Driver{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Phase returns the phase the last (or current) run reached.
func (d *Driver) Phase() Phase {
	if d.phase == "" {
		return PhaseIdle
	}
	return d.phase
}

// LockPath returns the path of the single-instance lock file.
func (d *Driver) LockPath() string {
	return d.lockPath
}

// Run executes one resolver pass. Reprocessing already-resolved input is a
// no-op: identical runs upsert into the same rows, so callers may retry a
// failed run without cleanup.
func (d *Driver) Run(ctx context.Context, opts Options) (*Summary, error) {
	ok, err := d.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire resolver lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another resolver run is already in progress")
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release resolver lock", "error", err)
		}
	}()

	started := time.Now()
	summary := &Summary{
		RunID:       uuid.NewString(),
		TierCounts:  make(map[fingerprint.Tier]int),
		DryRun:      opts.DryRun,
		FullRebuild: opts.FullRebuild,
	}
	logger := d.logger.With("run_id", summary.RunID)
	logger.Info("resolver run starting", "dry_run", opts.DryRun, "full_rebuild", opts.FullRebuild)

	fail := func(reached Phase, err error) error {
		d.phase = PhaseFailed
		logger.Error("resolver run failed", "phase", reached, "error", err)
		return err
	}

	d.phase = PhaseLoading
	rows, err := d.store.RawListings(ctx, !opts.FullRebuild)
	if err != nil {
		return nil, fail(PhaseLoading, err)
	}
	summary.Loaded = len(rows)

	m := matcher.New(matcher.Config{
		Threshold: d.cfg.Resolver.FuzzyThreshold,
		Margin:    d.cfg.Resolver.FuzzyMargin,
	})
	if !opts.FullRebuild {
		existing, err := d.store.Products(ctx)
		if err != nil {
			return nil, fail(PhaseLoading, err)
		}
		m.Seed(existing)
	}

	d.phase = PhaseClustering
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fail(PhaseClustering, err)
		}
		if strings.TrimSpace(row.Title) == "" {
			summary.Skipped++
			logger.Warn("skipping malformed listing",
				"raw_id", row.ID,
				"vendor", row.Vendor,
				"error", pipeline.Wrap(pipeline.ErrMalformedInput, "resolver", "cluster listing", "empty title", nil))
			continue
		}

		norm := normalize.Listing(row.Title, row.CategoryName)
		input := fingerprint.Input{EAN: row.EAN, MPN: row.MPN, Normalized: norm}
		decision := m.Assign(norm, fingerprint.Derive(input), input)

		summary.TierCounts[decision.Tier]++
		if decision.Created {
			summary.NewProducts++
		}
		if decision.FuzzyMatched {
			summary.FuzzyMerges++
			if d.cfg.Resolver.RecordAliases {
				decision.Draft.Aliases = append(decision.Draft.Aliases, &catalog.AliasDraft{
					RawTitle:   row.Title,
					Score:      decision.FuzzyScore,
					VendorName: row.Vendor,
				})
			}
			logger.Debug("fuzzy merge",
				"raw_id", row.ID,
				"product_key", decision.Draft.NormalizedKey,
				"score", decision.FuzzyScore)
		}

		decision.Draft.Offers = append(decision.Draft.Offers, &catalog.OfferDraft{
			VendorName: row.Vendor,
			Price:      row.Price,
			Currency:   row.Currency,
			BuyURL:     row.BuyURL,
			VendorSKU:  row.VendorSKU,
			InStock:    row.InStock,
			ScrapedAt:  row.ScrapedAt,
			RawID:      row.ID,
		})
	}

	snapshot := m.Snapshot()
	if opts.DryRun {
		d.phase = PhaseIdle
		summary.Duration = time.Since(started)
		logger.Info("resolver dry run complete",
			"loaded", summary.Loaded,
			"skipped", summary.Skipped,
			"products", len(snapshot.Products),
			"new_products", summary.NewProducts,
			"duration", summary.Duration)
		return summary, nil
	}

	d.phase = PhaseCommitting
	result, err := d.store.ApplySnapshot(ctx, snapshot, catalog.ApplyOptions{FullRebuild: opts.FullRebuild})
	if err != nil {
		return nil, fail(PhaseCommitting, err)
	}
	summary.Applied = result
	for _, conflict := range result.Conflicts {
		logger.Warn("offer conflict needs review", "error", conflict)
	}

	d.phase = PhaseIdle
	summary.Duration = time.Since(started)
	logger.Info("resolver run complete",
		"loaded", summary.Loaded,
		"skipped", summary.Skipped,
		"products_inserted", result.ProductsInserted,
		"products_updated", result.ProductsUpdated,
		"offers_inserted", result.OffersInserted,
		"offers_updated", result.OffersUpdated,
		"offers_flagged", result.OffersFlagged,
		"raw_marked", result.RawMarked,
		"duration", summary.Duration)
	return summary, nil
}
