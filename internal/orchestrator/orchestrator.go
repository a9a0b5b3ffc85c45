// Package orchestrator drives batch enrichment runs: it pulls candidate
// products from the repository, applies the transformation due at each
// product's stage, and writes the result back while respecting the store's
// rate limits. A single bad product never aborts a run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/storeops/catalogctl/internal/catalog"
	"github.com/storeops/catalogctl/internal/collections"
	"github.com/storeops/catalogctl/internal/logger"
	"github.com/storeops/catalogctl/internal/pricing"
	"github.com/storeops/catalogctl/internal/repository"
)

const defaultPageSize = 50

// Options configures an Orchestrator.
type Options struct {
	Repository  repository.Repository
	Pricing     *pricing.Engine
	Collections collections.Rules
	// SourceTag is stamped as the src: tag during enrichment.
	SourceTag string
	// WriteInterval is the minimum spacing between repository writes.
	// Zero disables self-throttling.
	WriteInterval time.Duration
	Retry         RetryPolicy
	DryRun        bool
	PageSize      int
	Logger        *logger.Logger
}

// Filter selects the products a run operates on. The zero value means one
// page of everything not yet active.
type Filter struct {
	IDs      []string
	Category string
	Limit    int
}

// Orchestrator executes batch runs. Items are processed strictly
// sequentially within a run; tag state on the store is not versioned, so
// concurrent runs over the same products can lose transitions.
type Orchestrator struct {
	repo        repository.Repository
	pricing     *pricing.Engine
	collections collections.Rules
	sourceTag   string
	retry       RetryPolicy
	dryRun      bool
	pageSize    int
	limiter     *rate.Limiter
	log         *logger.Logger

	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

// New validates the options and returns a ready Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Repository == nil {
		return nil, errors.New("orchestrator requires a repository")
	}
	if opts.Pricing == nil {
		return nil, errors.New("orchestrator requires a pricing engine")
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var limiter *rate.Limiter
	if opts.WriteInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.WriteInterval), 1)
	}

	return &Orchestrator{
		repo:        opts.Repository,
		pricing:     opts.Pricing,
		collections: opts.Collections,
		sourceTag:   opts.SourceTag,
		retry:       opts.Retry.withDefaults(),
		dryRun:      opts.DryRun,
		pageSize:    pageSize,
		limiter:     limiter,
		log:         opts.Logger.WithComponent("orchestrator"),
		sleep:       sleepCtx,
		now:         time.Now,
	}, nil
}

// Run executes one batch over a bounded page of candidates. Per-item
// failures are isolated into the report; only listing failures and
// cancellation abort the run, and prior writes are already durable so a
// partial run leaves the catalog re-runnable.
func (o *Orchestrator) Run(ctx context.Context, filter Filter) (*Report, error) {
	report := newReport(o.dryRun, o.now())

	limit := filter.Limit
	if limit <= 0 {
		limit = o.pageSize
	}

	products, err := o.repo.ListCandidates(ctx, repository.Filter{IDs: filter.IDs, Category: filter.Category}, limit)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	o.log.WithFields(map[string]any{"run_id": report.RunID, "candidates": len(products), "dry_run": o.dryRun}).Info("starting batch run")

	for _, product := range products {
		if ctx.Err() != nil {
			break
		}
		o.processItem(ctx, product, report)
	}

	report.finish(o.now())
	o.log.WithFields(map[string]any{
		"run_id":    report.RunID,
		"attempted": report.Attempted,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	}).Info("batch run finished")

	return report, ctx.Err()
}

func (o *Orchestrator) processItem(ctx context.Context, product catalog.Product, report *Report) {
	parsed, err := catalog.DecodeTags(product.Tags)
	if err != nil {
		report.addFailure(product, catalog.ActionNone, err)
		return
	}

	stage := catalog.StageFromTags(parsed)
	action := catalog.NextAction(stage)
	if action == catalog.ActionNone {
		report.addSkipped(product, "already active")
		return
	}

	var patch repository.Patch
	switch action {
	case catalog.ActionEnrich:
		o.enrich(product, &parsed)
	case catalog.ActionPrice:
		breakdown, err := o.pricing.Compute(product.Cost, parsed.Category)
		if err != nil {
			report.addFailure(product, action, err)
			return
		}
		price := breakdown.FinalPrice
		patch.Price = &price
		parsed.AddPlain(priceBandTag(price))
	case catalog.ActionAssignCollections:
		delta, mapped := o.collections.ComputeDelta(parsed.Category, product.Collections)
		if !mapped {
			warn := catalog.NewUnmappedCategoryError(parsed.Category)
			report.addWarning(product, warn.Code, warn.Message)
		}
		patch.AddCollections = delta.Add
		patch.RemoveCollections = delta.Remove
	case catalog.ActionActivate:
		// Nothing beyond the status transition.
	}

	// The status tag advances exactly one stage; on any failure below the
	// tags are left untouched on the store, so no partial advancement.
	parsed.Status = stage.Next().StatusValue()
	patch.Tags = parsed.Encode()

	if o.dryRun {
		report.addSuccess(product, action, "dry run, no writes")
		return
	}

	if err := o.writeWithRetry(ctx, product.ID, patch); err != nil {
		o.log.Error(err, "write failed for "+product.ID)
		report.addFailure(product, action, err)
		return
	}

	o.log.WithFields(map[string]any{"product_id": product.ID, "action": action.String()}).Debug("item processed")
	report.addSuccess(product, action, "")
}

// enrich fills the reserved namespaces a raw import is missing. The category
// comes from the supplier's free-form type, normalized to a tag-safe slug.
func (o *Orchestrator) enrich(product catalog.Product, parsed *catalog.ParsedTags) {
	if parsed.Category == "" {
		parsed.Category = catalog.Slugify(product.RawType)
	}
	if parsed.Source == "" {
		parsed.Source = o.sourceTag
	}
}

// writeWithRetry persists one patch, pacing writes through the limiter and
// retrying transient failures per the policy. When the store supplies a
// Retry-After hint longer than the computed backoff, the hint wins.
func (o *Orchestrator) writeWithRetry(ctx context.Context, id string, patch repository.Patch) error {
	for attempt := 0; ; attempt++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := o.repo.WriteProduct(ctx, id, patch)
		if err == nil {
			return nil
		}
		if !repository.IsRetryable(err) || attempt+1 >= o.retry.MaxAttempts {
			return err
		}

		delay := o.retry.delay(attempt)
		var rateLimited *repository.RateLimitedError
		if errors.As(err, &rateLimited) && rateLimited.RetryAfter > delay {
			delay = rateLimited.RetryAfter
		}

		if err := o.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// priceBandTag buckets a shelf price into the store's merchandising bands.
func priceBandTag(price float64) string {
	switch {
	case price < 25:
		return "price:budget"
	case price < 50:
		return "price:mid"
	case price < 100:
		return "price:premium"
	default:
		return "price:luxury"
	}
}
