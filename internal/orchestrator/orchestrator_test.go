package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storeops/catalogctl/internal/catalog"
	"github.com/storeops/catalogctl/internal/collections"
	"github.com/storeops/catalogctl/internal/pricing"
	"github.com/storeops/catalogctl/internal/repository"
)

type writeCall struct {
	id    string
	patch repository.Patch
}

// fakeRepo is an in-memory repository that applies patches like the real
// store would, so multi-pass convergence can be exercised end to end.
type fakeRepo struct {
	order      []string
	products   map[string]*catalog.Product
	writes     []writeCall
	writeFails map[string][]error
}

func newFakeRepo(products ...catalog.Product) *fakeRepo {
	repo := &fakeRepo{
		products:   make(map[string]*catalog.Product, len(products)),
		writeFails: make(map[string][]error),
	}
	for i := range products {
		p := products[i]
		repo.order = append(repo.order, p.ID)
		repo.products[p.ID] = &p
	}
	return repo
}

func (f *fakeRepo) failNextWrite(id string, errs ...error) {
	f.writeFails[id] = append(f.writeFails[id], errs...)
}

func (f *fakeRepo) ListCandidates(_ context.Context, filter repository.Filter, limit int) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range f.order {
		if len(filter.IDs) > 0 && !contains(filter.IDs, id) {
			continue
		}
		out = append(out, *f.products[id])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, repository.ErrNotFound
	}
	return *p, nil
}

func (f *fakeRepo) WriteProduct(_ context.Context, id string, patch repository.Patch) error {
	if queue := f.writeFails[id]; len(queue) > 0 {
		err := queue[0]
		f.writeFails[id] = queue[1:]
		return err
	}

	f.writes = append(f.writes, writeCall{id: id, patch: patch})

	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Tags != nil {
		p.Tags = patch.Tags
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	for _, col := range patch.AddCollections {
		if !contains(p.Collections, col) {
			p.Collections = append(p.Collections, col)
		}
	}
	for _, col := range patch.RemoveCollections {
		p.Collections = remove(p.Collections, col)
	}
	return nil
}

func (f *fakeRepo) writesFor(id string) []writeCall {
	var out []writeCall
	for _, w := range f.writes {
		if w.id == id {
			out = append(out, w)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	var out []string
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func testEngine(t *testing.T) *pricing.Engine {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.RuleSet{
		pricing.DefaultCategory: {
			Markup:           2.5,
			MinPrice:         29.90,
			RoundSuffix:      0.90,
			ShippingEstimate: 5,
			ImportTaxRate:    0.15,
			VATRate:          0.18,
		},
	}, pricing.InstallmentPlan{})
	require.NoError(t, err)
	return engine
}

func testCollections() collections.Rules {
	return collections.NewRules(map[string][]string{
		"earrings": {"col-earrings", "col-jewelry"},
	})
}

func newTestOrchestrator(t *testing.T, repo repository.Repository, mutate func(*Options)) (*Orchestrator, *[]time.Duration) {
	t.Helper()

	opts := Options{
		Repository:  repo,
		Pricing:     testEngine(t),
		Collections: testCollections(),
		SourceTag:   "dsers",
		Retry:       RetryPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 40 * time.Millisecond},
	}
	if mutate != nil {
		mutate(&opts)
	}

	orch, err := New(opts)
	require.NoError(t, err)

	var slept []time.Duration
	orch.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return orch, &slept
}

func rawProduct(id string) catalog.Product {
	return catalog.Product{
		ID:      id,
		Title:   "Gold Hoop Earrings",
		RawType: "Earrings",
		Cost:    8,
	}
}

func TestRunEnrichesRawProduct(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"))
	orch, _ := newTestOrchestrator(t, repo, nil)

	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)
	require.Zero(t, report.Failed)

	writes := repo.writesFor("p1")
	require.Len(t, writes, 1)

	parsed, err := catalog.DecodeTags(writes[0].patch.Tags)
	require.NoError(t, err)
	require.Equal(t, "enriched", parsed.Status)
	require.Equal(t, "dsers", parsed.Source)
	require.Equal(t, "earrings", parsed.Category)
	require.Nil(t, writes[0].patch.Price)
}

func TestRunConvergesToActiveInFourPasses(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"))
	orch, _ := newTestOrchestrator(t, repo, nil)

	for pass := 1; pass <= 4; pass++ {
		report, err := orch.Run(context.Background(), Filter{})
		require.NoError(t, err)
		require.Equal(t, 1, report.Succeeded, "pass %d", pass)
	}

	product, err := repo.GetProduct(context.Background(), "p1")
	require.NoError(t, err)

	parsed, err := catalog.DecodeTags(product.Tags)
	require.NoError(t, err)
	require.Equal(t, catalog.StageActive, catalog.StageFromTags(parsed))
	require.Equal(t, 45.90, product.Price)
	require.ElementsMatch(t, []string{"col-earrings", "col-jewelry"}, product.Collections)
	require.True(t, parsed.HasPlain("price:mid"))

	// Fifth pass is a pure no-op.
	writesBefore := len(repo.writes)
	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.Zero(t, report.Attempted)
	require.Equal(t, 1, report.Skipped)
	require.Len(t, repo.writes, writesBefore)
}

func TestRunIsolatesMalformedTagSet(t *testing.T) {
	t.Parallel()

	bad := rawProduct("p2")
	bad.Tags = []string{"cat:earrings", "cat:bags"}

	repo := newFakeRepo(rawProduct("p1"), bad, rawProduct("p3"))
	orch, _ := newTestOrchestrator(t, repo, nil)

	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, report.Attempted)
	require.Equal(t, 2, report.Succeeded)
	require.Equal(t, 1, report.Failed)

	var failure ItemResult
	for _, item := range report.Items {
		if item.Status == ItemFailed {
			failure = item
		}
	}
	require.Equal(t, "p2", failure.ProductID)
	require.Equal(t, catalog.ErrCodeMalformedTagSet, failure.ErrorKind)

	// The healthy neighbours were still written.
	require.Len(t, repo.writesFor("p1"), 1)
	require.Len(t, repo.writesFor("p3"), 1)
	require.Empty(t, repo.writesFor("p2"))
}

func TestRunUnmappedCategoryStillAdvances(t *testing.T) {
	t.Parallel()

	product := rawProduct("p1")
	product.Tags = []string{"status:priced", "src:dsers", "cat:hats"}

	repo := newFakeRepo(product)
	orch, _ := newTestOrchestrator(t, repo, nil)

	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, catalog.ErrCodeUnmappedCategory, report.Warnings[0].Kind)

	writes := repo.writesFor("p1")
	require.Len(t, writes, 1)
	require.Empty(t, writes[0].patch.AddCollections)
	require.Empty(t, writes[0].patch.RemoveCollections)

	parsed, err := catalog.DecodeTags(writes[0].patch.Tags)
	require.NoError(t, err)
	require.Equal(t, "collected", parsed.Status)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"), rawProduct("p2"))
	orch, _ := newTestOrchestrator(t, repo, func(o *Options) { o.DryRun = true })

	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.True(t, report.DryRun)
	require.Equal(t, 2, report.Succeeded)
	require.Empty(t, repo.writes)
}

func TestRunRetriesRateLimitedWrites(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"))
	repo.failNextWrite("p1",
		&repository.RateLimitedError{},
		&repository.TransientError{Err: context.DeadlineExceeded},
	)

	orch, slept := newTestOrchestrator(t, repo, nil)

	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)
	require.Len(t, repo.writesFor("p1"), 1)

	// Two backoffs: base, then doubled.
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)
}

func TestRunHonoursRetryAfterHint(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"))
	repo.failNextWrite("p1", &repository.RateLimitedError{RetryAfter: time.Second})

	orch, slept := newTestOrchestrator(t, repo, nil)

	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, []time.Duration{time.Second}, *slept)
}

func TestRunMarksItemFailedAfterRetryCeiling(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"), rawProduct("p2"))
	repo.failNextWrite("p1",
		&repository.RateLimitedError{},
		&repository.RateLimitedError{},
		&repository.RateLimitedError{},
	)

	orch, _ := newTestOrchestrator(t, repo, nil)

	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Succeeded)

	require.Equal(t, catalog.ErrCodeRateLimited, report.Items[0].ErrorKind)
	require.Len(t, repo.writesFor("p2"), 1)
}

func TestRunSkipsVanishedProduct(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"))
	repo.failNextWrite("p1", repository.ErrNotFound)

	orch, _ := newTestOrchestrator(t, repo, nil)

	report, err := orch.Run(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, catalog.ErrCodeNotFound, report.Items[0].ErrorKind)
}

func TestRunStopsBetweenItemsOnCancel(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"), rawProduct("p2"), rawProduct("p3"))
	orch, _ := newTestOrchestrator(t, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := orch.Run(ctx, Filter{})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, report.Attempted)
	require.Empty(t, repo.writes)
}

func TestRunFilterByIDs(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(rawProduct("p1"), rawProduct("p2"), rawProduct("p3"))
	orch, _ := newTestOrchestrator(t, repo, nil)

	report, err := orch.Run(context.Background(), Filter{IDs: []string{"p2"}})
	require.NoError(t, err)
	require.Equal(t, 1, report.Attempted)
	require.Len(t, repo.writesFor("p2"), 1)
	require.Empty(t, repo.writesFor("p1"))
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Pricing: testEngine(t)})
	require.Error(t, err)

	_, err = New(Options{Repository: newFakeRepo()})
	require.Error(t, err)
}
