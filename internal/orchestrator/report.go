package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/catalogctl/internal/catalog"
	"github.com/storeops/catalogctl/internal/repository"
)

func classify(err error) catalog.ErrorCode {
	return repository.ClassifyError(err)
}

// ItemStatus classifies the outcome of one product within a run.
type ItemStatus string

const (
	ItemSucceeded ItemStatus = "succeeded"
	ItemFailed    ItemStatus = "failed"
	ItemSkipped   ItemStatus = "skipped"
)

// ItemResult records what happened to a single product.
type ItemResult struct {
	ProductID string
	Title     string
	Action    catalog.Action
	Status    ItemStatus
	ErrorKind catalog.ErrorCode
	Message   string
}

// Warning flags a non-fatal condition worth operator attention, such as a
// category with no collection mapping.
type Warning struct {
	ProductID string
	Kind      catalog.ErrorCode
	Message   string
}

// Report aggregates the outcome of one batch run. It is created fresh per
// run and immutable once finished.
type Report struct {
	RunID      string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Attempted  int
	Succeeded  int
	Failed     int
	Skipped    int
	Items      []ItemResult
	Warnings   []Warning
}

func newReport(dryRun bool, now time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		DryRun:    dryRun,
		StartedAt: now,
	}
}

func (r *Report) addSuccess(product catalog.Product, action catalog.Action, message string) {
	r.Attempted++
	r.Succeeded++
	r.Items = append(r.Items, ItemResult{
		ProductID: product.ID,
		Title:     product.Title,
		Action:    action,
		Status:    ItemSucceeded,
		Message:   message,
	})
}

func (r *Report) addFailure(product catalog.Product, action catalog.Action, err error) {
	r.Attempted++
	r.Failed++
	r.Items = append(r.Items, ItemResult{
		ProductID: product.ID,
		Title:     product.Title,
		Action:    action,
		Status:    ItemFailed,
		ErrorKind: classify(err),
		Message:   err.Error(),
	})
}

func (r *Report) addSkipped(product catalog.Product, message string) {
	r.Skipped++
	r.Items = append(r.Items, ItemResult{
		ProductID: product.ID,
		Title:     product.Title,
		Action:    catalog.ActionNone,
		Status:    ItemSkipped,
		Message:   message,
	})
}

func (r *Report) addWarning(product catalog.Product, kind catalog.ErrorCode, message string) {
	r.Warnings = append(r.Warnings, Warning{
		ProductID: product.ID,
		Kind:      kind,
		Message:   message,
	})
}

func (r *Report) finish(now time.Time) {
	r.FinishedAt = now
}

// Summary renders a human-readable digest of the run.
func (r *Report) Summary() string {
	var b strings.Builder

	mode := "run"
	if r.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(&b, "%s %s: %d attempted, %d succeeded, %d failed, %d skipped (%s)\n",
		mode, r.RunID, r.Attempted, r.Succeeded, r.Failed, r.Skipped,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	for _, item := range r.Items {
		if item.Status != ItemFailed {
			continue
		}
		fmt.Fprintf(&b, "  failed %s (%s): [%s] %s\n", item.ProductID, item.Action, item.ErrorKind, item.Message)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(&b, "  warning %s: [%s] %s\n", warning.ProductID, warning.Kind, warning.Message)
	}

	return b.String()
}
