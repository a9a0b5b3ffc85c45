// Package repository defines the narrow interface the pipeline uses to talk
// to the remote catalog store, plus the transport error types the
// orchestrator's retry policy keys off.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storeops/catalogctl/internal/catalog"
)

// Filter narrows candidate listing. Zero value means "everything not yet
// active", bounded by the limit passed to ListCandidates.
type Filter struct {
	IDs      []string
	Category string
}

// Patch describes a partial product update. Nil / empty fields are left
// untouched on the remote record so externally managed fields are never
// clobbered.
type Patch struct {
	Tags              []string
	Price             *float64
	AddCollections    []string
	RemoveCollections []string
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.Tags == nil && p.Price == nil && len(p.AddCollections) == 0 && len(p.RemoveCollections) == 0
}

// Repository is the product store consumed by the orchestrator. All writes
// are patches, never full overwrites. Implementations are expected to return
// the typed errors below for conditions the caller can act on.
type Repository interface {
	ListCandidates(ctx context.Context, filter Filter, limit int) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	WriteProduct(ctx context.Context, id string, patch Patch) error
}

// ErrNotFound signals that the product vanished between listing and access.
var ErrNotFound = errors.New("product not found")

// RateLimitedError signals that the store rejected the call for pacing
// reasons. RetryAfter is advisory and may be zero.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by store, retry after %s", e.RetryAfter)
	}
	return "rate limited by store"
}

// TransientError wraps a network or 5xx class failure worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is a transient condition the caller
// should retry with backoff.
func IsRetryable(err error) bool {
	var rateLimited *RateLimitedError
	if errors.As(err, &rateLimited) {
		return true
	}
	var transient *TransientError
	return errors.As(err, &transient)
}

// ClassifyError maps a repository error onto the domain error taxonomy used
// by run reports.
func ClassifyError(err error) catalog.ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return catalog.ErrCodeNotFound
	default:
		var rateLimited *RateLimitedError
		if errors.As(err, &rateLimited) {
			return catalog.ErrCodeRateLimited
		}
		var transient *TransientError
		if errors.As(err, &transient) {
			return catalog.ErrCodeTransient
		}
		return catalog.CodeOf(err)
	}
}
