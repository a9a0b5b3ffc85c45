// Package graceful provides a signal-aware context for clean shutdowns.
package graceful

import (
	"context"
	"os/signal"
	"syscall"
)

// Context returns a context cancelled on SIGINT or SIGTERM. Batch runs stop
// between items, so cancellation always leaves the catalog in a valid,
// re-runnable state.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
