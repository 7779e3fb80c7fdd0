// Package bulk applies one lifecycle operation to a list of record ids.
// Each item runs independently; one item's failure never aborts the
// rest, and no global rollback exists. A bulk archive of ten records
// where seven succeed leaves the seven archived.
package bulk

import (
	"context"

	"golang.org/x/sync/errgroup"

	"parish/internal/core/apperror"
	"parish/internal/core/id"
	"parish/internal/domain/lifecycle"
	"parish/internal/metrics"
)

// DefaultWorkers bounds parallel item processing.
const DefaultWorkers = 4

// ItemFailure records why one id could not be transitioned.
type ItemFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result is the aggregate outcome of a bulk operation.
// Success + len(Failed) always equals the number of input ids.
type Result struct {
	Success int           `json:"success"`
	Failed  []ItemFailure `json:"failed"`
}

// Options carries the per-item archive options for bulk archives.
type Options struct {
	Cascade       bool
	ReplacementID id.ID
}

// Coordinator fans a lifecycle operation out over many ids.
//
// Once submitted a batch runs to completion over all ids; there is no
// mid-flight cancellation. Callers with very large id lists should
// chunk them.
type Coordinator struct {
	manager *lifecycle.Manager
	workers int
	metrics *metrics.Metrics
}

// NewCoordinator creates a coordinator. workers <= 0 selects
// DefaultWorkers. Metrics is optional.
func NewCoordinator(manager *lifecycle.Manager, workers int, m *metrics.Metrics) *Coordinator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Coordinator{manager: manager, workers: workers, metrics: m}
}

// Archive applies Archive to every id.
func (c *Coordinator) Archive(ctx context.Context, ids []id.ID, actor string, opts Options) (*Result, error) {
	return c.apply(ctx, ids, func(ctx context.Context, recordID id.ID) error {
		_, err := c.manager.Archive(ctx, recordID, actor, lifecycle.ArchiveOptions{
			Cascade:       opts.Cascade,
			ReplacementID: opts.ReplacementID,
		})
		return err
	})
}

// Restore applies Restore to every id.
func (c *Coordinator) Restore(ctx context.Context, ids []id.ID, actor string) (*Result, error) {
	return c.apply(ctx, ids, func(ctx context.Context, recordID id.ID) error {
		_, err := c.manager.Restore(ctx, recordID, actor)
		return err
	})
}

// Purge applies Purge to every id.
func (c *Coordinator) Purge(ctx context.Context, ids []id.ID, actor string) (*Result, error) {
	return c.apply(ctx, ids, func(ctx context.Context, recordID id.ID) error {
		return c.manager.Purge(ctx, recordID, actor)
	})
}

// apply runs op over every id on a bounded worker pool, capturing each
// outcome by input position. Failures are reported in input order.
// Duplicate ids are processed once per occurrence; a later occurrence
// that sees the status changed by an earlier one fails accordingly,
// which is correct.
func (c *Coordinator) apply(ctx context.Context, ids []id.ID, op func(context.Context, id.ID) error) (*Result, error) {
	// A malformed batch is a precondition failure outside the loop.
	if len(ids) == 0 {
		return nil, apperror.NewValidation("id list must not be empty")
	}
	for _, recordID := range ids {
		if id.IsNil(recordID) {
			return nil, apperror.NewValidation("id list contains an empty id")
		}
	}

	outcomes := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, recordID := range ids {
		g.Go(func() error {
			// each goroutine owns its own slot, no shared state
			outcomes[i] = op(ctx, recordID)
			return nil
		})
	}
	// workers never return errors; per-item failures live in outcomes
	_ = g.Wait()

	result := &Result{}
	for i, err := range outcomes {
		if err == nil {
			result.Success++
			continue
		}
		result.Failed = append(result.Failed, ItemFailure{
			ID:     ids[i].String(),
			Reason: apperror.Render(err),
		})
	}

	if c.metrics != nil {
		c.metrics.AddBulkItems(len(ids))
	}
	return result, nil
}
