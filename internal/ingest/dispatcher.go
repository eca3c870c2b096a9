package ingest

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// WorkerFunc processes one work item. A non-nil error aborts that item's
// contribution only; it never stops the pool.
type WorkerFunc func(ctx context.Context, item WorkItem) (*ItemResult, error)

// Progress receives the monotonically advancing completion count against the
// known total. Called from worker goroutines; implementations must be safe
// for concurrent use.
type Progress func(completed, total int)

// RunAll executes fn once per work item across a fixed-size worker pool and
// collects the results. Completion order is arbitrary; every item is
// processed exactly once and the pool is fully drained before returning.
// Item-fatal errors are folded into that item's result as a Failure.
func RunAll(ctx context.Context, workers int, items []WorkItem, fn WorkerFunc, progress Progress) []*ItemResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*ItemResult, len(items))
	var completed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = &ItemResult{Failures: []Failure{{Path: items[i].Member.Name, Err: err}}}
				return nil
			}
			res, err := fn(ctx, items[i])
			if err != nil {
				res = &ItemResult{Failures: []Failure{{Path: items[i].Member.Name, Err: err}}}
			}
			results[i] = res
			if progress != nil {
				progress(int(completed.Add(1)), len(items))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
