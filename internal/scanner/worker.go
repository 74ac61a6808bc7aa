package scanner

import (
	"context"
	"sync"
)

// ProbeFunc probes one work item and returns its classified result. It must
// not block past ctx and must report failures through Result.Err.
type ProbeFunc func(ctx context.Context, item WorkItem) Result

// WorkerConfig holds options for the worker pool.
type WorkerConfig struct {
	Threads   int
	Throttler *Throttler // nil = no delay
	Pauser    *Pauser    // nil = no pause support
}

// RunWorkerPool fans out work items across workers and returns a channel
// of results. The channel is closed when all items have been processed or
// the context is done; items never started after cancellation produce no
// result.
func RunWorkerPool(
	ctx context.Context,
	items []WorkItem,
	cfg WorkerConfig,
	probe ProbeFunc,
) <-chan Result {
	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}
	itemsCh := make(chan WorkItem, threads*2)
	resultsCh := make(chan Result, threads*2)

	var wg sync.WaitGroup

	// Producer: feed items into channel.
	go func() {
		defer close(itemsCh)
		for _, item := range items {
			select {
			case itemsCh <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Workers: consume items, produce results.
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemsCh {
				if err := cfg.Pauser.Wait(ctx); err != nil {
					return
				}
				if cfg.Throttler != nil {
					if err := cfg.Throttler.Wait(ctx); err != nil {
						return
					}
				}
				if ctx.Err() != nil {
					return
				}
				resultsCh <- probe(ctx, item)
			}
		}()
	}

	// Closer: when all workers finish, close the results channel.
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	return resultsCh
}
