package worker

import (
	"context"
	"sync"
)

// RunIndexed runs fn for every index in [0, n) with at most workers calls
// in flight. Each index owns its own result slot on the caller's side, so
// input order survives concurrency without locks or result channels.
//
// When ctx is cancelled, no new indexes start; in-flight calls see the
// cancelled context and RunIndexed returns ctx.Err().
func RunIndexed(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		// Checked before the select: a select with both cases ready
		// picks at random, and cancellation must win.
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, i)
		}(i)
	}

	wg.Wait()
	return nil
}
