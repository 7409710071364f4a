package inbound

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn for 0..n-1 with at most limit calls in flight. Every index runs
// even when others fail; the failures are joined.
func forEach(limit, n int, fn func(i int) error) error {
	if limit < 1 {
		limit = 1
	}

	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = fn(i)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
