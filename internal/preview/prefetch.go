package preview

import (
	"context"
	"errors"
	"sync"
)

// maxConcurrentLoads bounds preview loads per batch.
const maxConcurrentLoads = 5

// Prefetch loads previews with a bounded worker pool. It returns once every
// preview has been attempted; failures are joined.
func Prefetch(ctx context.Context, previews []*Preview) error {
	if len(previews) == 0 {
		return nil
	}

	jobs := make(chan *Preview, len(previews))
	errChan := make(chan error, len(previews))

	var wg sync.WaitGroup
	for i := 0; i < maxConcurrentLoads && i < len(previews); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if ctx.Err() != nil {
					errChan <- ctx.Err()
					continue
				}
				if err := p.Load(ctx); err != nil && !errors.Is(err, ErrDiscarded) {
					errChan <- err
				}
			}
		}()
	}

	for _, p := range previews {
		jobs <- p
	}
	close(jobs)

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
