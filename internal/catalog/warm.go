package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Warm loads the given plans into the cache. Plans already cached are skipped and the
// rest are fetched concurrently. It returns the ids that were loaded and every failure
// joined into one error.
func (c *Cache) Warm(ctx context.Context, planIDs []string, f Filters) ([]string, error) {
	var toFetch []string
	seen := make(map[string]bool, len(planIDs))
	for _, id := range planIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.Cached(id, f); !ok {
			toFetch = append(toFetch, id)
		}
	}
	if len(toFetch) == 0 {
		return nil, nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		loaded []string
		errs   []error
	)
	for _, id := range toFetch {
		wg.Add(1)
		go func(planID string) {
			defer wg.Done()
			_, err := c.PlanDetails(ctx, planID, f)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("plan %s: %w", planID, err))
				return
			}
			loaded = append(loaded, planID)
		}(id)
	}
	wg.Wait()

	return loaded, errors.Join(errs...)
}
