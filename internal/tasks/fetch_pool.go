package tasks

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// fetchJob tags a playlist id with its input position so its result lands in
// the original slot.
type fetchJob struct {
	index int
	id    string
}

// fetchPool fans playlist fetches out to a bounded worker pool paced by a
// rate limiter. Each worker writes only to its own job's index, so the
// returned slice always matches input order regardless of completion order.
func (e *PlaylistEngine) fetchPool(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts ExportOpts) []FetchResult {
	if len(ids) == 0 {
		return nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	limiter := rate.NewLimiter(rate.Limit(rateLimit), 1)

	results := make([]FetchResult, len(ids))
	jobs := make(chan fetchJob, len(ids))

	var done atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					results[job.index] = FetchResult{ID: job.id, Err: err}
					continue
				}

				res := e.FetchPlaylist(ctx, job.id)
				results[job.index] = res

				step := int(done.Add(1))
				e.sendProgress(progress, fetchedPlaylistUpdate(step, len(ids), res))
			}
		}()
	}

	for i, id := range ids {
		jobs <- fetchJob{index: i, id: id}
	}
	close(jobs)
	wg.Wait()

	return results
}
