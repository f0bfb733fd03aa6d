package subtitles

import (
	"context"
	"sync"
	"time"

	"legendastv/internal/catalog"
	"legendastv/internal/logging"
	"legendastv/internal/notifications"
)

// BatchSummary aggregates the results of a batch run. Results keep the
// order of the input videos.
type BatchSummary struct {
	Results  []Result
	Resolved int
	NotFound int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// ResolveAll resolves videos with up to jobs concurrent workers sharing
// session. Failures do not stop the batch. Cancelling ctx stops handing
// out new videos; videos never started are reported as failed with the
// context error.
func (r *Resolver) ResolveAll(ctx context.Context, session *catalog.Session, videos []string, jobs int) BatchSummary {
	start := r.now()
	if jobs < 1 {
		jobs = 1
	}
	if jobs > len(videos) {
		jobs = len(videos)
	}

	results := make([]Result, len(videos))
	work := make(chan int)
	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i], _ = r.Resolve(ctx, session, videos[i])
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(videos); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case work <- next:
		}
	}
	close(work)
	wg.Wait()

	for i := next; i < len(videos); i++ {
		results[i] = Result{VideoPath: videos[i], Status: StatusFailed, Err: ctx.Err()}
	}

	summary := BatchSummary{Results: results, Duration: r.now().Sub(start)}
	for _, res := range results {
		switch res.Status {
		case StatusDone:
			summary.Resolved++
		case StatusNotFound:
			summary.NotFound++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	r.logger.Info("batch complete",
		logging.Int("videos", len(videos)),
		logging.Int("resolved", summary.Resolved),
		logging.Int("not_found", summary.NotFound),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
	)
	if len(videos) > 1 {
		r.notify(context.WithoutCancel(ctx), notifications.EventBatchCompleted, notifications.Payload{
			"resolved":         summary.Resolved,
			"not_found":        summary.NotFound,
			"failed":           summary.Failed,
			"duration_seconds": int(summary.Duration.Round(time.Second) / time.Second),
		})
	}
	return summary
}
