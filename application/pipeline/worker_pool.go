package pipeline

import (
	"context"
	"sync"

	"github.com/Skryldev/stereomerge/domain/model"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
	"github.com/Skryldev/stereomerge/pkg/logger"
	"go.uber.org/zap"
)

// WorkerPool merges pairs concurrently with a bounded number of workers
type WorkerPool struct {
	pipeline *Pipeline
	workers  int
	log      *logger.Logger
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(p *Pipeline, workers int, log *logger.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WorkerPool{
		pipeline: p,
		workers:  workers,
		log:      log,
	}
}

// Run merges pairs and sends one result per pair to the returned channel,
// which is closed once every pair is accounted for.
//
// Cancellation of ctx is only observed between pairs: pairs not yet
// dispatched get a CANCELED result, pairs already running finish normally.
func (wp *WorkerPool) Run(ctx context.Context, pairs []model.MergePair, opts *model.MergeOptions) <-chan model.MergeResult {
	results := make(chan model.MergeResult, len(pairs))
	workers := wp.workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	log := logger.FromContext(ctx, wp.log)

	go func() {
		defer close(results)

		var wg sync.WaitGroup
		semaphore := make(chan struct{}, workers)
		// in-flight pairs must not see the cancellation
		runCtx := context.WithoutCancel(ctx)

		for _, pair := range pairs {
			if ctx.Err() != nil {
				results <- canceledResult(pair, ctx.Err())
				continue
			}
			select {
			case <-ctx.Done():
				results <- canceledResult(pair, ctx.Err())
				continue
			case semaphore <- struct{}{}:
			}

			wg.Add(1)
			go func(pr model.MergePair) {
				defer wg.Done()
				defer func() { <-semaphore }()

				log.Debug("dispatching pair",
					zap.String("key", pr.Key),
					zap.Int("index", pr.Index),
				)
				job := NewJob(pr, opts, log)
				results <- wp.pipeline.Run(runCtx, job)
			}(pair)
		}

		wg.Wait()
	}()

	return results
}

func canceledResult(pair model.MergePair, cause error) model.MergeResult {
	return model.MergeResult{
		Index:     pair.Index,
		Key:       pair.Key,
		Extension: pair.Extension,
		LeftPath:  pair.LeftPath,
		RightPath: pair.RightPath,
		Err:       pkgerrors.NewCanceledError(cause),
	}
}
