package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Skryldev/stereomerge/application/discovery"
	"github.com/Skryldev/stereomerge/application/pipeline"
	"github.com/Skryldev/stereomerge/domain/model"
	"github.com/Skryldev/stereomerge/domain/ports"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
	"github.com/Skryldev/stereomerge/pkg/logger"
	"github.com/Skryldev/stereomerge/pkg/progress"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MergeService drives discovery, per-pair merging and reporting for a
// directory. It implements ports.PairMerger.
type MergeService struct {
	storage    ports.StorageProvider
	workerPool *pipeline.WorkerPool
	reporter   progress.Reporter
	log        *logger.Logger
	defaults   model.MergeOptions
}

// Config holds MergeService configuration
type Config struct {
	Storage  ports.StorageProvider
	Reporter progress.Reporter
	Logger   *logger.Logger
	Workers  int
	// Defaults are applied before per-call options. Nil means
	// model.DefaultMergeOptions.
	Defaults *model.MergeOptions
}

// NewMergeService creates a new MergeService
func NewMergeService(cfg Config) (*MergeService, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("StorageProvider is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.NoopReporter{}
	}

	defaults := model.DefaultMergeOptions()
	if cfg.Defaults != nil {
		d := *cfg.Defaults
		defaults = &d
	}
	if cfg.Workers > 0 {
		defaults.Workers = cfg.Workers
	}

	p := pipeline.NewPipeline(cfg.Storage, log)
	wp := pipeline.NewWorkerPool(p, defaults.Workers, log)

	return &MergeService{
		storage:    cfg.Storage,
		workerPool: wp,
		reporter:   reporter,
		log:        log,
		defaults:   *defaults,
	}, nil
}

// MergeDirectory merges every .L/.R pair found directly in dir. Per-pair
// failures are recorded in the report; only a directory that cannot be
// listed returns an error.
func (s *MergeService) MergeDirectory(ctx context.Context, dir string, opts ...ports.Option) (*model.BatchReport, error) {
	start := time.Now()

	options := s.defaults
	options.Extensions = append([]string(nil), s.defaults.Extensions...)
	for _, o := range opts {
		o(&options)
	}
	options.Extensions = discovery.NormalizeExtensions(options.Extensions)
	if len(options.Extensions) == 0 {
		options.Extensions = append([]string(nil), model.DefaultExtensions...)
	}

	report := &model.BatchReport{
		BatchID:   uuid.NewString(),
		Directory: dir,
	}
	log := s.log.With(zap.String("batch_id", report.BatchID), zap.String("dir", dir))

	scan, err := discovery.Scan(ctx, s.storage, dir, options.Extensions)
	if err != nil {
		log.Error("directory scan failed", zap.Error(err))
		return nil, pkgerrors.NewReadError(dir, err)
	}
	report.Warnings = scan.Warnings

	for _, w := range scan.Warnings {
		log.Warn("skipping group",
			zap.String("key", w.Key),
			zap.String("ext", w.Extension),
			zap.String("kind", string(w.Kind)),
			zap.String("reason", w.Message),
		)
	}

	total := len(scan.Pairs)
	if total == 0 {
		log.Info("no .L/.R pairs found", zap.Strings("extensions", options.Extensions))
		report.Duration = time.Since(start)
		return report, nil
	}

	log.Info("starting stereo merge",
		zap.Int("pairs", total),
		zap.Bool("delete_sources", options.DeleteSources),
		zap.Int("workers", options.Workers),
	)

	// this loop is the only reader of the pool's results, so the report and
	// counters need no locking
	results := s.workerPool.Run(logger.WithContext(ctx, log), scan.Pairs, &options)
	processed := 0
	for r := range results {
		processed++
		report.Results = append(report.Results, r)

		switch {
		case r.Err == nil:
			report.Attempted++
			report.Succeeded++
		case pkgerrors.CodeOf(r.Err) == pkgerrors.ErrCodeCanceled:
			report.Skipped++
		default:
			report.Attempted++
			report.Failed++
		}

		s.reporter.Report(progress.Update{
			BatchID:   report.BatchID,
			Key:       r.Key,
			Processed: processed,
			Total:     total,
			Failed:    r.Err != nil,
			Message:   describe(r),
			Timestamp: time.Now(),
		})
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Index < report.Results[j].Index
	})
	report.Duration = time.Since(start)

	log.Info("stereo merge completed",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

func describe(r model.MergeResult) string {
	if r.Err != nil {
		return fmt.Sprintf("failed %s: %v", r.Key, r.Err)
	}
	return "merged: " + r.OutputPath
}
