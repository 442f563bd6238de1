// Package stereomerge rebuilds stereo WAV files from separately stored left
// and right mono files named <key>.L.<ext> and <key>.R.<ext>.
//
// Samples are copied byte for byte; nothing is decoded, resampled or
// converted, so the two sides must already agree on sample rate, sample
// width and length.
package stereomerge

import (
	"context"

	"github.com/Skryldev/stereomerge/application/usecase"
	"github.com/Skryldev/stereomerge/domain/model"
	"github.com/Skryldev/stereomerge/domain/ports"
	"github.com/Skryldev/stereomerge/infrastructure/storage"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
	"github.com/Skryldev/stereomerge/pkg/logger"
	"github.com/Skryldev/stereomerge/pkg/progress"
	"github.com/Skryldev/stereomerge/pkg/retry"
	"go.uber.org/zap"
)

// Re-export types for convenient use by callers
type (
	BatchReport      = model.BatchReport
	MergeResult      = model.MergeResult
	DiscoveryWarning = model.DiscoveryWarning
	ContainerParams  = model.ContainerParams
	ProgressUpdate   = progress.Update
	RetryConfig      = retry.Config
	Option           = ports.Option
	ErrorCode        = pkgerrors.ErrorCode
)

// Re-export option functions
var (
	WithExtensions    = ports.WithExtensions
	WithDeleteSources = ports.WithDeleteSources
	WithWorkers       = ports.WithWorkers
	WithDeleteRetry   = ports.WithDeleteRetry
)

// Config holds top-level configuration for the merger
type Config struct {
	// Logger is an optional custom logger. Uses production zap if nil.
	Logger *logger.Logger

	// ZapLogger allows passing a *zap.Logger directly
	ZapLogger *zap.Logger

	// ProgressCh is an optional channel receiving one update per pair.
	// Updates are dropped rather than blocking when it is full.
	ProgressCh chan<- ProgressUpdate

	// Reporter receives every update synchronously, in addition to ProgressCh
	Reporter progress.Reporter

	// Workers sets how many pairs are merged concurrently (default: 4)
	Workers int

	// Extensions is the recognized extension allowlist (default: .wav)
	Extensions []string

	// DeleteSources removes both mono files after a successful merge
	DeleteSources bool

	// DeleteRetry overrides the retry policy for source removal
	DeleteRetry *RetryConfig
}

// Merger is the main entry point
type Merger struct {
	service *usecase.MergeService
	log     *logger.Logger
}

var _ ports.PairMerger = (*Merger)(nil)

// New creates a new Merger with the given configuration
func New(cfg Config) (*Merger, error) {
	log := cfg.Logger
	if log == nil && cfg.ZapLogger != nil {
		log = logger.FromZap(cfg.ZapLogger)
	}
	if log == nil {
		var err error
		log, err = logger.New(false)
		if err != nil {
			return nil, err
		}
	}

	reporters := progress.NewMultiReporter()
	if cfg.ProgressCh != nil {
		reporters.Add(progress.NewChannelReporter(cfg.ProgressCh))
	}
	if cfg.Reporter != nil {
		reporters.Add(cfg.Reporter)
	}

	defaults := model.DefaultMergeOptions()
	if len(cfg.Extensions) > 0 {
		defaults.Extensions = append([]string(nil), cfg.Extensions...)
	}
	defaults.DeleteSources = cfg.DeleteSources
	if cfg.DeleteRetry != nil {
		defaults.DeleteRetry = *cfg.DeleteRetry
	}

	svc, err := usecase.NewMergeService(usecase.Config{
		Storage:  storage.NewLocalStorage(),
		Reporter: reporters,
		Logger:   log,
		Workers:  cfg.Workers,
		Defaults: defaults,
	})
	if err != nil {
		return nil, err
	}

	return &Merger{
		service: svc,
		log:     log,
	}, nil
}

// MergeDirectory merges every pair found directly inside dir
func (m *Merger) MergeDirectory(ctx context.Context, dir string, opts ...Option) (*BatchReport, error) {
	return m.service.MergeDirectory(ctx, dir, opts...)
}

// Close flushes the logger
func (m *Merger) Close() {
	_ = m.log.Sync()
}

// ErrorCodeOf returns the category of a pair error, e.g. "PARAMETER_MISMATCH"
func ErrorCodeOf(err error) ErrorCode {
	return pkgerrors.CodeOf(err)
}
