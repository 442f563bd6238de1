package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/Skryldev/stereomerge/domain/model"
	"github.com/Skryldev/stereomerge/domain/pcm"
	"github.com/Skryldev/stereomerge/domain/ports"
	"github.com/Skryldev/stereomerge/infrastructure/wavfile"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
	"github.com/Skryldev/stereomerge/pkg/logger"
	"github.com/Skryldev/stereomerge/pkg/retry"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Stage represents a single pipeline stage function
type Stage func(ctx context.Context, job *Job) error

// Job holds the state of merging one pair. Buffers are owned by the job and
// dropped when Run returns.
type Job struct {
	Pair          model.MergePair
	OutputPath    string
	DeleteSources bool
	DeleteRetry   retry.Config
	Log           *logger.Logger

	leftParams  model.ContainerParams
	rightParams model.ContainerParams
	left        model.PCMBuffer
	right       model.PCMBuffer
	stereo      model.PCMBuffer
	deleted     bool
}

// NewJob prepares a job writing <key><ext> next to the pair's sources
func NewJob(pair model.MergePair, opts *model.MergeOptions, log *logger.Logger) *Job {
	if log == nil {
		log = logger.Nop()
	}
	return &Job{
		Pair:          pair,
		OutputPath:    filepath.Join(filepath.Dir(pair.LeftPath), pair.OutputName()),
		DeleteSources: opts.DeleteSources,
		DeleteRetry:   opts.DeleteRetry,
		Log:           log.With(zap.String("key", pair.Key), zap.String("ext", pair.Extension)),
	}
}

// Pipeline runs the merge stages for a single pair
type Pipeline struct {
	codec   *wavfile.Codec
	storage ports.StorageProvider
	stages  []namedStage
	log     *logger.Logger
}

type namedStage struct {
	name  string
	stage Stage
}

// NewPipeline creates a new merge pipeline
func NewPipeline(storage ports.StorageProvider, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{
		codec:   wavfile.NewCodec(storage),
		storage: storage,
		log:     log,
	}
	p.stages = []namedStage{
		{"read", p.read},
		{"check", p.check},
		{"interleave", p.interleave},
		{"write", p.write},
		{"cleanup", p.cleanup},
	}
	return p
}

// Run executes every stage for job and returns its result. A failing stage
// ends the run; sources are only touched by the last stage.
func (p *Pipeline) Run(ctx context.Context, job *Job) model.MergeResult {
	start := time.Now()
	result := model.MergeResult{
		Index:     job.Pair.Index,
		Key:       job.Pair.Key,
		Extension: job.Pair.Extension,
		LeftPath:  job.Pair.LeftPath,
		RightPath: job.Pair.RightPath,
	}

	for _, s := range p.stages {
		if err := s.stage(ctx, job); err != nil {
			job.Log.Error("merge failed",
				zap.String("stage", s.name),
				zap.Error(err),
			)
			result.Err = err
			break
		}
	}

	result.Params = job.Pair.Params
	result.Deleted = job.deleted
	if result.Err == nil || pkgerrors.CodeOf(result.Err) == pkgerrors.ErrCodeDelete {
		result.OutputPath = job.OutputPath
	}
	result.Duration = time.Since(start)

	job.left, job.right, job.stereo = nil, nil, nil

	if result.Err == nil {
		job.Log.Info("merged",
			zap.String("output", result.OutputPath),
			zap.Uint32("frames", result.Params.FrameCount),
			zap.Duration("length", result.Params.Duration()),
			zap.Bool("sources_deleted", result.Deleted),
		)
	}
	return result
}

func (p *Pipeline) read(ctx context.Context, job *Job) error {
	var err error
	job.leftParams, job.left, err = p.codec.Read(ctx, job.Pair.LeftPath)
	if err != nil {
		return err
	}
	job.rightParams, job.right, err = p.codec.Read(ctx, job.Pair.RightPath)
	return err
}

func (p *Pipeline) check(_ context.Context, job *Job) error {
	params, err := pcm.CheckCompatible(job.leftParams, job.rightParams)
	if err != nil {
		return err
	}
	job.Pair.Params = params
	return nil
}

func (p *Pipeline) interleave(_ context.Context, job *Job) error {
	stereo, err := pcm.Interleave(job.left, job.right, int(job.Pair.Params.ByteWidth))
	if err != nil {
		return err
	}
	job.left, job.right = nil, nil
	job.stereo = stereo
	return nil
}

func (p *Pipeline) write(ctx context.Context, job *Job) error {
	return p.codec.Write(ctx, job.OutputPath, job.Pair.Params, job.stereo)
}

func (p *Pipeline) cleanup(ctx context.Context, job *Job) error {
	if !job.DeleteSources {
		return nil
	}

	var err error
	for _, path := range []string{job.Pair.LeftPath, job.Pair.RightPath} {
		if rmErr := p.remove(ctx, job.DeleteRetry, path); rmErr != nil {
			err = multierr.Append(err, pkgerrors.NewDeleteError(path, rmErr))
		}
	}
	if err != nil {
		return err
	}
	job.deleted = true
	return nil
}

// remove deletes path, treating an already missing file as removed.
// Permission errors are not retried.
func (p *Pipeline) remove(ctx context.Context, cfg retry.Config, path string) error {
	return retry.Do(ctx, cfg, func() error {
		err := p.storage.Remove(ctx, path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case errors.Is(err, fs.ErrPermission):
			return &retry.Permanent{Err: err}
		}
		return err
	})
}
