package ports

import (
	"context"
	"io"
	"io/fs"

	"github.com/Skryldev/stereomerge/domain/model"
	"github.com/Skryldev/stereomerge/pkg/retry"
)

// PairMerger defines the main merge interface
type PairMerger interface {
	// MergeDirectory discovers .L/.R pairs in dir and merges each into a stereo file
	MergeDirectory(ctx context.Context, dir string, opts ...Option) (*model.BatchReport, error)
}

// StorageProvider abstracts the filesystem operations used by a merge
type StorageProvider interface {
	// ReadDir lists the direct children of dir
	ReadDir(ctx context.Context, dir string) ([]fs.DirEntry, error)

	// ReadFile returns the full contents of path
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces path with whatever write produces. The file only
	// appears under path once write has returned nil.
	WriteFile(ctx context.Context, path string, write func(w io.Writer) error) error

	// Remove deletes a file
	Remove(ctx context.Context, path string) error

	// Stat describes path, following symlinks
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
}

// Option is the functional option type
type Option func(*model.MergeOptions)

// WithExtensions sets the recognized extension allowlist
func WithExtensions(exts ...string) Option {
	return func(o *model.MergeOptions) {
		if len(exts) > 0 {
			o.Extensions = append([]string(nil), exts...)
		}
	}
}

// WithDeleteSources removes both sources after a successful merge
func WithDeleteSources(enabled bool) Option {
	return func(o *model.MergeOptions) {
		o.DeleteSources = enabled
	}
}

// WithWorkers sets the number of pairs merged concurrently
func WithWorkers(n int) Option {
	return func(o *model.MergeOptions) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithDeleteRetry sets the retry policy for source removal
func WithDeleteRetry(cfg retry.Config) Option {
	return func(o *model.MergeOptions) {
		o.DeleteRetry = cfg
	}
}
