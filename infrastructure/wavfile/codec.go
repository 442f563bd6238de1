package wavfile

import (
	"context"
	"errors"
	"io"

	"github.com/Skryldev/stereomerge/domain/model"
	"github.com/Skryldev/stereomerge/domain/ports"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
)

// Codec reads and writes containers through a StorageProvider
type Codec struct {
	storage ports.StorageProvider
}

// NewCodec creates a codec backed by storage
func NewCodec(storage ports.StorageProvider) *Codec {
	return &Codec{storage: storage}
}

// Read loads and parses the container at path. I/O failures are READ_ERROR,
// structural problems are INVALID_FORMAT.
func (c *Codec) Read(ctx context.Context, path string) (model.ContainerParams, model.PCMBuffer, error) {
	data, err := c.storage.ReadFile(ctx, path)
	if err != nil {
		return model.ContainerParams{}, nil, pkgerrors.NewReadError(path, err)
	}
	return decode(path, data)
}

// Write stores a stereo container at path, replacing any existing file.
// Bad arguments are INVALID_ARGUMENT and nothing is written; I/O failures
// are WRITE_ERROR.
func (c *Codec) Write(ctx context.Context, path string, params model.ContainerParams, buf model.PCMBuffer) error {
	if err := checkEncodable(params, buf); err != nil {
		return err
	}
	err := c.storage.WriteFile(ctx, path, func(w io.Writer) error {
		return Encode(w, params, buf)
	})
	if err != nil {
		var me *pkgerrors.MergeError
		if errors.As(err, &me) && me.Code == pkgerrors.ErrCodeInvalidArgument {
			return err
		}
		return pkgerrors.NewWriteError(path, err)
	}
	return nil
}
