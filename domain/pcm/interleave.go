package pcm

import (
	"fmt"

	"github.com/Skryldev/stereomerge/domain/model"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
)

// ValidByteWidth reports whether w is a supported sample width.
func ValidByteWidth(w int) bool {
	return w >= 1 && w <= 4
}

// Interleave merges two mono buffers into one stereo buffer laid out
// L,R,L,R,... per frame. Both buffers must have the same length, a multiple
// of byteWidth.
func Interleave(left, right model.PCMBuffer, byteWidth int) (model.PCMBuffer, error) {
	if !ValidByteWidth(byteWidth) {
		return nil, pkgerrors.NewInvalidArgumentError(fmt.Sprintf("unsupported byte width %d", byteWidth))
	}
	if len(left) != len(right) {
		return nil, pkgerrors.NewInvalidArgumentError(
			fmt.Sprintf("buffer lengths differ: left=%d right=%d", len(left), len(right)))
	}
	if len(left)%byteWidth != 0 {
		return nil, pkgerrors.NewInvalidArgumentError(
			fmt.Sprintf("buffer length %d is not a multiple of byte width %d", len(left), byteWidth))
	}

	out := make(model.PCMBuffer, 2*len(left))
	frame := 2 * byteWidth
	for i, o := 0, 0; i < len(left); i, o = i+byteWidth, o+frame {
		copy(out[o:o+byteWidth], left[i:i+byteWidth])
		copy(out[o+byteWidth:o+frame], right[i:i+byteWidth])
	}
	return out, nil
}

// Deinterleave splits a stereo buffer back into its left and right channels.
func Deinterleave(stereo model.PCMBuffer, byteWidth int) (left, right model.PCMBuffer, err error) {
	if !ValidByteWidth(byteWidth) {
		return nil, nil, pkgerrors.NewInvalidArgumentError(fmt.Sprintf("unsupported byte width %d", byteWidth))
	}
	frame := 2 * byteWidth
	if len(stereo)%frame != 0 {
		return nil, nil, pkgerrors.NewInvalidArgumentError(
			fmt.Sprintf("buffer length %d is not a multiple of frame size %d", len(stereo), frame))
	}

	n := len(stereo) / 2
	left = make(model.PCMBuffer, n)
	right = make(model.PCMBuffer, n)
	for i, o := 0, 0; o < len(stereo); i, o = i+byteWidth, o+frame {
		copy(left[i:i+byteWidth], stereo[o:o+byteWidth])
		copy(right[i:i+byteWidth], stereo[o+byteWidth:o+frame])
	}
	return left, right, nil
}
