package pcm

import (
	"github.com/Skryldev/stereomerge/domain/model"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
)

// Field names reported in a ParameterMismatch.
const (
	FieldSampleRate   = "sampleRate"
	FieldByteWidth    = "byteWidth"
	FieldFrameCount   = "frameCount"
	FieldChannelCount = "channelCount"
)

// CheckCompatible verifies that left and right are mono and agree on sample
// rate, byte width and frame count. All differing fields are reported
// together. On success the shared parameters are returned with
// ChannelCount 1.
func CheckCompatible(left, right model.ContainerParams) (model.ContainerParams, error) {
	var diffs []pkgerrors.FieldMismatch

	// both sides must be mono, so equal-but-stereo still counts as a mismatch
	if left.ChannelCount != 1 || right.ChannelCount != 1 {
		diffs = append(diffs, pkgerrors.FieldMismatch{Field: FieldChannelCount, Left: uint64(left.ChannelCount), Right: uint64(right.ChannelCount)})
	}
	if left.SampleRate != right.SampleRate {
		diffs = append(diffs, pkgerrors.FieldMismatch{Field: FieldSampleRate, Left: uint64(left.SampleRate), Right: uint64(right.SampleRate)})
	}
	if left.ByteWidth != right.ByteWidth {
		diffs = append(diffs, pkgerrors.FieldMismatch{Field: FieldByteWidth, Left: uint64(left.ByteWidth), Right: uint64(right.ByteWidth)})
	}
	if left.FrameCount != right.FrameCount {
		diffs = append(diffs, pkgerrors.FieldMismatch{Field: FieldFrameCount, Left: uint64(left.FrameCount), Right: uint64(right.FrameCount)})
	}

	if len(diffs) > 0 {
		return model.ContainerParams{}, pkgerrors.NewMismatchError(diffs)
	}

	return model.ContainerParams{
		SampleRate:   left.SampleRate,
		ByteWidth:    left.ByteWidth,
		ChannelCount: 1,
		FrameCount:   left.FrameCount,
	}, nil
}
