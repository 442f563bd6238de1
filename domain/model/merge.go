package model

import (
	"time"

	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
	"github.com/Skryldev/stereomerge/pkg/retry"
)

// Channel identifies which side of a stereo pair a mono file carries
type Channel uint8

const (
	ChannelLeft Channel = iota
	ChannelRight
)

func (c Channel) String() string {
	switch c {
	case ChannelLeft:
		return "L"
	case ChannelRight:
		return "R"
	default:
		return "?"
	}
}

// ChannelFile is a discovered mono source. It only lives for the duration of a scan.
type ChannelFile struct {
	Path      string
	Key       string
	Channel   Channel
	Extension string // lowercase, with leading dot
}

// ContainerParams are the header parameters of a PCM container
type ContainerParams struct {
	SampleRate   uint32
	ByteWidth    uint8 // bytes per sample: 1, 2, 3 or 4
	ChannelCount uint16
	FrameCount   uint32
}

// BlockAlign returns the size in bytes of one frame
func (p ContainerParams) BlockAlign() int {
	return int(p.ChannelCount) * int(p.ByteWidth)
}

// BitsPerSample returns ByteWidth expressed in bits
func (p ContainerParams) BitsPerSample() int {
	return int(p.ByteWidth) * 8
}

// Duration returns the playback length of FrameCount frames
func (p ContainerParams) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(uint64(p.FrameCount) * uint64(time.Second) / uint64(p.SampleRate))
}

// PCMBuffer holds raw sample bytes, interpreted only through a ByteWidth
type PCMBuffer []byte

// MergePair is one left/right unit of work. Params is set once both sides
// have been read and checked.
type MergePair struct {
	Index     int
	Key       string
	Extension string
	LeftPath  string
	RightPath string
	Params    ContainerParams
}

// OutputName returns the stereo file name for the pair
func (p MergePair) OutputName() string {
	return p.Key + p.Extension
}

// MergeResult is the outcome for one pair. Err is nil on success.
type MergeResult struct {
	Index      int // position of the pair in discovery order
	Key        string
	Extension  string
	LeftPath   string
	RightPath  string
	OutputPath string
	Params     ContainerParams
	Deleted    bool
	Err        error
	Duration   time.Duration
}

// Succeeded reports whether the pair was merged
func (r MergeResult) Succeeded() bool {
	return r.Err == nil
}

// WarningKind classifies a discovery warning
type WarningKind string

const (
	WarnMissingPair      WarningKind = "missing_pair"
	WarnDuplicateChannel WarningKind = "duplicate_channel"
	WarnOutputConflict   WarningKind = "output_conflict"
)

// DiscoveryWarning describes a group excluded from the batch
type DiscoveryWarning struct {
	Kind      WarningKind
	Key       string
	Extension string
	Paths     []string
	Message   string
	Err       error // MISSING_PAIR for WarnMissingPair, nil otherwise
}

// BatchReport is the result of merging one directory
type BatchReport struct {
	BatchID   string
	Directory string
	Results   []MergeResult
	Warnings  []DiscoveryWarning
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int // not dispatched because of cancellation
	Duration  time.Duration
}

// MissingPairs returns only the WarnMissingPair warnings
func (r *BatchReport) MissingPairs() []DiscoveryWarning {
	var out []DiscoveryWarning
	for _, w := range r.Warnings {
		if w.Kind == WarnMissingPair {
			out = append(out, w)
		}
	}
	return out
}

// Failures returns the failed results. Pairs skipped by cancellation are
// not failures.
func (r *BatchReport) Failures() []MergeResult {
	var out []MergeResult
	for _, res := range r.Results {
		if !res.Succeeded() && pkgerrors.CodeOf(res.Err) != pkgerrors.ErrCodeCanceled {
			out = append(out, res)
		}
	}
	return out
}

// MergeOptions holds the per-batch settings
type MergeOptions struct {
	Extensions    []string
	DeleteSources bool
	Workers       int
	DeleteRetry   retry.Config
}

// DefaultExtensions is the allowlist used when none is configured
var DefaultExtensions = []string{".wav"}

// DefaultMergeOptions returns sane defaults
func DefaultMergeOptions() *MergeOptions {
	return &MergeOptions{
		Extensions:    append([]string(nil), DefaultExtensions...),
		DeleteSources: false,
		Workers:       4,
		DeleteRetry:   retry.DefaultConfig(),
	}
}
