package pcm

import (
	"testing"

	"github.com/Skryldev/stereomerge/domain/model"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
)

func mono(rate uint32, width uint8, frames uint32) model.ContainerParams {
	return model.ContainerParams{SampleRate: rate, ByteWidth: width, ChannelCount: 1, FrameCount: frames}
}

func TestCheckCompatible_Match(t *testing.T) {
	t.Parallel()

	got, err := CheckCompatible(mono(44100, 2, 100), mono(44100, 2, 100))
	if err != nil {
		t.Fatalf("CheckCompatible() error = %v, want nil", err)
	}
	if got != mono(44100, 2, 100) {
		t.Errorf("CheckCompatible() = %+v, want %+v", got, mono(44100, 2, 100))
	}
}

func TestCheckCompatible_Mismatches(t *testing.T) {
	t.Parallel()

	stereo := mono(44100, 2, 100)
	stereo.ChannelCount = 2

	tests := []struct {
		name   string
		left   model.ContainerParams
		right  model.ContainerParams
		fields []string
	}{
		{"sample rate", mono(44100, 2, 100), mono(48000, 2, 100), []string{FieldSampleRate}},
		{"byte width", mono(44100, 2, 100), mono(44100, 3, 100), []string{FieldByteWidth}},
		{"frame count", mono(44100, 2, 100), mono(44100, 2, 99), []string{FieldFrameCount}},
		{"stereo input", stereo, mono(44100, 2, 100), []string{FieldChannelCount}},
		{"both stereo", stereo, stereo, []string{FieldChannelCount}},
		{"several", mono(44100, 2, 100), mono(48000, 4, 7), []string{FieldSampleRate, FieldByteWidth, FieldFrameCount}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := CheckCompatible(tt.left, tt.right)
			if !pkgerrors.Is(err, pkgerrors.ErrParameterMismatch) {
				t.Fatalf("CheckCompatible() error = %v, want PARAMETER_MISMATCH", err)
			}
			mm, ok := pkgerrors.As[*pkgerrors.MismatchError](err)
			if !ok {
				t.Fatalf("error %T is not *MismatchError", err)
			}
			if len(mm.Fields) != len(tt.fields) {
				t.Fatalf("mismatched fields = %v, want %v", mm.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if !mm.Has(f) {
					t.Errorf("mismatch missing field %q: %v", f, mm.Fields)
				}
			}
		})
	}
}

func TestCheckCompatible_ReportsValues(t *testing.T) {
	t.Parallel()

	_, err := CheckCompatible(mono(44100, 2, 100), mono(48000, 2, 100))
	mm, ok := pkgerrors.As[*pkgerrors.MismatchError](err)
	if !ok {
		t.Fatalf("error %T is not *MismatchError", err)
	}
	want := pkgerrors.FieldMismatch{Field: FieldSampleRate, Left: 44100, Right: 48000}
	if mm.Fields[0] != want {
		t.Errorf("Fields[0] = %+v, want %+v", mm.Fields[0], want)
	}
}
