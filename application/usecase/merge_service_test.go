package usecase

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Skryldev/stereomerge/domain/model"
	"github.com/Skryldev/stereomerge/domain/ports"
	"github.com/Skryldev/stereomerge/infrastructure/storage"
	"github.com/Skryldev/stereomerge/infrastructure/wavfile"
	"github.com/Skryldev/stereomerge/internal/mocks"
	"github.com/Skryldev/stereomerge/internal/wavtest"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
	"github.com/Skryldev/stereomerge/pkg/progress"
	"github.com/Skryldev/stereomerge/pkg/retry"
)

type recorder struct {
	mu      sync.Mutex
	updates []progress.Update
}

func (r *recorder) Report(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func newService(t *testing.T, store ports.StorageProvider, rep progress.Reporter) *MergeService {
	t.Helper()
	defaults := model.DefaultMergeOptions()
	defaults.DeleteRetry = retry.Config{MaxAttempts: 1}
	svc, err := NewMergeService(Config{Storage: store, Reporter: rep, Defaults: defaults})
	if err != nil {
		t.Fatalf("NewMergeService() error = %v", err)
	}
	return svc
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestNewMergeService_RequiresStorage(t *testing.T) {
	t.Parallel()

	if _, err := NewMergeService(Config{}); err == nil {
		t.Errorf("NewMergeService() error = nil, want error without storage")
	}
}

func TestMergeDirectory_SongScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavtest.Write(t, dir, "song.L.wav", wavtest.Mono(44100, 2, 100, 1))
	wavtest.Write(t, dir, "song.R.wav", wavtest.Mono(44100, 2, 100, 2))

	rec := &recorder{}
	svc := newService(t, storage.NewLocalStorage(), rec)
	report, err := svc.MergeDirectory(context.Background(), dir, ports.WithDeleteSources(true))
	if err != nil {
		t.Fatalf("MergeDirectory() error = %v", err)
	}

	if report.Attempted != 1 || report.Succeeded != 1 || report.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 1/1/0", report.Attempted, report.Succeeded, report.Failed)
	}
	if report.BatchID == "" {
		t.Errorf("BatchID is empty")
	}
	if fileExists(filepath.Join(dir, "song.L.wav")) || fileExists(filepath.Join(dir, "song.R.wav")) {
		t.Errorf("sources not removed")
	}

	data, err := os.ReadFile(filepath.Join(dir, "song.wav"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	params, payload, err := wavfile.Decode(data)
	if err != nil {
		t.Fatalf("Decode(output) error = %v", err)
	}
	want := model.ContainerParams{SampleRate: 44100, ByteWidth: 2, ChannelCount: 2, FrameCount: 100}
	if params != want || len(payload) != 400 {
		t.Errorf("output = %+v with %d bytes, want %+v with 400 bytes", params, len(payload), want)
	}

	if len(rec.updates) != 1 || rec.updates[0].Processed != 1 || rec.updates[0].Total != 1 {
		t.Errorf("progress updates = %+v, want one 1/1 update", rec.updates)
	}
}

func TestMergeDirectory_MismatchScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavtest.Write(t, dir, "mix.L.wav", wavtest.Mono(44100, 2, 10, 1))
	wavtest.Write(t, dir, "mix.R.wav", wavtest.Mono(48000, 2, 10, 2))

	svc := newService(t, storage.NewLocalStorage(), nil)
	report, err := svc.MergeDirectory(context.Background(), dir, ports.WithDeleteSources(true))
	if err != nil {
		t.Fatalf("MergeDirectory() error = %v", err)
	}

	if report.Attempted != 1 || report.Failed != 1 {
		t.Fatalf("counts attempted=%d failed=%d, want 1/1", report.Attempted, report.Failed)
	}
	mm, ok := pkgerrors.As[*pkgerrors.MismatchError](report.Results[0].Err)
	if !ok || len(mm.Fields) != 1 || mm.Fields[0].Field != "sampleRate" ||
		mm.Fields[0].Left != 44100 || mm.Fields[0].Right != 48000 {
		t.Errorf("error = %v, want sampleRate 44100 vs 48000", report.Results[0].Err)
	}
	if fileExists(filepath.Join(dir, "mix.wav")) {
		t.Errorf("mix.wav created for mismatched pair")
	}
	if !fileExists(filepath.Join(dir, "mix.L.wav")) || !fileExists(filepath.Join(dir, "mix.R.wav")) {
		t.Errorf("sources removed for failed pair")
	}
}

func TestMergeDirectory_FailureIsolation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keys := []string{"a", "b", "c", "d", "e", "f"}
	for i, k := range keys {
		wavtest.Write(t, dir, k+".L.wav", wavtest.Mono(48000, 3, 20, byte(i)))
		wavtest.Write(t, dir, k+".R.wav", wavtest.Mono(48000, 3, 20, byte(i+9)))
	}
	if err := os.WriteFile(filepath.Join(dir, "d.L.wav"), []byte("RIFF junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	svc := newService(t, storage.NewLocalStorage(), rec)
	report, err := svc.MergeDirectory(context.Background(), dir,
		ports.WithDeleteSources(true), ports.WithWorkers(3))
	if err != nil {
		t.Fatalf("MergeDirectory() error = %v", err)
	}

	if report.Attempted != 6 || report.Succeeded != 5 || report.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d, want 6/5/1", report.Attempted, report.Succeeded, report.Failed)
	}
	failures := report.Failures()
	if len(failures) != 1 || failures[0].Key != "d" || !pkgerrors.Is(failures[0].Err, pkgerrors.ErrInvalidFormat) {
		t.Errorf("failures = %+v, want d with INVALID_FORMAT", failures)
	}
	for i, r := range report.Results {
		if r.Key != keys[i] {
			t.Errorf("Results[%d].Key = %s, want %s (discovery order)", i, r.Key, keys[i])
		}
	}
	if !fileExists(filepath.Join(dir, "d.L.wav")) || !fileExists(filepath.Join(dir, "d.R.wav")) {
		t.Errorf("sources of the failed pair were removed")
	}
	if len(rec.updates) != 6 || rec.updates[5].Processed != 6 {
		t.Errorf("progress updates = %d, want 6 ending at 6/6", len(rec.updates))
	}
}

func TestMergeDirectory_ZeroFrames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavtest.Write(t, dir, "silent.L.wav", wavtest.Mono(8000, 1, 0, 0))
	wavtest.Write(t, dir, "silent.R.wav", wavtest.Mono(8000, 1, 0, 0))

	svc := newService(t, storage.NewLocalStorage(), nil)
	report, err := svc.MergeDirectory(context.Background(), dir)
	if err != nil || report.Succeeded != 1 {
		t.Fatalf("MergeDirectory() = %+v, %v", report, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "silent.wav"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != wavfile.HeaderSize {
		t.Errorf("output size = %d, want %d", len(data), wavfile.HeaderSize)
	}
	if _, _, err := wavfile.Decode(data); err != nil {
		t.Errorf("Decode(output) error = %v", err)
	}
}

func TestMergeDirectory_OddFrame24Bit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	left := wavtest.Mono(48000, 3, 101, 1)
	right := wavtest.Mono(48000, 3, 101, 2)
	wavtest.Write(t, dir, "take.L.wav", left)
	wavtest.Write(t, dir, "take.R.wav", right)

	svc := newService(t, storage.NewLocalStorage(), nil)
	report, err := svc.MergeDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("MergeDirectory() error = %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 0 {
		t.Fatalf("counts = %d ok / %d failed, results = %+v", report.Succeeded, report.Failed, report.Results)
	}

	data, err := os.ReadFile(filepath.Join(dir, "take.wav"))
	if err != nil {
		t.Fatal(err)
	}
	params, payload, err := wavfile.Decode(data)
	if err != nil {
		t.Fatalf("Decode(output) error = %v", err)
	}
	if params.FrameCount != 101 || len(payload) != 606 {
		t.Errorf("output = %+v with %d bytes, want 101 frames and 606 bytes", params, len(payload))
	}
	if !bytes.Equal(payload[0:3], left.Payload[0:3]) || !bytes.Equal(payload[3:6], right.Payload[0:3]) {
		t.Errorf("first frame = % x, want L then R sample", payload[0:6])
	}
}

func TestMergeDirectory_HiddenKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavtest.Write(t, dir, ".take.L.wav", wavtest.Mono(44100, 2, 10, 1))
	wavtest.Write(t, dir, ".take.R.wav", wavtest.Mono(44100, 2, 10, 2))

	svc := newService(t, storage.NewLocalStorage(), nil)
	report, err := svc.MergeDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("MergeDirectory() error = %v", err)
	}
	if report.Attempted != 1 || report.Succeeded != 1 {
		t.Errorf("counts = %d/%d, want 1/1", report.Attempted, report.Succeeded)
	}
	if !fileExists(filepath.Join(dir, ".take.wav")) {
		t.Errorf(".take.wav not written")
	}
}

func TestMergeDirectory_WarningsAndEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavtest.Write(t, dir, "solo.L.wav", wavtest.Mono(8000, 2, 4, 0))
	wavtest.Write(t, dir, "other.R.flac", wavtest.Mono(8000, 2, 4, 0))

	svc := newService(t, storage.NewLocalStorage(), nil)
	report, err := svc.MergeDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("MergeDirectory() error = %v", err)
	}
	if report.Attempted != 0 || len(report.Results) != 0 {
		t.Errorf("report = %+v, want nothing attempted", report)
	}
	missing := report.MissingPairs()
	if len(missing) != 1 || missing[0].Key != "solo" {
		t.Errorf("missing pairs = %+v, want solo only (.flac not allowed)", missing)
	}
	if !fileExists(filepath.Join(dir, "solo.L.wav")) {
		t.Errorf("unpaired source removed")
	}
}

func TestMergeDirectory_ExtensionOption(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavtest.Write(t, dir, "x.L.WAVE", wavtest.Mono(8000, 2, 4, 0))
	wavtest.Write(t, dir, "x.R.WAVE", wavtest.Mono(8000, 2, 4, 1))

	svc := newService(t, storage.NewLocalStorage(), nil)
	report, err := svc.MergeDirectory(context.Background(), dir, ports.WithExtensions("wave"))
	if err != nil || report.Succeeded != 1 {
		t.Fatalf("MergeDirectory() = %+v, %v", report, err)
	}
	if !fileExists(filepath.Join(dir, "x.wave")) {
		t.Errorf("output x.wave missing")
	}
}

func TestMergeDirectory_OverwritesExistingOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavtest.Write(t, dir, "o.L.wav", wavtest.Mono(8000, 2, 4, 0))
	wavtest.Write(t, dir, "o.R.wav", wavtest.Mono(8000, 2, 4, 1))
	if err := os.WriteFile(filepath.Join(dir, "o.wav"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := newService(t, storage.NewLocalStorage(), nil)
	if _, err := svc.MergeDirectory(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "o.wav"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := wavfile.Decode(data); err != nil {
		t.Errorf("existing output not replaced: %v", err)
	}
}

func TestMergeDirectory_UnlistableDirectory(t *testing.T) {
	t.Parallel()

	denied := errors.New("permission denied")
	store := &mocks.MockStorageProvider{
		ReadDirFunc: func(context.Context, string) ([]fs.DirEntry, error) { return nil, denied },
	}
	svc := newService(t, store, nil)
	report, err := svc.MergeDirectory(context.Background(), "/nope")
	if report != nil || !pkgerrors.Is(err, pkgerrors.ErrRead) || !errors.Is(err, denied) {
		t.Errorf("MergeDirectory() = (%v, %v), want READ_ERROR wrapping denied", report, err)
	}
}

func TestMergeDirectory_CanceledBeforeStart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, k := range []string{"a", "b"} {
		wavtest.Write(t, dir, k+".L.wav", wavtest.Mono(8000, 2, 4, 0))
		wavtest.Write(t, dir, k+".R.wav", wavtest.Mono(8000, 2, 4, 1))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newService(t, storage.NewLocalStorage(), nil)
	report, err := svc.MergeDirectory(ctx, dir, ports.WithDeleteSources(true))
	if err != nil {
		t.Fatalf("MergeDirectory() error = %v", err)
	}
	if report.Skipped != 2 || report.Attempted != 0 {
		t.Errorf("skipped=%d attempted=%d, want 2/0", report.Skipped, report.Attempted)
	}
	if f := report.Failures(); len(f) != 0 {
		t.Errorf("Failures() = %+v, want skipped pairs excluded", f)
	}
	for _, k := range []string{"a", "b"} {
		if fileExists(filepath.Join(dir, k+".wav")) || !fileExists(filepath.Join(dir, k+".L.wav")) {
			t.Errorf("pair %s touched after cancellation", k)
		}
	}
}

func TestMergeDirectory_DeleteFailureKeepsOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavtest.Write(t, dir, "z.L.wav", wavtest.Mono(8000, 2, 4, 0))
	wavtest.Write(t, dir, "z.R.wav", wavtest.Mono(8000, 2, 4, 1))

	store := &mocks.MockStorageProvider{
		RemoveFunc: func(context.Context, string) error { return errors.New("read-only file system") },
	}
	svc := newService(t, store, nil)
	report, err := svc.MergeDirectory(context.Background(), dir, ports.WithDeleteSources(true))
	if err != nil {
		t.Fatal(err)
	}
	if report.Failed != 1 || !pkgerrors.Is(report.Results[0].Err, pkgerrors.ErrDelete) {
		t.Errorf("result = %+v, want DELETE_ERROR failure", report.Results)
	}
	if !fileExists(filepath.Join(dir, "z.wav")) {
		t.Errorf("output removed after delete failure")
	}
}
