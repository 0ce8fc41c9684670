package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/repository"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	ucerrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/stt"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Download(_ context.Context, key, path string) error {
	f.mu.Lock()
	data, ok := f.objects[key]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("object %s not found", key)
	}
	return os.WriteFile(path, data, 0o644)
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

// fakeChunker reports a fixed number of chunk files without decoding anything
type fakeChunker struct {
	chunks int
	err    error
}

func (f *fakeChunker) Split(_ context.Context, _ string, outDir string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	paths := make([]string, 0, f.chunks)
	for i := 0; i < f.chunks; i++ {
		paths = append(paths, filepath.Join(outDir, fmt.Sprintf("chunk_%03d.wav", i)))
	}
	return paths, nil
}

// fakeTranscriber answers per chunk file name and can fail a chunk a number of times
type fakeTranscriber struct {
	mu       sync.Mutex
	results  map[string]*stt.Result
	failures map[string][]error
	calls    map[string]int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath, _ string) (*stt.Result, error) {
	name := filepath.Base(audioPath)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	attempt := f.calls[name]
	f.calls[name]++
	if errs := f.failures[name]; attempt < len(errs) {
		return nil, errs[attempt]
	}
	res, ok := f.results[name]
	if !ok {
		return &stt.Result{}, nil
	}
	return res, nil
}

type serviceFixture struct {
	shifts         *repository.MemoryShiftRepository
	transcriptions *repository.MemoryTranscriptionRepository
	store          *fakeStore
	chunker        *fakeChunker
	transcriber    *fakeTranscriber
	service        Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		shifts:         repository.NewMemoryShiftRepository(),
		transcriptions: repository.NewMemoryTranscriptionRepository(),
		store:          newFakeStore(),
		chunker:        &fakeChunker{chunks: 2},
		transcriber: &fakeTranscriber{
			results: map[string]*stt.Result{
				"chunk_000.wav": {Language: "en", Segments: []stt.Segment{
					{Start: 0, End: 2, Text: "Swiss 12 ready", Speaker: "Pilot"},
					{Start: 3, End: 5, Text: "Swiss 12 cleared for takeoff"},
				}},
				"chunk_001.wav": {Language: "en", Segments: []stt.Segment{
					{Start: 1, End: 4, Text: "Swiss 12 airborne", Speaker: "pilot"},
				}},
			},
		},
	}
	f.service = NewService(f.shifts, f.transcriptions, f.store, f.chunker, f.transcriber, Options{
		Language:   "en",
		Workers:    2,
		JobTimeout: 10 * time.Second,
		RetryDelay: time.Millisecond,
		TempDir:    t.TempDir(),
	}, nil)
	t.Cleanup(func() { _ = f.service.Shutdown(context.Background()) })
	return f
}

func ingestInput(shiftID string) IngestInput {
	return IngestInput{
		Metadata: entities.ShiftMetadata{
			ShiftID:      shiftID,
			ControllerID: "C-1",
			StartTime:    "2024-01-15T06:00:00Z",
			EndTime:      "2024-01-15T14:00:00Z",
		},
		Filename:    "../recordings/shift.mp3",
		ContentType: "audio/mpeg",
		Size:        5,
		Audio:       strings.NewReader("audio"),
	}
}

func TestIngest_TranscribesAndStitches(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	var hooked []string
	var mu sync.Mutex
	f.service.OnCompleted(func(_ context.Context, shiftID string) {
		mu.Lock()
		hooked = append(hooked, shiftID)
		mu.Unlock()
	})

	shift, tr, err := f.service.Ingest(ctx, ingestInput("S-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if shift.Status != entities.StatusQueued {
		t.Fatalf("expected queued shift got %s", shift.Status)
	}
	if tr.AudioObjectKey != "shifts/S-1/shift.mp3" {
		t.Fatalf("unexpected object key %q", tr.AudioObjectKey)
	}

	f.service.Wait()

	got, err := f.service.Get(ctx, "S-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != entities.StatusCompleted {
		t.Fatalf("expected completed got %s (%v)", got.Status, got.LastError)
	}
	if got.ChunkCount != 2 || len(got.Segments) != 3 {
		t.Fatalf("unexpected chunks=%d segments=%d", got.ChunkCount, len(got.Segments))
	}
	last := got.Segments[2]
	if last.ID != 2 || last.Start != 6 || last.End != 9 {
		t.Fatalf("second chunk not shifted by the first chunk's end: %+v", last)
	}
	if got.Segments[0].Speaker != entities.SpeakerPilot || got.Segments[1].Speaker != entities.SpeakerController {
		t.Fatalf("unexpected speakers %+v", got.Segments)
	}
	if got.FullText != "Swiss 12 ready Swiss 12 cleared for takeoff Swiss 12 airborne" {
		t.Fatalf("unexpected full text %q", got.FullText)
	}
	if got.Language != "en" {
		t.Fatalf("unexpected language %q", got.Language)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(hooked) != 1 || hooked[0] != "S-1" {
		t.Fatalf("completion hook not called once: %v", hooked)
	}
}

func TestIngest_DuplicateShift(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.Ingest(ctx, ingestInput("S-1")); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	f.service.Wait()

	_, _, err := f.service.Ingest(ctx, ingestInput("S-1"))
	if !errors.Is(err, ucerrors.ErrShiftAlreadyExists) {
		t.Fatalf("expected already exists got %v", err)
	}
}

func TestIngest_InvalidInput(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	noController := ingestInput("S-1")
	noController.Metadata.ControllerID = " "
	noAudio := ingestInput("S-2")
	noAudio.Audio = nil

	for _, in := range []IngestInput{noController, noAudio} {
		if _, _, err := f.service.Ingest(ctx, in); !errors.Is(err, ucerrors.ErrInvalidInput) {
			t.Fatalf("expected invalid input got %v", err)
		}
	}
	if n, _ := f.shifts.Count(ctx); n != 0 {
		t.Fatalf("expected no shifts stored, got %d", n)
	}
}

func TestIngest_StoreFailureRollsBack(t *testing.T) {
	f := newServiceFixture(t)
	f.store.putErr = errors.New("bucket unavailable")
	ctx := context.Background()

	_, _, err := f.service.Ingest(ctx, ingestInput("S-1"))
	if !errors.Is(err, ucerrors.ErrAudioStore) || !errors.Is(err, f.store.putErr) {
		t.Fatalf("expected audio store failure got %v", err)
	}
	shift, _ := f.shifts.FindByShiftID(ctx, "S-1")
	if shift != nil {
		t.Fatalf("shift left behind after failed upload: %+v", shift)
	}
}

func TestProcess_RetriesTransientErrors(t *testing.T) {
	f := newServiceFixture(t)
	f.transcriber.failures = map[string][]error{
		"chunk_001.wav": {errors.New("whisper: http 503: overloaded")},
	}
	ctx := context.Background()

	if _, _, err := f.service.Ingest(ctx, ingestInput("S-1")); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	f.service.Wait()

	got, _ := f.service.Get(ctx, "S-1")
	if got.Status != entities.StatusCompleted {
		t.Fatalf("expected completed after retry got %s", got.Status)
	}
	if f.transcriber.calls["chunk_001.wav"] != 2 {
		t.Fatalf("expected 2 attempts got %d", f.transcriber.calls["chunk_001.wav"])
	}
}

func TestProcess_ChunkAttemptsBoundRetries(t *testing.T) {
	f := newServiceFixture(t)
	f.service = NewService(f.shifts, f.transcriptions, f.store, f.chunker, f.transcriber, Options{
		Language:      "en",
		ChunkAttempts: 1,
		RetryDelay:    time.Millisecond,
		TempDir:       t.TempDir(),
	}, nil)
	t.Cleanup(func() { _ = f.service.Shutdown(context.Background()) })
	f.transcriber.failures = map[string][]error{
		"chunk_000.wav": {errors.New("whisper: http 503: overloaded")},
	}
	ctx := context.Background()

	if _, _, err := f.service.Ingest(ctx, ingestInput("S-1")); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	f.service.Wait()

	got, _ := f.service.Get(ctx, "S-1")
	if got.Status != entities.StatusError {
		t.Fatalf("expected error with a single attempt got %s", got.Status)
	}
	if f.transcriber.calls["chunk_000.wav"] != 1 {
		t.Fatalf("expected 1 attempt got %d", f.transcriber.calls["chunk_000.wav"])
	}
}

func TestProcess_FailureMarksError(t *testing.T) {
	f := newServiceFixture(t)
	f.transcriber.failures = map[string][]error{
		"chunk_000.wav": {errors.New("unsupported audio format")},
	}
	ctx := context.Background()

	called := false
	f.service.OnCompleted(func(context.Context, string) { called = true })

	if _, _, err := f.service.Ingest(ctx, ingestInput("S-1")); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	f.service.Wait()

	got, _ := f.service.Get(ctx, "S-1")
	if got.Status != entities.StatusError {
		t.Fatalf("expected error got %s", got.Status)
	}
	if got.LastError == nil || !strings.Contains(*got.LastError, "unsupported audio format") {
		t.Fatalf("unexpected last error %v", got.LastError)
	}
	if f.transcriber.calls["chunk_000.wav"] != 1 {
		t.Fatalf("permanent error was retried %d times", f.transcriber.calls["chunk_000.wav"])
	}
	if called {
		t.Fatal("completion hook called for a failed transcription")
	}
}

func TestRetranscribe(t *testing.T) {
	f := newServiceFixture(t)
	f.chunker.err = errors.New("ffmpeg exited with status 1")
	ctx := context.Background()

	if _, _, err := f.service.Ingest(ctx, ingestInput("S-1")); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	f.service.Wait()
	if got, _ := f.service.Get(ctx, "S-1"); got.Status != entities.StatusError {
		t.Fatalf("expected error got %s", got.Status)
	}

	f.chunker.err = nil
	tr, err := f.service.Retranscribe(ctx, "S-1")
	if err != nil {
		t.Fatalf("retranscribe failed: %v", err)
	}
	if tr.Status != entities.StatusProcessing || tr.LastError != nil {
		t.Fatalf("expected a clean processing record got %+v", tr)
	}
	f.service.Wait()

	got, _ := f.service.Get(ctx, "S-1")
	if got.Status != entities.StatusCompleted || len(got.Segments) != 3 {
		t.Fatalf("unexpected result %s with %d segments", got.Status, len(got.Segments))
	}
}

func TestRetranscribe_Preconditions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	if _, err := f.service.Retranscribe(ctx, "missing"); !errors.Is(err, ucerrors.ErrTranscriptionNotFound) {
		t.Fatalf("expected not found got %v", err)
	}

	meta := entities.ShiftMetadata{ShiftID: "S-2", ControllerID: "C-1"}
	running := entities.NewTranscription(meta, "a.mp3", "shifts/S-2/a.mp3")
	if err := f.transcriptions.Create(ctx, running); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Retranscribe(ctx, "S-2"); !errors.Is(err, ucerrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}

	meta.ShiftID = "S-3"
	noAudio := entities.NewTranscription(meta, "a.mp3", "")
	noAudio.Status = entities.StatusError
	if err := f.transcriptions.Create(ctx, noAudio); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Retranscribe(ctx, "S-3"); !errors.Is(err, ucerrors.ErrAudioMissing) {
		t.Fatalf("expected audio missing got %v", err)
	}
}

func TestShutdown_RejectsNewWork(t *testing.T) {
	f := newServiceFixture(t)
	if err := f.service.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if _, _, err := f.service.Ingest(context.Background(), ingestInput("S-1")); !errors.Is(err, ucerrors.ErrServiceShuttingDown) {
		t.Fatalf("expected shutting down got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"shift.mp3":               "shifts/S-1/shift.mp3",
		"../../etc/passwd":        "shifts/S-1/passwd",
		`C:\recordings\night.wav`: "shifts/S-1/night.wav",
		"":                        "shifts/S-1/audio",
	}
	for in, want := range cases {
		if got := ObjectKey("S-1", in); got != want {
			t.Errorf("ObjectKey(%q) = %q, want %q", in, got, want)
		}
	}
}
