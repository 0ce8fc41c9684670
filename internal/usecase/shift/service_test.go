package shift

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/repository"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	ucerrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	runs    []string
	done    chan string
	started chan struct{}
	// release holds runs until closed or until their context ends
	release chan struct{}
	ctxErr  error
}

func (f *fakeAnalyzer) Run(ctx context.Context, shiftID string) (*entities.Shift, error) {
	f.mu.Lock()
	f.runs = append(f.runs, shiftID)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			f.mu.Lock()
			f.ctxErr = ctx.Err()
			f.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	if f.done != nil {
		f.done <- shiftID
	}
	return &entities.Shift{ShiftMetadata: entities.ShiftMetadata{ShiftID: shiftID}, Status: entities.StatusCompleted}, nil
}

type fakeAudio struct {
	deleted []string
}

func (f *fakeAudio) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type serviceFixture struct {
	shifts         *repository.MemoryShiftRepository
	transcriptions *repository.MemoryTranscriptionRepository
	analyzer       *fakeAnalyzer
	audio          *fakeAudio
	service        Service
}

func newServiceFixture(opts Options) *serviceFixture {
	f := &serviceFixture{
		shifts:         repository.NewMemoryShiftRepository(),
		transcriptions: repository.NewMemoryTranscriptionRepository(),
		analyzer:       &fakeAnalyzer{},
		audio:          &fakeAudio{},
	}
	f.service = NewService(f.shifts, f.transcriptions, f.analyzer, f.audio, opts, nil)
	return f
}

func meta(id string) entities.ShiftMetadata {
	return entities.ShiftMetadata{
		ShiftID:      id,
		ControllerID: "C-1",
		Facility:     "LSZH",
		Position:     "TWR",
		StartTime:    "2024-01-15T06:00:00Z",
		EndTime:      "2024-01-15T14:00:00Z",
	}
}

// seed stores a shift with the given fatigue score and attention flag
func (f *serviceFixture) seed(t *testing.T, id string, score *float64, attention bool) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.service.Create(ctx, meta(id)); err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
	if score == nil && !attention {
		return
	}
	_, err := f.shifts.Update(ctx, id, entities.ShiftUpdate{
		FatigueScore:      score,
		RequiresAttention: &attention,
	})
	if err != nil {
		t.Fatalf("update %s: %v", id, err)
	}
}

func score(v float64) *float64 { return &v }

func TestCreate_DuplicateKeepsOriginal(t *testing.T) {
	f := newServiceFixture(Options{})
	ctx := context.Background()

	if _, err := f.service.Create(ctx, meta("S-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	other := meta("S-1")
	other.ControllerID = "C-9"
	if _, err := f.service.Create(ctx, other); !errors.Is(err, ucerrors.ErrShiftAlreadyExists) {
		t.Fatalf("expected already exists got %v", err)
	}

	got, err := f.service.Get(ctx, "S-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ControllerID != "C-1" || got.Status != entities.StatusQueued {
		t.Fatalf("original record changed: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newServiceFixture(Options{})
	if _, err := f.service.Get(context.Background(), "missing"); !errors.Is(err, ucerrors.ErrShiftNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestList_ClampsLimit(t *testing.T) {
	if got := clampLimit(0); got != DefaultListLimit {
		t.Fatalf("expected default limit got %d", got)
	}
	if got := clampLimit(1000); got != MaxListLimit {
		t.Fatalf("expected max limit got %d", got)
	}
	if got := clampLimit(10); got != 10 {
		t.Fatalf("expected 10 got %d", got)
	}
}

func TestUpdateMetadata(t *testing.T) {
	f := newServiceFixture(Options{})
	ctx := context.Background()
	f.seed(t, "S-1", nil, false)
	if err := f.transcriptions.Create(ctx, entities.NewTranscription(meta("S-1"), "a.mp3", "shifts/S-1/a.mp3")); err != nil {
		t.Fatalf("create transcription: %v", err)
	}

	if _, err := f.service.UpdateMetadata(ctx, "S-1", &entities.MetadataPatch{}); !errors.Is(err, ucerrors.ErrEmptyPatch) {
		t.Fatalf("expected empty patch got %v", err)
	}

	facility := "LFPG"
	updated, err := f.service.UpdateMetadata(ctx, "S-1", &entities.MetadataPatch{Facility: &facility})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Facility != "LFPG" || updated.Position != "TWR" {
		t.Fatalf("unexpected metadata %+v", updated.ShiftMetadata)
	}
	tr, _ := f.transcriptions.FindByShiftID(ctx, "S-1")
	if tr.Facility != "LFPG" {
		t.Fatalf("transcription metadata not updated: %+v", tr.ShiftMetadata)
	}

	if _, err := f.service.UpdateMetadata(ctx, "missing", &entities.MetadataPatch{Facility: &facility}); !errors.Is(err, ucerrors.ErrShiftNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestDelete_RemovesTranscriptionAndAudio(t *testing.T) {
	f := newServiceFixture(Options{})
	ctx := context.Background()
	f.seed(t, "S-1", nil, false)
	if err := f.transcriptions.Create(ctx, entities.NewTranscription(meta("S-1"), "a.mp3", "shifts/S-1/a.mp3")); err != nil {
		t.Fatalf("create transcription: %v", err)
	}

	if err := f.service.Delete(ctx, "S-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if tr, _ := f.transcriptions.FindByShiftID(ctx, "S-1"); tr != nil {
		t.Fatal("transcription left behind")
	}
	if len(f.audio.deleted) != 1 || f.audio.deleted[0] != "shifts/S-1/a.mp3" {
		t.Fatalf("audio not deleted: %v", f.audio.deleted)
	}
	if err := f.service.Delete(ctx, "S-1"); !errors.Is(err, ucerrors.ErrShiftNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestHighRiskAndAttention(t *testing.T) {
	f := newServiceFixture(Options{})
	ctx := context.Background()
	f.seed(t, "S-low", score(40), false)
	f.seed(t, "S-high", score(85), true)
	f.seed(t, "S-edge", score(70), false)
	f.seed(t, "S-none", nil, false)

	risky, total, err := f.service.HighRisk(ctx, 0, 0, 0)
	if err != nil {
		t.Fatalf("high risk failed: %v", err)
	}
	if total != 2 || risky[0].ShiftID != "S-high" || risky[1].ShiftID != "S-edge" {
		t.Fatalf("unexpected high risk result total=%d %v", total, ids(risky))
	}

	flagged, total, err := f.service.AttentionRequired(ctx, 0, 0)
	if err != nil {
		t.Fatalf("attention failed: %v", err)
	}
	if total != 1 || flagged[0].ShiftID != "S-high" {
		t.Fatalf("unexpected attention result %v", ids(flagged))
	}
}

func TestStats(t *testing.T) {
	f := newServiceFixture(Options{})
	f.seed(t, "S-1", nil, false)
	f.seed(t, "S-2", nil, false)

	stats, err := f.service.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 2 || stats.ByStatus[entities.StatusQueued] != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if _, ok := stats.ByStatus[entities.StatusError]; !ok {
		t.Fatal("expected every status to be reported")
	}
}

func TestAnalyzeAsync(t *testing.T) {
	f := newServiceFixture(Options{})
	f.analyzer.done = make(chan string, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.service.AnalyzeAsync(ctx, "S-1")

	select {
	case id := <-f.analyzer.done:
		if id != "S-1" {
			t.Fatalf("unexpected shift %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("analysis was not started")
	}
}

func TestShutdown_WaitsForAutomaticRuns(t *testing.T) {
	f := newServiceFixture(Options{})
	f.analyzer.started = make(chan struct{}, 1)
	f.analyzer.release = make(chan struct{})

	f.service.AnalyzeAsync(context.Background(), "S-1")
	<-f.analyzer.started

	stopped := make(chan error, 1)
	go func() { stopped <- f.service.Shutdown(context.Background()) }()

	select {
	case err := <-stopped:
		t.Fatalf("shutdown returned before the run finished: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(f.analyzer.release)
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("unexpected shutdown error %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("shutdown did not return after the run finished")
	}

	f.service.AnalyzeAsync(context.Background(), "S-2")
	f.analyzer.mu.Lock()
	defer f.analyzer.mu.Unlock()
	if len(f.analyzer.runs) != 1 {
		t.Fatalf("run started after shutdown: %v", f.analyzer.runs)
	}
}

func TestShutdown_CancelsRunsOnDeadline(t *testing.T) {
	f := newServiceFixture(Options{})
	f.analyzer.started = make(chan struct{}, 1)
	f.analyzer.release = make(chan struct{})
	defer close(f.analyzer.release)

	f.service.AnalyzeAsync(context.Background(), "S-1")
	<-f.analyzer.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.service.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded got %v", err)
	}

	f.analyzer.mu.Lock()
	defer f.analyzer.mu.Unlock()
	if !errors.Is(f.analyzer.ctxErr, context.Canceled) {
		t.Fatalf("expected the run to be cancelled got %v", f.analyzer.ctxErr)
	}
}

func TestSweepStale(t *testing.T) {
	f := newServiceFixture(Options{StaleAfter: time.Millisecond})
	ctx := context.Background()
	processing := entities.StatusProcessing

	f.seed(t, "S-stuck", nil, false)
	if _, err := f.shifts.Update(ctx, "S-stuck", entities.ShiftUpdate{Status: &processing}); err != nil {
		t.Fatalf("update: %v", err)
	}
	f.seed(t, "S-queued", nil, false)
	if err := f.transcriptions.Create(ctx, entities.NewTranscription(meta("S-stuck"), "a.mp3", "k")); err != nil {
		t.Fatalf("create transcription: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	n, err := f.service.SweepStale(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 swept records got %d", n)
	}

	s, _ := f.shifts.FindByShiftID(ctx, "S-stuck")
	if s.Status != entities.StatusError || s.LastError == nil || *s.LastError != StaleRunError {
		t.Fatalf("stale shift not failed: %+v", s)
	}
	q, _ := f.shifts.FindByShiftID(ctx, "S-queued")
	if q.Status != entities.StatusQueued {
		t.Fatalf("queued shift touched: %s", q.Status)
	}
	tr, _ := f.transcriptions.FindByShiftID(ctx, "S-stuck")
	if tr.Status != entities.StatusError {
		t.Fatalf("stale transcription not failed: %s", tr.Status)
	}
}

func TestSweepStale_IgnoresFreshRuns(t *testing.T) {
	f := newServiceFixture(Options{StaleAfter: time.Hour})
	ctx := context.Background()
	processing := entities.StatusProcessing

	f.seed(t, "S-1", nil, false)
	if _, err := f.shifts.Update(ctx, "S-1", entities.ShiftUpdate{Status: &processing}); err != nil {
		t.Fatalf("update: %v", err)
	}

	n, err := f.service.SweepStale(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected nothing swept got %d (%v)", n, err)
	}
}

func TestSweeperLifecycle(t *testing.T) {
	f := newServiceFixture(Options{SweepInterval: time.Millisecond})
	ctx := context.Background()

	if err := f.service.StartSweeper(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := f.service.StartSweeper(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}
	if err := f.service.StopSweeper(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := f.service.StopSweeper(); err == nil {
		t.Fatal("expected second stop to fail")
	}
}

func ids(shifts []*entities.Shift) []string {
	out := make([]string, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, s.ShiftID)
	}
	return out
}
