package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/repository"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	ucerrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
)

// fakeCompleter answers by stage, recognised from the prompt's first line
type fakeCompleter struct {
	mu      sync.Mutex
	replies map[entities.Stage]string
	errs    map[entities.Stage]error
	// block makes a stage wait until its context ends
	block  map[entities.Stage]bool
	before func(stage entities.Stage)
	calls  []entities.Stage
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	stage := entities.StageSummary
	switch {
	case strings.HasPrefix(prompt, "Analyze this air traffic controller shift for fatigue"):
		stage = entities.StageFatigue
	case strings.HasPrefix(prompt, "Analyze these ATC communications for safety"):
		stage = entities.StageSafety
	}
	f.mu.Lock()
	f.calls = append(f.calls, stage)
	f.mu.Unlock()

	if f.before != nil {
		f.before(stage)
	}
	if f.block[stage] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err := f.errs[stage]; err != nil {
		return "", err
	}
	return f.replies[stage], nil
}

const (
	fatigueReply = "```json\n" + `{"fatigue_score": "72", "severity": "high", "indicators": [{"type": "slow_response", "evidence": "...", "timestamp": "12.0"}], "requires_attention": "false", "summary": "tired", "metrics": {"avg_response_time": 99}}` + "\n```"
	safetyReply  = `{"safety_score": "30", "issues_found": [], "requires_immediate_review": "true", "summary": "ok"}`
	summaryReply = `Report follows {"executive_summary": "Long shift.", "key_findings": ["slow"], "timeline": [], "recommendations": ["rest"], "priority_level": "high"}`
)

type fixture struct {
	shifts         *repository.MemoryShiftRepository
	transcriptions *repository.MemoryTranscriptionRepository
	completer      *fakeCompleter
	pipeline       *Pipeline
}

func newFixture(t *testing.T, transcriptStatus entities.Status) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		shifts:         repository.NewMemoryShiftRepository(),
		transcriptions: repository.NewMemoryTranscriptionRepository(),
		completer: &fakeCompleter{
			replies: map[entities.Stage]string{
				entities.StageFatigue: fatigueReply,
				entities.StageSafety:  safetyReply,
				entities.StageSummary: summaryReply,
			},
			errs: map[entities.Stage]error{},
		},
	}

	meta := entities.ShiftMetadata{
		ShiftID:      "S-1",
		ControllerID: "C-1",
		Facility:     "LSZH",
		StartTime:    "2024-01-15T06:00:00Z",
		EndTime:      "2024-01-15T16:00:00Z",
	}
	if err := f.shifts.Create(ctx, entities.NewShift(meta)); err != nil {
		t.Fatalf("create shift: %v", err)
	}

	tr := entities.NewTranscription(meta, "shift.mp3", "shifts/S-1/shift.mp3")
	tr.Status = transcriptStatus
	tr.Segments = []entities.Segment{
		{ID: 0, Start: 0, End: 2, Speaker: entities.SpeakerPilot, Text: "Swiss 12 ready"},
		{ID: 1, Start: 3, End: 5, Speaker: entities.SpeakerController, Text: "uh Swiss 12 cleared for takeoff"},
	}
	if err := f.transcriptions.Create(ctx, tr); err != nil {
		t.Fatalf("create transcription: %v", err)
	}

	f.pipeline = NewPipeline(f.shifts, f.transcriptions, f.completer, nil, Options{SampleCount: 10}, nil)
	return f
}

func TestPipelineRun_Success(t *testing.T) {
	f := newFixture(t, entities.StatusCompleted)

	shift, err := f.pipeline.Run(context.Background(), "S-1")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if shift.Status != entities.StatusCompleted {
		t.Fatalf("expected completed got %s", shift.Status)
	}
	if !shift.HasFatigue() || !shift.HasSafety() || !shift.HasSummary() {
		t.Fatalf("expected all three results got %+v", shift)
	}
	if got := f.completer.calls; len(got) != 3 || got[0] != entities.StageFatigue || got[1] != entities.StageSafety || got[2] != entities.StageSummary {
		t.Fatalf("unexpected stage order %v", got)
	}

	metrics, ok := shift.FatigueAnalysis["metrics"].(map[string]interface{})
	if !ok {
		t.Fatalf("fatigue result has no metrics: %v", shift.FatigueAnalysis)
	}
	if metrics["avg_response_time"] != float64(1) || metrics["hours_on_duty"] != float64(10) || metrics["hesitation_count"] != float64(1) {
		t.Fatalf("model metrics were not replaced: %v", metrics)
	}

	if shift.FatigueScore == nil || *shift.FatigueScore != 72 {
		t.Fatalf("expected fatigue score 72 got %v", shift.FatigueScore)
	}
	if !shift.RequiresAttention {
		t.Fatal("expected requires_attention from the safety review flag")
	}
	if shift.PriorityLevel != "high" {
		t.Fatalf("expected priority high got %q", shift.PriorityLevel)
	}
}

func TestPipelineRun_SafetyFailureKeepsFatigue(t *testing.T) {
	f := newFixture(t, entities.StatusCompleted)
	f.completer.errs[entities.StageSafety] = errors.New("ollama returned status 500: boom")

	_, err := f.pipeline.Run(context.Background(), "S-1")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError got %v", err)
	}
	if stageErr.Stage != entities.StageSafety || stageErr.ShiftID != "S-1" {
		t.Fatalf("unexpected stage error %+v", stageErr)
	}

	shift, _ := f.shifts.FindByShiftID(context.Background(), "S-1")
	if shift.Status != entities.StatusError {
		t.Fatalf("expected error status got %s", shift.Status)
	}
	if !shift.HasFatigue() || shift.HasSafety() || shift.HasSummary() {
		t.Fatalf("expected fatigue only got fatigue=%v safety=%v summary=%v", shift.HasFatigue(), shift.HasSafety(), shift.HasSummary())
	}
	if shift.FailedStage != "safety" || shift.LastError == nil {
		t.Fatalf("expected failed stage to be recorded got %q %v", shift.FailedStage, shift.LastError)
	}
}

func TestPipelineRun_MalformedReplyFailsStage(t *testing.T) {
	f := newFixture(t, entities.StatusCompleted)
	f.completer.replies[entities.StageFatigue] = "I am unable to rate fatigue."

	_, err := f.pipeline.Run(context.Background(), "S-1")
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != entities.StageFatigue {
		t.Fatalf("expected fatigue StageError got %v", err)
	}
	if !errors.Is(err, ucerrors.ErrMalformedModelOutput) {
		t.Fatalf("expected malformed output cause got %v", err)
	}
	if len(f.completer.calls) != 1 {
		t.Fatalf("later stages ran after a failure: %v", f.completer.calls)
	}
}

func TestPipelineRun_RerunClearsPreviousResults(t *testing.T) {
	f := newFixture(t, entities.StatusCompleted)
	ctx := context.Background()

	if _, err := f.pipeline.Run(ctx, "S-1"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	f.completer.errs[entities.StageFatigue] = errors.New("connection refused")
	if _, err := f.pipeline.Run(ctx, "S-1"); err == nil {
		t.Fatal("expected second run to fail")
	}

	shift, _ := f.shifts.FindByShiftID(ctx, "S-1")
	if shift.HasFatigue() || shift.HasSafety() || shift.HasSummary() || shift.PriorityLevel != "" {
		t.Fatalf("stale results survived the rerun: %+v", shift)
	}
	if shift.Status != entities.StatusError {
		t.Fatalf("expected error got %s", shift.Status)
	}
}

func TestPipelineRun_Preconditions(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, entities.StatusProcessing)
	if _, err := f.pipeline.Run(ctx, "S-1"); !errors.Is(err, ucerrors.ErrTranscriptNotReady) {
		t.Fatalf("expected ErrTranscriptNotReady got %v", err)
	}

	if _, err := f.pipeline.Run(ctx, "missing"); !errors.Is(err, ucerrors.ErrShiftNotFound) {
		t.Fatalf("expected ErrShiftNotFound got %v", err)
	}

	f = newFixture(t, entities.StatusCompleted)
	processing := entities.StatusProcessing
	if _, err := f.shifts.Update(ctx, "S-1", entities.ShiftUpdate{Status: &processing}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := f.pipeline.Run(ctx, "S-1"); !errors.Is(err, ucerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got %v", err)
	}
	if len(f.completer.calls) != 0 {
		t.Fatal("model was called for a rejected run")
	}
}

func TestPipelineRun_MissingTranscription(t *testing.T) {
	f := newFixture(t, entities.StatusCompleted)
	ctx := context.Background()
	_ = f.shifts.Create(ctx, entities.NewShift(entities.ShiftMetadata{ShiftID: "S-2", ControllerID: "C-1"}))

	if _, err := f.pipeline.Run(ctx, "S-2"); !errors.Is(err, ucerrors.ErrTranscriptionNotFound) {
		t.Fatalf("expected ErrTranscriptionNotFound got %v", err)
	}
}

func TestPipelineRun_StageTimeout(t *testing.T) {
	f := newFixture(t, entities.StatusCompleted)
	f.completer.block = map[entities.Stage]bool{entities.StageFatigue: true}
	f.pipeline = NewPipeline(f.shifts, f.transcriptions, f.completer, nil, Options{StageTimeout: 50 * time.Millisecond}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.Run(context.Background(), "S-1")
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stage timeout did not end the run")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != entities.StageFatigue {
		t.Fatalf("expected fatigue StageError got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded got %v", err)
	}

	shift, _ := f.shifts.FindByShiftID(context.Background(), "S-1")
	if shift.Status != entities.StatusError {
		t.Fatalf("expected error status got %s", shift.Status)
	}
	if shift.FailedStage != string(entities.StageFatigue) {
		t.Fatalf("expected failed_stage fatigue got %q", shift.FailedStage)
	}
	if len(f.completer.calls) != 1 {
		t.Fatalf("later stages should not run, got %v", f.completer.calls)
	}
}

func TestPipelineRun_KeepsFailureRecordedElsewhere(t *testing.T) {
	f := newFixture(t, entities.StatusCompleted)
	const staleMsg = "stale processing run"
	f.completer.before = func(stage entities.Stage) {
		if stage != entities.StageSummary {
			return
		}
		status := entities.StatusError
		msg := staleMsg
		if _, err := f.shifts.Update(context.Background(), "S-1", entities.ShiftUpdate{
			ExpectedStatus: []entities.Status{entities.StatusProcessing},
			Status:         &status,
			LastError:      &msg,
		}); err != nil {
			t.Errorf("failing the run: %v", err)
		}
	}

	_, err := f.pipeline.Run(context.Background(), "S-1")
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != entities.StageSummary {
		t.Fatalf("expected summary StageError got %v", err)
	}
	if !errors.Is(err, entities.ErrStatusConflict) {
		t.Fatalf("expected status conflict got %v", err)
	}

	shift, _ := f.shifts.FindByShiftID(context.Background(), "S-1")
	if shift.Status != entities.StatusError {
		t.Fatalf("expected error status got %s", shift.Status)
	}
	if shift.LastError == nil || *shift.LastError != staleMsg {
		t.Fatalf("failure diagnosis was overwritten: %v", shift.LastError)
	}
	if shift.FailedStage != "" {
		t.Fatalf("expected no failed stage got %q", shift.FailedStage)
	}
	if shift.HasSummary() {
		t.Fatal("summary stored after the run was failed")
	}
}
