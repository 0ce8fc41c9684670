package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
	ucerrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/jobcontext"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/llm"
)

// StageError reports which stage stopped a run
type StageError struct {
	ShiftID string
	Stage   entities.Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("analysis stage %s failed for shift %s: %v", e.Stage, e.ShiftID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options tunes a pipeline
type Options struct {
	// SampleCount is how many transmissions the fatigue prompt quotes
	SampleCount int
	// StageTimeout bounds each model call; 0 means no extra bound
	StageTimeout time.Duration
}

// Pipeline runs fatigue, safety and summary analysis over a transcribed shift
type Pipeline struct {
	shiftRepo         repositories.ShiftRepository
	transcriptionRepo repositories.TranscriptionRepository
	completer         llm.Completer
	metrics           *MetricsExtractor
	opts              Options
	logger            *zap.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(
	shiftRepo repositories.ShiftRepository,
	transcriptionRepo repositories.TranscriptionRepository,
	completer llm.Completer,
	metrics *MetricsExtractor,
	opts Options,
	logger *zap.Logger,
) *Pipeline {
	if opts.SampleCount <= 0 {
		opts.SampleCount = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetricsExtractor(DefaultDutyHours, logger)
	}
	return &Pipeline{
		shiftRepo:         shiftRepo,
		transcriptionRepo: transcriptionRepo,
		completer:         completer,
		metrics:           metrics,
		opts:              opts,
		logger:            logger,
	}
}

// Run analyses one shift end to end. Each stage result is stored as soon as
// it is produced; a failing stage marks the shift as errored and is returned
// as a *StageError.
func (p *Pipeline) Run(ctx context.Context, shiftID string) (*entities.Shift, error) {
	shift, err := p.shiftRepo.FindByShiftID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	if shift == nil {
		return nil, ucerrors.ErrShiftNotFound
	}

	transcription, err := p.transcriptionRepo.FindByShiftID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcription: %w", err)
	}
	if transcription == nil {
		return nil, ucerrors.ErrTranscriptionNotFound
	}
	if transcription.Status != entities.StatusCompleted {
		return nil, fmt.Errorf("%w: status is %s", ucerrors.ErrTranscriptNotReady, transcription.Status)
	}

	if !shift.Status.CanTransitionTo(entities.StatusProcessing) {
		return nil, fmt.Errorf("%w: %s -> %s", ucerrors.ErrInvalidTransition, shift.Status, entities.StatusProcessing)
	}

	processing := entities.StatusProcessing
	shift, err = p.shiftRepo.Update(ctx, shiftID, entities.ShiftUpdate{
		ExpectedStatus: []entities.Status{shift.Status},
		Status:         &processing,
		ClearAnalyses:  true,
		ClearError:     true,
	})
	if err != nil {
		if errors.Is(err, entities.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: shift changed status concurrently", ucerrors.ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to start analysis: %w", err)
	}

	p.logger.Info("🚀 Starting shift analysis",
		zap.String("shift_id", shiftID),
		zap.Int("segments", len(transcription.Segments)),
	)
	started := time.Now()

	meta := shift.ShiftMetadata
	segments := transcription.Segments

	// Fatigue
	metrics := p.metrics.Extract(meta, segments)
	fatigue, err := p.runStage(ctx, shiftID, entities.StageFatigue, RenderFatiguePrompt(FatigueContext{
		Shift:              meta,
		Metrics:            metrics,
		TotalTransmissions: len(segments),
		Samples:            SampleSegments(segments, p.opts.SampleCount),
	}))
	if err != nil {
		return nil, p.fail(ctx, shiftID, entities.StageFatigue, err)
	}
	fatigue["metrics"] = metrics.AsMap()

	fatigueView := entities.FatigueView(fatigue)
	attention := fatigueView.RequiresAttention
	update := entities.ShiftUpdate{
		FatigueAnalysis:   fatigue,
		RequiresAttention: &attention,
	}
	if score, err := cast.ToFloat64E(fatigue["fatigue_score"]); err == nil {
		update.FatigueScore = &score
	}
	if _, err := p.shiftRepo.Update(ctx, shiftID, update); err != nil {
		return nil, p.fail(ctx, shiftID, entities.StageFatigue, fmt.Errorf("failed to store fatigue result: %w", err))
	}

	// Safety
	safety, err := p.runStage(ctx, shiftID, entities.StageSafety, RenderSafetyPrompt(SafetyContext{
		Shift:    meta,
		Segments: segments,
	}))
	if err != nil {
		return nil, p.fail(ctx, shiftID, entities.StageSafety, err)
	}
	attention = attention || entities.SafetyView(safety).RequiresImmediateReview
	if _, err := p.shiftRepo.Update(ctx, shiftID, entities.ShiftUpdate{
		SafetyAnalysis:    safety,
		RequiresAttention: &attention,
	}); err != nil {
		return nil, p.fail(ctx, shiftID, entities.StageSafety, fmt.Errorf("failed to store safety result: %w", err))
	}

	// Summary
	summary, err := p.runStage(ctx, shiftID, entities.StageSummary, RenderSummaryPrompt(SummaryContext{
		Shift:     meta,
		DutyHours: metrics.HoursOnDuty,
		Fatigue:   fatigue,
		Safety:    safety,
	}))
	if err != nil {
		return nil, p.fail(ctx, shiftID, entities.StageSummary, err)
	}
	priority := entities.SummaryView(summary).PriorityLevel
	completed := entities.StatusCompleted
	shift, err = p.shiftRepo.Update(ctx, shiftID, entities.ShiftUpdate{
		ExpectedStatus: []entities.Status{entities.StatusProcessing},
		Summary:        summary,
		PriorityLevel:  &priority,
		Status:         &completed,
	})
	if err != nil {
		cause := fmt.Errorf("failed to store summary: %w", err)
		if errors.Is(err, entities.ErrStatusConflict) {
			// the run was already failed elsewhere; keep that diagnosis
			p.logger.Warn("⚠️ Shift left processing before the summary was stored",
				zap.String("shift_id", shiftID),
			)
			return nil, &StageError{ShiftID: shiftID, Stage: entities.StageSummary, Err: cause}
		}
		return nil, p.fail(ctx, shiftID, entities.StageSummary, cause)
	}

	p.logger.Info("✅ Shift analysis completed",
		zap.String("shift_id", shiftID),
		zap.Bool("requires_attention", shift.RequiresAttention),
		zap.String("priority_level", shift.PriorityLevel),
		zap.Duration("took", time.Since(started)),
	)
	return shift, nil
}

// runStage sends one prompt and decodes the reply
func (p *Pipeline) runStage(ctx context.Context, shiftID string, stage entities.Stage, prompt string) (map[string]interface{}, error) {
	stageCtx, cancel := jobcontext.StageBegin(ctx, shiftID, string(stage), p.opts.StageTimeout)
	defer cancel()

	p.logger.Info("🧠 Running analysis stage",
		zap.String("shift_id", shiftID),
		zap.String("stage", string(stage)),
		zap.Int("prompt_chars", len(prompt)),
	)

	reply, err := p.completer.Complete(stageCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	result, err := ExtractJSON(reply)
	if err != nil {
		p.logger.Warn("⚠️ Model reply could not be parsed",
			zap.String("shift_id", shiftID),
			zap.String("stage", string(stage)),
			zap.String("reply", truncate(reply, 500)),
		)
		return nil, err
	}

	p.logger.Info("✅ Analysis stage finished",
		zap.String("shift_id", shiftID),
		zap.String("stage", string(stage)),
		zap.Duration("took", jobcontext.Elapsed(stageCtx)),
	)
	return result, nil
}

// fail records the failed stage while the run still owns the shift. It still
// runs when the caller's context is done.
func (p *Pipeline) fail(ctx context.Context, shiftID string, stage entities.Stage, cause error) error {
	stageErr := &StageError{ShiftID: shiftID, Stage: stage, Err: cause}

	status := entities.StatusError
	failedStage := string(stage)
	msg := cause.Error()
	if _, err := p.shiftRepo.Update(context.WithoutCancel(ctx), shiftID, entities.ShiftUpdate{
		ExpectedStatus: []entities.Status{entities.StatusProcessing},
		Status:         &status,
		FailedStage:    &failedStage,
		LastError:      &msg,
	}); err != nil {
		p.logger.Error("❌ Failed to record analysis failure",
			zap.String("shift_id", shiftID),
			zap.String("stage", failedStage),
			zap.Error(err),
		)
	}

	p.logger.Error("❌ Shift analysis failed",
		zap.String("shift_id", shiftID),
		zap.String("stage", failedStage),
		zap.Error(cause),
	)
	return stageErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
