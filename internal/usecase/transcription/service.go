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
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
	ucerrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/jobcontext"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/stt"
)

// AudioStore keeps uploaded shift recordings
type AudioStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key, path string) error
	Delete(ctx context.Context, key string) error
}

// Chunker splits a recording into ordered chunk files inside outDir
type Chunker interface {
	Split(ctx context.Context, input, outDir string) ([]string, error)
}

// CompletedHook runs after a transcription finished successfully
type CompletedHook func(ctx context.Context, shiftID string)

// IngestInput is an uploaded recording with its shift metadata
type IngestInput struct {
	Metadata    entities.ShiftMetadata
	Filename    string
	ContentType string
	Size        int64
	Audio       io.Reader
}

// Options tunes the transcription service
type Options struct {
	Language       string
	DefaultSpeaker entities.Speaker
	Workers        int
	JobTimeout     time.Duration
	// ChunkAttempts bounds transcriber calls per chunk, RetryDelay is the
	// initial backoff between them
	ChunkAttempts int
	RetryDelay    time.Duration
	TempDir       string
}

// Service turns uploaded shift audio into stored transcripts
type Service interface {
	Ingest(ctx context.Context, in IngestInput) (*entities.Shift, *entities.Transcription, error)
	Retranscribe(ctx context.Context, shiftID string) (*entities.Transcription, error)
	Get(ctx context.Context, shiftID string) (*entities.Transcription, error)
	List(ctx context.Context, filters repositories.TranscriptionFilters) ([]*entities.Transcription, int64, error)
	Stats(ctx context.Context) (map[entities.Status]int64, int64, error)
	OnCompleted(hook CompletedHook)
	// Wait blocks until every dispatched job has finished
	Wait()
	Shutdown(ctx context.Context) error
}

type transcriptionService struct {
	shiftRepo         repositories.ShiftRepository
	transcriptionRepo repositories.TranscriptionRepository
	store             AudioStore
	chunker           Chunker
	transcriber       stt.Transcriber
	opts              Options
	logger            *zap.Logger

	onCompleted CompletedHook

	workerSemaphore chan struct{} // bounds concurrent transcriptions
	workerWg        sync.WaitGroup
	baseCtx         context.Context
	stop            context.CancelFunc
	mu              sync.Mutex
	closing         bool
	nextWorker      int
}

// NewService creates a transcription service
func NewService(
	shiftRepo repositories.ShiftRepository,
	transcriptionRepo repositories.TranscriptionRepository,
	store AudioStore,
	chunker Chunker,
	transcriber stt.Transcriber,
	opts Options,
	logger *zap.Logger,
) Service {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DefaultSpeaker == "" {
		opts.DefaultSpeaker = entities.SpeakerController
	}
	if opts.ChunkAttempts <= 0 {
		opts.ChunkAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseCtx, stop := context.WithCancel(context.Background())

	return &transcriptionService{
		shiftRepo:         shiftRepo,
		transcriptionRepo: transcriptionRepo,
		store:             store,
		chunker:           chunker,
		transcriber:       transcriber,
		opts:              opts,
		logger:            logger,
		workerSemaphore:   make(chan struct{}, opts.Workers),
		baseCtx:           baseCtx,
		stop:              stop,
	}
}

func (s *transcriptionService) OnCompleted(hook CompletedHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCompleted = hook
}

// ObjectKey is where a shift's recording is stored
func ObjectKey(shiftID, filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "audio"
	}
	return fmt.Sprintf("shifts/%s/%s", shiftID, name)
}

// Ingest creates the shift and its pending transcription, stores the audio and
// queues the transcription job. The returned records are the stored state
// before the job runs.
func (s *transcriptionService) Ingest(ctx context.Context, in IngestInput) (*entities.Shift, *entities.Transcription, error) {
	if s.isClosing() {
		return nil, nil, ucerrors.ErrServiceShuttingDown
	}
	meta := in.Metadata
	shiftID := meta.ShiftID
	if strings.TrimSpace(shiftID) == "" || strings.TrimSpace(meta.ControllerID) == "" {
		return nil, nil, fmt.Errorf("%w: shift_id and controller_id are required", ucerrors.ErrInvalidInput)
	}
	if in.Audio == nil {
		return nil, nil, fmt.Errorf("%w: no audio", ucerrors.ErrInvalidInput)
	}

	shift := entities.NewShift(meta)
	if err := s.shiftRepo.Create(ctx, shift); err != nil {
		if errors.Is(err, entities.ErrShiftAlreadyExists) {
			return nil, nil, ucerrors.ErrShiftAlreadyExists
		}
		return nil, nil, fmt.Errorf("failed to create shift: %w", err)
	}

	key := ObjectKey(shiftID, in.Filename)
	if err := s.store.Put(ctx, key, in.Audio, in.Size, in.ContentType); err != nil {
		s.rollbackShift(ctx, shiftID)
		return nil, nil, fmt.Errorf("%w: %w", ucerrors.ErrAudioStore, err)
	}

	transcription := entities.NewTranscription(meta, in.Filename, key)
	if err := s.transcriptionRepo.Create(ctx, transcription); err != nil {
		s.rollbackShift(ctx, shiftID)
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("⚠️ Failed to remove orphaned audio", zap.String("key", key), zap.Error(delErr))
		}
		if errors.Is(err, entities.ErrTranscriptionAlreadyExists) {
			return nil, nil, ucerrors.ErrShiftAlreadyExists
		}
		return nil, nil, fmt.Errorf("failed to create transcription: %w", err)
	}

	s.logger.Info("📥 Shift audio ingested",
		zap.String("shift_id", shiftID),
		zap.String("object_key", key),
		zap.Int64("size", in.Size),
	)

	s.dispatch(shiftID)
	return shift, transcription, nil
}

func (s *transcriptionService) rollbackShift(ctx context.Context, shiftID string) {
	if err := s.shiftRepo.Delete(context.WithoutCancel(ctx), shiftID); err != nil {
		s.logger.Error("❌ Failed to roll back shift", zap.String("shift_id", shiftID), zap.Error(err))
	}
}

// Retranscribe starts a new transcription run from the stored audio
func (s *transcriptionService) Retranscribe(ctx context.Context, shiftID string) (*entities.Transcription, error) {
	if s.isClosing() {
		return nil, ucerrors.ErrServiceShuttingDown
	}
	current, err := s.transcriptionRepo.FindByShiftID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcription: %w", err)
	}
	if current == nil {
		return nil, ucerrors.ErrTranscriptionNotFound
	}
	if current.AudioObjectKey == "" {
		return nil, ucerrors.ErrAudioMissing
	}
	if !current.Status.CanTransitionTo(entities.StatusProcessing) {
		return nil, fmt.Errorf("%w: %s -> %s", ucerrors.ErrInvalidTransition, current.Status, entities.StatusProcessing)
	}

	processing := entities.StatusProcessing
	updated, err := s.transcriptionRepo.Update(ctx, shiftID, entities.TranscriptionUpdate{
		ExpectedStatus: []entities.Status{current.Status},
		Status:         &processing,
		ClearError:     true,
	})
	if err != nil {
		if errors.Is(err, entities.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: transcription changed status concurrently", ucerrors.ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to restart transcription: %w", err)
	}

	s.dispatch(shiftID)
	return updated, nil
}

func (s *transcriptionService) Get(ctx context.Context, shiftID string) (*entities.Transcription, error) {
	t, err := s.transcriptionRepo.FindByShiftID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcription: %w", err)
	}
	if t == nil {
		return nil, ucerrors.ErrTranscriptionNotFound
	}
	return t, nil
}

func (s *transcriptionService) List(ctx context.Context, filters repositories.TranscriptionFilters) ([]*entities.Transcription, int64, error) {
	return s.transcriptionRepo.List(ctx, filters)
}

// Stats returns the per-status counts and the total
func (s *transcriptionService) Stats(ctx context.Context) (map[entities.Status]int64, int64, error) {
	counts, err := s.transcriptionRepo.CountByStatus(ctx)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transcriptionRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return entities.FillStatusCounts(counts), total, nil
}

// dispatch runs the job detached from the request that queued it
func (s *transcriptionService) dispatch(shiftID string) {
	s.mu.Lock()
	s.nextWorker++
	workerID := s.nextWorker
	s.workerWg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.workerWg.Done()

		select {
		case s.workerSemaphore <- struct{}{}:
		case <-s.baseCtx.Done():
			s.markFailed(shiftID, errors.New("transcription service stopped before the job started"))
			return
		}
		defer func() { <-s.workerSemaphore }()

		ctx, cancel := jobcontext.JobBegin(s.baseCtx, shiftID, "transcribe", workerID, s.opts.JobTimeout)
		defer cancel()
		ctx = jobcontext.SetMaxRetries(ctx, s.opts.ChunkAttempts)

		if err := s.process(ctx, shiftID); err != nil {
			s.markFailed(shiftID, err)
			return
		}

		s.mu.Lock()
		hook := s.onCompleted
		s.mu.Unlock()
		if hook != nil {
			hook(s.baseCtx, shiftID)
		}
	}()
}

// process downloads, chunks and transcribes the recording, then stores the timeline
func (s *transcriptionService) process(ctx context.Context, shiftID string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	started := time.Now()
	current, err := s.transcriptionRepo.FindByShiftID(ctx, shiftID)
	if err != nil {
		return fmt.Errorf("failed to load transcription: %w", err)
	}
	if current == nil {
		return ucerrors.ErrTranscriptionNotFound
	}

	meta := jobcontext.GetJobMetadata(ctx)
	s.logger.Info("🎧 Starting transcription",
		zap.String("shift_id", meta.ShiftID),
		zap.String("job_type", meta.JobType),
		zap.Int("worker_id", meta.WorkerID),
		zap.Int("max_attempts", meta.MaxRetries),
		zap.String("object_key", current.AudioObjectKey),
	)

	workDir, err := os.MkdirTemp(s.opts.TempDir, "shift-*")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	source := filepath.Join(workDir, "source"+filepath.Ext(current.AudioObjectKey))
	if err := s.store.Download(ctx, current.AudioObjectKey, source); err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}

	paths, err := s.chunker.Split(ctx, source, filepath.Join(workDir, "chunks"))
	if err != nil {
		return fmt.Errorf("failed to split audio: %w", err)
	}

	language := ""
	chunks := make([]Chunk, 0, len(paths))
	for i, path := range paths {
		var result *stt.Result
		err := jobcontext.Retry(ctx, s.opts.RetryDelay, func(ctx context.Context) error {
			var err error
			result, err = s.transcriber.Transcribe(ctx, path, s.opts.Language)
			return err
		})
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if language == "" {
			language = result.Language
		}
		chunks = append(chunks, Chunk{Index: i, Segments: s.toSegments(result.Segments)})

		s.logger.Debug("chunk transcribed",
			zap.String("shift_id", shiftID),
			zap.Int("chunk", i),
			zap.Int("segments", len(result.Segments)),
		)
	}
	if language == "" {
		language = s.opts.Language
	}

	timeline := BuildTimeline(chunks)
	completed := entities.StatusCompleted
	chunkCount := len(paths)
	if _, err := s.transcriptionRepo.Update(ctx, shiftID, entities.TranscriptionUpdate{
		ExpectedStatus: []entities.Status{entities.StatusProcessing},
		Status:         &completed,
		FullText:       &timeline.FullText,
		Language:       &language,
		Segments:       &timeline.Segments,
		ChunkCount:     &chunkCount,
		ClearError:     true,
	}); err != nil {
		return fmt.Errorf("failed to store transcription: %w", err)
	}

	s.logger.Info("✅ Transcription completed",
		zap.String("shift_id", shiftID),
		zap.Int("chunks", chunkCount),
		zap.Int("segments", len(timeline.Segments)),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}

// toSegments keeps a backend speaker label only when it names a known role
func (s *transcriptionService) toSegments(in []stt.Segment) []entities.Segment {
	out := make([]entities.Segment, 0, len(in))
	for _, seg := range in {
		speaker := entities.ParseSpeaker(strings.ToLower(strings.TrimSpace(seg.Speaker)))
		if speaker == entities.SpeakerUnknown {
			speaker = s.opts.DefaultSpeaker
		}
		out = append(out, entities.Segment{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: speaker,
			Text:    seg.Text,
		})
	}
	return out
}

func (s *transcriptionService) markFailed(shiftID string, cause error) {
	s.logger.Error("❌ Transcription failed", zap.String("shift_id", shiftID), zap.Error(cause))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := entities.StatusError
	msg := cause.Error()
	if _, err := s.transcriptionRepo.Update(ctx, shiftID, entities.TranscriptionUpdate{
		ExpectedStatus: []entities.Status{entities.StatusProcessing},
		Status:         &status,
		LastError:      &msg,
	}); err != nil {
		s.logger.Error("❌ Failed to record transcription failure", zap.String("shift_id", shiftID), zap.Error(err))
	}
}

func (s *transcriptionService) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *transcriptionService) Wait() {
	s.workerWg.Wait()
}

// Shutdown stops accepting jobs and waits for running ones. When ctx ends
// first the remaining jobs are cancelled and marked as errored.
func (s *transcriptionService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.stop()
		return nil
	case <-ctx.Done():
		s.stop()
		<-done
		return ctx.Err()
	}
}
