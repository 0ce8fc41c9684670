package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type KeyContext string

var (
	keyShiftID      KeyContext = "shift_id"
	keyJobType      KeyContext = "job_type"
	keyWorkerID     KeyContext = "worker_id"
	keyRetryAttempt KeyContext = "retry_attempt"
	keyJobStartTime KeyContext = "job_start_time"
	keyMaxRetries   KeyContext = "max_retries"
)

// JobMetadata holds metadata for a job execution
type JobMetadata struct {
	ShiftID      string
	JobType      string
	WorkerID     int
	RetryAttempt int
	MaxRetries   int
	StartTime    time.Time
}

// JobBegin derives a job context bounded by timeout and tagged with metadata.
// A non-positive timeout leaves the parent deadline in place.
func JobBegin(parentCtx context.Context, shiftID, jobType string, workerID int, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := withTimeout(parentCtx, timeout)

	ctx = context.WithValue(ctx, keyShiftID, shiftID)
	ctx = context.WithValue(ctx, keyJobType, jobType)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyRetryAttempt, 0)
	ctx = context.WithValue(ctx, keyMaxRetries, 3)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// StageBegin derives the context for one analysis stage
func StageBegin(parentCtx context.Context, shiftID, stage string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := withTimeout(parentCtx, timeout)
	ctx = context.WithValue(ctx, keyShiftID, shiftID)
	ctx = context.WithValue(ctx, keyJobType, stage)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())
	return ctx, cancel
}

func withTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// Retry runs fn until it succeeds, returns a non-retryable error or the retry
// budget stored in ctx is spent. Panics are recovered into errors.
func Retry(ctx context.Context, baseDelay time.Duration, fn func(context.Context) error) error {
	var (
		lastErr    error
		attempt    int
		maxRetries = GetMaxRetries(ctx)
	)

	op := func() (err error) {
		attemptCtx := SetRetryAttempt(ctx, attempt)
		attempt++

		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic recovered: %v", p)
			}
			if err != nil {
				lastErr = err
				// the job's own deadline is final
				if ctx.Err() != nil || !IsRetryableError(err) {
					err = backoff.Permanent(err)
				}
			}
		}()

		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled before job execution: %w", ctx.Err())
		}
		return fn(attemptCtx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = baseDelay
	bo.MaxInterval = 60 * time.Second
	bo.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err == nil {
		return nil
	}
	if lastErr != nil && !errors.Is(err, lastErr) {
		// backoff reports the context error when ctx ends between attempts
		return fmt.Errorf("%w (last attempt: %v)", err, lastErr)
	}
	if attempt >= maxRetries && IsRetryableError(err) {
		return fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, err)
	}
	return err
}

// GetShiftID extracts the shift id from context
func GetShiftID(ctx context.Context) (string, bool) {
	shiftID, ok := ctx.Value(keyShiftID).(string)
	return shiftID, ok
}

// GetJobType extracts job type from context
func GetJobType(ctx context.Context) (string, bool) {
	jobType, ok := ctx.Value(keyJobType).(string)
	return jobType, ok
}

// GetWorkerID extracts worker ID from context
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetRetryAttempt extracts current retry attempt from context
func GetRetryAttempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyRetryAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// SetRetryAttempt updates retry attempt in context
func SetRetryAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, keyRetryAttempt, attempt)
}

// GetMaxRetries extracts max retries from context
func GetMaxRetries(ctx context.Context) int {
	maxRetries, ok := ctx.Value(keyMaxRetries).(int)
	if !ok || maxRetries < 1 {
		return 1
	}
	return maxRetries
}

// SetMaxRetries updates max retries in context
func SetMaxRetries(ctx context.Context, maxRetries int) context.Context {
	return context.WithValue(ctx, keyMaxRetries, maxRetries)
}

// GetJobStartTime extracts job start time from context
func GetJobStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyJobStartTime).(time.Time)
	return startTime, ok
}

// Elapsed returns the time since the job or stage began
func Elapsed(ctx context.Context) time.Duration {
	start, ok := GetJobStartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(start)
}

// GetJobMetadata extracts all job metadata from context
func GetJobMetadata(ctx context.Context) *JobMetadata {
	shiftID, _ := GetShiftID(ctx)
	jobType, _ := GetJobType(ctx)
	startTime, _ := GetJobStartTime(ctx)

	return &JobMetadata{
		ShiftID:      shiftID,
		JobType:      jobType,
		WorkerID:     GetWorkerID(ctx),
		RetryAttempt: GetRetryAttempt(ctx),
		MaxRetries:   GetMaxRetries(ctx),
		StartTime:    startTime,
	}
}

// IsRetryableError checks if an error should trigger a retry
// Retryable errors include: network errors, rate limits, 5xx responses
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "http 429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "http 5") ||
		strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
