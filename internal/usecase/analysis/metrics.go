package analysis

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/isotime"
)

// DefaultHesitationMarkers are counted in controller speech
var DefaultHesitationMarkers = []string{"uh", "um", "er", "ah", "..."}

// DefaultDutyHours is used when the shift times cannot be read
const DefaultDutyHours = 8.0

// Latency summarises controller response times in seconds
type Latency struct {
	Avg float64
	Max float64
	Min float64
	// Pairs is the number of pilot → controller pairs measured
	Pairs int
}

// ResponseLatency measures the gap between each pilot transmission and an
// immediately following controller transmission. Negative gaps (overlapping
// speech) are dropped. With no pairs every figure is 0.
func ResponseLatency(segments []entities.Segment) Latency {
	var (
		sum float64
		out Latency
	)
	for i := 0; i+1 < len(segments); i++ {
		cur, next := segments[i], segments[i+1]
		if cur.Speaker != entities.SpeakerPilot || next.Speaker != entities.SpeakerController {
			continue
		}
		gap := next.Start - cur.End
		if gap < 0 {
			continue
		}
		if out.Pairs == 0 || gap > out.Max {
			out.Max = gap
		}
		if out.Pairs == 0 || gap < out.Min {
			out.Min = gap
		}
		sum += gap
		out.Pairs++
	}
	if out.Pairs > 0 {
		out.Avg = sum / float64(out.Pairs)
	}
	return out
}

// CountHesitations counts marker occurrences in lower-cased controller text.
// Each marker is counted as non-overlapping substrings, so "uhh" holds one "uh".
// A nil markers slice uses DefaultHesitationMarkers.
func CountHesitations(segments []entities.Segment, markers []string) int {
	if markers == nil {
		markers = DefaultHesitationMarkers
	}
	count := 0
	for _, s := range segments {
		if s.Speaker != entities.SpeakerController {
			continue
		}
		text := strings.ToLower(s.Text)
		for _, m := range markers {
			if m == "" {
				continue
			}
			count += strings.Count(text, m)
		}
	}
	return count
}

// DutyHours is the outcome of reading the shift duration
type DutyHours struct {
	Hours float64
	// Defaulted is set when the fallback value was used; Cause says why
	Defaulted bool
	Cause     error
}

// ComputeDutyHours returns end - start in hours. Missing or unreadable times,
// or a zoned value paired with a naive one, yield the fallback.
func ComputeDutyHours(start, end string, fallback float64) DutyHours {
	fail := func(err error) DutyHours {
		return DutyHours{Hours: fallback, Defaulted: true, Cause: err}
	}
	if start == "" || end == "" {
		return fail(fmt.Errorf("shift start or end time missing"))
	}

	startAt, startZoned, err := isotime.Parse(start)
	if err != nil {
		return fail(err)
	}
	endAt, endZoned, err := isotime.Parse(end)
	if err != nil {
		return fail(err)
	}
	if startZoned != endZoned {
		return fail(fmt.Errorf("cannot compare zoned and naive timestamps"))
	}

	return DutyHours{Hours: endAt.Sub(startAt).Hours()}
}

// SampleSegments picks up to k segments spread across the shift: every
// max(1, n/k)-th segment starting at the first.
func SampleSegments(segments []entities.Segment, k int) []entities.Segment {
	if k <= 0 || len(segments) == 0 {
		return nil
	}
	step := len(segments) / k
	if step < 1 {
		step = 1
	}
	samples := make([]entities.Segment, 0, k)
	for i := 0; i < len(segments) && len(samples) < k; i += step {
		samples = append(samples, segments[i])
	}
	return samples
}

// FormatSegments renders one "[12.5s] SPEAKER: text" line per segment
func FormatSegments(segments []entities.Segment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		lines = append(lines, fmt.Sprintf("[%.1fs] %s: %s", s.Start, strings.ToUpper(string(s.Speaker)), s.Text))
	}
	return strings.Join(lines, "\n")
}

// MetricsExtractor derives the fatigue metrics of a shift
type MetricsExtractor struct {
	defaultHours float64
	logger       *zap.Logger
}

// NewMetricsExtractor creates an extractor; defaultHours <= 0 uses DefaultDutyHours
func NewMetricsExtractor(defaultHours float64, logger *zap.Logger) *MetricsExtractor {
	if defaultHours <= 0 {
		defaultHours = DefaultDutyHours
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsExtractor{defaultHours: defaultHours, logger: logger}
}

// DutyHours reads the shift duration, logging when the fallback is used
func (m *MetricsExtractor) DutyHours(meta entities.ShiftMetadata) DutyHours {
	hours := ComputeDutyHours(meta.StartTime, meta.EndTime, m.defaultHours)
	if hours.Defaulted {
		m.logger.Warn("⚠️ Falling back to default duty hours",
			zap.String("shift_id", meta.ShiftID),
			zap.String("start_time", meta.StartTime),
			zap.String("end_time", meta.EndTime),
			zap.Float64("hours", hours.Hours),
			zap.Error(hours.Cause),
		)
	}
	return hours
}

// Extract computes every metric for the shift
func (m *MetricsExtractor) Extract(meta entities.ShiftMetadata, segments []entities.Segment) entities.Metrics {
	latency := ResponseLatency(segments)
	return entities.Metrics{
		AvgResponseTime: latency.Avg,
		MaxResponseTime: latency.Max,
		MinResponseTime: latency.Min,
		HesitationCount: CountHesitations(segments, nil),
		HoursOnDuty:     m.DutyHours(meta).Hours,
	}
}
