package analysis

import (
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
)

func seg(start, end float64, speaker entities.Speaker, text string) entities.Segment {
	return entities.Segment{Start: start, End: end, Speaker: speaker, Text: text}
}

func TestResponseLatency_Empty(t *testing.T) {
	got := ResponseLatency(nil)
	if got.Avg != 0 || got.Max != 0 || got.Min != 0 || got.Pairs != 0 {
		t.Fatalf("expected zeros got %+v", got)
	}
}

func TestResponseLatency_TouchingPair(t *testing.T) {
	got := ResponseLatency([]entities.Segment{
		seg(0, 2.0, entities.SpeakerPilot, "request climb"),
		seg(2.0, 4.0, entities.SpeakerController, "climb approved"),
	})
	if got.Pairs != 1 || got.Avg != 0 || got.Max != 0 || got.Min != 0 {
		t.Fatalf("expected a single 0.0 latency got %+v", got)
	}
}

func TestResponseLatency_NegativeGapsExcluded(t *testing.T) {
	got := ResponseLatency([]entities.Segment{
		seg(0, 3, entities.SpeakerPilot, "a"),
		seg(2, 4, entities.SpeakerController, "overlap"),
		seg(5, 6, entities.SpeakerPilot, "b"),
		seg(7.5, 8, entities.SpeakerController, "c"),
		seg(9, 10, entities.SpeakerPilot, "d"),
		seg(10.5, 11, entities.SpeakerController, "e"),
	})
	if got.Pairs != 2 {
		t.Fatalf("expected two pairs got %d", got.Pairs)
	}
	if got.Max != 1.5 || got.Min != 0.5 || got.Avg != 1.0 {
		t.Fatalf("unexpected latency %+v", got)
	}
}

func TestResponseLatency_OnlyPilotThenController(t *testing.T) {
	got := ResponseLatency([]entities.Segment{
		seg(0, 1, entities.SpeakerController, "a"),
		seg(2, 3, entities.SpeakerPilot, "b"),
		seg(4, 5, entities.SpeakerPilot, "c"),
		seg(6, 7, entities.SpeakerUnknown, "d"),
	})
	if got.Pairs != 0 {
		t.Fatalf("expected no pairs got %+v", got)
	}
}

func TestCountHesitations(t *testing.T) {
	segments := []entities.Segment{
		seg(0, 1, entities.SpeakerController, "uhh um um"),
		seg(1, 2, entities.SpeakerPilot, "uh um uh"),
	}
	if got := CountHesitations(segments, []string{"uh", "um"}); got != 3 {
		t.Fatalf("expected 3 got %d", got)
	}
}

func TestCountHesitations_DefaultMarkersAreCaseInsensitive(t *testing.T) {
	segments := []entities.Segment{
		seg(0, 1, entities.SpeakerController, "UH, descend... Er, maintain"),
	}
	// uh, "...", er
	if got := CountHesitations(segments, nil); got != 3 {
		t.Fatalf("expected 3 got %d", got)
	}
}

func TestComputeDutyHours(t *testing.T) {
	cases := []struct {
		name      string
		start     string
		end       string
		want      float64
		defaulted bool
	}{
		{"zulu", "2024-01-15T06:00:00Z", "2024-01-15T14:30:00Z", 8.5, false},
		{"offsets", "2024-01-15T06:00:00+02:00", "2024-01-15T06:00:00+00:00", 2, false},
		{"naive", "2024-01-15T22:00:00", "2024-01-16T04:00:00", 6, false},
		{"fractional", "2024-01-15T06:00:00.500Z", "2024-01-15T07:00:00.500Z", 1, false},
		{"missing end", "2024-01-15T06:00:00Z", "", 8, true},
		{"garbage", "yesterday", "2024-01-15T06:00:00Z", 8, true},
		{"mixed zones", "2024-01-15T06:00:00Z", "2024-01-15T08:00:00", 8, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeDutyHours(tc.start, tc.end, 8.0)
			if math.Abs(got.Hours-tc.want) > 1e-9 || got.Defaulted != tc.defaulted {
				t.Fatalf("expected %v (defaulted=%v) got %+v", tc.want, tc.defaulted, got)
			}
			if got.Defaulted && got.Cause == nil {
				t.Fatal("expected a cause for the fallback")
			}
		})
	}
}

func TestMetricsExtractor_LogsFallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	extractor := NewMetricsExtractor(8.0, zap.New(core))

	m := extractor.Extract(entities.ShiftMetadata{ShiftID: "S-1", StartTime: "not a time", EndTime: "2024-01-15T06:00:00Z"}, nil)
	if m.HoursOnDuty != 8.0 {
		t.Fatalf("expected default 8.0 got %v", m.HoursOnDuty)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning got %d", logs.Len())
	}
	if logs.All()[0].ContextMap()["shift_id"] != "S-1" {
		t.Fatalf("warning is missing the shift id")
	}
}

func TestSampleSegments(t *testing.T) {
	segments := make([]entities.Segment, 25)
	for i := range segments {
		segments[i] = entities.Segment{ID: i}
	}

	got := SampleSegments(segments, 10)
	// step = 25/10 = 2
	if len(got) != 10 || got[0].ID != 0 || got[1].ID != 2 || got[9].ID != 18 {
		t.Fatalf("unexpected sample ids %v", ids(got))
	}

	got = SampleSegments(segments[:4], 10)
	if len(got) != 4 || got[3].ID != 3 {
		t.Fatalf("expected every segment when fewer than k got %v", ids(got))
	}

	if got := SampleSegments(nil, 10); len(got) != 0 {
		t.Fatalf("expected no samples got %v", ids(got))
	}
}

func TestFormatSegments(t *testing.T) {
	got := FormatSegments([]entities.Segment{
		seg(12.345, 14, entities.SpeakerPilot, "Delta 12 with you"),
		seg(15, 16, entities.SpeakerController, "Delta 12 radar contact"),
	})
	want := "[12.3s] PILOT: Delta 12 with you\n[15.0s] CONTROLLER: Delta 12 radar contact"
	if got != want {
		t.Fatalf("unexpected format\n got: %q\nwant: %q", got, want)
	}
}

func ids(segments []entities.Segment) []int {
	out := make([]int, len(segments))
	for i, s := range segments {
		out[i] = s.ID
	}
	return out
}
