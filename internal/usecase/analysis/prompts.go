package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
)

const jsonInstructions = `Make Sure the JSON is properly formatted and parsable.
ALL keys and ALL values in JSON should be wrapped in double quotes (") unless they already are.
Be sure to escape any special characters properly.`

// FatigueContext is everything the fatigue prompt needs
type FatigueContext struct {
	Shift              entities.ShiftMetadata
	Metrics            entities.Metrics
	TotalTransmissions int
	Samples            []entities.Segment
}

// SafetyContext is everything the safety prompt needs
type SafetyContext struct {
	Shift    entities.ShiftMetadata
	Segments []entities.Segment
}

// SummaryContext is everything the summary prompt needs
type SummaryContext struct {
	Shift     entities.ShiftMetadata
	DutyHours float64
	Fatigue   map[string]interface{}
	Safety    map[string]interface{}
}

// RenderFatiguePrompt builds the fatigue assessment prompt
func RenderFatiguePrompt(c FatigueContext) string {
	samples := "(no transmissions)"
	if len(c.Samples) > 0 {
		samples = FormatSegments(c.Samples)
	}

	var b strings.Builder
	b.WriteString("Analyze this air traffic controller shift for fatigue:\n\n")
	b.WriteString("SHIFT CONTEXT:\n")
	fmt.Fprintf(&b, "- Duration: %s hours\n", formatHours(c.Metrics.HoursOnDuty))
	fmt.Fprintf(&b, "- Time started: %s\n", orNA(c.Shift.StartTime))
	fmt.Fprintf(&b, "- Schedule: %s\n", orNA(c.Shift.ScheduleType))
	fmt.Fprintf(&b, "- Position: %s\n\n", orNA(c.Shift.Position))
	b.WriteString("PERFORMANCE METRICS:\n")
	fmt.Fprintf(&b, "- Average response time: %.1f seconds\n", c.Metrics.AvgResponseTime)
	fmt.Fprintf(&b, "- Hesitations detected: %d\n", c.Metrics.HesitationCount)
	fmt.Fprintf(&b, "- Total transmissions: %d\n\n", c.TotalTransmissions)
	b.WriteString("SAMPLE TRANSMISSIONS:\n")
	b.WriteString(samples)
	b.WriteString("\n\n")
	b.WriteString(`Provide a fatigue assessment with:
1. Fatigue score (0-100)
2. Top 3 concerning indicators with evidence
3. Whether this requires supervisor attention

Output as JSON only, no other text. `)
	b.WriteString(jsonInstructions)
	b.WriteString(`
The structure should resemble the following:
{
  "fatigue_score": <number>,
  "severity": "low|medium|high|critical",
  "indicators": [
    {"type": "...", "evidence": "...", "timestamp": "...", "severity": "..."}
  ],
  "requires_attention": <boolean>,
  "summary": "brief explanation"
}`)
	return b.String()
}

// RenderSafetyPrompt builds the safety review prompt over the whole transcript
func RenderSafetyPrompt(c SafetyContext) string {
	transcript := "(no transcript)"
	if len(c.Segments) > 0 {
		transcript = FormatSegments(c.Segments)
	}

	var b strings.Builder
	b.WriteString("Analyze these ATC communications for safety issues:\n\n")
	fmt.Fprintf(&b, "FACILITY: %s\n", orNA(c.Shift.Facility))
	fmt.Fprintf(&b, "POSITION: %s\n", orNA(c.Shift.Position))
	fmt.Fprintf(&b, "CONTROLLER: %s\n\n", orNA(c.Shift.ControllerID))
	b.WriteString("FULL TRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\n")
	b.WriteString(`Identify any:
1. Readback errors (pilot reads back wrong, controller doesn't correct)
2. Unclear or ambiguous instructions
3. Missing standard phraseology
4. Potential separation issues
5. Missed acknowledgments

For each issue found, provide type, quote, timestamp, severity (low/medium/high), and why it's concerning.

Output as JSON only, no other text. `)
	b.WriteString(jsonInstructions)
	b.WriteString(`
The structure should resemble the following:
{
  "safety_score": <0-100, where 100=critical>,
  "issues_found": [
    {
      "type": "...",
      "severity": "...",
      "timestamp": "...",
      "evidence": "exact quote",
      "concern": "explanation"
    }
  ],
  "requires_immediate_review": <boolean>,
  "summary": "overall assessment"
}
`)
	return b.String()
}

// RenderSummaryPrompt builds the supervisor report prompt from the earlier results
func RenderSummaryPrompt(c SummaryContext) string {
	indicators := listOf(c.Fatigue["indicators"])
	issues := listOf(c.Safety["issues_found"])

	var b strings.Builder
	b.WriteString("Create a supervisor report for this ATC shift:\n\n")
	b.WriteString("SHIFT INFO:\n")
	fmt.Fprintf(&b, "Controller: %s\n", orNA(c.Shift.ControllerID))
	fmt.Fprintf(&b, "Date: %s\n", orNA(c.Shift.StartTime))
	fmt.Fprintf(&b, "Duration: %s hours\n", formatHours(c.DutyHours))
	fmt.Fprintf(&b, "Position: %s\n", orNA(c.Shift.Position))
	fmt.Fprintf(&b, "Schedule: %s\n", orNA(c.Shift.ScheduleType))
	fmt.Fprintf(&b, "Facility: %s\n\n", orNA(c.Shift.Facility))
	b.WriteString("FATIGUE ANALYSIS:\n")
	fmt.Fprintf(&b, "Score: %s/100\n", valueOr(c.Fatigue, "fatigue_score", "0"))
	fmt.Fprintf(&b, "Severity: %s\n", valueOr(c.Fatigue, "severity", "N/A"))
	fmt.Fprintf(&b, "Key indicators (%d): %s\n\n", len(indicators), compactJSON(indicators))
	b.WriteString("SAFETY ANALYSIS:\n")
	fmt.Fprintf(&b, "Score: %s/100\n", valueOr(c.Safety, "safety_score", "0"))
	fmt.Fprintf(&b, "Issues found: %d\n", len(issues))
	fmt.Fprintf(&b, "Requires review: %s\n\n", valueOr(c.Safety, "requires_immediate_review", "false"))
	b.WriteString(`Create a clear, actionable report with:
1. EXECUTIVE SUMMARY (2-3 sentences)
2. KEY FINDINGS (bullet points)
3. TIMELINE OF CONCERNS (if any critical moments)
4. RECOMMENDATIONS (specific actions for supervisor)
5. PRIORITY LEVEL (low/medium/high/urgent)

Output as JSON ONLY (no other formats) with these sections (executive_summary, key_findings, timeline, recommendations, priority_level).
`)
	b.WriteString(jsonInstructions)
	b.WriteString("\n")
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// formatHours prints whole hours as "8.0" and keeps every other digit
func formatHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func valueOr(m map[string]interface{}, key, fallback string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return compactJSON(v)
	}
	return s
}

func listOf(v interface{}) []interface{} {
	items, err := cast.ToSliceE(v)
	if err != nil || v == nil {
		return []interface{}{}
	}
	return items
}

func compactJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
