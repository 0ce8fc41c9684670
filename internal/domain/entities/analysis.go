package entities

import (
	"github.com/spf13/cast"
)

// Stage names one pass of the analysis pipeline
type Stage string

const (
	StageFatigue Stage = "fatigue"
	StageSafety  Stage = "safety"
	StageSummary Stage = "summary"
)

// Metrics are computed from the transcript, never by the model
type Metrics struct {
	AvgResponseTime float64 `json:"avg_response_time"`
	MaxResponseTime float64 `json:"max_response_time"`
	MinResponseTime float64 `json:"min_response_time"`
	HesitationCount int     `json:"hesitation_count"`
	HoursOnDuty     float64 `json:"hours_on_duty"`
}

// AsMap returns the metrics in the shape embedded into the fatigue result
func (m Metrics) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"avg_response_time": m.AvgResponseTime,
		"max_response_time": m.MaxResponseTime,
		"min_response_time": m.MinResponseTime,
		"hesitation_count":  m.HesitationCount,
		"hours_on_duty":     m.HoursOnDuty,
	}
}

// FatigueAnalysis is the typed view of a fatigue result
type FatigueAnalysis struct {
	FatigueScore      float64                  `json:"fatigue_score"`
	Severity          string                   `json:"severity"`
	Indicators        []map[string]interface{} `json:"indicators"`
	RequiresAttention bool                     `json:"requires_attention"`
	Summary           string                   `json:"summary"`
}

// SafetyAnalysis is the typed view of a safety result
type SafetyAnalysis struct {
	SafetyScore             float64                  `json:"safety_score"`
	IssuesFound             []map[string]interface{} `json:"issues_found"`
	RequiresImmediateReview bool                     `json:"requires_immediate_review"`
	Summary                 string                   `json:"summary"`
}

// SupervisorSummary is the typed view of a summary result
type SupervisorSummary struct {
	ExecutiveSummary string        `json:"executive_summary"`
	KeyFindings      []interface{} `json:"key_findings"`
	Timeline         []interface{} `json:"timeline"`
	Recommendations  []interface{} `json:"recommendations"`
	PriorityLevel    string        `json:"priority_level"`
}

// The model is asked to quote every value, so scalars are coerced rather
// than type-asserted. Nothing is invented for missing keys.

// FatigueView decodes a raw fatigue result
func FatigueView(raw map[string]interface{}) FatigueAnalysis {
	return FatigueAnalysis{
		FatigueScore:      cast.ToFloat64(raw["fatigue_score"]),
		Severity:          cast.ToString(raw["severity"]),
		Indicators:        objectList(raw["indicators"]),
		RequiresAttention: cast.ToBool(raw["requires_attention"]),
		Summary:           cast.ToString(raw["summary"]),
	}
}

// SafetyView decodes a raw safety result
func SafetyView(raw map[string]interface{}) SafetyAnalysis {
	return SafetyAnalysis{
		SafetyScore:             cast.ToFloat64(raw["safety_score"]),
		IssuesFound:             objectList(raw["issues_found"]),
		RequiresImmediateReview: cast.ToBool(raw["requires_immediate_review"]),
		Summary:                 cast.ToString(raw["summary"]),
	}
}

// SummaryView decodes a raw supervisor summary
func SummaryView(raw map[string]interface{}) SupervisorSummary {
	return SupervisorSummary{
		ExecutiveSummary: cast.ToString(raw["executive_summary"]),
		KeyFindings:      list(raw["key_findings"]),
		Timeline:         list(raw["timeline"]),
		Recommendations:  list(raw["recommendations"]),
		PriorityLevel:    cast.ToString(raw["priority_level"]),
	}
}

func list(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return []interface{}{v}
	}
	return items
}

func objectList(v interface{}) []map[string]interface{} {
	items := list(v)
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, err := cast.ToStringMapE(item); err == nil {
			out = append(out, m)
		}
	}
	return out
}
