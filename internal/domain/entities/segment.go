package entities

// Speaker identifies who produced a transmission
type Speaker string

const (
	SpeakerPilot      Speaker = "pilot"
	SpeakerController Speaker = "controller"
	SpeakerUnknown    Speaker = "unknown"
)

// ParseSpeaker maps free-form labels onto the known speakers
func ParseSpeaker(s string) Speaker {
	switch Speaker(s) {
	case SpeakerPilot, SpeakerController:
		return Speaker(s)
	default:
		return SpeakerUnknown
	}
}

// Segment is one contiguous transmission on the shift timeline.
// Start and End are seconds from the beginning of the shift recording.
type Segment struct {
	ID      int     `json:"id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}
