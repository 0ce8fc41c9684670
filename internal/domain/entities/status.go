package entities

// Status is the processing state shared by shifts and transcriptions
type Status string

const (
	StatusQueued     Status = "queued"     // Created, waiting for analysis
	StatusProcessing Status = "processing" // A run is in progress
	StatusCompleted  Status = "completed"  // Last run finished
	StatusError      Status = "error"      // Last run failed
)

var allowedTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusError},
	StatusCompleted:  {StatusProcessing},
	StatusError:      {StatusProcessing},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Leaving completed or error is only possible by starting a new run.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesFor returns every status that may move to next
func SourcesFor(next Status) []Status {
	var sources []Status
	for _, from := range []Status{StatusQueued, StatusProcessing, StatusCompleted, StatusError} {
		if from.CanTransitionTo(next) {
			sources = append(sources, from)
		}
	}
	return sources
}

// FillStatusCounts returns counts with every known status present
func FillStatusCounts(counts map[Status]int64) map[Status]int64 {
	out := map[Status]int64{
		StatusQueued:     0,
		StatusProcessing: 0,
		StatusCompleted:  0,
		StatusError:      0,
	}
	for status, n := range counts {
		out[status] = n
	}
	return out
}
