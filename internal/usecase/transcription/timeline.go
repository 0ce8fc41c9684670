package transcription

import (
	"sort"
	"strings"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
)

// Chunk is the transcription of one fixed-length slice of the recording.
// Segment times are relative to the start of the chunk.
type Chunk struct {
	Index    int
	Segments []entities.Segment
}

// Timeline is the stitched transcript of a whole recording
type Timeline struct {
	Segments []entities.Segment
	FullText string
}

// BuildTimeline places every chunk's segments on one clock. Chunks are taken
// in Index order; each is shifted by the running offset, which then grows by
// the end of the chunk's last segment. Empty chunks do not move the offset.
// Segment ids are renumbered densely from 0.
func BuildTimeline(chunks []Chunk) Timeline {
	ordered := make([]Chunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var (
		offset   float64
		segments = make([]entities.Segment, 0)
		texts    = make([]string, 0)
	)
	for _, chunk := range ordered {
		if len(chunk.Segments) == 0 {
			continue
		}
		for _, s := range chunk.Segments {
			segments = append(segments, entities.Segment{
				ID:      len(segments),
				Start:   s.Start + offset,
				End:     s.End + offset,
				Speaker: s.Speaker,
				Text:    s.Text,
			})
			texts = append(texts, s.Text)
		}
		offset += chunk.Segments[len(chunk.Segments)-1].End
	}

	return Timeline{Segments: segments, FullText: strings.Join(texts, " ")}
}
