// Package stt wraps the speech-to-text backends that transcribe shift audio chunks.
package stt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/johnquangdev/atc-shift-analyzer/pkg/config"
)

// Segment is one recognised utterance. Times are seconds from the start of the
// transcribed file; Speaker is empty when the backend does not label speakers.
type Segment struct {
	Start   float64
	End     float64
	Text    string
	Speaker string
}

// Result is the transcription of a single audio file
type Result struct {
	Text     string
	Language string
	Segments []Segment
}

// Transcriber is a pluggable transcription backend
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*Result, error)
}

// New builds the transcriber selected by cfg.Backend
func New(cfg *config.STTConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "whisper":
		return NewWhisperClient(cfg.WhisperURL, cfg.WhisperModel, &http.Client{Timeout: cfg.Timeout}), nil
	case "assemblyai":
		return NewAssemblyAIClient(cfg.AssemblyAIAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported stt backend %q", cfg.Backend)
	}
}
