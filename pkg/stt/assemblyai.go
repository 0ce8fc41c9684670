package stt

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	backoff "github.com/cenkalti/backoff/v4"
)

// AssemblyAIClient transcribes through the hosted AssemblyAI API
type AssemblyAIClient struct {
	client *aai.Client
}

// NewAssemblyAIClient creates a client with the official SDK
func NewAssemblyAIClient(apiKey string, opts ...aai.ClientOption) *AssemblyAIClient {
	opts = append([]aai.ClientOption{aai.WithAPIKey(apiKey)}, opts...)
	return &AssemblyAIClient{client: aai.NewClientWithOptions(opts...)}
}

// Transcribe uploads the file, waits for the transcript and returns its utterances.
// Speaker labels are requested but not kept; AssemblyAI letters do not tell
// pilots from controllers.
func (a *AssemblyAIClient) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	var uploadURL string
	uploadFn := func() error {
		f, err := os.Open(audioPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()

		uploadURL, err = a.client.Upload(ctx, f)
		if err != nil {
			return fmt.Errorf("failed to upload to AssemblyAI: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxElapsedTime = 30 * time.Second
	bo.MaxInterval = 10 * time.Second

	if err := backoff.Retry(uploadFn, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(language)
	}

	transcript, err := a.client.Transcripts.TranscribeFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, fmt.Errorf("assemblyai transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "AssemblyAI transcription failed"
		if transcript.Error != nil {
			msg = fmt.Sprintf("AssemblyAI error: %s", *transcript.Error)
		}
		return nil, fmt.Errorf("%s", msg)
	}

	result := &Result{Language: language}
	if transcript.Text != nil {
		result.Text = strings.TrimSpace(*transcript.Text)
	}
	for _, utt := range transcript.Utterances {
		seg := Segment{}
		if utt.Text != nil {
			seg.Text = strings.TrimSpace(*utt.Text)
		}
		if utt.Start != nil {
			seg.Start = float64(*utt.Start) / 1000.0 // ms to seconds
		}
		if utt.End != nil {
			seg.End = float64(*utt.End) / 1000.0
		}
		result.Segments = append(result.Segments, seg)
	}
	return result, nil
}
