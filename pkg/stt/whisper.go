package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// WhisperClient talks to a self-hosted Whisper server exposing the
// OpenAI-compatible /v1/audio/transcriptions endpoint
type WhisperClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewWhisperClient creates a Whisper client
func NewWhisperClient(baseURL, model string, client *http.Client) *WhisperClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &WhisperClient{baseURL: strings.TrimRight(baseURL, "/"), model: model, client: client}
}

type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the file and returns the timed segments
func (w *WhisperClient) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"model":           w.model,
		"response_format": "verbose_json",
	}
	if language != "" {
		fields["language"] = language
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("whisper http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var wr whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}

	result := &Result{
		Text:     strings.TrimSpace(wr.Text),
		Language: wr.Language,
		Segments: make([]Segment, 0, len(wr.Segments)),
	}
	if result.Language == "" {
		result.Language = language
	}
	for _, s := range wr.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return result, nil
}
