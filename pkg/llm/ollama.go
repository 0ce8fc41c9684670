package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaClient calls a local Ollama server through its chat endpoint
type OllamaClient struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

// NewOllamaClient creates an Ollama client
func NewOllamaClient(baseURL, model string, temperature float64, client *http.Client) *OllamaClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaClient{
		baseURL:     trimBase(baseURL),
		model:       model,
		temperature: temperature,
		client:      client,
	}
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []map[string]string `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]float64  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Complete sends a single user message and returns the reply text
func (o *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaChatRequest{
		Model:    o.model,
		Messages: []map[string]string{{"role": "user", "content": prompt}},
		Stream:   false,
		Options:  map[string]float64{"temperature": o.temperature},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &StatusError{Provider: "ollama", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var cr ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return strings.TrimSpace(cr.Message.Content), nil
}
