// Package llm talks to the text-completion backends used by the shift analysis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/johnquangdev/atc-shift-analyzer/pkg/config"
)

// Completer turns a prompt into the model's raw text reply
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrUnavailable marks transport failures: the backend could not be reached or
// answered with a non-2xx status
var ErrUnavailable = errors.New("language model unavailable")

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnavailable
}

// New builds the completer selected by cfg.Provider
func New(cfg *config.LLMConfig) (Completer, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case "ollama":
		return NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Temperature, httpClient), nil
	case "groq":
		return NewGroqClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Temperature, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func trimBase(base string) string {
	return strings.TrimRight(base, "/")
}
