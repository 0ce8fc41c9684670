package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/pkg/config"
)

func TestOllamaComplete_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Stream || payload.Model != "llama3.2:3b" || len(payload.Messages) != 1 {
			t.Fatalf("unexpected payload %+v", payload)
		}
		if payload.Messages[0]["role"] != "user" || payload.Messages[0]["content"] != "rate this shift" {
			t.Fatalf("unexpected message %+v", payload.Messages[0])
		}
		if payload.Options["temperature"] != 0.2 {
			t.Fatalf("expected temperature 0.2 got %v", payload.Options["temperature"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "  {\"ok\": true}\n"},
		})
	}))
	defer ts.Close()

	client := NewOllamaClient(ts.URL+"/", "llama3.2:3b", 0.2, ts.Client())
	got, err := client.Complete(context.Background(), "rate this shift")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if got != `{"ok": true}` {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestOllamaComplete_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewOllamaClient(ts.URL, "missing", 0, ts.Client()).Complete(context.Background(), "x")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError got %v", err)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("status errors should report the backend unavailable: %v", err)
	}
}

func TestOllamaComplete_ContextDeadline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewOllamaClient(ts.URL, "m", 0, ts.Client()).Complete(ctx, "x")
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected an unavailable deadline error got %v", err)
	}
}

func TestGroqComplete_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer gsk_test" {
			t.Fatalf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var payload ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Model != "llama-3.1-8b-instant" {
			t.Fatalf("unexpected model %s", payload.Model)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "reply"}},
			},
		})
	}))
	defer ts.Close()

	client := NewGroqClient(ts.URL, "gsk_test", "llama-3.1-8b-instant", 0.2, ts.Client())
	got, err := client.Complete(context.Background(), "hello")
	if err != nil || got != "reply" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
}

func TestGroqComplete_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer ts.Close()

	_, err := NewGroqClient(ts.URL, "k", "m", 0, ts.Client()).Complete(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("an empty reply is not a transport failure: %v", err)
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New(&config.LLMConfig{Provider: "ollama", BaseURL: "http://x", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if _, ok := c.(*OllamaClient); !ok {
		t.Fatalf("expected ollama client got %T", c)
	}
	if _, err := New(&config.LLMConfig{Provider: "bard"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
