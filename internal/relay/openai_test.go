package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"lina-server/internal/domain"
)

func TestOpenAICompleterRequiresKey(t *testing.T) {
	if _, err := NewOpenAICompleter(OpenAIOptions{}); err == nil {
		t.Fatalf("NewOpenAICompleter expected error for missing key")
	}
}

func TestOpenAICompleterSuccess(t *testing.T) {
	var captured *http.Request
	var payload openAIChatRequest
	completer, err := NewOpenAICompleter(OpenAIOptions{
		APIKey:       "dummy",
		Organization: "org-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			captured = r
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode request payload: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"choices":[{"message":{"content":"hi back"}}]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAICompleter returned error: %v", err)
	}

	reply, err := completer.Complete(context.Background(), Request{System: "be kind", Message: "hi"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if reply != "hi back" {
		t.Fatalf("reply = %q, want %q", reply, "hi back")
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer dummy" {
		t.Fatalf("Authorization = %q", got)
	}
	if got := captured.Header.Get("OpenAI-Organization"); got != "org-test" {
		t.Fatalf("OpenAI-Organization = %q", got)
	}
	if !strings.HasSuffix(captured.URL.Path, "/chat/completions") {
		t.Fatalf("path = %q", captured.URL.Path)
	}
	if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" {
		t.Fatalf("messages mismatch: %+v", payload.Messages)
	}
}

func TestOpenAICompleterRateLimited(t *testing.T) {
	completer, err := NewOpenAICompleter(OpenAIOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAICompleter returned error: %v", err)
	}
	if _, err := completer.Complete(context.Background(), Request{Message: "hi"}); !errors.Is(err, domain.ErrUpstreamBusy) {
		t.Fatalf("Complete = %v, want ErrUpstreamBusy", err)
	}
}

func TestOpenAICompleterTransportError(t *testing.T) {
	completer, err := NewOpenAICompleter(OpenAIOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("boom")
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAICompleter returned error: %v", err)
	}
	if _, err := completer.Complete(context.Background(), Request{Message: "hi"}); !errors.Is(err, domain.ErrUpstreamFailure) {
		t.Fatalf("Complete = %v, want ErrUpstreamFailure", err)
	}
}

func TestStaticCompleter(t *testing.T) {
	reply, err := NewStaticCompleter().Complete(context.Background(), Request{Message: " hello ", Topic: "study"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !strings.Contains(reply, "hello") || !strings.Contains(reply, "Study") {
		t.Fatalf("reply = %q", reply)
	}
}
