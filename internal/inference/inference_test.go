package inference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stockscan/internal/model"
	"stockscan/internal/retry"
)

func TestKindRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind      Kind
		retryable bool
	}{
		{KindRateLimited, true},
		{KindTimeout, true},
		{KindConnReset, true},
		{KindUnknown, true},
		{KindAuth, false},
		{KindQuotaExhausted, false},
		{KindInvalidRequest, false},
	}

	for _, tt := range tests {
		if got := tt.kind.Retryable(); got != tt.retryable {
			t.Errorf("%s.Retryable() = %v, want %v", tt.kind, got, tt.retryable)
		}
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	t.Run("classified error keeps its kind through wrapping", func(t *testing.T) {
		t.Parallel()

		err := NewError(KindRateLimited, "429", nil)
		wrapped := errors.Join(errors.New("call failed"), err)

		if got := KindOf(wrapped); got != KindRateLimited {
			t.Errorf("expected rate_limited, got %s", got)
		}
	})

	t.Run("deadline exceeded maps to timeout", func(t *testing.T) {
		t.Parallel()

		if got := KindOf(context.DeadlineExceeded); got != KindTimeout {
			t.Errorf("expected timeout, got %s", got)
		}
	})

	t.Run("unclassified error maps to unknown", func(t *testing.T) {
		t.Parallel()

		if got := KindOf(errors.New("boom")); got != KindUnknown {
			t.Errorf("expected unknown, got %s", got)
		}
	})
}

func TestClassifyRetry(t *testing.T) {
	t.Parallel()

	if got := ClassifyRetry(NewError(KindTimeout, "t", nil)); got != retry.ClassRetryable {
		t.Error("timeout should classify retryable")
	}
	if got := ClassifyRetry(NewError(KindAuth, "a", nil)); got != retry.ClassFatal {
		t.Error("auth should classify fatal")
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	task := model.TaskSpec{ID: "moat", DisplayName: "Moat Analysis"}
	evidence := []model.EvidenceItem{
		{Source: model.SourceUploaded, Key: model.FieldDocuments, Payload: "broker report text"},
		{Source: model.SourceKnowledge, Key: model.FieldKnowledge, Payload: "Company: ACME"},
	}

	prompt := BuildPrompt(task, evidence)

	if !strings.Contains(prompt, "Moat Analysis") {
		t.Error("prompt should name the task")
	}
	docIdx := strings.Index(prompt, "broker report text")
	knowIdx := strings.Index(prompt, "Company: ACME")
	if docIdx < 0 || knowIdx < 0 {
		t.Fatal("prompt should include all evidence payloads")
	}
	if docIdx > knowIdx {
		t.Error("higher-priority evidence should appear first in the prompt")
	}
}

func TestGeminiClientInfer(t *testing.T) {
	t.Parallel()

	task := model.TaskSpec{ID: "risk", DisplayName: "Risk Analysis"}

	t.Run("success returns candidate text", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if got := r.Header.Get("X-Goog-Api-Key"); got != "test-key" {
				t.Errorf("expected api key header, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"findings body"}]}}]}`))
		}))
		defer srv.Close()

		client := NewGeminiClient("test-key", WithGeminiBaseURL(srv.URL))
		got, err := client.Infer(context.Background(), task, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "findings body" {
			t.Errorf("expected findings body, got %q", got)
		}
	})

	t.Run("429 classifies as rate limited", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client := NewGeminiClient("test-key", WithGeminiBaseURL(srv.URL))
		_, err := client.Infer(context.Background(), task, nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if got := KindOf(err); got != KindRateLimited {
			t.Errorf("expected rate_limited, got %s", got)
		}
	})

	t.Run("403 classifies as auth", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client := NewGeminiClient("bad-key", WithGeminiBaseURL(srv.URL))
		_, err := client.Infer(context.Background(), task, nil)
		if got := KindOf(err); got != KindAuth {
			t.Errorf("expected auth, got %s", got)
		}
	})

	t.Run("empty candidate list is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		client := NewGeminiClient("test-key", WithGeminiBaseURL(srv.URL))
		if _, err := client.Infer(context.Background(), task, nil); err == nil {
			t.Fatal("expected error for empty candidates")
		}
	})
}
