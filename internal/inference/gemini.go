package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"stockscan/internal/model"
)

// Default Gemini client settings. The temperature and top-p values match
// the analytical register the prompts were tuned for: creative enough to
// synthesize, conservative enough to stay grounded in the evidence.
const (
	// DefaultGeminiBaseURL is the Google Generative Language endpoint.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultGeminiModel is the model used for analysis tasks.
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultRequestTimeout bounds a single generateContent call.
	// Analysis prompts with large document payloads can take a while.
	DefaultRequestTimeout = 120 * time.Second

	defaultTemperature = 0.7
	defaultTopP        = 0.9

	// maxResponseBody limits how much of an error response body is read
	// for diagnostics.
	maxResponseBody = 64 * 1024
)

// GeminiClient calls a Gemini-style generateContent REST endpoint.
// It implements Client and returns errors classifiable by KindOf.
type GeminiClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiBaseURL overrides the API endpoint. Used for tests and
// proxied deployments.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(c *GeminiClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithGeminiModel overrides the model name.
func WithGeminiModel(m string) GeminiOption {
	return func(c *GeminiClient) {
		if m != "" {
			c.model = m
		}
	}
}

// WithGeminiTimeout sets the per-request timeout.
func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithGeminiLogger sets a custom logger.
func WithGeminiLogger(logger *slog.Logger) GeminiOption {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

// NewGeminiClient creates a client authenticated with the given API key.
func NewGeminiClient(apiKey string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		baseURL: DefaultGeminiBaseURL,
		model:   DefaultGeminiModel,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

// generateResponse is the subset of the response we consume.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Infer implements Client. It sends the task prompt to the backend and
// returns the first candidate's text.
func (c *GeminiClient) Infer(ctx context.Context, task model.TaskSpec, evidence []model.EvidenceItem) (string, error) {
	prompt := BuildPrompt(task, evidence)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature: defaultTemperature,
			TopP:        defaultTopP,
		},
	})
	if err != nil {
		return "", NewError(KindInvalidRequest, "failed to encode request", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", NewError(KindInvalidRequest, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	c.logger.Debug("inference call",
		"task", task.ID,
		"model", c.model,
		"evidence_items", len(evidence),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		// The transport error already carries timeout/reset semantics;
		// KindOf recognizes them, so classify here for a stable kind.
		return "", NewError(KindOf(err), "request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp)
	}

	var decoded generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10*1024*1024)).Decode(&decoded); err != nil {
		return "", NewError(KindUnknown, "failed to decode response", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", NewError(KindUnknown, "response contained no candidates", nil)
	}

	var text bytes.Buffer
	for _, p := range decoded.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

// statusError maps an HTTP error status to a classified inference error.
func (c *GeminiClient) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody)) //nolint:errcheck // Diagnostics only

	msg := fmt.Sprintf("backend returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return NewError(KindRateLimited, msg, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewError(KindAuth, msg, nil)
	case http.StatusBadRequest:
		return NewError(KindInvalidRequest, msg, nil)
	case http.StatusPaymentRequired:
		return NewError(KindQuotaExhausted, msg, nil)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return NewError(KindTimeout, msg, nil)
	default:
		if resp.StatusCode >= 500 {
			return NewError(KindConnReset, msg, nil)
		}
		return NewError(KindUnknown, msg, nil)
	}
}
