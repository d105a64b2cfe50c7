// Package intent defines the intent classifier collaborator interface and
// an HTTP client for the externally served model.
//
// Training and persistence of the classifier live outside this repository;
// the engine only consumes ranked (tag, confidence) predictions.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Constants for the HTTP classifier client.
const (
	// DefaultTopK is the number of candidate tags requested per prediction.
	DefaultTopK = 3
	// DefaultRequestTimeout bounds one classifier call.
	DefaultRequestTimeout = 10 * time.Second
)

// Prediction is one candidate tag with its confidence in [0,1].
type Prediction struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// Classifier produces ranked top-K predictions for a text. Implementations
// must order predictions by descending confidence.
type Classifier interface {
	Predict(ctx context.Context, text string) ([]Prediction, error)
}

// Opts holds configuration options for the HTTP classifier client.
type Opts struct {
	BaseURL    string
	TopK       int
	HTTPClient *http.Client
}

// Option defines a configuration option for the HTTP classifier client.
type Option func(*Opts)

// WithBaseURL sets the classifier service base URL.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithTopK sets the number of candidate tags requested per prediction.
func WithTopK(k int) Option {
	return func(o *Opts) { o.TopK = k }
}

// WithHTTPClient sets a custom HTTP client (used in tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// HTTPClassifier calls a classifier served over HTTP.
type HTTPClassifier struct {
	baseURL string
	topK    int
	client  *http.Client
}

// NewHTTPClassifier creates a classifier client. The base URL is required.
func NewHTTPClassifier(opts ...Option) (*HTTPClassifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("classifier base URL not set")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	slog.Debug("NewHTTPClassifier: client created", "base_url", cfg.BaseURL, "top_k", cfg.TopK)
	return &HTTPClassifier{baseURL: cfg.BaseURL, topK: cfg.TopK, client: cfg.HTTPClient}, nil
}

type predictRequest struct {
	Text string `json:"text"`
	K    int    `json:"k"`
}

type predictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Predict requests the top-K candidate tags for the text.
func (c *HTTPClassifier) Predict(ctx context.Context, text string) ([]Prediction, error) {
	payload, err := json.Marshal(predictRequest{Text: text, K: c.topK})
	if err != nil {
		return nil, fmt.Errorf("failed to encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("HTTPClassifier.Predict: request failed", "error", err)
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("HTTPClassifier.Predict: unexpected status", "status", resp.StatusCode)
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if len(decoded.Predictions) == 0 {
		return nil, fmt.Errorf("classifier returned no predictions")
	}
	slog.Debug("HTTPClassifier.Predict: predictions received", "count", len(decoded.Predictions),
		"best_tag", decoded.Predictions[0].Tag, "best_confidence", decoded.Predictions[0].Confidence)
	return decoded.Predictions, nil
}
