package ml

// model_client.go - HTTP client for the external model-serving service that
// hosts the trained URL decision forest, its attribution endpoint, and the
// email text attribution endpoint. The service owns the training-time column
// order; this client fetches the schema once and aligns every feature vector
// to it before prediction.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lucidsec/phishsense/pkg/evidence"
	"github.com/lucidsec/phishsense/pkg/httputil"
	"github.com/lucidsec/phishsense/pkg/urlfeat"
)

// ModelClient implements URLClassifier, URLAttributor, and TokenAttributor
// against the model-serving HTTP API. A nil or unreachable service surfaces
// as ErrModelUnavailable, never as a default score.
type ModelClient struct {
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	schema []string // training-time column order, fetched once
	dims   atomic.Int64
}

// NewModelClient creates a client for the model service at baseURL. An empty
// baseURL yields a client that reports ErrModelUnavailable for every call.
func NewModelClient(baseURL string) *ModelClient {
	return &ModelClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httputil.Client(httputil.TierMedium),
	}
}

// Schema returns the model's training-time column order, fetching and
// caching it on first use.
func (m *ModelClient) Schema(ctx context.Context) ([]string, error) {
	if m.baseURL == "" {
		return nil, ErrModelUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.schema != nil {
		return m.schema, nil
	}

	var resp struct {
		Columns []string `json:"columns"`
	}
	if err := m.getJSON(ctx, "/schema", &resp); err != nil {
		return nil, err
	}
	if len(resp.Columns) == 0 {
		return nil, fmt.Errorf("model service returned empty schema")
	}
	m.schema = resp.Columns
	return m.schema, nil
}

// PredictProba aligns the vector to the service schema and returns the
// phishing-class probability.
func (m *ModelClient) PredictProba(ctx context.Context, vec urlfeat.Vector) (float64, error) {
	schema, err := m.Schema(ctx)
	if err != nil {
		return 0, err
	}

	req := struct {
		Features []float64 `json:"features"`
	}{Features: vec.Align(schema)}

	var resp struct {
		Probability float64 `json:"probability"`
	}
	if err := m.postJSON(ctx, "/predict", req, &resp); err != nil {
		return 0, err
	}
	if resp.Probability < 0 || resp.Probability > 1 {
		return 0, fmt.Errorf("model service returned probability out of range: %f", resp.Probability)
	}
	return resp.Probability, nil
}

// RankContributions returns the service's feature attributions, descending
// by signed weight.
func (m *ModelClient) RankContributions(ctx context.Context, vec urlfeat.Vector) ([]evidence.Contribution, error) {
	schema, err := m.Schema(ctx)
	if err != nil {
		return nil, err
	}

	req := struct {
		Features []float64 `json:"features"`
	}{Features: vec.Align(schema)}

	var resp struct {
		Contributions []evidence.Contribution `json:"contributions"`
	}
	if err := m.postJSON(ctx, "/contributions", req, &resp); err != nil {
		return nil, err
	}
	return resp.Contributions, nil
}

// TokenScores returns per-token phishing-vs-safe log-probability differences
// for the message under the text classifier hosted by the service.
func (m *ModelClient) TokenScores(ctx context.Context, text string) ([]evidence.TokenScore, error) {
	if m.baseURL == "" {
		return nil, ErrModelUnavailable
	}

	req := struct {
		Text string `json:"text"`
	}{Text: text}

	var resp struct {
		Tokens []evidence.TokenScore `json:"tokens"`
	}
	if err := m.postJSON(ctx, "/token-scores", req, &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

// Embed returns an embedding for the text from the model service, letting
// the service double as the EmbeddingProvider for the lure detector.
func (m *ModelClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.baseURL == "" {
		return nil, ErrModelUnavailable
	}

	req := struct {
		Text string `json:"text"`
	}{Text: text}

	var resp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := m.postJSON(ctx, "/embed", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("model service returned empty embedding")
	}
	m.dims.Store(int64(len(resp.Embedding)))
	return resp.Embedding, nil
}

// Dimension reports the embedding width observed on the last Embed call,
// or 0 before the first call.
func (m *ModelClient) Dimension() int {
	return int(m.dims.Load())
}

func (m *ModelClient) getJSON(ctx context.Context, path string, out any) error {
	if m.baseURL == "" {
		return ErrModelUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return m.do(req, out)
}

func (m *ModelClient) postJSON(ctx context.Context, path string, in, out any) error {
	if m.baseURL == "" {
		return ErrModelUnavailable
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return m.do(req, out)
}

func (m *ModelClient) do(req *http.Request, out any) error {
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode == http.StatusServiceUnavailable {
		return ErrModelUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		errBody, _ := httputil.ReadErrorBody(resp.Body)
		return fmt.Errorf("model service returned %d: %s", resp.StatusCode, string(errBody))
	}

	data, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
