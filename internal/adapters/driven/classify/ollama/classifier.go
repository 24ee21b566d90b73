// Package ollama provides a content-type classifier adapter using a
// local Ollama model.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
)

// Ensure ClassifierService implements the interface.
var _ driven.ClassifierService = (*ClassifierService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the Ollama classifier service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// ClassifierService labels document text using Ollama.
type ClassifierService struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Format  string   `json:"format,omitempty"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// labelResponse is the JSON object the model is asked to produce.
type labelResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// NewClassifierService creates a new Ollama classifier service.
func NewClassifierService(cfg Config) *ClassifierService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &ClassifierService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Classify asks the model for a label and confidence. The prompt pins
// the label set and requests JSON output so the response parses
// without scraping.
func (s *ClassifierService) Classify(ctx context.Context, text string) (string, float64, error) {
	reqBody := generateRequest{
		Model:  s.model,
		Prompt: buildPrompt(text),
		Stream: false,
		Format: "json",
		Options: &options{
			NumPredict:  100,
			Temperature: 0,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", 0, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", 0, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", 0, fmt.Errorf("decode response: %w", err)
	}

	var label labelResponse
	if err := json.Unmarshal([]byte(genResp.Response), &label); err != nil {
		return "", 0, fmt.Errorf("parse model output %q: %w", genResp.Response, err)
	}

	return strings.ToLower(strings.TrimSpace(label.Label)), label.Confidence, nil
}

// buildPrompt builds the classification prompt for the model.
func buildPrompt(text string) string {
	var labels []string
	for _, ct := range domain.ContentTypes() {
		labels = append(labels, string(ct))
	}
	return fmt.Sprintf(`Classify the following fantasy football league document into exactly one category.

Categories: %s

Respond with JSON only: {"label": "<category>", "confidence": <0.0-1.0>}

Document:
%s`, strings.Join(labels, ", "), text)
}
