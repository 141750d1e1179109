// Package gemini implements the llm.Provider port against the Google
// Generative Language API. Each model variant is its own provider so the
// orchestrator can walk them in priority order.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/openroad-dev/openroad/internal/config"
	"github.com/openroad-dev/openroad/internal/port/llm"
	"github.com/openroad-dev/openroad/internal/resilience"
)

// Provider is one Gemini model variant behind the llm.Provider port.
type Provider struct {
	baseURL    string
	apiKey     string
	model      string
	apiVersion string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewProvider creates a provider for a single model variant.
func NewProvider(cfg config.Gemini, model config.GeminiModel) *Provider {
	return &Provider{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      model.Name,
		apiVersion: model.APIVersion,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// NewProviders builds the ordered provider chain from configuration.
func NewProviders(cfg config.Gemini) []llm.Provider {
	provs := make([]llm.Provider, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		provs = append(provs, NewProvider(cfg, m))
	}
	return provs
}

// SetBreaker attaches a circuit breaker to outgoing generation calls.
func (p *Provider) SetBreaker(b *resilience.Breaker) {
	p.breaker = b
}

func (p *Provider) Name() string { return p.model }

// generateRequest mirrors the generateContent request body.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// generateResponse mirrors the generateContent response body.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate performs one generateContent call and returns the textual
// payload. An empty payload is an error so the orchestrator advances.
func (p *Provider) Generate(ctx context.Context, req llm.Request) (string, error) {
	payload := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: req.System}, {Text: req.Prompt}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			TopK:            req.TopK,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := p.post(ctx, body)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", p.model, err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s: api error: %s", p.model, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%s: empty response", p.model)
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("%s: empty response text", p.model)
	}
	return text, nil
}

func (p *Provider) post(ctx context.Context, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		reqURL := fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s",
			p.baseURL, p.apiVersion, p.model, p.apiKey)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%s: api status %d: %s", p.model, resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if p.breaker != nil {
		if err := p.breaker.Do(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
