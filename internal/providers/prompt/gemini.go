package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiEnhancer calls the Gemini generateContent endpoint in JSON mode.
// Sampling parameters are fixed and tuned for well-formed output over
// creativity; there is no network-level retry.
type GeminiEnhancer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

const (
	geminiDefaultTimeout = 30 * time.Second
	geminiDefaultModel   = "gemini-2.5-flash-lite-preview-06-17"
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
	TopK             int     `json:"topK"`
	TopP             float64 `json:"topP"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewGeminiEnhancer builds the client. A missing API key is allowed here and
// surfaces as KindConfigMissing on the first call.
func NewGeminiEnhancer(opts GeminiOptions) *GeminiEnhancer {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = geminiDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiEnhancer{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

func (g *GeminiEnhancer) Enhance(ctx context.Context, rawPrompt string) (*Result, error) {
	if g.apiKey == "" {
		return nil, newError(KindConfigMissing, "gemini api key is not configured", nil)
	}
	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: buildInstruction(rawPrompt)}},
		}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.5,
			TopK:             40,
			TopP:             0.95,
			MaxOutputTokens:  2048,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, newError(KindUnreachable, "encode request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return nil, newError(KindUnreachable, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, newError(KindUnreachable, "gemini request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, newError(KindUnreachable, fmt.Sprintf("gemini responded with status %d", resp.StatusCode), nil)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, newError(KindEmptyResponse, "undecodable response envelope", err)
	}
	text := extractCandidateText(out)
	if text == "" {
		return nil, newError(KindEmptyResponse, "no text payload in candidates", nil)
	}

	result, perr := parseResult(text)
	if perr != nil {
		return nil, perr
	}
	result.Provider = geminiProviderName
	return result, nil
}

func (g *GeminiEnhancer) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func extractCandidateText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

var _ Enhancer = (*GeminiEnhancer)(nil)
