// Package prompt talks to the upstream generation model that rewrites a raw
// user prompt into an enhanced one plus a list of improvement notes.
package prompt

import "context"

// Result is the validated output of one enhancement call. It is transient:
// computed per request and never cached.
type Result struct {
	EnhancedPrompt string   `json:"enhancedPrompt"`
	Improvements   []string `json:"improvements"`
	Provider       string   `json:"-"`
}

// Enhancer sends a non-empty raw prompt upstream and returns a validated
// result. Failures are *Error values carrying a kind and an HTTP status hint.
type Enhancer interface {
	Enhance(ctx context.Context, rawPrompt string) (*Result, error)
}

const (
	geminiProviderName = "gemini"
	openAIProviderName = "openai"
)
