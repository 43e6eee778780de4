package llm

import (
	"context"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions tune a single completion call. A zero MaxTokens leaves the
// provider default in place.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	ForceJSON   bool
}

// Provider is a stateless text-generation endpoint.
type Provider interface {
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error)
}

// Citation is a provider-native inline source annotation.
type Citation struct {
	Title   string
	URL     string
	Snippet string
}

// SearchOutput is the normalized result of a search-capable provider call:
// free-form text (claimed JSON) plus any inline citations the provider
// attached alongside it.
type SearchOutput struct {
	Text      string
	Citations []Citation
}

// SearchProvider runs a web-grounded generation call.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxSources int) (SearchOutput, error)
}
