// Package research implements the best-effort web research pipeline: a
// search-capable provider call, tolerant parsing of its heterogeneous output
// shapes, and readable-text fetching of the top sources. Everything here
// degrades to empty results; research is augmentation, never a hard
// dependency of the reply.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/llm"
)

const (
	MaxSources       = 5
	maxQueryLength   = 200
	maxSummaryLength = 8000
	maxSourceTitle   = 200
	maxSourceSnippet = 500
)

type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Result is the bounded research digest: a natural-language summary plus a
// source list. Sources are https-only.
type Result struct {
	Summary string
	Sources []Source
}

func (r Result) Empty() bool {
	return r.Summary == "" && len(r.Sources) == 0
}

type Pipeline struct {
	search  llm.SearchProvider
	fetcher *Fetcher
	log     *zap.Logger
}

func NewPipeline(search llm.SearchProvider, log *zap.Logger) *Pipeline {
	return &Pipeline{search: search, fetcher: NewFetcher(log), log: log}
}

// Run issues one web search and parses whatever came back. Complete provider
// failure degrades to an empty result, never an error.
func (p *Pipeline) Run(ctx context.Context, query string) Result {
	sanitized := strings.TrimSpace(truncate(query, maxQueryLength))
	if sanitized == "" {
		return Result{}
	}

	p.log.Info("research: starting web search", zap.String("query", sanitized))
	out, err := p.search.Search(ctx, sanitized, MaxSources)
	if err != nil {
		p.log.Warn("research: search failed", zap.Error(err))
		return Result{}
	}

	result := parseSearchOutput(out, MaxSources)
	p.log.Info("research: parsed result", zap.Int("sources", len(result.Sources)))
	return result
}

// FetchMany delegates to the content fetcher.
func (p *Pipeline) FetchMany(ctx context.Context, urls []string, maxURLs int) []FetchResult {
	return p.fetcher.FetchMany(ctx, urls, maxURLs)
}

// extractor is one parsing strategy over the provider output. A nil return
// means "not my shape"; the first strategy to succeed wins.
type extractor func(text string, citations []Source, max int) *Result

var extractors = []extractor{extractDirectJSON, extractFencedJSON, extractCitations}

func parseSearchOutput(out llm.SearchOutput, max int) Result {
	citations := normalizeCitations(out.Citations, max)
	text := strings.TrimSpace(out.Text)

	for _, extract := range extractors {
		if result := extract(text, citations, max); result != nil {
			return *result
		}
	}
	return Result{Summary: truncate(text, maxSummaryLength)}
}

// extractDirectJSON handles a well-formed JSON payload embedded directly in
// the output text.
func extractDirectJSON(text string, citations []Source, max int) *Result {
	return decodeResearchJSON(text, text, citations, max)
}

// extractFencedJSON handles the same payload wrapped in a markdown code
// fence.
func extractFencedJSON(text string, citations []Source, max int) *Result {
	stripped := text
	switch {
	case strings.HasPrefix(stripped, "```json"):
		stripped = stripped[len("```json"):]
	case strings.HasPrefix(stripped, "```"):
		stripped = stripped[len("```"):]
	default:
		return nil
	}
	stripped = strings.TrimSuffix(strings.TrimSpace(stripped), "```")
	return decodeResearchJSON(strings.TrimSpace(stripped), text, citations, max)
}

// extractCitations covers provider-native inline citations as the only
// source of URLs when the body is not parseable JSON.
func extractCitations(text string, citations []Source, max int) *Result {
	if len(citations) == 0 {
		return nil
	}
	return &Result{Summary: truncate(text, maxSummaryLength), Sources: citations}
}

func decodeResearchJSON(jsonText string, fullText string, citations []Source, max int) *Result {
	var parsed struct {
		Research json.RawMessage `json:"research"`
		Sources  []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"sources"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil
	}

	// The full text stands in only when "research" is absent or not a
	// string; an explicitly empty string stays empty.
	summary := fullText
	if len(parsed.Research) > 0 {
		var research string
		if err := json.Unmarshal(parsed.Research, &research); err == nil {
			summary = research
		}
	}

	sources := []Source{}
	for _, src := range parsed.Sources {
		if len(sources) == max {
			break
		}
		if !strings.HasPrefix(src.URL, "https://") || src.Title == "" {
			continue
		}
		sources = append(sources, Source{
			Title:   truncate(src.Title, maxSourceTitle),
			URL:     src.URL,
			Snippet: truncate(src.Snippet, maxSourceSnippet),
		})
	}
	if len(sources) == 0 {
		sources = citations
	}

	return &Result{Summary: truncate(summary, maxSummaryLength), Sources: sources}
}

func normalizeCitations(citations []llm.Citation, max int) []Source {
	sources := []Source{}
	for _, c := range citations {
		if len(sources) == max {
			break
		}
		if !strings.HasPrefix(c.URL, "https://") {
			continue
		}
		title := c.Title
		if title == "" {
			title = c.URL
		}
		sources = append(sources, Source{
			Title:   truncate(title, maxSourceTitle),
			URL:     c.URL,
			Snippet: truncate(c.Snippet, maxSourceSnippet),
		})
	}
	return sources
}

// FormatForPrompt renders the digest as the research-context prompt segment.
func FormatForPrompt(result Result) string {
	if result.Empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n--- WEB RESEARCH ---\n")
	sb.WriteString(result.Summary)
	if len(result.Sources) > 0 {
		sb.WriteString("\n\nGevonden bronnen:")
		for i, source := range result.Sources {
			fmt.Fprintf(&sb, "\n[%d] %s - %s", i+1, source.Title, source.URL)
		}
	}
	sb.WriteString("\n--- EINDE RESEARCH ---\n")
	return sb.String()
}

var queryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)zoek\s+(?:op\s+)?(?:naar\s+)?(.+)`),
	regexp.MustCompile(`(?i)wat\s+(?:is|zijn|weet je over)\s+(.+)`),
	regexp.MustCompile(`(?i)informatie\s+over\s+(.+)`),
}

// GenerateSearchQuery extracts the search intent from the user message,
// falling back to note title plus message.
func GenerateSearchQuery(message string, noteTitle string) string {
	for _, pattern := range queryPatterns {
		match := pattern.FindStringSubmatch(message)
		if len(match) > 1 && match[1] != "" {
			return strings.TrimSpace(truncate(match[1], maxQueryLength))
		}
	}

	context := ""
	if noteTitle != "" {
		context = noteTitle + ": "
	}
	return truncate(context+message, maxQueryLength)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so the cut never leaves an invalid
	// UTF-8 tail.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
