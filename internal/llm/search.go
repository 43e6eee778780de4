package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAISearchProvider runs web-grounded calls against the Responses API
// with the web_search_preview tool. When that endpoint fails it retries the
// same contract through chat completions before giving up.
type OpenAISearchProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAISearchProvider(cfg OpenAIConfig) *OpenAISearchProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAISearchProvider{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 35 * time.Second},
	}
}

func searchInstruction(query string, maxSources int) string {
	return fmt.Sprintf(`Zoek informatie over: %s

Je taak:
1. Zoek relevante bronnen op het web
2. Geef een korte samenvatting van de belangrijkste bevindingen
3. Gebruik maximaal %d bronnen

BELANGRIJK: Antwoord ALLEEN in valid JSON formaat:
{
  "research": "Korte samenvatting van bevindingen in het Nederlands",
  "sources": [
    { "title": "Titel van bron", "url": "https://..." }
  ]
}

Geen markdown, geen extra tekst, ALLEEN JSON.`, query, maxSources)
}

func (p *OpenAISearchProvider) Search(ctx context.Context, query string, maxSources int) (SearchOutput, error) {
	if p.apiKey == "" {
		return SearchOutput{}, errors.New("missing API key for search provider")
	}
	out, err := p.searchResponses(ctx, query, maxSources)
	if err == nil {
		return out, nil
	}
	return p.searchCompletions(ctx, query, maxSources)
}

func (p *OpenAISearchProvider) searchResponses(ctx context.Context, query string, maxSources int) (SearchOutput, error) {
	payload := map[string]any{
		"model": p.model,
		"tools": []map[string]any{{"type": "web_search_preview"}},
		"input": searchInstruction(query, maxSources),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SearchOutput{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return SearchOutput{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return SearchOutput{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return SearchOutput{}, fmt.Errorf("search request failed: %s", resp.Status)
	}

	var parsed responsesPayload
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SearchOutput{}, err
	}
	return parsed.normalize(), nil
}

// responsesPayload covers both output shapes of the Responses API: a flat
// output_text, or an output array of message items whose content carries
// the text and url_citation annotations.
type responsesPayload struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type        string `json:"type"`
			Text        string `json:"text"`
			OutputText  string `json:"output_text"`
			Annotations []struct {
				Type  string `json:"type"`
				URL   string `json:"url"`
				Title string `json:"title"`
				Text  string `json:"text"`
			} `json:"annotations"`
		} `json:"content"`
	} `json:"output"`
}

func (p responsesPayload) normalize() SearchOutput {
	out := SearchOutput{Text: p.OutputText}
	for _, item := range p.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if out.Text == "" && (content.Type == "output_text" || content.Type == "text") {
				if content.Text != "" {
					out.Text = content.Text
				} else {
					out.Text = content.OutputText
				}
			}
			for _, ann := range content.Annotations {
				if ann.Type != "url_citation" || ann.URL == "" {
					continue
				}
				title := ann.Title
				if title == "" {
					title = ann.URL
				}
				out.Citations = append(out.Citations, Citation{Title: title, URL: ann.URL, Snippet: ann.Text})
			}
		}
	}
	return out
}

func (p *OpenAISearchProvider) searchCompletions(ctx context.Context, query string, maxSources int) (SearchOutput, error) {
	system := fmt.Sprintf(`Je bent een research assistent. Zoek informatie en geef resultaten in JSON formaat.

Antwoord ALLEEN met valid JSON:
{
  "research": "Korte samenvatting in het Nederlands",
  "sources": [{ "title": "...", "url": "https://..." }]
}

Max %d bronnen. Geen markdown.`, maxSources)

	payload := map[string]any{
		"model": p.model,
		"messages": []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: "Zoek informatie over: " + query},
		},
		"tools": []map[string]any{{
			"type":                "web_search_preview",
			"search_context_size": "medium",
		}},
		"temperature": 0.3,
		"max_tokens":  2000,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SearchOutput{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return SearchOutput{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return SearchOutput{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return SearchOutput{}, fmt.Errorf("search fallback failed: %s", resp.Status)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content     string `json:"content"`
				Annotations []struct {
					Type        string `json:"type"`
					Text        string `json:"text"`
					URLCitation struct {
						URL   string `json:"url"`
						Title string `json:"title"`
					} `json:"url_citation"`
				} `json:"annotations"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SearchOutput{}, err
	}
	if len(parsed.Choices) == 0 {
		return SearchOutput{}, errors.New("search response had no choices")
	}

	out := SearchOutput{Text: parsed.Choices[0].Message.Content}
	for _, ann := range parsed.Choices[0].Message.Annotations {
		if ann.Type != "url_citation" || ann.URLCitation.URL == "" {
			continue
		}
		title := ann.URLCitation.Title
		if title == "" {
			title = ann.URLCitation.URL
		}
		out.Citations = append(out.Citations, Citation{Title: title, URL: ann.URLCitation.URL, Snippet: ann.Text})
	}
	return out, nil
}
