package research

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const (
	fetchTimeout    = 8 * time.Second
	maxFetchBytes   = 2 << 20
	maxTextLength   = 20000
	minReadableText = 100
	maxPageTitle    = 200
	maxSnippetChars = 3000
)

var allowedContentTypes = []string{"text/html", "text/plain"}

// FetchResult is the outcome of one page fetch. Success is true only when
// the extracted text is substantive (> minReadableText chars); a page that
// loads but yields nothing readable is a failure, not a partial success.
type FetchResult struct {
	URL     string
	Title   string
	Text    string
	Success bool
}

type Fetcher struct {
	client *http.Client
	log    *zap.Logger
}

func NewFetcher(log *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		log:    log,
	}
}

// FetchURLText retrieves one page and extracts readable text. Non-https
// URLs are rejected before any network call.
func (f *Fetcher) FetchURLText(ctx context.Context, url string) FetchResult {
	result := FetchResult{URL: url}

	if !strings.HasPrefix(url, "https://") {
		f.log.Debug("fetch: rejected non-https url", zap.String("url", url))
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NotivaAgent/1.0; Research Bot)")
	req.Header.Set("Accept", "text/html, text/plain, */*")
	req.Header.Set("Accept-Language", "nl,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Debug("fetch: request failed", zap.String("url", url), zap.Error(err))
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.log.Debug("fetch: http error", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return result
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	allowed := false
	for _, t := range allowedContentTypes {
		if strings.Contains(contentType, t) {
			allowed = true
			break
		}
	}
	if !allowed {
		f.log.Debug("fetch: unsupported content type", zap.String("url", url), zap.String("contentType", contentType))
		return result
	}

	// Streamed byte budget: stop reading once exceeded rather than erroring.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return result
	}

	if strings.Contains(contentType, "text/plain") {
		result.Text = truncate(normalizeWhitespace(string(body)), maxTextLength)
		result.Success = len(result.Text) > minReadableText
		return result
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return result
	}

	result.Title = truncate(strings.TrimSpace(pageTitle(doc)), maxPageTitle)
	result.Text = truncate(normalizeWhitespace(extractReadableText(doc)), maxTextLength)
	result.Success = len(result.Text) > minReadableText

	f.log.Debug("fetch: extracted text",
		zap.String("url", url),
		zap.Int("chars", len(result.Text)),
		zap.Bool("success", result.Success))
	return result
}

// FetchMany fetches at most maxURLs pages in parallel. Each fetch is
// independent; one failure never affects the others.
func (f *Fetcher) FetchMany(ctx context.Context, urls []string, maxURLs int) []FetchResult {
	if len(urls) > maxURLs {
		urls = urls[:maxURLs]
	}
	results := make([]FetchResult, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			results[i] = f.FetchURLText(ctx, url)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ContentSnippet renders successful fetches as the page-content prompt
// segment, bounded per source.
func ContentSnippet(results []FetchResult) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n--- PAGINA INHOUD ---\n")
	for _, result := range results {
		if !result.Success || result.Text == "" {
			continue
		}
		heading := result.Title
		if heading == "" {
			heading = result.URL
		}
		sb.WriteString("\n[" + heading + "]\n")
		sb.WriteString(truncate(result.Text, maxSnippetChars))
		sb.WriteString("\n")
	}
	sb.WriteString("--- EINDE PAGINA INHOUD ---\n")
	return sb.String()
}

// Elements whose subtree is never readable content.
var strippedTags = map[string]bool{
	"script": true, "style": true, "nav": true, "header": true,
	"footer": true, "aside": true, "iframe": true, "noscript": true,
}

// Class tokens that mark ad-like or social regions.
var strippedClasses = map[string]bool{
	"ad": true, "ads": true, "advertisement": true,
	"social-share": true, "comments": true,
}

func stripped(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if strippedTags[n.Data] {
		return true
	}
	for _, attr := range n.Attr {
		switch attr.Key {
		case "hidden":
			return true
		case "class":
			for _, class := range strings.Fields(attr.Val) {
				if strippedClasses[strings.ToLower(class)] {
					return true
				}
			}
		}
	}
	return false
}

func pageTitle(doc *html.Node) string {
	if meta := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "meta" && attrValue(n, "property") == "og:title"
	}); meta != nil {
		if content := attrValue(meta, "content"); content != "" {
			return content
		}
	}
	if title := findNode(doc, matchTag("title")); title != nil {
		if text := nodeText(title); text != "" {
			return text
		}
	}
	if h1 := findNode(doc, matchTag("h1")); h1 != nil {
		return nodeText(h1)
	}
	return ""
}

// Content-region selectors, tried in order; the first match wins, falling
// back to the whole document body.
var contentMatchers = []func(*html.Node) bool{
	matchTag("article"),
	matchTag("main"),
	matchClass("content"),
	matchClass("article-content"),
	matchClass("post-content"),
	matchID("content"),
	matchClass("entry-content"),
}

func extractReadableText(doc *html.Node) string {
	for _, matches := range contentMatchers {
		if region := findNode(doc, matches); region != nil {
			return nodeText(region)
		}
	}
	if body := findNode(doc, matchTag("body")); body != nil {
		return nodeText(body)
	}
	return nodeText(doc)
}

func matchTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func matchClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, token := range strings.Fields(attrValue(n, "class")) {
			if token == class {
				return true
			}
		}
		return false
	}
}

func matchID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && attrValue(n, "id") == id
	}
}

func findNode(n *html.Node, matches func(*html.Node) bool) *html.Node {
	if stripped(n) {
		return nil
	}
	if matches(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, matches); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb, 0)
	return sb.String()
}

func collectText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 50 || stripped(n) {
		return
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb, depth+1)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
