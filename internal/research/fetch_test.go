package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// testFetcher returns a Fetcher whose client trusts the httptest TLS server.
func testFetcher(server *httptest.Server) *Fetcher {
	fetcher := NewFetcher(zap.NewNop())
	fetcher.client = server.Client()
	return fetcher
}

func TestFetchURLText_RejectsNonHTTPS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("non-https fetch must never reach the network")
	}))
	defer server.Close()

	fetcher := NewFetcher(zap.NewNop())
	result := fetcher.FetchURLText(context.Background(), server.URL)
	if result.Success {
		t.Error("Success = true for http url")
	}
	if result.Text != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
}

func TestFetchURLText_ReadableArticle(t *testing.T) {
	page := `<html><head><title>Pagina Titel</title></head><body>
		<nav>menu menu menu</nav>
		<article>` + strings.Repeat("Leesbare inhoud over het onderwerp. ", 20) + `</article>
		<footer>voettekst</footer>
	</body></html>`
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	result := testFetcher(server).FetchURLText(context.Background(), server.URL)
	if !result.Success {
		t.Fatalf("Success = false, result = %+v", result)
	}
	if result.Title != "Pagina Titel" {
		t.Errorf("Title = %q", result.Title)
	}
	if strings.Contains(result.Text, "menu") || strings.Contains(result.Text, "voettekst") {
		t.Errorf("stripped regions leaked into text: %q", result.Text)
	}
	if !strings.Contains(result.Text, "Leesbare inhoud") {
		t.Errorf("article text missing: %q", result.Text)
	}
}

func TestFetchURLText_OGTitleWins(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="OG Titel">
		<title>Document Titel</title>
	</head><body><main>` + strings.Repeat("tekst ", 50) + `</main></body></html>`
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	result := testFetcher(server).FetchURLText(context.Background(), server.URL)
	if result.Title != "OG Titel" {
		t.Errorf("Title = %q, want og:title", result.Title)
	}
}

func TestFetchURLText_ShortPageFails(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>kort</p></body></html>"))
	}))
	defer server.Close()

	result := testFetcher(server).FetchURLText(context.Background(), server.URL)
	if result.Success {
		t.Errorf("Success = true for a page with only %d readable chars", len(result.Text))
	}
}

func TestFetchURLText_HTTPError(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "weg", http.StatusNotFound)
	}))
	defer server.Close()

	if result := testFetcher(server).FetchURLText(context.Background(), server.URL); result.Success {
		t.Error("Success = true for 404")
	}
}

func TestFetchURLText_ContentTypeAllowlist(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(strings.Repeat("binary-ish ", 50)))
	}))
	defer server.Close()

	if result := testFetcher(server).FetchURLText(context.Background(), server.URL); result.Success {
		t.Error("Success = true for application/pdf")
	}
}

func TestFetchURLText_PlainText(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("platte tekst ", 30)))
	}))
	defer server.Close()

	result := testFetcher(server).FetchURLText(context.Background(), server.URL)
	if !result.Success {
		t.Fatalf("Success = false: %+v", result)
	}
	if result.Title != "" {
		t.Errorf("Title = %q, plain text has none", result.Title)
	}
}

func TestFetchURLText_ByteBudget(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", maxFetchBytes+1000)))
	}))
	defer server.Close()

	result := testFetcher(server).FetchURLText(context.Background(), server.URL)
	if !result.Success {
		t.Fatal("Success = false")
	}
	if len(result.Text) > maxTextLength {
		t.Errorf("Text length = %d, want <= %d", len(result.Text), maxTextLength)
	}
}

func TestFetchMany_CapAndOrder(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("inhoud voor "+r.URL.Path+" ", 20)))
	}))
	defer server.Close()

	fetcher := testFetcher(server)
	urls := []string{server.URL + "/een", server.URL + "/twee", server.URL + "/drie"}
	results := fetcher.FetchMany(context.Background(), urls, 2)

	if len(results) != 2 {
		t.Fatalf("results = %d, want capped at 2", len(results))
	}
	if !strings.Contains(results[0].Text, "/een") || !strings.Contains(results[1].Text, "/twee") {
		t.Errorf("results out of order: %+v", results)
	}
}

func TestFetchMany_FailureIsIndependent(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/kapot" {
			http.Error(w, "weg", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("prima inhoud ", 20)))
	}))
	defer server.Close()

	fetcher := testFetcher(server)
	results := fetcher.FetchMany(context.Background(), []string{server.URL + "/kapot", server.URL + "/goed"}, 2)
	if results[0].Success {
		t.Error("first fetch should fail")
	}
	if !results[1].Success {
		t.Error("second fetch should succeed despite the first failing")
	}
}

func TestContentSnippet(t *testing.T) {
	if got := ContentSnippet(nil); got != "" {
		t.Errorf("ContentSnippet(nil) = %q", got)
	}

	got := ContentSnippet([]FetchResult{
		{URL: "https://a.example", Title: "Bron A", Text: "tekst van a", Success: true},
		{URL: "https://b.example", Text: "mislukt", Success: false},
		{URL: "https://c.example", Title: "", Text: "tekst van c", Success: true},
	})
	if !strings.Contains(got, "--- PAGINA INHOUD ---") {
		t.Errorf("snippet = %q", got)
	}
	if !strings.Contains(got, "[Bron A]") {
		t.Error("titled source missing")
	}
	if strings.Contains(got, "mislukt") {
		t.Error("failed fetch leaked into snippet")
	}
	if !strings.Contains(got, "[https://c.example]") {
		t.Error("untitled source must fall back to its url")
	}
}
