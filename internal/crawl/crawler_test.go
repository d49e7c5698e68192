package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/whats-wegic", "whats-wegic.json"},
		{"/start-build-your-website/beginners-guide", "start-build-your-website--beginners-guide.json"},
		{"/blog/ai-website-builder", "blog--ai-website-builder.json"},
		{"/faqs", "faqs.json"},
		{"/path with spaces!", "path-with-spaces-.json"},
	}

	for _, tt := range tests {
		if got := Filename(tt.in); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPageSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	page := Page{
		Path:    "/whats-wegic",
		Title:   "What's Wegic",
		Content: "Wegic is an AI website builder.",
		URL:     "https://help.wegic.ai/whats-wegic",
		Type:    TypeDoc,
	}

	path, err := page.Save(dir)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if want := filepath.Join(dir, "wegic-docs", "whats-wegic.json"); path != want {
		t.Errorf("saved to %q, want %q", path, want)
	}

	loaded, err := LoadPage(path)
	if err != nil {
		t.Fatalf("LoadPage failed: %v", err)
	}
	if loaded != page {
		t.Errorf("round trip mismatch: got %+v", loaded)
	}
}

func TestFetchPageTitleFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantTitle string
	}{
		{
			name:      "title tag",
			html:      `<html><head><title>From Title Tag</title></head><body><p>Some body text here.</p></body></html>`,
			wantTitle: "From Title Tag",
		},
		{
			name:      "h1 fallback",
			html:      `<html><body><h1>From Heading</h1><p>Some body text here.</p></body></html>`,
			wantTitle: "From Heading",
		},
		{
			name:      "og:title fallback",
			html:      `<html><head><meta property="og:title" content="From OG"></head><body><p>Some body text here.</p></body></html>`,
			wantTitle: "From OG",
		},
		{
			name:      "path segment fallback",
			html:      `<html><body><p>Some body text here.</p></body></html>`,
			wantTitle: "edit-pages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.html))
			}))
			defer srv.Close()

			c := New(Config{HelpBaseURL: srv.URL, RequestsPerSecond: 1000}, nil)
			page, err := c.FetchPage(context.Background(), "/start-edit-manually/edit-pages", TypeDoc)
			if err != nil {
				t.Fatalf("FetchPage failed: %v", err)
			}
			if page.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", page.Title, tt.wantTitle)
			}
			if page.Content == "" {
				t.Error("content is empty")
			}
		})
	}
}

func TestFetchPageStripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>T</title><script>var x = 1;</script></head>` +
			`<body><p>visible text</p><style>.a{color:red}</style></body></html>`))
	}))
	defer srv.Close()

	c := New(Config{HelpBaseURL: srv.URL, RequestsPerSecond: 1000}, nil)
	page, err := c.FetchPage(context.Background(), "/whats-wegic", TypeDoc)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if !strings.Contains(page.Content, "visible text") {
		t.Errorf("content %q missing visible text", page.Content)
	}
	if strings.Contains(page.Content, "var x") || strings.Contains(page.Content, "color:red") {
		t.Errorf("content %q contains script or style text", page.Content)
	}
}

func TestFetchPageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{HelpBaseURL: srv.URL, RequestsPerSecond: 1000}, nil)
	_, err := c.FetchPage(context.Background(), "/missing", TypeDoc)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fetchErr.Status)
	}
}

func TestDiscoverBlogPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blog" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`<html><body>
			<a href="/blog/first-post">First</a>
			<a href="/blog/second-post">Second</a>
			<a href="/blog/first-post">First again</a>
			<a href="/pricing">Pricing</a>
			<a href="https://example.com/blog/external">External</a>
		</body></html>`))
	}))
	defer srv.Close()

	c := New(Config{BlogBaseURL: srv.URL, RequestsPerSecond: 1000}, nil)
	paths, err := c.DiscoverBlogPaths(context.Background())
	if err != nil {
		t.Fatalf("DiscoverBlogPaths failed: %v", err)
	}

	want := []string{"/blog/first-post", "/blog/second-post"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestRunSkipsFailedPages(t *testing.T) {
	page := `<html><head><title>Page</title></head><body><p>Body text for this page.</p></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/blog":
			_, _ = w.Write([]byte(`<a href="/blog/good">good</a><a href="/blog/broken">broken</a>`))
		case r.URL.Path == "/blog/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(page))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(Config{
		HelpBaseURL:       srv.URL,
		BlogBaseURL:       srv.URL,
		OutputDir:         dir,
		Concurrency:       2,
		RequestsPerSecond: 1000,
	}, nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantCrawled := len(DocPaths) + 1 // all docs plus the one good blog post
	if result.PagesCrawled != wantCrawled {
		t.Errorf("crawled = %d, want %d", result.PagesCrawled, wantCrawled)
	}
	if result.PagesFailed != 1 {
		t.Errorf("failed = %d, want 1", result.PagesFailed)
	}
	if result.BlogDiscovered != 2 {
		t.Errorf("discovered = %d, want 2", result.BlogDiscovered)
	}

	if _, err := os.Stat(filepath.Join(dir, "wegic-blog", "blog--good.json")); err != nil {
		t.Errorf("good blog post not saved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "wegic-docs", "faqs.json")); err != nil {
		t.Errorf("doc page not saved: %v", err)
	}
}
