package crawl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultHelpBaseURL hosts the documentation pages.
	DefaultHelpBaseURL = "https://help.wegic.ai"
	// DefaultBlogBaseURL hosts the blog index and posts.
	DefaultBlogBaseURL = "https://wegic.ai"

	DefaultConcurrency       = 4
	DefaultRequestsPerSecond = 2
	DefaultFetchTimeout      = 30 * time.Second

	maxResponseSize = 10 << 20 // 10MB
)

// DocPaths is the fixed set of documentation pages to crawl. Blog
// posts are discovered dynamically from the blog index.
var DocPaths = []string{
	"/whats-wegic",
	"/start-build-your-website/beginners-guide",
	"/start-build-your-website/navigate-the-interface",
	"/start-edit-manually/edit-pages",
	"/start-edit-manually/modify-site-header",
	"/start-edit-manually/change-fonts-and-theme",
	"/start-edit-manually/edit-text-and-links",
	"/start-edit-manually/replace-images-and-icons",
	"/start-edit-manually/modify-the-footer",
	"/chat-with-ai-to-edit/commonly-used-prompts",
	"/chat-with-ai-to-edit/modify-style-and-layout",
	"/chat-with-ai-to-edit/add-web-animations",
	"/section-circling-drawing/mark-section-with-drawing",
	"/section-circling-drawing/draw-reference-sketch",
	"/section-circling-drawing/upload-reference-image",
	"/embed-media-and-third-party-tools/add-video-and-audio",
	"/embed-media-and-third-party-tools/forms-and-booking",
	"/embed-media-and-third-party-tools/embed-other-tools",
	"/publish-and-management/publish-your-website",
	"/publish-and-management/custom-domain",
	"/publish-and-management/update-and-unpublish",
	"/publish-and-management/website-settings",
	"/publish-and-management/account-management",
	"/seo-marketing/custom-head-code",
	"/seo-marketing/add-google-analytics",
	"/seo-marketing/get-embed-codes-for-google-tools",
	"/manage-your-wegic-plan/upgrade-your-wegic-plan",
	"/manage-your-wegic-plan/subscription-and-payment-faq",
	"/content-auto-sync/create-content-auto-sync",
	"/content-auto-sync/errors-and-solutions",
	"/faqs",
}

// FetchError reports a failed page fetch. Status is zero when the
// request never produced a response.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Config controls crawl targets and pacing.
type Config struct {
	HelpBaseURL       string
	BlogBaseURL       string
	OutputDir         string
	Concurrency       int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Result summarizes a full crawl run.
type Result struct {
	PagesCrawled   int
	PagesFailed    int
	BlogDiscovered int
	Duration       time.Duration
}

// Crawler fetches documentation and blog pages and persists them as
// JSON files for the ingestion pipeline. Page failures are isolated:
// one broken page never aborts the run.
type Crawler struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Crawler, filling unset config fields with defaults.
func New(cfg Config, logger *slog.Logger) *Crawler {
	if cfg.HelpBaseURL == "" {
		cfg.HelpBaseURL = DefaultHelpBaseURL
	}
	if cfg.BlogBaseURL == "" {
		cfg.BlogBaseURL = DefaultBlogBaseURL
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Crawler{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger,
	}
}

// FetchPage downloads one page and extracts its readable text. The
// title falls back through <title>, <h1>, og:title, and finally the
// last path segment.
func (c *Crawler) FetchPage(ctx context.Context, pagePath string, typ PageType) (Page, error) {
	base := c.cfg.HelpBaseURL
	if typ == TypeBlog {
		base = c.cfg.BlogBaseURL
	}
	pageURL := base + pagePath

	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, &FetchError{URL: pageURL, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Page{}, &FetchError{URL: pageURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return Page{}, &FetchError{URL: pageURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Page{}, &FetchError{URL: pageURL, Err: err}
	}

	title, content := extractContent(body, pageURL)
	if title == "" {
		title = fallbackTitle(pagePath)
	}

	return Page{
		Path:    pagePath,
		Title:   title,
		Content: content,
		URL:     pageURL,
		Type:    typ,
	}, nil
}

// DiscoverBlogPaths visits the blog index and collects every link
// whose path starts with /blog/, deduplicated and sorted.
func (c *Crawler) DiscoverBlogPaths(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var mu sync.Mutex

	collector := colly.NewCollector()
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.Context = ctx

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if strings.HasPrefix(href, "/blog/") {
			mu.Lock()
			seen[href] = struct{}{}
			mu.Unlock()
		}
	})

	if err := collector.Visit(c.cfg.BlogBaseURL + "/blog"); err != nil {
		return nil, fmt.Errorf("visiting blog index: %w", err)
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Run crawls all documentation paths plus every discovered blog post,
// saving each page under the output directory. Failed pages are
// logged and skipped. A blog index failure degrades to docs-only.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	blogPaths, err := c.DiscoverBlogPaths(ctx)
	if err != nil {
		c.logger.Warn("blog discovery failed, crawling docs only", "error", err)
		blogPaths = nil
	}
	c.logger.Info("starting crawl",
		"docs", len(DocPaths),
		"blog_posts", len(blogPaths),
	)

	type job struct {
		path string
		typ  PageType
	}
	jobs := make([]job, 0, len(DocPaths)+len(blogPaths))
	for _, p := range DocPaths {
		jobs = append(jobs, job{p, TypeDoc})
	}
	for _, p := range blogPaths {
		jobs = append(jobs, job{p, TypeBlog})
	}

	var (
		mu      sync.Mutex
		crawled int
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			page, err := c.FetchPage(gctx, j.path, j.typ)
			if err == nil {
				_, err = page.Save(c.cfg.OutputDir)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				c.logger.Warn("page skipped", "path", j.path, "error", err)
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return nil
			}
			crawled++
			c.logger.Debug("page saved", "path", j.path, "type", j.typ)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		PagesCrawled:   crawled,
		PagesFailed:    failed,
		BlogDiscovered: len(blogPaths),
		Duration:       time.Since(start),
	}
	c.logger.Info("crawl finished",
		"crawled", result.PagesCrawled,
		"failed", result.PagesFailed,
		"duration", result.Duration,
	)
	return result, nil
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// extractContent pulls the readable title and text out of a page.
// Readability handles article-shaped pages; sparse pages fall back to
// a plain goquery text scrape.
func extractContent(body []byte, pageURL string) (title, content string) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err == nil {
		title = strings.TrimSpace(article.Title)
		content = strings.TrimSpace(article.TextContent)
	}

	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if docErr != nil {
		return title, content
	}

	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		title = strings.TrimSpace(title)
	}

	if content == "" {
		doc.Find("script, style").Remove()
		content = strings.TrimSpace(whitespacePattern.ReplaceAllString(doc.Find("body").Text(), " "))
	}
	return title, content
}

// fallbackTitle derives a title from the last path segment.
func fallbackTitle(pagePath string) string {
	segments := strings.Split(strings.Trim(pagePath, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return "Untitled"
	}
	return last
}
