package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

const defaultMaxExcerptLen = 280

// Preview is the metadata shown next to a link post.
type Preview struct {
	Title    string
	Excerpt  string
	SiteName string
	Image    string
}

// Scraper extracts link previews from web pages.
type Scraper struct {
	httpClient    *http.Client
	maxExcerptLen int
	userAgent     string
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		s.httpClient.Timeout = d
	}
}

// WithMaxExcerptLength sets the maximum excerpt length in runes.
func WithMaxExcerptLength(n int) Option {
	return func(s *Scraper) {
		s.maxExcerptLen = n
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		s.httpClient = c
	}
}

// NewScraper creates a new link previewer.
func NewScraper(opts ...Option) *Scraper {
	s := &Scraper{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		maxExcerptLen: defaultMaxExcerptLen,
		userAgent:     "Mozilla/5.0 (compatible; ThreadHub/1.0)",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview fetches rawURL and extracts its title, excerpt, site name and lead image.
func (s *Scraper) Preview(ctx context.Context, rawURL string) (*Preview, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Some sites reject requests without a browser-like user agent
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	excerpt := strings.TrimSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = strings.TrimSpace(article.TextContent)
	}

	return &Preview{
		Title:    strings.TrimSpace(article.Title),
		Excerpt:  truncate(strings.Join(strings.Fields(excerpt), " "), s.maxExcerptLen),
		SiteName: strings.TrimSpace(article.SiteName),
		Image:    strings.TrimSpace(article.Image),
	}, nil
}

// truncate cuts s to at most n runes, ending with an ellipsis when cut.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}
