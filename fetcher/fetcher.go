// Package fetcher retrieves best-effort descriptive text for a URL.
//
// Short-form social posts go through the platform's oembed endpoint first;
// everything else (and any social failure) falls back to scraping the page's
// preview metadata.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	defaultOembedBaseURL = "https://publish.twitter.com"
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxContentLen = 2000

	// maxBodyBytes caps how much of a response body is read before parsing.
	maxBodyBytes = 2 << 20
)

// socialPostPattern matches short-form social post URLs of the form
// <host>/<user>/status/<numeric id>.
var socialPostPattern = regexp.MustCompile(`^https?://(?:mobile\.)?(?:twitter\.com|x\.com)/\w+/status/\d+`)

// IsSocialPost reports whether rawURL points at a short-form social post.
func IsSocialPost(rawURL string) bool {
	return socialPostPattern.MatchString(rawURL)
}

// Fetcher extracts descriptive text from web pages and social posts.
type Fetcher struct {
	httpClient    *http.Client
	oembedBaseURL string
	userAgent     string
	maxContentLen int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient.Timeout = d
	}
}

// WithOembedBaseURL sets a custom oembed endpoint (for testing).
func WithOembedBaseURL(u string) Option {
	return func(f *Fetcher) {
		f.oembedBaseURL = u
	}
}

// WithMaxContentLength sets the maximum content length to return.
func WithMaxContentLength(n int) Option {
	return func(f *Fetcher) {
		f.maxContentLen = n
	}
}

// NewFetcher creates a new content fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		oembedBaseURL: defaultOembedBaseURL,
		userAgent:     defaultUserAgent,
		maxContentLen: defaultMaxContentLen,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the best available descriptive text for rawURL.
// Callers treat any error as absent content; no error is fatal.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if IsSocialPost(rawURL) {
		if text, err := f.fetchSocial(ctx, rawURL); err == nil && text != "" {
			return text, nil
		}
		// Social embed failed; try the page itself.
	}
	return f.fetchGeneric(ctx, rawURL)
}

// oembedResponse is the subset of the oembed payload we consume.
type oembedResponse struct {
	HTML       string `json:"html"`
	AuthorName string `json:"author_name"`
}

// fetchSocial pulls post text out of the platform's oembed embed markup.
func (f *Fetcher) fetchSocial(ctx context.Context, postURL string) (string, error) {
	endpoint := fmt.Sprintf("%s/oembed?url=%s", f.oembedBaseURL, url.QueryEscape(postURL))

	var embed oembedResponse
	if err := f.getJSON(ctx, endpoint, &embed); err != nil {
		return "", fmt.Errorf("fetch oembed: %w", err)
	}

	if embed.HTML != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(embed.HTML))
		if err == nil {
			var parts []string
			doc.Find("blockquote").First().Find("p").Each(func(_ int, s *goquery.Selection) {
				parts = append(parts, s.Text())
			})
			if text := strings.TrimSpace(strings.Join(parts, " ")); text != "" {
				return text, nil
			}
		}
	}

	if embed.AuthorName != "" {
		return fmt.Sprintf("Post by %s", embed.AuthorName), nil
	}

	return "", fmt.Errorf("oembed response had no usable text")
}

// metaSelectors is the fallback chain for generic pages, densest signal first.
var metaSelectors = []string{
	`meta[property="og:description"]`,
	`meta[name="twitter:description"]`,
	`meta[name="description"]`,
	`meta[property="og:title"]`,
}

// fetchGeneric scrapes preview metadata from an arbitrary page.
func (f *Fetcher) fetchGeneric(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	for _, sel := range metaSelectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if text := strings.TrimSpace(content); text != "" {
				return f.truncate(text), nil
			}
		}
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return f.truncate(title), nil
	}

	// No preview metadata at all; extract readable body text as a last resort.
	if article, err := readability.FromReader(bytes.NewReader(body), parsedURL); err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return f.truncate(text), nil
		}
	}

	return "", fmt.Errorf("no descriptive text found")
}

func (f *Fetcher) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate caps s at maxContentLen runes, never cutting mid-rune.
func (f *Fetcher) truncate(s string) string {
	if utf8.RuneCountInString(s) > f.maxContentLen {
		return string([]rune(s)[:f.maxContentLen])
	}
	return s
}
