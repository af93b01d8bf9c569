// Package enricher turns titles and fetched page text into a validated
// title/category pair using a language-model completion API.
//
// The model's output is treated as untrusted free text: responses are parsed
// line-by-line and categories are repaired against the closed domain, so
// formatting drift degrades individual fields instead of failing a capture.
package enricher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultModel   = "claude-sonnet-4-20250514"
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"

	// maxPromptContent bounds how much fetched text goes into a prompt.
	maxPromptContent = 2000

	categorizeMaxTokens = 50
	titleMaxTokens      = 200
)

// DefaultTitle is used when the model response carries no usable title line.
const DefaultTitle = "Untitled"

// Enricher classifies content via the Anthropic messages API.
type Enricher struct {
	apiKey     string
	model      string
	baseURL    string
	domain     Domain
	httpClient *http.Client
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithModel sets the model to use.
func WithModel(model string) Option {
	return func(e *Enricher) {
		e.model = model
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(e *Enricher) {
		e.baseURL = u
	}
}

// WithDomain sets the category domain.
func WithDomain(d Domain) Option {
	return func(e *Enricher) {
		e.domain = d
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		e.httpClient.Timeout = d
	}
}

// NewEnricher creates a new model-backed enricher.
func NewEnricher(apiKey string, opts ...Option) *Enricher {
	e := &Enricher{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		domain:     DefaultDomain,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Domain returns the category domain the enricher validates against.
func (e *Enricher) Domain() Domain {
	return e.domain
}

// Categorize assigns a domain category to an already-known title.
// The raw answer is repaired against the domain before being returned.
func (e *Enricher) Categorize(ctx context.Context, title string) (string, error) {
	prompt := fmt.Sprintf(`Based on this title, assign ONE category from this list:
%s

Title: %s

Respond with ONLY the category name exactly as shown above, nothing else.`, e.categoryList(), title)

	raw, err := e.complete(ctx, prompt, categorizeMaxTokens)
	if err != nil {
		return "", err
	}

	return e.domain.Repair(raw), nil
}

// TitleAndCategorize derives both a title and a category from fetched or
// plain-text content. Content is truncated before prompting to bound cost.
func (e *Enricher) TitleAndCategorize(ctx context.Context, content, url string) (string, string, error) {
	// Rune count, not bytes: Chinese content would otherwise get a third of
	// the intended window and a mangled trailing rune.
	if utf8.RuneCountInString(content) > maxPromptContent {
		content = string([]rune(content)[:maxPromptContent]) + "..."
	}

	sourceLine := ""
	if url != "" {
		sourceLine = "\nURL: " + url
	}

	prompt := fmt.Sprintf(`Based on this content, provide:
1. A concise title (under 50 characters, match the source language - if content is Chinese, title should be Chinese)
2. A category from this list ONLY:
%s
%s
Content: %s

Respond in this exact format (two lines only):
TITLE: [your title here]
CATEGORY: [category exactly as shown above]`, e.categoryList(), sourceLine, content)

	raw, err := e.complete(ctx, prompt, titleMaxTokens)
	if err != nil {
		return "", "", err
	}

	title, category := parseTitleCategory(raw, e.domain)
	return title, category, nil
}

func (e *Enricher) categoryList() string {
	var sb strings.Builder
	for i, c := range e.domain {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(c)
	}
	return sb.String()
}

// Anthropic messages API types

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// complete sends a single-user-message completion request and returns the
// trimmed text of the first content block.
func (e *Enricher) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := messagesRequest{
		Model:     e.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(msgResp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return strings.TrimSpace(msgResp.Content[0].Text), nil
}
