// Package notion is a minimal client for the Notion pages API, covering the
// single record-creation call the pipeline needs.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notion-capture-bot/pipeline"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Client creates pages in a single Notion database.
type Client struct {
	token      string
	databaseID string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a Notion client bound to one database.
func NewClient(token, databaseID string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		databaseID: databaseID,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notion pages API payload types. Only the properties this database uses.

type createPageRequest struct {
	Parent     parentRef           `json:"parent"`
	Properties map[string]property `json:"properties"`
}

type parentRef struct {
	DatabaseID string `json:"database_id"`
}

type property struct {
	Title    []richText `json:"title,omitempty"`
	RichText []richText `json:"rich_text,omitempty"`
	Select   *selectRef `json:"select,omitempty"`
	Date     *dateRef   `json:"date,omitempty"`
}

type richText struct {
	Text textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

type selectRef struct {
	Name string `json:"name"`
}

type dateRef struct {
	Start string `json:"start"`
}

// CreatePage persists a capture record as a new page in the database.
func (c *Client) CreatePage(ctx context.Context, record *pipeline.CaptureRecord) error {
	props := map[string]property{
		"Title": {
			Title: []richText{{Text: textContent{Content: record.Title}}},
		},
		"Category": {
			Select: &selectRef{Name: record.Category},
		},
		"Added Time": {
			Date: &dateRef{Start: record.AddedTime.Format(time.RFC3339)},
		},
	}
	if record.Content != "" {
		props["Content"] = property{
			RichText: []richText{{Text: textContent{Content: record.Content}}},
		}
	}

	reqBody := createPageRequest{
		Parent:     parentRef{DatabaseID: c.databaseID},
		Properties: props,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/pages", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, apiErrorMessage(resp.Body))
	}

	return nil
}

// apiErrorMessage pulls the message field out of a Notion error body so
// failures surface something more useful than a bare status code.
func apiErrorMessage(body io.Reader) string {
	var errResp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&errResp); err != nil || errResp.Message == "" {
		return "unknown error"
	}
	return errResp.Message
}
