// Package pipeline orchestrates a single capture: parse the message, fetch
// descriptive text when needed, enrich it into a title/category pair, and hand
// the finished record to the persistence collaborator.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"notion-capture-bot/enricher"
	"notion-capture-bot/metrics"
	"notion-capture-bot/parser"
)

// CaptureRecord is the final structured output of one processed message.
// Immutable after construction.
type CaptureRecord struct {
	Title     string
	Category  string
	Content   string
	AddedTime time.Time
}

// Outcome summarizes a processed capture for the confirmation message.
type Outcome struct {
	Title    string
	Category string
	Content  string
}

// ContentFetcher returns best-effort descriptive text for a URL.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Enricher produces validated titles and categories from text.
type Enricher interface {
	Categorize(ctx context.Context, title string) (string, error)
	TitleAndCategorize(ctx context.Context, content, url string) (string, string, error)
}

// Recorder persists finished capture records.
type Recorder interface {
	CreatePage(ctx context.Context, record *CaptureRecord) error
}

// CaptureLog records captures locally for chat commands and recaps.
// Log failures never affect the capture outcome.
type CaptureLog interface {
	SaveCapture(ctx context.Context, record *CaptureRecord) error
}

// Runner executes the capture pipeline.
type Runner struct {
	fetcher         ContentFetcher
	enricher        Enricher
	recorder        Recorder
	captureLog      CaptureLog
	defaultCategory string
	now             func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCaptureLog attaches a local capture log.
func WithCaptureLog(log CaptureLog) RunnerOption {
	return func(r *Runner) {
		r.captureLog = log
	}
}

// WithDefaultCategory sets the category used when enrichment fails outright.
func WithDefaultCategory(c string) RunnerOption {
	return func(r *Runner) {
		r.defaultCategory = c
	}
}

// WithClock overrides the record timestamp source (for testing).
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a capture pipeline runner.
func NewRunner(fetcher ContentFetcher, enrich Enricher, recorder Recorder, opts ...RunnerOption) *Runner {
	r := &Runner{
		fetcher:         fetcher,
		enricher:        enrich,
		recorder:        recorder,
		defaultCategory: enricher.DefaultDomain.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process runs one message through the pipeline. Every enrichment or fetch
// failure degrades to a default; only a persistence failure is returned, and
// it is surfaced verbatim to the caller.
func (r *Runner) Process(ctx context.Context, text string) (*Outcome, error) {
	parsed := parser.Parse(text)
	slog.Info("message parsed", "intent", parsed.Intent.String(), "url", parsed.URL)

	var title, category, content string

	switch parsed.Intent {
	case parser.TitledLink:
		title = parsed.Title
		category = r.categorize(ctx, title)
		content = parsed.URL

	case parser.BareLink:
		fetched, err := r.fetcher.Fetch(ctx, parsed.URL)
		if err != nil {
			metrics.FetchFailures.Inc()
			slog.Warn("content fetch failed, degrading to URL hint",
				"url", parsed.URL, "error", err)
			fetched = "URL: " + parsed.URL
		}
		title, category = r.titleAndCategorize(ctx, fetched, parsed.URL)
		content = parsed.URL

	case parser.PlainText:
		title, category = r.titleAndCategorize(ctx, text, "")
		content = text
	}

	record := &CaptureRecord{
		Title:     title,
		Category:  category,
		Content:   content,
		AddedTime: r.now().UTC(),
	}

	if err := r.recorder.CreatePage(ctx, record); err != nil {
		metrics.PersistFailures.Inc()
		return nil, fmt.Errorf("save to Notion: %w", err)
	}
	metrics.CapturesSaved.Inc()

	if r.captureLog != nil {
		if err := r.captureLog.SaveCapture(ctx, record); err != nil {
			slog.Warn("capture log write failed", "title", record.Title, "error", err)
		}
	}

	return &Outcome{Title: record.Title, Category: record.Category, Content: record.Content}, nil
}

func (r *Runner) categorize(ctx context.Context, title string) string {
	category, err := r.enricher.Categorize(ctx, title)
	if err != nil {
		metrics.EnrichFallbacks.Inc()
		slog.Warn("categorize failed, using default",
			"title", truncateForLog(title), "error", err)
		return r.defaultCategory
	}
	return category
}

func (r *Runner) titleAndCategorize(ctx context.Context, content, url string) (string, string) {
	title, category, err := r.enricher.TitleAndCategorize(ctx, content, url)
	if err != nil {
		metrics.EnrichFallbacks.Inc()
		slog.Warn("title/categorize failed, using defaults",
			"content", truncateForLog(content), "error", err)
		return enricher.DefaultTitle, r.defaultCategory
	}
	return title, category
}

func truncateForLog(s string) string {
	const max = 100
	if utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max]) + "..."
	}
	return s
}
