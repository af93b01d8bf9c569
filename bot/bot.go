// Package bot handles incoming Telegram messages and commands for the
// capture bot.
package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"notion-capture-bot/metrics"
)

// defaultRecentLimit is how many captures /recent shows without an argument.
const defaultRecentLimit = 5

// recapWindow is how far back the daily recap looks.
const recapWindow = 24 * time.Hour

// MessageSender sends messages to Telegram.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, html bool) error
}

// CaptureProcessor runs a message through the capture pipeline.
type CaptureProcessor interface {
	Process(ctx context.Context, text string) (*CaptureOutcome, error)
}

// SettingsStore manages persistent settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// CaptureLister reads back logged captures.
type CaptureLister interface {
	RecentCaptures(ctx context.Context, limit int) ([]CaptureEntry, error)
	CapturesSince(ctx context.Context, cutoff time.Time) ([]CaptureEntry, error)
	CountCaptures(ctx context.Context) (int, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
}

// CaptureOutcome is the result of a processed capture.
type CaptureOutcome struct {
	Title    string
	Category string
}

// CaptureEntry is a logged capture as shown in chat commands.
type CaptureEntry struct {
	Title    string
	Category string
	AddedAt  time.Time
}

// CategoryCount is a per-category capture tally.
type CategoryCount struct {
	Category string
	Count    int
}

// Handler dispatches incoming messages to the capture pipeline or a command.
type Handler struct {
	sender    MessageSender
	processor CaptureProcessor
	settings  SettingsStore
	captures  CaptureLister
}

// NewHandler creates a message handler.
func NewHandler(sender MessageSender, processor CaptureProcessor, settings SettingsStore, captures CaptureLister) *Handler {
	return &Handler{
		sender:    sender,
		processor: processor,
		settings:  settings,
		captures:  captures,
	}
}

// HandleMessage processes one incoming text message.
func (h *Handler) HandleMessage(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	switch {
	case text == "/start":
		h.handleStart(ctx, chatID)
	case text == "/stats":
		h.handleStats(ctx, chatID)
	case text == "/recap":
		h.SendRecap(ctx, chatID)
	case text == "/recent" || strings.HasPrefix(text, "/recent "):
		h.handleRecent(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/recent")))
	case strings.HasPrefix(text, "/"):
		h.send(ctx, chatID, "Unknown command. Send a link or some text to capture it, or /start for help.")
	default:
		h.handleCapture(ctx, chatID, text)
	}
}

func (h *Handler) handleCapture(ctx context.Context, chatID int64, text string) {
	metrics.MessagesProcessed.Inc()
	slog.Info("processing capture", "chat_id", chatID, "text", truncateForLog(text))

	h.send(ctx, chatID, "⏳ Processing...")

	outcome, err := h.processor.Process(ctx, text)
	if err != nil {
		h.send(ctx, chatID, fmt.Sprintf("❌ Failed to save to Notion:\n%s", err))
		return
	}

	h.send(ctx, chatID, fmt.Sprintf("✅ Saved to Notion\nTitle: %s\nCategory: %s",
		outcome.Title, outcome.Category))
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) {
	if err := h.settings.SetSetting(ctx, "chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		slog.Warn("failed to save chat_id", "error", err)
	}

	msg := "Welcome to the Notion Capture Bot! 📥\n\n" +
		"Send me a link (with or without a note) or any text, and I'll file it " +
		"into your Notion database with a title and category.\n\n" +
		"Commands:\n" +
		"/recent [n] - Show the latest captures\n" +
		"/stats - Captures per category\n" +
		"/recap - Recap of the last 24 hours"

	h.send(ctx, chatID, msg)
}

func (h *Handler) handleRecent(ctx context.Context, chatID int64, arg string) {
	limit := defaultRecentLimit
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > 50 {
			h.send(ctx, chatID, "Usage: /recent [n] where n is between 1 and 50.")
			return
		}
		limit = n
	}

	entries, err := h.captures.RecentCaptures(ctx, limit)
	if err != nil {
		slog.Warn("failed to list recent captures", "error", err)
		h.send(ctx, chatID, "Failed to read the capture log.")
		return
	}

	if len(entries) == 0 {
		h.send(ctx, chatID, "Nothing captured yet. Send me a link to get started!")
		return
	}

	h.sendHTML(ctx, chatID, FormatCaptureList("🕘 Recent captures:", entries))
}

func (h *Handler) handleStats(ctx context.Context, chatID int64) {
	total, err := h.captures.CountCaptures(ctx)
	if err != nil {
		slog.Warn("failed to count captures", "error", err)
		h.send(ctx, chatID, "Failed to read the capture log.")
		return
	}

	if total == 0 {
		h.send(ctx, chatID, "Nothing captured yet. Send me a link to get started!")
		return
	}

	counts, err := h.captures.CategoryCounts(ctx)
	if err != nil {
		slog.Warn("failed to get category counts", "error", err)
		h.send(ctx, chatID, "Failed to read the capture log.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Captures by category:\n\n")
	for _, cc := range counts {
		sb.WriteString(fmt.Sprintf("%s: %d\n", cc.Category, cc.Count))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d", total))

	h.send(ctx, chatID, sb.String())
}

// SendRecap sends a summary of the last day's captures. Used by the /recap
// command and the daily scheduled job.
func (h *Handler) SendRecap(ctx context.Context, chatID int64) {
	entries, err := h.captures.CapturesSince(ctx, time.Now().UTC().Add(-recapWindow))
	if err != nil {
		slog.Warn("failed to build recap", "error", err)
		h.send(ctx, chatID, "Failed to read the capture log.")
		return
	}

	if len(entries) == 0 {
		h.send(ctx, chatID, "No captures in the last 24 hours.")
		return
	}

	header := fmt.Sprintf("🗞 %d captured in the last 24 hours:", len(entries))
	h.sendHTML(ctx, chatID, FormatCaptureList(header, entries))
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text, false); err != nil {
		slog.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) sendHTML(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text, true); err != nil {
		slog.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

// FormatCaptureList renders a header plus one line per capture, HTML-escaped.
func FormatCaptureList(header string, entries []CaptureEntry) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("\n• <b>%s</b> [%s]",
			html.EscapeString(e.Title), html.EscapeString(e.Category)))
	}
	return sb.String()
}

func truncateForLog(s string) string {
	const max = 100
	if utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max]) + "..."
	}
	return s
}
