package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type sentMessage struct {
	chatID int64
	text   string
	html   bool
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string, html bool) error {
	f.sent = append(f.sent, sentMessage{chatID, text, html})
	return nil
}

type fakeProcessor struct {
	outcome *CaptureOutcome
	err     error
	gotText string
	calls   int
}

func (f *fakeProcessor) Process(_ context.Context, text string) (*CaptureOutcome, error) {
	f.calls++
	f.gotText = text
	return f.outcome, f.err
}

type fakeSettings struct {
	values map[string]string
}

func (f *fakeSettings) GetSetting(_ context.Context, key string) (string, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (f *fakeSettings) SetSetting(_ context.Context, key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

type fakeCaptures struct {
	entries []CaptureEntry
	counts  []CategoryCount
	total   int
	err     error
}

func (f *fakeCaptures) RecentCaptures(_ context.Context, limit int) ([]CaptureEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeCaptures) CapturesSince(_ context.Context, _ time.Time) ([]CaptureEntry, error) {
	return f.entries, f.err
}

func (f *fakeCaptures) CountCaptures(_ context.Context) (int, error) {
	return f.total, f.err
}

func (f *fakeCaptures) CategoryCounts(_ context.Context) ([]CategoryCount, error) {
	return f.counts, f.err
}

func newTestHandler(sender *fakeSender, processor *fakeProcessor, captures *fakeCaptures) *Handler {
	return NewHandler(sender, processor, &fakeSettings{}, captures)
}

func TestHandleCaptureSuccess(t *testing.T) {
	sender := &fakeSender{}
	processor := &fakeProcessor{outcome: &CaptureOutcome{Title: "Hello", Category: "Good Design"}}
	h := newTestHandler(sender, processor, &fakeCaptures{})

	h.HandleMessage(context.Background(), 42, "Hello https://example.com")

	if processor.gotText != "Hello https://example.com" {
		t.Errorf("processed text = %q", processor.gotText)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("got %d messages, want ack + confirmation", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].text, "Processing") {
		t.Errorf("first message = %q, want processing ack", sender.sent[0].text)
	}
	confirmation := sender.sent[1].text
	if !strings.Contains(confirmation, "✅") ||
		!strings.Contains(confirmation, "Title: Hello") ||
		!strings.Contains(confirmation, "Category: Good Design") {
		t.Errorf("confirmation = %q", confirmation)
	}
}

func TestHandleCaptureFailure(t *testing.T) {
	sender := &fakeSender{}
	processor := &fakeProcessor{err: errors.New("save to Notion: database is archived")}
	h := newTestHandler(sender, processor, &fakeCaptures{})

	h.HandleMessage(context.Background(), 42, "https://example.com")

	last := sender.sent[len(sender.sent)-1].text
	if !strings.Contains(last, "❌") || !strings.Contains(last, "database is archived") {
		t.Errorf("failure message = %q, want the error surfaced verbatim", last)
	}
}

func TestHandleStart(t *testing.T) {
	sender := &fakeSender{}
	settings := &fakeSettings{}
	h := NewHandler(sender, &fakeProcessor{}, settings, &fakeCaptures{})

	h.HandleMessage(context.Background(), 42, "/start")

	if settings.values["chat_id"] != "42" {
		t.Errorf("chat_id setting = %q, want '42'", settings.values["chat_id"])
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "Welcome") {
		t.Errorf("sent = %+v, want a welcome message", sender.sent)
	}
}

func TestHandleRecent(t *testing.T) {
	sender := &fakeSender{}
	captures := &fakeCaptures{entries: []CaptureEntry{
		{Title: "One", Category: "Fitness"},
		{Title: "Two", Category: "Good Design"},
	}}
	h := newTestHandler(sender, &fakeProcessor{}, captures)

	h.HandleMessage(context.Background(), 42, "/recent")

	if len(sender.sent) != 1 {
		t.Fatalf("got %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if !msg.html {
		t.Error("capture list should be sent as HTML")
	}
	if !strings.Contains(msg.text, "One") || !strings.Contains(msg.text, "[Fitness]") {
		t.Errorf("message = %q", msg.text)
	}
}

func TestHandleRecentBadArgument(t *testing.T) {
	sender := &fakeSender{}
	h := newTestHandler(sender, &fakeProcessor{}, &fakeCaptures{})

	h.HandleMessage(context.Background(), 42, "/recent nope")

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "Usage") {
		t.Errorf("sent = %+v, want usage hint", sender.sent)
	}
}

func TestHandleRecentEmpty(t *testing.T) {
	sender := &fakeSender{}
	h := newTestHandler(sender, &fakeProcessor{}, &fakeCaptures{})

	h.HandleMessage(context.Background(), 42, "/recent")

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "Nothing captured yet") {
		t.Errorf("sent = %+v", sender.sent)
	}
}

func TestHandleStats(t *testing.T) {
	sender := &fakeSender{}
	captures := &fakeCaptures{
		total: 5,
		counts: []CategoryCount{
			{Category: "Good Design", Count: 3},
			{Category: "Fitness", Count: 2},
		},
	}
	h := newTestHandler(sender, &fakeProcessor{}, captures)

	h.HandleMessage(context.Background(), 42, "/stats")

	msg := sender.sent[0].text
	if !strings.Contains(msg, "Good Design: 3") || !strings.Contains(msg, "Total: 5") {
		t.Errorf("stats message = %q", msg)
	}
}

func TestHandleRecap(t *testing.T) {
	sender := &fakeSender{}
	captures := &fakeCaptures{entries: []CaptureEntry{
		{Title: "One", Category: "Fitness"},
	}}
	h := newTestHandler(sender, &fakeProcessor{}, captures)

	h.HandleMessage(context.Background(), 42, "/recap")

	msg := sender.sent[0].text
	if !strings.Contains(msg, "1 captured in the last 24 hours") {
		t.Errorf("recap message = %q", msg)
	}
}

func TestHandleRecapEmpty(t *testing.T) {
	sender := &fakeSender{}
	h := newTestHandler(sender, &fakeProcessor{}, &fakeCaptures{})

	h.HandleMessage(context.Background(), 42, "/recap")

	if !strings.Contains(sender.sent[0].text, "No captures") {
		t.Errorf("recap message = %q", sender.sent[0].text)
	}
}

func TestHandleRecentPrefixNotClaimed(t *testing.T) {
	sender := &fakeSender{}
	processor := &fakeProcessor{}
	h := newTestHandler(sender, processor, &fakeCaptures{entries: []CaptureEntry{
		{Title: "One", Category: "Fitness"},
	}})

	h.HandleMessage(context.Background(), 42, "/recentfoo")

	if processor.calls != 0 {
		t.Error("unknown command should not reach the pipeline")
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "Unknown command") {
		t.Errorf("sent = %+v, want the unknown-command reply", sender.sent)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	sender := &fakeSender{}
	processor := &fakeProcessor{}
	h := newTestHandler(sender, processor, &fakeCaptures{})

	h.HandleMessage(context.Background(), 42, "/bogus")

	if processor.calls != 0 {
		t.Error("unknown command should not reach the pipeline")
	}
	if !strings.Contains(sender.sent[0].text, "Unknown command") {
		t.Errorf("sent = %q", sender.sent[0].text)
	}
}

func TestHandleEmptyMessageIgnored(t *testing.T) {
	sender := &fakeSender{}
	processor := &fakeProcessor{}
	h := newTestHandler(sender, processor, &fakeCaptures{})

	h.HandleMessage(context.Background(), 42, "   ")

	if processor.calls != 0 || len(sender.sent) != 0 {
		t.Error("blank message should be ignored")
	}
}

func TestTruncateForLogKeepsWholeRunes(t *testing.T) {
	long := strings.Repeat("汉", 150)

	got := truncateForLog(long)

	if got != strings.Repeat("汉", 100)+"..." {
		t.Errorf("truncateForLog = %q, want 100 whole runes plus ellipsis", got)
	}
}

func TestFormatCaptureListEscapesHTML(t *testing.T) {
	entries := []CaptureEntry{{Title: "<script>alert(1)</script>", Category: "A&B"}}

	got := FormatCaptureList("header", entries)

	if strings.Contains(got, "<script>") {
		t.Error("title should be HTML-escaped")
	}
	if !strings.Contains(got, "&amp;") {
		t.Error("category should be HTML-escaped")
	}
}
