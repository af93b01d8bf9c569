package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notion-capture-bot/bot"
	"notion-capture-bot/config"
	"notion-capture-bot/enricher"
	"notion-capture-bot/fetcher"
	"notion-capture-bot/notion"
	"notion-capture-bot/pipeline"
	"notion-capture-bot/scheduler"
	"notion-capture-bot/storage"
)

func main() {
	// Set up structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("starting Notion Capture Bot")

	// Load .env if present, then config with env overrides
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	slog.Info("config loaded", "path", configPath)

	// Initialize capture log
	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database initialized", "path", cfg.DBPath)

	// Initialize Telegram bot
	tgBot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		slog.Error("failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}
	slog.Info("telegram bot initialized", "username", tgBot.Self.UserName)

	// Category domain: config override or the built-in closed set
	domain := enricher.DefaultDomain
	if len(cfg.Categories) > 0 {
		domain = enricher.Domain(cfg.Categories)
	}

	// Initialize pipeline components
	contentFetcher := fetcher.NewFetcher(
		fetcher.WithTimeout(time.Duration(cfg.FetchTimeoutSecs) * time.Second),
	)
	contentEnricher := enricher.NewEnricher(
		cfg.AnthropicAPIKey,
		enricher.WithModel(cfg.AnthropicModel),
		enricher.WithDomain(domain),
		enricher.WithTimeout(time.Duration(cfg.LLMTimeoutSecs)*time.Second),
	)
	notionClient := notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID)

	runner := pipeline.NewRunner(
		contentFetcher,
		contentEnricher,
		notionClient,
		pipeline.WithCaptureLog(&captureLogAdapter{db}),
		pipeline.WithDefaultCategory(domain.Default()),
	)

	handler := bot.NewHandler(
		&telegramSender{tgBot},
		&processorAdapter{runner},
		db,
		&captureLogAdapter{db},
	)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional metrics endpoint
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	// Optional daily recap
	if cfg.RecapTime != "" {
		sched, err := scheduler.NewScheduler(cfg.Timezone)
		if err != nil {
			slog.Error("failed to initialize scheduler", "timezone", cfg.Timezone, "error", err)
			os.Exit(1)
		}
		if err := sched.Schedule(cfg.RecapTime, func() {
			recapCtx, recapCancel := context.WithTimeout(context.Background(), time.Minute)
			defer recapCancel()
			sendRecap(recapCtx, db, handler)
		}); err != nil {
			slog.Error("failed to schedule recap", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
		slog.Info("recap scheduled", "time", cfg.RecapTime, "timezone", cfg.Timezone)
	}

	// Run the polling loop
	slog.Info("starting bot polling")
	run(ctx, tgBot, handler)
	slog.Info("bot stopped")
}

// run consumes Telegram updates until the context is cancelled. Each message
// is handled in its own goroutine; messages carry no shared state.
func run(ctx context.Context, tgBot *tgbotapi.BotAPI, handler *bot.Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := tgBot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			tgBot.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			chatID := update.Message.Chat.ID
			text := update.Message.Text
			go handler.HandleMessage(ctx, chatID, text)
		}
	}
}

// sendRecap resolves the bound chat and sends the daily recap to it.
func sendRecap(ctx context.Context, db *storage.DB, handler *bot.Handler) {
	chatIDStr, err := db.GetSetting(ctx, "chat_id")
	if err != nil {
		slog.Warn("cannot send recap: no chat bound, send /start first", "error", err)
		return
	}
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		slog.Warn("cannot send recap: bad chat_id setting", "value", chatIDStr)
		return
	}
	handler.SendRecap(ctx, chatID)
}

// Adapter types bridging concrete clients to the bot and pipeline interfaces.

type telegramSender struct {
	bot *tgbotapi.BotAPI
}

func (t *telegramSender) SendMessage(_ context.Context, chatID int64, text string, asHTML bool) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if asHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	_, err := t.bot.Send(msg)
	return err
}

type processorAdapter struct {
	runner *pipeline.Runner
}

func (p *processorAdapter) Process(ctx context.Context, text string) (*bot.CaptureOutcome, error) {
	outcome, err := p.runner.Process(ctx, text)
	if err != nil {
		return nil, err
	}
	return &bot.CaptureOutcome{Title: outcome.Title, Category: outcome.Category}, nil
}

type captureLogAdapter struct {
	db *storage.DB
}

func (c *captureLogAdapter) SaveCapture(ctx context.Context, record *pipeline.CaptureRecord) error {
	return c.db.SaveCapture(ctx, &storage.Capture{
		Title:    record.Title,
		Category: record.Category,
		Content:  record.Content,
		AddedAt:  record.AddedTime,
	})
}

func (c *captureLogAdapter) RecentCaptures(ctx context.Context, limit int) ([]bot.CaptureEntry, error) {
	captures, err := c.db.RecentCaptures(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toEntries(captures), nil
}

func (c *captureLogAdapter) CapturesSince(ctx context.Context, cutoff time.Time) ([]bot.CaptureEntry, error) {
	captures, err := c.db.CapturesSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return toEntries(captures), nil
}

func (c *captureLogAdapter) CountCaptures(ctx context.Context) (int, error) {
	return c.db.CountCaptures(ctx)
}

func (c *captureLogAdapter) CategoryCounts(ctx context.Context) ([]bot.CategoryCount, error) {
	counts, err := c.db.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]bot.CategoryCount, 0, len(counts))
	for _, cc := range counts {
		out = append(out, bot.CategoryCount{Category: cc.Category, Count: cc.Count})
	}
	return out, nil
}

func toEntries(captures []storage.Capture) []bot.CaptureEntry {
	entries := make([]bot.CaptureEntry, 0, len(captures))
	for _, c := range captures {
		entries = append(entries, bot.CaptureEntry{
			Title:    c.Title,
			Category: c.Category,
			AddedAt:  c.AddedAt,
		})
	}
	return entries
}
