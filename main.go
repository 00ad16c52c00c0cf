package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"threadhub/bot"
	"threadhub/community"
	"threadhub/config"
	"threadhub/digest"
	"threadhub/feed"
	"threadhub/metrics"
	"threadhub/post"
	"threadhub/scheduler"
	"threadhub/scraper"
	"threadhub/seed"
	"threadhub/storage"
	"threadhub/topic"
)

const (
	digestJob   = "digest"
	trendingJob = "trending"
)

func main() {
	// Set up structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("starting ThreadHub")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	// Load configuration
	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.Info("config loaded", "path", configPath, "storage", cfg.Storage)

	// Initialize storage
	store, err := storage.Open(cfg.Storage, cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "backend", cfg.Storage, "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "backend", cfg.Storage)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	data, err := seed.Load(cfg.SeedDir)
	if err != nil {
		slog.Error("failed to load seed data", "dir", cfg.SeedDir, "error", err)
		os.Exit(1)
	}
	if err := importPosts(ctx, store, data, cfg); err != nil {
		slog.Error("failed to import posts", "error", err)
		os.Exit(1)
	}

	communities := community.NewDirectory(data.Communities)
	topics := topic.NewBoard(data.Topics)
	recorder := metrics.NewRecorder()

	feedOpts := []feed.Option{
		feed.WithLatency(cfg.Latency()),
		feed.WithPageSize(cfg.PageSize),
		feed.WithObserver(recorder),
	}
	if cfg.LinkPreviews {
		previewScraper := scraper.NewScraper(scraper.WithTimeout(cfg.FetchTimeout()))
		feedOpts = append(feedOpts, feed.WithPreviewer(&previewAdapter{previewScraper}))
	}
	feedService := feed.NewService(store, feedOpts...)

	// Initialize Telegram bot
	tgBot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		slog.Error("failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}
	slog.Info("telegram bot initialized", "username", tgBot.Self.UserName)

	// Initialize scheduler
	sched, err := scheduler.NewScheduler(cfg.Timezone)
	if err != nil {
		slog.Error("failed to initialize scheduler", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	app := &App{
		cfg:       cfg,
		store:     store,
		feed:      feedService,
		topics:    topics,
		tgBot:     tgBot,
		scheduler: sched,
	}
	app.handler = bot.NewCommandHandler(
		app,
		feedService,
		communities,
		topics,
		store,
		bot.WithScheduleUpdater(app),
		bot.WithDigestTrigger(app),
		bot.WithDigestDefaults(cfg.DigestTime, cfg.DigestCount),
	)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Schedule daily digest and trending refresh
	digestTime := cfg.DigestTime
	if storedTime, err := store.GetSetting(ctx, bot.SettingDigestTime); err == nil {
		digestTime = storedTime
	}
	if err := app.Reschedule(digestTime); err != nil {
		slog.Error("failed to schedule digest", "error", err)
		os.Exit(1)
	}

	app.refreshTopics(ctx)
	if err := sched.Every(trendingJob, cfg.TrendingRefresh, func() {
		app.refreshTopics(context.Background())
	}); err != nil {
		slog.Error("failed to schedule trending refresh", "error", err)
		os.Exit(1)
	}

	sched.Start()
	defer sched.Stop()
	if next, ok := sched.Next(digestJob); ok {
		slog.Info("digest scheduled", "time", digestTime, "timezone", cfg.Timezone, "next_run", next)
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, recorder)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	// Run the bot
	slog.Info("starting bot polling")
	app.run(ctx)
	slog.Info("bot stopped")
}

// importPosts fills an empty store with the fixtures and any generated
// posts. A store that already holds posts is left alone.
func importPosts(ctx context.Context, store storage.Store, data *seed.Data, cfg *config.Config) error {
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("store already populated, skipping seed", "posts", len(existing))
		return nil
	}

	now := time.Now().UTC()
	posts := data.Posts
	if !cfg.KeepSeedDates {
		seed.Rebase(posts, now)
	}
	if err := store.Import(ctx, posts); err != nil {
		return err
	}

	var lastID int64
	for _, p := range posts {
		lastID = max(lastID, p.ID)
	}

	if cfg.FakePosts > 0 {
		names := make([]string, 0, len(data.Communities))
		for _, c := range data.Communities {
			names = append(names, c.Name)
		}
		fake := seed.FakePosts(cfg.FakePosts, cfg.FakeSeed, lastID, names, now)
		if err := store.Import(ctx, fake); err != nil {
			return err
		}
	}

	slog.Info("seeded posts", "fixtures", len(posts), "generated", cfg.FakePosts)
	return nil
}

func serveMetrics(addr string, recorder *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

// App holds all application dependencies.
type App struct {
	cfg       *config.Config
	store     storage.Store
	feed      *feed.Service
	topics    *topic.Board
	tgBot     *tgbotapi.BotAPI
	scheduler *scheduler.Scheduler
	handler   *bot.CommandHandler
}

func (a *App) run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := a.tgBot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.tgBot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			a.handleUpdate(ctx, &update)
		}
	}
}

func (a *App) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	if update.Message != nil {
		a.handleMessage(ctx, update.Message)
	}
	if update.CallbackQuery != nil {
		a.handleCallback(ctx, update.CallbackQuery)
	}
}

func (a *App) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Text == "" {
		return
	}

	in := bot.Incoming{ChatID: msg.Chat.ID, Text: msg.Text}
	if msg.From != nil {
		in.UserID = msg.From.ID
		in.Username = msg.From.UserName
	}

	slog.Info("received message", "chat_id", in.ChatID, "text", in.Text)

	if err := a.handler.Handle(ctx, in); err != nil {
		slog.Warn("failed to handle message", "chat_id", in.ChatID, "text", in.Text, "error", err)
		if ctx.Err() == nil {
			a.SendMessage(ctx, in.ChatID, bot.Message{Text: "Something went wrong, please try again."})
		}
	}
}

func (a *App) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	notice := ""
	if cq.Message != nil {
		var err error
		notice, err = a.handler.HandleCallback(ctx, cq.Message.Chat.ID, int64(cq.Message.MessageID), cq.Data)
		if err != nil {
			slog.Warn("failed to handle callback", "data", cq.Data, "error", err)
			notice = "Something went wrong"
		}
	}

	if _, err := a.tgBot.Request(tgbotapi.NewCallback(cq.ID, notice)); err != nil {
		slog.Warn("failed to answer callback", "callback_id", cq.ID, "error", err)
	}
}

// SendMessage implements bot.MessageSender.
func (a *App) SendMessage(ctx context.Context, chatID int64, m bot.Message) (int64, error) {
	msg := tgbotapi.NewMessage(chatID, m.Text)
	if m.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if len(m.Buttons) > 0 {
		msg.ReplyMarkup = keyboard(m.Buttons)
	}

	sent, err := a.tgBot.Send(msg)
	if err != nil {
		slog.Warn("failed to send message", "chat_id", chatID, "error", err)
		return 0, err
	}
	return int64(sent.MessageID), nil
}

// EditMessage implements bot.MessageSender.
func (a *App) EditMessage(ctx context.Context, chatID, messageID int64, m bot.Message) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, int(messageID), m.Text, keyboard(m.Buttons))
	if m.HTML {
		edit.ParseMode = tgbotapi.ModeHTML
	}

	if _, err := a.tgBot.Send(edit); err != nil {
		slog.Warn("failed to edit message", "chat_id", chatID, "message_id", messageID, "error", err)
		return err
	}
	return nil
}

// Reschedule implements bot.ScheduleUpdater.
func (a *App) Reschedule(timeStr string) error {
	return a.scheduler.Daily(digestJob, timeStr, func() {
		if _, err := a.TriggerDigest(context.Background(), a.cfg.ChatID); err != nil {
			slog.Error("digest run failed", "error", err)
		}
	})
}

// TriggerDigest implements bot.DigestTrigger. A zero chatID falls back to
// the stored chat_id setting.
func (a *App) TriggerDigest(ctx context.Context, chatID int64) (int, error) {
	postCount := a.cfg.DigestCount
	if stored, err := a.store.GetSetting(ctx, bot.SettingDigestCount); err == nil {
		if n, err := strconv.Atoi(stored); err == nil {
			postCount = n
		}
	}

	runner := digest.NewRunner(
		a.feed,
		a.store,
		&postSenderAdapter{a},
		digest.WithChatID(chatID),
		digest.WithPostCount(postCount),
	)
	return runner.Run(ctx)
}

func (a *App) refreshTopics(ctx context.Context) {
	posts, err := a.feed.All(ctx)
	if err != nil {
		slog.Warn("failed to refresh trending topics", "error", err)
		return
	}
	a.topics.Refresh(posts)
	slog.Debug("trending topics refreshed", "posts", len(posts))
}

func keyboard(rows [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	markup := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		markup = append(markup, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(markup...)
}

// Adapter types to bridge between our interfaces and the package interfaces

type previewAdapter struct {
	scraper *scraper.Scraper
}

func (p *previewAdapter) Preview(ctx context.Context, url string) (feed.LinkPreview, error) {
	preview, err := p.scraper.Preview(ctx, url)
	if err != nil {
		return feed.LinkPreview{}, err
	}
	return feed.LinkPreview{Excerpt: preview.Excerpt, Image: preview.Image}, nil
}

type postSenderAdapter struct {
	app *App
}

func (s *postSenderAdapter) SendPost(ctx context.Context, chatID int64, p *post.Post) (int64, error) {
	return s.app.SendMessage(ctx, chatID, bot.FormatPost(*p, time.Now()))
}
