package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/javifm86/weather-bot/internal/config"
	"github.com/javifm86/weather-bot/internal/dispatch"
	"github.com/javifm86/weather-bot/internal/domain"
	"github.com/javifm86/weather-bot/internal/store"
	"github.com/javifm86/weather-bot/internal/subs"
	"github.com/javifm86/weather-bot/internal/telegram"
	"github.com/javifm86/weather-bot/internal/trigger"
	"github.com/javifm86/weather-bot/internal/weather"
)

// Triggers is the slice of trigger.Registry that rehydration needs.
type Triggers interface {
	Start(chatID int64, hour, minute int, onFire trigger.FireFunc) error
}

type App struct {
	cfg      config.Config
	log      *zap.Logger
	bot      *tgbotapi.BotAPI
	httpSrv  *http.Server
	repo     store.Repo
	subs     *subs.Store
	triggers *trigger.Registry
	router   *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting weather-bot",
		zap.String("tz", a.cfg.DefaultTZ),
		zap.String("http", a.cfg.HTTPAddr),
	)

	loc, err := a.cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", a.cfg.DefaultTZ, err)
	}

	// Open SQLite and run migrations. Without the persisted subscriptions
	// the bot cannot schedule anything, so this failure is fatal.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	a.subs = subs.New()
	a.triggers = trigger.New(loc, a.log)

	client := weather.NewClient(&http.Client{Timeout: a.cfg.HTTPTimeout}, a.cfg.WeatherToken, a.cfg.Lang)
	notifier := telegram.NewNotifier(a.bot, a.subs)
	dispatcher := dispatch.New(
		a.subs, a.triggers, a.repo, client, notifier, a.log,
		a.cfg.ForecastEntries, a.cfg.RetryDelay, loc,
	)
	a.router = telegram.NewRouter(a.bot, a.log, a.subs, a.triggers, a.repo, dispatcher)

	restored, err := rehydrate(ctx, a.repo, a.subs, a.triggers, dispatcher.OnTrigger)
	if err != nil {
		a.log.Error("load subscriptions failed", zap.Error(err))
		return err
	}
	a.log.Info("subscriptions restored", zap.Int("count", restored))

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

// rehydrate restores the in-memory store and the per-user triggers from the
// persisted subscriptions, returning how many were restored. Every persisted
// record is complete, so each one yields exactly one trigger at its stored
// hour:minute.
func rehydrate(ctx context.Context, repo store.Repo, st *subs.Store, triggers Triggers, onFire trigger.FireFunc) (int, error) {
	persisted, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, s := range persisted {
		st.Add(s.ChatID, domain.Patch{Hour: s.Hour, Minute: s.Minute, Lat: s.Lat, Lon: s.Lon})
		if err := triggers.Start(s.ChatID, *s.Hour, *s.Minute, onFire); err != nil {
			return 0, fmt.Errorf("schedule chat %d: %w", s.ChatID, err)
		}
	}
	return len(persisted), nil
}

func (a *App) shutdown() {
	// Create a short-lived shutdown context and cancel it immediately after use.
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()

	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	if a.triggers != nil {
		a.triggers.Shutdown()
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}
