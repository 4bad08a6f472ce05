package dispatch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/javifm86/weather-bot/internal/domain"
	"github.com/javifm86/weather-bot/internal/store"
	"github.com/javifm86/weather-bot/internal/subs"
	"github.com/javifm86/weather-bot/internal/weather"
)

const fetchTimeout = 30 * time.Second

// Fetcher obtains a forecast for a coordinate pair. weather.Client
// implements it.
type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

// Sender delivers a rendered forecast message. A domain.ErrUnreachable
// return means the recipient is permanently gone. telegram.Router
// implements it.
type Sender interface {
	SendForecast(chatID int64, html string) error
}

// Stopper cancels a user's daily trigger. trigger.Registry implements it.
type Stopper interface {
	Stop(chatID int64)
}

// Dispatcher reacts to trigger firings: it fetches the forecast for the
// user's stored location, formats it and hands it to delivery. A failed
// fetch is retried exactly once after a fixed delay; a client-class delivery
// failure silently dismantles the subscription.
type Dispatcher struct {
	store    *subs.Store
	triggers Stopper
	repo     store.Repo
	fetcher  Fetcher
	sender   Sender
	log      *zap.Logger

	entries    int
	retryDelay time.Duration
	loc        *time.Location

	// after schedules the delayed retry; swapped out in tests.
	after func(d time.Duration, f func())
}

// New creates a Dispatcher. entries caps how many forecast slots a message
// shows; retryDelay separates the single retry from the failed attempt;
// timestamps render in loc.
func New(
	st *subs.Store,
	triggers Stopper,
	repo store.Repo,
	fetcher Fetcher,
	sender Sender,
	log *zap.Logger,
	entries int,
	retryDelay time.Duration,
	loc *time.Location,
) *Dispatcher {
	return &Dispatcher{
		store:      st,
		triggers:   triggers,
		repo:       repo,
		fetcher:    fetcher,
		sender:     sender,
		log:        log,
		entries:    entries,
		retryDelay: retryDelay,
		loc:        loc,
		after:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// OnTrigger handles one firing of a user's daily trigger. It is also the
// retry callback, with isRetry true. A firing for a chat without a complete
// record (user unsubscribed while a retry was pending) is a no-op.
func (d *Dispatcher) OnTrigger(chatID int64, isRetry bool) {
	sub := d.store.Get(chatID)
	if sub == nil || !sub.Complete() {
		d.log.Debug("trigger fired without subscription", zap.Int64("chatID", chatID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	fc, err := d.fetcher.Fetch(ctx, *sub.Lat, *sub.Lon)
	if err != nil || !fc.OK() {
		if isRetry {
			// Second failure: give up until tomorrow's firing.
			d.log.Warn("forecast retry failed", zap.Int64("chatID", chatID), zap.Error(err))
			return
		}
		d.log.Warn("forecast fetch failed, scheduling retry",
			zap.Int64("chatID", chatID),
			zap.Duration("delay", d.retryDelay),
			zap.Error(err),
		)
		d.after(d.retryDelay, func() { d.OnTrigger(chatID, true) })
		return
	}

	d.deliver(chatID, fc)
}

// CheckNow sends a one-off forecast for an ad-hoc location. Failures are
// silent: no retry is scheduled for on-demand requests.
func (d *Dispatcher) CheckNow(chatID int64, lat, lon float64) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	fc, err := d.fetcher.Fetch(ctx, lat, lon)
	if err != nil || !fc.OK() {
		d.log.Warn("on-demand forecast failed", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}

	d.deliver(chatID, fc)
}

// deliver formats and sends the forecast. An unreachable recipient gets
// unsubscribed across store, triggers and persistence.
func (d *Dispatcher) deliver(chatID int64, fc *weather.Forecast) {
	msg := FormatForecast(fc, d.entries, d.loc)

	err := d.sender.SendForecast(chatID, msg)
	if err == nil {
		return
	}
	if !errors.Is(err, domain.ErrUnreachable) {
		d.log.Error("forecast delivery failed", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}

	d.log.Info("recipient unreachable, removing subscription", zap.Int64("chatID", chatID))
	d.store.Remove(chatID)
	d.triggers.Stop(chatID)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	if err := d.repo.Delete(ctx, chatID); err != nil {
		// In-memory state stays authoritative; the stale row is retried
		// against an empty store after the next restart.
		d.log.Error("delete subscription failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
