package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/javifm86/weather-bot/internal/domain"
)

func (r *Router) handleStart(chatID int64, firstName string) {
	r.alert(chatID, fmt.Sprintf(welcomeFmt, firstName))
}

// handleSubscribe begins the signup conversation: an empty record is
// created and the hour is requested. Subscribing with any record already in
// place (mid-signup or active) is ignored.
func (r *Router) handleSubscribe(chatID int64) {
	if r.store.Get(chatID) != nil {
		return
	}
	r.store.Add(chatID, domain.Patch{})
	r.sendWithKeyboard(chatID, promptHour, hoursKeyboard())
}

// handleNumber advances the signup flow when a number is expected. Numbers
// arriving outside the hour/minute steps have no meaning and are dropped.
func (r *Router) handleNumber(chatID int64, n int) {
	sub := r.store.Get(chatID)

	switch domain.StepOf(sub) {
	case domain.StepAwaitingHour:
		if !domain.ValidHour(n) {
			r.sendText(chatID, hourError)
			r.sendWithKeyboard(chatID, promptHour, hoursKeyboard())
			return
		}
		r.store.Add(chatID, domain.Patch{Hour: &n})
		r.sendWithKeyboard(chatID, promptMinute, minutesKeyboard())

	case domain.StepAwaitingMinute:
		if !domain.ValidMinute(n) {
			r.sendText(chatID, minuteError)
			r.sendWithKeyboard(chatID, promptMinute, minutesKeyboard())
			return
		}
		r.store.Add(chatID, domain.Patch{Minute: &n})
		r.sendWithKeyboard(chatID, promptLocation, locationKeyboard())

	default:
		// Absent, awaiting location, or already active.
	}
}

// handleLocation completes a signup when the flow is waiting for a
// location; otherwise the location is an on-demand forecast request. A
// location arriving mid-signup before hour and minute are both set is a
// stray event and is dropped.
func (r *Router) handleLocation(ctx context.Context, chatID int64, lat, lon float64) {
	sub := r.store.Get(chatID)

	if sub != nil && sub.Lat == nil {
		if domain.StepOf(sub) != domain.StepAwaitingLocation {
			return
		}
		r.store.Add(chatID, domain.Patch{Lat: &lat, Lon: &lon})
		sub = r.store.Get(chatID)

		// Memory first, then persistence and scheduling. A failed write is
		// logged and the in-memory subscription stays live for this process.
		if err := r.repo.Upsert(ctx, sub); err != nil {
			r.log.Error("persist subscription failed", zap.Int64("chatID", chatID), zap.Error(err))
		}
		if err := r.triggers.Start(chatID, *sub.Hour, *sub.Minute, r.dispatcher.OnTrigger); err != nil {
			r.log.Error("start trigger failed", zap.Int64("chatID", chatID), zap.Error(err))
		}
		r.alert(chatID, textSubscribed)
		return
	}

	// No signup in progress: forecast for wherever the user just pointed.
	r.dispatcher.CheckNow(chatID, lat, lon)
}

// handleStatus replies with the scheduled time and the stored location.
// Only complete subscriptions have anything to show.
func (r *Router) handleStatus(chatID int64, firstName string) {
	sub := r.store.Get(chatID)
	if sub == nil || !sub.Complete() {
		return
	}
	r.sendText(chatID, fmt.Sprintf(statusFmt, firstName, *sub.Hour, *sub.Minute))
	if _, err := r.bot.Send(tgbotapi.NewLocation(chatID, *sub.Lat, *sub.Lon)); err != nil {
		r.log.Warn("send location failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

// handleCurrent asks for a location to answer with a one-off forecast.
func (r *Router) handleCurrent(chatID int64) {
	r.sendWithKeyboard(chatID, requestLocation, locationKeyboard())
}

// handleUnsubscribe tears the subscription down across memory, triggers and
// persistence, and confirms. Unsubscribing without a record is ignored.
func (r *Router) handleUnsubscribe(ctx context.Context, chatID int64) {
	if r.store.Get(chatID) == nil {
		return
	}
	r.store.Remove(chatID)
	r.triggers.Stop(chatID)
	if err := r.repo.Delete(ctx, chatID); err != nil {
		r.log.Error("delete subscription failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
	r.alert(chatID, textUnsubscribed)
}
