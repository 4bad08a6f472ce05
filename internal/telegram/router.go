package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/javifm86/weather-bot/internal/store"
	"github.com/javifm86/weather-bot/internal/subs"
	"github.com/javifm86/weather-bot/internal/trigger"
)

// botAPI is the slice of tgbotapi.BotAPI the router needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dispatcher handles trigger firings and on-demand forecast requests.
// dispatch.Dispatcher implements it.
type Dispatcher interface {
	OnTrigger(chatID int64, isRetry bool)
	CheckNow(chatID int64, lat, lon float64)
}

// Triggers manages per-chat daily triggers. trigger.Registry implements it.
type Triggers interface {
	Start(chatID int64, hour, minute int, onFire trigger.FireFunc) error
	Stop(chatID int64)
}

// Router wires Telegram updates into the subscription flow.
type Router struct {
	bot        botAPI
	log        *zap.Logger
	store      *subs.Store
	triggers   Triggers
	repo       store.Repo
	dispatcher Dispatcher
}

// NewRouter creates a new Telegram router.
func NewRouter(bot botAPI, log *zap.Logger, st *subs.Store, triggers Triggers, repo store.Repo, dispatcher Dispatcher) *Router {
	return &Router{
		bot:        bot,
		log:        log,
		store:      st,
		triggers:   triggers,
		repo:       repo,
		dispatcher: dispatcher,
	}
}

// HandleUpdate routes a single update to the appropriate handler. Only
// private-chat messages matter; everything else is ignored.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	// From is optional in the Bot API (channel posts carry none); this bot
	// only talks to people.
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.Location != nil {
		r.handleLocation(ctx, chatID, msg.Location.Latitude, msg.Location.Longitude)
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		r.handleStart(chatID, msg.From.FirstName)
	case text == btnSubscribe:
		r.handleSubscribe(chatID)
	case text == btnStatus:
		r.handleStatus(chatID, msg.From.FirstName)
	case text == btnUnsubscribe:
		r.handleUnsubscribe(ctx, chatID)
	case text == btnCurrent:
		r.handleCurrent(chatID)
	default:
		if n, err := strconv.Atoi(text); err == nil {
			r.handleNumber(chatID, n)
		}
		// Unrecognized free text is ignored.
	}
}

// subscribed reports whether chatID has a subscription record of any
// completeness; the main keyboard only cares about existence.
func (r *Router) subscribed(chatID int64) bool {
	return r.store.Get(chatID) != nil
}

// sendText sends a plain HTML message without touching the keyboard.
func (r *Router) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

// sendWithKeyboard sends an HTML message with the given reply keyboard.
func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.ReplyKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

// alert sends a message and refreshes the main keyboard for the chat's
// current subscription state.
func (r *Router) alert(chatID int64, text string) {
	r.sendWithKeyboard(chatID, text, mainKeyboard(r.subscribed(chatID)))
}
