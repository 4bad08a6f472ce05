package telegram

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/javifm86/weather-bot/internal/domain"
	"github.com/javifm86/weather-bot/internal/subs"
)

// Notifier delivers forecast messages outside the request/response flow of
// the router. It implements dispatch.Sender.
type Notifier struct {
	bot   botAPI
	store *subs.Store
}

// NewNotifier creates a forecast sender over the bot API. The store is only
// consulted to pick the right main keyboard for the chat.
func NewNotifier(bot botAPI, st *subs.Store) *Notifier {
	return &Notifier{bot: bot, store: st}
}

// SendForecast delivers a rendered forecast with the state-aware main
// keyboard. Telegram 4xx responses mean the chat is gone for good (bot
// blocked, account deleted) and surface as domain.ErrUnreachable; the
// dispatcher reacts by dismantling the subscription.
func (n *Notifier) SendForecast(chatID int64, html string) error {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainKeyboard(n.store.Get(chatID) != nil)

	_, err := n.bot.Send(msg)
	if err == nil {
		return nil
	}

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code >= 400 && tgErr.Code < 500 {
		return fmt.Errorf("%w: telegram %d %s", domain.ErrUnreachable, tgErr.Code, tgErr.Message)
	}
	return err
}
