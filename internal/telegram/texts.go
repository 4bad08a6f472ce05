package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Main keyboard button labels. Inbound text matching one of these is a
// command; anything else is free text.
const (
	btnSubscribe   = "Subscribe to weather updates"
	btnStatus      = "My subscription"
	btnUnsubscribe = "Remove subscription"
	btnCurrent     = "Current weather"
	btnLocation    = "Send location"
)

// UI texts
const (
	welcomeFmt = "Hi %s! I deliver a daily weather forecast wherever you want it. What would you like to do?"

	promptHour       = "At what hour do you want the forecast? (0-23)"
	hourError        = "That hour is not valid. (0-23)"
	promptMinute     = "At which minute? (0-59)"
	minuteError      = "Those minutes are not valid. (0-59)"
	promptLocation   = "I need your location to send you the forecast."
	requestLocation  = "Please send me the location you want the forecast for.\n\nTap <b>Send location</b> to use your current position, or share any other spot through Telegram's attachment clip."
	textSubscribed   = "Your daily forecast subscription is complete. What would you like to do?"
	textUnsubscribed = "Your forecast subscription has been removed. What would you like to do?"
	statusFmt        = "%s, you get the forecast every day at %02d:%02d"
)

// mainKeyboard reflects subscription state: subscribed chats see status and
// unsubscribe buttons, the rest see subscribe. Current weather is always on.
func mainKeyboard(subscribed bool) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	if subscribed {
		rows = append(rows,
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnStatus)),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnUnsubscribe)),
		)
	} else {
		rows = append(rows,
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSubscribe)),
		)
	}
	rows = append(rows,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCurrent)),
	)
	return tgbotapi.NewReplyKeyboard(rows...)
}

// hoursKeyboard offers every hour of the day in a 6-wide grid.
func hoursKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for h := 0; h < 24; h += 6 {
		var row []tgbotapi.KeyboardButton
		for i := h; i < h+6; i++ {
			row = append(row, tgbotapi.NewKeyboardButton(strconv.Itoa(i)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// minutesKeyboard offers ten-minute presets; any 0-59 value typed by hand
// is accepted too.
func minutesKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("00"),
			tgbotapi.NewKeyboardButton("10"),
			tgbotapi.NewKeyboardButton("20"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("30"),
			tgbotapi.NewKeyboardButton("40"),
			tgbotapi.NewKeyboardButton("50"),
		),
	)
}

func locationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation(btnLocation),
		),
	)
}
