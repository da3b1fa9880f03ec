package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/hexlibris/bookbot/internal/bot/keyboard"
	"github.com/hexlibris/bookbot/internal/flow"
)

// Handler processes bot updates.
type Handler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// SendFunc delivers one outbound dialog message to the conversation.
type SendFunc func(flow.Message) error

// ConfirmCallbackPrefix marks callback payloads produced by card action buttons.
const ConfirmCallbackPrefix = "confirm_"

// SendFuncFor renders dialog messages onto the Telegram transport: plain text
// as-is, cards as a photo with a caption and one inline button per action.
func SendFuncFor(c telebot.Context) SendFunc {
	return func(msg flow.Message) error {
		if msg.Card == nil {
			return c.Send(msg.Text)
		}

		card := msg.Card

		builder := keyboard.NewInlineKeyboard()
		buttons := make([]keyboard.InlineButton, 0, len(card.Actions))
		for _, action := range card.Actions {
			buttons = append(buttons, keyboard.InlineButton{
				Text: action,
				Data: ConfirmCallbackPrefix + action,
			})
		}
		builder.AddRow(buttons...)

		markup := builder.Build(func(_, data string) string {
			return data
		})

		caption := card.Title
		if card.Subtitle != "" {
			caption += "\n" + card.Subtitle
		}

		photo := &telebot.Photo{
			File:    telebot.FromURL(card.ImageURL),
			Caption: caption,
		}

		return c.Send(photo, markup)
	}
}
