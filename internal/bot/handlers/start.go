package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// DialogStarter resets a chat to the beginning of the order dialog.
type DialogStarter interface {
	StartDialog(ctx context.Context, chatID int64, send SendFunc) error
}

// NewStartHandler greets the user and opens a fresh order dialog.
func NewStartHandler(dialogs DialogStarter, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		chat := c.Chat()
		if chat == nil {
			return nil
		}

		log.Info("start command", slog.Int64("chat_id", chat.ID))

		return dialogs.StartDialog(context.Background(), chat.ID, SendFuncFor(c))
	}
}
