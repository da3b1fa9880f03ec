package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// DialogCanceler discards collected order fields and the dialog position.
type DialogCanceler interface {
	CancelDialog(ctx context.Context, userID, chatID int64) error
}

// NewCancelHandler aborts the in-flight order and confirms the reset.
func NewCancelHandler(dialogs DialogCanceler, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		chat := c.Chat()
		if sender == nil || chat == nil {
			return nil
		}

		log.Info("cancel command", slog.Int64("user_id", sender.ID))

		if err := dialogs.CancelDialog(context.Background(), sender.ID, chat.ID); err != nil {
			return err
		}

		return c.Send("Order cancelled. Send /start whenever you want to begin again.")
	}
}
