package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/hexlibris/bookbot/internal/domain"
)

const recentOrdersLimit = 5

// OrderLister reads back archived orders for a user.
type OrderLister interface {
	FindRecentByUser(ctx context.Context, userID int64, limit int) ([]*domain.Order, error)
}

// NewOrdersHandler replies with the user's most recent completed orders.
// When archiving is disabled the handler is registered with a nil lister and
// reports the feature as unavailable.
func NewOrdersHandler(orders OrderLister, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		if orders == nil {
			return c.Send("Order history is not available right now.")
		}

		recent, err := orders.FindRecentByUser(context.Background(), sender.ID, recentOrdersLimit)
		if err != nil {
			log.Error("failed to load order history", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			return err
		}

		if len(recent) == 0 {
			return c.Send("You have no completed orders yet.")
		}

		var sb strings.Builder
		sb.WriteString("Your recent orders:\n")
		for i, order := range recent {
			fmt.Fprintf(&sb, "%d. %s (ordered %s)\n", i+1, order.Book, order.CreatedAt.Format("2006-01-02"))
		}

		return c.Send(sb.String())
	}
}
