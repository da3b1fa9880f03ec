package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/hexlibris/bookbot/internal/bot/handlers"
	errors "github.com/hexlibris/bookbot/internal/errors"
	"github.com/hexlibris/bookbot/internal/repository"
	"github.com/hexlibris/bookbot/pkg/config"
	"github.com/hexlibris/bookbot/pkg/logger"
)

// Command constants for Telegram bot commands.
const (
	CommandStart  = "/start"
	CommandCancel = "/cancel"
	CommandOrders = "/orders"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot      *telebot.Bot
	log          *slog.Logger
	cfg          config.Config
	orchestrator *Orchestrator
	errHandler   *errors.Handler
	middlewares  []handlers.Middleware
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	orchestrator *Orchestrator,
	orders repository.OrderRepository,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:      tb,
		log:          log,
		cfg:          cfg,
		orchestrator: orchestrator,
		errHandler:   errHandler,
		middlewares: []handlers.Middleware{
			RecoveryMiddleware(log, errHandler),
			ErrorHandlingMiddleware(errHandler),
			LoggingMiddleware(log),
		},
	}

	b.registerHandlers(orders)

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) registerHandlers(orders repository.OrderRepository) {
	b.register(CommandStart, handlers.NewStartHandler(b.orchestrator, b.log))
	b.register(CommandCancel, handlers.NewCancelHandler(b.orchestrator, b.log))
	b.register(CommandOrders, handlers.NewOrdersHandler(ordersOrNil(orders), b.log))

	b.register(telebot.OnText, b.onText())
	b.register(telebot.OnCallback, b.onCallback())
	b.register(telebot.OnUserJoined, b.onUserJoined())
}

func (b *Bot) register(endpoint string, h handlers.Handler) {
	b.telebot.Handle(endpoint, telebot.HandlerFunc(b.chain(h)))
}

// chain applies the bot middlewares outermost-first.
func (b *Bot) chain(h handlers.Handler) handlers.Handler {
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		h = b.middlewares[i](h)
	}

	return h
}

// onText feeds every plain message into the dialog as the current turn's input.
func (b *Bot) onText() handlers.Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		chat := c.Chat()
		if sender == nil || chat == nil {
			return nil
		}

		ctx := logger.NewTurnContext(context.Background())

		return b.orchestrator.HandleTurn(ctx, sender.ID, chat.ID, c.Text(), handlers.SendFuncFor(c))
	}
}

// onCallback maps card button presses back into dialog answers.
func (b *Bot) onCallback() handlers.Handler {
	return func(c telebot.Context) error {
		cb := c.Callback()
		sender := c.Sender()
		chat := c.Chat()
		if cb == nil || sender == nil || chat == nil {
			return nil
		}

		// Telebot prefixes routed callback data with "\f".
		data := strings.TrimPrefix(strings.TrimSpace(cb.Data), "\f")
		if !strings.HasPrefix(data, handlers.ConfirmCallbackPrefix) {
			return nil
		}

		answer := strings.TrimPrefix(data, handlers.ConfirmCallbackPrefix)

		if err := c.Respond(&telebot.CallbackResponse{}); err != nil {
			b.log.Warn("failed to acknowledge callback", slog.Any("error", err))
		}

		ctx := logger.NewTurnContext(context.Background())

		return b.orchestrator.HandleTurn(ctx, sender.ID, chat.ID, answer, handlers.SendFuncFor(c))
	}
}

// onUserJoined greets new chat members and opens the order dialog for them.
func (b *Bot) onUserJoined() handlers.Handler {
	return func(c telebot.Context) error {
		msg := c.Message()
		chat := c.Chat()
		if msg == nil || chat == nil {
			return nil
		}

		joined := msg.UsersJoined
		if len(joined) == 0 && msg.UserJoined != nil {
			joined = []telebot.User{*msg.UserJoined}
		}

		me := int64(0)
		if b.telebot.Me != nil {
			me = b.telebot.Me.ID
		}

		for _, member := range joined {
			if member.ID == me {
				continue
			}

			ctx := logger.NewTurnContext(context.Background())

			if err := b.orchestrator.StartDialog(ctx, chat.ID, handlers.SendFuncFor(c)); err != nil {
				return err
			}

			break
		}

		return nil
	}
}

// ordersOrNil avoids handing a typed-nil interface to the orders handler.
func ordersOrNil(orders repository.OrderRepository) handlers.OrderLister {
	if orders == nil {
		return nil
	}

	return orders
}
