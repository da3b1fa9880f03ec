package bot

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/hexlibris/bookbot/internal/bot/handlers"
	"github.com/hexlibris/bookbot/internal/domain"
	errors "github.com/hexlibris/bookbot/internal/errors"
	"github.com/hexlibris/bookbot/internal/flow"
	"github.com/hexlibris/bookbot/internal/mailer"
	"github.com/hexlibris/bookbot/internal/repository"
	"github.com/hexlibris/bookbot/internal/store"
	"github.com/hexlibris/bookbot/pkg/metrics"
)

// SendFunc delivers one outbound message to the conversation.
type SendFunc = handlers.SendFunc

// Orchestrator runs one dialog turn: load state, advance the engine once,
// send the resulting messages in order, perform declared side effects, and
// persist both state records unconditionally.
type Orchestrator struct {
	engine        *flow.Engine
	profiles      store.ProfileStore
	conversations store.ConversationStore
	mail          mailer.Sender
	orders        repository.OrderRepository
	log           *slog.Logger
}

// NewOrchestrator wires the turn pipeline. The order repository may be nil
// when archiving is disabled.
func NewOrchestrator(
	engine *flow.Engine,
	profiles store.ProfileStore,
	conversations store.ConversationStore,
	mail mailer.Sender,
	orders repository.OrderRepository,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}

	return &Orchestrator{
		engine:        engine,
		profiles:      profiles,
		conversations: conversations,
		mail:          mail,
		orders:        orders,
		log:           log,
	}
}

// HandleTurn processes exactly one inbound message for the given user and chat.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID, chatID int64, text string, send SendFunc) error {
	start := time.Now()

	profile, err := o.loadProfile(ctx, userID)
	if err != nil {
		return err
	}

	conv, err := o.loadConversation(ctx, chatID)
	if err != nil {
		return err
	}

	entryStep := string(conv.Step)

	res := o.engine.Advance(ctx, profile, conv, text)

	status := "ok"
	for _, msg := range res.Messages {
		if sendErr := send(msg); sendErr != nil {
			// The engine already committed this turn; keep going so the
			// remaining messages and the state save are not lost.
			status = "send_error"
			o.log.Error("failed to send outbound message",
				slog.Int64("chat_id", chatID), slog.Any("error", sendErr))
		}
	}

	if res.Order != nil {
		o.completeOrder(ctx, userID, res.Order)
	}

	// Persist after all outbound messages are queued, even when nothing
	// changed, so the stores always reflect the in-memory records.
	persistErr := o.persist(ctx, userID, chatID, profile, conv)
	if persistErr != nil {
		status = "storage_error"
	}

	metrics.RecordTurn(entryStep, status, time.Since(start))

	return persistErr
}

// StartDialog greets the user and pins the conversation at the first step.
func (o *Orchestrator) StartDialog(ctx context.Context, chatID int64, send SendFunc) error {
	conv, err := o.loadConversation(ctx, chatID)
	if err != nil {
		return err
	}

	for _, msg := range flow.GreetingMessages() {
		if sendErr := send(msg); sendErr != nil {
			o.log.Error("failed to send greeting",
				slog.Int64("chat_id", chatID), slog.Any("error", sendErr))
		}
	}

	if err := o.conversations.Set(ctx, chatID, conv); err != nil {
		return errors.NewStorageError(err)
	}

	return nil
}

// CancelDialog wipes the collected fields and returns the dialog to the first
// step, the genuine cancel path of the ordering flow.
func (o *Orchestrator) CancelDialog(ctx context.Context, userID, chatID int64) error {
	profile := &flow.Profile{}
	if err := o.profiles.Set(ctx, userID, profile); err != nil {
		return errors.NewStorageError(err)
	}

	if err := o.conversations.Clear(ctx, chatID); err != nil {
		return errors.NewStorageError(err)
	}

	return nil
}

func (o *Orchestrator) loadProfile(ctx context.Context, userID int64) (*flow.Profile, error) {
	profile, err := o.profiles.Get(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, store.ErrNotFound) {
			return &flow.Profile{}, nil
		}

		return nil, errors.NewStorageError(err)
	}

	return profile, nil
}

func (o *Orchestrator) loadConversation(ctx context.Context, chatID int64) (*flow.Conversation, error) {
	conv, err := o.conversations.Get(ctx, chatID)
	if err != nil {
		if stdErrors.Is(err, store.ErrNotFound) {
			return flow.NewConversation(), nil
		}

		return nil, errors.NewStorageError(err)
	}

	return conv, nil
}

// completeOrder performs the summary side effects. Both are best-effort: a
// failure is logged and never blocks the state reset already committed by the
// engine.
func (o *Orchestrator) completeOrder(ctx context.Context, userID int64, order *flow.CompletedOrder) {
	if o.mail != nil {
		if err := o.mail.SendOrderConfirmation(ctx, order.Name, order.Email, order.ConfirmationContent()); err != nil {
			o.log.Error("order confirmation send failed",
				slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}

	if o.orders != nil {
		archived := &domain.Order{
			UserID:    userID,
			Name:      order.Name,
			Address:   order.Address,
			Email:     order.Email,
			Book:      order.Book,
			CreatedAt: time.Now().UTC(),
		}

		if err := o.orders.Create(ctx, archived); err != nil {
			o.log.Error("order archive failed",
				slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
}

func (o *Orchestrator) persist(ctx context.Context, userID, chatID int64, profile *flow.Profile, conv *flow.Conversation) error {
	var firstErr error

	if err := o.profiles.Set(ctx, userID, profile); err != nil {
		firstErr = errors.NewStorageError(err)
	}

	if err := o.conversations.Set(ctx, chatID, conv); err != nil && firstErr == nil {
		firstErr = errors.NewStorageError(err)
	}

	return firstErr
}
