package errors

import (
	"context"
	"errors"
	"log/slog"

	slogsentry "github.com/samber/slog-sentry/v2"

	"github.com/hexlibris/bookbot/pkg/logger"
)

const fallbackUserMessage = "Something went wrong. Please try again later."

// Handler centralizes error logging, Sentry reporting, and the mapping of
// failures to user-facing dialog text.
type Handler struct {
	log       *slog.Logger
	sentryLog *slog.Logger
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	h := &Handler{log: log}

	if sentryEnabled {
		h.sentryLog = slog.New(slogsentry.Option{Level: slog.LevelWarn}.NewSentryHandler())
	}

	return h
}

// Handle logs err, forwards severe failures to Sentry, and returns the text to
// show the customer along with whether the operation may be retried.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs := []slog.Attr{
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		}

		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}

		log.Error("application error", attrsToArgs(attrs)...)

		if h.sentryLog != nil && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
			h.sentryLog.Error(appErr.Message, attrsToArgs(attrs)...)
		}

		userMessage := appErr.UserMessage
		if userMessage == "" {
			userMessage = fallbackUserMessage
		}

		return userMessage, appErr.Retryable
	}

	attrs := []slog.Attr{
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
		slog.Bool("retryable", false),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	log.Error("unknown error", attrsToArgs(attrs)...)

	if h.sentryLog != nil {
		h.sentryLog.Error(err.Error(), attrsToArgs(attrs)...)
	}

	return fallbackUserMessage, false
}

func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}

	return args
}
