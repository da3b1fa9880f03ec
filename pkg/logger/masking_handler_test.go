package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskingHandler_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	log.Info("order collected",
		slog.String("email", "jane@example.com"),
		slog.String("name", "Jane"),
		slog.String("address", "123 Main St"),
		slog.String("book", "Dune"),
	)

	out := buf.String()
	assert.NotContains(t, out, "jane@example.com")
	assert.NotContains(t, out, "123 Main St")
	assert.Contains(t, out, "***")
	assert.Contains(t, out, "Dune")
}

func TestMaskingHandler_CaseInsensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	log.Info("auth", slog.String("Token", "secret-token-value"))

	assert.NotContains(t, buf.String(), "secret-token-value")
}

func TestNewTurnContext_CarriesCorrelationID(t *testing.T) {
	ctx := NewTurnContext(context.Background())

	id := CorrelationIDFromContext(ctx)
	assert.NotEmpty(t, id)
	assert.Len(t, strings.Split(id, "-"), 5)

	other := NewTurnContext(context.Background())
	assert.NotEqual(t, id, CorrelationIDFromContext(other))
}

func TestCorrelationIDFromContext_AbsentIsEmpty(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("unknown"))
}
