package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineKeyboardBuilder_Build(t *testing.T) {
	markup := NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "Buy", Unique: "confirm", Data: "confirm_buy"},
			InlineButton{Text: "No", Unique: "confirm", Data: "confirm_no"},
		).
		AddRow(InlineButton{Text: "Cancel", Unique: "cancel"}).
		Build(nil)

	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	require.Len(t, markup.InlineKeyboard[0], 2)

	assert.Equal(t, "Buy", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "confirm_buy", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "confirm_no", markup.InlineKeyboard[0][1].Data)

	// The default encoder falls back to the unique when no data is set.
	assert.Equal(t, "cancel", markup.InlineKeyboard[1][0].Data)
}

func TestInlineKeyboardBuilder_CustomEncoder(t *testing.T) {
	markup := NewInlineKeyboard().
		AddRow(InlineButton{Text: "Buy", Unique: "confirm", Data: "buy"}).
		Build(func(unique, data string) string {
			return unique + ":" + data
		})

	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "confirm:buy", markup.InlineKeyboard[0][0].Data)
}

func TestInlineKeyboardBuilder_EmptyRowIgnored(t *testing.T) {
	markup := NewInlineKeyboard().AddRow().Build(nil)

	require.NotNil(t, markup)
	assert.Empty(t, markup.InlineKeyboard)
}
