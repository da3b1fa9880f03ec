// Package store persists dialog state: durable user profiles and ephemeral
// conversation positions.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hexlibris/bookbot/internal/flow"
)

// ErrNotFound indicates that no record exists for the requested key.
var ErrNotFound = errors.New("record not found")

// ProfileRecord is the stored form of a user profile.
type ProfileRecord struct {
	UserID    int64        `json:"user_id"`
	Profile   flow.Profile `json:"profile"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ConversationRecord is the stored form of a conversation position.
type ConversationRecord struct {
	ChatID       int64             `json:"chat_id"`
	Conversation flow.Conversation `json:"conversation"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ProfileStore persists user-scoped order fields across conversations.
type ProfileStore interface {
	// Get returns the stored profile or ErrNotFound when absent.
	Get(ctx context.Context, userID int64) (*flow.Profile, error)
	// Set saves the profile. Saving an unchanged profile is a no-op in effect
	// but still refreshes the stored record.
	Set(ctx context.Context, userID int64, profile *flow.Profile) error
}

// ConversationStore persists conversation-scoped dialog positions.
type ConversationStore interface {
	// Get returns the stored conversation or ErrNotFound when absent.
	Get(ctx context.Context, chatID int64) (*flow.Conversation, error)
	// Set saves the conversation.
	Set(ctx context.Context, chatID int64, conv *flow.Conversation) error
	// Clear removes the stored conversation, restarting the dialog.
	Clear(ctx context.Context, chatID int64) error
	// All returns every stored conversation record, for observability.
	All(ctx context.Context) ([]*ConversationRecord, error)
}
