package store

import (
	"context"
	"sync"
	"time"

	"github.com/hexlibris/bookbot/internal/flow"
)

// MemoryProfileStore is an in-process ProfileStore, used in tests and
// single-node development runs.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[int64]flow.Profile
}

// NewMemoryProfileStore builds an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[int64]flow.Profile)}
}

func (s *MemoryProfileStore) Get(ctx context.Context, userID int64) (*flow.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}

	copied := profile
	return &copied, nil
}

func (s *MemoryProfileStore) Set(ctx context.Context, userID int64, profile *flow.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[userID] = *profile
	return nil
}

// MemoryConversationStore is an in-process ConversationStore counterpart.
type MemoryConversationStore struct {
	mu            sync.Mutex
	conversations map[int64]ConversationRecord
}

// NewMemoryConversationStore builds an empty in-memory conversation store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{conversations: make(map[int64]ConversationRecord)}
}

func (s *MemoryConversationStore) Get(ctx context.Context, chatID int64) (*flow.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.conversations[chatID]
	if !ok {
		return nil, ErrNotFound
	}

	copied := record.Conversation
	return &copied, nil
}

func (s *MemoryConversationStore) Set(ctx context.Context, chatID int64, conv *flow.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[chatID] = ConversationRecord{
		ChatID:       chatID,
		Conversation: *conv,
		UpdatedAt:    time.Now().UTC(),
	}
	return nil
}

func (s *MemoryConversationStore) Clear(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, chatID)
	return nil
}

func (s *MemoryConversationStore) All(ctx context.Context) ([]*ConversationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*ConversationRecord, 0, len(s.conversations))
	for _, record := range s.conversations {
		copied := record
		result = append(result, &copied)
	}

	return result, nil
}
