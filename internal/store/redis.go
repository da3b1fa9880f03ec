package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hexlibris/bookbot/internal/flow"
)

const (
	profileKeyPattern = "order:profile:%d"
	convKeyPattern    = "order:conv:%d"
	convScanPattern   = "order:conv:*"

	// DefaultConversationTTL bounds how long an abandoned dialog position is
	// kept. Profiles carry no TTL: they survive conversations.
	DefaultConversationTTL = 24 * time.Hour
)

// RedisProfileStore persists user profiles in Redis.
type RedisProfileStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisProfileStore initializes a Redis-backed ProfileStore implementation.
func NewRedisProfileStore(client *redis.Client, log *slog.Logger) ProfileStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisProfileStore{
		client: client,
		log:    log,
	}
}

// Get returns the stored profile or ErrNotFound when absent.
func (s *RedisProfileStore) Get(ctx context.Context, userID int64) (*flow.Profile, error) {
	key := profileKey(userID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get profile from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var record ProfileRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		s.log.Error("failed to decode profile record", "user_id", userID, "error", err)
		return nil, err
	}

	return &record.Profile, nil
}

// Set saves the profile without a TTL so it persists across conversations.
func (s *RedisProfileStore) Set(ctx context.Context, userID int64, profile *flow.Profile) error {
	record := ProfileRecord{
		UserID:    userID,
		Profile:   *profile,
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		s.log.Error("failed to encode profile record", "user_id", userID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, profileKey(userID), data, 0).Err(); err != nil {
		s.log.Error("failed to save profile in redis", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// RedisConversationStore persists conversation positions in Redis.
type RedisConversationStore struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisConversationStore initializes a Redis-backed ConversationStore with
// the given retention; ttl <= 0 falls back to DefaultConversationTTL.
func NewRedisConversationStore(client *redis.Client, log *slog.Logger, ttl time.Duration) ConversationStore {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}

	return &RedisConversationStore{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// Get returns the stored conversation or ErrNotFound when absent.
func (s *RedisConversationStore) Get(ctx context.Context, chatID int64) (*flow.Conversation, error) {
	key := convKey(chatID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get conversation from redis", "chat_id", chatID, "error", err)
		return nil, err
	}

	var record ConversationRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		s.log.Error("failed to decode conversation record", "chat_id", chatID, "error", err)
		return nil, err
	}

	return &record.Conversation, nil
}

// Set saves the conversation, refreshing the retention TTL.
func (s *RedisConversationStore) Set(ctx context.Context, chatID int64, conv *flow.Conversation) error {
	record := ConversationRecord{
		ChatID:       chatID,
		Conversation: *conv,
		UpdatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		s.log.Error("failed to encode conversation record", "chat_id", chatID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, convKey(chatID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save conversation in redis", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// Clear removes the stored conversation for the given chat.
func (s *RedisConversationStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, convKey(chatID)).Err(); err != nil {
		s.log.Error("failed to clear conversation", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// All retrieves every stored conversation record by scanning Redis keys.
func (s *RedisConversationStore) All(ctx context.Context) ([]*ConversationRecord, error) {
	var (
		cursor uint64
		result []*ConversationRecord
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, convScanPattern, 100).Result()
		if err != nil {
			s.log.Error("failed to scan conversations", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch conversation", "key", key, "error", err)
				return nil, err
			}

			var record ConversationRecord
			if err := json.Unmarshal([]byte(data), &record); err != nil {
				s.log.Error("failed to decode conversation record", "key", key, "error", err)
				continue
			}

			copied := record
			result = append(result, &copied)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func profileKey(userID int64) string {
	return fmt.Sprintf(profileKeyPattern, userID)
}

func convKey(chatID int64) string {
	return fmt.Sprintf(convKeyPattern, chatID)
}
