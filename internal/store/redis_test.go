package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexlibris/bookbot/internal/flow"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
	})

	return mr, client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedisProfileStore_SetAndGet(t *testing.T) {
	_, client := setupTestRedis(t)
	profiles := NewRedisProfileStore(client, testLogger())
	ctx := context.Background()

	profile := &flow.Profile{
		Name:    "Jane",
		Address: "123 Main St, Springfield, IL 62704",
		Email:   "jane@example.com",
	}

	require.NoError(t, profiles.Set(ctx, 42, profile))

	got, err := profiles.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, *profile, *got)
}

func TestRedisProfileStore_GetNotFound(t *testing.T) {
	_, client := setupTestRedis(t)
	profiles := NewRedisProfileStore(client, testLogger())

	got, err := profiles.Get(context.Background(), 999)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisProfileStore_NoTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	profiles := NewRedisProfileStore(client, testLogger())
	ctx := context.Background()

	require.NoError(t, profiles.Set(ctx, 42, &flow.Profile{Name: "Jane"}))

	// Profiles outlive conversations: even far in the future they remain.
	mr.FastForward(48 * time.Hour)

	got, err := profiles.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Name)
}

func TestRedisConversationStore_SetAndGet(t *testing.T) {
	_, client := setupTestRedis(t)
	conversations := NewRedisConversationStore(client, testLogger(), time.Hour)
	ctx := context.Background()

	conv := &flow.Conversation{Step: flow.StepConfirmBook, PendingBook: "Dune"}
	require.NoError(t, conversations.Set(ctx, 7, conv))

	got, err := conversations.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, flow.StepConfirmBook, got.Step)
	assert.Equal(t, "Dune", got.PendingBook)
}

func TestRedisConversationStore_GetNotFound(t *testing.T) {
	_, client := setupTestRedis(t)
	conversations := NewRedisConversationStore(client, testLogger(), time.Hour)

	got, err := conversations.Get(context.Background(), 7)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisConversationStore_TTLExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	conversations := NewRedisConversationStore(client, testLogger(), time.Hour)
	ctx := context.Background()

	require.NoError(t, conversations.Set(ctx, 7, flow.NewConversation()))

	mr.FastForward(2 * time.Hour)

	got, err := conversations.Get(ctx, 7)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisConversationStore_Clear(t *testing.T) {
	_, client := setupTestRedis(t)
	conversations := NewRedisConversationStore(client, testLogger(), time.Hour)
	ctx := context.Background()

	require.NoError(t, conversations.Set(ctx, 7, flow.NewConversation()))
	require.NoError(t, conversations.Clear(ctx, 7))

	_, err := conversations.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing an absent conversation is not an error.
	assert.NoError(t, conversations.Clear(ctx, 7))
}

func TestRedisConversationStore_All(t *testing.T) {
	_, client := setupTestRedis(t)
	conversations := NewRedisConversationStore(client, testLogger(), time.Hour)
	ctx := context.Background()

	require.NoError(t, conversations.Set(ctx, 1, &flow.Conversation{Step: flow.StepAskName}))
	require.NoError(t, conversations.Set(ctx, 2, &flow.Conversation{Step: flow.StepAskBook}))
	require.NoError(t, conversations.Set(ctx, 3, &flow.Conversation{Step: flow.StepAskBook}))

	records, err := conversations.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	steps := make(map[flow.Step]int)
	for _, record := range records {
		steps[record.Conversation.Step]++
	}
	assert.Equal(t, 1, steps[flow.StepAskName])
	assert.Equal(t, 2, steps[flow.StepAskBook])
}

func TestMemoryStoresRoundTrip(t *testing.T) {
	ctx := context.Background()

	profiles := NewMemoryProfileStore()
	_, err := profiles.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, profiles.Set(ctx, 1, &flow.Profile{Name: "Jane"}))
	profile, err := profiles.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.Name)

	// Mutating the returned copy must not leak back into the store.
	profile.Name = "changed"
	again, err := profiles.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jane", again.Name)

	conversations := NewMemoryConversationStore()
	require.NoError(t, conversations.Set(ctx, 1, flow.NewConversation()))
	conv, err := conversations.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, flow.StepAskName, conv.Step)

	records, err := conversations.All(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, conversations.Clear(ctx, 1))
	_, err = conversations.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
