package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexlibris/bookbot/internal/domain"
	"github.com/hexlibris/bookbot/internal/flow"
	"github.com/hexlibris/bookbot/internal/store"
)

const (
	testUserID = int64(42)
	testChatID = int64(100)
)

type stubFinder struct {
	volume *flow.Volume
	err    error
}

func (f *stubFinder) SearchBook(context.Context, string) (*flow.Volume, error) {
	return f.volume, f.err
}

type fakeMailer struct {
	mu      sync.Mutex
	sends   int
	lastTo  string
	content string
	err     error
}

func (m *fakeMailer) SendOrderConfirmation(_ context.Context, _, email, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sends++
	m.lastTo = email
	m.content = content
	return m.err
}

type fakeOrderRepo struct {
	mu      sync.Mutex
	created []*domain.Order
	err     error
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.created = append(r.created, order)
	return nil
}

func (r *fakeOrderRepo) FindRecentByUser(context.Context, int64, int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created, nil
}

type fixture struct {
	orchestrator  *Orchestrator
	profiles      *store.MemoryProfileStore
	conversations *store.MemoryConversationStore
	mail          *fakeMailer
	orders        *fakeOrderRepo
	sent          []flow.Message
}

func newFixture(finder flow.BookFinder) *fixture {
	f := &fixture{
		profiles:      store.NewMemoryProfileStore(),
		conversations: store.NewMemoryConversationStore(),
		mail:          &fakeMailer{},
		orders:        &fakeOrderRepo{},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := flow.NewEngine(finder)
	f.orchestrator = NewOrchestrator(engine, f.profiles, f.conversations, f.mail, f.orders, log)

	return f
}

func (f *fixture) send(msg flow.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fixture) turn(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, f.orchestrator.HandleTurn(context.Background(), testUserID, testChatID, text, f.send))
}

func dialogInputs() []string {
	return []string{
		"Jane",
		"123 Main St, Springfield, IL 62704",
		"jane@example.com",
		"dune",
		"buy",
		"ready",
	}
}

func TestHandleTurn_PersistsStateEveryTurn(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})
	ctx := context.Background()

	f.turn(t, "Jane")

	profile, err := f.profiles.Get(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.Name)

	conv, err := f.conversations.Get(ctx, testChatID)
	require.NoError(t, err)
	assert.Equal(t, flow.StepAskAddress, conv.Step)
}

func TestHandleTurn_RejectedInputStillPersists(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})
	ctx := context.Background()

	f.turn(t, "Jane99")

	// The step did not advance, but the records are written regardless.
	conv, err := f.conversations.Get(ctx, testChatID)
	require.NoError(t, err)
	assert.Equal(t, flow.StepAskName, conv.Step)
	assert.Len(t, f.sent, 2)
}

func TestHandleTurn_CompletedOrderSendsMailAndArchives(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})

	for _, input := range dialogInputs() {
		f.turn(t, input)
	}

	assert.Equal(t, 1, f.mail.sends)
	assert.Equal(t, "jane@example.com", f.mail.lastTo)
	assert.Contains(t, f.mail.content, "Dune")

	require.Len(t, f.orders.created, 1)
	order := f.orders.created[0]
	assert.Equal(t, testUserID, order.UserID)
	assert.Equal(t, "Jane", order.Name)
	assert.Equal(t, "Dune", order.Book)
	assert.False(t, order.CreatedAt.IsZero())

	// After checkout the profile is reset and the dialog restarted.
	profile, err := f.profiles.Get(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, flow.Profile{}, *profile)

	conv, err := f.conversations.Get(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, flow.StepAskName, conv.Step)
}

func TestHandleTurn_MailFailureDoesNotFailTurn(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})
	f.mail.err = errors.New("smtp down")

	for _, input := range dialogInputs() {
		f.turn(t, input)
	}

	// The send failed, but the order is still archived and the dialog restarted.
	assert.Equal(t, 1, f.mail.sends)
	assert.Len(t, f.orders.created, 1)

	conv, err := f.conversations.Get(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, flow.StepAskName, conv.Step)
}

func TestHandleTurn_ArchiveFailureDoesNotFailTurn(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})
	f.orders.err = errors.New("database down")

	for _, input := range dialogInputs() {
		f.turn(t, input)
	}

	assert.Equal(t, 1, f.mail.sends)
	assert.Empty(t, f.orders.created)
}

func TestHandleTurn_SendFailureStillPersists(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})

	err := f.orchestrator.HandleTurn(context.Background(), testUserID, testChatID, "Jane", func(flow.Message) error {
		return errors.New("telegram unreachable")
	})
	require.NoError(t, err)

	conv, cerr := f.conversations.Get(context.Background(), testChatID)
	require.NoError(t, cerr)
	assert.Equal(t, flow.StepAskAddress, conv.Step)
}

func TestHandleTurn_NilOrderRepositoryIsAllowed(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.orchestrator = NewOrchestrator(
		flow.NewEngine(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}}),
		f.profiles, f.conversations, f.mail, nil, log,
	)

	for _, input := range dialogInputs() {
		f.turn(t, input)
	}

	assert.Equal(t, 1, f.mail.sends)
}

func TestStartDialog_SendsGreetingAndPins(t *testing.T) {
	f := newFixture(&stubFinder{})

	require.NoError(t, f.orchestrator.StartDialog(context.Background(), testChatID, f.send))

	require.Len(t, f.sent, 2)
	assert.Equal(t, "Hello and welcome!", f.sent[0].Text)
	assert.Equal(t, "What is your name?", f.sent[1].Text)

	conv, err := f.conversations.Get(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, flow.StepAskName, conv.Step)
}

func TestStartDialog_DoesNotResetExistingConversation(t *testing.T) {
	f := newFixture(&stubFinder{})
	ctx := context.Background()

	require.NoError(t, f.conversations.Set(ctx, testChatID, &flow.Conversation{Step: flow.StepAskEmail}))
	require.NoError(t, f.orchestrator.StartDialog(ctx, testChatID, f.send))

	conv, err := f.conversations.Get(ctx, testChatID)
	require.NoError(t, err)
	assert.Equal(t, flow.StepAskEmail, conv.Step)
}

func TestCancelDialog_ClearsStateAndFields(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})
	ctx := context.Background()

	f.turn(t, "Jane")
	require.NoError(t, f.orchestrator.CancelDialog(ctx, testUserID, testChatID))

	profile, err := f.profiles.Get(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, flow.Profile{}, *profile)

	_, err = f.conversations.Get(ctx, testChatID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandleTurn_MessageOrderPreserved(t *testing.T) {
	f := newFixture(&stubFinder{volume: &flow.Volume{Title: "Dune", ThumbnailURL: "https://img"}})

	f.turn(t, "Jane")

	require.Len(t, f.sent, 2)
	assert.Equal(t, "Oh, hey Jane. Nice to see you here!", f.sent[0].Text)
	assert.Contains(t, f.sent[1].Text, "shipping address")
}
