package flow

import (
	"context"
	"errors"
)

var (
	// ErrBookNotFound indicates that the catalog returned no items for the query.
	ErrBookNotFound = errors.New("no books matched the query")
	// ErrNoCoverImage indicates that the first catalog hit has no usable cover image.
	ErrNoCoverImage = errors.New("book result has no cover image")
)

// Profile holds the durable, user-scoped order fields collected by the dialog.
// Fields are filled in strict dialog order and reset together once an order
// completes.
type Profile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Book    string `json:"book"`
}

// Reset clears every collected field so a new order can start over.
func (p *Profile) Reset() {
	p.Name = ""
	p.Address = ""
	p.Email = ""
	p.Book = ""
}

// Conversation holds the ephemeral, conversation-scoped dialog position.
type Conversation struct {
	Step Step `json:"step"`
	// PendingBook is the title-cased candidate awaiting confirmation; it is
	// meaningful only between picking_book and confirm_book.
	PendingBook string `json:"pending_book,omitempty"`
}

// NewConversation returns a conversation positioned at the first dialog step.
func NewConversation() *Conversation {
	return &Conversation{Step: StepAskName}
}

// Volume is a single usable catalog hit.
type Volume struct {
	Title        string
	ThumbnailURL string
}

// BookFinder searches the external catalog and returns the first usable hit.
// Implementations report empty result lists as ErrBookNotFound and hits
// without cover art as ErrNoCoverImage; anything else is a transport failure.
type BookFinder interface {
	SearchBook(ctx context.Context, query string) (*Volume, error)
}

// Card describes a rich outbound message; rendering is the transport's job.
type Card struct {
	Title    string
	Subtitle string
	ImageURL string
	Actions  []string
}

// Message is a single outbound message, either plain text or a card.
type Message struct {
	Text string
	Card *Card
}

// CompletedOrder is a snapshot of the profile taken at the summary step,
// before the fields are reset. The orchestrator uses it to fire the
// confirmation send and archive the order.
type CompletedOrder struct {
	Name    string
	Address string
	Email   string
	Book    string
}

// ConfirmationContent renders the body of the order confirmation mail.
func (o *CompletedOrder) ConfirmationContent() string {
	return "Your order confirmation:\n" + o.Name + "\n" + o.Address + "\n" + o.Book
}

// Result is the declared outcome of one turn: ordered outbound messages plus
// an optional completed order whose side effects the orchestrator performs.
type Result struct {
	Messages []Message
	Order    *CompletedOrder
}

func (r *Result) say(text string) {
	r.Messages = append(r.Messages, Message{Text: text})
}

func (r *Result) show(card Card) {
	r.Messages = append(r.Messages, Message{Card: &card})
}
