package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hexlibris/bookbot/internal/validate"
)

// Dialog copy sent to the customer. The prompt for a step is emitted by the
// turn that enters it; failed validation re-prompts without advancing.
const (
	msgAskName        = "What is your name?"
	msgInvalidName    = "Your name can not contain number or empty. It is impossible!!"
	msgAskNameAgain   = "Please provide your name again!!"
	msgAskAddress     = "What is your shipping address? Please provide number and street. Please provide carefully include street address, city, state and zipcode."
	msgInvalidAddress = "Please provide your valid address. It must contain street address, (apt), city, two letter state and zipcode."
	msgAskEmail       = "Please provide your email."
	msgInvalidEmail   = "Please provide valid email."
	msgAskBook        = "Please provide your book name."
	msgBookNotFound   = "Sorry, I could not find that book. Please provide your book name again."
	msgLookupDown     = "Sorry, the book search is unavailable right now. Please provide your book name again."
	msgConfirmBook    = `Is this the book you are looking for? Click Buy if it is correct. Other wise type "No"`
	msgReady          = "Okay, awesome!! Are you ready?"
	msgAskBookAgain   = "Please provide your book name again."
	msgConfirmRepeat  = "Sorry, I dont get it? Please answer again."
	msgThanks         = "Thank you for shopping. Confirmation email will be sent to you shortly"

	cardSubtitle = "A beautiful book"
	answerBuy    = "buy"
	answerNo     = "no"
)

// GreetingMessages returns the copy sent when a dialog is (re)started outside
// the turn loop, e.g. by /start or when a participant joins.
func GreetingMessages() []Message {
	return []Message{
		{Text: "Hello and welcome!"},
		{Text: msgAskName},
	}
}

// Engine is the step transition engine. It is stateless: all mutable state
// lives in the Profile and Conversation records passed into Advance. The only
// collaborator is the injected catalog lookup.
type Engine struct {
	catalog BookFinder
}

// NewEngine builds an Engine that resolves book queries through catalog.
func NewEngine(catalog BookFinder) *Engine {
	return &Engine{catalog: catalog}
}

// Advance processes exactly one inbound message. It mutates profile and conv
// in place on the success path only, and returns the ordered outbound messages
// plus an optional completed order for the orchestrator to act on.
func (e *Engine) Advance(ctx context.Context, profile *Profile, conv *Conversation, text string) *Result {
	res := &Result{}

	if conv.Step == "" {
		conv.Step = StepAskName
	}

	switch conv.Step {
	case StepAskName:
		if !validate.IsValidName(text) {
			res.say(msgInvalidName)
			res.say(msgAskNameAgain)
			return res
		}

		profile.Name = strings.TrimSpace(text)
		res.say(fmt.Sprintf("Oh, hey %s. Nice to see you here!", profile.Name))
		res.say(msgAskAddress)
		e.transition(conv, StepAskAddress)

	case StepAskAddress:
		if !validate.IsValidAddress(text) {
			res.say(msgInvalidAddress)
			return res
		}

		profile.Address = strings.TrimSpace(text)
		res.say(msgAskEmail)
		e.transition(conv, StepAskEmail)

	case StepAskEmail:
		if !validate.IsValidEmail(text) {
			res.say(msgInvalidEmail)
			return res
		}

		profile.Email = strings.TrimSpace(text)
		res.say(msgAskBook)
		e.transition(conv, StepAskBook)

	case StepAskBook, StepPickingBook:
		e.pickBook(ctx, conv, text, res)

	case StepConfirmBook:
		e.confirmBook(conv, profile, text, res)

	case StepSummary:
		res.say(fmt.Sprintf(
			"Thank you for choosing my service. Summary of your info:\n%s\n%s\n%s\n%s",
			profile.Name, profile.Address, profile.Email, profile.Book,
		))
		res.say(msgThanks)

		res.Order = &CompletedOrder{
			Name:    profile.Name,
			Address: profile.Address,
			Email:   profile.Email,
			Book:    profile.Book,
		}

		// The machine is cyclic: reset the collected fields and restart the
		// dialog so the next order can begin immediately.
		profile.Reset()
		e.transition(conv, StepAskName)
		res.say(msgAskName)
	}

	return res
}

// pickBook resolves the requested title against the catalog. Entering from
// ask_book chains straight into picking_book within the same turn; any lookup
// failure falls back to ask_book with no mutation committed.
func (e *Engine) pickBook(ctx context.Context, conv *Conversation, text string, res *Result) {
	query := strings.TrimSpace(text)

	if conv.Step == StepAskBook {
		e.transition(conv, StepPickingBook)
	}

	volume, err := e.catalog.SearchBook(ctx, query)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrNoCoverImage):
			res.say(msgBookNotFound)
		default:
			res.say(msgLookupDown)
		}

		e.transition(conv, StepAskBook)
		return
	}

	res.show(Card{
		Title:    volume.Title,
		Subtitle: cardSubtitle,
		ImageURL: volume.ThumbnailURL,
		Actions:  []string{answerBuy},
	})
	res.say(msgConfirmBook)

	conv.PendingBook = titleCase(query)
	e.transition(conv, StepConfirmBook)
}

func (e *Engine) confirmBook(conv *Conversation, profile *Profile, text string, res *Result) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case answerBuy:
		profile.Book = conv.PendingBook
		conv.PendingBook = ""
		res.say(msgReady)
		e.transition(conv, StepSummary)
	case answerNo:
		res.say(msgAskBookAgain)
		e.transition(conv, StepPickingBook)
	default:
		res.say(msgConfirmRepeat)
	}
}

func (e *Engine) transition(conv *Conversation, to Step) {
	transitionRecorder(string(conv.Step), string(to))
	conv.Step = to
}

// titleCase capitalizes the first rune of the query, matching how the pending
// title is presented back to the customer.
func titleCase(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}

	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
