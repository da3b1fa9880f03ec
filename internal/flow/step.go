// Package flow implements the step state machine driving the book ordering dialog.
package flow

// Step represents a discrete phase of the ordering dialog.
type Step string

const (
	// StepAskName indicates that the bot is waiting for the customer's name.
	StepAskName Step = "ask_name"
	// StepAskAddress indicates that the bot is waiting for the shipping address.
	StepAskAddress Step = "ask_address"
	// StepAskEmail indicates that the bot is waiting for the contact email.
	StepAskEmail Step = "ask_email"
	// StepAskBook indicates that the bot is waiting for a book title to search for.
	StepAskBook Step = "ask_book"
	// StepPickingBook indicates that a catalog lookup for the requested title is in flight.
	StepPickingBook Step = "picking_book"
	// StepConfirmBook indicates that the bot is waiting for the customer to confirm the found book.
	StepConfirmBook Step = "confirm_book"
	// StepSummary indicates that the order is complete and the next turn emits the summary.
	StepSummary Step = "summary"
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe step transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// validTransitions contains the permitted transitions of the ordering dialog.
// Failed validation keeps the conversation on its current step, so self loops
// are implicit and not listed.
var validTransitions = map[Step][]Step{
	StepAskName: {
		StepAskAddress,
	},
	StepAskAddress: {
		StepAskEmail,
	},
	StepAskEmail: {
		StepAskBook,
	},
	StepAskBook: {
		StepPickingBook,
	},
	StepPickingBook: {
		StepConfirmBook,
		StepAskBook,
	},
	StepConfirmBook: {
		StepSummary,
		StepPickingBook,
	},
	StepSummary: {
		StepAskName,
	},
}

// IsTransitionAllowed reports whether moving from one step to another is valid.
func IsTransitionAllowed(from, to Step) bool {
	if from == to {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, step := range allowed {
		if step == to {
			return true
		}
	}

	return false
}
