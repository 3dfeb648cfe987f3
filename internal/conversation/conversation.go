// Package conversation implements the per-user form state machine for menu
// driven flows. Transitions are pure functions over a Session, so the flows
// are testable without a live Telegram event loop; handlers translate the
// typed prompts into configured message texts.
package conversation

import (
	"fmt"
	"strings"
	"sync"
)

// State names one step of an in-flight conversation. A user has exactly one
// active state at a time; idle means no flow is running.
type State string

const (
	StateIdle                State = ""
	StateAwaitingQuestion    State = "awaiting_question"
	StateAwaitingName        State = "awaiting_name"
	StateAwaitingOrderNumber State = "awaiting_order_number"

	// Admin-side flows, driven directly by the handlers.
	StateAwaitingBroadcastContent State = "awaiting_broadcast_content"
	StateAwaitingArrivalPhoto     State = "awaiting_arrival_photo"
	StateAwaitingArrivalTitle     State = "awaiting_arrival_title"
	StateAwaitingArrivalPrice     State = "awaiting_arrival_price"
)

// FormKind identifies which customer flow is being filled in.
type FormKind string

const (
	FormQuestion FormKind = "question"
	FormTracking FormKind = "tracking"
	FormInvoice  FormKind = "invoice"
)

// CancelText is the menu button that aborts any active flow.
const CancelText = "❌ Скасувати"

// Session is the transient per-conversation form state. It is cleared on
// completion or cancellation and has no cross-user visibility.
type Session struct {
	State State
	Form  FormKind

	// Customer form fields.
	Name        string
	OrderNumber string

	// Arrival builder draft.
	PhotoID string
	Title   string
	Price   string
}

// Input is one inbound message reduced to the text the customer flows read.
// Photo-bearing admin steps are driven directly by the handlers.
type Input struct {
	Text string
}

// Prompt tells the handler which configured message to send next.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptAskQuestion
	PromptAskName
	PromptAskOrderNumber
	PromptAccepted
	PromptCancelled
)

// Result describes the outcome of applying one input to a session.
type Result struct {
	Prompt Prompt
	Done   bool

	// InquiryBody is set on the terminal transition of a customer flow and
	// becomes the operator thread body.
	InquiryBody string
}

// Start begins a customer flow and returns the session plus the first prompt.
func Start(kind FormKind) (Session, Prompt) {
	switch kind {
	case FormQuestion:
		return Session{State: StateAwaitingQuestion, Form: kind}, PromptAskQuestion
	default:
		return Session{State: StateAwaitingName, Form: kind}, PromptAskName
	}
}

// Advance applies one user input to an active customer form session and
// returns the updated session with the transition result. Each transition
// emits exactly one prompt; terminal transitions also carry the inquiry body.
func Advance(sess Session, in Input) (Session, Result) {
	if strings.TrimSpace(in.Text) == CancelText {
		return Session{}, Result{Prompt: PromptCancelled, Done: true}
	}

	text := strings.TrimSpace(in.Text)

	switch sess.State {
	case StateAwaitingQuestion:
		if text == "" {
			return sess, Result{Prompt: PromptAskQuestion}
		}
		return Session{}, Result{
			Prompt:      PromptAccepted,
			Done:        true,
			InquiryBody: text,
		}

	case StateAwaitingName:
		if text == "" {
			return sess, Result{Prompt: PromptAskName}
		}
		sess.Name = text
		sess.State = StateAwaitingOrderNumber
		return sess, Result{Prompt: PromptAskOrderNumber}

	case StateAwaitingOrderNumber:
		if text == "" {
			return sess, Result{Prompt: PromptAskOrderNumber}
		}
		sess.OrderNumber = text
		body := fmt.Sprintf("%s\nІм'я: %s\nНомер замовлення: %s", formLabel(sess.Form), sess.Name, sess.OrderNumber)
		return Session{}, Result{
			Prompt:      PromptAccepted,
			Done:        true,
			InquiryBody: body,
		}
	}

	return sess, Result{}
}

func formLabel(kind FormKind) string {
	switch kind {
	case FormTracking:
		return "Запит ТТН"
	case FormInvoice:
		return "Запит рахунку-фактури"
	default:
		return "Запит"
	}
}

// Manager keeps one Session per user conversation. The bot framework may
// dispatch handlers concurrently, so access is guarded.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]Session)}
}

// Get returns a copy of the user's session; idle if none is active.
func (m *Manager) Get(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// Set stores the user's session.
func (m *Manager) Set(userID int64, sess Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = sess
}

// Clear removes any active session for the user.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
