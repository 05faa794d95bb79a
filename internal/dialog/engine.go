package dialog

import (
	"context"
	"strings"
	"time"
)

// BusinessCategory selects which domain rules apply to the conversation.
type BusinessCategory string

const (
	CategoryHealth BusinessCategory = "health"
	CategoryShop   BusinessCategory = "shop"
)

// UsesScheduling reports whether the category runs the scheduling flow at
// all; anything else is deferred to the fallback agent untouched.
func (c BusinessCategory) UsesScheduling() bool {
	return c == CategoryHealth || c == CategoryShop
}

// collectsConsultReason reports whether the category asks for a consult
// reason. Shops never do.
func (c BusinessCategory) collectsConsultReason() bool {
	return c == CategoryHealth
}

// Appointment is the active appointment summary owned by the external
// scheduling store.
type Appointment struct {
	ID    string
	Label string
}

// DuplicateLookup resolves a DNI to an existing profile, or nil. Used solely
// by the DNI handler to detect cross-record duplicates.
type DuplicateLookup func(ctx context.Context, dni string) (*ProfileSnapshot, error)

// Input is everything one invocation may read. All fields are snapshots,
// immutable for the duration of the call.
type Input struct {
	Text              string
	State             ConversationState
	StateData         StateData
	Profile           ProfileSnapshot
	Slots             []CalendarSlot
	ActiveAppointment *Appointment
	Timezone          string
	Category          BusinessCategory
}

// Engine is the dialogue state machine. It holds no per-conversation state;
// it is safe to share across goroutines.
type Engine struct {
	findByDNI DuplicateLookup
	now       func() time.Time
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithDuplicateLookup enables cross-record duplicate detection on the DNI
// step.
func WithDuplicateLookup(fn DuplicateLookup) EngineOption {
	return func(e *Engine) { e.findByDNI = fn }
}

// WithClock injects the time source, for deterministic birth-date tests.
func WithClock(fn func() time.Time) EngineOption {
	return func(e *Engine) { e.now = fn }
}

// NewEngine creates the state machine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle is the top-level entry point: one inbound message in, one
// FlowResult out. It never returns an error — every parse failure becomes a
// corrective re-prompt, and anything the machine does not recognize comes
// back as Unhandled for the generative fallback.
func (e *Engine) Handle(ctx context.Context, in Input) FlowResult {
	if !in.Category.UsesScheduling() {
		return Unhandled()
	}
	raw := strings.TrimSpace(in.Text)
	if raw == "" {
		return Unhandled()
	}
	norm := Normalize(raw)

	state := ResolveState(in.Profile, in.State, in.StateData)
	_, profilePending := NextMissingField(in.Profile)

	// Open-ended questions go to the fallback agent, but never while a
	// profile field or an upload is pending: those states own the turn.
	if !state.IsOnboarding() && state != StateUploadWaiting && !profilePending && isGeneralQuestion(raw, norm) {
		return Unhandled()
	}

	if (state == StateBookingMenu || state == StateFreeChat) && !profilePending && isAcknowledgement(raw, norm) {
		data := in.StateData
		return FlowResult{Handled: true, Reply: replyAck, NextState: state, StateData: &data}
	}

	switch state {
	case StateWelcome:
		return e.handleWelcome(in, norm)
	case StateProfileMenu:
		return e.handleProfileMenu(in, norm)
	case StateProfileDNI:
		return e.handleProfileField(ctx, in, raw, norm, FieldDNI)
	case StateProfileName:
		return e.handleProfileField(ctx, in, raw, norm, FieldName)
	case StateProfileBirthDate:
		return e.handleProfileField(ctx, in, raw, norm, FieldBirthDate)
	case StateProfileAddress:
		return e.handleProfileField(ctx, in, raw, norm, FieldAddress)
	case StateProfileInsurance:
		return e.handleProfileField(ctx, in, raw, norm, FieldInsurance)
	case StateProfileReason:
		return e.handleReason(ctx, in, raw, norm)
	case StateBookingMenu:
		return e.handleBookingMenu(in, norm)
	case StateBookingChooseDay:
		return e.handleChooseDay(in, norm)
	case StateBookingChooseSlot:
		return e.handleChooseSlot(in, norm)
	case StateBookingConfirm:
		return e.handleConfirm(in, norm)
	case StateUploadWaiting:
		return e.handleUpload(in, norm)
	case StateFreeChat:
		return e.handleFreeChat(in, norm)
	}
	return Unhandled()
}

// handleWelcome greets on first contact and immediately opens either the
// first onboarding prompt or the booking menu. A booking request in the very
// first message is remembered so the flow resumes once onboarding finishes.
func (e *Engine) handleWelcome(in Input, norm string) FlowResult {
	if field, missing := NextMissingField(in.Profile); missing {
		res := FlowResult{
			Handled:   true,
			Reply:     replyWelcome + " " + promptForField(field),
			NextState: stateForField(field),
		}
		if intent, ok := ClassifyQuickIntent(norm); ok && intent == QuickBook {
			res.StateData = &StateData{Intent: IntentBook}
		}
		return res
	}
	if intent, ok := ClassifyQuickIntent(norm); ok {
		return e.enterBookingBranch(in, intent)
	}
	return FlowResult{
		Handled:   true,
		Reply:     replyWelcome,
		Menu:      BookingMenu(),
		NextState: StateBookingMenu,
	}
}

// handleFreeChat only recognizes quick intents; everything else belongs to
// the fallback agent.
func (e *Engine) handleFreeChat(in Input, norm string) FlowResult {
	if intent, ok := ClassifyQuickIntent(norm); ok {
		return e.enterBookingBranch(in, intent)
	}
	return Unhandled()
}

// showBookingMenu resets the conversation to the main menu with cleared
// working memory, optionally keeping the session-scoped reason flag.
func showBookingMenu(reply string, keep StateData) FlowResult {
	if reply == "" {
		reply = "Estas son las opciones:"
	}
	data := StateData{OnboardingReasonSatisfied: keep.OnboardingReasonSatisfied}
	res := FlowResult{
		Handled:   true,
		Reply:     reply,
		Menu:      BookingMenu(),
		NextState: StateBookingMenu,
	}
	if !data.IsZero() {
		res.StateData = &data
	}
	return res
}

// enterBookingBranch reroutes a quick intent into the booking menu's
// corresponding branch, exactly as if the user had picked the letter.
func (e *Engine) enterBookingBranch(in Input, intent QuickIntent) FlowResult {
	switch intent {
	case QuickBook:
		return e.branchNewBooking(in)
	case QuickReschedule:
		return e.branchReschedule(in)
	case QuickCancel:
		return e.branchCancel(in)
	default:
		return showBookingMenu("", in.StateData)
	}
}
