// Package dialog implements the conversational scheduling state machine.
//
// The engine is a pure function of its inputs: given the persisted
// conversation state, a normalized inbound message, and a snapshot of domain
// context (profile, calendar slots, active appointment), it returns what
// should happen next — reply, menu, state transition, and at most one
// side-effecting request. Persistence and message delivery belong to the
// caller.
package dialog

import "encoding/json"

// ConversationState is the durable position of a conversation. Exactly one
// value is current per conversation at any time.
type ConversationState string

const (
	StateWelcome           ConversationState = "WELCOME"
	StateProfileMenu       ConversationState = "PROFILE_MENU"
	StateProfileDNI        ConversationState = "PROFILE_DNI"
	StateProfileName       ConversationState = "PROFILE_NAME"
	StateProfileBirthDate  ConversationState = "PROFILE_BIRTHDATE"
	StateProfileAddress    ConversationState = "PROFILE_ADDRESS"
	StateProfileInsurance  ConversationState = "PROFILE_INSURANCE"
	StateProfileReason     ConversationState = "PROFILE_REASON"
	StateBookingMenu       ConversationState = "BOOKING_MENU"
	StateBookingChooseDay  ConversationState = "BOOKING_CHOOSE_DAY"
	StateBookingChooseSlot ConversationState = "BOOKING_CHOOSE_SLOT"
	StateBookingConfirm    ConversationState = "BOOKING_CONFIRM"
	StateUploadWaiting     ConversationState = "UPLOAD_WAITING"
	StateFreeChat          ConversationState = "FREE_CHAT"
)

// ParseState maps a stored string to a ConversationState. Unknown values are
// reported so the dispatcher can defer them to the fallback agent instead of
// guessing.
func ParseState(s string) (ConversationState, bool) {
	switch st := ConversationState(s); st {
	case StateWelcome, StateProfileMenu, StateProfileDNI, StateProfileName,
		StateProfileBirthDate, StateProfileAddress, StateProfileInsurance,
		StateProfileReason, StateBookingMenu, StateBookingChooseDay,
		StateBookingChooseSlot, StateBookingConfirm, StateUploadWaiting,
		StateFreeChat:
		return st, true
	}
	return StateFreeChat, false
}

// IsOnboarding reports whether the state collects a profile field.
func (s ConversationState) IsOnboarding() bool {
	switch s {
	case StateProfileDNI, StateProfileName, StateProfileBirthDate,
		StateProfileAddress, StateProfileInsurance, StateProfileReason:
		return true
	}
	return false
}

// Intent is the booking-like action being carried through a multi-step flow.
type Intent string

const (
	IntentBook       Intent = "book"
	IntentReschedule Intent = "reschedule"
	IntentCancel     Intent = "cancel"
)

// DayOption is a selectable day produced by the calendar grouper.
type DayOption struct {
	ID      string   `json:"id"`
	DateISO string   `json:"dateISO"`
	Label   string   `json:"label"`
	Aliases []string `json:"aliases,omitempty"`
}

// SlotOption is a selectable slot within a chosen day.
type SlotOption struct {
	ID       string   `json:"id"`
	StartISO string   `json:"startISO"`
	Label    string   `json:"label"`
	Aliases  []string `json:"aliases,omitempty"`
}

// PendingSlot is a slot held while a consult reason is collected to complete
// the booking.
type PendingSlot struct {
	StartISO string `json:"startISO"`
	Label    string `json:"label"`
}

// StateData is the ephemeral working memory carried between turns of a
// multi-step flow. It is opaque JSON on the conversation record and is only
// trusted after DecodeStateData rehydrates it for the active state.
type StateData struct {
	Intent                    Intent       `json:"intent,omitempty"`
	PendingDays               []DayOption  `json:"pendingDays,omitempty"`
	PendingSlots              []SlotOption `json:"pendingSlots,omitempty"`
	SelectedDayISO            string       `json:"selectedDayISO,omitempty"`
	RescheduleAppointmentID   string       `json:"rescheduleAppointmentId,omitempty"`
	PendingReasonSlot         *PendingSlot `json:"pendingReasonSlot,omitempty"`
	RequireFreshReason        bool         `json:"requireFreshReason,omitempty"`
	OnboardingReasonSatisfied bool         `json:"onboardingReasonSatisfied,omitempty"`
}

// DecodeStateData rehydrates working memory from its persisted form and drops
// fields that are meaningless for the active state, so a corrupted or stale
// blob can never trap the conversation. A decode failure yields empty memory,
// which the staleness guards then resolve to the booking menu.
func DecodeStateData(raw []byte, state ConversationState) StateData {
	var d StateData
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d); err != nil {
			return StateData{}
		}
	}

	switch state {
	case StateBookingChooseDay:
		d.PendingSlots = nil
		d.SelectedDayISO = ""
		d.PendingReasonSlot = nil
	case StateBookingChooseSlot:
		d.PendingReasonSlot = nil
	case StateBookingConfirm:
		d.PendingDays = nil
		d.PendingSlots = nil
		d.PendingReasonSlot = nil
	case StateProfileReason:
		// keeps PendingReasonSlot and PendingSlots for the back-command
	default:
		if state.IsOnboarding() || state == StateBookingMenu {
			d.PendingDays = nil
			d.PendingSlots = nil
			d.SelectedDayISO = ""
			d.PendingReasonSlot = nil
		}
	}
	return d
}

// Encode serializes working memory for persistence.
func (d StateData) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// IsZero reports whether the working memory carries nothing.
func (d StateData) IsZero() bool {
	return d.Intent == "" && len(d.PendingDays) == 0 && len(d.PendingSlots) == 0 &&
		d.SelectedDayISO == "" && d.RescheduleAppointmentID == "" &&
		d.PendingReasonSlot == nil && !d.RequireFreshReason && !d.OnboardingReasonSatisfied
}
