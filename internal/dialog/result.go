package dialog

// BookingType distinguishes a first booking from a reschedule of an existing
// appointment.
type BookingType string

const (
	BookingTypeBook       BookingType = "book"
	BookingTypeReschedule BookingType = "reschedule"
)

// BookingRequest instructs the scheduling store to create or move an
// appointment. The engine never calls the store; conflict detection is the
// caller's responsibility.
type BookingRequest struct {
	Type          BookingType `json:"type"`
	SlotISO       string      `json:"slotISO"`
	SlotLabel     string      `json:"slotLabel"`
	AppointmentID string      `json:"appointmentId,omitempty"`
}

// CancelRequest instructs the scheduling store to cancel an appointment.
type CancelRequest struct {
	AppointmentID string `json:"appointmentId"`
}

// ProfilePatch carries field-level profile updates for the external patient
// store. Nil pointers leave the field untouched; the Needs flags re-arm or
// clear the corresponding onboarding requirement.
type ProfilePatch struct {
	FullName      *string
	DNI           *string
	BirthDate     *string
	Address       *string
	Insurance     *string
	ConsultReason *string

	NeedsName          *bool
	NeedsDNI           *bool
	NeedsBirthDate     *bool
	NeedsAddress       *bool
	NeedsInsurance     *bool
	NeedsConsultReason *bool
}

// FlowResult is what one engine invocation tells the caller to do. A zero
// value (Handled false) defers the message to the external generative agent.
// At most one of Booking/Cancel is set per result. A nil StateData means
// "clear working memory".
type FlowResult struct {
	Handled   bool
	Reply     string
	Menu      *MenuTemplate
	NextState ConversationState
	StateData *StateData

	ProfilePatch       *ProfilePatch
	Booking            *BookingRequest
	Cancel             *CancelRequest
	MergeWithPatientID string
}

// Unhandled signals the caller to route the message to the fallback agent.
func Unhandled() FlowResult {
	return FlowResult{}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
