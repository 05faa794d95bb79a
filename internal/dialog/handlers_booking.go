package dialog

import "fmt"

// gateBooking runs the profile gate for a booking-like action. It returns a
// handled re-prompt for the first unmet mandatory field, carrying the intent
// forward so the flow resumes once onboarding is satisfied, or nil when the
// profile is ready.
func (e *Engine) gateBooking(in Input, intent Intent) *FlowResult {
	field, missing := NextMissingField(in.Profile)
	if !missing {
		return nil
	}
	data := StateData{Intent: intent, OnboardingReasonSatisfied: in.StateData.OnboardingReasonSatisfied}
	return &FlowResult{
		Handled:   true,
		Reply:     "Antes de darte el turno necesito completar tus datos. " + promptForField(field),
		NextState: stateForField(field),
		StateData: &data,
	}
}

// requireFreshReason decides whether this booking must collect a new consult
// reason at slot time: health businesses always want a per-appointment
// reason unless one was just collected in this session's onboarding.
func requireFreshReason(in Input) bool {
	return in.Category.collectsConsultReason() && !in.StateData.OnboardingReasonSatisfied
}

// branchNewBooking is option A: gate the profile, group the calendar, and
// open day selection.
func (e *Engine) branchNewBooking(in Input) FlowResult {
	if gated := e.gateBooking(in, IntentBook); gated != nil {
		return *gated
	}
	return e.startBooking(in, "")
}

// startBooking opens day selection for a book intent. replyPrefix lets
// onboarding completion thank the user before showing days.
func (e *Engine) startBooking(in Input, replyPrefix string) FlowResult {
	if len(in.Slots) == 0 {
		return showBookingMenu(joinReply(replyPrefix, replyNoSlots), in.StateData)
	}
	days := GroupSlotsByDay(in.Slots, in.Timezone)
	if len(days) == 0 {
		return showBookingMenu(joinReply(replyPrefix, replyNoSlots), in.StateData)
	}
	data := StateData{
		Intent:                    IntentBook,
		PendingDays:               days,
		RequireFreshReason:        requireFreshReason(in),
		OnboardingReasonSatisfied: in.StateData.OnboardingReasonSatisfied,
	}
	return FlowResult{
		Handled:   true,
		Reply:     joinReply(replyPrefix, "Estos son los días con turnos disponibles."),
		Menu:      DayMenu(days, IntentBook),
		NextState: StateBookingChooseDay,
		StateData: &data,
	}
}

// branchReschedule is option B: requires an active appointment and open
// slots.
func (e *Engine) branchReschedule(in Input) FlowResult {
	if in.ActiveAppointment == nil {
		return showBookingMenu(replyNoAppointmentToMove, in.StateData)
	}
	if len(in.Slots) == 0 {
		return showBookingMenu(replyNoSlots, in.StateData)
	}
	days := GroupSlotsByDay(in.Slots, in.Timezone)
	if len(days) == 0 {
		return showBookingMenu(replyNoSlots, in.StateData)
	}
	data := StateData{
		Intent:                    IntentReschedule,
		PendingDays:               days,
		RescheduleAppointmentID:   in.ActiveAppointment.ID,
		OnboardingReasonSatisfied: in.StateData.OnboardingReasonSatisfied,
	}
	return FlowResult{
		Handled:   true,
		Reply:     fmt.Sprintf("Vamos a reprogramar tu turno (%s). Elegí un nuevo día.", in.ActiveAppointment.Label),
		Menu:      DayMenu(days, IntentReschedule),
		NextState: StateBookingChooseDay,
		StateData: &data,
	}
}

// branchCancel is option C: requires an active appointment; the actual
// cancellation waits for explicit confirmation.
func (e *Engine) branchCancel(in Input) FlowResult {
	if in.ActiveAppointment == nil {
		return showBookingMenu(replyNoAppointmentToCancel, in.StateData)
	}
	data := StateData{
		Intent:                    IntentCancel,
		RescheduleAppointmentID:   in.ActiveAppointment.ID,
		OnboardingReasonSatisfied: in.StateData.OnboardingReasonSatisfied,
	}
	return FlowResult{
		Handled:   true,
		Reply:     confirmCancelPrompt(in.ActiveAppointment.Label),
		NextState: StateBookingConfirm,
		StateData: &data,
	}
}

// branchUpload is option D: document upload mode needs a fully complete
// profile first.
func (e *Engine) branchUpload(in Input) FlowResult {
	if !in.Profile.Complete() {
		gated := e.gateBooking(in, "")
		gated.Reply = replyUploadNeedsProfile + " " + gated.Reply
		return *gated
	}
	return FlowResult{
		Handled:   true,
		Reply:     replyUploadInstructions,
		NextState: StateUploadWaiting,
	}
}

// handleBookingMenu routes the four main-menu branches.
func (e *Engine) handleBookingMenu(in Input, norm string) FlowResult {
	if intent, ok := ClassifyQuickIntent(norm); ok {
		return e.enterBookingBranch(in, intent)
	}
	opt, ok := MatchOption(norm, BookingMenu().Options)
	if !ok {
		return showBookingMenu(replyMenuFallback, in.StateData)
	}
	switch opt.ID {
	case bookingOptNew:
		return e.branchNewBooking(in)
	case bookingOptReschedule:
		return e.branchReschedule(in)
	case bookingOptCancel:
		return e.branchCancel(in)
	case bookingOptUpload:
		return e.branchUpload(in)
	}
	return showBookingMenu(replyMenuFallback, in.StateData)
}

// handleChooseDay matches a day option, regroups its slots, and advances to
// slot selection.
func (e *Engine) handleChooseDay(in Input, norm string) FlowResult {
	data := in.StateData
	if len(data.PendingDays) == 0 {
		return showBookingMenu(replyMenuFallback, data)
	}
	if isBackCommand(norm) {
		return showBookingMenu("Volvemos al menú.", data)
	}
	if intent, ok := ClassifyQuickIntent(norm); ok {
		return e.enterBookingBranch(in, intent)
	}

	opt, ok := MatchOption(norm, dayMenuOptions(data.PendingDays))
	if !ok {
		return FlowResult{
			Handled:   true,
			Reply:     "No encontré esa opción.",
			Menu:      DayMenu(data.PendingDays, data.Intent),
			NextState: StateBookingChooseDay,
			StateData: &data,
		}
	}

	var day DayOption
	for _, d := range data.PendingDays {
		if d.ID == opt.ID {
			day = d
			break
		}
	}

	slots := SlotOptionsForDay(in.Slots, day.DateISO, in.Timezone)
	if len(slots) == 0 {
		// the day filled up between turns; rebuild the day list
		days := GroupSlotsByDay(in.Slots, in.Timezone)
		if len(days) == 0 {
			return showBookingMenu(replyNoSlots, data)
		}
		data.PendingDays = days
		return FlowResult{
			Handled:   true,
			Reply:     "Justo se ocuparon los turnos de ese día. Estos son los días que quedan.",
			Menu:      DayMenu(days, data.Intent),
			NextState: StateBookingChooseDay,
			StateData: &data,
		}
	}

	data.SelectedDayISO = day.DateISO
	data.PendingSlots = slots
	return FlowResult{
		Handled:   true,
		Reply:     fmt.Sprintf("Horarios disponibles para %s.", day.Label),
		Menu:      SlotMenu(day.Label, slots),
		NextState: StateBookingChooseSlot,
		StateData: &data,
	}
}

// handleChooseSlot matches a slot option and either books directly, defers
// to the reason step, or emits the reschedule request.
func (e *Engine) handleChooseSlot(in Input, norm string) FlowResult {
	data := in.StateData
	if len(data.PendingSlots) == 0 {
		return showBookingMenu(replyMenuFallback, data)
	}
	if isBackCommand(norm) {
		days := GroupSlotsByDay(in.Slots, in.Timezone)
		if len(days) == 0 {
			return showBookingMenu(replyNoSlots, data)
		}
		data.PendingDays = days
		data.PendingSlots = nil
		data.SelectedDayISO = ""
		return FlowResult{
			Handled:   true,
			Reply:     "Elegí otro día.",
			Menu:      DayMenu(days, data.Intent),
			NextState: StateBookingChooseDay,
			StateData: &data,
		}
	}
	if intent, ok := ClassifyQuickIntent(norm); ok {
		return e.enterBookingBranch(in, intent)
	}

	opt, ok := MatchOption(norm, slotMenuOptions(data.PendingSlots))
	if !ok {
		return FlowResult{
			Handled:   true,
			Reply:     "No encontré ese horario.",
			Menu:      SlotMenu(dayLabelFor(data.SelectedDayISO, in.Timezone), data.PendingSlots),
			NextState: StateBookingChooseSlot,
			StateData: &data,
		}
	}

	var slot SlotOption
	for _, s := range data.PendingSlots {
		if s.ID == opt.ID {
			slot = s
			break
		}
	}
	fullLabel := fmt.Sprintf("%s a las %s", dayLabelFor(data.SelectedDayISO, in.Timezone), slot.Label)

	if data.Intent == IntentReschedule {
		res := showBookingMenu(rescheduleConfirmedReply(fullLabel), data)
		res.Booking = &BookingRequest{
			Type:          BookingTypeReschedule,
			SlotISO:       slot.StartISO,
			SlotLabel:     fullLabel,
			AppointmentID: data.RescheduleAppointmentID,
		}
		return res
	}

	// book intent: a saved reason is enough unless this booking demands a
	// fresh one
	if !data.RequireFreshReason && in.Profile.ConsultReason != "" {
		res := showBookingMenu(bookingConfirmedReply(fullLabel), data)
		res.Booking = &BookingRequest{
			Type:      BookingTypeBook,
			SlotISO:   slot.StartISO,
			SlotLabel: fullLabel,
		}
		return res
	}

	data.PendingReasonSlot = &PendingSlot{StartISO: slot.StartISO, Label: fullLabel}
	return FlowResult{
		Handled:   true,
		Reply:     fmt.Sprintf("Último paso para reservar %s: contame brevemente el motivo de la consulta.", fullLabel),
		NextState: StateProfileReason,
		StateData: &data,
	}
}

// handleConfirm resolves the cancel confirmation step.
func (e *Engine) handleConfirm(in Input, norm string) FlowResult {
	data := in.StateData
	if data.Intent != IntentCancel || data.RescheduleAppointmentID == "" {
		return showBookingMenu(replyMenuFallback, data)
	}
	if isAffirmative(norm) {
		res := showBookingMenu(cancelConfirmedReply, data)
		res.Cancel = &CancelRequest{AppointmentID: data.RescheduleAppointmentID}
		return res
	}
	if isNegative(norm) || isBackCommand(norm) {
		return showBookingMenu(cancelAbortedReply, data)
	}
	if intent, ok := ClassifyQuickIntent(norm); ok && intent == QuickMenu {
		return showBookingMenu(cancelAbortedReply, data)
	}
	return FlowResult{
		Handled:   true,
		Reply:     confirmCancelPrompt(""),
		NextState: StateBookingConfirm,
		StateData: &data,
	}
}

// handleUpload keeps the conversation parked while documents arrive out of
// band; only a menu/back keyword leaves the state.
func (e *Engine) handleUpload(in Input, norm string) FlowResult {
	if isBackCommand(norm) {
		return showBookingMenu("Volvemos al menú.", in.StateData)
	}
	if intent, ok := ClassifyQuickIntent(norm); ok && intent == QuickMenu {
		return showBookingMenu("Volvemos al menú.", in.StateData)
	}
	data := in.StateData
	return FlowResult{
		Handled:   true,
		Reply:     replyUploadInstructions,
		NextState: StateUploadWaiting,
		StateData: &data,
	}
}

// joinReply concatenates an optional prefix with the main reply.
func joinReply(prefix, reply string) string {
	if prefix == "" {
		return reply
	}
	return prefix + " " + reply
}
