package dialog

// ResolveState computes the effective state from the persisted state, the
// live profile flags, and the working memory. Precedence, highest first:
//
//  1. WELCOME stays WELCOME so first contact always greets.
//  2. Any unmet mandatory profile field forces its PROFILE_* state,
//     regardless of what is persisted — onboarding interrupts booking.
//  3. A slot- or day-selection state whose candidate options evaporated
//     falls back to BOOKING_MENU (staleness guard).
//  4. Otherwise the persisted state stands.
func ResolveState(profile ProfileSnapshot, state ConversationState, data StateData) ConversationState {
	if state == StateWelcome {
		return StateWelcome
	}
	if field, missing := NextMissingField(profile); missing {
		return stateForField(field)
	}
	if state == StateProfileReason && data.PendingReasonSlot != nil {
		// a booking is waiting on its consult reason
		return StateProfileReason
	}
	if state.IsOnboarding() {
		// an onboarding state with nothing left to collect is stale
		return StateBookingMenu
	}
	if state == StateBookingChooseSlot && len(data.PendingSlots) == 0 {
		return StateBookingMenu
	}
	if state == StateBookingChooseDay && len(data.PendingDays) == 0 {
		return StateBookingMenu
	}
	return state
}
