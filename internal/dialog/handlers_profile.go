package dialog

import (
	"context"
	"fmt"
)

// restartPatch re-arms the onboarding flags for a full restart triggered by
// the menu keyword mid-onboarding. DNI is never re-armed; a confirmed name
// is replaced by a placeholder so the name step re-runs; the consult reason
// is only re-armed for categories that collect one.
func restartPatch(in Input) *ProfilePatch {
	patch := &ProfilePatch{
		NeedsName:      boolPtr(true),
		NeedsBirthDate: boolPtr(true),
		NeedsAddress:   boolPtr(true),
		NeedsInsurance: boolPtr(true),
	}
	if in.Category.collectsConsultReason() {
		patch.NeedsConsultReason = boolPtr(true)
	}
	if in.Profile.FullName != "" && !in.Profile.NeedsName {
		patch.FullName = strPtr(placeholderName)
	}
	return patch
}

// handleProfileField is the shared onboarding transition: menu restarts,
// menu-looking replies re-prompt, and a field-specific parse advances to the
// next unmet field or back into the booking flow.
func (e *Engine) handleProfileField(ctx context.Context, in Input, raw, norm string, field ProfileField) FlowResult {
	if intent, ok := ClassifyQuickIntent(norm); ok && intent == QuickMenu {
		res := showBookingMenu("Listo, dejamos tus datos para después.", StateData{})
		res.ProfilePatch = restartPatch(in)
		return res
	}
	if looksLikeMenuReply(norm) {
		return e.repromptField(in, field, promptForField(field))
	}

	switch field {
	case FieldDNI:
		return e.acceptDNI(ctx, in, raw)
	case FieldName:
		value, ok := ParseFullName(raw)
		if !ok {
			return e.repromptField(in, field, retryPromptForField(field))
		}
		patch := &ProfilePatch{FullName: strPtr(value), NeedsName: boolPtr(false)}
		return e.advanceOnboarding(in, field, value, patch, fmt.Sprintf("¡Gracias, %s!", firstName(value)))
	case FieldBirthDate:
		value, ok := ParseBirthDate(raw, e.now())
		if !ok {
			return e.repromptField(in, field, retryPromptForField(field))
		}
		patch := &ProfilePatch{BirthDate: strPtr(value), NeedsBirthDate: boolPtr(false)}
		return e.advanceOnboarding(in, field, value, patch, "Anotado.")
	case FieldAddress:
		value, ok := ParseAddress(raw)
		if !ok {
			return e.repromptField(in, field, retryPromptForField(field))
		}
		patch := &ProfilePatch{Address: strPtr(value), NeedsAddress: boolPtr(false)}
		return e.advanceOnboarding(in, field, value, patch, "Perfecto.")
	case FieldInsurance:
		value, ok := NormalizeInsurance(raw)
		if !ok {
			return e.repromptField(in, field, retryPromptForField(field))
		}
		patch := &ProfilePatch{Insurance: strPtr(value), NeedsInsurance: boolPtr(false)}
		return e.advanceOnboarding(in, field, value, patch, "Perfecto.")
	case FieldReason:
		if !validReasonText(raw) {
			return e.repromptField(in, field, retryPromptForField(field))
		}
		value, ok := NormalizeConsultReason(raw)
		if !ok {
			return e.repromptField(in, field, retryPromptForField(field))
		}
		patch := &ProfilePatch{ConsultReason: strPtr(value), NeedsConsultReason: boolPtr(false)}
		return e.advanceOnboarding(in, field, value, patch, "Gracias por contarme.")
	}
	return Unhandled()
}

// repromptField keeps the user on the same field with a corrective message,
// preserving working memory so a carried intent survives.
func (e *Engine) repromptField(in Input, field ProfileField, reply string) FlowResult {
	data := in.StateData
	return FlowResult{
		Handled:   true,
		Reply:     reply,
		NextState: stateForField(field),
		StateData: &data,
	}
}

// acceptDNI parses the DNI and short-circuits into the cross-record merge
// offer when another customer already owns it.
func (e *Engine) acceptDNI(ctx context.Context, in Input, raw string) FlowResult {
	dni, ok := ParseDNI(raw)
	if !ok {
		return e.repromptField(in, FieldDNI, retryPromptForField(FieldDNI))
	}

	patch := &ProfilePatch{DNI: strPtr(dni), NeedsDNI: boolPtr(false)}

	if e.findByDNI != nil {
		other, err := e.findByDNI(ctx, dni)
		// lookup failures degrade to the normal path; the DNI is still valid
		if err == nil && other != nil && other.ID != "" && other.ID != in.Profile.ID {
			return e.mergeIntoExisting(in, *other, dni, patch)
		}
	}

	return e.advanceOnboarding(in, FieldDNI, dni, patch, fmt.Sprintf("Gracias, registré el DNI %s.", formatDNI(dni)))
}

// mergeIntoExisting hands the conversation over to the record that already
// owns the DNI and continues that record's onboarding where it left off.
func (e *Engine) mergeIntoExisting(in Input, other ProfileSnapshot, dni string, patch *ProfilePatch) FlowResult {
	data := StateData{
		Intent:                    in.StateData.Intent,
		OnboardingReasonSatisfied: in.StateData.OnboardingReasonSatisfied,
	}
	reply := fmt.Sprintf("Encontré una ficha existente con el DNI %s, así que uso esa para no duplicar tus datos.", formatDNI(dni))

	if field, missing := NextMissingField(other); missing {
		return FlowResult{
			Handled:            true,
			Reply:              reply + " " + promptForField(field),
			NextState:          stateForField(field),
			StateData:          &data,
			ProfilePatch:       patch,
			MergeWithPatientID: other.ID,
		}
	}

	merged := in
	merged.Profile = other
	merged.StateData = data
	res := e.finishOnboarding(merged, reply)
	res.ProfilePatch = patch
	res.MergeWithPatientID = other.ID
	return res
}

// advanceOnboarding moves to the next unmet field after a successful parse,
// or closes onboarding when none remain.
func (e *Engine) advanceOnboarding(in Input, field ProfileField, value string, patch *ProfilePatch, ack string) FlowResult {
	updated := in.Profile.satisfy(field, value)
	data := in.StateData
	if field == FieldReason {
		data.OnboardingReasonSatisfied = true
	}

	if next, missing := NextMissingField(updated); missing {
		return FlowResult{
			Handled:      true,
			Reply:        ack + " " + promptForField(next),
			NextState:    stateForField(next),
			StateData:    &data,
			ProfilePatch: patch,
		}
	}

	done := in
	done.Profile = updated
	done.StateData = data
	res := e.finishOnboarding(done, ack+" Ya tengo todos tus datos.")
	res.ProfilePatch = patch
	return res
}

// finishOnboarding resumes the flow that onboarding interrupted: a carried
// book intent goes straight back into day selection, anything else lands on
// the booking menu.
func (e *Engine) finishOnboarding(in Input, replyPrefix string) FlowResult {
	if in.StateData.Intent == IntentBook {
		return e.startBooking(in, replyPrefix)
	}
	return showBookingMenu(replyPrefix, in.StateData)
}

// handleReason covers both PROFILE_REASON variants: collecting the consult
// reason that completes a pending booking, and the plain onboarding field.
func (e *Engine) handleReason(ctx context.Context, in Input, raw, norm string) FlowResult {
	slot := in.StateData.PendingReasonSlot
	if slot == nil {
		return e.handleProfileField(ctx, in, raw, norm, FieldReason)
	}

	if isBackCommand(norm) {
		data := in.StateData
		data.PendingReasonSlot = nil
		if len(data.PendingSlots) > 0 {
			return FlowResult{
				Handled:   true,
				Reply:     "Elegí otro horario.",
				Menu:      SlotMenu(dayLabelFor(data.SelectedDayISO, in.Timezone), data.PendingSlots),
				NextState: StateBookingChooseSlot,
				StateData: &data,
			}
		}
		return showBookingMenu("Volvemos al menú.", data)
	}
	if intent, ok := ClassifyQuickIntent(norm); ok && intent == QuickMenu {
		return showBookingMenu("Listo, dejamos la reserva para después.", in.StateData)
	}

	if looksLikeMenuReply(norm) || !validReasonText(raw) {
		data := in.StateData
		return FlowResult{
			Handled:   true,
			Reply:     retryPromptForField(FieldReason),
			NextState: StateProfileReason,
			StateData: &data,
		}
	}
	reason, ok := NormalizeConsultReason(raw)
	if !ok {
		data := in.StateData
		return FlowResult{
			Handled:   true,
			Reply:     retryPromptForField(FieldReason),
			NextState: StateProfileReason,
			StateData: &data,
		}
	}

	keep := in.StateData
	keep.OnboardingReasonSatisfied = true
	res := showBookingMenu(bookingConfirmedReply(slot.Label), keep)
	res.Booking = &BookingRequest{
		Type:      BookingTypeBook,
		SlotISO:   slot.StartISO,
		SlotLabel: slot.Label,
	}
	res.ProfilePatch = &ProfilePatch{ConsultReason: strPtr(reason), NeedsConsultReason: boolPtr(false)}
	return res
}

// handleProfileMenu is the small data submenu.
func (e *Engine) handleProfileMenu(in Input, norm string) FlowResult {
	if intent, ok := ClassifyQuickIntent(norm); ok && intent == QuickMenu {
		return showBookingMenu("", in.StateData)
	}
	opt, ok := MatchOption(norm, ProfileMenu().Options)
	if !ok {
		data := in.StateData
		return FlowResult{
			Handled:   true,
			Reply:     "No te entendí.",
			Menu:      ProfileMenu(),
			NextState: StateProfileMenu,
			StateData: &data,
		}
	}
	switch opt.ID {
	case "A":
		res := FlowResult{
			Handled:      true,
			Reply:        "Perfecto, actualicemos tus datos. " + promptForField(FieldName),
			NextState:    StateProfileName,
			ProfilePatch: restartPatch(in),
		}
		return res
	default:
		return showBookingMenu("", in.StateData)
	}
}
