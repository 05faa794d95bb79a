package dialog

import "fmt"

// Booking menu option ids. The four branches of the main menu are stable so
// keyword synonyms and quick intents can target them directly.
const (
	bookingOptNew        = "A"
	bookingOptReschedule = "B"
	bookingOptCancel     = "C"
	bookingOptUpload     = "D"
)

// BookingMenu assembles the main menu shown whenever the conversation is at
// rest. Synonyms land on the same branches as the letters.
func BookingMenu() *MenuTemplate {
	return &MenuTemplate{
		Title:  "¿En qué te puedo ayudar?",
		Prompt: "Elegí una opción respondiendo con la letra o el número.",
		Options: []MenuOption{
			{ID: bookingOptNew, Label: "Sacar un turno nuevo", Aliases: []string{"1", "turno nuevo", "nuevo turno", "sacar turno"}},
			{ID: bookingOptReschedule, Label: "Reprogramar mi turno", Aliases: []string{"2", "reprogramar", "reagendar", "cambiar turno"}},
			{ID: bookingOptCancel, Label: "Cancelar mi turno", Aliases: []string{"3", "cancelar", "anular"}},
			{ID: bookingOptUpload, Label: "Enviar estudios o documentación", Aliases: []string{"4", "enviar estudios", "subir archivo", "documentacion"}},
		},
		Hint: "También podés escribirme tu consulta y te respondo.",
	}
}

// DayMenu presents the generated day options for the active intent.
func DayMenu(days []DayOption, intent Intent) *MenuTemplate {
	title := "Días con turnos disponibles"
	if intent == IntentReschedule {
		title = "Días disponibles para reprogramar"
	}
	return &MenuTemplate{
		Title:   title,
		Prompt:  "¿Qué día te queda cómodo? Respondé con la letra o el número.",
		Options: dayMenuOptions(days),
		Hint:    "Escribí \"volver\" para ir al menú anterior.",
	}
}

// SlotMenu presents the per-slot options within a chosen day.
func SlotMenu(dayLabel string, slots []SlotOption) *MenuTemplate {
	return &MenuTemplate{
		Title:   fmt.Sprintf("Horarios para %s", dayLabel),
		Prompt:  "¿Qué horario preferís? Respondé con la letra o el número.",
		Options: slotMenuOptions(slots),
		Hint:    "Escribí \"volver\" para elegir otro día.",
	}
}

// ProfileMenu is the small profile submenu: restart data collection or go
// back to the main menu.
func ProfileMenu() *MenuTemplate {
	return &MenuTemplate{
		Title:  "Tus datos",
		Prompt: "¿Qué querés hacer?",
		Options: []MenuOption{
			{ID: "A", Label: "Actualizar mis datos", Aliases: []string{"1", "actualizar", "cambiar mis datos"}},
			{ID: "B", Label: "Volver al menú", Aliases: []string{"2", "volver", "menu"}},
		},
	}
}

// field prompts, one per onboarding state
var fieldPrompts = map[ProfileField]string{
	FieldDNI:       "Para continuar necesito tu DNI (solo números, sin puntos).",
	FieldName:      "¿Me decís tu nombre y apellido completos?",
	FieldBirthDate: "¿Cuál es tu fecha de nacimiento? (por ejemplo 25/04/1987)",
	FieldAddress:   "¿Cuál es tu domicilio? (calle y número, localidad)",
	FieldInsurance: "¿Tenés obra social o prepaga? Si no tenés, respondé \"particular\".",
	FieldReason:    "Contame brevemente el motivo de la consulta.",
}

// field re-prompts after a failed parse, corrective and state-preserving
var fieldRetryPrompts = map[ProfileField]string{
	FieldDNI:       "Ese DNI no parece válido. Necesito entre 7 y 10 números, sin puntos ni letras.",
	FieldName:      "Necesito tu nombre y apellido completos, por ejemplo \"María Gómez\".",
	FieldBirthDate: "No pude interpretar la fecha. Usá el formato día/mes/año, por ejemplo 25/04/1987.",
	FieldAddress:   "El domicilio quedó muy corto. Mandame calle, número y localidad.",
	FieldInsurance: "No te entendí. Decime el nombre de tu obra social o respondé \"particular\".",
	FieldReason:    "Contame en una frase el motivo de la consulta, así se lo paso al profesional.",
}

func promptForField(f ProfileField) string { return fieldPrompts[f] }

func retryPromptForField(f ProfileField) string { return fieldRetryPrompts[f] }

const (
	replyWelcome = "¡Hola! Soy el asistente de turnos. Te ayudo a sacar, reprogramar o cancelar un turno."

	replyAck = "¡De nada! Cualquier cosa escribime \"menu\" y te muestro las opciones."

	replyNoSlots = "Por ahora no tengo turnos disponibles para ofrecerte. Probá de nuevo más tarde o escribime tu consulta."

	replyNoAppointmentToMove = "No encontré ningún turno activo a tu nombre para reprogramar. Si querés, puedo darte un turno nuevo (opción A)."

	replyNoAppointmentToCancel = "No encontré ningún turno activo a tu nombre para cancelar."

	replyUploadInstructions = "Mandame los estudios o la documentación como foto o archivo adjunto en este mismo chat. Cuando termines, escribí \"menu\" para volver."

	replyUploadNeedsProfile = "Antes de recibir documentación necesito completar tus datos."

	replyMenuFallback = "No te entendí. Estas son las opciones:"
)

func confirmCancelPrompt(label string) string {
	if label == "" {
		return "¿Confirmás que querés cancelar tu turno? Respondé \"sí\" para confirmar o \"no\" para volver."
	}
	return fmt.Sprintf("¿Confirmás que querés cancelar tu turno (%s)? Respondé \"sí\" para confirmar o \"no\" para volver.", label)
}

func bookingConfirmedReply(label string) string {
	return fmt.Sprintf("¡Listo! Te reservé el turno para %s. Te va a llegar la confirmación por este medio.", label)
}

func rescheduleConfirmedReply(label string) string {
	return fmt.Sprintf("¡Listo! Reprogramé tu turno para %s.", label)
}

const cancelConfirmedReply = "Tu turno quedó cancelado. Cuando quieras sacá uno nuevo con la opción A."

const cancelAbortedReply = "Perfecto, tu turno sigue en pie."
