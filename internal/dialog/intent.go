package dialog

import (
	"regexp"
	"strings"
)

// QuickIntent is a keyword shortcut recognized mid-flow. Matching one
// reroutes directly into the booking menu's corresponding branch, letting a
// user abandon day/slot picking without formally going back.
type QuickIntent string

const (
	QuickMenu       QuickIntent = "menu"
	QuickBook       QuickIntent = "book"
	QuickReschedule QuickIntent = "reschedule"
	QuickCancel     QuickIntent = "cancel"
)

// Every handler classifies quick intents through this single table so
// behavior stays consistent across states.
var quickIntentPatterns = []struct {
	intent QuickIntent
	re     *regexp.Regexp
}{
	{QuickMenu, regexp.MustCompile(`^(menu|inicio|volver al menu|empezar|comenzar|hola menu)$`)},
	{QuickReschedule, regexp.MustCompile(`^(reprogramar|reagendar|cambiar( (el|mi))? ?turno|mover( (el|mi))? ?turno)( .*)?$`)},
	{QuickCancel, regexp.MustCompile(`^(cancelar|anular)( (el|mi))? ?(turno|cita)?$`)},
	{QuickBook, regexp.MustCompile(`^((sacar|pedir|nuevo|agendar|reservar) ?(un )?turno|turno nuevo|turno|quiero un turno|agendar|reservar)$`)},
}

// ClassifyQuickIntent matches normalized text against the quick-intent
// keyword table. Order matters: reschedule and cancel phrases are checked
// before the broader booking phrases.
func ClassifyQuickIntent(normalized string) (QuickIntent, bool) {
	for _, p := range quickIntentPatterns {
		if p.re.MatchString(normalized) {
			return p.intent, true
		}
	}
	return "", false
}

var ackWords = map[string]struct{}{
	"gracias": {}, "muchas gracias": {}, "mil gracias": {}, "ok": {}, "oka": {},
	"okey": {}, "dale": {}, "listo": {}, "perfecto": {}, "genial": {},
	"buenisimo": {}, "barbaro": {}, "joya": {}, "de acuerdo": {}, "gracias!": {},
}

var ackEmoji = []string{"👍", "🙏", "👌", "😊", "🙂"}

// isAcknowledgement reports whether the message is a generic thanks/ok that
// deserves a short canned reply with no state change.
func isAcknowledgement(raw, normalized string) bool {
	if _, ok := ackWords[normalized]; ok {
		return true
	}
	trimmed := strings.TrimSpace(raw)
	for _, e := range ackEmoji {
		if trimmed == e {
			return true
		}
	}
	return false
}

// infoKeywords is the closed list of pricing/schedule/location topics that
// mark a message as a general question for the fallback agent.
var infoKeywords = []string{
	"precio", "precios", "cuanto sale", "cuanto cuesta", "cuanto esta",
	"arancel", "aranceles", "valor de la consulta",
	"horario", "horarios", "a que hora abren", "a que hora cierran",
	"direccion", "donde queda", "donde quedan", "donde estan", "como llego",
	"obra social aceptan", "que obras sociales",
}

var infoOpeners = []string{
	"quisiera saber", "queria saber", "me podrias decir", "me podria decir",
	"necesito informacion", "una consulta", "tengo una pregunta", "te consulto",
}

// isGeneralQuestion applies the open-ended-question heuristic: a question
// mark in the raw text, a known info keyword, or an information-request
// opening phrase.
func isGeneralQuestion(raw, normalized string) bool {
	if strings.ContainsAny(raw, "?¿") {
		return true
	}
	for _, kw := range infoKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	for _, op := range infoOpeners {
		if strings.HasPrefix(normalized, op) {
			return true
		}
	}
	return false
}

var backRE = regexp.MustCompile(`^(volver|atras|anterior|back)$`)

// isBackCommand recognizes an explicit back/previous-step keyword.
func isBackCommand(normalized string) bool {
	return backRE.MatchString(normalized)
}

var affirmativeRE = regexp.MustCompile(`^(si|sii+|sí|confirmo|confirmar|confirmado|dale|ok|okey|de acuerdo|correcto|exacto|asi es)( .*)?$`)

var negativeRE = regexp.MustCompile(`^(no|nop|mejor no|me arrepenti|dejalo|deja|volver|atras)( .*)?$`)

func isAffirmative(normalized string) bool { return affirmativeRE.MatchString(normalized) }

func isNegative(normalized string) bool { return negativeRE.MatchString(normalized) }
