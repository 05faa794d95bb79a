package dialog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Spanish)

// ParseDNI strips every non-digit and accepts 7 to 10 remaining digits.
func ParseDNI(text string) (string, bool) {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 7 || len(d) > 10 {
		return "", false
	}
	return d, true
}

var nameTokenRE = regexp.MustCompile(`^[\p{L}']+$`)

// ParseFullName requires at least two tokens of letters, accents, or
// apostrophes and title-cases each one.
func ParseFullName(text string) (string, bool) {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return "", false
	}
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !nameTokenRE.MatchString(tok) {
			return "", false
		}
		out = append(out, titleCaser.String(strings.ToLower(tok)))
	}
	return strings.Join(out, " "), true
}

var birthDateRE = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})$`)

// twoDigitYearPivot splits two-digit years: below it they land in the 2000s,
// at or above it in the 1900s.
const twoDigitYearPivot = 40

// ParseBirthDate accepts D/M/Y with "/", "-", or "." separators and a 2- or
// 4-digit year, rejecting future and semantically invalid dates. Returns the
// date in ISO form.
func ParseBirthDate(text string, now time.Time) (string, bool) {
	m := birthDateRE.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	switch len(m[3]) {
	case 2:
		if year < twoDigitYearPivot {
			year += 2000
		} else {
			year += 1900
		}
	case 4:
		// as given
	default:
		return "", false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/2 becomes 2/3 or 3/3), so a changed
	// component means the calendar date never existed.
	if d.Day() != day || int(d.Month()) != month || d.Year() != year {
		return "", false
	}
	if d.After(now) {
		return "", false
	}
	return d.Format("2006-01-02"), true
}

// ParseAddress keeps free text of a minimum useful length.
func ParseAddress(text string) (string, bool) {
	addr := collapseSpaces(text)
	if len([]rune(addr)) < 5 {
		return "", false
	}
	return addr, true
}

// NoInsuranceLabel is the canonical value for customers without coverage.
const NoInsuranceLabel = "Particular"

var noInsurancePhrases = []string{
	"no tengo", "no tengo obra social", "sin obra social", "ninguna", "ninguno",
	"particular", "no", "nada", "sin cobertura", "no poseo",
}

var insuranceFillers = []string{
	"tengo", "mi obra social es", "obra social", "mi prepaga es", "prepaga", "mi", "es", "la",
}

// NormalizeInsurance detects negative phrases and maps them to the canonical
// no-insurance label; otherwise it strips filler words and sentence-cases the
// remainder.
func NormalizeInsurance(text string) (string, bool) {
	norm := Normalize(text)
	if norm == "" {
		return "", false
	}
	for _, phrase := range noInsurancePhrases {
		if norm == phrase {
			return NoInsuranceLabel, true
		}
	}
	cleaned := collapseSpaces(text)
	for _, filler := range insuranceFillers {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(filler) + `\b`)
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	cleaned = collapseSpaces(cleaned)
	if cleaned == "" {
		return NoInsuranceLabel, true
	}
	return strings.ToUpper(cleaned[:1]) + cleaned[1:], true
}

// maxReasonLength caps consult reasons so free text stays presentable.
const maxReasonLength = 160

var (
	painRE    = regexp.MustCompile(`(?i)^me duele(?:n)?\s+(?:la\s+|el\s+|las\s+|los\s+)?(.+)$`)
	controlRE = regexp.MustCompile(`(?i)^control\s+(?:de\s+)?(.+)$`)
)

// NormalizeConsultReason recognizes common phrasings ("me duele X",
// "control Y") and falls back to sentence-cased raw text capped to
// maxReasonLength runes.
func NormalizeConsultReason(text string) (string, bool) {
	cleaned := collapseSpaces(text)
	if cleaned == "" {
		return "", false
	}
	var reason string
	switch {
	case painRE.MatchString(cleaned):
		reason = "Dolor de " + strings.ToLower(painRE.FindStringSubmatch(cleaned)[1])
	case controlRE.MatchString(cleaned):
		reason = "Control " + strings.ToLower(controlRE.FindStringSubmatch(cleaned)[1])
	default:
		reason = sentenceCase(cleaned)
	}
	if r := []rune(reason); len(r) > maxReasonLength {
		reason = string(r[:maxReasonLength])
	}
	return reason, true
}

// placeholderName replaces a previously confirmed name during a full
// onboarding restart, so the name step always re-runs from a known value.
const placeholderName = "Cliente"

// formatDNI groups digits for display, e.g. 12.345.678.
func formatDNI(dni string) string {
	if len(dni) < 7 {
		return dni
	}
	var parts []string
	for i := len(dni); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		parts = append([]string{dni[start:i]}, parts...)
	}
	return strings.Join(parts, ".")
}

// firstName extracts the leading token of a full name for friendly replies.
func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// validReasonText screens out inputs that are clearly not a reason (pure
// digits or a single letter), which are menu echoes in practice.
func validReasonText(text string) bool {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return false
	}
	if len(runes) == 1 && unicode.IsLetter(runes[0]) {
		return false
	}
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
