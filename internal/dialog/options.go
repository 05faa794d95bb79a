package dialog

import "strings"

// MenuOption is one selectable entry of a menu. Options are lettered A, B,
// C, … in generation order; numeric aliases mirror that order for users who
// reply with digits.
type MenuOption struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Aliases []string `json:"aliases,omitempty"`
}

// MenuTemplate is the presentation-only description of a menu. The caller
// renders it for whatever channel is in use.
type MenuTemplate struct {
	Title   string       `json:"title"`
	Prompt  string       `json:"prompt"`
	Options []MenuOption `json:"options"`
	Hint    string       `json:"hint,omitempty"`
}

// OptionLetter returns the letter id for a zero-based index: A, B, …, Z,
// AA, AB, … so option lists of any length keep stable ids.
func OptionLetter(i int) string {
	letter := string(rune('A' + i%26))
	for i = i/26 - 1; i >= 0; i = i/26 - 1 {
		letter = string(rune('A'+i%26)) + letter
	}
	return letter
}

// optionPrefixes are leading words users commonly attach to a choice,
// e.g. "opción B" or "la 2".
var optionPrefixes = []string{"opcion ", "option ", "la ", "el ", "numero "}

// MatchOption matches normalized input against an option's id or alias
// list. Comparison is case/punctuation/accent-insensitive by construction
// (both sides are normalized).
func MatchOption(normalized string, opts []MenuOption) (MenuOption, bool) {
	token := normalized
	for _, p := range optionPrefixes {
		if strings.HasPrefix(token, p) {
			token = strings.TrimSpace(strings.TrimPrefix(token, p))
			break
		}
	}
	if token == "" {
		return MenuOption{}, false
	}
	for _, opt := range opts {
		if Normalize(opt.ID) == token {
			return opt, true
		}
		for _, alias := range opt.Aliases {
			if Normalize(alias) == token {
				return opt, true
			}
		}
	}
	return MenuOption{}, false
}

// looksLikeMenuReply reports whether text reads as a menu choice (a bare
// letter, "opción B", a small number, or a flow keyword) rather than an
// answer to an open question. Onboarding handlers treat these as non-answers
// and re-prompt.
func looksLikeMenuReply(normalized string) bool {
	token := normalized
	for _, p := range optionPrefixes {
		if strings.HasPrefix(token, p) {
			token = strings.TrimSpace(strings.TrimPrefix(token, p))
			break
		}
	}
	if len(token) == 1 && token[0] >= 'a' && token[0] <= 'z' {
		return true
	}
	if len(token) <= 2 && token != "" && strings.Trim(token, "0123456789") == "" {
		return true
	}
	switch token {
	case "cancelar", "anular", "reprogramar", "reagendar":
		return true
	}
	return isBackCommand(token)
}

func dayMenuOptions(days []DayOption) []MenuOption {
	opts := make([]MenuOption, len(days))
	for i, d := range days {
		opts[i] = MenuOption{ID: d.ID, Label: d.Label, Aliases: d.Aliases}
	}
	return opts
}

func slotMenuOptions(slots []SlotOption) []MenuOption {
	opts := make([]MenuOption, len(slots))
	for i, s := range slots {
		opts[i] = MenuOption{ID: s.ID, Label: s.Label, Aliases: s.Aliases}
	}
	return opts
}
