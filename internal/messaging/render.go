package messaging

import (
	"strings"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

// RenderMenu flattens a reply plus an optional menu into one WhatsApp text
// body. Options are listed one per line under the menu title; the hint, when
// present, goes last in italics.
func RenderMenu(reply string, menu *dialog.MenuTemplate) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(reply))

	if menu == nil {
		return b.String()
	}

	if title := strings.TrimSpace(menu.Title); title != "" {
		b.WriteString("\n\n*")
		b.WriteString(title)
		b.WriteString("*")
	}
	for _, opt := range menu.Options {
		b.WriteString("\n")
		b.WriteString(opt.ID)
		b.WriteString(") ")
		b.WriteString(opt.Label)
	}
	if prompt := strings.TrimSpace(menu.Prompt); prompt != "" {
		b.WriteString("\n\n")
		b.WriteString(prompt)
	}
	if hint := strings.TrimSpace(menu.Hint); hint != "" {
		b.WriteString("\n_")
		b.WriteString(hint)
		b.WriteString("_")
	}
	return strings.TrimSpace(b.String())
}
