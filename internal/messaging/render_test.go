package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

func TestRenderMenuPlainReply(t *testing.T) {
	assert.Equal(t, "Hola, ¿en qué te ayudo?", RenderMenu("Hola, ¿en qué te ayudo?", nil))
}

func TestRenderMenuWithOptions(t *testing.T) {
	menu := &dialog.MenuTemplate{
		Title:  "¿Qué querés hacer?",
		Prompt: "Respondé con la letra o el número de la opción.",
		Options: []dialog.MenuOption{
			{ID: "A", Label: "Sacar un turno", Aliases: []string{"1"}},
			{ID: "B", Label: "Reprogramar mi turno", Aliases: []string{"2"}},
		},
		Hint: "También podés escribir \"menu\" en cualquier momento.",
	}

	got := RenderMenu("Perfecto.", menu)

	assert.Contains(t, got, "Perfecto.")
	assert.Contains(t, got, "*¿Qué querés hacer?*")
	assert.Contains(t, got, "A) Sacar un turno")
	assert.Contains(t, got, "B) Reprogramar mi turno")
	assert.Contains(t, got, "Respondé con la letra o el número de la opción.")
	assert.Contains(t, got, "_También podés escribir \"menu\" en cualquier momento._")
}

func TestRenderMenuEmptyReplyStillShowsMenu(t *testing.T) {
	menu := &dialog.MenuTemplate{
		Title:   "Días disponibles",
		Options: []dialog.MenuOption{{ID: "A", Label: "Lunes 02/03"}},
	}

	got := RenderMenu("", menu)
	assert.Contains(t, got, "*Días disponibles*")
	assert.Contains(t, got, "A) Lunes 02/03")
	assert.NotContains(t, got, "\n\n\n")
}
