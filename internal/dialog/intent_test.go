package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyQuickIntent(t *testing.T) {
	tests := []struct {
		input string
		want  QuickIntent
		ok    bool
	}{
		{input: "menu", want: QuickMenu, ok: true},
		{input: "inicio", want: QuickMenu, ok: true},
		{input: "volver al menu", want: QuickMenu, ok: true},
		{input: "reprogramar", want: QuickReschedule, ok: true},
		{input: "cambiar el turno", want: QuickReschedule, ok: true},
		{input: "reagendar", want: QuickReschedule, ok: true},
		{input: "cancelar", want: QuickCancel, ok: true},
		{input: "anular el turno", want: QuickCancel, ok: true},
		// cancel wins over the broader booking phrases
		{input: "cancelar turno", want: QuickCancel, ok: true},
		{input: "turno", want: QuickBook, ok: true},
		{input: "turno nuevo", want: QuickBook, ok: true},
		{input: "sacar un turno", want: QuickBook, ok: true},
		{input: "quiero un turno", want: QuickBook, ok: true},
		{input: "reservar", want: QuickBook, ok: true},
		{input: "hola", ok: false},
		{input: "me duele la cabeza", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ClassifyQuickIntent(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIsAcknowledgement(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"Gracias!", true},
		{"muchas gracias", true},
		{"ok", true},
		{"Dale", true},
		{"👍", true},
		{"no gracias", false},
		{"gracias pero quiero cambiar el turno", false},
		{"hola", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isAcknowledgement(tt.raw, Normalize(tt.raw)), "input %q", tt.raw)
	}
}

func TestIsGeneralQuestion(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"¿Atienden los sábados?", true},
		{"que obras sociales aceptan", true},
		{"cuanto sale la consulta", true},
		{"quisiera saber los horarios", true},
		{"donde queda el consultorio", true},
		{"hola buenas", false},
		{"quiero un turno", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isGeneralQuestion(tt.raw, Normalize(tt.raw)), "input %q", tt.raw)
	}
}

func TestAffirmativeNegative(t *testing.T) {
	assert.True(t, isAffirmative("si"))
	assert.True(t, isAffirmative("si dale"))
	assert.True(t, isAffirmative("confirmo"))
	assert.False(t, isAffirmative("no se"))

	assert.True(t, isNegative("no"))
	assert.True(t, isNegative("mejor no"))
	assert.True(t, isNegative("me arrepenti"))
	assert.False(t, isNegative("si"))
}
