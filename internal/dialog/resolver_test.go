package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveState(t *testing.T) {
	days := []DayOption{{ID: "A", DateISO: "2026-03-02", Label: "Lunes 02/03"}}
	slots := []SlotOption{{ID: "A", StartISO: "2026-03-02T10:00:00-03:00", Label: "10:00 hs"}}

	tests := []struct {
		name    string
		profile ProfileSnapshot
		state   ConversationState
		data    StateData
		want    ConversationState
	}{
		{
			name:    "welcome always stays",
			profile: ProfileSnapshot{NeedsDNI: true},
			state:   StateWelcome,
			want:    StateWelcome,
		},
		{
			name:    "missing insurance interrupts booking menu",
			profile: profileNeeding(FieldInsurance),
			state:   StateBookingMenu,
			want:    StateProfileInsurance,
		},
		{
			name:    "missing field interrupts day selection",
			profile: profileNeeding(FieldBirthDate),
			state:   StateBookingChooseDay,
			data:    StateData{PendingDays: days},
			want:    StateProfileBirthDate,
		},
		{
			name: "fields resolve in fixed order",
			profile: ProfileSnapshot{
				NeedsDNI:       true,
				NeedsInsurance: true,
			},
			state: StateBookingMenu,
			want:  StateProfileDNI,
		},
		{
			name:    "pending reason slot keeps reason state",
			profile: completeProfile(),
			state:   StateProfileReason,
			data:    StateData{PendingReasonSlot: &PendingSlot{StartISO: "2026-03-02T10:00:00-03:00"}},
			want:    StateProfileReason,
		},
		{
			name:    "stale onboarding state resets to menu",
			profile: completeProfile(),
			state:   StateProfileName,
			want:    StateBookingMenu,
		},
		{
			name:    "reason state without pending slot resets to menu",
			profile: completeProfile(),
			state:   StateProfileReason,
			want:    StateBookingMenu,
		},
		{
			name:    "choose slot without pending slots resets to menu",
			profile: completeProfile(),
			state:   StateBookingChooseSlot,
			want:    StateBookingMenu,
		},
		{
			name:    "choose slot with pending slots stands",
			profile: completeProfile(),
			state:   StateBookingChooseSlot,
			data:    StateData{PendingSlots: slots},
			want:    StateBookingChooseSlot,
		},
		{
			name:    "choose day without pending days resets to menu",
			profile: completeProfile(),
			state:   StateBookingChooseDay,
			want:    StateBookingMenu,
		},
		{
			name:    "choose day with pending days stands",
			profile: completeProfile(),
			state:   StateBookingChooseDay,
			data:    StateData{PendingDays: days},
			want:    StateBookingChooseDay,
		},
		{
			name:    "confirm stands",
			profile: completeProfile(),
			state:   StateBookingConfirm,
			data:    StateData{Intent: IntentCancel, RescheduleAppointmentID: "apt-1"},
			want:    StateBookingConfirm,
		},
		{
			name:    "free chat stands",
			profile: completeProfile(),
			state:   StateFreeChat,
			want:    StateFreeChat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveState(tt.profile, tt.state, tt.data))
		})
	}
}
