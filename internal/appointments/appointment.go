package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

// Appointment is a confirmed reservation against a calendar slot.
type Appointment struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	PatientID uuid.UUID
	SlotID    uuid.UUID
	StartsAt  time.Time
	Status    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary converts the appointment into the view the dialogue engine shows
// when offering reschedule or cancel.
func (a *Appointment) Summary(tz string) *dialog.Appointment {
	return &dialog.Appointment{
		ID:    a.ID.String(),
		Label: dialog.HumanSlotLabel(a.StartsAt.Format(time.RFC3339), tz),
	}
}
