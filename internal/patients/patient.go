package patients

import (
	"time"

	"github.com/google/uuid"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

// Patient is the durable customer record behind a conversation. Field values
// live alongside the needsX flags the dialogue engine gates on; a field can
// hold a stale value while its flag is re-armed.
type Patient struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	Phone         string
	FullName      string
	DNI           string
	BirthDate     string
	Address       string
	Insurance     string
	ConsultReason string

	NeedsDNI           bool
	NeedsName          bool
	NeedsBirthDate     bool
	NeedsAddress       bool
	NeedsInsurance     bool
	NeedsConsultReason bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot converts the record into the read-only view the dialogue engine
// consumes.
func (p *Patient) Snapshot() dialog.ProfileSnapshot {
	return dialog.ProfileSnapshot{
		ID:            p.ID.String(),
		FullName:      p.FullName,
		DNI:           p.DNI,
		BirthDate:     p.BirthDate,
		Address:       p.Address,
		Insurance:     p.Insurance,
		ConsultReason: p.ConsultReason,

		NeedsDNI:           p.NeedsDNI,
		NeedsName:          p.NeedsName,
		NeedsBirthDate:     p.NeedsBirthDate,
		NeedsAddress:       p.NeedsAddress,
		NeedsInsurance:     p.NeedsInsurance,
		NeedsConsultReason: p.NeedsConsultReason,
	}
}
