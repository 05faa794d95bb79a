package dialog

// ProfileField identifies one mandatory onboarding field.
type ProfileField string

const (
	FieldDNI       ProfileField = "dni"
	FieldName      ProfileField = "name"
	FieldBirthDate ProfileField = "birth_date"
	FieldAddress   ProfileField = "address"
	FieldInsurance ProfileField = "insurance"
	FieldReason    ProfileField = "consult_reason"
)

// mandatoryFieldOrder is the fixed gating order. Onboarding always walks it
// front to back; the resolver and the profile gate must agree on it.
var mandatoryFieldOrder = []ProfileField{
	FieldDNI, FieldName, FieldBirthDate, FieldAddress, FieldInsurance, FieldReason,
}

// ProfileSnapshot is the read-only view of the customer passed into every
// invocation. The needs flags are owned by the external store; the engine
// only reads them and proposes patches.
type ProfileSnapshot struct {
	ID            string
	FullName      string
	DNI           string
	BirthDate     string // ISO date, empty when unknown
	Address       string
	Insurance     string
	ConsultReason string

	NeedsDNI           bool
	NeedsName          bool
	NeedsBirthDate     bool
	NeedsAddress       bool
	NeedsInsurance     bool
	NeedsConsultReason bool
}

func (p ProfileSnapshot) needs(f ProfileField) bool {
	switch f {
	case FieldDNI:
		return p.NeedsDNI
	case FieldName:
		return p.NeedsName
	case FieldBirthDate:
		return p.NeedsBirthDate
	case FieldAddress:
		return p.NeedsAddress
	case FieldInsurance:
		return p.NeedsInsurance
	case FieldReason:
		return p.NeedsConsultReason
	}
	return false
}

// NextMissingField returns the first unmet mandatory field in the fixed
// gating order.
func NextMissingField(p ProfileSnapshot) (ProfileField, bool) {
	for _, f := range mandatoryFieldOrder {
		if p.needs(f) {
			return f, true
		}
	}
	return "", false
}

// Complete reports whether every mandatory field is satisfied.
func (p ProfileSnapshot) Complete() bool {
	_, missing := NextMissingField(p)
	return !missing
}

// stateForField maps a missing field to the onboarding state that collects it.
func stateForField(f ProfileField) ConversationState {
	switch f {
	case FieldDNI:
		return StateProfileDNI
	case FieldName:
		return StateProfileName
	case FieldBirthDate:
		return StateProfileBirthDate
	case FieldAddress:
		return StateProfileAddress
	case FieldInsurance:
		return StateProfileInsurance
	case FieldReason:
		return StateProfileReason
	}
	return StateBookingMenu
}

// satisfy returns a copy of the snapshot with one field marked satisfied,
// used to compute the next prompt after a successful parse without waiting
// for the caller to apply the patch.
func (p ProfileSnapshot) satisfy(f ProfileField, value string) ProfileSnapshot {
	switch f {
	case FieldDNI:
		p.DNI, p.NeedsDNI = value, false
	case FieldName:
		p.FullName, p.NeedsName = value, false
	case FieldBirthDate:
		p.BirthDate, p.NeedsBirthDate = value, false
	case FieldAddress:
		p.Address, p.NeedsAddress = value, false
	case FieldInsurance:
		p.Insurance, p.NeedsInsurance = value, false
	case FieldReason:
		p.ConsultReason, p.NeedsConsultReason = value, false
	}
	return p
}
