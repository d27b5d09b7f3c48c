package domain

// NoCarrier is the Carrier value of a load that is not on any boat.
const NoCarrier int64 = -1

// Load is a unit of cargo. Loads are not owned; any caller may create or read them.
type Load struct {
	ID           int64   `json:"id"`
	Weight       float64 `json:"weight"`
	Country      string  `json:"country"`
	Manufacturer string  `json:"manufacturer"`
	Carrier      int64   `json:"carrier"`
}

// Assigned reports whether the load is on a boat.
func (l *Load) Assigned() bool {
	return l.Carrier != NoCarrier
}

// LoadPatch carries a partial load update. Nil fields keep the current value.
type LoadPatch struct {
	Weight       *float64 `json:"weight,omitempty" validate:"omitnil,gt=0"`
	Country      *string  `json:"country,omitempty" validate:"omitnil,notblank,max=100"`
	Manufacturer *string  `json:"manufacturer,omitempty" validate:"omitnil,notblank,max=100"`
}

// Apply merges the patch into l, field by field.
func (p LoadPatch) Apply(l *Load) {
	if p.Weight != nil {
		l.Weight = *p.Weight
	}
	if p.Country != nil {
		l.Country = *p.Country
	}
	if p.Manufacturer != nil {
		l.Manufacturer = *p.Manufacturer
	}
}
