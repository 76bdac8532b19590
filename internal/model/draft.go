package model

// DraftField names one collectable field of a draft spot.
type DraftField string

const (
	FieldName        DraftField = "name"
	FieldAddress     DraftField = "address"
	FieldOpeningTime DraftField = "opening_time"
	FieldClosingTime DraftField = "closing_time"
	FieldPrice       DraftField = "price"
	FieldDineIn      DraftField = "dine_in"
)

// collectableFields are the fields elicited from the user, in asking order.
// Coordinates come from the map click and are never asked.
var collectableFields = []DraftField{
	FieldName,
	FieldAddress,
	FieldOpeningTime,
	FieldClosingTime,
	FieldPrice,
	FieldDineIn,
}

// DraftFields is a patch of extracted field values. All fields are optional;
// a nil pointer means "not mentioned in this turn".
type DraftFields struct {
	Name        *string  `json:"name,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	OpeningTime *string  `json:"opening_time,omitempty"`
	ClosingTime *string  `json:"closing_time,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	DineIn      *bool    `json:"dine_in,omitempty"`
}

// Draft is the in-progress, unconfirmed candidate spot assembled across one
// conversation. It is owned by a single intake machine and is discarded if
// the conversation ends without confirmation.
type Draft struct {
	Name        *string
	Address     *string
	Latitude    *float64
	Longitude   *float64
	OpeningTime *string
	ClosingTime *string
	Price       *float64
	DineIn      *bool
}

// Apply merges a patch into the draft. Coordinates are protected: they are
// seeded from session context and a model-supplied value never overwrites
// them.
func (d *Draft) Apply(f *DraftFields) {
	if f == nil {
		return
	}
	if f.Name != nil {
		d.Name = f.Name
	}
	if f.Address != nil {
		d.Address = f.Address
	}
	if f.OpeningTime != nil {
		d.OpeningTime = f.OpeningTime
	}
	if f.ClosingTime != nil {
		d.ClosingTime = f.ClosingTime
	}
	if f.Price != nil {
		d.Price = f.Price
	}
	if f.DineIn != nil {
		d.DineIn = f.DineIn
	}
}

// Clear resets the named fields to unset. Coordinates cannot be cleared.
func (d *Draft) Clear(fields ...DraftField) {
	for _, f := range fields {
		switch f {
		case FieldName:
			d.Name = nil
		case FieldAddress:
			d.Address = nil
		case FieldOpeningTime:
			d.OpeningTime = nil
		case FieldClosingTime:
			d.ClosingTime = nil
		case FieldPrice:
			d.Price = nil
		case FieldDineIn:
			d.DineIn = nil
		}
	}
}

// MissingFields returns the collectable fields still unset, in asking order.
func (d *Draft) MissingFields() []DraftField {
	var missing []DraftField
	for _, f := range collectableFields {
		if !d.has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// AllRequiredPresent reports whether every required field, including the
// context-provided coordinates, is set.
func (d *Draft) AllRequiredPresent() bool {
	return len(d.MissingFields()) == 0 && d.Latitude != nil && d.Longitude != nil
}

func (d *Draft) has(f DraftField) bool {
	switch f {
	case FieldName:
		return d.Name != nil
	case FieldAddress:
		return d.Address != nil
	case FieldOpeningTime:
		return d.OpeningTime != nil
	case FieldClosingTime:
		return d.ClosingTime != nil
	case FieldPrice:
		return d.Price != nil
	case FieldDineIn:
		return d.DineIn != nil
	}
	return false
}
