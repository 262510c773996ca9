package models

import (
	"fmt"
	"time"
)

const DefaultProfileName = "Usuário"

// Weekdays are the availability keys the client renders, in display order.
var Weekdays = []string{"segunda", "terca", "quarta", "quinta", "sexta", "sabado", "domingo"}

// Availability maps a weekday to up to two start/end pairs, flattened:
// ["09:00", "12:00", "14:00", "18:00"]. An empty list means unavailable.
type Availability map[string][]string

type AreaOfExpertise struct {
	Area  string `json:"area" validate:"required"`
	Level string `json:"nivel"`
}

type Profile struct {
	Name                string            `json:"name"`
	Email               string            `json:"email"`
	Phone               string            `json:"phone"`
	Location            string            `json:"location"`
	Bio                 string            `json:"bio"`
	LinkedIn            string            `json:"linkedin"`
	Area                string            `json:"area"`
	Education           string            `json:"formacao"`
	VolunteersElsewhere bool              `json:"voluntarioOutrasIniciativas"`
	Skills              []string          `json:"skills"`
	Areas               []AreaOfExpertise `json:"atuacaoAreas" validate:"dive"`
	Availability        Availability      `json:"availability" validate:"dive,keys,oneof=segunda terca quarta quinta sexta sabado domingo,endkeys,max=4,dive,datetime=15:04"`
	UpdatedAt           *time.Time        `json:"updatedAt,omitempty"`
}

type AvailabilityRequest struct {
	Availability Availability `json:"availability" validate:"required,dive,keys,oneof=segunda terca quarta quinta sexta sabado domingo,endkeys,max=4,dive,datetime=15:04"`
}

// DefaultProfile is what a member sees before saving anything.
func DefaultProfile(id *Identity) *Profile {
	name := id.Name
	if name == "" {
		name = DefaultProfileName
	}
	p := &Profile{Name: name, Email: id.Email}
	p.Normalize()
	return p
}

// Normalize replaces nil collections so they serialize as [] and {}.
func (p *Profile) Normalize() {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Areas == nil {
		p.Areas = []AreaOfExpertise{}
	}
	p.Availability = p.Availability.Normalize()
}

// Validate checks the struct tags and that every day holds ordered pairs.
func (p *Profile) Validate() error {
	if err := ValidateStruct(p); err != nil {
		return err
	}
	return p.Availability.CheckPairs()
}

// Normalize returns a copy with every weekday present.
func (a Availability) Normalize() Availability {
	out := make(Availability, len(Weekdays))
	for _, day := range Weekdays {
		slots := a[day]
		if slots == nil {
			slots = []string{}
		}
		out[day] = slots
	}
	return out
}

// CheckPairs rejects odd slot counts and pairs whose end is not after the start.
// Times are HH:MM so string order equals time order.
func (a Availability) CheckPairs() error {
	for _, day := range Weekdays {
		slots := a[day]
		if len(slots)%2 != 0 {
			return NewValidationError("availability.%s must hold start/end pairs", day)
		}
		for i := 0; i < len(slots); i += 2 {
			if slots[i] >= slots[i+1] {
				return &ValidationError{Message: fmt.Sprintf("availability.%s: %s must be before %s", day, slots[i], slots[i+1])}
			}
		}
	}
	return nil
}

func (r *AvailabilityRequest) Validate() error {
	if err := ValidateStruct(r); err != nil {
		return err
	}
	return r.Availability.CheckPairs()
}
