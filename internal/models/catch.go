package models

import (
	"strings"
	"time"
)

// Species is a game species with its per-catch data requirements.
type Species struct {
	ID             int64  `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	RequiresAge    bool   `json:"requires_age" yaml:"requires_age"`
	RequiresSex    bool   `json:"requires_sex" yaml:"requires_sex"`
	RequiresTag    bool   `json:"requires_tag" yaml:"requires_tag"`
	RequiresWeight bool   `json:"requires_weight" yaml:"requires_weight"`
	IsActive       bool   `json:"is_active" yaml:"-"`
}

type Sex string

const (
	SexMale    Sex = "MALE"
	SexFemale  Sex = "FEMALE"
	SexUnknown Sex = "UNKNOWN"
)

// Known reports whether the sex was actually determined.
func (s Sex) Known() bool {
	return s == SexMale || s == SexFemale
}

// Valid reports whether s is one of the accepted values; empty is accepted.
func (s Sex) Valid() bool {
	return s == "" || s == SexUnknown || s.Known()
}

type ShooterType string

const (
	ShooterMember ShooterType = "MEMBER"
	ShooterGuest  ShooterType = "GUEST"
)

// Catch is a harvested animal recorded against a visit.
type Catch struct {
	ID                int64       `json:"id"`
	VisitID           int64       `json:"visit_id"`
	SpeciesID         int64       `json:"species_id"`
	HuntingLocalityID int64       `json:"hunting_locality_id"`
	HuntedAt          time.Time   `json:"hunted_at"`
	Sex               Sex         `json:"sex,omitempty"`
	Age               string      `json:"age,omitempty"`
	Weight            *float64    `json:"weight,omitempty"`
	TagNumber         string      `json:"tag_number,omitempty"`
	ShooterType       ShooterType `json:"shooter_type"`
	GuestShooterName  string      `json:"guest_shooter_name,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// MissingField returns the first field required by species that c leaves
// empty, checked in the order age, sex, tagNumber, weight.
func (c *Catch) MissingField(species *Species) string {
	switch {
	case species.RequiresAge && strings.TrimSpace(c.Age) == "":
		return "age"
	case species.RequiresSex && !c.Sex.Known():
		return "sex"
	case species.RequiresTag && strings.TrimSpace(c.TagNumber) == "":
		return "tagNumber"
	case species.RequiresWeight && c.Weight == nil:
		return "weight"
	}
	return ""
}
