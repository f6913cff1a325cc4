// Package models holds the shared reference entities: administrative regions,
// medical specialties, facilities, and their classification types. All of
// these are read-mostly; mutation happens only through explicit creates.
package models

import (
	"time"

	id "afya/pkg/domain"
)

// Region is a node in the administrative hierarchy. The parent pointer forms
// a forest: countries at the roots, regions and districts below.
type Region struct {
	ID             id.RegionID     `json:"id"`
	Title          string          `json:"title"`
	TypeID         id.RegionTypeID `json:"type_id"`
	ParentRegionID *id.RegionID    `json:"parent_region_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RegionType classifies hierarchy levels (country, region, district).
type RegionType struct {
	ID    id.RegionTypeID `json:"id"`
	Title string          `json:"title"`
}

// Specialty is a node in the cadre/specialty/super-specialty forest. Cadres
// are roots; the resolver supports arbitrary depth even though the seed data
// never goes past three levels.
type Specialty struct {
	ID                id.SpecialtyID  `json:"id"`
	Title             string          `json:"title"`
	Abbreviation      string          `json:"abbreviation"`
	ShortTitle        string          `json:"short_title"`
	ParentSpecialtyID *id.SpecialtyID `json:"parent_specialty_id"`
	// Priority is a descending sort key: higher priority specialties are
	// shown first, ties break on title.
	Priority        int       `json:"priority"`
	IsUserSubmitted bool      `json:"is_user_submitted"`
	MSISDN          string    `json:"msisdn,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Facility is a place of work, scoped to a region.
type Facility struct {
	ID              id.FacilityID     `json:"id"`
	Title           string            `json:"title"`
	Address         string            `json:"address"`
	TypeID          id.FacilityTypeID `json:"type_id"`
	RegionID        id.RegionID       `json:"region_id"`
	Owner           string            `json:"owner"`
	OwnershipType   string            `json:"ownership_type"`
	Phone           string            `json:"phone"`
	IsUserSubmitted bool              `json:"is_user_submitted"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// FacilityType classifies facilities (hospital, dispensary, ...).
type FacilityType struct {
	ID       id.FacilityTypeID `json:"id"`
	Title    string            `json:"title"`
	Priority int               `json:"priority"`
}

// MCTRegistration is an authoritative record from the Medical Council of
// Tanganyika registry. Read-only here; it supplies ground truth for
// auto-verification and name search.
type MCTRegistration struct {
	ID                 string     `json:"id"`
	RegistrationNumber string     `json:"registration_number"`
	Name               string     `json:"name"`
	Cadre              string     `json:"cadre"`
	Category           string     `json:"category"`
	Country            string     `json:"country"`
	Address            string     `json:"address"`
	Birthdate          *time.Time `json:"birthdate"`
	Email              string     `json:"email"`
	CurrentEmployer    string     `json:"current_employer"`
	RegistrationType   string     `json:"registration_type"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// MCTPayroll is the payroll-side counterpart, keyed by check number.
type MCTPayroll struct {
	ID          string    `json:"id"`
	CheckNumber string    `json:"check_number"`
	Name        string    `json:"name"`
	Designation string    `json:"designation"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
