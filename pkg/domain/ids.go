// Package domain defines typed identifiers for registry entities.
//
// Each entity gets its own UUID-backed type so the compiler rejects a
// SpecialtyID where a RegionID is expected. Construct via the Parse functions
// at trust boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "afya/pkg/domain-errors"
)

type (
	RegionID       uuid.UUID
	RegionTypeID   uuid.UUID
	SpecialtyID    uuid.UUID
	FacilityID     uuid.UUID
	FacilityTypeID uuid.UUID
	WorkerID       uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

func ParseRegionID(s string) (RegionID, error) {
	u, err := parseUUID("region", s)
	return RegionID(u), err
}

func ParseRegionTypeID(s string) (RegionTypeID, error) {
	u, err := parseUUID("region type", s)
	return RegionTypeID(u), err
}

func ParseSpecialtyID(s string) (SpecialtyID, error) {
	u, err := parseUUID("specialty", s)
	return SpecialtyID(u), err
}

func ParseFacilityID(s string) (FacilityID, error) {
	u, err := parseUUID("facility", s)
	return FacilityID(u), err
}

func ParseFacilityTypeID(s string) (FacilityTypeID, error) {
	u, err := parseUUID("facility type", s)
	return FacilityTypeID(u), err
}

func ParseWorkerID(s string) (WorkerID, error) {
	u, err := parseUUID("worker", s)
	return WorkerID(u), err
}

func (id RegionID) String() string       { return uuid.UUID(id).String() }
func (id RegionTypeID) String() string   { return uuid.UUID(id).String() }
func (id SpecialtyID) String() string    { return uuid.UUID(id).String() }
func (id FacilityID) String() string     { return uuid.UUID(id).String() }
func (id FacilityTypeID) String() string { return uuid.UUID(id).String() }
func (id WorkerID) String() string       { return uuid.UUID(id).String() }

func (id RegionID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RegionTypeID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SpecialtyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id FacilityID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id FacilityTypeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id WorkerID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

func NewRegionID() RegionID             { return RegionID(uuid.New()) }
func NewRegionTypeID() RegionTypeID     { return RegionTypeID(uuid.New()) }
func NewSpecialtyID() SpecialtyID       { return SpecialtyID(uuid.New()) }
func NewFacilityID() FacilityID         { return FacilityID(uuid.New()) }
func NewFacilityTypeID() FacilityTypeID { return FacilityTypeID(uuid.New()) }
func NewWorkerID() WorkerID             { return WorkerID(uuid.New()) }
