// Package models holds the HealthWorker aggregate root and its verification
// state machine. The engine in the service package is the only writer.
package models

import (
	"time"

	id "afya/pkg/domain"
	dErrors "afya/pkg/domain-errors"
)

// VerificationState tracks how far a worker record has been corroborated
// against external reference data.
type VerificationState string

const (
	StateUnverified VerificationState = "unverified"
	StatePending    VerificationState = "pending"
	StateVerified   VerificationState = "verified"
	StateRejected   VerificationState = "rejected"
)

var stateRank = map[VerificationState]int{
	StateUnverified: 0,
	StatePending:    1,
	StateVerified:   2,
}

// CanTransitionTo enforces monotonic progression: a state can only move
// forward (unverified → pending → verified), except that any non-rejected
// state may be explicitly rejected. Rejected is terminal.
func (s VerificationState) CanTransitionTo(next VerificationState) bool {
	if s == StateRejected {
		return false
	}
	if next == StateRejected {
		return true
	}
	from, okFrom := stateRank[s]
	to, okTo := stateRank[next]
	return okFrom && okTo && to > from
}

// HealthWorker is the mutable aggregate root of the registry. Identity is the
// normalized VodacomPhone: two submissions with the same phone are the same
// person and must merge, never duplicate.
type HealthWorker struct {
	ID           id.WorkerID `json:"id"`
	Name         string      `json:"name"`
	Surname      string      `json:"surname"`
	VodacomPhone string      `json:"vodacom_phone"`
	OtherPhone   string      `json:"other_phone"`
	Address      string      `json:"address"`
	Birthdate    *time.Time  `json:"birthdate"`
	Country      string      `json:"country"`
	Email        string      `json:"email"`
	Language     string      `json:"language"`

	FacilityID   *id.FacilityID   `json:"facility_id"`
	SpecialtyIDs []id.SpecialtyID `json:"specialty_ids"`

	VerificationState        VerificationState `json:"verification_state"`
	IsClosedUserGroup        bool              `json:"is_closed_user_group"`
	RequestClosedUserGroupAt *time.Time        `json:"request_closed_user_group_at"`

	MCTRegistrationNum string `json:"mct_registration_num"`
	MCTPayrollNum      string `json:"mct_payroll_num"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewHealthWorker constructs an unverified worker keyed by an already
// normalized phone.
func NewHealthWorker(workerID id.WorkerID, phone string, now time.Time) (*HealthWorker, error) {
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "worker phone cannot be empty")
	}
	return &HealthWorker{
		ID:                workerID,
		VodacomPhone:      phone,
		VerificationState: StateUnverified,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Advance moves the verification state forward. Invalid transitions are
// invariant violations; the caller decides whether to surface them.
func (w *HealthWorker) Advance(next VerificationState, now time.Time) error {
	if !w.VerificationState.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"cannot transition verification state from "+string(w.VerificationState)+" to "+string(next))
	}
	w.VerificationState = next
	w.UpdatedAt = now
	return nil
}

// StampClosedUserGroupRequest records the first CUG request time. Later calls
// are no-ops; the timestamp is never cleared.
func (w *HealthWorker) StampClosedUserGroupRequest(now time.Time) bool {
	if w.RequestClosedUserGroupAt != nil {
		return false
	}
	t := now
	w.RequestClosedUserGroupAt = &t
	return true
}
