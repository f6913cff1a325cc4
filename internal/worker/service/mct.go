package service

import (
	"context"
	"errors"

	"afya/internal/match"
	refmodels "afya/internal/reference/models"
	"afya/internal/worker/models"
	"afya/pkg/platform/sentinel"
)

// RegistrationLookup is the slice of the MCT reference dataset the verifier
// needs.
type RegistrationLookup interface {
	FindByRegistrationNumber(ctx context.Context, num string) (*refmodels.MCTRegistration, error)
}

// PayrollLookup resolves the payroll-side dataset by check number.
type PayrollLookup interface {
	FindByCheckNumber(ctx context.Context, num string) (*refmodels.MCTPayroll, error)
}

// MCTVerifier verifies a worker against the Medical Council datasets. The
// registration number is checked first: it must exist, and when the council
// record carries a name, the submitted name must be within edit distance of
// it. When the registration check does not hold, the payroll check number is
// tried the same way. A worker claiming neither number never verifies.
type MCTVerifier struct {
	registrations RegistrationLookup
	payrolls      PayrollLookup
	nameMatch     match.Config
}

func NewMCTVerifier(registrations RegistrationLookup, payrolls PayrollLookup) *MCTVerifier {
	return &MCTVerifier{
		registrations: registrations,
		payrolls:      payrolls,
		nameMatch:     match.Config{Algorithm: match.AlgorithmLevenshtein},
	}
}

func (v *MCTVerifier) Verified(ctx context.Context, worker *models.HealthWorker) (bool, error) {
	ok, err := v.registrationMatch(ctx, worker)
	if err != nil || ok {
		return ok, err
	}
	return v.payrollMatch(ctx, worker)
}

func (v *MCTVerifier) registrationMatch(ctx context.Context, worker *models.HealthWorker) (bool, error) {
	if worker.MCTRegistrationNum == "" {
		return false, nil
	}
	record, err := v.registrations.FindByRegistrationNumber(ctx, worker.MCTRegistrationNum)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return v.nameCorroborates(record.Name, worker), nil
}

func (v *MCTVerifier) payrollMatch(ctx context.Context, worker *models.HealthWorker) (bool, error) {
	if worker.MCTPayrollNum == "" || v.payrolls == nil {
		return false, nil
	}
	record, err := v.payrolls.FindByCheckNumber(ctx, worker.MCTPayrollNum)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return v.nameCorroborates(record.Name, worker), nil
}

// nameCorroborates accepts a record with no name on file; otherwise the
// submitted full name must be within edit distance of it.
func (v *MCTVerifier) nameCorroborates(recordName string, worker *models.HealthWorker) bool {
	if recordName == "" {
		return true
	}
	fullName := worker.Name
	if worker.Surname != "" {
		fullName = worker.Name + " " + worker.Surname
	}
	return v.nameMatch.Matches(recordName, fullName)
}
