package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"afya/internal/reference/models"
	refservice "afya/internal/reference/service"
	"afya/pkg/platform/sentinel"
)

// RegistrationStore holds the MCT registration reference dataset. Records are
// loaded by the (out-of-scope) import tooling and never mutated here.
type RegistrationStore struct {
	mu      sync.RWMutex
	records []*models.MCTRegistration
}

func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{}
}

// Load replaces the dataset. Used by seeding and tests.
func (s *RegistrationStore) Load(records []*models.MCTRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]*models.MCTRegistration, len(records))
	for i, r := range records {
		cp := *r
		s.records[i] = &cp
	}
}

func (s *RegistrationStore) FindByRegistrationNumber(_ context.Context, num string) (*models.MCTRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if strings.EqualFold(r.RegistrationNumber, num) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *RegistrationStore) Search(_ context.Context, filter refservice.RegistrationFilter) ([]*models.MCTRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.MCTRegistration
	for _, r := range s.records {
		if filter.RegistrationNumber != "" &&
			!strings.EqualFold(r.RegistrationNumber, filter.RegistrationNumber) {
			continue
		}
		if filter.Name != "" && !filter.Fuzzy.Matches(r.Name, filter.Name) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// PayrollStore holds the MCT payroll reference dataset.
type PayrollStore struct {
	mu      sync.RWMutex
	records []*models.MCTPayroll
}

func NewPayrollStore() *PayrollStore {
	return &PayrollStore{}
}

func (s *PayrollStore) Load(records []*models.MCTPayroll) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]*models.MCTPayroll, len(records))
	for i, r := range records {
		cp := *r
		s.records[i] = &cp
	}
}

func (s *PayrollStore) FindByCheckNumber(_ context.Context, num string) (*models.MCTPayroll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if strings.EqualFold(r.CheckNumber, num) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
