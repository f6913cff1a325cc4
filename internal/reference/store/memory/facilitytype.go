package memory

import (
	"context"
	"strings"
	"sync"

	"afya/internal/reference/models"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
)

// FacilityTypeStore keeps the facility classification catalogue.
type FacilityTypeStore struct {
	mu    sync.RWMutex
	types map[id.FacilityTypeID]*models.FacilityType
}

func NewFacilityTypeStore() *FacilityTypeStore {
	return &FacilityTypeStore{types: make(map[id.FacilityTypeID]*models.FacilityType)}
}

func (s *FacilityTypeStore) Create(_ context.Context, facilityType *models.FacilityType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.types {
		if strings.EqualFold(existing.Title, facilityType.Title) {
			return sentinel.ErrConflict
		}
	}
	cp := *facilityType
	s.types[facilityType.ID] = &cp
	return nil
}

func (s *FacilityTypeStore) FindByID(_ context.Context, typeID id.FacilityTypeID) (*models.FacilityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ft, ok := s.types[typeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *ft
	return &cp, nil
}
