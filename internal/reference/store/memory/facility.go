package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"afya/internal/reference/models"
	refservice "afya/internal/reference/service"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
)

// FacilityStore keeps facilities with title filtering done in process. The
// postgres twin pushes the same predicates down as SQL.
type FacilityStore struct {
	mu         sync.RWMutex
	facilities map[id.FacilityID]*models.Facility
}

func NewFacilityStore() *FacilityStore {
	return &FacilityStore{facilities: make(map[id.FacilityID]*models.Facility)}
}

func (s *FacilityStore) Create(_ context.Context, facility *models.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.facilities {
		if existing.RegionID == facility.RegionID &&
			strings.EqualFold(existing.Title, facility.Title) {
			return sentinel.ErrConflict
		}
	}
	cp := *facility
	s.facilities[facility.ID] = &cp
	return nil
}

func (s *FacilityStore) FindByID(_ context.Context, facilityID id.FacilityID) (*models.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	facility, ok := s.facilities[facilityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *facility
	return &cp, nil
}

func (s *FacilityStore) List(_ context.Context, filter refservice.FacilityFilter) ([]*models.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Facility
	for _, facility := range s.facilities {
		if filter.RegionIDs != nil {
			if _, ok := filter.RegionIDs[facility.RegionID]; !ok {
				continue
			}
		}
		if filter.Title != "" {
			if filter.Fuzzy != nil {
				if !filter.Fuzzy.Matches(facility.Title, filter.Title) {
					continue
				}
			} else if !strings.HasPrefix(strings.ToLower(facility.Title), strings.ToLower(filter.Title)) {
				continue
			}
		}
		cp := *facility
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}
