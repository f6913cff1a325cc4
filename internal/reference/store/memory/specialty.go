package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"afya/internal/hierarchy"
	"afya/internal/reference/models"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
)

// SpecialtyStore keeps the cadre/specialty/super-specialty forest.
type SpecialtyStore struct {
	mu          sync.RWMutex
	specialties map[id.SpecialtyID]*models.Specialty
	forest      *hierarchy.Forest[id.SpecialtyID]
}

func NewSpecialtyStore() *SpecialtyStore {
	return &SpecialtyStore{
		specialties: make(map[id.SpecialtyID]*models.Specialty),
		forest:      hierarchy.NewForest[id.SpecialtyID](),
	}
}

func (s *SpecialtyStore) Create(_ context.Context, specialty *models.Specialty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.specialties {
		if sameParent(existing.ParentSpecialtyID, specialty.ParentSpecialtyID) &&
			strings.EqualFold(existing.Title, specialty.Title) {
			return sentinel.ErrConflict
		}
	}

	cp := *specialty
	s.specialties[specialty.ID] = &cp
	s.forest.Add(specialty.ID, specialty.ParentSpecialtyID)
	return nil
}

func (s *SpecialtyStore) FindByID(_ context.Context, specialtyID id.SpecialtyID) (*models.Specialty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	specialty, ok := s.specialties[specialtyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *specialty
	return &cp, nil
}

// List returns every specialty ordered by descending priority, ties broken by
// ascending title.
func (s *SpecialtyStore) List(_ context.Context) ([]*models.Specialty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Specialty, 0, len(s.specialties))
	for _, specialty := range s.specialties {
		cp := *specialty
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (s *SpecialtyStore) Exists(ctx context.Context, specialtyID id.SpecialtyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forest.Exists(ctx, specialtyID)
}

func (s *SpecialtyStore) Children(ctx context.Context, specialtyID id.SpecialtyID) ([]id.SpecialtyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forest.Children(ctx, specialtyID)
}
