// Package memory provides in-memory reference stores. They back unit tests
// and single-node deployments; the postgres package is the durable twin.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"afya/internal/hierarchy"
	"afya/internal/reference/models"
	refservice "afya/internal/reference/service"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
)

// RegionStore keeps regions in an ID-addressed arena with a lazily built
// children index for closure traversal.
type RegionStore struct {
	mu      sync.RWMutex
	regions map[id.RegionID]*models.Region
	types   *RegionTypeStore
	forest  *hierarchy.Forest[id.RegionID]
}

func NewRegionStore(types *RegionTypeStore) *RegionStore {
	return &RegionStore{
		regions: make(map[id.RegionID]*models.Region),
		types:   types,
		forest:  hierarchy.NewForest[id.RegionID](),
	}
}

func (s *RegionStore) Create(_ context.Context, region *models.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.regions {
		if sameParent(existing.ParentRegionID, region.ParentRegionID) &&
			strings.EqualFold(existing.Title, region.Title) {
			return sentinel.ErrConflict
		}
	}

	cp := *region
	s.regions[region.ID] = &cp
	s.forest.Add(region.ID, region.ParentRegionID)
	return nil
}

func (s *RegionStore) FindByID(_ context.Context, regionID id.RegionID) (*models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	region, ok := s.regions[regionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *region
	return &cp, nil
}

func (s *RegionStore) List(ctx context.Context, filter refservice.RegionFilter) ([]*models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Region
	for _, region := range s.regions {
		if filter.ParentRegionID != nil &&
			(region.ParentRegionID == nil || *region.ParentRegionID != *filter.ParentRegionID) {
			continue
		}
		if filter.TypeTitle != "" {
			rt, err := s.types.FindByID(ctx, region.TypeID)
			if err != nil || !strings.EqualFold(rt.Title, filter.TypeTitle) {
				continue
			}
		}
		if filter.TitlePrefix != "" &&
			!strings.HasPrefix(strings.ToLower(region.Title), strings.ToLower(filter.TitlePrefix)) {
			continue
		}
		cp := *region
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *RegionStore) Exists(ctx context.Context, regionID id.RegionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forest.Exists(ctx, regionID)
}

func (s *RegionStore) Children(ctx context.Context, regionID id.RegionID) ([]id.RegionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forest.Children(ctx, regionID)
}

func sameParent[ID comparable](a, b *ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// RegionTypeStore keeps the hierarchy-level catalogue.
type RegionTypeStore struct {
	mu    sync.RWMutex
	types map[id.RegionTypeID]*models.RegionType
}

func NewRegionTypeStore() *RegionTypeStore {
	return &RegionTypeStore{types: make(map[id.RegionTypeID]*models.RegionType)}
}

func (s *RegionTypeStore) Create(_ context.Context, regionType *models.RegionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.types {
		if strings.EqualFold(existing.Title, regionType.Title) {
			return sentinel.ErrConflict
		}
	}
	cp := *regionType
	s.types[regionType.ID] = &cp
	return nil
}

func (s *RegionTypeStore) FindByID(_ context.Context, typeID id.RegionTypeID) (*models.RegionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rt, ok := s.types[typeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}
