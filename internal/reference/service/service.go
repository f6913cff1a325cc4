// Package service orchestrates reference-data reads and the explicit create
// operations. It owns no mutable state itself; everything lives behind the
// store interfaces.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"afya/internal/hierarchy"
	"afya/internal/match"
	"afya/internal/reference/models"
	id "afya/pkg/domain"
	dErrors "afya/pkg/domain-errors"
	"afya/pkg/platform/sentinel"
	"afya/pkg/requestcontext"
)

// RegionFilter narrows a region listing. Zero values mean "no constraint".
// Fuzzy, when non-nil, replaces prefix matching on TitlePrefix with a
// similarity predicate; the query then passes through the district stop-word
// normalizer, so "Kinondoni Municipal Council" finds the Kinondoni region.
type RegionFilter struct {
	ParentRegionID *id.RegionID
	TypeTitle      string // exact, case-insensitive
	TitlePrefix    string // case-insensitive prefix
	Fuzzy          *match.Config
}

// FacilityFilter narrows a facility listing. RegionIDs, when non-nil, is a
// closed set computed from the region closure. Fuzzy, when non-nil, replaces
// prefix matching on Title with a similarity predicate.
type FacilityFilter struct {
	Title     string
	Fuzzy     *match.Config
	RegionIDs map[id.RegionID]struct{}
}

// RegistrationFilter narrows the MCT registration search.
type RegistrationFilter struct {
	RegistrationNumber string
	Name               string
	Fuzzy              match.Config
	Limit              int
}

type RegionStore interface {
	Create(ctx context.Context, region *models.Region) error
	FindByID(ctx context.Context, regionID id.RegionID) (*models.Region, error)
	List(ctx context.Context, filter RegionFilter) ([]*models.Region, error)
	// Exists and Children make the store a hierarchy.ChildSource.
	Exists(ctx context.Context, regionID id.RegionID) (bool, error)
	Children(ctx context.Context, regionID id.RegionID) ([]id.RegionID, error)
}

type RegionTypeStore interface {
	Create(ctx context.Context, regionType *models.RegionType) error
	FindByID(ctx context.Context, typeID id.RegionTypeID) (*models.RegionType, error)
}

type SpecialtyStore interface {
	Create(ctx context.Context, specialty *models.Specialty) error
	FindByID(ctx context.Context, specialtyID id.SpecialtyID) (*models.Specialty, error)
	// List returns all specialties ordered by descending priority, then
	// ascending title.
	List(ctx context.Context) ([]*models.Specialty, error)
	Exists(ctx context.Context, specialtyID id.SpecialtyID) (bool, error)
	Children(ctx context.Context, specialtyID id.SpecialtyID) ([]id.SpecialtyID, error)
}

type FacilityStore interface {
	Create(ctx context.Context, facility *models.Facility) error
	FindByID(ctx context.Context, facilityID id.FacilityID) (*models.Facility, error)
	List(ctx context.Context, filter FacilityFilter) ([]*models.Facility, error)
}

type FacilityTypeStore interface {
	Create(ctx context.Context, facilityType *models.FacilityType) error
	FindByID(ctx context.Context, typeID id.FacilityTypeID) (*models.FacilityType, error)
}

type RegistrationStore interface {
	FindByRegistrationNumber(ctx context.Context, num string) (*models.MCTRegistration, error)
	// Search pushes the similarity predicate down to the store.
	Search(ctx context.Context, filter RegistrationFilter) ([]*models.MCTRegistration, error)
}

// Service bundles the reference stores behind the operations the transport
// and the worker engine need.
type Service struct {
	regions       RegionStore
	regionTypes   RegionTypeStore
	specialties   SpecialtyStore
	facilities    FacilityStore
	facilityTypes FacilityTypeStore
	registrations RegistrationStore
	logger        *slog.Logger

	districtNorm *match.Normalizer
	facilityNorm *match.Normalizer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(
	regions RegionStore,
	regionTypes RegionTypeStore,
	specialties SpecialtyStore,
	facilities FacilityStore,
	facilityTypes FacilityTypeStore,
	registrations RegistrationStore,
	opts ...Option,
) *Service {
	s := &Service{
		regions:       regions,
		regionTypes:   regionTypes,
		specialties:   specialties,
		facilities:    facilities,
		facilityTypes: facilityTypes,
		registrations: registrations,
		logger:        slog.Default(),
		districtNorm:  match.DistrictNormalizer(),
		facilityNorm:  match.FacilityNormalizer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Regions lists regions under the given filter. Structural constraints go to
// the store; fuzzy title matching runs here with the district stop-word
// normalizer so both store implementations rank identically.
func (s *Service) Regions(ctx context.Context, filter RegionFilter) ([]*models.Region, error) {
	fuzzy := filter.Fuzzy
	query := filter.TitlePrefix
	if fuzzy != nil {
		filter.TitlePrefix = ""
		filter.Fuzzy = nil
	}

	regions, err := s.regions.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list regions")
	}
	if fuzzy != nil && query != "" {
		regions = match.Filter(regions,
			func(r *models.Region) string { return r.Title }, query, s.districtNorm, *fuzzy)
	}
	return regions, nil
}

// RegionClosure returns the region plus all of its subregions.
func (s *Service) RegionClosure(ctx context.Context, regionID id.RegionID) (map[id.RegionID]struct{}, error) {
	closure, err := hierarchy.Descendants[id.RegionID](ctx, s.regions, regionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "region not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve subregions")
	}
	return closure, nil
}

// SpecialtyClosure returns the specialty plus all of its descendants.
func (s *Service) SpecialtyClosure(ctx context.Context, specialtyID id.SpecialtyID) (map[id.SpecialtyID]struct{}, error) {
	closure, err := hierarchy.Descendants[id.SpecialtyID](ctx, s.specialties, specialtyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "specialty not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve specialty tree")
	}
	return closure, nil
}

// Specialty returns a specialty by ID.
func (s *Service) Specialty(ctx context.Context, specialtyID id.SpecialtyID) (*models.Specialty, error) {
	spec, err := s.specialties.FindByID(ctx, specialtyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "specialty not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load specialty")
	}
	return spec, nil
}

// Facility returns a facility by ID.
func (s *Service) Facility(ctx context.Context, facilityID id.FacilityID) (*models.Facility, error) {
	facility, err := s.facilities.FindByID(ctx, facilityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "facility not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load facility")
	}
	return facility, nil
}

// Specialties lists all specialties, highest priority first, ties broken by
// title.
func (s *Service) Specialties(ctx context.Context) ([]*models.Specialty, error) {
	specialties, err := s.specialties.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list specialties")
	}
	return specialties, nil
}

// Facilities lists facilities, optionally scoped to a region's closure and
// optionally matched fuzzily on title. Facility queries get the facility
// stop-word normalizer; the district normalizer applies when callers search
// regions instead.
func (s *Service) Facilities(ctx context.Context, title string, regionID *id.RegionID, fuzzy *match.Config) ([]*models.Facility, error) {
	filter := FacilityFilter{Title: title}

	if regionID != nil {
		closure, err := s.RegionClosure(ctx, *regionID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				// Unknown region scopes the query to nothing, matching the
				// behavior of filtering on an empty ID set.
				s.logger.DebugContext(ctx, "facility query for unknown region", "region_id", regionID.String())
				return []*models.Facility{}, nil
			}
			return nil, err
		}
		filter.RegionIDs = closure
	}

	if fuzzy != nil {
		cfg := *fuzzy
		if normalized := s.facilityNorm.Normalize(title); normalized != "" {
			filter.Title = normalized
		}
		filter.Fuzzy = &cfg
	}

	facilities, err := s.facilities.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list facilities")
	}
	return facilities, nil
}

// SearchRegistrations looks up MCT registrations by number and/or fuzzy name.
// Limit defaults to 20, the page size the original consumers expect.
func (s *Service) SearchRegistrations(ctx context.Context, number, name string, limit int) ([]*models.MCTRegistration, error) {
	if limit <= 0 {
		limit = 20
	}
	filter := RegistrationFilter{
		RegistrationNumber: strings.TrimSpace(number),
		Name:               strings.TrimSpace(name),
		Fuzzy:              match.Config{Algorithm: match.AlgorithmLevenshtein},
		Limit:              limit,
	}
	records, err := s.registrations.Search(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search registrations")
	}
	return records, nil
}

// CreateRegion adds a region after resolving its type and optional parent.
func (s *Service) CreateRegion(ctx context.Context, title string, typeID id.RegionTypeID, parentID *id.RegionID) (*models.Region, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "title", "region title is required")
	}
	if _, err := s.regionTypes.FindByID(ctx, typeID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "type", "region type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve region type")
	}
	if parentID != nil {
		if _, err := s.regions.FindByID(ctx, *parentID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "parent_region_id", "parent region not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve parent region")
		}
	}

	now := requestcontext.Now(ctx)
	region := &models.Region{
		ID:             id.NewRegionID(),
		Title:          title,
		TypeID:         typeID,
		ParentRegionID: parentID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.regions.Create(ctx, region); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "region title already exists under this parent")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create region")
	}
	return region, nil
}

// CreateSpecialty adds a specialty under an optional parent.
func (s *Service) CreateSpecialty(ctx context.Context, spec *models.Specialty) (*models.Specialty, error) {
	spec.Title = strings.TrimSpace(spec.Title)
	if spec.Title == "" {
		return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "title", "specialty title is required")
	}
	if spec.ParentSpecialtyID != nil {
		if _, err := s.specialties.FindByID(ctx, *spec.ParentSpecialtyID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "parent_specialty_id", "parent specialty not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve parent specialty")
		}
	}

	now := requestcontext.Now(ctx)
	if spec.ID.IsNil() {
		spec.ID = id.NewSpecialtyID()
	}
	spec.CreatedAt = now
	spec.UpdatedAt = now
	if err := s.specialties.Create(ctx, spec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "specialty title already exists under this parent")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create specialty")
	}
	return spec, nil
}

// CreateFacility adds a facility after resolving its type and region.
func (s *Service) CreateFacility(ctx context.Context, facility *models.Facility) (*models.Facility, error) {
	facility.Title = strings.TrimSpace(facility.Title)
	if facility.Title == "" {
		return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "title", "facility title is required")
	}
	if _, err := s.facilityTypes.FindByID(ctx, facility.TypeID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "type", "facility type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve facility type")
	}
	if _, err := s.regions.FindByID(ctx, facility.RegionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "region_id", "region not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve region")
	}

	now := requestcontext.Now(ctx)
	if facility.ID.IsNil() {
		facility.ID = id.NewFacilityID()
	}
	facility.CreatedAt = now
	facility.UpdatedAt = now
	if err := s.facilities.Create(ctx, facility); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "facility title already exists in this region")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create facility")
	}
	return facility, nil
}
