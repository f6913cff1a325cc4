package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"afya/internal/match"
	"afya/internal/reference/models"
	"afya/internal/reference/service"
	"afya/internal/reference/store/memory"
	id "afya/pkg/domain"
	dErrors "afya/pkg/domain-errors"
	"afya/pkg/requestcontext"
)

type ReferenceServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *service.Service

	regions       *memory.RegionStore
	registrations *memory.RegistrationStore

	countryType  id.RegionTypeID
	regionType   id.RegionTypeID
	districtType id.RegionTypeID

	tanzania  id.RegionID
	dar       id.RegionID
	kinondoni id.RegionID
	temeke    id.RegionID
	mwanza    id.RegionID

	facilityType id.FacilityTypeID
}

func (s *ReferenceServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))

	regionTypes := memory.NewRegionTypeStore()
	s.regions = memory.NewRegionStore(regionTypes)
	specialties := memory.NewSpecialtyStore()
	facilities := memory.NewFacilityStore()
	facilityTypes := memory.NewFacilityTypeStore()
	s.registrations = memory.NewRegistrationStore()

	s.service = service.New(s.regions, regionTypes, specialties, facilities, facilityTypes, s.registrations)

	s.countryType = s.createRegionType(regionTypes, "Country")
	s.regionType = s.createRegionType(regionTypes, "Region")
	s.districtType = s.createRegionType(regionTypes, "District")

	s.tanzania = s.createRegion("Tanzania", s.countryType, nil)
	s.dar = s.createRegion("Dar es Salaam", s.regionType, &s.tanzania)
	s.kinondoni = s.createRegion("Kinondoni", s.districtType, &s.dar)
	s.temeke = s.createRegion("Temeke", s.districtType, &s.dar)
	s.mwanza = s.createRegion("Mwanza", s.regionType, &s.tanzania)

	s.facilityType = id.NewFacilityTypeID()
	s.Require().NoError(facilityTypes.Create(s.ctx, &models.FacilityType{
		ID: s.facilityType, Title: "Hospital",
	}))
	s.createFacility("Mwananyamala Hospital", s.kinondoni)
	s.createFacility("Temeke Hospital", s.temeke)
	s.createFacility("Bugando Hospital", s.mwanza)
}

func TestReferenceServiceSuite(t *testing.T) {
	suite.Run(t, new(ReferenceServiceSuite))
}

func (s *ReferenceServiceSuite) createRegionType(store *memory.RegionTypeStore, title string) id.RegionTypeID {
	typeID := id.NewRegionTypeID()
	s.Require().NoError(store.Create(s.ctx, &models.RegionType{ID: typeID, Title: title}))
	return typeID
}

func (s *ReferenceServiceSuite) createRegion(title string, typeID id.RegionTypeID, parent *id.RegionID) id.RegionID {
	region, err := s.service.CreateRegion(s.ctx, title, typeID, parent)
	s.Require().NoError(err)
	return region.ID
}

func (s *ReferenceServiceSuite) createFacility(title string, regionID id.RegionID) id.FacilityID {
	facility, err := s.service.CreateFacility(s.ctx, &models.Facility{
		Title: title, TypeID: s.facilityType, RegionID: regionID,
	})
	s.Require().NoError(err)
	return facility.ID
}

func (s *ReferenceServiceSuite) TestRegions() {
	s.Run("parent filter returns direct children only", func() {
		regions, err := s.service.Regions(s.ctx, service.RegionFilter{ParentRegionID: &s.dar})
		s.Require().NoError(err)
		s.Len(regions, 2)
		s.Equal("Kinondoni", regions[0].Title)
		s.Equal("Temeke", regions[1].Title)
	})

	s.Run("type filter is exact and case-insensitive", func() {
		regions, err := s.service.Regions(s.ctx, service.RegionFilter{TypeTitle: "district"})
		s.Require().NoError(err)
		s.Len(regions, 2)
	})

	s.Run("title prefix filter is case-insensitive", func() {
		regions, err := s.service.Regions(s.ctx, service.RegionFilter{TitlePrefix: "dar"})
		s.Require().NoError(err)
		s.Require().Len(regions, 1)
		s.Equal("Dar es Salaam", regions[0].Title)
	})

	s.Run("fuzzy title query strips district stop words", func() {
		regions, err := s.service.Regions(s.ctx, service.RegionFilter{
			TitlePrefix: "Kinondoni Municipal Council",
			Fuzzy:       &match.Config{Algorithm: match.AlgorithmTrigram},
		})
		s.Require().NoError(err)
		s.Require().Len(regions, 1)
		s.Equal("Kinondoni", regions[0].Title)
	})

	s.Run("fuzzy title query tolerates misspellings", func() {
		regions, err := s.service.Regions(s.ctx, service.RegionFilter{
			TitlePrefix: "Kinondni",
			Fuzzy:       &match.Config{Algorithm: match.AlgorithmLevenshtein},
		})
		s.Require().NoError(err)
		s.Require().Len(regions, 1)
		s.Equal("Kinondoni", regions[0].Title)
	})

	s.Run("fuzzy query composes with structural filters", func() {
		regions, err := s.service.Regions(s.ctx, service.RegionFilter{
			TypeTitle:   "District",
			TitlePrefix: "Temeke Municipal Council",
			Fuzzy:       &match.Config{Algorithm: match.AlgorithmTrigram},
		})
		s.Require().NoError(err)
		s.Require().Len(regions, 1)
		s.Equal("Temeke", regions[0].Title)
	})

	s.Run("no filter lists everything sorted by title", func() {
		regions, err := s.service.Regions(s.ctx, service.RegionFilter{})
		s.Require().NoError(err)
		s.Len(regions, 5)
		s.True(sortedByTitle(regions))
	})
}

func sortedByTitle(regions []*models.Region) bool {
	for i := 1; i < len(regions); i++ {
		if regions[i-1].Title > regions[i].Title {
			return false
		}
	}
	return true
}

func (s *ReferenceServiceSuite) TestRegionClosure() {
	s.Run("closure includes the region and all descendants", func() {
		closure, err := s.service.RegionClosure(s.ctx, s.dar)
		s.Require().NoError(err)
		s.Len(closure, 3)
		s.Contains(closure, s.dar)
		s.Contains(closure, s.kinondoni)
		s.Contains(closure, s.temeke)
	})

	s.Run("leaf closure is the leaf itself", func() {
		closure, err := s.service.RegionClosure(s.ctx, s.kinondoni)
		s.Require().NoError(err)
		s.Len(closure, 1)
	})

	s.Run("unknown region is NotFound", func() {
		_, err := s.service.RegionClosure(s.ctx, id.NewRegionID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ReferenceServiceSuite) TestFacilities() {
	s.Run("region scope covers the whole subtree", func() {
		facilities, err := s.service.Facilities(s.ctx, "", &s.dar, nil)
		s.Require().NoError(err)
		s.Len(facilities, 2)
	})

	s.Run("country scope covers everything", func() {
		facilities, err := s.service.Facilities(s.ctx, "", &s.tanzania, nil)
		s.Require().NoError(err)
		s.Len(facilities, 3)
	})

	s.Run("unknown region yields an empty result, not an error", func() {
		unknown := id.NewRegionID()
		facilities, err := s.service.Facilities(s.ctx, "", &unknown, nil)
		s.Require().NoError(err)
		s.Empty(facilities)
	})

	s.Run("plain title is a prefix match", func() {
		facilities, err := s.service.Facilities(s.ctx, "Mwana", nil, nil)
		s.Require().NoError(err)
		s.Require().Len(facilities, 1)
		s.Equal("Mwananyamala Hospital", facilities[0].Title)
	})

	s.Run("fuzzy title strips facility stop words from the query", func() {
		facilities, err := s.service.Facilities(s.ctx, "Mwananyamala Hospital", nil,
			&match.Config{Algorithm: match.AlgorithmTrigram})
		s.Require().NoError(err)
		s.Require().Len(facilities, 1)
		s.Equal("Mwananyamala Hospital", facilities[0].Title)
	})

	s.Run("fuzzy levenshtein tolerates misspelling", func() {
		facilities, err := s.service.Facilities(s.ctx, "Bugando Hospitall", nil,
			&match.Config{Algorithm: match.AlgorithmLevenshtein, Threshold: 2})
		s.Require().NoError(err)
		s.Require().Len(facilities, 1)
		s.Equal("Bugando Hospital", facilities[0].Title)
	})
}

func (s *ReferenceServiceSuite) TestSpecialties() {
	for _, spec := range []struct {
		title    string
		priority int
	}{
		{"Nursing", 1},
		{"Anaesthesia", 5},
		{"Surgery", 5},
		{"Medicine", 3},
	} {
		_, err := s.service.CreateSpecialty(s.ctx, &models.Specialty{
			Title: spec.title, Priority: spec.priority,
		})
		s.Require().NoError(err)
	}

	specialties, err := s.service.Specialties(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(specialties, 4)

	titles := make([]string, len(specialties))
	for i, spec := range specialties {
		titles[i] = spec.Title
	}
	// descending priority, ties broken by ascending title
	s.Equal([]string{"Anaesthesia", "Surgery", "Medicine", "Nursing"}, titles)
}

func (s *ReferenceServiceSuite) TestSearchRegistrations() {
	s.registrations.Load([]*models.MCTRegistration{
		{ID: "1", RegistrationNumber: "MCT-100", Name: "Amani Mushi"},
		{ID: "2", RegistrationNumber: "MCT-200", Name: "Neema Kimaro"},
		{ID: "3", RegistrationNumber: "MCT-300", Name: "Amani Mushy"},
	})

	s.Run("by registration number", func() {
		records, err := s.service.SearchRegistrations(s.ctx, "MCT-200", "", 0)
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal("Neema Kimaro", records[0].Name)
	})

	s.Run("by name within edit distance", func() {
		records, err := s.service.SearchRegistrations(s.ctx, "", "Amani Mushi", 0)
		s.Require().NoError(err)
		s.Len(records, 2)
	})

	s.Run("limit caps the result", func() {
		records, err := s.service.SearchRegistrations(s.ctx, "", "Amani Mushi", 1)
		s.Require().NoError(err)
		s.Len(records, 1)
	})
}

func (s *ReferenceServiceSuite) TestCreateRegion() {
	s.Run("duplicate title under the same parent conflicts", func() {
		_, err := s.service.CreateRegion(s.ctx, "kinondoni", s.districtType, &s.dar)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("same title under a different parent is fine", func() {
		_, err := s.service.CreateRegion(s.ctx, "Kinondoni", s.districtType, &s.mwanza)
		s.Require().NoError(err)
	})

	s.Run("unknown type is invalid input", func() {
		_, err := s.service.CreateRegion(s.ctx, "Dodoma", id.NewRegionTypeID(), &s.tanzania)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal("type", dErrors.Key(err))
	})

	s.Run("unknown parent is invalid input", func() {
		unknown := id.NewRegionID()
		_, err := s.service.CreateRegion(s.ctx, "Dodoma", s.regionType, &unknown)
		s.Equal("parent_region_id", dErrors.Key(err))
	})

	s.Run("blank title is invalid input", func() {
		_, err := s.service.CreateRegion(s.ctx, "   ", s.regionType, nil)
		s.Equal("title", dErrors.Key(err))
	})
}

func (s *ReferenceServiceSuite) TestCreateFacility() {
	s.Run("unknown region is invalid input", func() {
		_, err := s.service.CreateFacility(s.ctx, &models.Facility{
			Title: "Somewhere", TypeID: s.facilityType, RegionID: id.NewRegionID(),
		})
		s.Equal("region_id", dErrors.Key(err))
	})

	s.Run("duplicate title in the same region conflicts", func() {
		_, err := s.service.CreateFacility(s.ctx, &models.Facility{
			Title: "temeke hospital", TypeID: s.facilityType, RegionID: s.temeke,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ReferenceServiceSuite) TestSeedSpecialties() {
	seed := strings.Join([]string{
		"Cadre\tCadre Abbreviation\tSpecialty\tSuper Specialty",
		"Medical Doctor\tMD\t\t",
		"\t\tSurgery\t",
		"\t\t\tNeurosurgery",
		"\t\tInternal Medicine\t",
		"Nurse\tRN\t\t",
		"\t\tMidwifery\t",
	}, "\n")

	created, err := s.service.SeedSpecialties(s.ctx, strings.NewReader(seed))
	s.Require().NoError(err)
	s.Equal(6, created)

	specialties, err := s.service.Specialties(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(specialties, 6)

	byTitle := make(map[string]*models.Specialty, len(specialties))
	for _, spec := range specialties {
		byTitle[spec.Title] = spec
	}

	s.Nil(byTitle["Medical Doctor"].ParentSpecialtyID)
	s.Equal("MD", byTitle["Medical Doctor"].Abbreviation)
	s.Require().NotNil(byTitle["Surgery"].ParentSpecialtyID)
	s.Equal(byTitle["Medical Doctor"].ID, *byTitle["Surgery"].ParentSpecialtyID)
	s.Require().NotNil(byTitle["Neurosurgery"].ParentSpecialtyID)
	s.Equal(byTitle["Surgery"].ID, *byTitle["Neurosurgery"].ParentSpecialtyID)
	s.Require().NotNil(byTitle["Midwifery"].ParentSpecialtyID)
	s.Equal(byTitle["Nurse"].ID, *byTitle["Midwifery"].ParentSpecialtyID)

	s.Run("closure spans the seeded forest", func() {
		closure, err := s.service.SpecialtyClosure(s.ctx, byTitle["Medical Doctor"].ID)
		s.Require().NoError(err)
		s.Len(closure, 4)
	})

	s.Run("orphan specialty row fails", func() {
		_, err := s.service.SeedSpecialties(s.ctx, strings.NewReader(
			"Cadre\tSpecialty\n\tOrphan\n"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
