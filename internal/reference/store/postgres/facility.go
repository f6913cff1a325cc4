package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"afya/internal/match"
	"afya/internal/reference/models"
	refservice "afya/internal/reference/service"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
)

// FacilityStore implements the facility store over PostgreSQL.
type FacilityStore struct {
	db *sql.DB
}

func NewFacilityStore(db *sql.DB) *FacilityStore {
	return &FacilityStore{db: db}
}

const facilityColumns = `
	id, title, address, type_id, region_id, owner, ownership_type, phone,
	is_user_submitted, created_at, updated_at`

func (s *FacilityStore) Create(ctx context.Context, facility *models.Facility) error {
	_, err := q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO facilities (`+facilityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		facility.ID.String(), facility.Title, facility.Address,
		facility.TypeID.String(), facility.RegionID.String(),
		facility.Owner, facility.OwnershipType, facility.Phone,
		facility.IsUserSubmitted, facility.CreatedAt, facility.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert facility: %w", err)
	}
	return nil
}

func (s *FacilityStore) FindByID(ctx context.Context, facilityID id.FacilityID) (*models.Facility, error) {
	row := q(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+facilityColumns+` FROM facilities WHERE id = $1`, facilityID.String())
	facility, err := scanFacility(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return facility, nil
}

// List pushes the title predicate down: prefix via ILIKE, fuzzy via
// similarity() or levenshtein() depending on the configured algorithm.
func (s *FacilityStore) List(ctx context.Context, filter refservice.FacilityFilter) ([]*models.Facility, error) {
	query := `SELECT` + facilityColumns + ` FROM facilities WHERE 1=1`
	var args []any

	if filter.RegionIDs != nil {
		if len(filter.RegionIDs) == 0 {
			return []*models.Facility{}, nil
		}
		ids := make([]string, 0, len(filter.RegionIDs))
		for rid := range filter.RegionIDs {
			ids = append(ids, rid.String())
		}
		args = append(args, pq.Array(ids))
		query += fmt.Sprintf(" AND region_id = ANY($%d::uuid[])", len(args))
	}

	if filter.Title != "" {
		switch {
		case filter.Fuzzy == nil:
			args = append(args, filter.Title+"%")
			query += fmt.Sprintf(" AND title ILIKE $%d", len(args))
		case filter.Fuzzy.Algorithm == match.AlgorithmLevenshtein:
			threshold := filter.Fuzzy.Threshold
			if threshold == 0 {
				threshold = match.DefaultLevenshteinThreshold
			}
			args = append(args, filter.Title, int(threshold))
			query += fmt.Sprintf(" AND levenshtein(lower(title), lower($%d)) <= $%d", len(args)-1, len(args))
		default:
			threshold := filter.Fuzzy.Threshold
			if threshold == 0 {
				threshold = match.DefaultTrigramThreshold
			}
			args = append(args, filter.Title, threshold)
			query += fmt.Sprintf(" AND similarity(lower(title), lower($%d)) >= $%d", len(args)-1, len(args))
		}
	}
	query += " ORDER BY title"

	rows, err := q(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var out []*models.Facility
	for rows.Next() {
		facility, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, facility)
	}
	return out, rows.Err()
}

func scanFacility(row rowScanner) (*models.Facility, error) {
	var facility models.Facility
	var rawID, rawType, rawRegion string
	err := row.Scan(
		&rawID, &facility.Title, &facility.Address, &rawType, &rawRegion,
		&facility.Owner, &facility.OwnershipType, &facility.Phone,
		&facility.IsUserSubmitted, &facility.CreatedAt, &facility.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsedID, err := id.ParseFacilityID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan facility id: %w", err)
	}
	facility.ID = parsedID
	parsedType, err := id.ParseFacilityTypeID(rawType)
	if err != nil {
		return nil, fmt.Errorf("scan facility type id: %w", err)
	}
	facility.TypeID = parsedType
	parsedRegion, err := id.ParseRegionID(rawRegion)
	if err != nil {
		return nil, fmt.Errorf("scan facility region id: %w", err)
	}
	facility.RegionID = parsedRegion
	return &facility, nil
}

// FacilityTypeStore implements the facility type store over PostgreSQL.
type FacilityTypeStore struct {
	db *sql.DB
}

func NewFacilityTypeStore(db *sql.DB) *FacilityTypeStore {
	return &FacilityTypeStore{db: db}
}

func (s *FacilityTypeStore) Create(ctx context.Context, facilityType *models.FacilityType) error {
	_, err := q(ctx, s.db).ExecContext(ctx,
		`INSERT INTO facility_types (id, title, priority) VALUES ($1, $2, $3)`,
		facilityType.ID.String(), facilityType.Title, facilityType.Priority)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert facility type: %w", err)
	}
	return nil
}

func (s *FacilityTypeStore) FindByID(ctx context.Context, typeID id.FacilityTypeID) (*models.FacilityType, error) {
	var ft models.FacilityType
	var raw string
	err := q(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, title, priority FROM facility_types WHERE id = $1`, typeID.String()).
		Scan(&raw, &ft.Title, &ft.Priority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find facility type: %w", err)
	}
	parsed, err := id.ParseFacilityTypeID(raw)
	if err != nil {
		return nil, fmt.Errorf("scan facility type id: %w", err)
	}
	ft.ID = parsed
	return &ft, nil
}
