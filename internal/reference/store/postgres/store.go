// Package postgres holds the durable reference stores. Fuzzy predicates are
// pushed down to pg_trgm similarity() and fuzzystrmatch levenshtein() so the
// SQL filters agree with the in-process matcher.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"afya/internal/reference/models"
	refservice "afya/internal/reference/service"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
	txcontext "afya/pkg/platform/tx"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func q(ctx context.Context, db *sql.DB) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// RegionStore implements the region store over PostgreSQL.
type RegionStore struct {
	db *sql.DB
}

func NewRegionStore(db *sql.DB) *RegionStore {
	return &RegionStore{db: db}
}

func (s *RegionStore) Create(ctx context.Context, region *models.Region) error {
	_, err := q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO regions (id, title, type_id, parent_region_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		region.ID.String(), region.Title, region.TypeID.String(),
		regionParent(region.ParentRegionID), region.CreatedAt, region.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert region: %w", err)
	}
	return nil
}

func (s *RegionStore) FindByID(ctx context.Context, regionID id.RegionID) (*models.Region, error) {
	row := q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, title, type_id, parent_region_id, created_at, updated_at
		FROM regions WHERE id = $1`, regionID.String())
	region, err := scanRegion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return region, nil
}

func (s *RegionStore) List(ctx context.Context, filter refservice.RegionFilter) ([]*models.Region, error) {
	query := `
		SELECT r.id, r.title, r.type_id, r.parent_region_id, r.created_at, r.updated_at
		FROM regions r
		JOIN region_types t ON t.id = r.type_id
		WHERE 1=1`
	var args []any
	if filter.ParentRegionID != nil {
		args = append(args, filter.ParentRegionID.String())
		query += fmt.Sprintf(" AND r.parent_region_id = $%d", len(args))
	}
	if filter.TypeTitle != "" {
		args = append(args, filter.TypeTitle)
		query += fmt.Sprintf(" AND lower(t.title) = lower($%d)", len(args))
	}
	if filter.TitlePrefix != "" {
		args = append(args, filter.TitlePrefix+"%")
		query += fmt.Sprintf(" AND r.title ILIKE $%d", len(args))
	}
	query += " ORDER BY r.title"

	rows, err := q(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var out []*models.Region
	for rows.Next() {
		region, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, region)
	}
	return out, rows.Err()
}

func (s *RegionStore) Exists(ctx context.Context, regionID id.RegionID) (bool, error) {
	var exists bool
	err := q(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM regions WHERE id = $1)`, regionID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("region exists: %w", err)
	}
	return exists, nil
}

func (s *RegionStore) Children(ctx context.Context, regionID id.RegionID) ([]id.RegionID, error) {
	rows, err := q(ctx, s.db).QueryContext(ctx,
		`SELECT id FROM regions WHERE parent_region_id = $1`, regionID.String())
	if err != nil {
		return nil, fmt.Errorf("region children: %w", err)
	}
	defer rows.Close()

	var out []id.RegionID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		parsed, err := id.ParseRegionID(raw)
		if err != nil {
			return nil, fmt.Errorf("scan region id: %w", err)
		}
		out = append(out, parsed)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegion(row rowScanner) (*models.Region, error) {
	var region models.Region
	var rawID, rawType string
	var rawParent sql.NullString
	if err := row.Scan(&rawID, &region.Title, &rawType, &rawParent, &region.CreatedAt, &region.UpdatedAt); err != nil {
		return nil, err
	}
	parsedID, err := id.ParseRegionID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan region id: %w", err)
	}
	region.ID = parsedID
	parsedType, err := id.ParseRegionTypeID(rawType)
	if err != nil {
		return nil, fmt.Errorf("scan region type id: %w", err)
	}
	region.TypeID = parsedType
	if rawParent.Valid {
		parent, err := id.ParseRegionID(rawParent.String)
		if err != nil {
			return nil, fmt.Errorf("scan parent region id: %w", err)
		}
		region.ParentRegionID = &parent
	}
	return &region, nil
}

func regionParent(parent *id.RegionID) any {
	if parent == nil {
		return nil
	}
	return parent.String()
}

// RegionTypeStore implements the region type store over PostgreSQL.
type RegionTypeStore struct {
	db *sql.DB
}

func NewRegionTypeStore(db *sql.DB) *RegionTypeStore {
	return &RegionTypeStore{db: db}
}

func (s *RegionTypeStore) Create(ctx context.Context, regionType *models.RegionType) error {
	_, err := q(ctx, s.db).ExecContext(ctx,
		`INSERT INTO region_types (id, title) VALUES ($1, $2)`,
		regionType.ID.String(), regionType.Title)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert region type: %w", err)
	}
	return nil
}

func (s *RegionTypeStore) FindByID(ctx context.Context, typeID id.RegionTypeID) (*models.RegionType, error) {
	var rt models.RegionType
	var raw string
	err := q(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, title FROM region_types WHERE id = $1`, typeID.String()).Scan(&raw, &rt.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find region type: %w", err)
	}
	parsed, err := id.ParseRegionTypeID(raw)
	if err != nil {
		return nil, fmt.Errorf("scan region type id: %w", err)
	}
	rt.ID = parsed
	return &rt, nil
}
