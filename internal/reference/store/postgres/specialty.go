package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"afya/internal/reference/models"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
)

// SpecialtyStore implements the specialty store over PostgreSQL.
type SpecialtyStore struct {
	db *sql.DB
}

func NewSpecialtyStore(db *sql.DB) *SpecialtyStore {
	return &SpecialtyStore{db: db}
}

const specialtyColumns = `
	id, title, abbreviation, short_title, parent_specialty_id, priority,
	is_user_submitted, msisdn, created_at, updated_at`

func (s *SpecialtyStore) Create(ctx context.Context, spec *models.Specialty) error {
	_, err := q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO specialties (`+specialtyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		spec.ID.String(), spec.Title, spec.Abbreviation, spec.ShortTitle,
		specialtyParent(spec.ParentSpecialtyID), spec.Priority,
		spec.IsUserSubmitted, spec.MSISDN, spec.CreatedAt, spec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert specialty: %w", err)
	}
	return nil
}

func (s *SpecialtyStore) FindByID(ctx context.Context, specialtyID id.SpecialtyID) (*models.Specialty, error) {
	row := q(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+specialtyColumns+` FROM specialties WHERE id = $1`, specialtyID.String())
	spec, err := scanSpecialty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return spec, nil
}

// List returns every specialty in presentation order: highest priority first,
// ties broken by title.
func (s *SpecialtyStore) List(ctx context.Context) ([]*models.Specialty, error) {
	rows, err := q(ctx, s.db).QueryContext(ctx,
		`SELECT`+specialtyColumns+` FROM specialties ORDER BY priority DESC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()

	var out []*models.Specialty
	for rows.Next() {
		spec, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, rows.Err()
}

func (s *SpecialtyStore) Exists(ctx context.Context, specialtyID id.SpecialtyID) (bool, error) {
	var exists bool
	err := q(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM specialties WHERE id = $1)`, specialtyID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("specialty exists: %w", err)
	}
	return exists, nil
}

func (s *SpecialtyStore) Children(ctx context.Context, specialtyID id.SpecialtyID) ([]id.SpecialtyID, error) {
	rows, err := q(ctx, s.db).QueryContext(ctx,
		`SELECT id FROM specialties WHERE parent_specialty_id = $1`, specialtyID.String())
	if err != nil {
		return nil, fmt.Errorf("specialty children: %w", err)
	}
	defer rows.Close()

	var out []id.SpecialtyID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		parsed, err := id.ParseSpecialtyID(raw)
		if err != nil {
			return nil, fmt.Errorf("scan specialty id: %w", err)
		}
		out = append(out, parsed)
	}
	return out, rows.Err()
}

func scanSpecialty(row rowScanner) (*models.Specialty, error) {
	var spec models.Specialty
	var rawID string
	var rawParent sql.NullString
	err := row.Scan(
		&rawID, &spec.Title, &spec.Abbreviation, &spec.ShortTitle, &rawParent, &spec.Priority,
		&spec.IsUserSubmitted, &spec.MSISDN, &spec.CreatedAt, &spec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsedID, err := id.ParseSpecialtyID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan specialty id: %w", err)
	}
	spec.ID = parsedID
	if rawParent.Valid {
		parent, err := id.ParseSpecialtyID(rawParent.String)
		if err != nil {
			return nil, fmt.Errorf("scan parent specialty id: %w", err)
		}
		spec.ParentSpecialtyID = &parent
	}
	return &spec, nil
}

func specialtyParent(parent *id.SpecialtyID) any {
	if parent == nil {
		return nil
	}
	return parent.String()
}
