package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"afya/internal/match"
	"afya/internal/reference/models"
	refservice "afya/internal/reference/service"
	"afya/pkg/platform/sentinel"
)

// RegistrationStore reads the MCT registration dataset. The dataset is loaded
// by import tooling outside this repo; nothing here writes to it.
type RegistrationStore struct {
	db *sql.DB
}

func NewRegistrationStore(db *sql.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

const registrationColumns = `
	id, registration_number, name, cadre, category, country, address,
	birthdate, email, current_employer, registration_type, created_at, updated_at`

func (s *RegistrationStore) FindByRegistrationNumber(ctx context.Context, num string) (*models.MCTRegistration, error) {
	row := q(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+registrationColumns+` FROM mct_registrations WHERE lower(registration_number) = lower($1)`, num)
	record, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *RegistrationStore) Search(ctx context.Context, filter refservice.RegistrationFilter) ([]*models.MCTRegistration, error) {
	query := `SELECT` + registrationColumns + ` FROM mct_registrations WHERE 1=1`
	var args []any
	if filter.RegistrationNumber != "" {
		args = append(args, filter.RegistrationNumber)
		query += fmt.Sprintf(" AND lower(registration_number) = lower($%d)", len(args))
	}
	if filter.Name != "" {
		if filter.Fuzzy.Algorithm == match.AlgorithmLevenshtein {
			threshold := filter.Fuzzy.Threshold
			if threshold == 0 {
				threshold = match.DefaultLevenshteinThreshold
			}
			args = append(args, filter.Name, int(threshold))
			query += fmt.Sprintf(" AND levenshtein(lower(name), lower($%d)) <= $%d", len(args)-1, len(args))
		} else {
			threshold := filter.Fuzzy.Threshold
			if threshold == 0 {
				threshold = match.DefaultTrigramThreshold
			}
			args = append(args, filter.Name, threshold)
			query += fmt.Sprintf(" AND similarity(lower(name), lower($%d)) >= $%d", len(args)-1, len(args))
		}
	}
	query += " ORDER BY name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := q(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.MCTRegistration
	for rows.Next() {
		record, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func scanRegistration(row rowScanner) (*models.MCTRegistration, error) {
	var r models.MCTRegistration
	err := row.Scan(
		&r.ID, &r.RegistrationNumber, &r.Name, &r.Cadre, &r.Category, &r.Country, &r.Address,
		&r.Birthdate, &r.Email, &r.CurrentEmployer, &r.RegistrationType, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// PayrollStore reads the MCT payroll dataset.
type PayrollStore struct {
	db *sql.DB
}

func NewPayrollStore(db *sql.DB) *PayrollStore {
	return &PayrollStore{db: db}
}

func (s *PayrollStore) FindByCheckNumber(ctx context.Context, num string) (*models.MCTPayroll, error) {
	var r models.MCTPayroll
	err := q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, check_number, name, designation, created_at, updated_at
		FROM mct_payrolls WHERE lower(check_number) = lower($1)`, num).
		Scan(&r.ID, &r.CheckNumber, &r.Name, &r.Designation, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find payroll record: %w", err)
	}
	return &r, nil
}
