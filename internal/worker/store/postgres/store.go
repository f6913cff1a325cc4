// Package postgres is the durable HealthWorker store. The phone uniqueness
// that the upsert relies on is a database constraint, so concurrent creates
// with the same identity collapse to one row even across processes.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"afya/internal/worker/models"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
	txcontext "afya/pkg/platform/tx"
)

// Store implements the worker store over PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const workerColumns = `
	id, name, surname, vodacom_phone, other_phone, address, birthdate,
	country, email, language, facility_id, verification_state,
	is_closed_user_group, request_closed_user_group_at,
	mct_registration_num, mct_payroll_num, created_at, updated_at`

func (s *Store) FindByID(ctx context.Context, workerID id.WorkerID) (*models.HealthWorker, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT`+workerColumns+` FROM health_workers WHERE id = $1`, workerID.String())
	return s.scanWorker(ctx, row)
}

func (s *Store) FindByPhone(ctx context.Context, phone string) (*models.HealthWorker, error) {
	// FOR UPDATE keeps a concurrent upsert with the same phone from reading
	// stale absence inside its own transaction.
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT`+workerColumns+` FROM health_workers WHERE vodacom_phone = $1 FOR UPDATE`, phone)
	return s.scanWorker(ctx, row)
}

func (s *Store) Create(ctx context.Context, w *models.HealthWorker) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO health_workers (`+workerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		w.ID.String(), w.Name, w.Surname, w.VodacomPhone, w.OtherPhone, w.Address, w.Birthdate,
		w.Country, w.Email, w.Language, facilityID(w.FacilityID), string(w.VerificationState),
		w.IsClosedUserGroup, w.RequestClosedUserGroupAt,
		w.MCTRegistrationNum, w.MCTPayrollNum, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, w *models.HealthWorker) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE health_workers SET
			name = $2, surname = $3, vodacom_phone = $4, other_phone = $5,
			address = $6, birthdate = $7, country = $8, email = $9,
			language = $10, facility_id = $11, verification_state = $12,
			is_closed_user_group = $13, request_closed_user_group_at = $14,
			mct_registration_num = $15, mct_payroll_num = $16, updated_at = $17
		WHERE id = $1`,
		w.ID.String(), w.Name, w.Surname, w.VodacomPhone, w.OtherPhone,
		w.Address, w.Birthdate, w.Country, w.Email,
		w.Language, facilityID(w.FacilityID), string(w.VerificationState),
		w.IsClosedUserGroup, w.RequestClosedUserGroupAt,
		w.MCTRegistrationNum, w.MCTPayrollNum, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update worker: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update worker: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) AttachSpecialties(ctx context.Context, workerID id.WorkerID, specialtyIDs []id.SpecialtyID) error {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM health_workers WHERE id = $1)`, workerID.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check worker: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}

	ids := make([]string, len(specialtyIDs))
	for i, sp := range specialtyIDs {
		ids[i] = sp.String()
	}
	_, err = s.q(ctx).ExecContext(ctx, `
		INSERT INTO health_worker_specialties (worker_id, specialty_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT (worker_id, specialty_id) DO NOTHING`,
		workerID.String(), pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("attach specialties: %w", err)
	}
	return nil
}

func (s *Store) ClosedUserGroupCandidates(ctx context.Context) ([]*models.HealthWorker, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT`+workerColumns+` FROM health_workers
		WHERE NOT is_closed_user_group
		  AND verification_state NOT IN ('', 'unverified', 'rejected')
		  AND vodacom_phone <> ''
		ORDER BY surname, name`)
	if err != nil {
		return nil, fmt.Errorf("list cug candidates: %w", err)
	}
	defer rows.Close()

	var out []*models.HealthWorker
	for rows.Next() {
		w, err := scanWorkerRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cug candidates: %w", err)
	}
	// Specialty links are not needed by the batch consumers; skip the join.
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanWorker(ctx context.Context, row *sql.Row) (*models.HealthWorker, error) {
	w, err := scanWorkerRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	if err := s.loadSpecialties(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func scanWorkerRow(row rowScanner) (*models.HealthWorker, error) {
	var w models.HealthWorker
	var workerID, state string
	var facility sql.NullString
	err := row.Scan(
		&workerID, &w.Name, &w.Surname, &w.VodacomPhone, &w.OtherPhone, &w.Address, &w.Birthdate,
		&w.Country, &w.Email, &w.Language, &facility, &state,
		&w.IsClosedUserGroup, &w.RequestClosedUserGroupAt,
		&w.MCTRegistrationNum, &w.MCTPayrollNum, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParseWorkerID(workerID)
	if err != nil {
		return nil, fmt.Errorf("scan worker id: %w", err)
	}
	w.ID = parsed
	w.VerificationState = models.VerificationState(state)
	if facility.Valid {
		fid, err := id.ParseFacilityID(facility.String)
		if err != nil {
			return nil, fmt.Errorf("scan facility id: %w", err)
		}
		w.FacilityID = &fid
	}
	return &w, nil
}

func (s *Store) loadSpecialties(ctx context.Context, w *models.HealthWorker) error {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT specialty_id FROM health_worker_specialties WHERE worker_id = $1`, w.ID.String())
	if err != nil {
		return fmt.Errorf("load specialties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sp string
		if err := rows.Scan(&sp); err != nil {
			return err
		}
		parsed, err := id.ParseSpecialtyID(sp)
		if err != nil {
			return fmt.Errorf("scan specialty id: %w", err)
		}
		w.SpecialtyIDs = append(w.SpecialtyIDs, parsed)
	}
	return rows.Err()
}

func facilityID(fid *id.FacilityID) any {
	if fid == nil {
		return nil
	}
	return fid.String()
}

// isUniqueViolation recognizes constraint violations from either driver:
// pgx (the default in cmd wiring) and lib/pq (kept for pq.Array helpers).
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
