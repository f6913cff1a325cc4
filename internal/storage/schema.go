// Package storage owns the database schema. Migrate is idempotent; every
// statement is guarded so it can run against an already-migrated database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	// similarity() for trigram matching, levenshtein() for edit distance.
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE EXTENSION IF NOT EXISTS fuzzystrmatch`,

	`CREATE TABLE IF NOT EXISTS region_types (
		id    UUID PRIMARY KEY,
		title TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS regions (
		id               UUID PRIMARY KEY,
		title            TEXT NOT NULL,
		type_id          UUID NOT NULL REFERENCES region_types(id),
		parent_region_id UUID REFERENCES regions(id),
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	// Sibling titles are unique under one parent; top-level titles are unique
	// among themselves.
	`CREATE UNIQUE INDEX IF NOT EXISTS regions_parent_title
		ON regions (parent_region_id, lower(title)) WHERE parent_region_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS regions_root_title
		ON regions (lower(title)) WHERE parent_region_id IS NULL`,
	`CREATE INDEX IF NOT EXISTS regions_parent ON regions (parent_region_id)`,

	`CREATE TABLE IF NOT EXISTS specialties (
		id                  UUID PRIMARY KEY,
		title               TEXT NOT NULL,
		abbreviation        TEXT NOT NULL DEFAULT '',
		short_title         TEXT NOT NULL DEFAULT '',
		parent_specialty_id UUID REFERENCES specialties(id),
		priority            INTEGER NOT NULL DEFAULT 0,
		is_user_submitted   BOOLEAN NOT NULL DEFAULT FALSE,
		msisdn              TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS specialties_parent_title
		ON specialties (parent_specialty_id, lower(title)) WHERE parent_specialty_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS specialties_root_title
		ON specialties (lower(title)) WHERE parent_specialty_id IS NULL`,

	`CREATE TABLE IF NOT EXISTS facility_types (
		id       UUID PRIMARY KEY,
		title    TEXT NOT NULL UNIQUE,
		priority INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS facilities (
		id                UUID PRIMARY KEY,
		title             TEXT NOT NULL,
		address           TEXT NOT NULL DEFAULT '',
		type_id           UUID NOT NULL REFERENCES facility_types(id),
		region_id         UUID NOT NULL REFERENCES regions(id),
		owner             TEXT NOT NULL DEFAULT '',
		ownership_type    TEXT NOT NULL DEFAULT '',
		phone             TEXT NOT NULL DEFAULT '',
		is_user_submitted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS facilities_region ON facilities (region_id)`,
	`CREATE INDEX IF NOT EXISTS facilities_title_trgm ON facilities USING gin (lower(title) gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS health_workers (
		id                           UUID PRIMARY KEY,
		name                         TEXT NOT NULL DEFAULT '',
		surname                      TEXT NOT NULL DEFAULT '',
		vodacom_phone                TEXT NOT NULL,
		other_phone                  TEXT NOT NULL DEFAULT '',
		address                      TEXT NOT NULL DEFAULT '',
		birthdate                    DATE,
		country                      TEXT NOT NULL DEFAULT '',
		email                        TEXT NOT NULL DEFAULT '',
		language                     TEXT NOT NULL DEFAULT '',
		facility_id                  UUID REFERENCES facilities(id),
		verification_state           TEXT NOT NULL DEFAULT 'unverified',
		is_closed_user_group         BOOLEAN NOT NULL DEFAULT FALSE,
		request_closed_user_group_at TIMESTAMPTZ,
		mct_registration_num         TEXT NOT NULL DEFAULT '',
		mct_payroll_num              TEXT NOT NULL DEFAULT '',
		created_at                   TIMESTAMPTZ NOT NULL,
		updated_at                   TIMESTAMPTZ NOT NULL,
		CONSTRAINT health_workers_vodacom_phone_key UNIQUE (vodacom_phone)
	)`,

	`CREATE TABLE IF NOT EXISTS health_worker_specialties (
		worker_id    UUID NOT NULL REFERENCES health_workers(id) ON DELETE CASCADE,
		specialty_id UUID NOT NULL REFERENCES specialties(id),
		PRIMARY KEY (worker_id, specialty_id)
	)`,

	`CREATE TABLE IF NOT EXISTS mct_registrations (
		id                  TEXT PRIMARY KEY,
		registration_number TEXT NOT NULL UNIQUE,
		name                TEXT NOT NULL DEFAULT '',
		cadre               TEXT NOT NULL DEFAULT '',
		category            TEXT NOT NULL DEFAULT '',
		country             TEXT NOT NULL DEFAULT '',
		address             TEXT NOT NULL DEFAULT '',
		birthdate           DATE,
		email               TEXT NOT NULL DEFAULT '',
		current_employer    TEXT NOT NULL DEFAULT '',
		registration_type   TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS mct_registrations_name_trgm
		ON mct_registrations USING gin (lower(name) gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS mct_payrolls (
		id           TEXT PRIMARY KEY,
		check_number TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL DEFAULT '',
		designation  TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema statement by statement. pgx uses the extended
// protocol, which rejects multi-statement strings, so no batching here.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
