// Package cug processes closed-user-group membership batches from the
// carrier. Inbound confirmation files flip the membership flag on matched
// workers; the outbound side builds the next request file from eligible
// candidates.
package cug

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"afya/internal/worker/metrics"
	"afya/internal/worker/models"
	id "afya/pkg/domain"
	dErrors "afya/pkg/domain-errors"
	"afya/pkg/platform/sentinel"
	"afya/pkg/requestcontext"
)

// WorkerStore is the subset of the worker store the batch processor needs.
type WorkerStore interface {
	FindByPhone(ctx context.Context, phone string) (*models.HealthWorker, error)
	Update(ctx context.Context, worker *models.HealthWorker) error
	ClosedUserGroupCandidates(ctx context.Context) ([]*models.HealthWorker, error)
}

// Tx runs fn as one atomic unit.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Row is one line of a carrier confirmation file.
type Row struct {
	Phone string
}

// RequestRow is one line of the outbound membership request file.
type RequestRow struct {
	Surname string      `json:"surname"`
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	ID      id.WorkerID `json:"id"`
}

// Result summarizes one confirmation batch. Updated counts only rows whose
// worker actually gained membership; rows resolving to an existing member are
// reported separately so the two never blur.
type Result struct {
	Updated       int
	AlreadyMember int
	Skipped       int
}

// Processor applies carrier batches to the registry.
type Processor struct {
	workers WorkerStore
	tx      Tx
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Processor)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

func New(workers WorkerStore, tx Tx, opts ...Option) *Processor {
	p := &Processor{
		workers: workers,
		tx:      tx,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process applies one confirmation batch. Each row's phone is normalized and
// resolved against the registry; matched workers are marked closed-user-group
// members, rows with no matching worker are skipped without failing the batch.
// The whole batch commits as one unit.
func (p *Processor) Process(ctx context.Context, rows []Row) (Result, error) {
	now := requestcontext.Now(ctx)
	var res Result
	err := p.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, row := range rows {
			phone := models.NormalizePhone(strings.TrimSpace(row.Phone))
			if phone == "" {
				res.Skipped++
				continue
			}
			worker, err := p.workers.FindByPhone(txCtx, phone)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					res.Skipped++
					p.logger.DebugContext(txCtx, "cug row has no matching worker", "phone", phone)
					continue
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve cug row")
			}
			if worker.IsClosedUserGroup {
				res.AlreadyMember++
				continue
			}
			worker.IsClosedUserGroup = true
			worker.UpdatedAt = now
			if err := p.workers.Update(txCtx, worker); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist cug membership")
			}
			res.Updated++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	p.observe(res)
	p.logger.InfoContext(ctx, "cug batch processed",
		"rows", len(rows), "updated", res.Updated,
		"already_member", res.AlreadyMember, "skipped", res.Skipped)
	return res, nil
}

// ExportRequests builds the next outbound request file. Candidates are workers
// past unverified with a phone who are not yet members; each is stamped with
// the request time the first time it appears in an export. Phones are rendered
// in the local 0-prefixed form the carrier expects.
func (p *Processor) ExportRequests(ctx context.Context) ([]RequestRow, error) {
	now := requestcontext.Now(ctx)
	var out []RequestRow
	err := p.tx.RunInTx(ctx, func(txCtx context.Context) error {
		candidates, err := p.workers.ClosedUserGroupCandidates(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cug candidates")
		}
		out = make([]RequestRow, 0, len(candidates))
		for _, worker := range candidates {
			if worker.StampClosedUserGroupRequest(now) {
				worker.UpdatedAt = now
				if err := p.workers.Update(txCtx, worker); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to stamp cug request")
				}
			}
			out = append(out, RequestRow{
				Surname: worker.Surname,
				Name:    worker.Name,
				Phone:   models.LocalPhone(worker.VodacomPhone),
				ID:      worker.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "cug request export built", "rows", len(out))
	return out, nil
}

// Candidates previews the rows ExportRequests would produce without stamping
// anything. Used by the dry-run path of the batch tooling.
func (p *Processor) Candidates(ctx context.Context) ([]RequestRow, error) {
	candidates, err := p.workers.ClosedUserGroupCandidates(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cug candidates")
	}
	out := make([]RequestRow, 0, len(candidates))
	for _, worker := range candidates {
		out = append(out, RequestRow{
			Surname: worker.Surname,
			Name:    worker.Name,
			Phone:   models.LocalPhone(worker.VodacomPhone),
			ID:      worker.ID,
		})
	}
	return out, nil
}

func (p *Processor) observe(res Result) {
	if p.metrics == nil {
		return
	}
	p.metrics.CUGRowsMatched.Add(float64(res.Updated + res.AlreadyMember))
	p.metrics.CUGRowsSkipped.Add(float64(res.Skipped))
}
