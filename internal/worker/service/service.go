// Package service implements the identity and verification engine for
// HealthWorker records. It is the sole owner of verification state and the
// closed-user-group flag.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"afya/internal/worker/metrics"
	"afya/internal/worker/models"
	id "afya/pkg/domain"
	dErrors "afya/pkg/domain-errors"
	"afya/pkg/platform/sentinel"
	"afya/pkg/requestcontext"
)

// Store persists HealthWorker aggregates. Create fails with ErrConflict when
// the phone identity already exists; AttachSpecialties fails with ErrNotFound
// when the worker has not been persisted yet.
type Store interface {
	FindByID(ctx context.Context, workerID id.WorkerID) (*models.HealthWorker, error)
	FindByPhone(ctx context.Context, phone string) (*models.HealthWorker, error)
	Create(ctx context.Context, worker *models.HealthWorker) error
	Update(ctx context.Context, worker *models.HealthWorker) error
	AttachSpecialties(ctx context.Context, workerID id.WorkerID, specialtyIDs []id.SpecialtyID) error
	// ClosedUserGroupCandidates lists workers past unverified, with a phone,
	// not yet in the closed user group.
	ClosedUserGroupCandidates(ctx context.Context) ([]*models.HealthWorker, error)
}

// Tx runs fn as one atomic unit. The phone lookup and the writes that follow
// it must share a unit, or concurrent submissions with the same phone can
// create duplicate identities.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Verifier supplies the auto-verification criteria. The default (mct.go)
// checks the MCT registration dataset; tests substitute their own.
type Verifier interface {
	Verified(ctx context.Context, worker *models.HealthWorker) (bool, error)
}

// SpecialtyChecker resolves specialty references before attachment.
type SpecialtyChecker interface {
	Exists(ctx context.Context, specialtyID id.SpecialtyID) (bool, error)
}

// UpsertInput carries an already validated submission. Empty fields leave the
// stored value untouched when merging into an existing record.
type UpsertInput struct {
	Name               string
	Surname            string
	VodacomPhone       string
	OtherPhone         string
	Address            string
	Country            string
	Email              string
	Language           string
	Birthdate          *time.Time
	FacilityID         *id.FacilityID
	SpecialtyIDs       []id.SpecialtyID
	MCTRegistrationNum string
	MCTPayrollNum      string
}

// Service is the engine. All mutations of HealthWorker records flow through
// it.
type Service struct {
	workers     Store
	tx          Tx
	verifier    Verifier
	specialties SpecialtyChecker
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithVerifier(v Verifier) Option {
	return func(s *Service) { s.verifier = v }
}

func New(workers Store, tx Tx, specialties SpecialtyChecker, opts ...Option) *Service {
	s := &Service{
		workers:     workers,
		tx:          tx,
		specialties: specialties,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert resolves the submission against the phone identity and creates or
// merges accordingly. The lookup, the base write, the specialty attachment,
// and the auto-verify check all run in one transaction: the base record must
// be persisted before any specialty is attached, and the check-then-act on
// the phone key must not interleave with a concurrent submission.
func (s *Service) Upsert(ctx context.Context, input UpsertInput) (*models.HealthWorker, error) {
	if s.metrics != nil {
		defer s.metrics.ObserveUpsert(time.Now())
	}

	phone := models.NormalizePhone(strings.TrimSpace(input.VodacomPhone))
	if phone == "" {
		return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "vodacom_phone", "phone is required")
	}

	for _, specialtyID := range input.SpecialtyIDs {
		ok, err := s.specialties.Exists(ctx, specialtyID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve specialty")
		}
		if !ok {
			return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "specialties", "specialty not found")
		}
	}

	now := requestcontext.Now(ctx)
	var out *models.HealthWorker
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		worker, err := s.workers.FindByPhone(txCtx, phone)
		switch {
		case err == nil:
			s.merge(worker, input, now)
			if err := s.workers.Update(txCtx, worker); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update worker")
			}
		case errors.Is(err, sentinel.ErrNotFound):
			worker, err = models.NewHealthWorker(id.NewWorkerID(), phone, now)
			if err != nil {
				return err
			}
			s.merge(worker, input, now)
			if err := s.workers.Create(txCtx, worker); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return dErrors.New(dErrors.CodeConflict, "worker phone already registered")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create worker")
			}
			s.observeRegistered()
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve worker by phone")
		}

		// Relations attach only after the base record exists in the store.
		if len(input.SpecialtyIDs) > 0 {
			if err := s.workers.AttachSpecialties(txCtx, worker.ID, input.SpecialtyIDs); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach specialties")
			}
			worker.SpecialtyIDs = mergeSpecialties(worker.SpecialtyIDs, input.SpecialtyIDs)
		}

		if err := s.autoVerify(txCtx, worker, now); err != nil {
			return err
		}
		out = worker
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// merge copies the non-empty submission fields onto the record.
func (s *Service) merge(worker *models.HealthWorker, input UpsertInput, now time.Time) {
	if input.Name != "" {
		worker.Name = input.Name
	}
	if input.Surname != "" {
		worker.Surname = input.Surname
	}
	if input.OtherPhone != "" {
		worker.OtherPhone = models.NormalizePhone(strings.TrimSpace(input.OtherPhone))
	}
	if input.Address != "" {
		worker.Address = input.Address
	}
	if input.Country != "" {
		worker.Country = input.Country
	}
	if input.Email != "" {
		worker.Email = input.Email
	}
	if input.Language != "" {
		worker.Language = input.Language
	}
	if input.Birthdate != nil {
		worker.Birthdate = input.Birthdate
	}
	if input.FacilityID != nil {
		worker.FacilityID = input.FacilityID
	}
	if input.MCTRegistrationNum != "" {
		worker.MCTRegistrationNum = input.MCTRegistrationNum
	}
	if input.MCTPayrollNum != "" {
		worker.MCTPayrollNum = input.MCTPayrollNum
	}
	worker.UpdatedAt = now
}

// AutoVerify promotes an unverified worker to verified when the verifier
// criteria hold. Idempotent: verified, rejected, and pending records are left
// untouched, and a second call after promotion does nothing.
func (s *Service) AutoVerify(ctx context.Context, workerID id.WorkerID) (*models.HealthWorker, error) {
	now := requestcontext.Now(ctx)
	var out *models.HealthWorker
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		worker, err := s.workers.FindByID(txCtx, workerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "worker not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load worker")
		}
		if err := s.autoVerify(txCtx, worker, now); err != nil {
			return err
		}
		out = worker
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) autoVerify(ctx context.Context, worker *models.HealthWorker, now time.Time) error {
	if worker.VerificationState != models.StateUnverified {
		return nil
	}
	if s.verifier == nil {
		return nil
	}
	ok, err := s.verifier.Verified(ctx, worker)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate verification criteria")
	}
	if !ok {
		return nil
	}
	if err := worker.Advance(models.StateVerified, now); err != nil {
		return err
	}
	if err := s.workers.Update(ctx, worker); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist verification")
	}
	s.logger.InfoContext(ctx, "worker auto-verified",
		"worker_id", worker.ID.String(),
		"registration_num", worker.MCTRegistrationNum,
	)
	s.observeVerified()
	return nil
}

// AssignSpecialty attaches one specialty to a persisted worker. Attachment to
// an unsaved aggregate is a contract violation surfaced as NotFound.
func (s *Service) AssignSpecialty(ctx context.Context, workerID id.WorkerID, specialtyID id.SpecialtyID) error {
	ok, err := s.specialties.Exists(ctx, specialtyID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve specialty")
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "specialty not found")
	}
	if err := s.workers.AttachSpecialties(ctx, workerID, []id.SpecialtyID{specialtyID}); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "worker not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach specialty")
	}
	return nil
}

// Reject moves a worker to the rejected state. Explicit, never automatic.
func (s *Service) Reject(ctx context.Context, workerID id.WorkerID) (*models.HealthWorker, error) {
	now := requestcontext.Now(ctx)
	var out *models.HealthWorker
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		worker, err := s.workers.FindByID(txCtx, workerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "worker not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load worker")
		}
		if worker.VerificationState == models.StateRejected {
			out = worker
			return nil
		}
		if err := worker.Advance(models.StateRejected, now); err != nil {
			return err
		}
		if err := s.workers.Update(txCtx, worker); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist rejection")
		}
		out = worker
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetClosedUserGroup flips the membership flag. Distinct from verification
// state; the request timestamp is handled by the CUG processor, not here.
func (s *Service) SetClosedUserGroup(ctx context.Context, workerID id.WorkerID, member bool) error {
	now := requestcontext.Now(ctx)
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		worker, err := s.workers.FindByID(txCtx, workerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "worker not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load worker")
		}
		if worker.IsClosedUserGroup == member {
			return nil
		}
		worker.IsClosedUserGroup = member
		worker.UpdatedAt = now
		if err := s.workers.Update(txCtx, worker); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist closed user group flag")
		}
		return nil
	})
}

// Get returns a worker by ID.
func (s *Service) Get(ctx context.Context, workerID id.WorkerID) (*models.HealthWorker, error) {
	worker, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "worker not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load worker")
	}
	return worker, nil
}

func mergeSpecialties(existing, added []id.SpecialtyID) []id.SpecialtyID {
	seen := make(map[id.SpecialtyID]struct{}, len(existing))
	out := append([]id.SpecialtyID(nil), existing...)
	for _, sp := range existing {
		seen[sp] = struct{}{}
	}
	for _, sp := range added {
		if _, ok := seen[sp]; !ok {
			seen[sp] = struct{}{}
			out = append(out, sp)
		}
	}
	return out
}

func (s *Service) observeRegistered() {
	if s.metrics != nil {
		s.metrics.WorkerRegistered.Inc()
	}
}

func (s *Service) observeVerified() {
	if s.metrics != nil {
		s.metrics.WorkerAutoVerified.Inc()
	}
}
