// Package memory is the in-memory HealthWorker store. It backs unit tests
// and single-node deployments; postgres is the durable twin.
package memory

import (
	"context"
	"sync"

	"afya/internal/worker/models"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
)

// Store keeps workers indexed by ID and by the normalized phone identity.
type Store struct {
	mu      sync.RWMutex
	workers map[id.WorkerID]*models.HealthWorker
	byPhone map[string]id.WorkerID

	// txMu serializes RunInTx blocks so a check-then-act upsert cannot
	// interleave with another. This is the in-memory stand-in for the
	// database transaction the postgres store gets for free.
	txMu sync.Mutex
}

func New() *Store {
	return &Store{
		workers: make(map[id.WorkerID]*models.HealthWorker),
		byPhone: make(map[string]id.WorkerID),
	}
}

// RunInTx serializes fn against all other transactions. Individual store
// calls inside fn still take the data lock per call.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *Store) FindByID(_ context.Context, workerID id.WorkerID) (*models.HealthWorker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	worker, ok := s.workers[workerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyWorker(worker), nil
}

func (s *Store) FindByPhone(_ context.Context, phone string) (*models.HealthWorker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workerID, ok := s.byPhone[phone]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyWorker(s.workers[workerID]), nil
}

func (s *Store) Create(_ context.Context, worker *models.HealthWorker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPhone[worker.VodacomPhone]; exists {
		return sentinel.ErrConflict
	}
	s.workers[worker.ID] = copyWorker(worker)
	s.byPhone[worker.VodacomPhone] = worker.ID
	return nil
}

func (s *Store) Update(_ context.Context, worker *models.HealthWorker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workers[worker.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byPhone, existing.VodacomPhone)
	s.workers[worker.ID] = copyWorker(worker)
	s.byPhone[worker.VodacomPhone] = worker.ID
	return nil
}

func (s *Store) AttachSpecialties(_ context.Context, workerID id.WorkerID, specialtyIDs []id.SpecialtyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker, ok := s.workers[workerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	seen := make(map[id.SpecialtyID]struct{}, len(worker.SpecialtyIDs))
	for _, sp := range worker.SpecialtyIDs {
		seen[sp] = struct{}{}
	}
	for _, sp := range specialtyIDs {
		if _, ok := seen[sp]; !ok {
			seen[sp] = struct{}{}
			worker.SpecialtyIDs = append(worker.SpecialtyIDs, sp)
		}
	}
	return nil
}

func (s *Store) ClosedUserGroupCandidates(_ context.Context) ([]*models.HealthWorker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.HealthWorker
	for _, worker := range s.workers {
		if worker.IsClosedUserGroup {
			continue
		}
		if worker.VerificationState == models.StateUnverified || worker.VerificationState == "" ||
			worker.VerificationState == models.StateRejected {
			continue
		}
		if worker.VodacomPhone == "" {
			continue
		}
		out = append(out, copyWorker(worker))
	}
	return out, nil
}

func copyWorker(w *models.HealthWorker) *models.HealthWorker {
	cp := *w
	if w.Birthdate != nil {
		b := *w.Birthdate
		cp.Birthdate = &b
	}
	if w.FacilityID != nil {
		f := *w.FacilityID
		cp.FacilityID = &f
	}
	if w.RequestClosedUserGroupAt != nil {
		t := *w.RequestClosedUserGroupAt
		cp.RequestClosedUserGroupAt = &t
	}
	cp.SpecialtyIDs = append([]id.SpecialtyID(nil), w.SpecialtyIDs...)
	return &cp
}
