package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"afya/internal/worker/models"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
)

type WorkerStoreSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *Store
}

func (s *WorkerStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	s.store = New()
}

func TestWorkerStoreSuite(t *testing.T) {
	suite.Run(t, new(WorkerStoreSuite))
}

func (s *WorkerStoreSuite) newWorker(phone string) *models.HealthWorker {
	worker, err := models.NewHealthWorker(id.NewWorkerID(), phone, s.now)
	s.Require().NoError(err)
	return worker
}

func (s *WorkerStoreSuite) TestPhoneIdentity() {
	s.Run("create then find by phone", func() {
		worker := s.newWorker("+255712345678")
		s.Require().NoError(s.store.Create(s.ctx, worker))

		found, err := s.store.FindByPhone(s.ctx, "+255712345678")
		s.Require().NoError(err)
		s.Equal(worker.ID, found.ID)
	})

	s.Run("second create with the same phone conflicts", func() {
		err := s.store.Create(s.ctx, s.newWorker("+255712345678"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("update reindexes a changed phone", func() {
		worker, err := s.store.FindByPhone(s.ctx, "+255712345678")
		s.Require().NoError(err)

		worker.VodacomPhone = "+255765000001"
		s.Require().NoError(s.store.Update(s.ctx, worker))

		_, err = s.store.FindByPhone(s.ctx, "+255712345678")
		s.ErrorIs(err, sentinel.ErrNotFound)
		found, err := s.store.FindByPhone(s.ctx, "+255765000001")
		s.Require().NoError(err)
		s.Equal(worker.ID, found.ID)
	})

	s.Run("update of an unknown worker is NotFound", func() {
		s.ErrorIs(s.store.Update(s.ctx, s.newWorker("+255700000000")), sentinel.ErrNotFound)
	})
}

func (s *WorkerStoreSuite) TestAttachSpecialties() {
	s.Run("unsaved worker is NotFound", func() {
		err := s.store.AttachSpecialties(s.ctx, id.NewWorkerID(), []id.SpecialtyID{id.NewSpecialtyID()})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("attachment dedupes", func() {
		worker := s.newWorker("+255712345678")
		s.Require().NoError(s.store.Create(s.ctx, worker))

		specialty := id.NewSpecialtyID()
		s.Require().NoError(s.store.AttachSpecialties(s.ctx, worker.ID, []id.SpecialtyID{specialty, specialty}))
		s.Require().NoError(s.store.AttachSpecialties(s.ctx, worker.ID, []id.SpecialtyID{specialty}))

		found, err := s.store.FindByID(s.ctx, worker.ID)
		s.Require().NoError(err)
		s.Equal([]id.SpecialtyID{specialty}, found.SpecialtyIDs)
	})
}

func (s *WorkerStoreSuite) TestReturnsCopies() {
	worker := s.newWorker("+255712345678")
	s.Require().NoError(s.store.Create(s.ctx, worker))

	found, err := s.store.FindByID(s.ctx, worker.ID)
	s.Require().NoError(err)
	found.Name = "mutated"

	again, err := s.store.FindByID(s.ctx, worker.ID)
	s.Require().NoError(err)
	s.Empty(again.Name)
}

func (s *WorkerStoreSuite) TestClosedUserGroupCandidates() {
	pending := s.newWorker("+255712345678")
	pending.VerificationState = models.StatePending
	s.Require().NoError(s.store.Create(s.ctx, pending))

	unverified := s.newWorker("+255765000001")
	s.Require().NoError(s.store.Create(s.ctx, unverified))

	member := s.newWorker("+255765000002")
	member.VerificationState = models.StateVerified
	member.IsClosedUserGroup = true
	s.Require().NoError(s.store.Create(s.ctx, member))

	candidates, err := s.store.ClosedUserGroupCandidates(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(candidates, 1)
	s.Equal(pending.ID, candidates[0].ID)
}
