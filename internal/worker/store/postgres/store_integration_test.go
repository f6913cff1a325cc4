//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afya/internal/storage"
	"afya/internal/worker/models"
	id "afya/pkg/domain"
	"afya/pkg/platform/sentinel"
	"afya/pkg/platform/tx"
	"afya/pkg/testutil/containers"
)

func TestWorkerStoreIntegration(t *testing.T) {
	pc := containers.NewPostgresContainer(t, storage.Migrate)
	ctx := context.Background()
	store := New(pc.DB)
	runner := tx.NewRunner(pc.DB)
	now := time.Now().UTC().Truncate(time.Second)

	newWorker := func(phone string) *models.HealthWorker {
		w, err := models.NewHealthWorker(id.NewWorkerID(), phone, now)
		require.NoError(t, err)
		return w
	}

	insertSpecialty := func(title string) id.SpecialtyID {
		specialtyID := id.NewSpecialtyID()
		_, err := pc.DB.ExecContext(ctx, `
			INSERT INTO specialties (id, title, created_at, updated_at)
			VALUES ($1, $2, $3, $4)`,
			specialtyID.String(), title, now, now)
		require.NoError(t, err)
		return specialtyID
	}

	t.Run("create then find by phone", func(t *testing.T) {
		worker := newWorker("+255712000001")
		worker.Name = "Amani"
		worker.Surname = "Mushi"
		require.NoError(t, store.Create(ctx, worker))

		found, err := store.FindByPhone(ctx, "+255712000001")
		require.NoError(t, err)
		assert.Equal(t, worker.ID, found.ID)
		assert.Equal(t, "Amani", found.Name)
		assert.Equal(t, models.StateUnverified, found.VerificationState)
	})

	t.Run("duplicate phone hits the unique constraint", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newWorker("+255712000002")))
		err := store.Create(ctx, newWorker("+255712000002"))
		assert.True(t, errors.Is(err, sentinel.ErrConflict), "expected conflict, got %v", err)
	})

	t.Run("unknown phone is NotFound", func(t *testing.T) {
		_, err := store.FindByPhone(ctx, "+255799999999")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("attach specialties dedupes across calls", func(t *testing.T) {
		worker := newWorker("+255712000003")
		require.NoError(t, store.Create(ctx, worker))
		specialty := insertSpecialty("Nursing")

		require.NoError(t, store.AttachSpecialties(ctx, worker.ID, []id.SpecialtyID{specialty}))
		require.NoError(t, store.AttachSpecialties(ctx, worker.ID, []id.SpecialtyID{specialty}))

		found, err := store.FindByID(ctx, worker.ID)
		require.NoError(t, err)
		assert.Equal(t, []id.SpecialtyID{specialty}, found.SpecialtyIDs)
	})

	t.Run("attach to an unsaved worker is NotFound", func(t *testing.T) {
		specialty := insertSpecialty("Surgery")
		err := store.AttachSpecialties(ctx, id.NewWorkerID(), []id.SpecialtyID{specialty})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("lookup and update share a transaction", func(t *testing.T) {
		worker := newWorker("+255712000004")
		require.NoError(t, store.Create(ctx, worker))

		err := runner.RunInTx(ctx, func(txCtx context.Context) error {
			locked, err := store.FindByPhone(txCtx, "+255712000004")
			if err != nil {
				return err
			}
			locked.Name = "Neema"
			locked.UpdatedAt = now.Add(time.Minute)
			return store.Update(txCtx, locked)
		})
		require.NoError(t, err)

		found, err := store.FindByPhone(ctx, "+255712000004")
		require.NoError(t, err)
		assert.Equal(t, "Neema", found.Name)
	})

	t.Run("rollback leaves the row untouched", func(t *testing.T) {
		worker := newWorker("+255712000005")
		require.NoError(t, store.Create(ctx, worker))

		boom := errors.New("boom")
		err := runner.RunInTx(ctx, func(txCtx context.Context) error {
			locked, err := store.FindByPhone(txCtx, "+255712000005")
			if err != nil {
				return err
			}
			locked.Name = "discarded"
			if err := store.Update(txCtx, locked); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		found, err := store.FindByPhone(ctx, "+255712000005")
		require.NoError(t, err)
		assert.Empty(t, found.Name)
	})

	t.Run("closed user group candidates", func(t *testing.T) {
		require.NoError(t, pc.TruncateTables(ctx, "health_worker_specialties", "health_workers"))

		pending := newWorker("+255712000006")
		pending.VerificationState = models.StatePending
		require.NoError(t, store.Create(ctx, pending))

		unverified := newWorker("+255712000007")
		require.NoError(t, store.Create(ctx, unverified))

		member := newWorker("+255712000008")
		member.VerificationState = models.StateVerified
		member.IsClosedUserGroup = true
		require.NoError(t, store.Create(ctx, member))

		candidates, err := store.ClosedUserGroupCandidates(ctx)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, pending.ID, candidates[0].ID)
	})
}
