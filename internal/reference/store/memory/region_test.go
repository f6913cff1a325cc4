package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afya/internal/reference/models"
	id "afya/pkg/domain"
)

func TestRegionStoreConcurrentClosureReads(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	types := NewRegionTypeStore()
	store := NewRegionStore(types)

	typeID := id.NewRegionTypeID()
	require.NoError(t, types.Create(ctx, &models.RegionType{ID: typeID, Title: "Region"}))

	parent := &models.Region{ID: id.NewRegionID(), Title: "Dar es Salaam", TypeID: typeID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Create(ctx, parent))
	for _, title := range []string{"Kinondoni", "Temeke", "Ilala"} {
		child := &models.Region{
			ID: id.NewRegionID(), Title: title, TypeID: typeID,
			ParentRegionID: &parent.ID, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, store.Create(ctx, child))
	}

	// Closure reads right after a write must not interfere with each other.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kids, err := store.Children(ctx, parent.ID)
			assert.NoError(t, err)
			assert.Len(t, kids, 3)
		}()
	}
	wg.Wait()
}
