package hierarchy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afya/pkg/platform/sentinel"
)

func ptr(s string) *string { return &s }

// buildForest constructs: tanzania → {dar, mwanza}, dar → {kinondoni, temeke},
// plus an unrelated root kenya.
func buildForest() *Forest[string] {
	f := NewForest[string]()
	f.Add("tanzania", nil)
	f.Add("dar", ptr("tanzania"))
	f.Add("mwanza", ptr("tanzania"))
	f.Add("kinondoni", ptr("dar"))
	f.Add("temeke", ptr("dar"))
	f.Add("kenya", nil)
	return f
}

func TestDescendants(t *testing.T) {
	ctx := context.Background()
	f := buildForest()

	t.Run("closure includes the root itself", func(t *testing.T) {
		got, err := Descendants[string](ctx, f, "kinondoni")
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"kinondoni": {}}, got)
	})

	t.Run("closure spans all levels", func(t *testing.T) {
		got, err := Descendants[string](ctx, f, "tanzania")
		require.NoError(t, err)
		assert.Len(t, got, 5)
		for _, id := range []string{"tanzania", "dar", "mwanza", "kinondoni", "temeke"} {
			assert.Contains(t, got, id)
		}
		assert.NotContains(t, got, "kenya")
	})

	t.Run("mid-tree closure excludes ancestors and siblings", func(t *testing.T) {
		got, err := Descendants[string](ctx, f, "dar")
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"dar": {}, "kinondoni": {}, "temeke": {}}, got)
	})

	t.Run("unknown root fails with ErrNotFound", func(t *testing.T) {
		_, err := Descendants[string](ctx, f, "zanzibar")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("cyclic edges terminate", func(t *testing.T) {
		cyclic := NewForest[string]()
		cyclic.Add("a", ptr("b"))
		cyclic.Add("b", ptr("a"))
		got, err := Descendants[string](ctx, cyclic, "a")
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, got)
	})
}

func TestForest(t *testing.T) {
	ctx := context.Background()

	t.Run("parent lookups", func(t *testing.T) {
		f := buildForest()
		assert.Nil(t, f.Parent("tanzania"))
		require.NotNil(t, f.Parent("dar"))
		assert.Equal(t, "tanzania", *f.Parent("dar"))
		assert.Nil(t, f.Parent("unknown"))
	})

	t.Run("children index rebuilds after mutation", func(t *testing.T) {
		f := buildForest()
		kids, err := f.Children(ctx, "tanzania")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"dar", "mwanza"}, kids)

		f.Add("dodoma", ptr("tanzania"))
		kids, err = f.Children(ctx, "tanzania")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"dar", "mwanza", "dodoma"}, kids)
	})

	t.Run("re-adding a node moves it", func(t *testing.T) {
		f := buildForest()
		f.Add("temeke", ptr("mwanza"))
		kids, err := f.Children(ctx, "dar")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"kinondoni"}, kids)
		kids, err = f.Children(ctx, "mwanza")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"temeke"}, kids)
	})

	t.Run("len counts registered nodes", func(t *testing.T) {
		assert.Equal(t, 6, buildForest().Len())
	})

	t.Run("reads after mutation are safe to run concurrently", func(t *testing.T) {
		f := buildForest()
		f.Add("dodoma", ptr("tanzania"))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				kids, err := f.Children(ctx, "tanzania")
				assert.NoError(t, err)
				assert.Len(t, kids, 3)
			}()
		}
		wg.Wait()
	})
}
