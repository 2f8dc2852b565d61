package testutil

import (
	"context"
	"testing"

	"github.com/dukex/autoflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests checks the persistence.Store contract against store, which
// must start empty.
func RunStoreTests(ctx context.Context, t *testing.T, store persistence.Store) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "workflow:missing")
		require.Error(t, err)
		assert.True(t, persistence.IsNotFound(err))
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "workflow:one", []byte(`{"id":"one"}`)))

		value, err := store.Get(ctx, "workflow:one")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"one"}`, string(value))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "workflow:one", []byte(`{"id":"one","v":2}`)))

		value, err := store.Get(ctx, "workflow:one")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"one","v":2}`, string(value))
	})

	t.Run("keys by prefix", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "workflow:two", []byte(`{}`)))
		require.NoError(t, store.Put(ctx, "session:ana:sales", []byte(`{}`)))

		keys, err := store.Keys(ctx, "workflow:")
		require.NoError(t, err)
		assert.Equal(t, []string{"workflow:one", "workflow:two"}, keys)

		keys, err = store.Keys(ctx, "session:")
		require.NoError(t, err)
		assert.Equal(t, []string{"session:ana:sales"}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "workflow:one"))
		require.NoError(t, store.Delete(ctx, "workflow:one"))

		_, err := store.Get(ctx, "workflow:one")
		assert.True(t, persistence.IsNotFound(err))
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, store.HealthCheck(ctx))
	})
}
