package localstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("GetMissReportsNotFound", func(t *testing.T) {
		m := NewMemory()
		value, ok, err := m.Get(ctx, "absent")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, value)
	})

	t.Run("SetThenGetRoundTrips", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", "v1"))
		require.NoError(t, m.Set(ctx, "k", "v2"))

		value, ok, err := m.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "v2", value)
		require.Equal(t, 1, m.Len())
	})

	t.Run("DeleteRemovesAndToleratesAbsent", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", "v"))
		require.NoError(t, m.Delete(ctx, "k"))
		require.NoError(t, m.Delete(ctx, "k"))

		_, ok, err := m.Get(ctx, "k")
		require.NoError(t, err)
		require.False(t, ok)
	})
}
