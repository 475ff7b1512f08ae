package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBackendContract runs a suite of tests to verify that a Backend implementation
// adheres to the defined interface contract.
func RunBackendContract(t *testing.T, backend Backend) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.Snapshot{
			domain.LockRegistryKey: map[string]any{
				domain.KeyLocks: map[string]any{"cart": true},
			},
			domain.DataRegistryKey: map[string]any{
				domain.KeyStore: map[string]any{
					"cart": map[string]any{"foo": "bar", "count": 42, "empty": ""},
				},
			},
		}

		err := backend.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := backend.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")

		locks := loaded[domain.LockRegistryKey].(map[string]any)[domain.KeyLocks].(map[string]any)
		assert.Equal(t, true, locks["cart"])

		cart := loaded[domain.DataRegistryKey].(map[string]any)[domain.KeyStore].(map[string]any)["cart"].(map[string]any)
		assert.Equal(t, "bar", cart["foo"])
		assert.Equal(t, "", cart["empty"])
		// JSON persistence may turn ints into float64; only check presence.
		assert.NotNil(t, cart["count"])
	})

	t.Run("Load Isolation", func(t *testing.T) {
		require.NoError(t, backend.Save(ctx, sessionID, domain.Snapshot{"k": "v"}))

		loaded, err := backend.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded["k"] = "mutated"

		again, err := backend.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "v", again["k"], "mutating a loaded snapshot must not change the stored one")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := backend.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := backend.Save(ctx, sessionID, domain.Snapshot{"k": "v"})
		require.NoError(t, err)

		err = backend.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = backend.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, backend.Delete(ctx, sessionID), "Delete of a missing session should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = backend.Save(ctx, id1, domain.NewSnapshot())
		_ = backend.Save(ctx, id2, domain.NewSnapshot())

		defer func() {
			_ = backend.Delete(ctx, id1)
			_ = backend.Delete(ctx, id2)
		}()

		sessions, err := backend.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
