package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/stash/internal/testutils"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactMiddleware_MasksNestedKeys(t *testing.T) {
	ctx := context.Background()
	mock := NewMockBackend()
	mock.data["sid"] = domain.Snapshot{
		domain.DataRegistryKey: map[string]any{
			domain.KeyStore: map[string]any{
				"auth": map[string]any{"password": "hunter2", "user": "ada"},
			},
		},
	}

	mw, err := middleware.NewRedactMiddleware([]string{"(?i)password|token"})
	require.NoError(t, err)
	backend := mw(mock)

	snap, err := backend.Load(ctx, "sid")
	require.NoError(t, err)

	auth := testutils.NamespaceData(t, snap, "auth")
	assert.Equal(t, middleware.Mask, auth["password"])
	assert.Equal(t, "ada", auth["user"])

	orig := testutils.NamespaceData(t, mock.data["sid"], "auth")
	assert.Equal(t, "hunter2", orig["password"], "the stored snapshot must not be modified")
}

func TestRedactMiddleware_ReadOnly(t *testing.T) {
	mw, err := middleware.NewRedactMiddleware(nil)
	require.NoError(t, err)
	backend := mw(NewMockBackend())

	assert.ErrorIs(t, backend.Save(context.Background(), "sid", domain.NewSnapshot()), middleware.ErrReadOnly)
	assert.ErrorIs(t, backend.Delete(context.Background(), "sid"), middleware.ErrReadOnly)

	_, err = backend.Load(context.Background(), "sid")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedactMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactMiddleware([]string{"("})
	assert.Error(t, err)
}
