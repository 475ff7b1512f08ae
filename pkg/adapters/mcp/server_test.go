package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/stash/internal/testutils"
	"github.com/aretw0/stash/pkg/adapters/memory"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	backend := memory.NewStore()
	require.NoError(t, backend.Save(context.Background(), "sid", domain.Snapshot{
		domain.LockRegistryKey: map[string]any{domain.KeyLocks: map[string]any{"auth": true, "cart": false}},
		domain.DataRegistryKey: map[string]any{domain.KeyStore: map[string]any{
			"auth": map[string]any{"token": "secret-value", "user": "ada"},
			"cart": map[string]any{"sku": "a1"},
		}},
	}))
	return backend
}

func TestServer_ListAndInspect(t *testing.T) {
	ctx := context.Background()
	backend := seeded(t)
	redact, err := middleware.NewRedactMiddleware([]string{"token"})
	require.NoError(t, err)
	s := NewServer(backend, WithReadView(redact(backend)))

	list, err := s.handleListSessions(ctx, mcp.CallToolRequest{}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{"sid"}, list.Sessions)

	inspect, err := s.handleInspectSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "sid"})
	require.NoError(t, err)
	require.Len(t, inspect.Namespaces, 2)
	assert.Equal(t, "auth", inspect.Namespaces[0].Name)
	assert.True(t, inspect.Namespaces[0].Locked)
	assert.Equal(t, middleware.Mask, inspect.Namespaces[0].Data["token"])
	assert.Equal(t, "ada", inspect.Namespaces[0].Data["user"])

	_, err = s.handleInspectSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_SessionsResource(t *testing.T) {
	s := NewServer(seeded(t))

	contents, err := s.handleSessionsResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "stash://sessions", text.URI)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.JSONEq(t, `{"sessions":["sid"]}`, text.Text)
}

func TestServer_GetValue(t *testing.T) {
	ctx := context.Background()
	s := NewServer(seeded(t))

	got, err := s.handleGetValue(ctx, mcp.CallToolRequest{}, KeyArgs{SessionID: "sid", Namespace: "cart", Key: "sku"})
	require.NoError(t, err)
	assert.Equal(t, ValueResponse{Found: true, Value: "a1"}, got)

	got, err = s.handleGetValue(ctx, mcp.CallToolRequest{}, KeyArgs{SessionID: "sid", Namespace: "cart", Key: "nope"})
	require.NoError(t, err)
	assert.False(t, got.Found)

	_, err = s.handleGetValue(ctx, mcp.CallToolRequest{}, KeyArgs{SessionID: "sid", Namespace: "1bad", Key: "k"})
	assert.ErrorIs(t, err, domain.ErrInvalidNamespaceName)
}

func TestServer_SetValueRespectsLocks(t *testing.T) {
	ctx := context.Background()
	backend := seeded(t)
	s := NewServer(backend)

	res, err := s.handleSetValue(ctx, mcp.CallToolRequest{}, SetArgs{
		KeyArgs: KeyArgs{SessionID: "sid", Namespace: "auth", Key: "user"},
		Value:   `"eve"`,
	})
	require.NoError(t, err)
	assert.False(t, res.OK, "auth is locked")

	res, err = s.handleUnlock(ctx, mcp.CallToolRequest{}, NamespaceArgs{SessionID: "sid", Namespace: "auth"})
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = s.handleSetValue(ctx, mcp.CallToolRequest{}, SetArgs{
		KeyArgs: KeyArgs{SessionID: "sid", Namespace: "auth", Key: "user"},
		Value:   `{"name":"eve"}`,
	})
	require.NoError(t, err)
	assert.True(t, res.OK)

	got, err := s.handleGetValue(ctx, mcp.CallToolRequest{}, KeyArgs{SessionID: "sid", Namespace: "auth", Key: "user"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "eve"}, got.Value)

	res, err = s.handleLock(ctx, mcp.CallToolRequest{}, NamespaceArgs{SessionID: "sid", Namespace: "auth"})
	require.NoError(t, err)
	assert.True(t, res.OK)

	_, err = s.handleSetValue(ctx, mcp.CallToolRequest{}, SetArgs{
		KeyArgs: KeyArgs{SessionID: "sid", Namespace: "cart", Key: "k"},
		Value:   `{not json`,
	})
	assert.Error(t, err)
}

func TestServer_ReadViewIsNotWrittenThrough(t *testing.T) {
	ctx := context.Background()
	backend := seeded(t)
	redact, err := middleware.NewRedactMiddleware([]string{"token"})
	require.NoError(t, err)
	s := NewServer(backend, WithReadView(redact(backend)))

	res, err := s.handleSetValue(ctx, mcp.CallToolRequest{}, SetArgs{
		KeyArgs: KeyArgs{SessionID: "sid", Namespace: "cart", Key: "qty"},
		Value:   "2",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)

	snap, err := backend.Load(ctx, "sid")
	require.NoError(t, err)
	auth := testutils.NamespaceData(t, snap, "auth")
	assert.Equal(t, "secret-value", auth["token"], "writes use the raw backend")
}
