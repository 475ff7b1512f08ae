package testutils

import (
	"context"
	"testing"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/hostsession"
	"github.com/stretchr/testify/require"
)

// NewStartedSession returns an active hostsession.Session with a fixed ID holding snap.
// It fails the test immediately on error.
func NewStartedSession(t *testing.T, snap domain.Snapshot) *hostsession.Session {
	t.Helper()

	s := hostsession.New("sid", snap)
	require.NoError(t, s.EnsureActive(context.Background()), "Failed to start session")
	return s
}

// NamespaceData digs the data map of namespace name out of a snapshot.
// It fails the test if any level of the data registry is missing or malformed.
func NamespaceData(t *testing.T, snap domain.Snapshot, name string) map[string]any {
	t.Helper()

	root, ok := snap[domain.DataRegistryKey].(map[string]any)
	require.True(t, ok, "data registry missing")
	store, ok := root[domain.KeyStore].(map[string]any)
	require.True(t, ok, "namespace store missing")
	data, ok := store[name].(map[string]any)
	require.True(t, ok, "namespace %q missing", name)
	return data
}
