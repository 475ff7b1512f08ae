package registry_test

import (
	"testing"

	"github.com/aretw0/stash/internal/testutils"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureNamespace_FreshSession(t *testing.T) {
	s := testutils.NewStartedSession(t, nil)
	reg := registry.New(s)

	assert.True(t, reg.EnsureNamespace("cart"))
	assert.False(t, reg.EnsureNamespace("cart"), "second call must be a no-op")

	assert.Equal(t, domain.Snapshot{
		domain.LockRegistryKey: map[string]any{domain.KeyLocks: map[string]any{"cart": false}},
		domain.DataRegistryKey: map[string]any{domain.KeyStore: map[string]any{"cart": map[string]any{}}},
	}, s.Snapshot())
}

func TestEnsureNamespace_SelfHealing(t *testing.T) {
	tests := []struct {
		name     string
		snap     domain.Snapshot
		wantData map[string]any
	}{
		{
			name: "lock registry not a map",
			snap: domain.Snapshot{
				domain.LockRegistryKey: "garbage",
				domain.DataRegistryKey: map[string]any{domain.KeyStore: map[string]any{"cart": map[string]any{"k": "v"}}},
			},
			wantData: map[string]any{"k": "v"},
		},
		{
			name: "lock entry not a bool",
			snap: domain.Snapshot{
				domain.LockRegistryKey: map[string]any{domain.KeyLocks: map[string]any{"cart": "yes"}},
				domain.DataRegistryKey: map[string]any{domain.KeyStore: map[string]any{"cart": map[string]any{"k": "v"}}},
			},
			wantData: map[string]any{},
		},
		{
			name: "data entry not a map",
			snap: domain.Snapshot{
				domain.LockRegistryKey: map[string]any{domain.KeyLocks: map[string]any{"cart": true}},
				domain.DataRegistryKey: map[string]any{domain.KeyStore: map[string]any{"cart": 7}},
			},
			wantData: map[string]any{},
		},
		{
			name: "store key missing",
			snap: domain.Snapshot{
				domain.DataRegistryKey: map[string]any{},
			},
			wantData: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutils.NewStartedSession(t, tt.snap)
			reg := registry.New(s)

			assert.True(t, reg.EnsureNamespace("cart"))
			assert.False(t, reg.Locked("cart"))

			data, ok := reg.Data("cart")
			require.True(t, ok)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestEnsureNamespace_KeepsOtherNamespaces(t *testing.T) {
	s := testutils.NewStartedSession(t, domain.Snapshot{
		domain.LockRegistryKey: map[string]any{domain.KeyLocks: map[string]any{"other": true}},
		domain.DataRegistryKey: map[string]any{domain.KeyStore: map[string]any{"other": map[string]any{"x": 1}}},
	})
	reg := registry.New(s)

	reg.EnsureNamespace("cart")

	assert.True(t, reg.Locked("other"))
	data, ok := reg.Data("other")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"x": 1}, data)
	assert.Equal(t, []string{"cart", "other"}, reg.Namespaces())
}

func TestRegistry_DeleteData(t *testing.T) {
	s := testutils.NewStartedSession(t, nil)
	reg := registry.New(s)
	reg.EnsureNamespace("cart")
	reg.SetLocked("cart", true)

	reg.DeleteData("cart")

	_, ok := reg.Data("cart")
	assert.False(t, ok)
	assert.True(t, reg.Locked("cart"), "deleting data must not touch the lock registry")

	data := reg.DataOrCreate("cart")
	assert.Empty(t, data)
	_, ok = reg.Data("cart")
	assert.True(t, ok)
}

func TestDescribe(t *testing.T) {
	s := testutils.NewStartedSession(t, nil)
	reg := registry.New(s)
	reg.EnsureNamespace("cart")
	reg.EnsureNamespace("auth")
	reg.SetLocked("auth", true)
	reg.DataOrCreate("cart")["sku"] = "a1"
	reg.Touch()
	reg.DeleteData("auth")

	assert.Equal(t, []registry.NamespaceInfo{
		{Name: "auth", Locked: true, Exists: false},
		{Name: "cart", Locked: false, Exists: true, Data: map[string]any{"sku": "a1"}},
	}, reg.Describe())
}

func TestDescribe_EmptySession(t *testing.T) {
	reg := registry.New(testutils.NewStartedSession(t, nil))
	assert.Empty(t, reg.Describe())
}
