package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// SessionStoreContractTest is a reusable test suite that verifies if a host adapter complies with ports.SessionStore.
// newStore must return a fresh, not yet started store on every call.
func SessionStoreContractTest(t *testing.T, newStore func() ports.SessionStore) {
	t.Helper()
	ctx := context.Background()

	// 1. EnsureActive is idempotent
	t.Run("EnsureActive_Idempotent", func(t *testing.T) {
		store := newStore()
		if err := store.EnsureActive(ctx); err != nil {
			t.Fatalf("unexpected error starting store: %v", err)
		}
		if err := store.EnsureActive(ctx); err != nil {
			t.Fatalf("unexpected error on second start: %v", err)
		}
		if !store.Active() {
			t.Error("expected store to be active after EnsureActive")
		}
	})

	// 2. Primitive operations
	t.Run("ReadWriteDelete", func(t *testing.T) {
		store := newStore()
		if err := store.EnsureActive(ctx); err != nil {
			t.Fatalf("unexpected error starting store: %v", err)
		}

		if _, ok := store.Read("missing"); ok {
			t.Error("expected missing key to be absent")
		}

		store.Write("k", nil)
		if !store.Exists("k") {
			t.Error("a nil value must still be present")
		}
		v, ok := store.Read("k")
		if !ok || v != nil {
			t.Errorf("expected (nil, true), got (%v, %v)", v, ok)
		}

		store.Write("k", "v")
		if v, _ := store.Read("k"); v != "v" {
			t.Errorf("expected overwritten value %q, got %v", "v", v)
		}

		store.Delete("k")
		if store.Exists("k") {
			t.Error("expected key to be gone after Delete")
		}
		store.Delete("k")
	})

	// 3. RegenerateID keeps data when asked to
	t.Run("RegenerateID_PreserveData", func(t *testing.T) {
		store := newStore()
		if err := store.EnsureActive(ctx); err != nil {
			t.Fatalf("unexpected error starting store: %v", err)
		}
		store.Write("k", "v")

		err := store.RegenerateID(ctx, true)
		if err != nil && !errors.Is(err, domain.ErrSessionSetup) {
			t.Fatalf("unexpected error regenerating id: %v", err)
		}
		if err == nil {
			if v, _ := store.Read("k"); v != "v" {
				t.Errorf("expected data to survive regeneration, got %v", v)
			}
		}
	})
}
