package hostsession_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/hostsession"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestSession_Contract(t *testing.T) {
	tests.SessionStoreContractTest(t, func() ports.SessionStore {
		return hostsession.New("", nil)
	})
}

func TestSession_StartIssuesID(t *testing.T) {
	var started string
	s := hostsession.New("", nil,
		hostsession.WithIDIssuer(sequence("id-1")),
		hostsession.WithOnStart(func(ctx context.Context, id string) error {
			started = id
			return nil
		}),
	)

	assert.False(t, s.Active())
	assert.Empty(t, s.ID())

	require.NoError(t, s.EnsureActive(context.Background()))
	assert.True(t, s.Active())
	assert.Equal(t, "id-1", s.ID())
	assert.Equal(t, "id-1", started)
	assert.True(t, s.Dirty())
}

func TestSession_ExistingIDIsKept(t *testing.T) {
	s := hostsession.New("known", domain.Snapshot{"k": "v"})
	require.NoError(t, s.EnsureActive(context.Background()))

	assert.Equal(t, "known", s.ID())
	assert.False(t, s.Dirty(), "attaching an existing session is not a change")
	v, ok := s.Read("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSession_CommittedResponse(t *testing.T) {
	committed := false
	s := hostsession.New("", nil, hostsession.WithCommitted(func() bool { return committed }))

	committed = true
	err := s.EnsureActive(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionSetup)
	assert.False(t, s.Active())
}

func TestSession_OnStartFailure(t *testing.T) {
	s := hostsession.New("", nil, hostsession.WithOnStart(func(ctx context.Context, id string) error {
		return errors.New("cookie jar full")
	}))

	err := s.EnsureActive(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionSetup)
	assert.False(t, s.Active())
}

func TestSession_RegenerateID(t *testing.T) {
	ctx := context.Background()

	t.Run("not started", func(t *testing.T) {
		s := hostsession.New("a", nil)
		assert.ErrorIs(t, s.RegenerateID(ctx, true), domain.ErrSessionNotStarted)
	})

	t.Run("preserve data", func(t *testing.T) {
		var rotated [2]string
		s := hostsession.New("a", domain.Snapshot{"k": "v"},
			hostsession.WithIDIssuer(sequence("b")),
			hostsession.WithOnRotate(func(ctx context.Context, oldID, newID string) error {
				rotated = [2]string{oldID, newID}
				return nil
			}),
		)
		require.NoError(t, s.EnsureActive(ctx))
		require.NoError(t, s.RegenerateID(ctx, true))

		assert.Equal(t, "b", s.ID())
		assert.Equal(t, []string{"a"}, s.Retired())
		assert.Equal(t, [2]string{"a", "b"}, rotated)
		assert.True(t, s.Exists("k"))
	})

	t.Run("discard data", func(t *testing.T) {
		s := hostsession.New("a", domain.Snapshot{"k": "v"}, hostsession.WithIDIssuer(sequence("b")))
		require.NoError(t, s.EnsureActive(ctx))
		require.NoError(t, s.RegenerateID(ctx, false))
		assert.False(t, s.Exists("k"))
	})

	t.Run("after commit", func(t *testing.T) {
		committed := false
		s := hostsession.New("a", nil, hostsession.WithCommitted(func() bool { return committed }))
		require.NoError(t, s.EnsureActive(ctx))

		committed = true
		assert.ErrorIs(t, s.RegenerateID(ctx, true), domain.ErrSessionSetup)
		assert.Equal(t, "a", s.ID())
	})
}

func TestSession_SnapshotIsCopy(t *testing.T) {
	s := hostsession.New("a", nil)
	require.NoError(t, s.EnsureActive(context.Background()))
	s.Write("m", map[string]any{"x": 1})

	snap := s.Snapshot()
	snap["m"].(map[string]any)["x"] = 2

	v, _ := s.Read("m")
	assert.Equal(t, 1, v.(map[string]any)["x"])
}

func TestSession_Atomically(t *testing.T) {
	ctx := context.Background()
	s := hostsession.New("a", nil)
	require.NoError(t, s.EnsureActive(ctx))

	s.Atomically(func(view ports.SessionStore) {
		assert.True(t, view.Active())
		view.Write("m", map[string]any{"x": 1})
		assert.True(t, view.Exists("m"))

		v, ok := view.Read("m")
		require.True(t, ok)
		v.(map[string]any)["x"] = 2
		view.Delete("missing")
	})

	v, _ := s.Read("m")
	assert.Equal(t, 2, v.(map[string]any)["x"])
	assert.True(t, s.Dirty())

	// Rotation from inside the critical section does not deadlock.
	s.Atomically(func(view ports.SessionStore) {
		assert.NoError(t, view.RegenerateID(ctx, true))
	})
	assert.Equal(t, []string{"a"}, s.Retired())
}
