package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SpokieKid/mystory/internal/models"
	"github.com/SpokieKid/mystory/internal/script"
)

func newTestStore(t *testing.T) *MemorySessionStore {
	t.Helper()
	return NewMemorySessionStore(script.Default(), zap.NewNop())
}

func TestMemorySessionStore_Create(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("creates a waiting session with the host as sole participant", func(t *testing.T) {
		sess, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "token-alice")
		require.NoError(t, err)

		assert.Equal(t, "room-1", sess.ID)
		assert.Equal(t, models.StatusWaiting, sess.Status)
		require.Len(t, sess.Participants, 1)
		assert.Equal(t, "alice", sess.Participants[0].Name)
		assert.Equal(t, "token-alice", sess.Participants[0].Credential)
		assert.False(t, sess.Participants[0].Ready)
	})

	t.Run("rejects a duplicate session id", func(t *testing.T) {
		_, err := s.Create(ctx, "room-1", "midnight-manor", "bob", "token-bob")
		assert.ErrorIs(t, err, models.ErrSessionExists)
	})

	t.Run("rejects an unknown script", func(t *testing.T) {
		_, err := s.Create(ctx, "room-2", "no-such-script", "alice", "")
		assert.ErrorIs(t, err, models.ErrScriptNotFound)
	})

	t.Run("rejects empty identifiers", func(t *testing.T) {
		_, err := s.Create(ctx, "", "midnight-manor", "alice", "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, err = s.Create(ctx, "room-3", "midnight-manor", "", "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestMemorySessionStore_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("adds participants up to the script capacity", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "gilded-gallery", "alice", "ta")
		require.NoError(t, err)

		sess, err := s.Join(ctx, "room-1", "bob", "tb")
		require.NoError(t, err)
		assert.Len(t, sess.Participants, 2)

		// gilded-gallery declares a max of 2 players.
		_, err = s.Join(ctx, "room-1", "carol", "tc")
		assert.ErrorIs(t, err, models.ErrSessionFull)
	})

	t.Run("re-joining under the same name is a no-op", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "gilded-gallery", "alice", "ta")
		require.NoError(t, err)
		_, err = s.Join(ctx, "room-1", "bob", "tb")
		require.NoError(t, err)

		sess, err := s.Join(ctx, "room-1", "bob", "tb")
		require.NoError(t, err)
		assert.Len(t, sess.Participants, 2)
	})

	t.Run("re-joining works even once the session is full or started", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "gilded-gallery", "alice", "ta")
		require.NoError(t, err)
		_, err = s.Join(ctx, "room-1", "bob", "tb")
		require.NoError(t, err)

		ok, err := s.Start(ctx, "room-1")
		require.NoError(t, err)
		require.True(t, ok)

		sess, err := s.Join(ctx, "room-1", "alice", "ta")
		require.NoError(t, err)
		assert.Len(t, sess.Participants, 2)
	})

	t.Run("rejects joining a started session", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
		require.NoError(t, err)
		ok, err := s.Start(ctx, "room-1")
		require.NoError(t, err)
		require.True(t, ok)

		_, err = s.Join(ctx, "room-1", "bob", "tb")
		assert.ErrorIs(t, err, models.ErrSessionNotJoinable)
	})

	t.Run("rejects an unknown session", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Join(ctx, "missing", "bob", "tb")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestMemorySessionStore_ClaimRole(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *MemorySessionStore {
		t.Helper()
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
		require.NoError(t, err)
		_, err = s.Join(ctx, "room-1", "bob", "tb")
		require.NoError(t, err)
		return s
	}

	t.Run("first claim wins, second claim loses", func(t *testing.T) {
		s := setup(t)

		ok, err := s.ClaimRole(ctx, "room-1", "alice", "vivian")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.ClaimRole(ctx, "room-1", "bob", "vivian")
		require.NoError(t, err)
		assert.False(t, ok)

		sess, err := s.Get(ctx, "room-1")
		require.NoError(t, err)
		holder, claimed := sess.ClaimantOf("vivian")
		require.True(t, claimed)
		assert.Equal(t, "alice", holder.Name)
	})

	t.Run("re-claiming one's own role succeeds", func(t *testing.T) {
		s := setup(t)

		ok, err := s.ClaimRole(ctx, "room-1", "alice", "vivian")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.ClaimRole(ctx, "room-1", "alice", "vivian")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("exactly one winner under concurrent claims", func(t *testing.T) {
		s := setup(t)
		names := []string{"alice", "bob"}

		var wg sync.WaitGroup
		results := make([]bool, len(names))
		for i, name := range names {
			wg.Add(1)
			go func(i int, name string) {
				defer wg.Done()
				ok, err := s.ClaimRole(ctx, "room-1", name, "julian")
				assert.NoError(t, err)
				results[i] = ok
			}(i, name)
		}
		wg.Wait()

		winners := 0
		for _, ok := range results {
			if ok {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("fails after start", func(t *testing.T) {
		s := setup(t)
		ok, err := s.Start(ctx, "room-1")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.ClaimRole(ctx, "room-1", "alice", "price")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("fails for an unknown participant", func(t *testing.T) {
		s := setup(t)
		ok, err := s.ClaimRole(ctx, "room-1", "mallory", "price")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMemorySessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("transitions are monotonic", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
		require.NoError(t, err)

		ok, err := s.Start(ctx, "room-1")
		require.NoError(t, err)
		assert.True(t, ok)

		// Starting twice is rejected, not an error.
		ok, err = s.Start(ctx, "room-1")
		require.NoError(t, err)
		assert.False(t, ok)

		sess, err := s.End(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusEnded, sess.Status)

		// No resurrection.
		ok, err = s.Start(ctx, "room-1")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.End(ctx, "room-1")
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("ending a waiting session is a conflict", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
		require.NoError(t, err)

		_, err = s.End(ctx, "room-1")
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("ready flag flips both ways while waiting", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
		require.NoError(t, err)

		ok, err := s.SetReady(ctx, "room-1", "alice", true)
		require.NoError(t, err)
		assert.True(t, ok)

		sess, err := s.Get(ctx, "room-1")
		require.NoError(t, err)
		assert.True(t, sess.Participants[0].Ready)

		ok, err = s.SetReady(ctx, "room-1", "alice", false)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMemorySessionStore_Utterances(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
	require.NoError(t, err)
	ok, err := s.Start(ctx, "room-1")
	require.NoError(t, err)
	require.True(t, ok)

	batch0 := []models.Utterance{
		{ID: "u1", CharacterID: "vivian", Text: "one", SceneIndex: 0, SequenceOrder: 0},
		{ID: "u2", CharacterID: "bennett", Text: "two", SceneIndex: 0, SequenceOrder: 1},
	}
	batch1 := []models.Utterance{
		{ID: "u3", CharacterID: "vivian", Text: "three", SceneIndex: 1, SequenceOrder: 0},
	}
	require.NoError(t, s.AppendUtterances(ctx, "room-1", batch0))
	require.NoError(t, s.AppendUtterances(ctx, "room-1", batch1))

	t.Run("filters by scene", func(t *testing.T) {
		got, err := s.Utterances(ctx, "room-1", 0)
		require.NoError(t, err)
		assert.Equal(t, batch0, got)

		got, err = s.Utterances(ctx, "room-1", 1)
		require.NoError(t, err)
		assert.Equal(t, batch1, got)
	})

	t.Run("AllScenes returns the full transcript in order", func(t *testing.T) {
		got, err := s.Utterances(ctx, "room-1", AllScenes)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "u1", got[0].ID)
		assert.Equal(t, "u3", got[2].ID)
	})

	t.Run("a scene with no utterances is empty, not an error", func(t *testing.T) {
		got, err := s.Utterances(ctx, "room-1", 2)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("appending to an ended session fails", func(t *testing.T) {
		_, err := s.End(ctx, "room-1")
		require.NoError(t, err)

		err = s.AppendUtterances(ctx, "room-1", batch1)
		assert.ErrorIs(t, err, models.ErrSessionEnded)
	})
}

func TestMemorySessionStore_Accusations(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *MemorySessionStore {
		t.Helper()
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
		require.NoError(t, err)
		_, err = s.Join(ctx, "room-1", "bob", "tb")
		require.NoError(t, err)
		ok, err := s.Start(ctx, "room-1")
		require.NoError(t, err)
		require.True(t, ok)
		return s
	}

	t.Run("records accusations while playing", func(t *testing.T) {
		s := setup(t)
		require.NoError(t, s.AddAccusation(ctx, "room-1", models.Accusation{Accuser: "alice", SuspectCharacterID: "julian"}))
		require.NoError(t, s.AddAccusation(ctx, "room-1", models.Accusation{Accuser: "bob", SuspectCharacterID: "price"}))

		sess, err := s.Get(ctx, "room-1")
		require.NoError(t, err)
		assert.Len(t, sess.Accusations, 2)
	})

	t.Run("a repeat accusation replaces in place", func(t *testing.T) {
		s := setup(t)
		require.NoError(t, s.AddAccusation(ctx, "room-1", models.Accusation{Accuser: "alice", SuspectCharacterID: "price"}))
		require.NoError(t, s.AddAccusation(ctx, "room-1", models.Accusation{Accuser: "bob", SuspectCharacterID: "julian"}))
		require.NoError(t, s.AddAccusation(ctx, "room-1", models.Accusation{Accuser: "alice", SuspectCharacterID: "julian"}))

		sess, err := s.Get(ctx, "room-1")
		require.NoError(t, err)
		require.Len(t, sess.Accusations, 2)
		// Alice keeps her original position in the registration order.
		assert.Equal(t, "alice", sess.Accusations[0].Accuser)
		assert.Equal(t, "julian", sess.Accusations[0].SuspectCharacterID)
	})

	t.Run("rejected outside the playing state", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
		require.NoError(t, err)

		err = s.AddAccusation(ctx, "room-1", models.Accusation{Accuser: "alice", SuspectCharacterID: "julian"})
		assert.ErrorIs(t, err, models.ErrNotPlaying)
	})
}

func TestMemorySessionStore_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sess, err := s.Create(ctx, "room-1", "midnight-manor", "alice", "ta")
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	sess.Participants[0].Name = "mallory"
	sess.Status = models.StatusEnded

	fresh, err := s.Get(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", fresh.Participants[0].Name)
	assert.Equal(t, models.StatusWaiting, fresh.Status)
}
