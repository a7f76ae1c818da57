package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpokieKid/mystory/internal/models"
)

func rosterSession() *models.Session {
	return &models.Session{
		ID:     "room-1",
		Status: models.StatusPlaying,
		Participants: []models.Participant{
			{Name: "alice", Credential: "token-alice", CharacterID: "vivian"},
			{Name: "bob", Credential: "", CharacterID: "bennett"},
			{Name: "carol", Credential: "token-carol"},
		},
	}
}

func TestClassify(t *testing.T) {
	sess := rosterSession()

	t.Run("claimed role is participant-controlled", func(t *testing.T) {
		ctrl := Classify(sess, "vivian")
		assert.Equal(t, ParticipantControlled, ctrl.Kind)
		assert.Equal(t, "alice", ctrl.ParticipantName)
		assert.Equal(t, models.ControllerParticipant, ctrl.Tag())
	})

	t.Run("unclaimed role is AI-controlled", func(t *testing.T) {
		ctrl := Classify(sess, "julian")
		assert.Equal(t, AIControlled, ctrl.Kind)
		assert.Empty(t, ctrl.ParticipantName)
		assert.Equal(t, models.ControllerAI, ctrl.Tag())
	})
}

func TestResolveCredential(t *testing.T) {
	sess := rosterSession()

	t.Run("claimant's own credential wins", func(t *testing.T) {
		cred, ctrl, err := ResolveCredential(sess, "vivian", "token-initiator")
		require.NoError(t, err)
		assert.Equal(t, "token-alice", cred)
		assert.Equal(t, ParticipantControlled, ctrl.Kind)
	})

	t.Run("claimant without a credential falls back to the initiator", func(t *testing.T) {
		cred, ctrl, err := ResolveCredential(sess, "bennett", "token-initiator")
		require.NoError(t, err)
		assert.Equal(t, "token-initiator", cred)
		// The classification stays participant-controlled even though the
		// initiator's capability does the speaking.
		assert.Equal(t, ParticipantControlled, ctrl.Kind)
	})

	t.Run("unclaimed role uses the initiator", func(t *testing.T) {
		cred, ctrl, err := ResolveCredential(sess, "julian", "token-initiator")
		require.NoError(t, err)
		assert.Equal(t, "token-initiator", cred)
		assert.Equal(t, AIControlled, ctrl.Kind)
	})

	t.Run("no credential anywhere is recoverable", func(t *testing.T) {
		_, _, err := ResolveCredential(sess, "julian", "")
		assert.ErrorIs(t, err, models.ErrCredentialUnavailable)
	})
}
