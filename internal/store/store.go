// Package store holds the authoritative registry of session lifecycle and
// roster state. Every mutation is a single atomic critical section per
// session: two callers racing to claim the same role resolve to exactly one
// winner, the loser observing a normal conflict result.
package store

import (
	"context"

	"github.com/SpokieKid/mystory/internal/models"
)

// AllScenes selects utterances across every scene of a session.
const AllScenes = -1

// SessionStore is the session registry. Implementations must make each
// mutation atomic with respect to concurrent callers of the same session.
type SessionStore interface {
	// Create initializes a session with the host as the sole participant,
	// unready and unassigned. Returns models.ErrSessionExists if the id is
	// taken and models.ErrScriptNotFound for an unknown script.
	Create(ctx context.Context, sessionID, scriptID, hostName, hostCredential string) (*models.Session, error)

	// Get returns a deep copy of the session, or models.ErrNotFound.
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// Join adds a participant while the session is waiting. Joining again
	// under the same name is a no-op returning the existing session.
	// Returns models.ErrSessionNotJoinable once started and
	// models.ErrSessionFull at the script's declared capacity.
	Join(ctx context.Context, sessionID, name, credential string) (*models.Session, error)

	// ClaimRole assigns a character role to the named participant. Returns
	// false without mutation if the role is held by someone else, the
	// participant or session is unknown, or the session is not waiting.
	// Re-claiming one's own role returns true.
	ClaimRole(ctx context.Context, sessionID, name, characterID string) (bool, error)

	// SetReady updates the participant's readiness flag.
	SetReady(ctx context.Context, sessionID, name string, ready bool) (bool, error)

	// Start transitions waiting -> playing, freezing the roster and role
	// claims. Returns false once the session is already playing or ended.
	Start(ctx context.Context, sessionID string) (bool, error)

	// AppendUtterances appends a generated utterance batch to the session
	// transcript. Utterances are immutable once appended.
	AppendUtterances(ctx context.Context, sessionID string, utterances []models.Utterance) error

	// Utterances returns transcript lines for one scene, or for the whole
	// session when sceneIndex is AllScenes.
	Utterances(ctx context.Context, sessionID string, sceneIndex int) ([]models.Utterance, error)

	// AddAccusation records an end-of-game accusation while the session is
	// playing. A repeat accusation by the same accuser replaces the earlier
	// one in place, keeping its registration order.
	AddAccusation(ctx context.Context, sessionID string, acc models.Accusation) error

	// End transitions playing -> ended and returns the frozen session.
	End(ctx context.Context, sessionID string) (*models.Session, error)
}
