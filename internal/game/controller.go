// Package game drives the narrative: controller classification, credential
// resolution, the scene turn engine and the end-of-game outcome resolver.
package game

import (
	"github.com/SpokieKid/mystory/internal/models"
)

// ControllerKind says who steers a character's speech this turn.
type ControllerKind int

const (
	// AIControlled characters are voiced through the initiator's capability.
	AIControlled ControllerKind = iota
	// ParticipantControlled characters speak through their claimant's own
	// capability.
	ParticipantControlled
)

// Controller is the tagged classification for one character, computed once
// per generation pass from the roster snapshot.
type Controller struct {
	Kind            ControllerKind
	ParticipantName string // set only for ParticipantControlled
}

// Tag returns the controller tag recorded on utterances.
func (c Controller) Tag() string {
	if c.Kind == ParticipantControlled {
		return models.ControllerParticipant
	}
	return models.ControllerAI
}

// Classify determines the controller for a character from the current role
// claims: participant-controlled if any participant holds the role,
// AI-controlled otherwise.
func Classify(sess *models.Session, characterID string) Controller {
	if p, ok := sess.ClaimantOf(characterID); ok {
		return Controller{Kind: ParticipantControlled, ParticipantName: p.Name}
	}
	return Controller{Kind: AIControlled}
}

// ResolveCredential decides which credential authors the character's line.
// Participant-controlled roles use the claimant's own credential; AI roles
// fall back to the requesting initiator's, letting one user's capability
// voice several unclaimed characters. With neither available it returns
// models.ErrCredentialUnavailable, which the engine recovers from locally.
func ResolveCredential(sess *models.Session, characterID, initiatorCredential string) (string, Controller, error) {
	ctrl := Classify(sess, characterID)
	if ctrl.Kind == ParticipantControlled {
		if p, ok := sess.Participant(ctrl.ParticipantName); ok && p.Credential != "" {
			return p.Credential, ctrl, nil
		}
	}
	if initiatorCredential != "" {
		return initiatorCredential, ctrl, nil
	}
	return "", ctrl, models.ErrCredentialUnavailable
}
