package models

import "time"

// Controller tags record whether a participant's own capability or the AI
// fallback authored an utterance.
const (
	ControllerParticipant = "player"
	ControllerAI          = "ai"
)

// Utterance is one generated line of in-character dialogue. Utterances are
// appended by the narrative turn engine in script-declared character order
// and are immutable once appended.
type Utterance struct {
	ID            string    `json:"id"`
	Controller    string    `json:"controller"`
	CharacterID   string    `json:"characterId"`
	Text          string    `json:"text"`
	AudioRef      string    `json:"audioRef,omitempty"`
	SceneIndex    int       `json:"sceneIndex"`
	SequenceOrder int       `json:"sequenceOrder"`
	CreatedAt     time.Time `json:"createdAt"`
}
