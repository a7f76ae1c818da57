package models

import "time"

// SessionStatus describes the lifecycle stage of a game session.
// Transitions are monotonic: waiting -> playing -> ended.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusPlaying SessionStatus = "playing"
	StatusEnded   SessionStatus = "ended"
)

// Participant is one human-backed roster entry. The display name doubles as
// the identity key within a session; the credential authorizes generation
// calls on the participant's behalf and must never leave the store boundary
// unredacted.
type Participant struct {
	Name        string `json:"name"`
	Credential  string `json:"credential,omitempty"`
	CharacterID string `json:"characterId,omitempty"`
	Ready       bool   `json:"ready"`
}

// Session is one running instance of a script. The participant at index 0 is
// the host. Owned exclusively by the session store; mutated only through its
// operations.
type Session struct {
	ID           string        `json:"id"`
	ScriptID     string        `json:"scriptId"`
	Status       SessionStatus `json:"status"`
	Participants []Participant `json:"participants"`
	Utterances   []Utterance   `json:"utterances,omitempty"`
	Accusations  []Accusation  `json:"accusations,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Participant returns the roster entry with the given display name.
func (s *Session) Participant(name string) (*Participant, bool) {
	for i := range s.Participants {
		if s.Participants[i].Name == name {
			return &s.Participants[i], true
		}
	}
	return nil, false
}

// ClaimantOf returns the participant currently holding the character role,
// if any.
func (s *Session) ClaimantOf(characterID string) (*Participant, bool) {
	for i := range s.Participants {
		if s.Participants[i].CharacterID == characterID {
			return &s.Participants[i], true
		}
	}
	return nil, false
}

// PublicParticipant mirrors Participant without the credential.
type PublicParticipant struct {
	Name        string `json:"name"`
	CharacterID string `json:"characterId,omitempty"`
	Ready       bool   `json:"ready"`
}

// PublicSession is the redacted projection of a Session for external reads.
type PublicSession struct {
	ID           string              `json:"id"`
	ScriptID     string              `json:"scriptId"`
	Status       SessionStatus       `json:"status"`
	Participants []PublicParticipant `json:"participants"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Public strips credentials for any externally-visible read.
func (s *Session) Public() *PublicSession {
	pub := &PublicSession{
		ID:           s.ID,
		ScriptID:     s.ScriptID,
		Status:       s.Status,
		Participants: make([]PublicParticipant, len(s.Participants)),
		CreatedAt:    s.CreatedAt,
	}
	for i, p := range s.Participants {
		pub.Participants[i] = PublicParticipant{
			Name:        p.Name,
			CharacterID: p.CharacterID,
			Ready:       p.Ready,
		}
	}
	return pub
}

// Clone returns a deep copy so callers can never mutate store-owned state.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Participants = append([]Participant(nil), s.Participants...)
	cp.Utterances = append([]Utterance(nil), s.Utterances...)
	cp.Accusations = append([]Accusation(nil), s.Accusations...)
	return &cp
}
