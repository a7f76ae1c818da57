package models

// SuspectOther is the sentinel suspect for "none of the listed characters".
// It is the correct answer when the script declares no antagonist.
const SuspectOther = "other"

// Accusation records one participant's end-of-game pick. Accusations are
// collected while the session is playing and consumed once by the outcome
// resolver when the session ends.
type Accusation struct {
	Accuser            string `json:"accuser"`
	SuspectCharacterID string `json:"suspectCharacterId"`
}

// Verdict is the outcome resolver's result.
type Verdict struct {
	Correct      bool   `json:"correct"`
	AntagonistID string `json:"antagonistId"`
}
