package game

import (
	"github.com/SpokieKid/mystory/internal/models"
	"github.com/SpokieKid/mystory/internal/script"
)

// ResolveOutcome tallies the final accusation set against the script's
// concealed antagonist. The winning suspect is the one with the most
// accusations; ties break toward the suspect accused first. When the script
// declares no antagonist, the sentinel "other" is the correct answer.
// Pure function: no mutation, no failure mode. An empty accusation set is
// deterministically incorrect.
func ResolveOutcome(accusations []models.Accusation, sc *script.Script) models.Verdict {
	antagonistID := models.SuspectOther
	if antagonist, ok := sc.Antagonist(); ok {
		antagonistID = antagonist.ID
	}

	if len(accusations) == 0 {
		return models.Verdict{Correct: false, AntagonistID: antagonistID}
	}

	counts := make(map[string]int, len(accusations))
	firstSeen := make(map[string]int, len(accusations))
	for i, acc := range accusations {
		counts[acc.SuspectCharacterID]++
		if _, seen := firstSeen[acc.SuspectCharacterID]; !seen {
			firstSeen[acc.SuspectCharacterID] = i
		}
	}

	var winner string
	winnerCount := -1
	for suspect, n := range counts {
		switch {
		case n > winnerCount:
			winner, winnerCount = suspect, n
		case n == winnerCount && firstSeen[suspect] < firstSeen[winner]:
			winner = suspect
		}
	}

	return models.Verdict{
		Correct:      winner == antagonistID,
		AntagonistID: antagonistID,
	}
}
