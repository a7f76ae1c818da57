package game

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/SpokieKid/mystory/internal/script"
)

// Encoding used for context budgeting.
const contextEncoding = "cl100k_base"

// aiReinforcement is appended to the scene instruction for AI-controlled
// characters: with no human steering them, the capability is told to push
// the plot forward itself.
const aiReinforcement = "\n\n[Important] You are an AI-played character. Actively advance the plot: " +
	"voice suspicion, press the others with questions, or defend yourself. Stay true to your " +
	"character and keep the conversation sharp."

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func contextTokenizer() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		// Best effort: when the encoding cannot be loaded, trimming is
		// skipped and prompts carry the full context.
		enc, _ = tiktoken.GetEncoding(contextEncoding)
	})
	return enc
}

// trimContext drops the oldest transcript lines until the rest fits the
// token budget. The most recent lines matter most to the next speaker.
func trimContext(lines []string, budget int) []string {
	if budget <= 0 || len(lines) == 0 {
		return lines
	}
	tk := contextTokenizer()
	if tk == nil {
		return lines
	}

	total := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		total += len(tk.Encode(lines[i], nil, nil))
		if total > budget {
			break
		}
		start = i
	}
	return lines[start:]
}

// buildPrompt assembles the full generation prompt for one character's turn.
func buildPrompt(ch script.Character, scenePrompt string, context []string, aiControlled bool) string {
	instruction := scenePrompt
	if aiControlled {
		instruction += aiReinforcement
	}

	priorDialogue := "(this is the first round of statements)"
	if len(context) > 0 {
		priorDialogue = strings.Join(context, "\n")
	}

	return fmt.Sprintf(`You are playing a live murder-mystery game. Your character is "%s".

[Character]
%s

[What only you know]
%s

[Current scene]
%s

[Earlier dialogue]
%s

[Rules]
1. Stay fully in character and speak in the first person.
2. Let your personality and your secret shape what you say.
3. Keep your statement between 50 and 100 words.
4. You may show emotion, raise suspicion, or defend yourself.
5. Never reveal whether you are the culprit.

Reply with your statement only, no prefix of any kind.`,
		ch.Name, ch.Description, ch.SecretInfo, instruction, priorDialogue)
}

// Deterministic placeholder utterances for recovered per-speaker failures.
func silentPlaceholder(ch script.Character) string {
	return fmt.Sprintf("(%s stays silent...)", ch.Name)
}

func thinkingPlaceholder(ch script.Character) string {
	return fmt.Sprintf("(%s seems to be deep in thought...)", ch.Name)
}
