// Package script holds the immutable library of playable mystery scripts.
// Scripts are fixed at load time: characters, scenes and the antagonist
// assignment are never derived from or influenced by gameplay.
package script

// Character is a script-defined persona. SecretInfo is role-private
// narrative knowledge fed only into that character's generation prompt.
type Character struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Description  string `json:"description"`
	SecretInfo   string `json:"-"`
	IsAntagonist bool   `json:"-"`
}

// Scene is one ordered unit of narrative progression. Prompt is the
// instruction handed to the generation capability for this scene.
type Scene struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Prompt      string `json:"-"`
}

// PlayerCount bounds the roster size a script supports.
type PlayerCount struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Script is a complete playable mystery. At most one character carries the
// antagonist flag; a script may declare none, in which case the sentinel
// "other" is the correct accusation.
type Script struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Cover       string      `json:"cover"`
	Description string      `json:"description"`
	Background  string      `json:"background"`
	PlayerCount PlayerCount `json:"playerCount"`
	Characters  []Character `json:"characters"`
	Scenes      []Scene     `json:"scenes"`
}

// Character returns the character with the given id.
func (s *Script) Character(id string) (Character, bool) {
	for _, c := range s.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// Antagonist returns the script-declared antagonist, if the script has one.
func (s *Script) Antagonist() (Character, bool) {
	for _, c := range s.Characters {
		if c.IsAntagonist {
			return c, true
		}
	}
	return Character{}, false
}

// Library is a read-only registry of scripts keyed by id.
type Library struct {
	byID  map[string]*Script
	order []string
}

// NewLibrary builds a library from the given scripts, preserving order.
func NewLibrary(scripts ...*Script) *Library {
	l := &Library{byID: make(map[string]*Script, len(scripts))}
	for _, s := range scripts {
		if _, dup := l.byID[s.ID]; dup {
			continue
		}
		l.byID[s.ID] = s
		l.order = append(l.order, s.ID)
	}
	return l
}

// Get returns the script with the given id.
func (l *Library) Get(id string) (*Script, bool) {
	s, ok := l.byID[id]
	return s, ok
}

// List returns all scripts in registration order.
func (l *Library) List() []*Script {
	out := make([]*Script, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}
