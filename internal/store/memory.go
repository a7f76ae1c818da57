package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SpokieKid/mystory/internal/models"
	"github.com/SpokieKid/mystory/internal/script"
)

// Compile-time check
var _ SessionStore = (*MemorySessionStore)(nil)

// MemorySessionStore keeps sessions in process memory. Sessions live for the
// process lifetime; no expiry. A single mutex guards the registry, so every
// mutation is one critical section.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	scripts  *script.Library
	logger   *zap.Logger
	now      func() time.Time
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore(scripts *script.Library, logger *zap.Logger) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		scripts:  scripts,
		logger:   logger.Named("MemorySessionStore"),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(_ context.Context, sessionID, scriptID, hostName, hostCredential string) (*models.Session, error) {
	if sessionID == "" || hostName == "" {
		return nil, models.ErrInvalidInput
	}
	if _, ok := s.scripts.Get(scriptID); !ok {
		return nil, models.ErrScriptNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; exists {
		return nil, models.ErrSessionExists
	}

	sess := &models.Session{
		ID:       sessionID,
		ScriptID: scriptID,
		Status:   models.StatusWaiting,
		Participants: []models.Participant{{
			Name:       hostName,
			Credential: hostCredential,
		}},
		CreatedAt: s.now().UTC(),
	}
	s.sessions[sessionID] = sess

	s.logger.Info("Session created",
		zap.String("sessionID", sessionID),
		zap.String("scriptID", scriptID),
		zap.String("host", hostName),
	)
	return sess.Clone(), nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *MemorySessionStore) Join(_ context.Context, sessionID, name, credential string) (*models.Session, error) {
	if name == "" {
		return nil, models.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}

	// Idempotent re-join: same name means the same participant.
	if _, present := sess.Participant(name); present {
		return sess.Clone(), nil
	}

	if sess.Status != models.StatusWaiting {
		return nil, models.ErrSessionNotJoinable
	}

	// Capacity comes from the script's declared bounds, not a fixed cap.
	sc, ok := s.scripts.Get(sess.ScriptID)
	if !ok {
		return nil, models.ErrScriptNotFound
	}
	if len(sess.Participants) >= sc.PlayerCount.Max {
		return nil, models.ErrSessionFull
	}

	sess.Participants = append(sess.Participants, models.Participant{
		Name:       name,
		Credential: credential,
	})

	s.logger.Info("Participant joined",
		zap.String("sessionID", sessionID),
		zap.String("name", name),
		zap.Int("rosterSize", len(sess.Participants)),
	)
	return sess.Clone(), nil
}

func (s *MemorySessionStore) ClaimRole(_ context.Context, sessionID, name, characterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.Status != models.StatusWaiting {
		return false, nil
	}
	p, ok := sess.Participant(name)
	if !ok {
		return false, nil
	}

	if holder, claimed := sess.ClaimantOf(characterID); claimed {
		// Re-claiming one's own role is idempotent.
		return holder.Name == name, nil
	}

	p.CharacterID = characterID
	s.logger.Debug("Role claimed",
		zap.String("sessionID", sessionID),
		zap.String("name", name),
		zap.String("characterID", characterID),
	)
	return true, nil
}

func (s *MemorySessionStore) SetReady(_ context.Context, sessionID, name string, ready bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.Status != models.StatusWaiting {
		return false, nil
	}
	p, ok := sess.Participant(name)
	if !ok {
		return false, nil
	}
	p.Ready = ready
	return true, nil
}

func (s *MemorySessionStore) Start(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.Status != models.StatusWaiting {
		return false, nil
	}
	sess.Status = models.StatusPlaying
	s.logger.Info("Session started", zap.String("sessionID", sessionID))
	return true, nil
}

func (s *MemorySessionStore) AppendUtterances(_ context.Context, sessionID string, utterances []models.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.ErrNotFound
	}
	if sess.Status == models.StatusEnded {
		return models.ErrSessionEnded
	}
	sess.Utterances = append(sess.Utterances, utterances...)
	return nil
}

func (s *MemorySessionStore) Utterances(_ context.Context, sessionID string, sceneIndex int) ([]models.Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return filterUtterances(sess.Utterances, sceneIndex), nil
}

func (s *MemorySessionStore) AddAccusation(_ context.Context, sessionID string, acc models.Accusation) error {
	if acc.Accuser == "" || acc.SuspectCharacterID == "" {
		return models.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.ErrNotFound
	}
	if sess.Status != models.StatusPlaying {
		return models.ErrNotPlaying
	}
	upsertAccusation(sess, acc)
	return nil
}

func (s *MemorySessionStore) End(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if sess.Status != models.StatusPlaying {
		return nil, models.ErrConflict
	}
	sess.Status = models.StatusEnded
	s.logger.Info("Session ended", zap.String("sessionID", sessionID))
	return sess.Clone(), nil
}

// filterUtterances copies utterances matching the scene selector.
func filterUtterances(all []models.Utterance, sceneIndex int) []models.Utterance {
	if sceneIndex == AllScenes {
		return append([]models.Utterance(nil), all...)
	}
	var out []models.Utterance
	for _, u := range all {
		if u.SceneIndex == sceneIndex {
			out = append(out, u)
		}
	}
	return out
}

// upsertAccusation replaces an accuser's earlier pick in place so the
// first-registered order survives for tie-breaking.
func upsertAccusation(sess *models.Session, acc models.Accusation) {
	for i := range sess.Accusations {
		if sess.Accusations[i].Accuser == acc.Accuser {
			sess.Accusations[i].SuspectCharacterID = acc.SuspectCharacterID
			return
		}
	}
	sess.Accusations = append(sess.Accusations, acc)
}
