package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/SpokieKid/mystory/internal/messaging"
	"github.com/SpokieKid/mystory/internal/models"
	"github.com/SpokieKid/mystory/internal/script"
	"github.com/SpokieKid/mystory/internal/secondme"
	"github.com/SpokieKid/mystory/internal/store"
)

var placeholderUtterancesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mystory_placeholder_utterances_total",
		Help: "Placeholder utterances emitted for recovered per-speaker failures.",
	},
	[]string{"reason"},
)

// EngineConfig carries the engine's tunables.
type EngineConfig struct {
	// RateLimitDelay is the pause between successive generation calls
	// within one scene pass.
	RateLimitDelay time.Duration
	// MaxContextTokens bounds the transcript context in prompts; zero
	// disables trimming.
	MaxContextTokens int
}

// Engine produces the ordered utterance list for one (session, scene) pair.
// A single pass is sequential by design: each speaker sees the lines spoken
// before them in the same pass. Concurrent passes for the same (session,
// scene) are rejected, not interleaved.
type Engine struct {
	store   store.SessionStore
	scripts *script.Library
	gen     secondme.Generator
	voice   secondme.VoiceSynthesizer // nil disables audio
	events  messaging.EventPublisher
	logger  *zap.Logger
	cfg     EngineConfig

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewEngine creates a narrative turn engine. voice may be nil; events may be
// the no-op publisher.
func NewEngine(
	st store.SessionStore,
	scripts *script.Library,
	gen secondme.Generator,
	voice secondme.VoiceSynthesizer,
	events messaging.EventPublisher,
	logger *zap.Logger,
	cfg EngineConfig,
) *Engine {
	if events == nil {
		events = messaging.NoopEventPublisher{}
	}
	return &Engine{
		store:    st,
		scripts:  scripts,
		gen:      gen,
		voice:    voice,
		events:   events,
		logger:   logger.Named("TurnEngine"),
		cfg:      cfg,
		inflight: make(map[string]struct{}),
	}
}

func sceneKey(sessionID string, sceneIndex int) string {
	return fmt.Sprintf("%s/%d", sessionID, sceneIndex)
}

// acquireScene marks a (session, scene) generation as in flight. At most one
// pass may run per tuple; a second concurrent request is rejected rather
// than allowed to append a duplicate utterance set.
func (e *Engine) acquireScene(sessionID string, sceneIndex int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := sceneKey(sessionID, sceneIndex)
	if _, busy := e.inflight[key]; busy {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Engine) releaseScene(sessionID string, sceneIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, sceneKey(sessionID, sceneIndex))
}

// RunScene generates one utterance per scene character, in script-declared
// order. Per-speaker failures are absorbed into placeholder utterances; the
// returned list always has exactly one entry per character. requesterName
// identifies the participant whose capability voices AI-controlled roles.
func (e *Engine) RunScene(ctx context.Context, sessionID string, sceneIndex int, requesterName string) ([]models.Utterance, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.StatusPlaying {
		return nil, models.ErrNotPlaying
	}

	sc, ok := e.scripts.Get(sess.ScriptID)
	if !ok {
		return nil, models.ErrScriptNotFound
	}
	if sceneIndex < 0 || sceneIndex >= len(sc.Scenes) {
		return nil, models.ErrSceneNotFound
	}
	scene := sc.Scenes[sceneIndex]

	var initiatorCredential string
	if requesterName != "" {
		if p, found := sess.Participant(requesterName); found {
			initiatorCredential = p.Credential
		}
	}

	if !e.acquireScene(sessionID, sceneIndex) {
		return nil, models.ErrGenerationInFlight
	}
	defer e.releaseScene(sessionID, sceneIndex)

	contextLines, err := e.transcriptContext(ctx, sessionID, sc)
	if err != nil {
		return nil, err
	}

	log := e.logger.With(
		zap.String("sessionID", sessionID),
		zap.Int("sceneIndex", sceneIndex),
	)
	log.Info("Scene generation started",
		zap.Int("characters", len(sc.Characters)),
		zap.Int("contextLines", len(contextLines)),
	)

	// The pass runs to completion even if the requesting client goes away:
	// utterances already produced must land in the store for later polls.
	genCtx := context.WithoutCancel(ctx)

	utterances := make([]models.Utterance, 0, len(sc.Characters))
	for i, ch := range sc.Characters {
		credential, ctrl, credErr := ResolveCredential(sess, ch.ID, initiatorCredential)
		if credErr != nil {
			// Not fatal: the character sits the round out.
			placeholderUtterancesTotal.With(prometheus.Labels{"reason": "credential_unavailable"}).Inc()
			log.Warn("No credential available for character", zap.String("characterID", ch.ID))
			utterances = append(utterances, e.newUtterance(sceneIndex, i, ch.ID, models.ControllerAI, silentPlaceholder(ch), ""))
			continue
		}

		prompt := buildPrompt(ch, scene.Prompt, trimContext(contextLines, e.cfg.MaxContextTokens), ctrl.Kind == AIControlled)

		text, genErr := e.gen.GenerateDialogue(genCtx, credential, prompt)
		if genErr != nil {
			// Recovered locally: one bad speaker never aborts the scene.
			placeholderUtterancesTotal.With(prometheus.Labels{"reason": "generation_failed"}).Inc()
			log.Warn("Dialogue generation failed for character",
				zap.String("characterID", ch.ID),
				zap.Error(genErr),
			)
			utterances = append(utterances, e.newUtterance(sceneIndex, i, ch.ID, models.ControllerAI, thinkingPlaceholder(ch), ""))
		} else {
			var audioRef string
			if e.voice != nil {
				audioRef, _ = e.voice.Synthesize(genCtx, credential, text)
			}
			utterances = append(utterances, e.newUtterance(sceneIndex, i, ch.ID, ctrl.Tag(), text, audioRef))
			// Later speakers in this pass respond to this line.
			contextLines = append(contextLines, fmt.Sprintf("%s: %s", ch.Name, text))
		}

		// Pause between successive upstream calls to respect rate limits.
		if i < len(sc.Characters)-1 && e.cfg.RateLimitDelay > 0 {
			time.Sleep(e.cfg.RateLimitDelay)
		}
	}

	if err := e.store.AppendUtterances(genCtx, sessionID, utterances); err != nil {
		return nil, err
	}

	if err := e.events.PublishGameEvent(genCtx, messaging.GameEventPayload{
		Type:       messaging.EventSceneGenerated,
		SessionID:  sessionID,
		ScriptID:   sess.ScriptID,
		SceneIndex: &sceneIndex,
		Utterances: len(utterances),
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		log.Warn("Failed to publish scene event", zap.Error(err))
	}

	log.Info("Scene generation finished", zap.Int("utterances", len(utterances)))
	return utterances, nil
}

// transcriptContext renders the whole-session transcript as "Name: text"
// lines, the narrative context for the next pass.
func (e *Engine) transcriptContext(ctx context.Context, sessionID string, sc *script.Script) ([]string, error) {
	prior, err := e.store.Utterances(ctx, sessionID, store.AllScenes)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(prior))
	for _, u := range prior {
		name := u.CharacterID
		if ch, ok := sc.Character(u.CharacterID); ok {
			name = ch.Name
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, u.Text))
	}
	return lines, nil
}

func (e *Engine) newUtterance(sceneIndex, order int, characterID, controller, text, audioRef string) models.Utterance {
	return models.Utterance{
		ID:            uuid.NewString(),
		Controller:    controller,
		CharacterID:   characterID,
		Text:          text,
		AudioRef:      audioRef,
		SceneIndex:    sceneIndex,
		SequenceOrder: order,
		CreatedAt:     time.Now().UTC(),
	}
}
