package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SpokieKid/mystory/internal/models"
	"github.com/SpokieKid/mystory/internal/script"
)

// Compile-time check
var _ SessionStore = (*RedisSessionStore)(nil)

// Retries for optimistic transactions that lose a WATCH race.
const maxTxRetries = 5

// errRejected signals a legal-but-refused mutation (ClaimRole/SetReady/Start
// contract: false, no error, no mutation).
var errRejected = errors.New("mutation rejected")

// RedisSessionStore keeps sessions as JSON records in redis. Each mutation
// runs as a WATCH-guarded compare-and-swap on the session key, so concurrent
// callers racing on the same session resolve to exactly one winner even
// across processes.
type RedisSessionStore struct {
	client  *redis.Client
	scripts *script.Library
	logger  *zap.Logger
	now     func() time.Time
}

// NewRedisSessionStore creates a redis-backed session store.
func NewRedisSessionStore(client *redis.Client, scripts *script.Library, logger *zap.Logger) *RedisSessionStore {
	return &RedisSessionStore{
		client:  client,
		scripts: scripts,
		logger:  logger.Named("RedisSessionStore"),
		now:     time.Now,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (s *RedisSessionStore) Create(ctx context.Context, sessionID, scriptID, hostName, hostCredential string) (*models.Session, error) {
	if sessionID == "" || hostName == "" {
		return nil, models.ErrInvalidInput
	}
	if _, ok := s.scripts.Get(scriptID); !ok {
		return nil, models.ErrScriptNotFound
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
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	// SetNX makes create-if-absent atomic.
	created, err := s.client.SetNX(ctx, sessionKey(sessionID), data, 0).Result()
	if err != nil {
		s.logger.Error("Failed to create session in redis", zap.Error(err), zap.String("sessionID", sessionID))
		return nil, fmt.Errorf("failed to create session in redis: %w", err)
	}
	if !created {
		return nil, models.ErrSessionExists
	}

	s.logger.Info("Session created",
		zap.String("sessionID", sessionID),
		zap.String("scriptID", scriptID),
		zap.String("host", hostName),
	)
	return sess, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// mutate loads the session, applies fn, and writes it back under WATCH.
// A lost race retries with a fresh read.
func (s *RedisSessionStore) mutate(ctx context.Context, sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	key := sessionKey(sessionID)
	var result *models.Session

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				return models.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to get session from redis: %w", err)
			}

			var sess models.Session
			if err := json.Unmarshal([]byte(raw), &sess); err != nil {
				return fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
			}

			if err := fn(&sess); err != nil {
				return err
			}

			data, err := json.Marshal(&sess)
			if err != nil {
				return fmt.Errorf("failed to marshal session: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			if err != nil {
				return err
			}
			result = &sess
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("Session CAS lost race, retrying",
				zap.String("sessionID", sessionID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("session %s mutation did not converge after %d attempts", sessionID, maxTxRetries)
}

func (s *RedisSessionStore) Join(ctx context.Context, sessionID, name, credential string) (*models.Session, error) {
	if name == "" {
		return nil, models.ErrInvalidInput
	}
	return s.mutate(ctx, sessionID, func(sess *models.Session) error {
		if _, present := sess.Participant(name); present {
			return nil // idempotent re-join
		}
		if sess.Status != models.StatusWaiting {
			return models.ErrSessionNotJoinable
		}
		sc, ok := s.scripts.Get(sess.ScriptID)
		if !ok {
			return models.ErrScriptNotFound
		}
		if len(sess.Participants) >= sc.PlayerCount.Max {
			return models.ErrSessionFull
		}
		sess.Participants = append(sess.Participants, models.Participant{
			Name:       name,
			Credential: credential,
		})
		return nil
	})
}

func (s *RedisSessionStore) ClaimRole(ctx context.Context, sessionID, name, characterID string) (bool, error) {
	_, err := s.mutate(ctx, sessionID, func(sess *models.Session) error {
		if sess.Status != models.StatusWaiting {
			return errRejected
		}
		p, ok := sess.Participant(name)
		if !ok {
			return errRejected
		}
		if holder, claimed := sess.ClaimantOf(characterID); claimed {
			if holder.Name == name {
				return nil
			}
			return errRejected
		}
		p.CharacterID = characterID
		return nil
	})
	return rejectionToBool(err)
}

func (s *RedisSessionStore) SetReady(ctx context.Context, sessionID, name string, ready bool) (bool, error) {
	_, err := s.mutate(ctx, sessionID, func(sess *models.Session) error {
		if sess.Status != models.StatusWaiting {
			return errRejected
		}
		p, ok := sess.Participant(name)
		if !ok {
			return errRejected
		}
		p.Ready = ready
		return nil
	})
	return rejectionToBool(err)
}

func (s *RedisSessionStore) Start(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.mutate(ctx, sessionID, func(sess *models.Session) error {
		if sess.Status != models.StatusWaiting {
			return errRejected
		}
		sess.Status = models.StatusPlaying
		return nil
	})
	return rejectionToBool(err)
}

func (s *RedisSessionStore) AppendUtterances(ctx context.Context, sessionID string, utterances []models.Utterance) error {
	_, err := s.mutate(ctx, sessionID, func(sess *models.Session) error {
		if sess.Status == models.StatusEnded {
			return models.ErrSessionEnded
		}
		sess.Utterances = append(sess.Utterances, utterances...)
		return nil
	})
	return err
}

func (s *RedisSessionStore) Utterances(ctx context.Context, sessionID string, sceneIndex int) ([]models.Utterance, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return filterUtterances(sess.Utterances, sceneIndex), nil
}

func (s *RedisSessionStore) AddAccusation(ctx context.Context, sessionID string, acc models.Accusation) error {
	if acc.Accuser == "" || acc.SuspectCharacterID == "" {
		return models.ErrInvalidInput
	}
	_, err := s.mutate(ctx, sessionID, func(sess *models.Session) error {
		if sess.Status != models.StatusPlaying {
			return models.ErrNotPlaying
		}
		upsertAccusation(sess, acc)
		return nil
	})
	return err
}

func (s *RedisSessionStore) End(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.mutate(ctx, sessionID, func(sess *models.Session) error {
		if sess.Status != models.StatusPlaying {
			return models.ErrConflict
		}
		sess.Status = models.StatusEnded
		return nil
	})
}

// rejectionToBool maps errRejected and NotFound to the (false, nil) contract
// of the boolean mutations; transport errors pass through.
func rejectionToBool(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errRejected), errors.Is(err, models.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
