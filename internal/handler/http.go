// Package handler exposes the session API surface over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SpokieKid/mystory/internal/game"
	"github.com/SpokieKid/mystory/internal/messaging"
	"github.com/SpokieKid/mystory/internal/models"
	"github.com/SpokieKid/mystory/internal/roomtoken"
	"github.com/SpokieKid/mystory/internal/script"
	"github.com/SpokieKid/mystory/internal/store"
)

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
}

// GameHandler serves the session API.
type GameHandler struct {
	store   store.SessionStore
	scripts *script.Library
	engine  *game.Engine
	events  messaging.EventPublisher
	logger  *zap.Logger
}

// NewGameHandler creates the HTTP handler for the game server.
func NewGameHandler(st store.SessionStore, scripts *script.Library, engine *game.Engine, events messaging.EventPublisher, logger *zap.Logger) *GameHandler {
	if events == nil {
		events = messaging.NoopEventPublisher{}
	}
	return &GameHandler{
		store:   st,
		scripts: scripts,
		engine:  engine,
		events:  events,
		logger:  logger.Named("GameHandler"),
	}
}

// RegisterRoutes mounts the API routes.
func (h *GameHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/scripts", h.listScripts)
	r.GET("/scripts/:id", h.getScript)
	r.GET("/share/:token", h.decodeShareToken)

	rooms := r.Group("/rooms")
	{
		rooms.POST("", h.createRoom)
		rooms.GET("/:id", h.getRoom)
		rooms.PUT("/:id", h.mutateRoom)
		rooms.GET("/:id/transcript", h.getTranscript)
		rooms.POST("/:id/scenes/:index/dialogue", h.generateSceneDialogue)
		rooms.GET("/:id/scenes/:index/dialogue", h.getSceneDialogue)
		rooms.POST("/:id/accusations", h.addAccusation)
		rooms.POST("/:id/end", h.endRoom)
		rooms.GET("/:id/verdict", h.getVerdict)
	}
}

// handleServiceError maps sentinel errors onto HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrScriptNotFound),
		errors.Is(err, models.ErrSceneNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidRoomToken):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrSessionExists),
		errors.Is(err, models.ErrSessionNotJoinable),
		errors.Is(err, models.ErrSessionFull),
		errors.Is(err, models.ErrRoleTaken),
		errors.Is(err, models.ErrAlreadyStarted),
		errors.Is(err, models.ErrSessionEnded),
		errors.Is(err, models.ErrNotPlaying),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrGenerationInFlight):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		c.JSON(status, APIError{Message: "Internal server error"})
		return
	}
	c.JSON(status, APIError{Message: err.Error()})
}

// --- Scripts ---

func (h *GameHandler) listScripts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scripts": h.scripts.List()})
}

func (h *GameHandler) getScript(c *gin.Context) {
	sc, ok := h.scripts.Get(c.Param("id"))
	if !ok {
		handleServiceError(c, models.ErrScriptNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"script": sc})
}

// --- Rooms ---

type createRoomRequest struct {
	RoomID      string `json:"roomId"`
	ScriptID    string `json:"scriptId" binding:"required"`
	PlayerName  string `json:"playerName" binding:"required"`
	PlayerToken string `json:"playerToken"`
}

func (h *GameHandler) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}
	if req.RoomID == "" {
		req.RoomID = uuid.NewString()
	}

	sess, err := h.store.Create(c.Request.Context(), req.RoomID, req.ScriptID, req.PlayerName, req.PlayerToken)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	shareToken, err := roomtoken.Encode(roomtoken.RoomRef{
		ID:        sess.ID,
		ScriptID:  sess.ScriptID,
		HostName:  req.PlayerName,
		CreatedAt: sess.CreatedAt,
	})
	if err != nil {
		h.logger.Error("Failed to encode share token", zap.String("roomID", sess.ID), zap.Error(err))
		handleServiceError(c, err)
		return
	}

	if err := h.events.PublishGameEvent(c.Request.Context(), messaging.GameEventPayload{
		Type:       messaging.EventSessionCreated,
		SessionID:  sess.ID,
		ScriptID:   sess.ScriptID,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		h.logger.Warn("Failed to publish session created event", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"room":       sess.Public(),
		"shareToken": shareToken,
	})
}

func (h *GameHandler) getRoom(c *gin.Context) {
	sess, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": sess.Public()})
}

// Room mutation actions.
const (
	actionJoin            = "join"
	actionSelectCharacter = "select-character"
	actionReady           = "ready"
	actionStart           = "start"
)

type mutateRoomRequest struct {
	Action      string `json:"action" binding:"required"`
	PlayerName  string `json:"playerName"`
	PlayerToken string `json:"playerToken"`
	CharacterID string `json:"characterId"`
	Ready       bool   `json:"ready"`
}

// mutateRoom handles join / select-character / ready / start through a
// single PUT, the action-style surface polling clients use.
func (h *GameHandler) mutateRoom(c *gin.Context) {
	roomID := c.Param("id")

	var req mutateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	var ok bool

	switch req.Action {
	case actionJoin:
		sess, err := h.store.Join(ctx, roomID, req.PlayerName, req.PlayerToken)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "room": sess.Public()})
		return

	case actionSelectCharacter:
		var err error
		ok, err = h.store.ClaimRole(ctx, roomID, req.PlayerName, req.CharacterID)
		if err != nil {
			handleServiceError(c, err)
			return
		}

	case actionReady:
		var err error
		ok, err = h.store.SetReady(ctx, roomID, req.PlayerName, req.Ready)
		if err != nil {
			handleServiceError(c, err)
			return
		}

	case actionStart:
		var err error
		ok, err = h.store.Start(ctx, roomID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		if ok {
			if pubErr := h.events.PublishGameEvent(ctx, messaging.GameEventPayload{
				Type:       messaging.EventSessionStarted,
				SessionID:  roomID,
				OccurredAt: time.Now().UTC(),
			}); pubErr != nil {
				h.logger.Warn("Failed to publish session started event", zap.Error(pubErr))
			}
		}

	default:
		c.JSON(http.StatusBadRequest, APIError{Message: "Unknown action"})
		return
	}

	if !ok {
		c.JSON(http.StatusBadRequest, APIError{Message: "Action failed"})
		return
	}

	sess, err := h.store.Get(ctx, roomID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": sess.Public()})
}

// --- Dialogue ---

type generateDialogueRequest struct {
	RequesterName string `json:"requesterName"`
}

func (h *GameHandler) generateSceneDialogue(c *gin.Context) {
	roomID := c.Param("id")
	sceneIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid scene index"})
		return
	}

	var req generateDialogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	h.logger.Info("Scene dialogue requested",
		zap.String("roomID", roomID),
		zap.Int("sceneIndex", sceneIndex),
		zap.String("requester", req.RequesterName),
	)

	utterances, err := h.engine.RunScene(c.Request.Context(), roomID, sceneIndex, req.RequesterName)
	if err != nil {
		// Per-speaker failures never reach here; these are request-level
		// rejections only.
		if !errors.Is(err, models.ErrNotFound) &&
			!errors.Is(err, models.ErrNotPlaying) &&
			!errors.Is(err, models.ErrSceneNotFound) &&
			!errors.Is(err, models.ErrGenerationInFlight) {
			h.logger.Error("Scene generation failed (unhandled)",
				zap.String("roomID", roomID),
				zap.Int("sceneIndex", sceneIndex),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dialogues": utterances})
}

func (h *GameHandler) getSceneDialogue(c *gin.Context) {
	roomID := c.Param("id")
	sceneIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid scene index"})
		return
	}

	utterances, err := h.store.Utterances(c.Request.Context(), roomID, sceneIndex)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dialogues": utterances})
}

func (h *GameHandler) getTranscript(c *gin.Context) {
	utterances, err := h.store.Utterances(c.Request.Context(), c.Param("id"), store.AllScenes)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dialogues": utterances})
}

// --- Accusations & verdict ---

type accusationRequest struct {
	Accuser            string `json:"accuser" binding:"required"`
	SuspectCharacterID string `json:"suspectCharacterId" binding:"required"`
}

func (h *GameHandler) addAccusation(c *gin.Context) {
	roomID := c.Param("id")

	var req accusationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	err := h.store.AddAccusation(c.Request.Context(), roomID, models.Accusation{
		Accuser:            req.Accuser,
		SuspectCharacterID: req.SuspectCharacterID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GameHandler) endRoom(c *gin.Context) {
	roomID := c.Param("id")

	sess, err := h.store.End(c.Request.Context(), roomID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sc, ok := h.scripts.Get(sess.ScriptID)
	if !ok {
		handleServiceError(c, models.ErrScriptNotFound)
		return
	}
	verdict := game.ResolveOutcome(sess.Accusations, sc)

	if pubErr := h.events.PublishGameEvent(c.Request.Context(), messaging.GameEventPayload{
		Type:       messaging.EventSessionEnded,
		SessionID:  sess.ID,
		ScriptID:   sess.ScriptID,
		OccurredAt: time.Now().UTC(),
	}); pubErr != nil {
		h.logger.Warn("Failed to publish session ended event", zap.Error(pubErr))
	}

	c.JSON(http.StatusOK, gin.H{"verdict": verdict})
}

func (h *GameHandler) getVerdict(c *gin.Context) {
	sess, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if sess.Status != models.StatusEnded {
		handleServiceError(c, models.ErrConflict)
		return
	}

	sc, ok := h.scripts.Get(sess.ScriptID)
	if !ok {
		handleServiceError(c, models.ErrScriptNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verdict": game.ResolveOutcome(sess.Accusations, sc)})
}

// --- Share tokens ---

func (h *GameHandler) decodeShareToken(c *gin.Context) {
	ref, err := roomtoken.Decode(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid room link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": ref})
}
