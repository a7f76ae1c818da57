package models

import "errors"

// Application-wide standard errors
var (
	// Resource errors
	ErrNotFound       = errors.New("resource not found")
	ErrSessionExists  = errors.New("session with this id already exists")
	ErrScriptNotFound = errors.New("script not found")
	ErrSceneNotFound  = errors.New("scene not found")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input data")

	// Session state / conflict errors
	ErrConflict           = errors.New("action conflicts with current session state")
	ErrSessionNotJoinable = errors.New("session is not accepting new participants")
	ErrSessionFull        = errors.New("session roster is at capacity")
	ErrRoleTaken          = errors.New("character role is already claimed")
	ErrAlreadyStarted     = errors.New("session has already started")
	ErrSessionEnded       = errors.New("session has ended")
	ErrNotPlaying         = errors.New("session is not in progress")

	// Generation errors (recovered inside the turn engine, never surfaced)
	ErrCredentialUnavailable = errors.New("no credential available for character")
	ErrGenerationFailed      = errors.New("dialogue generation failed")
	ErrGenerationInFlight    = errors.New("scene generation is already in progress")

	// Share token errors
	ErrInvalidRoomToken = errors.New("room token is malformed")
)
