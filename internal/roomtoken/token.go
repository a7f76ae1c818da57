// Package roomtoken packs a shareable session reference into an opaque,
// URL-transportable token. The encoding is not tamper-proof; the token
// carries no secrets and decode failure is a generic invalid-link condition.
package roomtoken

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SpokieKid/mystory/internal/models"
)

// RoomRef is the shareable session reference.
type RoomRef struct {
	ID        string    `json:"id"`
	ScriptID  string    `json:"scriptId"`
	HostName  string    `json:"hostName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Encode packs the reference into a URL-safe token.
func Encode(ref RoomRef) (string, error) {
	data, err := json.Marshal(ref)
	if err != nil {
		return "", fmt.Errorf("failed to encode room reference: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode unpacks a token. Any malformation yields models.ErrInvalidRoomToken;
// a bad link must never crash the caller.
func Decode(token string) (RoomRef, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return RoomRef{}, models.ErrInvalidRoomToken
	}
	var ref RoomRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return RoomRef{}, models.ErrInvalidRoomToken
	}
	if ref.ID == "" {
		return RoomRef{}, models.ErrInvalidRoomToken
	}
	return ref, nil
}
