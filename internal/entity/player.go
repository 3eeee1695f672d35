package entity

import "strings"

const maxPlayerNameLength = 50

// Player - a participant bound to a room through a live connection.
// ID is connection-scoped and is not stable across reconnects.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	UserID string `json:"userId,omitempty"`
}

func NewPlayer(connID, name, userID string) *Player {
	return &Player{
		ID:     connID,
		Name:   SanitizePlayerName(name),
		UserID: userID,
	}
}

// SanitizePlayerName - trims the display name and caps it at 50 characters.
func SanitizePlayerName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > maxPlayerNameLength {
		name = name[:maxPlayerNameLength]
	}
	return name
}
