package entity

import "time"

// GameSession - the externally persisted win/loss/draw aggregate for a room.
// Player1 is always the X slot. The aggregate outlives the in-memory room.
type GameSession struct {
	ID          string    `json:"id"`
	Player1Name string    `json:"player1Name"`
	Player2Name string    `json:"player2Name"`
	Player1ID   string    `json:"player1Id,omitempty"`
	Player2ID   string    `json:"player2Id,omitempty"`
	Player1Wins int       `json:"player1Wins"`
	Player2Wins int       `json:"player2Wins"`
	Draws       int       `json:"draws"`
	TotalRounds int       `json:"totalRounds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecordRound - applies one concluded round to the counters.
// result is a winning symbol or ResultDraw.
func (that *GameSession) RecordRound(result string) {
	switch result {
	case SymbolX:
		that.Player1Wins++
	case SymbolO:
		that.Player2Wins++
	case ResultDraw:
		that.Draws++
	}

	that.TotalRounds++
	that.UpdatedAt = time.Now()
}
