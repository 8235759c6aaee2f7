package domain

import "time"

const (
	// RoomCapacity is the most participants a room can seat
	RoomCapacity = 8

	// MaxGridSize bounds the pattern grid edge
	MaxGridSize = 16
)

// GameSettings holds configurable game parameters
type GameSettings struct {
	MinPlayers             int           `json:"minPlayers"`
	MaxPlayers             int           `json:"maxPlayers"`
	MirrorRatio            float64       `json:"mirrorRatio"`
	GridSize               int           `json:"gridSize"`
	RoleRevealDelay        time.Duration `json:"roleRevealDelay"`
	ResultsDelay           time.Duration `json:"resultsDelay"`
	PatternDuration        time.Duration `json:"patternDuration"`
	EnforcePatternDeadline bool          `json:"enforcePatternDeadline"`
}

// DefaultGameSettings returns the default game settings
func DefaultGameSettings() GameSettings {
	return GameSettings{
		MinPlayers:             3,
		MaxPlayers:             RoomCapacity,
		MirrorRatio:            0.3,
		GridSize:               4,
		RoleRevealDelay:        5 * time.Second,
		ResultsDelay:           5 * time.Second,
		PatternDuration:        60 * time.Second,
		EnforcePatternDeadline: true,
	}
}

// GridCells is the number of tappable cells on the pattern grid
func (s GameSettings) GridCells() int {
	return s.GridSize * s.GridSize
}
