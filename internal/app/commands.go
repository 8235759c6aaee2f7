package app

import "mirrorwars/internal/domain"

// Command is a single inbound request applied atomically to one room
type Command interface {
	command()
}

// Join adds a player to the room lobby and registers their connection
type Join struct {
	PlayerID string
	Name     string
	Conn     ClientConnection
}

// StartGame deals roles and starts the role reveal (host only)
type StartGame struct {
	PlayerID string
}

// SubmitPattern records the player's pattern for the current round
type SubmitPattern struct {
	PlayerID string
	Pattern  domain.Pattern
}

// SubmitVote records the player's vote for the current round
type SubmitVote struct {
	PlayerID string
	TargetID string
}

// PlayAgain returns an ended game to the lobby (host only)
type PlayAgain struct {
	PlayerID string
}

// Leave removes the player, whether they asked to or their connection closed
type Leave struct {
	PlayerID string
}

func (Join) command()          {}
func (StartGame) command()     {}
func (SubmitPattern) command() {}
func (SubmitVote) command()    {}
func (PlayAgain) command()     {}
func (Leave) command()         {}
