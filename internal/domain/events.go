package domain

import "time"

// EventType represents the type of room event
type EventType string

const (
	EventRoomCreated      EventType = "roomCreated"
	EventJoinSuccess      EventType = "joinSuccess"
	EventPlayerJoined     EventType = "playerJoined"
	EventPlayerLeft       EventType = "playerLeft"
	EventRoleAssigned     EventType = "roleAssigned"
	EventPatternPhase     EventType = "patternPhase"
	EventPatternSubmitted EventType = "patternSubmitted"
	EventPatternsComplete EventType = "patternsComplete"
	EventVoteSubmitted    EventType = "voteSubmitted"
	EventVotingComplete   EventType = "votingComplete"
	EventNextRound        EventType = "nextRound"
	EventGameEnded        EventType = "gameEnded"
	EventReturnedToLobby  EventType = "returnedToLobby"
)

// GameEvent represents an event that occurred in a room
type GameEvent struct {
	Type      EventType   `json:"type"`
	RoomCode  string      `json:"roomCode"`
	PlayerID  string      `json:"playerId,omitempty"` // If event is player-specific
	ExcludeID string      `json:"-"`                  // Broadcast to everyone but this player
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new room-wide event
func NewEvent(eventType EventType, roomCode string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		RoomCode:  roomCode,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates a new player-specific event
func NewPlayerEvent(eventType EventType, roomCode, playerID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		RoomCode:  roomCode,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Except returns the event addressed to everyone but playerID
func (e *GameEvent) Except(playerID string) *GameEvent {
	e.ExcludeID = playerID
	return e
}

// Payload types for different events

// RoomJoinedPayload is sent to a player that created or joined a room
type RoomJoinedPayload struct {
	RoomCode string       `json:"roomCode"`
	PlayerID string       `json:"playerId"`
	IsHost   bool         `json:"isHost"`
	Players  []PlayerView `json:"players"`
}

// RosterPayload is sent when the roster changes
type RosterPayload struct {
	PlayerID string       `json:"playerId,omitempty"`
	Players  []PlayerView `json:"players"`
	HostID   string       `json:"hostId"`
	CanStart bool         `json:"canStart"`
}

// RoleAssignedPayload is sent to each player with their own role only
type RoleAssignedPayload struct {
	Role    Role         `json:"role"`
	Round   int          `json:"round"`
	Players []PlayerView `json:"players"`
}

// PatternPhasePayload is sent when pattern submission opens. Deadline is
// omitted when the countdown is display-only.
type PatternPhasePayload struct {
	Round    int          `json:"round"`
	Seconds  int          `json:"seconds"`
	Deadline *time.Time   `json:"deadline,omitempty"`
	GridSize int          `json:"gridSize"`
	Players  []PlayerView `json:"players"`
}

// ProgressPayload is sent when a pattern or vote comes in without completing
// the phase
type ProgressPayload struct {
	PlayerID  string `json:"playerId,omitempty"`
	Submitted int    `json:"submitted"`
	Total     int    `json:"total"`
}

// PatternsCompletePayload reveals every active player's pattern
type PatternsCompletePayload struct {
	Players []PlayerView `json:"players"`
	Forced  []string     `json:"forced,omitempty"`
}

// VotingCompletePayload is sent when a voting phase resolves
type VotingCompletePayload struct {
	Round            int               `json:"round"`
	EliminatedPlayer PlayerView        `json:"eliminatedPlayer"`
	Votes            map[string]string `json:"votes"`
	Tally            map[string]int    `json:"tally"`
	Tied             []string          `json:"tied,omitempty"`
	Players          []PlayerView      `json:"players"`
	WinResult        *WinResult        `json:"winResult"`
}

// NextRoundPayload is sent when the results delay is over
type NextRoundPayload struct {
	RoundNumber int          `json:"roundNumber"`
	Players     []PlayerView `json:"players"`
}

// GameEndedPayload is sent when departures decide the game
type GameEndedPayload struct {
	WinResult *WinResult   `json:"winResult"`
	Players   []PlayerView `json:"players"`
}

// GameStatePayload is a snapshot for a single player
type GameStatePayload struct {
	RoomCode string       `json:"roomCode"`
	Phase    Phase        `json:"phase"`
	Round    int          `json:"round"`
	HostID   string       `json:"hostId"`
	Role     Role         `json:"role,omitempty"`
	Players  []PlayerView `json:"players"`
	Progress *Progress    `json:"progress,omitempty"`
	CanStart bool         `json:"canStart"`
}
