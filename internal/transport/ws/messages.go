package ws

import (
	"encoding/json"
	"errors"
	"time"

	"mirrorwars/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgCreateRoom    MessageType = "createRoom"
	MsgJoinRoom      MessageType = "joinRoom"
	MsgStartGame     MessageType = "startGame"
	MsgSubmitPattern MessageType = "submitPattern"
	MsgSubmitVote    MessageType = "submitVote"
	MsgPlayAgain     MessageType = "playAgain"
	MsgLeaveRoom     MessageType = "leaveRoom"
	MsgGetState      MessageType = "getState"
	MsgPing          MessageType = "ping"
)

// Server → Client message types. Room events use domain.EventType.
const (
	MsgConnected MessageType = "connected"
	MsgJoinError MessageType = "joinError"
	MsgGameError MessageType = "gameError"
	MsgGameState MessageType = "gameState"
	MsgLeftRoom  MessageType = "leftRoom"
	MsgPong      MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// CreateRoomPayload is the payload for createRoom
type CreateRoomPayload struct {
	PlayerName string `json:"playerName"`
}

// JoinRoomPayload is the payload for joinRoom
type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

// SubmitPatternPayload is the payload for submitPattern
type SubmitPatternPayload struct {
	Pattern []int `json:"pattern"`
}

// SubmitVotePayload is the payload for submitVote
type SubmitVotePayload struct {
	TargetID string `json:"targetId"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}

// LeftRoomPayload confirms the player is back outside any room. The
// connection gets a fresh player ID for its next room.
type LeftRoomPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

// ErrorPayload is the payload for error messages
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage      = "INVALID_MESSAGE"
	ErrCodeInvalidName         = "INVALID_NAME"
	ErrCodeInvalidRoomCode     = "INVALID_ROOM_CODE"
	ErrCodeRoomNotFound        = "ROOM_NOT_FOUND"
	ErrCodeRoomFull            = "ROOM_FULL"
	ErrCodeGameInProgress      = "GAME_IN_PROGRESS"
	ErrCodeDuplicateName       = "DUPLICATE_NAME"
	ErrCodeAlreadyInRoom       = "ALREADY_IN_ROOM"
	ErrCodeNotInRoom           = "NOT_IN_ROOM"
	ErrCodeEliminated          = "ELIMINATED"
	ErrCodeNotHost             = "NOT_HOST"
	ErrCodeInvalidPhase        = "INVALID_PHASE"
	ErrCodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	ErrCodeInvalidPattern      = "INVALID_PATTERN"
	ErrCodeInvalidTarget       = "INVALID_TARGET"
	ErrCodeCannotVoteSelf      = "CANNOT_VOTE_SELF"
	ErrCodeCapacity            = "CAPACITY"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// errorCode maps a domain error to the code sent to the client
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrRoomNotFound):
		return ErrCodeRoomNotFound
	case errors.Is(err, domain.ErrGameInProgress):
		return ErrCodeGameInProgress
	case errors.Is(err, domain.ErrInvalidPattern):
		return ErrCodeInvalidPattern
	case errors.Is(err, domain.ErrCannotVoteSelf):
		return ErrCodeCannotVoteSelf
	case errors.Is(err, domain.ErrUnknownTarget):
		return ErrCodeInvalidTarget
	case errors.Is(err, domain.ErrPlayerEliminated):
		return ErrCodeEliminated
	}

	switch domain.KindOf(err) {
	case domain.KindForbidden:
		return ErrCodeNotHost
	case domain.KindInvalidPhase:
		return ErrCodeInvalidPhase
	case domain.KindInsufficientPlayers:
		return ErrCodeInsufficientPlayers
	case domain.KindRoomFull:
		return ErrCodeRoomFull
	case domain.KindDuplicateName:
		return ErrCodeDuplicateName
	case domain.KindCapacity:
		return ErrCodeCapacity
	case domain.KindNotFound:
		return ErrCodeNotInRoom
	case domain.KindInvalidInput:
		return ErrCodeInvalidMessage
	default:
		return ErrCodeInternalError
	}
}

// errorMessage is the human readable text for a domain error
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, domain.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, domain.ErrGameInProgress):
		return "Game already in progress"
	case errors.Is(err, domain.ErrDuplicateName):
		return "Name already taken in this room"
	case errors.Is(err, domain.ErrNotHost):
		return "Only the host can do that"
	case errors.Is(err, domain.ErrCapacity):
		return "No rooms available, try again later"
	case domain.KindOf(err) == domain.KindInternal:
		return "Internal server error"
	default:
		return err.Error()
	}
}
