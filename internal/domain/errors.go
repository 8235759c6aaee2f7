package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrGameInProgress       = errors.New("game already in progress")
	ErrAlreadyStarted       = errors.New("game already started")
	ErrInsufficientPlayers  = errors.New("not enough players to start")
	ErrDuplicateName        = errors.New("a player with that name already exists")
	ErrDuplicateParticipant = errors.New("player already in room")
	ErrCapacity             = errors.New("no free room codes")
	ErrInvalidPhase         = errors.New("invalid action for current phase")
	ErrInvalidTransition    = errors.New("invalid phase transition")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrPlayerEliminated     = errors.New("player has been eliminated")
	ErrNotHost              = errors.New("only host can perform this action")
	ErrUnknownTarget        = errors.New("invalid vote target")
	ErrCannotVoteSelf       = errors.New("cannot vote for yourself")
	ErrInvalidPattern       = errors.New("invalid pattern")
	ErrNoVotes              = errors.New("no votes to resolve")
)

// Kind groups errors the way they are reported back to a client
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindForbidden           Kind = "FORBIDDEN"
	KindInvalidPhase        Kind = "INVALID_PHASE"
	KindInsufficientPlayers Kind = "INSUFFICIENT_PLAYERS"
	KindRoomFull            Kind = "ROOM_FULL"
	KindDuplicateName       Kind = "DUPLICATE_NAME"
	KindCapacity            Kind = "CAPACITY"
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindInternal            Kind = "INTERNAL"
)

// KindOf classifies err. Wrapped errors are unwrapped with errors.Is.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrPlayerNotFound),
		errors.Is(err, ErrPlayerEliminated),
		errors.Is(err, ErrUnknownTarget):
		return KindNotFound
	case errors.Is(err, ErrNotHost):
		return KindForbidden
	case errors.Is(err, ErrInvalidPhase),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrGameInProgress):
		return KindInvalidPhase
	case errors.Is(err, ErrInsufficientPlayers):
		return KindInsufficientPlayers
	case errors.Is(err, ErrRoomFull):
		return KindRoomFull
	case errors.Is(err, ErrDuplicateName):
		return KindDuplicateName
	case errors.Is(err, ErrCapacity):
		return KindCapacity
	case errors.Is(err, ErrInvalidPattern),
		errors.Is(err, ErrCannotVoteSelf),
		errors.Is(err, ErrDuplicateParticipant):
		return KindInvalidInput
	default:
		return KindInternal
	}
}
