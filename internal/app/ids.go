package app

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

const (
	// RoomCodeMin and RoomCodeMax bound the numeric room code space
	RoomCodeMin = 1000
	RoomCodeMax = 9999
)

var roomCodeSpan = big.NewInt(RoomCodeMax - RoomCodeMin + 1)

// NewRoomCode returns a 4-digit room code drawn uniformly from
// [RoomCodeMin, RoomCodeMax]. Callers check it against the live rooms.
func NewRoomCode() string {
	n, err := rand.Int(rand.Reader, roomCodeSpan)
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return strconv.FormatInt(n.Int64()+RoomCodeMin, 10)
}

// NewParticipantID returns a connection-scoped participant identifier
func NewParticipantID() string {
	return uuid.NewString()
}
