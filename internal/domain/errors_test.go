package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrRoomNotFound, KindNotFound},
		{ErrPlayerNotFound, KindNotFound},
		{ErrUnknownTarget, KindNotFound},
		{ErrNotHost, KindForbidden},
		{ErrInvalidPhase, KindInvalidPhase},
		{ErrAlreadyStarted, KindInvalidPhase},
		{ErrGameInProgress, KindInvalidPhase},
		{ErrInsufficientPlayers, KindInsufficientPlayers},
		{ErrRoomFull, KindRoomFull},
		{ErrDuplicateName, KindDuplicateName},
		{ErrCapacity, KindCapacity},
		{ErrCannotVoteSelf, KindInvalidInput},
		{fmt.Errorf("allocate room code: %w", ErrCapacity), KindCapacity},
		{fmt.Errorf("%w: empty", ErrInvalidPattern), KindInvalidInput},
		{errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), tt.err.Error())
	}
}
