package domain

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRoom seats players p1..pN. With firstRand the last player in
// roster order is the mirror once four or more play.
func newTestRoom(t *testing.T, n int) *Room {
	t.Helper()
	room := NewRoom("1234", DefaultGameSettings())
	room.UseRand(firstRand{})
	for i := 1; i <= n; i++ {
		_, err := room.AddParticipant(fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i))
		require.NoError(t, err)
	}
	return room
}

func startedRoom(t *testing.T, n int) *Room {
	t.Helper()
	room := newTestRoom(t, n)
	require.NoError(t, room.Start("p1"))
	require.NoError(t, room.BeginPatternPhase())
	return room
}

func submitAllPatterns(t *testing.T, room *Room) {
	t.Helper()
	for i, id := range room.ActiveIDs() {
		require.NoError(t, room.SubmitPattern(id, Pattern{i, i + 1}))
	}
	require.True(t, room.PatternProgress().Complete)
	require.NoError(t, room.BeginVoting())
}

func TestAddParticipant(t *testing.T) {
	room := NewRoom("1234", DefaultGameSettings())

	alice, err := room.AddParticipant("a", "Alice")
	require.NoError(t, err)
	assert.True(t, alice.IsHost)
	assert.Equal(t, "a", room.HostID)

	bob, err := room.AddParticipant("b", "Bob")
	require.NoError(t, err)
	assert.False(t, bob.IsHost)

	_, err = room.AddParticipant("c", " alice ")
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = room.AddParticipant("a", "Another")
	assert.ErrorIs(t, err, ErrDuplicateParticipant)

	assert.Equal(t, 2, room.PlayerCount())
}

func TestAddParticipantRoomFull(t *testing.T) {
	room := newTestRoom(t, 8)
	assert.False(t, room.CanJoin())

	_, err := room.AddParticipant("p9", "Player 9")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 8, room.PlayerCount())
}

func TestAddParticipantGameInProgress(t *testing.T) {
	room := newTestRoom(t, 3)
	require.NoError(t, room.Start("p1"))

	_, err := room.AddParticipant("late", "Latecomer")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestStart(t *testing.T) {
	room := newTestRoom(t, 2)
	assert.False(t, room.CanStart())
	assert.ErrorIs(t, room.Start("p1"), ErrInsufficientPlayers)
	assert.Equal(t, PhaseLobby, room.Phase)

	_, err := room.AddParticipant("p3", "Player 3")
	require.NoError(t, err)
	_, err = room.AddParticipant("p4", "Player 4")
	require.NoError(t, err)

	assert.ErrorIs(t, room.Start("p2"), ErrNotHost)
	assert.Equal(t, PhaseLobby, room.Phase)

	require.NoError(t, room.Start("p1"))
	assert.Equal(t, PhaseRoleReveal, room.Phase)
	assert.Equal(t, 1, room.Round)

	mirrors := 0
	for _, p := range room.Participants() {
		require.NotEmpty(t, p.Role)
		if p.Role.IsMirror() {
			mirrors++
		}
	}
	assert.Equal(t, 1, mirrors)

	p4, err := room.GetParticipant("p4")
	require.NoError(t, err)
	assert.Equal(t, RoleMirror, p4.Role)

	assert.ErrorIs(t, room.Start("p1"), ErrAlreadyStarted)
}

func TestStartChecksRosterBeforePhase(t *testing.T) {
	room := startedRoom(t, 4)

	_, ok := room.RemoveParticipant("p2")
	require.True(t, ok)
	_, ok = room.RemoveParticipant("p3")
	require.True(t, ok)

	assert.ErrorIs(t, room.Start("p1"), ErrInsufficientPlayers)
	assert.Equal(t, PhasePattern, room.Phase)
}

func TestPatternQuorum(t *testing.T) {
	room := newTestRoom(t, 4)
	require.NoError(t, room.Start("p1"))

	assert.ErrorIs(t, room.SubmitPattern("p1", Pattern{1}), ErrInvalidPhase)

	require.NoError(t, room.BeginPatternPhase())

	require.NoError(t, room.SubmitPattern("p1", Pattern{0, 1}))
	require.NoError(t, room.SubmitPattern("p2", Pattern{2}))
	require.NoError(t, room.SubmitPattern("p3", Pattern{3, 4, 5}))

	progress := room.PatternProgress()
	assert.Equal(t, 3, progress.Submitted)
	assert.Equal(t, 4, progress.Total)
	assert.False(t, progress.Complete)

	// Resubmitting overwrites and does not count twice
	require.NoError(t, room.SubmitPattern("p1", Pattern{7}))
	assert.Equal(t, 3, room.PatternProgress().Submitted)
	stored, ok := room.Pattern("p1")
	require.True(t, ok)
	assert.Equal(t, Pattern{7}, stored)

	assert.ErrorIs(t, room.SubmitPattern("nobody", Pattern{1}), ErrPlayerNotFound)
	assert.ErrorIs(t, room.SubmitPattern("p4", Pattern{99}), ErrInvalidPattern)
	assert.False(t, room.PatternProgress().Complete)

	require.NoError(t, room.SubmitPattern("p4", Pattern{8}))
	assert.True(t, room.PatternProgress().Complete)

	// Submitting is recording only; the caller opens voting
	assert.Equal(t, PhasePattern, room.Phase)
	require.NoError(t, room.BeginVoting())
	assert.Equal(t, PhaseVoting, room.Phase)
	assert.ErrorIs(t, room.SubmitPattern("p1", Pattern{1}), ErrInvalidPhase)
}

func TestSubmittedPatternIsCopied(t *testing.T) {
	room := startedRoom(t, 3)

	p := Pattern{1, 2}
	require.NoError(t, room.SubmitPattern("p1", p))
	p[0] = 9

	stored, _ := room.Pattern("p1")
	assert.Equal(t, Pattern{1, 2}, stored)
}

func TestForceSubmitMissing(t *testing.T) {
	room := startedRoom(t, 4)
	require.NoError(t, room.SubmitPattern("p2", Pattern{1}))

	forced := room.ForceSubmitMissing()
	assert.Equal(t, []string{"p1", "p3", "p4"}, forced)
	assert.True(t, room.PatternProgress().Complete)

	stored, ok := room.Pattern("p1")
	require.True(t, ok)
	assert.Empty(t, stored)

	kept, _ := room.Pattern("p2")
	assert.Equal(t, Pattern{1}, kept)

	require.NoError(t, room.BeginVoting())
	assert.Nil(t, room.ForceSubmitMissing())
}

func TestSubmitVote(t *testing.T) {
	room := startedRoom(t, 4)
	assert.ErrorIs(t, room.SubmitVote("p1", "p2"), ErrInvalidPhase)

	submitAllPatterns(t, room)

	assert.ErrorIs(t, room.SubmitVote("p1", "p1"), ErrCannotVoteSelf)
	assert.ErrorIs(t, room.SubmitVote("p1", "ghost"), ErrUnknownTarget)
	assert.ErrorIs(t, room.SubmitVote("ghost", "p1"), ErrPlayerNotFound)

	require.NoError(t, room.SubmitVote("p1", "p2"))
	require.NoError(t, room.SubmitVote("p1", "p3"))

	progress := room.VoteProgress()
	assert.Equal(t, 1, progress.Submitted)
	assert.Equal(t, 4, progress.Total)
	assert.Equal(t, []Ballot{{VoterID: "p1", TargetID: "p3"}}, room.Ballots())
}

func TestResolveRoundOriginalsWin(t *testing.T) {
	room := startedRoom(t, 4)
	submitAllPatterns(t, room)

	require.NoError(t, room.SubmitVote("p1", "p4"))
	require.NoError(t, room.SubmitVote("p2", "p4"))
	require.NoError(t, room.SubmitVote("p3", "p4"))
	require.NoError(t, room.SubmitVote("p4", "p1"))
	require.True(t, room.VoteProgress().Complete)

	result, err := room.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, "p4", result.Eliminated.ID)
	assert.True(t, result.Eliminated.Eliminated)
	assert.Equal(t, 3, result.Outcome.Counts["p4"])
	assert.Equal(t, "p1", result.Votes["p4"])
	require.NotNil(t, result.Win)
	assert.Equal(t, TeamOriginals, result.Win.Winner)

	assert.Equal(t, PhaseEnded, room.Phase)
	assert.Equal(t, 1, room.Round)
	assert.ErrorIs(t, room.SubmitPattern("p1", Pattern{1}), ErrInvalidPhase)
	assert.ErrorIs(t, room.SubmitVote("p1", "p2"), ErrInvalidPhase)
}

func TestResolveRoundContinues(t *testing.T) {
	room := startedRoom(t, 4)
	submitAllPatterns(t, room)

	require.NoError(t, room.SubmitVote("p1", "p2"))
	require.NoError(t, room.SubmitVote("p2", "p1"))
	require.NoError(t, room.SubmitVote("p3", "p2"))
	require.NoError(t, room.SubmitVote("p4", "p2"))

	result, err := room.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, "p2", result.Eliminated.ID)
	assert.Nil(t, result.Win)

	assert.Equal(t, PhaseResults, room.Phase)
	assert.Equal(t, 2, room.Round)
	assert.Equal(t, []string{"p1", "p3", "p4"}, room.ActiveIDs())
	assert.Empty(t, room.Ballots())
	_, ok := room.Pattern("p2")
	assert.False(t, ok)

	// Next round: the eliminated player is out of every table
	require.NoError(t, room.BeginPatternPhase())
	assert.Equal(t, 3, room.PatternProgress().Total)
	assert.ErrorIs(t, room.SubmitPattern("p2", Pattern{1}), ErrPlayerEliminated)

	submitAllPatterns(t, room)
	assert.ErrorIs(t, room.SubmitVote("p1", "p2"), ErrUnknownTarget)
	assert.ErrorIs(t, room.SubmitVote("p2", "p1"), ErrPlayerEliminated)
}

func TestResolveRoundWithoutVotes(t *testing.T) {
	room := startedRoom(t, 3)
	submitAllPatterns(t, room)

	_, err := room.ResolveRound()
	assert.ErrorIs(t, err, ErrNoVotes)
	assert.Equal(t, PhaseVoting, room.Phase)
}

func TestRemoveParticipantHostFailover(t *testing.T) {
	room := newTestRoom(t, 3)

	dep, ok := room.RemoveParticipant("p1")
	require.True(t, ok)
	assert.True(t, dep.WasHost)
	assert.Equal(t, "p2", dep.NewHostID)
	assert.False(t, dep.Empty)
	assert.Equal(t, "p2", room.HostID)

	want := []PlayerView{
		{ID: "p2", Name: "Player 2", IsHost: true},
		{ID: "p3", Name: "Player 3"},
	}
	if diff := cmp.Diff(want, room.Roster(RevealNone)); diff != "" {
		t.Errorf("roster mismatch (-want +got):\n%s", diff)
	}

	dep, ok = room.RemoveParticipant("p3")
	require.True(t, ok)
	assert.False(t, dep.WasHost)
	assert.Empty(t, dep.NewHostID)

	dep, ok = room.RemoveParticipant("p2")
	require.True(t, ok)
	assert.True(t, dep.Empty)
	assert.Empty(t, room.HostID)

	_, ok = room.RemoveParticipant("p2")
	assert.False(t, ok)
}

func TestRemoveParticipantPurgesRoundTables(t *testing.T) {
	room := startedRoom(t, 5)
	submitAllPatterns(t, room)

	require.NoError(t, room.SubmitVote("p1", "p3"))
	require.NoError(t, room.SubmitVote("p2", "p3"))
	require.NoError(t, room.SubmitVote("p3", "p1"))

	_, ok := room.RemoveParticipant("p3")
	require.True(t, ok)

	// p3's own vote and the votes aimed at p3 are gone
	assert.Empty(t, room.Ballots())
	progress := room.VoteProgress()
	assert.Equal(t, 0, progress.Submitted)
	assert.Equal(t, 4, progress.Total)
}

func TestEndIfDecided(t *testing.T) {
	room := startedRoom(t, 4)
	assert.Nil(t, room.EndIfDecided())

	// p4 holds the only mirror role
	_, ok := room.RemoveParticipant("p4")
	require.True(t, ok)

	win := room.EndIfDecided()
	require.NotNil(t, win)
	assert.Equal(t, TeamOriginals, win.Winner)
	assert.Equal(t, PhaseEnded, room.Phase)

	// Nothing to decide outside a running game
	assert.Nil(t, room.EndIfDecided())
}

func TestPlayAgain(t *testing.T) {
	room := startedRoom(t, 4)
	assert.ErrorIs(t, room.PlayAgain("p1"), ErrInvalidPhase)

	submitAllPatterns(t, room)
	for _, voter := range []string{"p1", "p2", "p3"} {
		require.NoError(t, room.SubmitVote(voter, "p4"))
	}
	require.NoError(t, room.SubmitVote("p4", "p1"))
	_, err := room.ResolveRound()
	require.NoError(t, err)
	require.Equal(t, PhaseEnded, room.Phase)

	assert.ErrorIs(t, room.PlayAgain("p2"), ErrNotHost)

	require.NoError(t, room.PlayAgain("p1"))
	assert.Equal(t, PhaseLobby, room.Phase)
	assert.Equal(t, 0, room.Round)
	assert.Equal(t, 4, room.PlayerCount())
	for _, p := range room.Participants() {
		assert.Empty(t, p.Role)
		assert.False(t, p.Eliminated)
	}

	require.NoError(t, room.Start("p1"))
	assert.Equal(t, 1, room.Round)
}

func TestRosterReveal(t *testing.T) {
	room := startedRoom(t, 4)
	p2, err := room.GetParticipant("p2")
	require.NoError(t, err)
	p2.Eliminated = true

	for _, v := range room.Roster(RevealNone) {
		assert.Empty(t, v.Role, v.ID)
	}

	for _, v := range room.Roster(RevealEliminated) {
		if v.ID == "p2" {
			assert.Equal(t, RoleOriginal, v.Role)
		} else {
			assert.Empty(t, v.Role, v.ID)
		}
	}

	for _, v := range room.Roster(RevealAll) {
		assert.NotEmpty(t, v.Role, v.ID)
	}

	assert.Len(t, room.ActiveRoster(RevealNone), 3)
}

func TestPatternRoster(t *testing.T) {
	room := startedRoom(t, 3)
	require.NoError(t, room.SubmitPattern("p1", Pattern{0, 1, 2, 3}))
	require.NoError(t, room.SubmitPattern("p2", Pattern{0, 1, 2, 3}))
	require.NoError(t, room.SubmitPattern("p3", Pattern{12, 13, 14, 15}))

	views := room.PatternRoster()
	require.Len(t, views, 3)

	assert.Equal(t, Pattern{0, 1, 2, 3}, views[0].Pattern)
	require.NotNil(t, views[0].Suspicion)
	assert.InDelta(t, 0.5, *views[0].Suspicion, 1e-9)
	require.NotNil(t, views[2].Suspicion)
	assert.InDelta(t, 0.0, *views[2].Suspicion, 1e-9)
	assert.Empty(t, views[0].Role)
}
