package domain

// Phase represents the current phase of a room
type Phase string

const (
	PhaseLobby      Phase = "lobby"      // Waiting for players to join
	PhaseRoleReveal Phase = "roleReveal" // Showing roles, advances on a timer
	PhasePattern    Phase = "pattern"    // Every active player taps a pattern
	PhaseVoting     Phase = "voting"     // Every active player votes someone out
	PhaseResults    Phase = "results"    // Showing the elimination before the next round
	PhaseEnded      Phase = "ended"      // A side has won
)

var validTransitions = map[Phase][]Phase{
	PhaseLobby:      {PhaseRoleReveal},
	PhaseRoleReveal: {PhasePattern, PhaseEnded},
	PhasePattern:    {PhaseVoting, PhaseEnded},
	PhaseVoting:     {PhaseResults, PhaseEnded},
	PhaseResults:    {PhasePattern, PhaseEnded},
	PhaseEnded:      {PhaseLobby},
}

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// InGame reports whether roles have been dealt and no side has won yet
func (p Phase) InGame() bool {
	switch p {
	case PhaseRoleReveal, PhasePattern, PhaseVoting, PhaseResults:
		return true
	}
	return false
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
