package domain

// Ballot is one vote cast by a player
type Ballot struct {
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

// VoteOutcome is the tally of a voting phase
type VoteOutcome struct {
	EliminatedID string         `json:"eliminatedId"`
	Counts       map[string]int `json:"counts"`
	Tied         []string       `json:"tied,omitempty"`
	MaxVotes     int            `json:"maxVotes"`
}

// ResolveVotes tallies ballots and picks the most voted target. Targets are
// scanned in order of first appearance; a tie at the top is broken uniformly
// at random.
func ResolveVotes(ballots []Ballot, rnd Rand) (*VoteOutcome, error) {
	if len(ballots) == 0 {
		return nil, ErrNoVotes
	}

	counts := make(map[string]int)
	order := make([]string, 0, len(ballots))
	for _, b := range ballots {
		if _, seen := counts[b.TargetID]; !seen {
			order = append(order, b.TargetID)
		}
		counts[b.TargetID]++
	}

	maxVotes := 0
	var leaders []string
	for _, id := range order {
		count := counts[id]
		if count > maxVotes {
			maxVotes = count
			leaders = []string{id}
		} else if count == maxVotes {
			leaders = append(leaders, id)
		}
	}

	outcome := &VoteOutcome{
		EliminatedID: leaders[0],
		Counts:       counts,
		MaxVotes:     maxVotes,
	}
	if len(leaders) > 1 {
		outcome.Tied = leaders
		outcome.EliminatedID = leaders[rnd.IntN(len(leaders))]
	}

	return outcome, nil
}
