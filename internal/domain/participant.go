package domain

import "time"

// Participant represents a connected player in a room
type Participant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role,omitempty"`
	Eliminated bool      `json:"eliminated"`
	IsHost     bool      `json:"isHost"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// NewParticipant creates a new participant with the given ID and name
func NewParticipant(id, name string) *Participant {
	return &Participant{
		ID:       id,
		Name:     name,
		JoinedAt: time.Now(),
	}
}

// IsActive returns true while the participant has not been voted out
func (p *Participant) IsActive() bool {
	return !p.Eliminated
}

// ResetForNewGame clears everything a finished game left behind
func (p *Participant) ResetForNewGame() {
	p.Role = ""
	p.Eliminated = false
}

// Reveal controls which roles a roster view discloses
type Reveal int

const (
	RevealNone Reveal = iota
	RevealEliminated
	RevealAll
)

// PlayerView is the shape of a participant sent to clients
type PlayerView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	IsHost     bool     `json:"isHost"`
	Eliminated bool     `json:"eliminated"`
	Role       Role     `json:"role,omitempty"`
	Pattern    Pattern  `json:"pattern,omitempty"`
	Suspicion  *float64 `json:"suspicion,omitempty"`
}

// ToView converts a Participant to a PlayerView, disclosing the role per reveal
func (p *Participant) ToView(reveal Reveal) PlayerView {
	v := PlayerView{
		ID:         p.ID,
		Name:       p.Name,
		IsHost:     p.IsHost,
		Eliminated: p.Eliminated,
	}
	switch reveal {
	case RevealAll:
		v.Role = p.Role
	case RevealEliminated:
		if p.Eliminated {
			v.Role = p.Role
		}
	}
	return v
}
