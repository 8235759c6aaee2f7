package domain

import (
	"strings"
	"time"
)

// Room is one game instance: roster, phase, round counter and the
// submissions of the current round. It is not safe for concurrent use; the
// owning session serializes access.
type Room struct {
	Code      string       `json:"code"`
	Phase     Phase        `json:"phase"`
	Round     int          `json:"round"`
	HostID    string       `json:"hostId"`
	Settings  GameSettings `json:"settings"`
	CreatedAt time.Time    `json:"createdAt"`

	order    []string
	players  map[string]*Participant
	patterns map[string]Pattern
	votes    map[string]string
	rnd      Rand
}

// Progress is the submission count of the current phase
type Progress struct {
	Submitted int  `json:"submitted"`
	Total     int  `json:"total"`
	Complete  bool `json:"-"`
}

// Departure describes what removing a participant did to the room
type Departure struct {
	Participant *Participant
	WasHost     bool
	NewHostID   string
	Empty       bool
}

// RoundResult is the outcome of a resolved voting phase
type RoundResult struct {
	Round      int               `json:"round"`
	Eliminated *Participant      `json:"eliminated"`
	Votes      map[string]string `json:"votes"`
	Outcome    *VoteOutcome      `json:"outcome"`
	Win        *WinResult        `json:"win,omitempty"`
}

// NewRoom creates an empty room in the lobby. The first participant added
// becomes host.
func NewRoom(code string, settings GameSettings) *Room {
	return &Room{
		Code:      code,
		Phase:     PhaseLobby,
		Settings:  settings,
		CreatedAt: time.Now(),
		players:   make(map[string]*Participant),
		patterns:  make(map[string]Pattern),
		votes:     make(map[string]string),
		rnd:       DefaultRand,
	}
}

// UseRand replaces the random source used for roles and tie breaks
func (r *Room) UseRand(rnd Rand) {
	r.rnd = rnd
}

// AddParticipant adds a player to the lobby
func (r *Room) AddParticipant(id, name string) (*Participant, error) {
	if r.Phase != PhaseLobby {
		return nil, ErrGameInProgress
	}

	if _, exists := r.players[id]; exists {
		return nil, ErrDuplicateParticipant
	}

	if len(r.players) >= r.Settings.MaxPlayers {
		return nil, ErrRoomFull
	}

	if r.nameTaken(name) {
		return nil, ErrDuplicateName
	}

	p := NewParticipant(id, name)
	r.players[id] = p
	r.order = append(r.order, id)

	// First player becomes the host
	if r.HostID == "" {
		r.HostID = id
		p.IsHost = true
	}

	return p, nil
}

func (r *Room) nameTaken(name string) bool {
	name = strings.TrimSpace(name)
	for _, p := range r.players {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return true
		}
	}
	return false
}

// RemoveParticipant drops a player from the roster and from every table of
// the current round. Votes aimed at the player are dropped too, so their
// voters have to vote again. If the host left, the first remaining player in
// roster order takes over.
func (r *Room) RemoveParticipant(id string) (Departure, bool) {
	p, ok := r.players[id]
	if !ok {
		return Departure{}, false
	}

	delete(r.players, id)
	delete(r.patterns, id)
	delete(r.votes, id)
	for voter, target := range r.votes {
		if target == id {
			delete(r.votes, voter)
		}
	}
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	dep := Departure{Participant: p, WasHost: r.HostID == id}

	if len(r.order) == 0 {
		r.HostID = ""
		dep.Empty = true
		return dep, true
	}

	if dep.WasHost {
		next := r.players[r.order[0]]
		next.IsHost = true
		r.HostID = next.ID
		dep.NewHostID = next.ID
	}

	return dep, true
}

// Start deals roles to the whole roster and moves to RoleReveal
func (r *Room) Start(byID string) error {
	if byID != r.HostID {
		return ErrNotHost
	}

	if len(r.order) < r.Settings.MinPlayers {
		return ErrInsufficientPlayers
	}

	if r.Phase != PhaseLobby {
		return ErrAlreadyStarted
	}

	roles := AssignRoles(len(r.order), r.Settings.MirrorRatio, r.rnd)
	for i, id := range r.order {
		p := r.players[id]
		p.ResetForNewGame()
		p.Role = roles[i]
	}

	clear(r.patterns)
	clear(r.votes)
	r.Round = 1

	return r.transition(PhaseRoleReveal)
}

// BeginPatternPhase opens pattern submission for the current round
func (r *Room) BeginPatternPhase() error {
	if err := r.transition(PhasePattern); err != nil {
		return err
	}
	clear(r.patterns)
	clear(r.votes)
	return nil
}

// SubmitPattern records a pattern for an active player. Resubmitting
// overwrites the earlier pattern.
func (r *Room) SubmitPattern(id string, pattern Pattern) error {
	if r.Phase != PhasePattern {
		return ErrInvalidPhase
	}

	if _, err := r.activeParticipant(id); err != nil {
		return err
	}

	if err := ValidatePattern(pattern, r.Settings.GridCells()); err != nil {
		return err
	}

	r.patterns[id] = pattern.Clone()
	return nil
}

// ForceSubmitMissing records an empty pattern for every active player that
// has not submitted and returns their ids.
func (r *Room) ForceSubmitMissing() []string {
	if r.Phase != PhasePattern {
		return nil
	}

	var forced []string
	for _, id := range r.ActiveIDs() {
		if _, ok := r.patterns[id]; !ok {
			r.patterns[id] = Pattern{}
			forced = append(forced, id)
		}
	}
	return forced
}

// PatternProgress counts pattern submissions against the active roster
func (r *Room) PatternProgress() Progress {
	active := r.ActiveIDs()
	submitted := 0
	for _, id := range active {
		if _, ok := r.patterns[id]; ok {
			submitted++
		}
	}
	return Progress{
		Submitted: submitted,
		Total:     len(active),
		Complete:  len(active) > 0 && submitted == len(active),
	}
}

// BeginVoting closes pattern submission and opens voting
func (r *Room) BeginVoting() error {
	if err := r.transition(PhaseVoting); err != nil {
		return err
	}
	clear(r.votes)
	return nil
}

// SubmitVote records a vote. Revoting overwrites the earlier vote.
func (r *Room) SubmitVote(voterID, targetID string) error {
	if r.Phase != PhaseVoting {
		return ErrInvalidPhase
	}

	if _, err := r.activeParticipant(voterID); err != nil {
		return err
	}

	target, ok := r.players[targetID]
	if !ok || !target.IsActive() {
		return ErrUnknownTarget
	}

	if voterID == targetID {
		return ErrCannotVoteSelf
	}

	r.votes[voterID] = targetID
	return nil
}

// VoteProgress counts votes against the active roster
func (r *Room) VoteProgress() Progress {
	active := r.ActiveIDs()
	submitted := 0
	for _, id := range active {
		if _, ok := r.votes[id]; ok {
			submitted++
		}
	}
	return Progress{
		Submitted: submitted,
		Total:     len(active),
		Complete:  len(active) > 0 && submitted == len(active),
	}
}

// ResolveRound tallies the votes, eliminates the most voted player and
// evaluates the win condition. Without a winner the round counter moves on
// and the room waits in Results.
func (r *Room) ResolveRound() (*RoundResult, error) {
	if r.Phase != PhaseVoting {
		return nil, ErrInvalidPhase
	}

	ballots := r.Ballots()
	outcome, err := ResolveVotes(ballots, r.rnd)
	if err != nil {
		return nil, err
	}

	eliminated, ok := r.players[outcome.EliminatedID]
	if !ok {
		return nil, ErrUnknownTarget
	}
	eliminated.Eliminated = true

	result := &RoundResult{
		Round:      r.Round,
		Eliminated: eliminated,
		Votes:      make(map[string]string, len(ballots)),
		Outcome:    outcome,
	}
	for _, b := range ballots {
		result.Votes[b.VoterID] = b.TargetID
	}

	clear(r.votes)
	delete(r.patterns, eliminated.ID)

	result.Win = EvaluateWin(r.Participants())
	if result.Win != nil {
		return result, r.transition(PhaseEnded)
	}

	r.Round++
	return result, r.transition(PhaseResults)
}

// EndIfDecided re-evaluates the win condition while a game is running, for
// use after the roster shrank. It returns the result if the game ended.
func (r *Room) EndIfDecided() *WinResult {
	if !r.Phase.InGame() {
		return nil
	}

	win := EvaluateWin(r.Participants())
	if win == nil {
		return nil
	}

	if err := r.transition(PhaseEnded); err != nil {
		return nil
	}
	return win
}

// PlayAgain returns an ended game to the lobby with the same roster
func (r *Room) PlayAgain(byID string) error {
	if byID != r.HostID {
		return ErrNotHost
	}

	if r.Phase != PhaseEnded {
		return ErrInvalidPhase
	}

	for _, p := range r.players {
		p.ResetForNewGame()
	}
	clear(r.patterns)
	clear(r.votes)
	r.Round = 0

	return r.transition(PhaseLobby)
}

func (r *Room) transition(target Phase) error {
	if !r.Phase.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	r.Phase = target
	return nil
}

func (r *Room) activeParticipant(id string) (*Participant, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !p.IsActive() {
		return nil, ErrPlayerEliminated
	}
	return p, nil
}

// GetParticipant returns a participant by ID
func (r *Room) GetParticipant(id string) (*Participant, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// IsHost checks if the given player is the host
func (r *Room) IsHost(id string) bool {
	return r.HostID == id
}

// PlayerCount returns the roster size
func (r *Room) PlayerCount() int {
	return len(r.order)
}

// CanStart checks if the game can be started
func (r *Room) CanStart() bool {
	return r.Phase == PhaseLobby && len(r.order) >= r.Settings.MinPlayers
}

// CanJoin checks if a new player can join
func (r *Room) CanJoin() bool {
	return r.Phase == PhaseLobby && len(r.order) < r.Settings.MaxPlayers
}

// Participants returns the roster in join order
func (r *Room) Participants() []*Participant {
	out := make([]*Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// ActiveIDs returns the ids of players not yet eliminated, in roster order
func (r *Room) ActiveIDs() []string {
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.players[id].IsActive() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Pattern returns the pattern submitted by id this round
func (r *Room) Pattern(id string) (Pattern, bool) {
	p, ok := r.patterns[id]
	return p, ok
}

// Ballots returns the current votes in roster order of the voters
func (r *Room) Ballots() []Ballot {
	ballots := make([]Ballot, 0, len(r.votes))
	for _, id := range r.order {
		if target, ok := r.votes[id]; ok {
			ballots = append(ballots, Ballot{VoterID: id, TargetID: target})
		}
	}
	return ballots
}

// Roster returns every participant as a PlayerView
func (r *Room) Roster(reveal Reveal) []PlayerView {
	views := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		views = append(views, r.players[id].ToView(reveal))
	}
	return views
}

// ActiveRoster returns the players still in the game
func (r *Room) ActiveRoster(reveal Reveal) []PlayerView {
	views := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p.IsActive() {
			views = append(views, p.ToView(reveal))
		}
	}
	return views
}

// PatternRoster returns the active players with their patterns and
// suspicion scores
func (r *Room) PatternRoster() []PlayerView {
	active := r.ActiveIDs()
	scores := SuspicionScores(active, r.patterns)

	views := make([]PlayerView, 0, len(active))
	for _, id := range active {
		v := r.players[id].ToView(RevealNone)
		v.Pattern = r.patterns[id].Clone()
		score := scores[id]
		v.Suspicion = &score
		views = append(views, v)
	}
	return views
}
