package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mirrorwars/internal/domain"
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// RoomInfo is a read-only summary of a room
type RoomInfo struct {
	Code        string       `json:"roomCode"`
	Phase       domain.Phase `json:"phase"`
	Round       int          `json:"round"`
	PlayerCount int          `json:"playerCount"`
	MaxPlayers  int          `json:"maxPlayers"`
	CanJoin     bool         `json:"canJoin"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// GameSession wraps a room with concurrency control and client management.
// Every command runs under mu, and so do the timer-driven transitions.
type GameSession struct {
	room      *domain.Room
	mu        sync.Mutex
	clients   map[string]ClientConnection // playerID -> client
	clientsMu sync.RWMutex
	logger    *slog.Logger

	// Pending timer-driven transition. gen invalidates callbacks that
	// already fired but lost the race for mu.
	timer    *time.Timer
	timerGen uint64

	lastActivity time.Time
	closed       bool
	onEmpty      func(*GameSession)

	// Event channel for broadcasting
	events chan *domain.GameEvent
	done   chan struct{}
}

// NewGameSession creates a new game session
func NewGameSession(room *domain.Room, logger *slog.Logger) *GameSession {
	session := &GameSession{
		room:         room,
		clients:      make(map[string]ClientConnection),
		logger:       logger.With("roomCode", room.Code),
		lastActivity: time.Now(),
		events:       make(chan *domain.GameEvent, 256),
		done:         make(chan struct{}),
	}

	// Start event broadcaster
	go session.eventLoop()

	return session
}

// Code returns the room code
func (s *GameSession) Code() string {
	return s.room.Code
}

// CreatedAt returns when the room was created
func (s *GameSession) CreatedAt() time.Time {
	return s.room.CreatedAt
}

// LastActivity returns when the last command was applied
func (s *GameSession) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// PlayerCount returns the number of players
func (s *GameSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.PlayerCount()
}

// Phase returns the current phase
func (s *GameSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Phase
}

// CanJoin checks if a new player can join the room
func (s *GameSession) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.room.CanJoin()
}

// Closed reports whether the room has been torn down
func (s *GameSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// HasPendingTimer reports whether a timer-driven transition is scheduled
func (s *GameSession) HasPendingTimer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Info returns a summary of the room
func (s *GameSession) Info() RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RoomInfo{
		Code:        s.room.Code,
		Phase:       s.room.Phase,
		Round:       s.room.Round,
		PlayerCount: s.room.PlayerCount(),
		MaxPlayers:  s.room.Settings.MaxPlayers,
		CanJoin:     !s.closed && s.room.CanJoin(),
		CreatedAt:   s.room.CreatedAt,
	}
}

// Dispatch applies a command to the room. A rejected command leaves the room
// untouched and its error is meant for the sender only. When the roster
// empties the session closes itself and notifies the registry.
func (s *GameSession) Dispatch(cmd Command) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		if _, ok := cmd.(Leave); ok {
			return nil
		}
		return domain.ErrRoomNotFound
	}

	s.lastActivity = time.Now()
	err := s.apply(cmd)

	empty := s.room.PlayerCount() == 0
	if empty {
		s.closeLocked()
	}
	onEmpty := s.onEmpty
	s.mu.Unlock()

	// Called without mu held: the registry locks itself first, then sessions
	if empty && onEmpty != nil {
		onEmpty(s)
	}

	return err
}

// open seats the room creator. It runs before the session is registered so
// nobody else can get in first.
func (s *GameSession) open(cmd Join) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.join(cmd)
}

func (s *GameSession) apply(cmd Command) error {
	switch c := cmd.(type) {
	case Join:
		return s.join(c)
	case StartGame:
		return s.startGame(c.PlayerID)
	case SubmitPattern:
		return s.submitPattern(c.PlayerID, c.Pattern)
	case SubmitVote:
		return s.submitVote(c.PlayerID, c.TargetID)
	case PlayAgain:
		return s.playAgain(c.PlayerID)
	case Leave:
		s.leave(c.PlayerID)
		return nil
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
}

func (s *GameSession) join(c Join) error {
	player, err := s.room.AddParticipant(c.PlayerID, c.Name)
	if err != nil {
		return err
	}

	s.registerClient(c.PlayerID, c.Conn)

	players := s.room.Roster(domain.RevealNone)
	joined := &domain.RoomJoinedPayload{
		RoomCode: s.room.Code,
		PlayerID: player.ID,
		IsHost:   player.IsHost,
		Players:  players,
	}

	if player.IsHost {
		s.logger.Info("room created", "playerID", player.ID)
		s.queueEvent(domain.NewPlayerEvent(domain.EventRoomCreated, s.room.Code, player.ID, joined))
		return nil
	}

	s.logger.Info("player joined", "playerID", player.ID, "players", s.room.PlayerCount())
	s.queueEvent(domain.NewPlayerEvent(domain.EventJoinSuccess, s.room.Code, player.ID, joined))
	s.queueEvent(domain.NewEvent(domain.EventPlayerJoined, s.room.Code, s.rosterPayload(player.ID)).Except(player.ID))

	return nil
}

func (s *GameSession) startGame(playerID string) error {
	if err := s.room.Start(playerID); err != nil {
		return err
	}

	s.logger.Info("game started", "players", s.room.PlayerCount())

	// Each player learns their own role only
	players := s.room.Roster(domain.RevealNone)
	for _, p := range s.room.Participants() {
		payload := &domain.RoleAssignedPayload{
			Role:    p.Role,
			Round:   s.room.Round,
			Players: players,
		}
		s.queueEvent(domain.NewPlayerEvent(domain.EventRoleAssigned, s.room.Code, p.ID, payload))
	}

	s.schedule(s.room.Settings.RoleRevealDelay, s.beginPatternPhase)

	return nil
}

// beginPatternPhase opens pattern submission (caller must hold lock)
func (s *GameSession) beginPatternPhase() {
	if err := s.room.BeginPatternPhase(); err != nil {
		s.logger.Error("failed to begin pattern phase", "phase", s.room.Phase, "error", err)
		return
	}

	settings := s.room.Settings
	payload := &domain.PatternPhasePayload{
		Round:    s.room.Round,
		Seconds:  int(settings.PatternDuration.Seconds()),
		GridSize: settings.GridSize,
		Players:  s.room.Roster(domain.RevealEliminated),
	}

	if settings.EnforcePatternDeadline && settings.PatternDuration > 0 {
		deadline := time.Now().Add(settings.PatternDuration)
		payload.Deadline = &deadline
		s.schedule(settings.PatternDuration, s.expirePatternPhase)
	}

	s.logger.Debug("pattern phase started", "round", s.room.Round)
	s.queueEvent(domain.NewEvent(domain.EventPatternPhase, s.room.Code, payload))
}

// expirePatternPhase closes the pattern phase for stragglers
func (s *GameSession) expirePatternPhase() {
	forced := s.room.ForceSubmitMissing()
	if len(forced) > 0 {
		s.logger.Info("pattern deadline reached", "round", s.room.Round, "forced", len(forced))
	}
	s.advancePatterns("", forced)
}

func (s *GameSession) submitPattern(playerID string, pattern domain.Pattern) error {
	if err := s.room.SubmitPattern(playerID, pattern); err != nil {
		return err
	}

	s.logger.Debug("pattern submitted", "playerID", playerID, "round", s.room.Round)
	s.advancePatterns(playerID, nil)

	return nil
}

// advancePatterns checks pattern quorum and either reports progress or opens
// voting (caller must hold lock)
func (s *GameSession) advancePatterns(playerID string, forced []string) {
	if s.room.Phase != domain.PhasePattern {
		return
	}

	progress := s.room.PatternProgress()
	if !progress.Complete {
		s.queueEvent(domain.NewEvent(domain.EventPatternSubmitted, s.room.Code, &domain.ProgressPayload{
			PlayerID:  playerID,
			Submitted: progress.Submitted,
			Total:     progress.Total,
		}))
		return
	}

	s.stopTimer()

	players := s.room.PatternRoster()
	if err := s.room.BeginVoting(); err != nil {
		s.logger.Error("failed to begin voting", "error", err)
		return
	}

	s.logger.Debug("patterns complete", "round", s.room.Round)
	s.queueEvent(domain.NewEvent(domain.EventPatternsComplete, s.room.Code, &domain.PatternsCompletePayload{
		Players: players,
		Forced:  forced,
	}))
}

func (s *GameSession) submitVote(voterID, targetID string) error {
	if err := s.room.SubmitVote(voterID, targetID); err != nil {
		return err
	}

	s.logger.Debug("vote submitted", "playerID", voterID, "round", s.room.Round)
	s.advanceVotes(voterID)

	return nil
}

// advanceVotes checks vote quorum and either reports progress or resolves
// the round (caller must hold lock)
func (s *GameSession) advanceVotes(playerID string) {
	if s.room.Phase != domain.PhaseVoting {
		return
	}

	progress := s.room.VoteProgress()
	if !progress.Complete {
		// Progress only, never who voted for whom
		s.queueEvent(domain.NewEvent(domain.EventVoteSubmitted, s.room.Code, &domain.ProgressPayload{
			PlayerID:  playerID,
			Submitted: progress.Submitted,
			Total:     progress.Total,
		}))
		return
	}

	s.resolveRound()
}

func (s *GameSession) resolveRound() {
	result, err := s.room.ResolveRound()
	if err != nil {
		s.logger.Error("failed to resolve round", "round", s.room.Round, "error", err)
		return
	}

	reveal := domain.RevealEliminated
	if result.Win != nil {
		reveal = domain.RevealAll
	}

	payload := &domain.VotingCompletePayload{
		Round:            result.Round,
		EliminatedPlayer: result.Eliminated.ToView(reveal),
		Votes:            result.Votes,
		Tally:            result.Outcome.Counts,
		Tied:             result.Outcome.Tied,
		Players:          s.room.Roster(reveal),
		WinResult:        result.Win,
	}
	s.queueEvent(domain.NewEvent(domain.EventVotingComplete, s.room.Code, payload))

	s.logger.Info("round resolved",
		"round", result.Round,
		"eliminated", result.Eliminated.ID,
		"tied", len(result.Outcome.Tied) > 0,
	)

	if result.Win != nil {
		s.logger.Info("game ended", "winner", result.Win.Winner)
		return
	}

	s.schedule(s.room.Settings.ResultsDelay, s.startNextRound)
}

// startNextRound moves from Results into the next Pattern phase
func (s *GameSession) startNextRound() {
	if s.room.Phase != domain.PhaseResults {
		return
	}

	s.queueEvent(domain.NewEvent(domain.EventNextRound, s.room.Code, &domain.NextRoundPayload{
		RoundNumber: s.room.Round,
		Players:     s.room.Roster(domain.RevealEliminated),
	}))

	s.beginPatternPhase()
}

func (s *GameSession) playAgain(playerID string) error {
	if err := s.room.PlayAgain(playerID); err != nil {
		return err
	}

	s.stopTimer()
	s.logger.Info("returned to lobby", "players", s.room.PlayerCount())
	s.queueEvent(domain.NewEvent(domain.EventReturnedToLobby, s.room.Code, s.rosterPayload("")))

	return nil
}

// leave is cleanup and never fails. A departure can decide the game or
// complete the quorum of the current phase.
func (s *GameSession) leave(playerID string) {
	s.unregisterClient(playerID)

	departure, ok := s.room.RemoveParticipant(playerID)
	if !ok {
		return
	}

	s.logger.Info("player left",
		"playerID", playerID,
		"phase", s.room.Phase,
		"wasHost", departure.WasHost,
		"newHostID", departure.NewHostID,
	)

	if departure.Empty {
		return
	}

	s.queueEvent(domain.NewEvent(domain.EventPlayerLeft, s.room.Code, s.rosterPayload(playerID)))

	if win := s.room.EndIfDecided(); win != nil {
		s.stopTimer()
		s.logger.Info("game ended", "winner", win.Winner, "reason", "departure")
		s.queueEvent(domain.NewEvent(domain.EventGameEnded, s.room.Code, &domain.GameEndedPayload{
			WinResult: win,
			Players:   s.room.Roster(domain.RevealAll),
		}))
		return
	}

	switch s.room.Phase {
	case domain.PhasePattern:
		s.advancePatterns("", nil)
	case domain.PhaseVoting:
		s.advanceVotes("")
	}
}

// State returns the room as seen by one player
func (s *GameSession) State(playerID string) (*domain.GameStatePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrRoomNotFound
	}

	player, err := s.room.GetParticipant(playerID)
	if err != nil {
		return nil, err
	}

	state := &domain.GameStatePayload{
		RoomCode: s.room.Code,
		Phase:    s.room.Phase,
		Round:    s.room.Round,
		HostID:   s.room.HostID,
		Role:     player.Role,
		Players:  s.room.Roster(s.reveal()),
		CanStart: s.room.CanStart(),
	}

	switch s.room.Phase {
	case domain.PhasePattern:
		progress := s.room.PatternProgress()
		state.Progress = &progress
	case domain.PhaseVoting:
		progress := s.room.VoteProgress()
		state.Progress = &progress
	}

	return state, nil
}

func (s *GameSession) reveal() domain.Reveal {
	if s.room.Phase == domain.PhaseEnded {
		return domain.RevealAll
	}
	return domain.RevealEliminated
}

func (s *GameSession) rosterPayload(playerID string) *domain.RosterPayload {
	return &domain.RosterPayload{
		PlayerID: playerID,
		Players:  s.room.Roster(s.reveal()),
		HostID:   s.room.HostID,
		CanStart: s.room.CanStart(),
	}
}

// schedule replaces the pending transition with fn after d (caller must hold lock)
func (s *GameSession) schedule(d time.Duration, fn func()) {
	s.stopTimer()
	gen := s.timerGen

	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || gen != s.timerGen {
			return
		}
		s.timer = nil
		fn()
	})
}

// stopTimer cancels the pending transition (caller must hold lock)
func (s *GameSession) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *GameSession) registerClient(playerID string, client ClientConnection) {
	if client == nil {
		return
	}
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[playerID] = client
}

func (s *GameSession) unregisterClient(playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, playerID)
}

// queueEvent adds an event to the broadcast queue. When the queue is full it
// waits for the event loop; slow clients drop messages in their own buffers.
func (s *GameSession) queueEvent(event *domain.GameEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	}
}

// eventLoop processes events and broadcasts to clients
func (s *GameSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends an event to appropriate clients. A failed send is
// logged and skipped.
func (s *GameSession) broadcastEvent(event *domain.GameEvent) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	// If player-specific, send only to that player
	if event.PlayerID != "" {
		if client, ok := s.clients[event.PlayerID]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug("failed to send to client", "playerID", event.PlayerID, "error", err)
			}
		}
		return
	}

	// Broadcast to all clients
	for playerID, client := range s.clients {
		if playerID == event.ExcludeID {
			continue
		}
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}

// Close shuts down the session and cancels any pending transition
func (s *GameSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *GameSession) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimer()
	close(s.done)

	// Close all client connections
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
