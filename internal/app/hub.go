package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mirrorwars/internal/domain"
)

const (
	// DefaultRoomCodeAttempts caps retries when a drawn room code is taken
	DefaultRoomCodeAttempts = 100

	// DefaultStaleRoomTimeout is how long before an inactive room is cleaned up
	DefaultStaleRoomTimeout = 2 * time.Hour

	// DefaultCleanupInterval is how often the hub looks for stale rooms
	DefaultCleanupInterval = 10 * time.Minute
)

// HubOption configures a GameHub
type HubOption func(*GameHub)

// WithCodeGenerator replaces the room code source
func WithCodeGenerator(gen func() string) HubOption {
	return func(h *GameHub) {
		h.newCode = gen
	}
}

// WithCodeAttempts sets how many codes are drawn before giving up
func WithCodeAttempts(n int) HubOption {
	return func(h *GameHub) {
		if n > 0 {
			h.codeAttempts = n
		}
	}
}

// WithStaleTimeout sets the idle time after which a room is cleaned up
func WithStaleTimeout(d time.Duration) HubOption {
	return func(h *GameHub) {
		if d > 0 {
			h.staleAfter = d
		}
	}
}

// WithCleanupInterval sets how often stale rooms are swept
func WithCleanupInterval(d time.Duration) HubOption {
	return func(h *GameHub) {
		if d > 0 {
			h.cleanupInterval = d
		}
	}
}

// WithRand sets the random source new rooms use for roles and tie breaks
func WithRand(rnd domain.Rand) HubOption {
	return func(h *GameHub) {
		h.rnd = rnd
	}
}

// GameHub is the registry of live rooms
type GameHub struct {
	sessions        map[string]*GameSession
	mu              sync.RWMutex
	settings        domain.GameSettings
	newCode         func() string
	codeAttempts    int
	staleAfter      time.Duration
	cleanupInterval time.Duration
	rnd             domain.Rand
	logger          *slog.Logger
	done            chan struct{}
	closeOnce       sync.Once
}

// NewGameHub creates a new game hub
func NewGameHub(settings domain.GameSettings, logger *slog.Logger, opts ...HubOption) *GameHub {
	hub := &GameHub{
		sessions:        make(map[string]*GameSession),
		settings:        settings,
		newCode:         NewRoomCode,
		codeAttempts:    DefaultRoomCodeAttempts,
		staleAfter:      DefaultStaleRoomTimeout,
		cleanupInterval: DefaultCleanupInterval,
		logger:          logger,
		done:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(hub)
	}

	return hub
}

// CreateRoom allocates a code and opens a room with the creator as host
func (h *GameHub) CreateRoom(hostID, hostName string, conn ClientConnection) (*GameSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomCode, err := h.allocateCode()
	if err != nil {
		return nil, err
	}

	room := domain.NewRoom(roomCode, h.settings)
	if h.rnd != nil {
		room.UseRand(h.rnd)
	}

	session := NewGameSession(room, h.logger)
	if err := session.open(Join{PlayerID: hostID, Name: hostName, Conn: conn}); err != nil {
		session.Close()
		return nil, err
	}

	session.onEmpty = h.removeSession
	h.sessions[roomCode] = session

	return session, nil
}

// JoinRoom adds a player to an existing room
func (h *GameHub) JoinRoom(roomCode, playerID, name string, conn ClientConnection) (*GameSession, error) {
	session, err := h.GetSession(roomCode)
	if err != nil {
		return nil, err
	}

	if err := session.Dispatch(Join{PlayerID: playerID, Name: name, Conn: conn}); err != nil {
		return nil, err
	}

	return session, nil
}

// GetSession returns a game session by room code
func (h *GameHub) GetSession(roomCode string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[roomCode]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return session, nil
}

// RemoveRoom closes a room and removes it from the registry
func (h *GameHub) RemoveRoom(roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if session, ok := h.sessions[roomCode]; ok {
		session.Close()
		delete(h.sessions, roomCode)
		h.logger.Info("room removed", "roomCode", roomCode)
	}
}

// removeSession drops a session that closed itself. The pointer check keeps
// a late call from removing a newer room that reused the code.
func (h *GameHub) removeSession(session *GameSession) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.sessions[session.Code()]; ok && current == session {
		delete(h.sessions, session.Code())
		h.logger.Info("room destroyed", "roomCode", session.Code())
	}
}

// GetSessionCount returns the number of active sessions
func (h *GameHub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// GetTotalPlayerCount returns the total number of players across all sessions
func (h *GameHub) GetTotalPlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.sessions {
		total += session.PlayerCount()
	}
	return total
}

// Run sweeps stale rooms until ctx is cancelled or the hub is closed
func (h *GameHub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case now := <-ticker.C:
			h.cleanupStaleRooms(now)
		}
	}
}

// Close shuts down the hub and all sessions
func (h *GameHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.sessions {
		session.Close()
	}
	h.sessions = make(map[string]*GameSession)
}

// allocateCode draws codes until one is free (caller must hold lock)
func (h *GameHub) allocateCode() (string, error) {
	for attempt := 0; attempt < h.codeAttempts; attempt++ {
		code := h.newCode()
		if _, exists := h.sessions[code]; !exists {
			return code, nil
		}
	}

	h.logger.Warn("room code space exhausted", "rooms", len(h.sessions), "attempts", h.codeAttempts)
	return "", fmt.Errorf("allocate room code after %d attempts: %w", h.codeAttempts, domain.ErrCapacity)
}

// cleanupStaleRooms removes rooms that have been inactive for too long
func (h *GameHub) cleanupStaleRooms(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	stale := make([]string, 0)
	for roomCode, session := range h.sessions {
		if now.Sub(session.LastActivity()) > h.staleAfter {
			stale = append(stale, roomCode)
		}
	}

	for _, roomCode := range stale {
		if session, ok := h.sessions[roomCode]; ok {
			session.Close()
			delete(h.sessions, roomCode)
			h.logger.Info("stale room cleaned up", "roomCode", roomCode)
		}
	}
}
