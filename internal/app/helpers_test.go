package app

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mirrorwars/internal/domain"
)

const (
	waitTimeout  = time.Second
	pollInterval = 5 * time.Millisecond
)

// firstRand always picks index 0, which deals the mirror roles to the end
// of the roster
type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings() domain.GameSettings {
	settings := domain.DefaultGameSettings()
	settings.RoleRevealDelay = 10 * time.Millisecond
	settings.ResultsDelay = 10 * time.Millisecond
	settings.EnforcePatternDeadline = false
	return settings
}

// codes returns a generator cycling through list
func codes(list ...string) func() string {
	i := 0
	return func() string {
		code := list[i%len(list)]
		i++
		return code
	}
}

// recorder is a ClientConnection that keeps every room event it receives
type recorder struct {
	id     string
	mu     sync.Mutex
	events []*domain.GameEvent
	closed bool
}

func newRecorder(id string) *recorder {
	return &recorder{id: id}
}

func (r *recorder) Send(message interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event, ok := message.(*domain.GameEvent); ok {
		r.events = append(r.events, event)
	}
	return nil
}

func (r *recorder) GetPlayerID() string { return r.id }

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) count(typ domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *recorder) last(typ domain.EventType) *domain.GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == typ {
			return r.events[i]
		}
	}
	return nil
}

func (r *recorder) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// waitFor blocks until an event of typ arrived and returns the latest one
func (r *recorder) waitFor(t *testing.T, typ domain.EventType) *domain.GameEvent {
	t.Helper()
	var event *domain.GameEvent
	require.Eventually(t, func() bool {
		event = r.last(typ)
		return event != nil
	}, waitTimeout, pollInterval, "player %s never got %s", r.id, typ)
	return event
}

// mockConn is a ClientConnection driven by testify expectations
type mockConn struct {
	mock.Mock
}

func (m *mockConn) Send(message interface{}) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *mockConn) GetPlayerID() string {
	return m.Called().String(0)
}

func (m *mockConn) Close() error {
	return m.Called().Error(0)
}

// table is a room with players p1..pN, p1 hosting
type table struct {
	t       *testing.T
	hub     *GameHub
	session *GameSession
	conns   map[string]*recorder
	ids     []string
}

func newTable(t *testing.T, settings domain.GameSettings, n int) *table {
	t.Helper()

	hub := NewGameHub(settings, testLogger(),
		WithCodeGenerator(codes("1234")),
		WithRand(firstRand{}),
	)
	t.Cleanup(hub.Close)

	tb := &table{t: t, hub: hub, conns: make(map[string]*recorder)}
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		conn := newRecorder(id)
		tb.conns[id] = conn
		tb.ids = append(tb.ids, id)

		var err error
		if i == 1 {
			tb.session, err = hub.CreateRoom(id, "Player 1", conn)
		} else {
			_, err = hub.JoinRoom("1234", id, fmt.Sprintf("Player %d", i), conn)
		}
		require.NoError(t, err)
	}
	return tb
}

func (tb *table) dispatch(cmd Command) {
	tb.t.Helper()
	require.NoError(tb.t, tb.session.Dispatch(cmd))
}

// start begins the game and waits for the pattern phase
func (tb *table) start() {
	tb.t.Helper()
	tb.dispatch(StartGame{PlayerID: "p1"})
	tb.waitPhase(domain.PhasePattern)
}

func (tb *table) waitPhase(phase domain.Phase) {
	tb.t.Helper()
	require.Eventually(tb.t, func() bool {
		return tb.session.Phase() == phase
	}, waitTimeout, pollInterval, "room never reached %s", phase)
}

func (tb *table) submitPatterns(ids ...string) {
	tb.t.Helper()
	for i, id := range ids {
		tb.dispatch(SubmitPattern{PlayerID: id, Pattern: domain.Pattern{i, i + 1}})
	}
}

// gatedConn records events but holds every Send until gate is closed
type gatedConn struct {
	*recorder
	gate chan struct{}
}

func newGatedConn(id string) *gatedConn {
	return &gatedConn{recorder: newRecorder(id), gate: make(chan struct{})}
}

func (g *gatedConn) Send(message interface{}) error {
	<-g.gate
	return g.recorder.Send(message)
}
