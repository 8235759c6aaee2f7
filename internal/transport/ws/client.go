package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"mirrorwars/internal/app"
	"mirrorwars/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256

	minNameLength = 2
	maxNameLength = 20
)

var roomCodePattern = regexp.MustCompile(`^\d{4}$`)

// Client represents a WebSocket client connection. It is in at most one room
// at a time; session is only touched by the read pump.
type Client struct {
	conn     *websocket.Conn
	hub      *app.GameHub
	session  *app.GameSession
	playerID string
	limiter  *rate.Limiter
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, hub *app.GameHub, playerID string, limiter *rate.Limiter, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		hub:      hub,
		playerID: playerID,
		limiter:  limiter,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Send implements app.ClientConnection interface
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close implements app.ClientConnection interface
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.leaveRoom()
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	if !c.limiter.Allow() {
		c.sendError(MsgGameError, ErrCodeRateLimited, "Too many messages, slow down")
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(MsgGameError, ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgCreateRoom:
		c.handleCreateRoom(msg.Payload)
	case MsgJoinRoom:
		c.handleJoinRoom(msg.Payload)
	case MsgStartGame:
		c.dispatch(app.StartGame{PlayerID: c.playerID})
	case MsgSubmitPattern:
		c.handleSubmitPattern(msg.Payload)
	case MsgSubmitVote:
		c.handleSubmitVote(msg.Payload)
	case MsgPlayAgain:
		c.dispatch(app.PlayAgain{PlayerID: c.playerID})
	case MsgLeaveRoom:
		c.handleLeaveRoom()
	case MsgGetState:
		c.handleGetState()
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(MsgGameError, ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleCreateRoom handles a createRoom message
func (c *Client) handleCreateRoom(raw json.RawMessage) {
	var payload CreateRoomPayload
	if err := decodePayload(raw, &payload); err != nil {
		c.sendError(MsgJoinError, ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	if c.session != nil {
		c.sendError(MsgJoinError, ErrCodeAlreadyInRoom, "Leave your current room first")
		return
	}

	name, ok := normalizeName(payload.PlayerName)
	if !ok {
		c.sendError(MsgJoinError, ErrCodeInvalidName, "Name must be 2-20 characters")
		return
	}

	session, err := c.hub.CreateRoom(c.playerID, name, c)
	if err != nil {
		c.logger.Warn("create room failed", "playerID", c.playerID, "error", err)
		c.sendError(MsgJoinError, errorCode(err), errorMessage(err))
		return
	}

	c.session = session
}

// handleJoinRoom handles a joinRoom message
func (c *Client) handleJoinRoom(raw json.RawMessage) {
	var payload JoinRoomPayload
	if err := decodePayload(raw, &payload); err != nil {
		c.sendError(MsgJoinError, ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	if c.session != nil {
		c.sendError(MsgJoinError, ErrCodeAlreadyInRoom, "Leave your current room first")
		return
	}

	roomCode := strings.TrimSpace(payload.RoomCode)
	if !roomCodePattern.MatchString(roomCode) {
		c.sendError(MsgJoinError, ErrCodeInvalidRoomCode, "Room code must be 4 digits")
		return
	}

	name, ok := normalizeName(payload.PlayerName)
	if !ok {
		c.sendError(MsgJoinError, ErrCodeInvalidName, "Name must be 2-20 characters")
		return
	}

	session, err := c.hub.JoinRoom(roomCode, c.playerID, name, c)
	if err != nil {
		c.logger.Debug("join rejected", "roomCode", roomCode, "playerID", c.playerID, "error", err)
		c.sendError(MsgJoinError, errorCode(err), errorMessage(err))
		return
	}

	c.session = session
}

// handleSubmitPattern handles a submitPattern message
func (c *Client) handleSubmitPattern(raw json.RawMessage) {
	var payload SubmitPatternPayload
	if err := decodePayload(raw, &payload); err != nil {
		c.sendError(MsgGameError, ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	c.dispatch(app.SubmitPattern{PlayerID: c.playerID, Pattern: domain.Pattern(payload.Pattern)})
}

// handleSubmitVote handles a submitVote message
func (c *Client) handleSubmitVote(raw json.RawMessage) {
	var payload SubmitVotePayload
	if err := decodePayload(raw, &payload); err != nil || payload.TargetID == "" {
		c.sendError(MsgGameError, ErrCodeInvalidMessage, "Target player ID is required")
		return
	}

	c.dispatch(app.SubmitVote{PlayerID: c.playerID, TargetID: payload.TargetID})
}

// handleLeaveRoom handles a leaveRoom message
func (c *Client) handleLeaveRoom() {
	if c.session == nil {
		c.sendError(MsgGameError, ErrCodeNotInRoom, "You are not in a room")
		return
	}

	roomCode := c.session.Code()
	c.leaveRoom()

	// Participant IDs are never reused within a room, so a returning
	// connection starts over with a new one.
	c.mu.Lock()
	c.playerID = app.NewParticipantID()
	c.mu.Unlock()

	c.Send(NewServerMessage(MsgLeftRoom, &LeftRoomPayload{
		RoomCode: roomCode,
		PlayerID: c.playerID,
	}))
}

// handleGetState handles a getState message
func (c *Client) handleGetState() {
	if c.session == nil {
		c.sendError(MsgGameError, ErrCodeNotInRoom, "You are not in a room")
		return
	}

	state, err := c.session.State(c.playerID)
	if err != nil {
		c.dropClosedSession(err)
		c.sendError(MsgGameError, errorCode(err), errorMessage(err))
		return
	}

	c.Send(NewServerMessage(MsgGameState, state))
}

// dispatch applies a command to the current room and reports a rejection
// to this client only
func (c *Client) dispatch(cmd app.Command) {
	if c.session == nil {
		c.sendError(MsgGameError, ErrCodeNotInRoom, "You are not in a room")
		return
	}

	if err := c.session.Dispatch(cmd); err != nil {
		c.logger.Debug("command rejected",
			"roomCode", c.session.Code(),
			"playerID", c.playerID,
			"command", commandName(cmd),
			"error", err,
		)
		c.dropClosedSession(err)
		c.sendError(MsgGameError, errorCode(err), errorMessage(err))
	}
}

// dropClosedSession forgets a room that has been torn down
func (c *Client) dropClosedSession(err error) {
	if errors.Is(err, domain.ErrRoomNotFound) {
		c.session = nil
	}
}

// leaveRoom removes the player from their room, if any
func (c *Client) leaveRoom() {
	if c.session == nil {
		return
	}
	c.session.Dispatch(app.Leave{PlayerID: c.playerID})
	c.session = nil
}

// sendError sends an error message to the client
func (c *Client) sendError(msgType MessageType, code, message string) {
	payload := &ErrorPayload{
		Code:    code,
		Message: message,
	}

	msg := NewServerMessage(msgType, payload)
	c.Send(msg)
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	msg := NewServerMessage(MsgPong, nil)
	c.Send(msg)
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}

// normalizeName trims a display name and checks its length in characters
func normalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	return name, n >= minNameLength && n <= maxNameLength
}

func commandName(cmd app.Command) string {
	switch cmd.(type) {
	case app.StartGame:
		return string(MsgStartGame)
	case app.SubmitPattern:
		return string(MsgSubmitPattern)
	case app.SubmitVote:
		return string(MsgSubmitVote)
	case app.PlayAgain:
		return string(MsgPlayAgain)
	default:
		return "unknown"
	}
}
