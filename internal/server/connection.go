package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	service   *Service
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *Service) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		service: service,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown.
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join data")
			return
		}
		c.handleJoin(data)

	case MessageTypeLeave:
		c.handleLeave()

	case MessageTypeStart:
		c.handleStart()

	case MessageTypePlay:
		var data PlayData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse play data")
			return
		}
		c.handlePlay(data)

	case MessageTypeChoose:
		var data ChooseData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse choose data")
			return
		}
		c.handleChoose(data)

	case MessageTypeState:
		c.handleState()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

func (c *Connection) sendAck(action string) {
	msg, err := NewMessage(MessageTypeAck, AckData{Action: action, Success: true})
	if err != nil {
		c.logger.Error("Failed to create ack message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) handleJoin(data JoinData) {
	c.logger.Info("Join request", "playerName", data.PlayerName)

	if data.PlayerName == "" {
		c.sendError("invalid_join", "Player name required")
		return
	}
	if c.GetPlayer() != "" {
		c.sendError("already_joined", "Connection is already playing as "+c.GetPlayer())
		return
	}

	if err := c.service.Join(data.PlayerName); err != nil {
		c.sendError("join_failed", err.Error())
		return
	}

	c.SetPlayer(data.PlayerName)
	c.sendAck("join")
}

func (c *Connection) handleLeave() {
	playerName := c.GetPlayer()
	c.logger.Info("Leave request", "player", playerName)

	if playerName == "" {
		c.sendError("not_joined", "Must join first")
		return
	}

	if err := c.service.Leave(playerName); err != nil {
		c.sendError("leave_failed", err.Error())
		return
	}

	c.SetPlayer("")
	c.sendAck("leave")
}

func (c *Connection) handleStart() {
	playerName := c.GetPlayer()
	c.logger.Info("Start request", "player", playerName)

	if playerName == "" {
		c.sendError("not_joined", "Must join first")
		return
	}

	if err := c.service.Start(playerName); err != nil {
		c.sendError("start_failed", err.Error())
		return
	}

	c.sendAck("start")
}

func (c *Connection) handlePlay(data PlayData) {
	playerName := c.GetPlayer()
	c.logger.Info("Play request", "player", playerName, "indices", data.Indices)

	if playerName == "" {
		c.sendError("not_joined", "Must join first")
		return
	}

	if err := c.service.Play(playerName, data.Indices); err != nil {
		c.sendError("play_failed", err.Error())
		return
	}

	c.sendAck("play")
}

func (c *Connection) handleChoose(data ChooseData) {
	playerName := c.GetPlayer()
	c.logger.Info("Choose request", "player", playerName, "index", data.Index)

	if playerName == "" {
		c.sendError("not_joined", "Must join first")
		return
	}

	if err := c.service.Choose(playerName, data.Index); err != nil {
		c.sendError("choose_failed", err.Error())
		return
	}

	c.sendAck("choose")
}

func (c *Connection) handleState() {
	state, err := c.service.Snapshot()
	if err != nil {
		c.sendError("state_failed", err.Error())
		return
	}

	response, _ := NewMessage(MessageTypeGameState, state)
	_ = c.SendMessage(response)
}
