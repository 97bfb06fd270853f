package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"slidedeck/internal/models"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingEvery  = (wsPongWait * 9) / 10
	wsSendBuffer = 32
)

// Message is the envelope pushed to viewers.
type Message struct {
	Type     string           `json:"type"`
	Snapshot *models.Snapshot `json:"snapshot,omitempty"`
	Message  string           `json:"message,omitempty"`
}

const (
	MessageTypeSlides  = "slides"
	MessageTypeWarning = "warning"
)

// Client is one connected viewer
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketService fans store changes and warnings out to connected
// viewers. It implements Publisher and Notifier.
type WebSocketService struct {
	logger     *zap.Logger
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	clients map[*Client]struct{}
	latest  []byte
}

// NewWebSocketService creates a hub; Run must be started for it to deliver.
func NewWebSocketService(logger *zap.Logger) *WebSocketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketService{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run dispatches registrations and broadcasts until Stop is called.
func (ws *WebSocketService) Run() {
	for {
		select {
		case <-ws.done:
			ws.mu.Lock()
			for c := range ws.clients {
				delete(ws.clients, c)
				close(c.send)
			}
			ws.mu.Unlock()
			return
		case c := <-ws.register:
			ws.mu.Lock()
			ws.clients[c] = struct{}{}
			latest := ws.latest
			ws.mu.Unlock()
			if latest != nil {
				ws.deliver(c, latest)
			}
		case c := <-ws.unregister:
			ws.mu.Lock()
			if _, ok := ws.clients[c]; ok {
				delete(ws.clients, c)
				close(c.send)
			}
			ws.mu.Unlock()
		case msg := <-ws.broadcast:
			ws.mu.RLock()
			for c := range ws.clients {
				ws.deliver(c, msg)
			}
			ws.mu.RUnlock()
		}
	}
}

// deliver drops the message for a viewer whose buffer is full; the next
// slides message supersedes it anyway.
func (ws *WebSocketService) deliver(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		ws.logger.Warn("viewer send buffer full, dropping message")
	}
}

// Stop ends Run and closes every viewer.
func (ws *WebSocketService) Stop() {
	ws.stopOnce.Do(func() { close(ws.done) })
}

// ClientCount reports the number of registered viewers.
func (ws *WebSocketService) ClientCount() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.clients)
}

func (ws *WebSocketService) PublishSlides(snapshot models.Snapshot) {
	data, err := json.Marshal(Message{Type: MessageTypeSlides, Snapshot: &snapshot})
	if err != nil {
		ws.logger.Error("failed to encode slides message", zap.Error(err))
		return
	}
	ws.mu.Lock()
	ws.latest = data
	ws.mu.Unlock()
	ws.enqueue(data)
}

func (ws *WebSocketService) Warn(message string) {
	data, err := json.Marshal(Message{Type: MessageTypeWarning, Message: message})
	if err != nil {
		ws.logger.Error("failed to encode warning message", zap.Error(err))
		return
	}
	ws.enqueue(data)
}

func (ws *WebSocketService) enqueue(data []byte) {
	select {
	case ws.broadcast <- data:
	case <-ws.done:
	default:
		ws.logger.Warn("broadcast queue full, dropping message")
	}
}

// Attach registers an upgraded connection and starts its pumps. It returns
// immediately; the pumps exit when the connection closes or the hub stops.
func (ws *WebSocketService) Attach(conn *websocket.Conn) {
	c := &Client{conn: conn, send: make(chan []byte, wsSendBuffer)}
	select {
	case ws.register <- c:
	case <-ws.done:
		conn.Close()
		return
	}
	go ws.writePump(c)
	go ws.readPump(c)
}

// readPump only consumes control frames; viewers never write to the store.
func (ws *WebSocketService) readPump(c *Client) {
	defer func() {
		select {
		case ws.unregister <- c:
		case <-ws.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Debug("viewer read failed", zap.Error(err))
			}
			return
		}
	}
}

func (ws *WebSocketService) writePump(c *Client) {
	ticker := time.NewTicker(wsPingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
