package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/scrolly/internal/action"
	"github.com/ayusman/scrolly/internal/gesture"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is one JSON frame sent to /api/signals clients.
type Message struct {
	Type       string         `json:"type"`
	Signal     gesture.Signal `json:"signal"`
	Hand       int            `json:"hand,omitempty"`
	Handedness string         `json:"handedness,omitempty"`
	Distance   float64        `json:"distance,omitempty"`
	Plugin     string         `json:"plugin,omitempty"`
	Action     string         `json:"action,omitempty"`
	Delivered  bool           `json:"delivered,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

// TriggerMessage describes a signal raised by a frame.
func TriggerMessage(t gesture.Trigger, at time.Time) Message {
	return Message{
		Type:       "trigger",
		Signal:     t.Signal,
		Hand:       t.Hand,
		Handedness: t.Handedness,
		Distance:   t.Distance,
		Timestamp:  at.UnixMilli(),
	}
}

// DeliveryMessage describes a signal that reached a plugin.
func DeliveryMessage(f action.Fired) Message {
	return Message{
		Type:      "delivery",
		Signal:    f.Signal,
		Plugin:    f.Binding.PluginName,
		Action:    f.Binding.ActionName,
		Delivered: f.Event.Delivered,
		Error:     f.Event.Error,
		Timestamp: f.Event.CreatedAt.UnixMilli(),
	}
}

// Hub fans messages out to websocket clients.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	send := make(chan []byte, sendBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = send
	h.mu.Unlock()

	go h.write(conn, send)

	// Reads only detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(conn)
}

func (h *Hub) write(conn *websocket.Conn, send <-chan []byte) {
	defer conn.Close()
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.clients[conn]; ok {
		close(send)
		delete(h.clients, conn)
	}
}

// Broadcast sends v as JSON to every client. Clients whose buffer is full
// miss the message.
func (h *Hub) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encoding broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn, send := range h.clients {
		close(send)
		delete(h.clients, conn)
	}
}
