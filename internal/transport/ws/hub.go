package ws

import (
	"context"
	"encoding/json"
	"sync"

	"ptpal/internal/notify"

	"github.com/rs/zerolog"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgInsightCreated MessageType = "insight_created"
	MsgSweepDone      MessageType = "sweep_done"
	MsgError          MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for trainer dashboards. A trainer may
// be connected from several devices at once; every connection gets every
// message addressed to that trainer.
type Hub struct {
	// trainerID -> open connections
	conns map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage

	logger zerolog.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	TrainerID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	TrainerID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger zerolog.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		logger:     logger.With().Str("component", "ws").Logger(),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.TrainerID] == nil {
				h.conns[conn.TrainerID] = make(map[*Connection]bool)
			}
			h.conns[conn.TrainerID][conn] = true
			h.mu.Unlock()
			h.logger.Debug().Str("trainer", conn.TrainerID).Msg("dashboard connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.TrainerID]; ok && set[conn] {
				delete(set, conn)
				close(conn.Send)
				if len(set) == 0 {
					delete(h.conns, conn.TrainerID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug().Str("trainer", conn.TrainerID).Msg("dashboard disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.conns[msg.TrainerID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToTrainer sends a message to every connection of one trainer.
func (h *Hub) BroadcastToTrainer(trainerID string, msgType MessageType, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		TrainerID: trainerID,
		Message: &Message{
			Type:    msgType,
			Payload: data,
		},
	}
}

// Dispatch implements notify.Dispatcher so new insights reach open
// dashboards in real time alongside the push channel.
func (h *Hub) Dispatch(_ context.Context, n *notify.Notification) error {
	h.BroadcastToTrainer(n.RecipientID, MsgInsightCreated, n)
	return nil
}
