package ws

import (
	"encoding/json"
	"sync"

	"go-variant-inventory/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const broadcastBuffer = 256

// Client is the part of a websocket connection the hub writes to.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// VariantState is the stock of one variant after a change.
type VariantState struct {
	ID             uuid.UUID `json:"id"`
	Color          string    `json:"color"`
	Size           string    `json:"size"`
	InventoryCount int       `json:"inventory_count"`
}

// StockEvent is pushed to every connected client after a committed change.
type StockEvent struct {
	Type      string         `json:"type"`
	Action    string         `json:"action"`
	ProductID uuid.UUID      `json:"product_id"`
	Variants  []VariantState `json:"variants"`
	Actor     string         `json:"actor,omitempty"`
	Message   string         `json:"message,omitempty"`
}

type Hub struct {
	Clients    map[Client]bool
	Register   chan Client
	Unregister chan Client
	Broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[Client]bool),
		Register:   make(chan Client),
		Unregister: make(chan Client),
		Broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			logger.L.Debug("ws client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Join registers conn with the running hub. It reports false, without
// blocking, once the hub has stopped.
func (h *Hub) Join(conn Client) bool {
	select {
	case h.Register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters conn. After Stop it returns immediately; Run has
// already closed every client.
func (h *Hub) Leave(conn Client) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues event for broadcast. It never blocks: when the buffer is full
// the event is dropped, since clients resync from the REST endpoints anyway.
func (h *Hub) Publish(event StockEvent) {
	if event.Type == "" {
		event.Type = "stock_update"
	}
	msg, err := json.Marshal(event)
	if err != nil {
		logger.L.Error("failed to encode stock event", "error", err)
		return
	}

	select {
	case h.Broadcast <- msg:
	default:
		logger.L.Warn("ws broadcast buffer full, dropping event", "action", event.Action, "product_id", event.ProductID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}
