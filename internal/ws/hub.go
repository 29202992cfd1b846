package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Event is pushed to dashboards whenever a stock level changes.
type Event struct {
	Type      string    `json:"type"`
	SiteID    string    `json:"site_id"`
	Material  string    `json:"material"`
	Variant   string    `json:"variant,omitempty"`
	Action    string    `json:"action"` // incoming | outgoing | delete
	TxID      string    `json:"transaction_id"`
	Quantity  string    `json:"quantity"`
	Weight    string    `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}

const EventStockUpdate = "stock_update"

// Client is one subscriber. An empty SiteID receives every site.
type Client struct {
	Conn   Conn
	SiteID string
}

type message struct {
	siteID string
	data   []byte
}

type Hub struct {
	clients    map[Conn]string
	Register   chan Client
	Unregister chan Conn
	broadcast  chan message
	mutex      sync.Mutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[Conn]string),
		Register:   make(chan Client),
		Unregister: make(chan Conn),
		broadcast:  make(chan message, 64),
		log:        log,
	}
}

// Publish queues an event for delivery. It never blocks the caller;
// if the queue is full the event is dropped and logged.
func (h *Hub) Publish(e Event) {
	if e.Type == "" {
		e.Type = EventStockUpdate
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Error("ws: marshal event", "err", err)
		return
	}
	select {
	case h.broadcast <- message{siteID: e.SiteID, data: data}:
	default:
		h.log.Warn("ws: broadcast queue full, event dropped", "site_id", e.SiteID, "material", e.Material)
	}
}

// ClientCount reports the connected subscribers.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case c := <-h.Register:
			h.mutex.Lock()
			h.clients[c.Conn] = c.SiteID
			h.mutex.Unlock()
			h.log.Debug("ws: client connected", "site_id", c.SiteID)

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for conn, site := range h.clients {
				if site != "" && site != msg.siteID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
