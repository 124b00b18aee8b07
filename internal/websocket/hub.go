package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/ugcfy-backend/pkg/logger"
)

// Event types pushed to the admin UI
const (
	EventMediaCreated  = "media.created"
	EventMediaUpdated  = "media.updated"
	EventMediaDeleted  = "media.deleted"
	EventMediaImported = "media.imported"
)

// Event is the envelope written to every subscribed admin session of a shop
type Event struct {
	Type    string      `json:"type"`
	Shop    string      `json:"shop"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// Client is one admin websocket session
type Client struct {
	Hub  *Hub
	Conn *Conn
	Shop string
	Send chan []byte
}

// NewClient creates a session bound to shop
func NewClient(hub *Hub, conn *Conn, shop string) *Client {
	return &Client{
		Hub:  hub,
		Conn: conn,
		Shop: shop,
		Send: make(chan []byte, 256),
	}
}

// Hub fans moderation events out to the sessions of each shop
type Hub struct {
	// shop domain -> sessions (several admin tabs per shop)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	mu sync.RWMutex
}

type BroadcastMessage struct {
	Shop    string
	Message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Shop] = append(h.clients[client.Shop], client)
			total := len(h.clients[client.Shop])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"shop":           client.Shop,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[message.Shop] {
				select {
				case client.Send <- message.Message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"shop": message.Shop,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.Shop]
	if !ok {
		return
	}

	remaining := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return
	}

	if len(remaining) == 0 {
		delete(h.clients, client.Shop)
	} else {
		h.clients[client.Shop] = remaining
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"shop":               client.Shop,
		"remaining_sessions": len(remaining),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for shop, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, shop)
	}
}

// Publish queues an event for every session of shop. Events are dropped when the queue is full.
func (h *Hub) Publish(shop, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{
		Type:    eventType,
		Shop:    shop,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"shop": shop,
			"type": eventType,
		})
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{Shop: shop, Message: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"shop": shop,
			"type": eventType,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Stop ends Run and closes every session
func (h *Hub) Stop() {
	close(h.done)
}

// SessionCount returns the number of open sessions for shop
func (h *Hub) SessionCount(shop string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[shop])
}
