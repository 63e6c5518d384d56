package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"community-service/internal/authz"
	"community-service/internal/models"
	"community-service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client merepresentasikan klien WebSocket yang sudah login.
type Client struct {
	Conn      Conn
	Principal authz.Principal
	Mu        sync.Mutex
}

// Hub mengelola koneksi WebSocket dan menyebarkan event task.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.TaskEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.TaskEvent, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Register and Unregister return immediately once Run has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Conn.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish never blocks the request that produced the event; when the
// buffer is full the event is dropped and logged.
func (h *Hub) Publish(ev models.TaskEvent) {
	select {
	case h.broadcast <- ev:
	default:
		logger.SystemLogger.Warn("Task event dropped", zap.String("type", string(ev.Type)), zap.Int("task_id", ev.TaskID))
	}
}

// Run menjalankan loop Hub sampai ctx selesai, lalu menutup semua koneksi.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			h.drop(client)
		case ev := <-h.broadcast:
			h.send(ev)
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Conn.Close()
	}
}

func (h *Hub) send(ev models.TaskEvent) {
	message, err := json.Marshal(ev)
	if err != nil {
		logger.ErrorLogger.Error("Encode task event", zap.Error(err))
		return
	}
	for client := range h.clients {
		if !authz.Allow(client.Principal, authz.ReadTask, ev.StaffUserID, ev.ClientUserID) {
			continue
		}
		client.Mu.Lock()
		err := client.Conn.WriteMessage(websocket.TextMessage, message)
		client.Mu.Unlock()
		if err != nil {
			h.drop(client)
		}
	}
}
