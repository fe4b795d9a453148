package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/report"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub broadcasts every frame as JSON to connected websocket clients. It is
// a display: the controller starts it, feeds it frames and stops it.
type Hub struct {
	lo *slog.Logger

	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewHub(lo *slog.Logger) *Hub {
	return &Hub{
		lo:         lo,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Start(ctx context.Context) error {
	go h.run(ctx)
	return nil
}

// Show queues the frame for broadcast. A full queue drops the frame.
func (h *Hub) Show(f report.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
		h.lo.Debug("dropping frame, broadcast queue full")
	}
	return nil
}

func (h *Hub) Stop() error {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.quit:
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.lo.Debug("websocket client registered", "total", h.Clients())

		case client := <-h.unregister:
			h.drop(client)
			h.lo.Debug("websocket client unregistered", "total", h.Clients())

		case message := <-h.broadcast:
			h.mutex.RLock()
			var failed []*websocket.Conn
			for client := range h.clients {
				_ = client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.lo.Debug("broadcast failed", "error", err)
					failed = append(failed, client)
				}
			}
			h.mutex.RUnlock()
			for _, c := range failed {
				h.drop(c)
			}
		}
	}
}

func (h *Hub) drop(c *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

// ServeWS upgrades the request and subscribes the client to frames.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lo.Warn("websocket upgrade failed", "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Drain client messages until it goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case h.unregister <- conn:
				case <-h.done:
				}
				return
			}
		}
	}()
}
