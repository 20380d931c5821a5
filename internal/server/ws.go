package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/formcheck/internal/posture"
	"github.com/ayusman/formcheck/internal/server/api"
	"github.com/gorilla/websocket"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// feedMessage is the envelope for every message on /api/feed.
type feedMessage struct {
	Type       string              `json:"type"`
	Assessment *posture.Assessment `json:"assessment,omitempty"`
	Exercise   string              `json:"exercise,omitempty"`
	Error      string              `json:"error,omitempty"`
	Timestamp  int64               `json:"timestamp"`
}

// clientMessage is what a client may send: {"type":"select","exercise":"plank"}.
type clientMessage struct {
	Type     string `json:"type"`
	Exercise string `json:"exercise"`
}

// FeedHub broadcasts live assessments to WebSocket clients. It is an app.Sink.
type FeedHub struct {
	controller api.Controller
	clients    map[*websocket.Conn]bool
	mu         sync.RWMutex
	// writeMu serializes writes; a gorilla connection allows one concurrent writer.
	writeMu sync.Mutex
}

// NewFeedHub creates a FeedHub. With a controller, clients may switch the exercise
// and receive the latest assessment on connect.
func NewFeedHub(controller api.Controller) *FeedHub {
	return &FeedHub{
		controller: controller,
		clients:    make(map[*websocket.Conn]bool),
	}
}

// SetController attaches the pipeline after construction, since the pipeline
// itself takes the hub as a sink.
func (h *FeedHub) SetController(c api.Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controller = c
}

func (h *FeedHub) getController() api.Controller {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.controller
}

// Clients returns the number of connected clients.
func (h *FeedHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FeedHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	if c := h.getController(); c != nil {
		if last, ok := c.Last(); ok {
			h.send(conn, feedMessage{Type: "assessment", Assessment: &last})
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.send(conn, feedMessage{Type: "error", Error: "invalid message"})
			continue
		}
		h.handle(conn, msg)
	}
}

// handle applies one client message.
func (h *FeedHub) handle(conn *websocket.Conn, msg clientMessage) {
	switch msg.Type {
	case "select":
		c := h.getController()
		if c == nil {
			h.send(conn, feedMessage{Type: "error", Error: "exercise selection unavailable"})
			return
		}
		if err := c.SetExercise(msg.Exercise); err != nil {
			h.send(conn, feedMessage{Type: "error", Error: err.Error()})
			return
		}
		h.broadcast(feedMessage{Type: "exercise", Exercise: c.Exercise().Slug()})
	default:
		h.send(conn, feedMessage{Type: "error", Error: "unknown message type"})
	}
}

// Publish broadcasts an assessment to every client.
func (h *FeedHub) Publish(a posture.Assessment) {
	h.broadcast(feedMessage{Type: "assessment", Assessment: &a})
}

func (h *FeedHub) broadcast(msg feedMessage) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.send(conn, msg)
	}
}

// send writes msg to one client. A failed write closes the connection, which
// ends its read loop and unregisters it.
func (h *FeedHub) send(conn *websocket.Conn, msg feedMessage) {
	msg.Timestamp = time.Now().UnixMilli()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		conn.Close()
	}
}
