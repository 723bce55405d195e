// Package stream publishes race snapshots to external renderers over
// websockets.
package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/ramp"
)

const (
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller is the part of a scenario that remote clients may drive.
type Controller interface {
	Start()
	Restart()
	Reconfigure(a dynamo.Vec3, separation float64) error
	Geometry() *ramp.Set
}

// Message is the envelope of everything the hub sends.
type Message struct {
	Type     string           `json:"type"`
	Snapshot *dynamo.Snapshot `json:"snapshot,omitempty"`
	Layout   *Layout          `json:"layout,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Command is what clients send to control the race.
type Command struct {
	Cmd        string      `json:"cmd"`
	Anchor     dynamo.Vec3 `json:"anchor,omitempty"`
	Separation float64     `json:"separation,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
	ctrl    Controller
	logger  *log.Logger
	every   int
	closed  bool
}

func NewHub(ctrl Controller) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		ctrl:    ctrl,
		logger:  log.New(io.Discard),
		every:   1,
	}
}

func (h *Hub) SetLogger(l *log.Logger) {
	if l != nil {
		h.logger = l
	}
}

// SetEvery broadcasts only every nth step. All-stopped frames always go out.
func (h *Hub) SetEvery(n int) {
	if n < 1 {
		n = 1
	}
	h.every = n
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler serves /ws and /config.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/config", h.serveLayout)
	return mux
}

// OnStep broadcasts the snapshot to every connected client.
func (h *Hub) OnStep(s dynamo.Snapshot) {
	if s.Step%h.every != 0 && !s.AllStopped {
		return
	}
	h.publish(Message{Type: "snapshot", Snapshot: &s})
}

func (h *Hub) publish(m Message) {
	msg, err := json.Marshal(m)
	if err != nil {
		h.logger.Error("encode message", "type", m.Type, "err", err)
		return
	}
	h.broadcast(msg)
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping slow client", "client", c.id)
			h.removeLocked(c)
		}
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), id: r.RemoteAddr}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Info("client connected", "client", c.id)

	if h.ctrl != nil {
		layout := NewLayout(h.ctrl.Geometry())
		if msg, err := json.Marshal(Message{Type: "layout", Layout: &layout}); err == nil {
			c.send <- msg
		}
	}

	go h.readPump(c)
	go h.writePump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
		c.conn.Close()
		h.logger.Info("client disconnected", "client", c.id)
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.reply(c, Message{Type: "error", Error: err.Error()})
			continue
		}
		h.handle(c, cmd)
	}
}

func (h *Hub) handle(c *client, cmd Command) {
	if h.ctrl == nil {
		h.reply(c, Message{Type: "error", Error: "read-only stream"})
		return
	}
	switch cmd.Cmd {
	case "start":
		h.ctrl.Start()
	case "restart":
		h.ctrl.Restart()
	case "reconfigure":
		if err := h.ctrl.Reconfigure(cmd.Anchor, cmd.Separation); err != nil {
			h.reply(c, Message{Type: "error", Error: err.Error()})
			return
		}
		layout := NewLayout(h.ctrl.Geometry())
		h.publish(Message{Type: "layout", Layout: &layout})
	default:
		h.reply(c, Message{Type: "error", Error: "unknown command: " + cmd.Cmd})
	}
	h.logger.Debug("command", "client", c.id, "cmd", cmd.Cmd)
}

func (h *Hub) reply(c *client, m Message) {
	msg, err := json.Marshal(m)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) serveLayout(w http.ResponseWriter, r *http.Request) {
	if h.ctrl == nil {
		http.Error(w, "no scenario", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(NewLayout(h.ctrl.Geometry()))
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}
