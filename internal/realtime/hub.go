package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// HubConfig tunes websocket fan-out
type HubConfig struct {
	SendBufferSize int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// Hub fans class events out to websocket subscribers
type Hub struct {
	cfg      HubConfig
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	classes map[string]map[*Subscription]struct{}
}

// Subscription receives encoded events for one class until closed
type Subscription struct {
	ClassID string
	C       <-chan []byte

	hub  *Hub
	send chan []byte
}

// NewHub creates an empty hub
func NewHub(cfg HubConfig) *Hub {
	if cfg.SendBufferSize < 1 {
		cfg.SendBufferSize = 32
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	h := &Hub{
		cfg:     cfg,
		classes: make(map[string]map[*Subscription]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Subscribe registers interest in classID
func (h *Hub) Subscribe(classID string) *Subscription {
	send := make(chan []byte, h.cfg.SendBufferSize)
	sub := &Subscription{ClassID: classID, C: send, hub: h, send: send}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.classes[classID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.classes[classID] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Close removes the subscription and closes its channel. Safe to call twice.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Publish delivers ev to every subscriber of its class. Subscribers whose
// buffer is full are dropped rather than blocking the publisher.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode event", "type", ev.Type, "error", err)
		return
	}

	var slow []*Subscription
	h.mu.RLock()
	for sub := range h.classes[ev.ClassID] {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		slog.Warn("dropping slow subscriber", "class_id", sub.ClassID)
		h.remove(sub)
	}
}

// Subscribers returns how many subscribers classID has
func (h *Hub) Subscribers(classID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.classes[classID])
}

// Close drops every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for classID, subs := range h.classes {
		for sub := range subs {
			close(sub.send)
		}
		delete(h.classes, classID)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.classes[sub.ClassID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.classes, sub.ClassID)
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeWS upgrades the request and streams classID events until the client goes away
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, classID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	sub := h.Subscribe(classID)
	slog.Info("class websocket connected", "class_id", classID, "subscribers", h.Subscribers(classID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, sub)
	}()

	h.readPump(conn)
	sub.Close()
	<-done

	slog.Info("class websocket disconnected", "class_id", classID)
}

// readPump discards client messages and keeps the read deadline fresh on pong
func (h *Hub) readPump(conn *websocket.Conn) {
	pongWait := 2 * h.cfg.PingInterval
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *Subscription) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("websocket write error", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
