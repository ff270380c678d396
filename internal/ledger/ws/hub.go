package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/pkg/contracts/events"
)

// ClientMsg representa uma mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type    string `json:"type"`     // subscribe | unsubscribe | ping
	EventID int64  `json:"event_id"` // requerido em subscribe/unsubscribe
}

// client serializa as escritas: o gorilla aceita um único writer por conexão
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msgType int, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(msgType, b)
}

// Hub gerencia conexões WebSocket e assinaturas por Event
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	// eventID -> conjunto de clientes
	subs map[int64]map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[int64]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket.
// Cada cliente pode se inscrever em múltiplos Events.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer func() {
		h.drop(c)
		conn.Close()
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.EventID]; !ok {
				h.subs[msg.EventID] = make(map[*client]struct{})
			}
			h.subs[msg.EventID][c] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("ws subscribed", zap.Int64("event_id", msg.EventID), zap.Int("subscribers", h.Subscribers(msg.EventID)))
			_ = c.write(websocket.TextMessage, ack("subscribed", msg.EventID))
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.EventID]; ok {
				delete(m, c)
				if len(m) == 0 {
					delete(h.subs, msg.EventID)
				}
			}
			h.mu.Unlock()
			h.log.Debug("ws unsubscribed", zap.Int64("event_id", msg.EventID), zap.Int("subscribers", h.Subscribers(msg.EventID)))
			_ = c.write(websocket.TextMessage, ack("unsubscribed", msg.EventID))
		case "ping":
			_ = c.write(websocket.TextMessage, []byte(`{"type":"pong"}`))
		}
	}
}

func ack(typ string, eventID int64) []byte {
	b, _ := json.Marshal(map[string]any{"type": typ, "event_id": eventID})
	return b
}

// drop remove o cliente de todas as assinaturas ao desconectar
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
}

// Subscribers devolve quantos clientes acompanham o Event
func (h *Hub) Subscribers(eventID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[eventID])
}

// Broadcast envia o envelope para os clientes inscritos no Event correspondente
func (h *Hub) Broadcast(env events.Envelope) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[env.EventID]))
	for c := range h.subs[env.EventID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(env)
	if err != nil {
		h.log.Warn("ws marshal failed", zap.Error(err))
		return
	}
	for _, c := range targets {
		if err := c.write(websocket.TextMessage, b); err != nil {
			h.log.Debug("ws write failed", zap.Int64("event_id", env.EventID), zap.Error(err))
		}
	}
}
