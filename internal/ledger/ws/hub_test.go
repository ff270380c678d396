package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

func readJSON(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := c.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestHubSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	defer c.Close()

	if err := c.WriteJSON(ClientMsg{Type: "subscribe", EventID: 7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack map[string]any
	readJSON(t, c, &ack)
	if ack["type"] != "subscribed" {
		t.Fatalf("ack=%v", ack)
	}
	if n := hub.Subscribers(7); n != 1 {
		t.Fatalf("subscribers=%d want=1", n)
	}

	payload, err := events.Wrap("event_changed", 7, events.EventChanged{EventID: 7, Transition: "resolve"})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	// evento de outro Event não deve chegar
	other, _ := events.Wrap("event_changed", 8, events.EventChanged{EventID: 8})
	dispatch(hub, other, zap.NewNop())
	dispatch(hub, payload, zap.NewNop())

	var env events.Envelope
	readJSON(t, c, &env)
	if env.Type != "event_changed" || env.EventID != 7 {
		t.Fatalf("envelope=%+v", env)
	}
	var ec events.EventChanged
	if err := json.Unmarshal(env.Payload, &ec); err != nil || ec.Transition != "resolve" {
		t.Fatalf("payload=%s err=%v", env.Payload, err)
	}
}

func TestHubPingAndUnsubscribe(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	defer c.Close()

	_ = c.WriteJSON(ClientMsg{Type: "ping"})
	var pong map[string]any
	readJSON(t, c, &pong)
	if pong["type"] != "pong" {
		t.Fatalf("pong=%v", pong)
	}

	_ = c.WriteJSON(ClientMsg{Type: "subscribe", EventID: 3})
	var ack map[string]any
	readJSON(t, c, &ack)
	_ = c.WriteJSON(ClientMsg{Type: "unsubscribe", EventID: 3})
	readJSON(t, c, &ack)
	if ack["type"] != "unsubscribed" {
		t.Fatalf("ack=%v", ack)
	}
	if n := hub.Subscribers(3); n != 0 {
		t.Fatalf("subscribers=%d want=0", n)
	}
}
