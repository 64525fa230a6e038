package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/aijobhunter/jobhunter/internal/auth"
	"github.com/aijobhunter/jobhunter/internal/model"
)

func mockClient(hub *Hub, userID int64) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)
	c3 := mockClient(hub, 2)
	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount(1); got != 2 {
		t.Fatalf("ClientCount(1) = %d, want 2", got)
	}
	if got := hub.ClientCount(2); got != 1 {
		t.Fatalf("ClientCount(2) = %d, want 1", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(1); got != 1 {
		t.Fatalf("ClientCount(1) after unregister = %d, want 1", got)
	}

	hub.Unregister(c2)
	hub.Unregister(c3)
	if got := hub.ClientCount(1) + hub.ClientCount(2); got != 0 {
		t.Fatalf("clients left = %d, want 0", got)
	}
}

func TestPublishOnlyReachesOwner(t *testing.T) {
	hub := NewHub(slog.Default())

	mine := mockClient(hub, 7)
	other := mockClient(hub, 8)
	hub.Register(mine)
	hub.Register(other)
	defer hub.Unregister(mine)
	defer hub.Unregister(other)

	hub.Publish(7, NewMessage("subscription", "activated", "order_7_1", map[string]any{"tier": "pro"}))

	select {
	case data := <-mine.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "subscription_activated" {
			t.Errorf("Type = %q, want subscription_activated", got.Type)
		}
		if got.ID != "order_7_1" {
			t.Errorf("ID = %q, want order_7_1", got.ID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	select {
	case <-other.send:
		t.Fatal("other user received a message")
	default:
	}
}

func TestPublishFullBufferDrops(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := 0; i < sendBufferSize+3; i++ {
		hub.Publish(1, NewMessage("test", "fill", "", nil))
	}

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}
}

func TestPublishNoClients(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Publish(42, NewMessage("order", "failed", "x", nil))
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			c := mockClient(hub, uid)
			hub.Register(c)
			hub.Publish(uid, NewMessage("test", "concurrent", "", nil))
			hub.Unregister(c)
		}(int64(i % 3))
	}
	wg.Wait()

	for uid := int64(0); uid < 3; uid++ {
		if got := hub.ClientCount(uid); got != 0 {
			t.Errorf("ClientCount(%d) = %d, want 0", uid, got)
		}
	}
}

func TestHandleWebSocketRequiresUser(t *testing.T) {
	hub := NewHub(slog.Default())
	rec := httptest.NewRecorder()
	hub.HandleWebSocket("http://localhost:8080")(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleWebSocketDelivers(t *testing.T) {
	hub := NewHub(slog.Default())
	h := hub.HandleWebSocket("http://localhost:8080")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithAuth(r.Context(), auth.AuthContext{User: &model.User{ID: 3}})
		h(w, r.WithContext(ctx))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(3) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(3, NewMessage("resume", "ingested", "9", nil))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "resume_ingested" || got.ID != "9" {
		t.Errorf("got %+v, want resume_ingested id 9", got)
	}
}
