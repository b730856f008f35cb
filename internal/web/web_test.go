package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokepet/internal/engine"
	"pokepet/internal/pet"
	"pokepet/internal/schedule"
)

type fixture struct {
	engine *engine.Engine
	sched  *schedule.Manual
	hub    *Hub
	srv    *httptest.Server
}

func newFixture(t *testing.T, lastSaved func() time.Time) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := NewHub(lastSaved, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(NewServer(hub, logger).Handler())
	t.Cleanup(srv.Close)

	sched := schedule.NewManual()
	e := engine.New(engine.DefaultConfig(), sched, logger)
	e.Subscribe(hub)
	e.Start(pet.New(25, pet.DisplayData{Name: "pikachu", ImageURL: "https://img.example/25.png"}))

	return &fixture{engine: e, sched: sched, hub: hub, srv: srv}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestStateEndpoint(t *testing.T) {
	saved := time.Now().Add(-3 * time.Minute)
	f := newFixture(t, func() time.Time { return saved })
	f.sched.Advance(pet.DefaultTickPeriod)

	resp, err := http.Get(f.srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Pikachu", body["name"])
	assert.Equal(t, "awake", body["mode"])
	assert.Equal(t, "Healthy", body["status"])
	assert.Equal(t, true, body["active"])
	assert.Equal(t, "3 minutes ago", body["savedAgo"])

	needs := body["needs"].(map[string]any)
	assert.Equal(t, 98.0, needs["hunger"])
}

func TestStateEndpointIsReadOnly(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Post(f.srv.URL+"/api/state", "application/json", strings.NewReader(`{"hunger":0}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, pet.Fresh(), f.engine.Snapshot().Needs)
}

func TestWebSocketStream(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t)

	hello := readMessage(t, conn)
	assert.Equal(t, KindState, hello["kind"])
	assert.Equal(t, "Pikachu", hello["state"].(map[string]any)["name"])
	assert.NotContains(t, hello["state"], "savedAgo")

	f.engine.Sleep()

	msg := readUntil(t, conn, func(m map[string]any) bool { return m["kind"] == "message" })
	assert.Equal(t, "Pikachu went to sleep. Zzz...", msg["message"])

	msg = readUntil(t, conn, func(m map[string]any) bool { return m["kind"] == "changed" })
	assert.Equal(t, "asleep", msg["state"].(map[string]any)["mode"])
}

// readUntil skips frames broadcast before the client registered.
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		if msg := readMessage(t, conn); match(msg) {
			return msg
		}
	}
	t.Fatal("expected frame never arrived")
	return nil
}

func TestWebSocketGameOver(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t)
	readMessage(t, conn)

	f.engine.Restore(pet.New(25, pet.DisplayData{Name: "pikachu"}), pet.Needs{Hunger: 1, Happiness: 50, Energy: 50}, false)
	f.sched.Advance(pet.DefaultTickPeriod)

	over := readUntil(t, conn, func(m map[string]any) bool { return m["kind"] == "game_over" })
	assert.Equal(t, "starved", over["cause"])
	assert.Equal(t, "hunger", over["gauge"])
	assert.Equal(t, "Ran Away", over["state"].(map[string]any)["status"])
}

func TestNotifyNeverBlocks(t *testing.T) {
	hub := NewHub(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.Notify(engine.Event{Kind: engine.EventChanged})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked without a running hub")
	}
}
