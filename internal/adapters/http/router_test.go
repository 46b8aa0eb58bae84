package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/hub"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:            "test",
		CORSOrigins:     "*",
		MaxParticipants: 50,
		IdleRoomTimeout: time.Hour,
		SweepInterval:   5 * time.Minute,
		PingInterval:    25 * time.Second,
		PingTimeout:     60 * time.Second,
		ReadLimit:       65536,
		MaxChatLen:      1000,
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *hub.Registry, *signal.Controller) {
	t.Helper()
	cfg := testConfig()
	registry := hub.NewRegistry(cfg.MaxParticipants, hub.SystemClock())
	ctrl := signal.NewController(registry, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(SetupRouter(ctx, cfg, registry, ctrl))
	t.Cleanup(srv.Close)
	t.Cleanup(cancel)
	return srv, registry, ctrl
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Status    string `json:"status"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Timestamp == 0 {
		t.Errorf("health = %+v", body)
	}
}

func TestStatsEmpty(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var st hub.Stats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.TotalRooms != 0 || st.TotalParticipants != 0 {
		t.Errorf("stats = %+v", st)
	}
}

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket.io/?EIO=4&transport=websocket"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendWS(t *testing.T, ws *websocket.Conn, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteJSON(wsEnvelope{Event: event, Data: data}); err != nil {
		t.Fatal(err)
	}
}

func readWS(t *testing.T, ws *websocket.Conn) wsEnvelope {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env wsEnvelope
	if err := ws.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocketJoinFlow(t *testing.T) {
	srv, registry, _ := newTestServer(t)

	alice := dialWS(t, srv)
	sendWS(t, alice, "join-room", map[string]any{
		"roomCode": "e2e", "peerId": "pA", "name": "Alice", "isHost": true,
	})

	env := readWS(t, alice)
	if env.Event != "room-joined" {
		t.Fatalf("event = %q, data = %s", env.Event, env.Data)
	}
	var joined struct {
		RoomCode string `json:"roomCode"`
		IsHost   bool   `json:"isHost"`
	}
	if err := json.Unmarshal(env.Data, &joined); err != nil {
		t.Fatal(err)
	}
	if joined.RoomCode != "e2e" || !joined.IsHost {
		t.Errorf("room-joined = %+v", joined)
	}

	bob := dialWS(t, srv)
	sendWS(t, bob, "join-room", map[string]any{
		"roomCode": "E2E", "peerId": "pB", "name": "Bob",
	})
	if env := readWS(t, bob); env.Event != "room-joined" {
		t.Fatalf("bob join: %q %s", env.Event, env.Data)
	}

	// Alice hears about Bob.
	if env := readWS(t, alice); env.Event != "participant-joined" {
		t.Fatalf("alice got %q", env.Event)
	}
	if env := readWS(t, alice); env.Event != "participants-update" {
		t.Fatalf("alice got %q", env.Event)
	}

	// Relay travels only to the addressee and carries the real sender.
	sendWS(t, bob, "webrtc-offer", map[string]any{
		"to": "pA", "offer": map[string]any{"sdp": "v=0"},
	})
	env = readWS(t, alice)
	if env.Event != "webrtc-offer" {
		t.Fatalf("alice got %q", env.Event)
	}
	var offer struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.Unmarshal(env.Data, &offer); err != nil {
		t.Fatal(err)
	}
	if offer.From != "pB" || offer.To != "pA" {
		t.Errorf("relay = %+v", offer)
	}

	st := registry.Stats()
	if st.TotalRooms != 1 || st.TotalParticipants != 2 {
		t.Errorf("stats = %+v", st)
	}

	// Closing Bob's socket runs the departure path.
	bob.Close()
	if env := readWS(t, alice); env.Event != "participant-left" {
		t.Fatalf("alice got %q", env.Event)
	}
	if env := readWS(t, alice); env.Event != "participants-update" {
		t.Fatalf("alice got %q", env.Event)
	}
}

func TestShutdownClosesLiveConnections(t *testing.T) {
	srv, registry, ctrl := newTestServer(t)

	ws := dialWS(t, srv)
	sendWS(t, ws, "join-room", map[string]any{
		"roomCode": "bye", "peerId": "p1", "name": "n", "isHost": true,
	})
	if env := readWS(t, ws); env.Event != "room-joined" {
		t.Fatalf("join: %q", env.Event)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctrl.Shutdown(shutdownCtx)

	// The server closed the socket; the client's next read fails.
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("read succeeded after shutdown")
	}
	// The reader ran the departure path before draining.
	if st := registry.Stats(); st.TotalRooms != 0 {
		t.Errorf("rooms after shutdown = %d", st.TotalRooms)
	}
}

func TestStatsAfterJoin(t *testing.T) {
	srv, _, _ := newTestServer(t)

	ws := dialWS(t, srv)
	sendWS(t, ws, "join-room", map[string]any{
		"roomCode": "stats", "peerId": "p1", "name": "n", "isHost": true,
	})
	if env := readWS(t, ws); env.Event != "room-joined" {
		t.Fatalf("join: %q", env.Event)
	}

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var st hub.Stats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.TotalRooms != 1 || st.TotalParticipants != 1 || st.RoomsBySize["1"] != 1 {
		t.Errorf("stats = %+v", st)
	}
}
