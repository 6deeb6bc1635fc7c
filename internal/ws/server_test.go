package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vietchess/chess-server/internal/coordinator"
	"github.com/vietchess/chess-server/internal/room"
	"github.com/vietchess/chess-server/internal/store"
	"github.com/vietchess/chess-server/pkg/wire"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	reg := room.NewRegistry()
	coord := coordinator.New(coordinator.Options{
		Registry:   reg,
		Store:      store.NewMemory(),
		StartDelay: 5 * time.Millisecond,
	})
	srv := NewServer(coord, reg, nil, nil, "")
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	env := wire.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		env.Data = data
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, env); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) wire.Envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var env wire.Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestCreateRoomOverWebSocket(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, wire.EvCreateGame, wire.CreateGame{Code: "ws01", Username: "alice"})
	env := recv(t, conn)
	if env.Event != wire.EvRoomCreated {
		t.Fatalf("event = %q, want roomCreated", env.Event)
	}
	var rc wire.RoomCreated
	if err := json.Unmarshal(env.Data, &rc); err != nil {
		t.Fatal(err)
	}
	if rc.Code != "WS01" || rc.White != "alice" || rc.HasPassword {
		t.Fatalf("unexpected roomCreated: %+v", rc)
	}
}

func TestJoinAndStartOverWebSocket(t *testing.T) {
	_, ts := newTestServer(t)
	creator := dial(t, ts)
	joiner := dial(t, ts)

	send(t, creator, wire.EvCreateGame, wire.CreateGame{Code: "ws02", Username: "alice"})
	if env := recv(t, creator); env.Event != wire.EvRoomCreated {
		t.Fatalf("event = %q", env.Event)
	}

	send(t, joiner, wire.EvJoinGame, wire.JoinGame{Code: "ws02", Username: "bob"})
	if env := recv(t, joiner); env.Event != wire.EvMatchFound {
		t.Fatalf("event = %q, want matchFound", env.Event)
	}
	// matchFound then startGame, in order, on the creator too.
	if env := recv(t, creator); env.Event != wire.EvMatchFound {
		t.Fatalf("event = %q, want matchFound", env.Event)
	}
	if env := recv(t, creator); env.Event != wire.EvStartGame {
		t.Fatalf("event = %q, want startGame", env.Event)
	}
}

func TestUnknownEventRejected(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, "teleport", nil)
	env := recv(t, conn)
	if env.Event != wire.EvError {
		t.Fatalf("event = %q, want error", env.Event)
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	send(t, conn, wire.EvCreateGame, wire.CreateGame{Code: "st01", Username: "alice"})
	recv(t, conn) // roomCreated

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalRooms != 1 || len(stats.Rooms) != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Rooms[0].Code != "ST01" || stats.Rooms[0].White != "alice" {
		t.Fatalf("unexpected room entry: %+v", stats.Rooms[0])
	}
	if stats.TotalConnections != 1 {
		t.Fatalf("TotalConnections = %d, want 1", stats.TotalConnections)
	}
}

func TestRoomsEndpointWithoutDirectory(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/rooms")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var entries []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty listing, got %d entries", len(entries))
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
