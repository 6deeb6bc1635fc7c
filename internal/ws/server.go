// Package ws exposes the coordinator over a websocket endpoint plus the
// operational HTTP surface (room listing, admin stats, metrics, health).
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vietchess/chess-server/internal/coordinator"
	"github.com/vietchess/chess-server/internal/directory"
	"github.com/vietchess/chess-server/internal/metrics"
	"github.com/vietchess/chess-server/internal/obslog"
	"github.com/vietchess/chess-server/internal/outcome"
	"github.com/vietchess/chess-server/internal/room"
	"github.com/vietchess/chess-server/pkg/wire"
)

type Server struct {
	coord *coordinator.Coordinator
	reg   *room.Registry
	dir   *directory.Directory
	met   *metrics.Metrics

	allowedOrigin string
	connections   atomic.Int64
}

func NewServer(coord *coordinator.Coordinator, reg *room.Registry, dir *directory.Directory, met *metrics.Metrics, allowedOrigin string) *Server {
	return &Server{coord: coord, reg: reg, dir: dir, met: met, allowedOrigin: allowedOrigin}
}

// Routes builds the HTTP mux served by the process.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/rooms", s.handleRooms)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (s *Server) acceptOptions() *websocket.AcceptOptions {
	if s.allowedOrigin == "" {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: []string{s.allowedOrigin}}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, s.acceptOptions())
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.Error(err))
		return
	}

	client := newClient(conn)
	s.connections.Add(1)
	s.met.ConnOpened()
	obslog.L().Info("ws_connected", zap.String("conn_id", client.ID()))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.writeLoop(ctx)

	for {
		var env wire.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			break
		}
		s.dispatch(ctx, client, env)
	}

	client.close(websocket.StatusNormalClosure, "bye")
	s.connections.Add(-1)
	s.met.ConnClosed()

	// A vanished connection mid-game is a loss for the vanished side.
	dctx, dcancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer dcancel()
	s.coord.Disconnect(dctx, client)
	obslog.L().Info("ws_disconnected", zap.String("conn_id", client.ID()))
}

func (s *Server) dispatch(ctx context.Context, client *Client, env wire.Envelope) {
	badPayload := func() {
		client.Send(wire.EvError, wire.Error{Message: "Malformed message payload."})
	}

	switch env.Event {
	case wire.EvCreateGame:
		var req wire.CreateGame
		if err := json.Unmarshal(env.Data, &req); err != nil {
			badPayload()
			return
		}
		s.coord.CreateRoom(ctx, client, req)
	case wire.EvJoinGame:
		var req wire.JoinGame
		if err := json.Unmarshal(env.Data, &req); err != nil {
			badPayload()
			return
		}
		s.coord.JoinRoom(ctx, client, req)
	case wire.EvMove:
		var mv wire.Move
		if err := json.Unmarshal(env.Data, &mv); err != nil {
			badPayload()
			return
		}
		s.coord.Move(client, mv)
	case wire.EvUpdatePGN:
		var req wire.UpdatePGN
		if err := json.Unmarshal(env.Data, &req); err != nil {
			badPayload()
			return
		}
		s.coord.UpdatePGN(client, req.PGN)
	case wire.EvLeaveRoom:
		var req wire.LeaveRoom
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &req); err != nil {
				badPayload()
				return
			}
		}
		s.coord.Leave(ctx, client, req.Code)
	case wire.EvOfferDraw:
		s.coord.OfferDraw(client)
	case wire.EvDeclineDraw:
		s.coord.DeclineDraw(client)
	case wire.EvAcceptDraw:
		s.coord.AcceptDraw(ctx, client, decodeReport(env.Data))
	case wire.EvResign:
		s.coord.Resign(ctx, client, decodeReport(env.Data))
	case wire.EvCheckmate:
		s.coord.ReportCheckmate(ctx, client, decodeReport(env.Data))
	case wire.EvStalemate:
		s.coord.ReportDraw(ctx, client, outcome.TriggerStalemate, decodeReport(env.Data))
	case wire.EvRepetition:
		s.coord.ReportDraw(ctx, client, outcome.TriggerRepetition, decodeReport(env.Data))
	case wire.EvMaterial:
		s.coord.ReportDraw(ctx, client, outcome.TriggerMaterial, decodeReport(env.Data))
	case wire.EvDrawGeneric:
		s.coord.ReportDraw(ctx, client, outcome.TriggerDrawAgreed, decodeReport(env.Data))
	default:
		obslog.L().Debug("ws_unknown_event", zap.String("conn_id", client.ID()), zap.String("event", env.Event))
		client.Send(wire.EvError, wire.Error{Message: "Unknown event: " + env.Event})
	}
}

// decodeReport tolerates absent or malformed report bodies; a termination
// without a report still terminates.
func decodeReport(data json.RawMessage) wire.GameReport {
	var rep wire.GameReport
	if len(data) > 0 {
		_ = json.Unmarshal(data, &rep)
	}
	return rep
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.dir == nil {
		_, _ = w.Write([]byte("[]"))
		return
	}
	entries, err := s.dir.List(r.Context())
	if err != nil {
		obslog.L().Error("room_list_error", zap.Error(err))
		http.Error(w, `{"error":"room listing unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	if entries == nil {
		entries = []*directory.Entry{}
	}
	_ = json.NewEncoder(w).Encode(entries)
}

type statsResponse struct {
	Timestamp        time.Time          `json:"timestamp"`
	TotalRooms       int                `json:"totalRooms"`
	TotalConnections int64              `json:"totalConnections"`
	Rooms            []room.StatusEntry `json:"rooms"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := statsResponse{
		Timestamp:        time.Now(),
		TotalRooms:       s.reg.Len(),
		TotalConnections: s.connections.Load(),
		Rooms:            s.reg.Status(),
	}
	_ = json.NewEncoder(w).Encode(resp)
}
