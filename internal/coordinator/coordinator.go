// Package coordinator drives match lifecycle: room creation and joining, the
// start countdown, move relay, draw negotiation, termination and the stale
// room sweep. Persistence of settled matches lives in settle.go.
package coordinator

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vietchess/chess-server/internal/directory"
	"github.com/vietchess/chess-server/internal/metrics"
	"github.com/vietchess/chess-server/internal/msgcat"
	"github.com/vietchess/chess-server/internal/obslog"
	"github.com/vietchess/chess-server/internal/outcome"
	"github.com/vietchess/chess-server/internal/room"
	"github.com/vietchess/chess-server/internal/store"
	"github.com/vietchess/chess-server/pkg/wire"
)

// Options wires the coordinator's collaborators. Registry and Store are
// required; Directory, Catalog and Metrics may be nil.
type Options struct {
	Registry  *room.Registry
	Store     store.Store
	Directory *directory.Directory
	Catalog   *msgcat.Catalog
	Metrics   *metrics.Metrics

	StartDelay   time.Duration
	RoomMaxAge   time.Duration
	ReapInterval time.Duration
}

type Coordinator struct {
	reg *room.Registry
	st  store.Store
	dir *directory.Directory
	cat *msgcat.Catalog
	met *metrics.Metrics

	startDelay   time.Duration
	roomMaxAge   time.Duration
	reapInterval time.Duration

	mu     sync.Mutex
	byConn map[string]string // connection ID → room code
}

func New(opts Options) *Coordinator {
	c := &Coordinator{
		reg:          opts.Registry,
		st:           opts.Store,
		dir:          opts.Directory,
		cat:          opts.Catalog,
		met:          opts.Metrics,
		startDelay:   opts.StartDelay,
		roomMaxAge:   opts.RoomMaxAge,
		reapInterval: opts.ReapInterval,
		byConn:       make(map[string]string),
	}
	if c.startDelay <= 0 {
		c.startDelay = 5 * time.Second
	}
	if c.roomMaxAge <= 0 {
		c.roomMaxAge = 2 * time.Hour
	}
	if c.reapInterval <= 0 {
		c.reapInterval = time.Minute
	}
	return c
}

func (c *Coordinator) bind(connID, code string) {
	c.mu.Lock()
	c.byConn[connID] = code
	c.mu.Unlock()
}

func (c *Coordinator) unbind(connID string) {
	c.mu.Lock()
	delete(c.byConn, connID)
	c.mu.Unlock()
}

func (c *Coordinator) roomOf(connID string) (string, bool) {
	c.mu.Lock()
	code, ok := c.byConn[connID]
	c.mu.Unlock()
	return code, ok
}

func (c *Coordinator) sendError(conn room.Conn, key, fallback string) {
	conn.Send(wire.EvError, wire.Error{Message: c.cat.Text(key, nil, fallback)})
}

// CreateRoom registers a room with the caller seated as white and announces
// it to the directory. Re-creates of an unstarted room by its own creator
// refresh the seat instead of failing.
func (c *Coordinator) CreateRoom(ctx context.Context, conn room.Conn, req wire.CreateGame) {
	code := room.Normalize(req.Code)
	creator := &room.Participant{Conn: conn, Username: req.Username, UserID: req.UserID}

	s, err := c.reg.Create(code, creator, req.Password)
	if err != nil {
		obslog.L().Warn("room_create_error", zap.String("code", code), zap.Error(err))
		c.sendError(conn, "error.room_exists", "A room with this code already exists.")
		return
	}
	c.bind(conn.ID(), code)

	s.Lock()
	hasPassword := s.Password != ""
	createdAt := s.CreatedAt
	s.Unlock()

	if c.dir != nil {
		e := &directory.Entry{
			Code:        code,
			Creator:     req.Username,
			HasPassword: hasPassword,
			CreatedAt:   createdAt,
		}
		if err := c.dir.Announce(ctx, e); err != nil {
			obslog.L().Warn("room_announce_error", zap.String("code", code), zap.Error(err))
		}
	}

	conn.Send(wire.EvRoomCreated, wire.RoomCreated{Code: code, White: req.Username, HasPassword: hasPassword})
	c.met.SetRooms(c.reg.Len())
	obslog.L().Info("room_created",
		zap.String("code", code),
		zap.String("username", req.Username),
		zap.Bool("has_password", hasPassword))
}

// JoinRoom seats the caller as black, announces the pairing and schedules the
// start countdown. Room state is re-validated when the countdown fires.
func (c *Coordinator) JoinRoom(ctx context.Context, conn room.Conn, req wire.JoinGame) {
	code := room.Normalize(req.Code)
	s, err := c.reg.Get(code)
	if err != nil {
		c.sendError(conn, "error.room_not_found", "Room not found.")
		return
	}

	s.Lock()
	switch {
	case s.Ended:
		s.Unlock()
		c.sendError(conn, "error.room_not_found", "Room not found.")
		return
	case s.Password != "" && s.Password != req.Password:
		s.Unlock()
		c.sendError(conn, "error.bad_password", "Incorrect room password.")
		obslog.L().Warn("room_join_bad_password", zap.String("code", code), zap.String("username", req.Username))
		return
	case s.White != nil && s.White.Conn != nil && s.White.Conn.ID() == conn.ID():
		s.Unlock()
		c.sendError(conn, "error.self_join", "You cannot play against yourself.")
		return
	case s.White != nil && s.White.Durable() && s.White.UserID == strings.TrimSpace(req.UserID):
		// Same durable identity on a second connection is still self-play.
		s.Unlock()
		c.sendError(conn, "error.self_join", "You cannot play against yourself.")
		return
	case s.Black != nil && s.Black.Conn != nil && s.Black.Conn.ID() != conn.ID():
		s.Unlock()
		c.sendError(conn, "error.room_full", "This room already has two players.")
		return
	}

	s.Black = &room.Participant{Conn: conn, Username: req.Username, UserID: req.UserID}
	white, black := "", req.Username
	if s.White != nil {
		white = s.White.Username
	}
	msg := c.cat.Text("match.found", map[string]string{"White": white, "Black": black},
		"Match found: "+white+" vs "+black+".")
	s.Broadcast(wire.EvMatchFound, wire.MatchFound{White: white, Black: black, Message: msg})
	s.Unlock()

	c.bind(conn.ID(), code)
	if c.dir != nil {
		if err := c.dir.SetStarted(ctx, code); err != nil {
			obslog.L().Warn("room_directory_error", zap.String("code", code), zap.Error(err))
		}
	}
	obslog.L().Info("room_joined", zap.String("code", code), zap.String("username", req.Username))

	time.AfterFunc(c.startDelay, func() { c.startGame(code) })
}

// startGame fires after the countdown. The room may have emptied or ended in
// the meantime, so every precondition is checked again.
func (c *Coordinator) startGame(code string) {
	s, err := c.reg.Get(code)
	if err != nil {
		return
	}
	s.Lock()
	defer s.Unlock()
	if s.Ended || s.Started || s.White == nil || s.Black == nil {
		return
	}
	s.Started = true
	s.StartedAt = time.Now()
	white, black := s.White.Username, s.Black.Username
	msg := c.cat.Text("game.start", map[string]string{"White": white, "Black": black},
		"Both players are connected.")
	s.Broadcast(wire.EvStartGame, wire.StartGame{White: white, Black: black, Message: msg})
	obslog.L().Info("game_started", zap.String("code", code), zap.String("white", white), zap.String("black", black))
}

// Move relays a move to the opponent. The server trusts the clients' rules
// engines and does not validate legality.
func (c *Coordinator) Move(conn room.Conn, mv wire.Move) {
	s, _, ok := c.sessionFor(conn)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	if s.Ended {
		return
	}
	if !s.Started || s.White == nil || s.Black == nil {
		c.sendError(conn, "error.not_started", "The game has not started yet.")
		return
	}
	if _, seated := s.SideOf(conn.ID()); !seated {
		c.sendError(conn, "error.not_in_room", "You are not part of this room.")
		return
	}
	s.Moves = append(s.Moves, mv)
	if mv.FEN != "" {
		s.FEN = mv.FEN
	}
	s.SendOpponent(conn.ID(), wire.EvNewMove, mv)
	c.met.MoveRelayed()
}

// UpdatePGN refreshes the server's copy of the notation.
func (c *Coordinator) UpdatePGN(conn room.Conn, pgn string) {
	s, _, ok := c.sessionFor(conn)
	if !ok {
		return
	}
	s.Lock()
	if !s.Ended {
		s.PGN = pgn
	}
	s.Unlock()
}

// OfferDraw relays a draw offer and remembers which side it came from.
func (c *Coordinator) OfferDraw(conn room.Conn) {
	s, side, ok := c.sessionFor(conn)
	if !ok || side == "" {
		return
	}
	s.Lock()
	defer s.Unlock()
	if s.Ended || !s.Started {
		return
	}
	s.DrawOfferFrom = side
	s.SendOpponent(conn.ID(), wire.EvDrawOffered, wire.DrawOffered{From: side})
	obslog.L().Info("draw_offered", zap.String("code", s.Code), zap.String("from", side))
}

// DeclineDraw clears the pending offer and tells the offerer.
func (c *Coordinator) DeclineDraw(conn room.Conn) {
	s, side, ok := c.sessionFor(conn)
	if !ok || side == "" {
		return
	}
	s.Lock()
	defer s.Unlock()
	if s.Ended || s.DrawOfferFrom == "" || s.DrawOfferFrom == side {
		return
	}
	s.DrawOfferFrom = ""
	s.SendOpponent(conn.ID(), wire.EvDrawDeclined, nil)
}

// AcceptDraw ends the game by agreement. It requires an open offer from the
// other side.
func (c *Coordinator) AcceptDraw(ctx context.Context, conn room.Conn, report wire.GameReport) {
	s, side, ok := c.sessionFor(conn)
	if !ok || side == "" {
		return
	}
	s.Lock()
	if s.Ended {
		s.Unlock()
		return
	}
	if s.DrawOfferFrom == "" || s.DrawOfferFrom == side {
		s.Unlock()
		c.sendError(conn, "error.no_draw_offer", "There is no draw offer to respond to.")
		return
	}
	s.DrawOfferFrom = ""
	s.Broadcast(wire.EvDrawAccepted, nil)
	s.Unlock()
	c.Terminate(ctx, s, outcome.TriggerDrawAgreed, "", report)
}

// requireInProgress gates terminal reports on the playing phase. A report
// before the countdown elapses is rejected so it cannot settle a game that
// never began; a report after the end is a no-op, the settlement gate
// already closed.
func (c *Coordinator) requireInProgress(conn room.Conn, s *room.Session) bool {
	s.Lock()
	started, ended := s.Started, s.Ended
	s.Unlock()
	if ended {
		return false
	}
	if !started {
		c.sendError(conn, "error.not_started", "The game has not started yet.")
		return false
	}
	return true
}

// Resign ends the game against the caller.
func (c *Coordinator) Resign(ctx context.Context, conn room.Conn, report wire.GameReport) {
	s, side, ok := c.sessionFor(conn)
	if !ok || side == "" {
		return
	}
	if !c.requireInProgress(conn, s) {
		return
	}
	c.Terminate(ctx, s, outcome.TriggerResign, outcome.Side(side), report)
}

// ReportCheckmate records a client-detected mate. The report names the
// winning side.
func (c *Coordinator) ReportCheckmate(ctx context.Context, conn room.Conn, report wire.GameReport) {
	s, _, ok := c.sessionFor(conn)
	if !ok {
		return
	}
	winner := outcome.Side(report.Winner)
	if !winner.Valid() {
		c.sendError(conn, "error.bad_winner", "Unknown winner side.")
		return
	}
	if !c.requireInProgress(conn, s) {
		return
	}
	c.Terminate(ctx, s, outcome.TriggerCheckmate, winner, report)
}

// ReportDraw records a client-detected drawn position.
func (c *Coordinator) ReportDraw(ctx context.Context, conn room.Conn, trigger outcome.Trigger, report wire.GameReport) {
	s, _, ok := c.sessionFor(conn)
	if !ok {
		return
	}
	if !c.requireInProgress(conn, s) {
		return
	}
	c.Terminate(ctx, s, trigger, "", report)
}

// Leave handles an explicit leaveRoom. Before the game starts the creator
// leaving closes the room while a guest leaving only frees the seat; once
// started, leaving is a disconnect loss.
func (c *Coordinator) Leave(ctx context.Context, conn room.Conn, code string) {
	if code == "" {
		code, _ = c.roomOf(conn.ID())
	}
	c.depart(ctx, conn, room.Normalize(code))
}

// Disconnect is synthesized by the transport when a connection drops.
func (c *Coordinator) Disconnect(ctx context.Context, conn room.Conn) {
	code, ok := c.roomOf(conn.ID())
	if !ok {
		return
	}
	c.depart(ctx, conn, code)
}

func (c *Coordinator) depart(ctx context.Context, conn room.Conn, code string) {
	defer c.unbind(conn.ID())

	s, err := c.reg.Get(code)
	if err != nil {
		return
	}

	s.Lock()
	if s.Ended {
		s.Unlock()
		return
	}
	side, seated := s.SideOf(conn.ID())
	if !seated {
		s.Unlock()
		return
	}

	if s.Started {
		s.Unlock()
		c.Terminate(ctx, s, outcome.TriggerDisconnect, outcome.Side(side), wire.GameReport{})
		return
	}

	// Pre-start departures never settle.
	if side == string(outcome.White) {
		s.MarkEnded()
		reason := c.cat.Text("room.closed_abandoned", nil, "Room closed because the creator left before the game started.")
		s.SendOpponent(conn.ID(), wire.EvRoomClosed, wire.RoomClosed{Reason: reason})
		var blackConn string
		if s.Black != nil && s.Black.Conn != nil {
			blackConn = s.Black.Conn.ID()
		}
		s.Unlock()

		if blackConn != "" {
			c.unbind(blackConn)
		}
		c.reg.Remove(code)
		if c.dir != nil {
			if err := c.dir.Remove(ctx, code); err != nil {
				obslog.L().Warn("room_directory_error", zap.String("code", code), zap.Error(err))
			}
		}
		c.met.SetRooms(c.reg.Len())
		obslog.L().Info("room_abandoned", zap.String("code", code))
		return
	}

	s.Black = nil
	s.DrawOfferFrom = ""
	opponentMsg := c.cat.Text("room.opponent_left", nil, "Your opponent left the room.")
	s.SendOpponent(conn.ID(), wire.EvRoomClosed, wire.RoomClosed{Reason: opponentMsg})
	creator, hasPassword, createdAt := "", s.Password != "", s.CreatedAt
	if s.White != nil {
		creator = s.White.Username
	}
	s.Unlock()

	if c.dir != nil {
		e := &directory.Entry{Code: code, Creator: creator, HasPassword: hasPassword, CreatedAt: createdAt}
		if err := c.dir.Announce(ctx, e); err != nil {
			obslog.L().Warn("room_announce_error", zap.String("code", code), zap.Error(err))
		}
	}
	obslog.L().Info("room_seat_freed", zap.String("code", code), zap.String("side", side))
}

// sessionFor resolves the caller's bound session and seat.
func (c *Coordinator) sessionFor(conn room.Conn) (*room.Session, string, bool) {
	code, ok := c.roomOf(conn.ID())
	if !ok {
		return nil, "", false
	}
	s, err := c.reg.Get(code)
	if err != nil {
		c.unbind(conn.ID())
		return nil, "", false
	}
	s.Lock()
	side, _ := s.SideOf(conn.ID())
	s.Unlock()
	return s, side, true
}

// Run sweeps stale rooms until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.reap(ctx, now)
		}
	}
}

func (c *Coordinator) reap(ctx context.Context, now time.Time) {
	expired := c.reg.Expire(c.roomMaxAge, now)
	if len(expired) == 0 {
		return
	}
	reason := c.cat.Text("room.closed_stale", nil, "Room closed after being inactive for too long.")
	for _, s := range expired {
		s.Lock()
		code := s.Code
		if s.MarkEnded() {
			s.Broadcast(wire.EvRoomClosed, wire.RoomClosed{Reason: reason})
		}
		var conns []string
		for _, p := range []*room.Participant{s.White, s.Black} {
			if p != nil && p.Conn != nil {
				conns = append(conns, p.Conn.ID())
			}
		}
		s.Unlock()

		for _, id := range conns {
			c.unbind(id)
		}
		if c.dir != nil {
			if err := c.dir.Remove(ctx, code); err != nil {
				obslog.L().Warn("room_directory_error", zap.String("code", code), zap.Error(err))
			}
		}
		c.met.RoomReaped()
		obslog.L().Info("room_reaped", zap.String("code", code))
	}
	c.met.SetRooms(c.reg.Len())
}
