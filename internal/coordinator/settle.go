package coordinator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietchess/chess-server/internal/notation"
	"github.com/vietchess/chess-server/internal/obslog"
	"github.com/vietchess/chess-server/internal/outcome"
	"github.com/vietchess/chess-server/internal/rating"
	"github.com/vietchess/chess-server/internal/room"
	"github.com/vietchess/chess-server/internal/store"
	"github.com/vietchess/chess-server/pkg/wire"
)

type seatInfo struct {
	Username string
	UserID   string
	Durable  bool
}

// snapshot carries everything settlement needs out of the session lock.
type snapshot struct {
	Code      string
	White     seatInfo
	Black     seatInfo
	Out       outcome.Outcome
	PGN       string
	FEN       string
	Plies     int
	Started   bool
	StartedAt time.Time
	EndedAt   time.Time
}

// Terminate ends the session for the given trigger. The ended flag flips
// under the session lock before anything else happens, so concurrent
// terminations collapse to one winner; only that caller notifies, settles
// and removes the room.
func (c *Coordinator) Terminate(ctx context.Context, s *room.Session, trigger outcome.Trigger, side outcome.Side, report wire.GameReport) {
	out, err := outcome.Resolve(trigger, side)
	if err != nil {
		obslog.L().Warn("terminate_resolve_error", zap.String("trigger", string(trigger)), zap.Error(err))
		return
	}

	s.Lock()
	if !s.MarkEnded() {
		s.Unlock()
		return
	}
	if report.PGN != "" {
		s.PGN = report.PGN
	}
	if report.FEN != "" {
		s.FEN = report.FEN
	}

	snap := snapshot{
		Code:      s.Code,
		Out:       out,
		PGN:       s.PGN,
		FEN:       notation.FinalFEN(s.PGN, s.FEN),
		Plies:     len(s.Moves),
		Started:   s.Started,
		StartedAt: s.StartedAt,
		EndedAt:   time.Now(),
	}
	var connIDs []string
	for _, seat := range []struct {
		p    *room.Participant
		info *seatInfo
	}{{s.White, &snap.White}, {s.Black, &snap.Black}} {
		if seat.p == nil {
			continue
		}
		seat.info.Username = seat.p.Username
		seat.info.UserID = seat.p.UserID
		seat.info.Durable = seat.p.Durable()
		if seat.p.Conn != nil {
			connIDs = append(connIDs, seat.p.Conn.ID())
		}
	}

	if trigger == outcome.TriggerDisconnect {
		if p := s.Seat(string(side.Opponent())); p != nil && p.Conn != nil {
			p.Conn.Send(wire.EvGameOverDisconnect, wire.GameOverDisconnect{
				Winner: out.Winner,
				Reason: out.EndReason,
			})
		}
		// The departed side's connection may still be open on an explicit
		// leave; it gets the regular end event.
		if p := s.Seat(string(side)); p != nil && p.Conn != nil {
			p.Conn.Send(wire.EvGameEnded, wire.GameEnded{Result: out.Result, Winner: out.Winner, Reason: out.EndReason})
		}
	} else {
		s.Broadcast(wire.EvGameEnded, wire.GameEnded{Result: out.Result, Winner: out.Winner, Reason: out.EndReason})
	}
	s.Unlock()

	for _, id := range connIDs {
		c.unbind(id)
	}

	began := time.Now()
	if err := c.settle(ctx, snap); err != nil {
		obslog.L().Error("settle_error", zap.String("code", snap.Code), zap.String("result", out.Result), zap.Error(err))
	}

	c.reg.Remove(snap.Code)
	if c.dir != nil {
		if err := c.dir.Remove(ctx, snap.Code); err != nil {
			obslog.L().Warn("room_directory_error", zap.String("code", snap.Code), zap.Error(err))
		}
	}
	c.met.SettlementDone(out.Result, float64(time.Since(began).Milliseconds()))
	c.met.SetRooms(c.reg.Len())

	obslog.L().Info("game_ended",
		zap.String("code", snap.Code),
		zap.String("result", out.Result),
		zap.String("winner", out.Winner),
		zap.String("reason", out.EndReason))
}

// settle persists one terminated match: ratings, the match record, and the
// per-player views. Matches involving a guest are not persisted at all.
func (c *Coordinator) settle(ctx context.Context, snap snapshot) error {
	if !snap.White.Durable || !snap.Black.Durable {
		obslog.L().Info("settle_skipped_guest", zap.String("code", snap.Code))
		return nil
	}

	wp, err := c.st.FindPlayer(ctx, snap.White.UserID)
	if err != nil {
		return err
	}
	bp, err := c.st.FindPlayer(ctx, snap.Black.UserID)
	if err != nil {
		return err
	}

	scoreWhite := resultScore(snap.Out.PlayerResult(outcome.White))
	deltaW, deltaB := rating.Deltas(wp.Rating, bp.Rating, scoreWhite)

	afterW, err := c.st.ApplyRatingChange(ctx, wp.ID, deltaW)
	if err != nil {
		obslog.L().Error("rating_apply_error", zap.String("user_id", wp.ID), zap.Error(err))
		afterW = wp.Rating + deltaW
	}
	afterB, err := c.st.ApplyRatingChange(ctx, bp.ID, deltaB)
	if err != nil {
		obslog.L().Error("rating_apply_error", zap.String("user_id", bp.ID), zap.Error(err))
		afterB = bp.Rating + deltaB
	}

	totalMoves := notation.MoveCount(snap.PGN)
	if totalMoves == 0 {
		totalMoves = (snap.Plies + 1) / 2
	}
	duration := 0
	if snap.Started {
		duration = int(snap.EndedAt.Sub(snap.StartedAt).Seconds())
	}

	rec := &store.MatchRecord{
		ID:       uuid.NewString(),
		RoomCode: snap.Code,
		White: store.MatchSide{
			UserID: wp.ID, Username: snap.White.Username,
			RatingBefore: wp.Rating, RatingAfter: afterW, RatingChange: deltaW,
		},
		Black: store.MatchSide{
			UserID: bp.ID, Username: snap.Black.Username,
			RatingBefore: bp.Rating, RatingAfter: afterB, RatingChange: deltaB,
		},
		Result:     snap.Out.Result,
		Winner:     snap.Out.Winner,
		EndReason:  snap.Out.EndReason,
		PGN:        snap.PGN,
		FinalFEN:   snap.FEN,
		TotalMoves: totalMoves,
		Duration:   duration,
		StartedAt:  snap.StartedAt,
		EndedAt:    snap.EndedAt,
	}
	if err := c.st.CreateMatchRecord(ctx, rec); err != nil {
		return err
	}

	c.settlePlayer(ctx, rec, outcome.White, wp, bp)
	c.settlePlayer(ctx, rec, outcome.Black, bp, wp)
	return nil
}

// settlePlayer writes one participant's rating history, match view and
// aggregates. Each write is best-effort: a failed view never blocks the rest.
func (c *Coordinator) settlePlayer(ctx context.Context, rec *store.MatchRecord, side outcome.Side, self, opponent *store.Player) {
	mine, theirs := rec.White, rec.Black
	if side == outcome.Black {
		mine, theirs = rec.Black, rec.White
	}
	out := outcome.Outcome{Result: rec.Result, Winner: rec.Winner, EndReason: rec.EndReason}
	playerResult := out.PlayerResult(side)

	hist := &store.RatingHistory{
		UserID:               self.ID,
		MatchID:              rec.ID,
		RatingBefore:         mine.RatingBefore,
		RatingAfter:          mine.RatingAfter,
		RatingChange:         mine.RatingChange,
		Reason:               outcome.HistoryReason(playerResult, rec.EndReason),
		OpponentID:           opponent.ID,
		OpponentUsername:     theirs.Username,
		OpponentRatingBefore: theirs.RatingBefore,
		CreatedAt:            rec.EndedAt,
	}
	if err := c.st.CreateRatingHistory(ctx, hist); err != nil {
		obslog.L().Error("settle_history_error", zap.String("user_id", self.ID), zap.String("match_id", rec.ID), zap.Error(err))
	}

	view := &store.MatchView{
		UserID:           self.ID,
		MatchID:          rec.ID,
		OpponentID:       opponent.ID,
		OpponentUsername: theirs.Username,
		OpponentRating:   theirs.RatingBefore,
		Side:             string(side),
		Result:           playerResult,
		EndReason:        rec.EndReason,
		RatingChange:     mine.RatingChange,
		RatingAfter:      mine.RatingAfter,
		TotalMoves:       rec.TotalMoves,
		Duration:         rec.Duration,
		PlayedAt:         rec.EndedAt,
		RoomCode:         rec.RoomCode,
		PGN:              rec.PGN,
	}
	if err := c.st.CreateMatchView(ctx, view); err != nil {
		obslog.L().Error("settle_view_error", zap.String("user_id", self.ID), zap.String("match_id", rec.ID), zap.Error(err))
	}

	stats, err := c.st.GetPlayerStats(ctx, self.ID)
	if err != nil {
		obslog.L().Error("settle_stats_error", zap.String("user_id", self.ID), zap.Error(err))
	} else {
		if stats == nil {
			stats = store.NewPlayerStats(self.ID, mine.RatingBefore)
		}
		stats.ApplyGame(store.GameFacts{
			Side:      string(side),
			Result:    playerResult,
			EndReason: rec.EndReason,
			Moves:     rec.TotalMoves,
			Duration:  rec.Duration,
		})
		stats.ObserveRating(mine.RatingAfter)
		if err := c.st.SavePlayerStats(ctx, stats); err != nil {
			obslog.L().Error("settle_stats_error", zap.String("user_id", self.ID), zap.Error(err))
		}
	}

	winRate, err := c.st.GetSideWinRate(ctx, self.ID)
	if err != nil {
		obslog.L().Error("settle_winrate_error", zap.String("user_id", self.ID), zap.Error(err))
		return
	}
	if winRate == nil {
		winRate = store.NewSideWinRate(self.ID)
	}
	winRate.ApplyGame(string(side), playerResult, mine.RatingChange)
	if err := c.st.SaveSideWinRate(ctx, winRate); err != nil {
		obslog.L().Error("settle_winrate_error", zap.String("user_id", self.ID), zap.Error(err))
	}
}

func resultScore(playerResult string) rating.Score {
	switch playerResult {
	case "win":
		return rating.Win
	case "loss":
		return rating.Loss
	default:
		return rating.Draw
	}
}
