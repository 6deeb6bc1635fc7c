package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Postgres implements Store on database/sql with the pq driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// NewPostgresFromDB wraps an existing handle; used by tests.
func NewPostgresFromDB(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// EnsureSchema creates missing tables.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	return err
}

func (p *Postgres) FindPlayer(ctx context.Context, userID string) (*Player, error) {
	var pl Player
	err := p.db.QueryRowContext(ctx,
		`SELECT id, username, rating FROM players WHERE id = $1`, userID,
	).Scan(&pl.ID, &pl.Username, &pl.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func (p *Postgres) ApplyRatingChange(ctx context.Context, userID string, delta int) (int, error) {
	var rating int
	err := p.db.QueryRowContext(ctx,
		`UPDATE players SET rating = rating + $2 WHERE id = $1 RETURNING rating`,
		userID, delta,
	).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPlayerNotFound
	}
	if err != nil {
		return 0, err
	}
	return rating, nil
}

func (p *Postgres) CreateMatchRecord(ctx context.Context, rec *MatchRecord) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO match_records (
        id, room_code,
        white_id, white_name, white_rating_before, white_rating_after, white_rating_change,
        black_id, black_name, black_rating_before, black_rating_after, black_rating_change,
        result, winner, end_reason, pgn, final_fen, total_moves, duration_sec,
        started_at, ended_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		rec.ID, rec.RoomCode,
		rec.White.UserID, rec.White.Username, rec.White.RatingBefore, rec.White.RatingAfter, rec.White.RatingChange,
		rec.Black.UserID, rec.Black.Username, rec.Black.RatingBefore, rec.Black.RatingAfter, rec.Black.RatingChange,
		rec.Result, rec.Winner, rec.EndReason, rec.PGN, rec.FinalFEN, rec.TotalMoves, rec.Duration,
		rec.StartedAt, rec.EndedAt,
	)
	return err
}

func (p *Postgres) CreateRatingHistory(ctx context.Context, h *RatingHistory) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO rating_history (
        user_id, match_id, rating_before, rating_after, rating_change, reason,
        opponent_id, opponent_name, opponent_rating_before
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		h.UserID, h.MatchID, h.RatingBefore, h.RatingAfter, h.RatingChange, h.Reason,
		h.OpponentID, h.OpponentUsername, h.OpponentRatingBefore,
	)
	return err
}

func (p *Postgres) CreateMatchView(ctx context.Context, v *MatchView) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO match_views (
        user_id, match_id, opponent_id, opponent_name, opponent_rating,
        side, result, end_reason, rating_change, rating_after,
        total_moves, duration_sec, played_at, room_code, pgn
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		v.UserID, v.MatchID, v.OpponentID, v.OpponentUsername, v.OpponentRating,
		v.Side, v.Result, v.EndReason, v.RatingChange, v.RatingAfter,
		v.TotalMoves, v.Duration, v.PlayedAt, v.RoomCode, v.PGN,
	)
	return err
}

func (p *Postgres) GetPlayerStats(ctx context.Context, userID string) (*PlayerStats, error) {
	var s PlayerStats
	var lastGame sql.NullTime
	err := p.db.QueryRowContext(ctx, `SELECT
        user_id, total_games, wins, losses, draws,
        white_games, black_games, white_wins, black_wins,
        white_losses, black_losses, white_draws, black_draws,
        wins_by_checkmate, wins_by_resign, wins_by_disconnect,
        losses_by_checkmate, losses_by_resign, losses_by_disconnect,
        avg_duration_sec, avg_moves,
        current_win_streak, longest_win_streak, current_loss_streak, longest_loss_streak,
        highest_rating, lowest_rating, last_game_at
      FROM player_stats WHERE user_id = $1`, userID,
	).Scan(
		&s.UserID, &s.TotalGames, &s.Wins, &s.Losses, &s.Draws,
		&s.WhiteGames, &s.BlackGames, &s.WhiteWins, &s.BlackWins,
		&s.WhiteLosses, &s.BlackLosses, &s.WhiteDraws, &s.BlackDraws,
		&s.WinsByCheckmate, &s.WinsByResign, &s.WinsByDisconnect,
		&s.LossesByCheckmate, &s.LossesByResign, &s.LossesByDisconnect,
		&s.AvgDuration, &s.AvgMoves,
		&s.CurrentWinStreak, &s.LongestWinStreak, &s.CurrentLossStreak, &s.LongestLossStreak,
		&s.HighestRating, &s.LowestRating, &lastGame,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastGame.Valid {
		s.LastGameAt = lastGame.Time
	}
	return &s, nil
}

func (p *Postgres) SavePlayerStats(ctx context.Context, s *PlayerStats) error {
	var lastGame any
	if !s.LastGameAt.IsZero() {
		lastGame = s.LastGameAt
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO player_stats (
        user_id, total_games, wins, losses, draws,
        white_games, black_games, white_wins, black_wins,
        white_losses, black_losses, white_draws, black_draws,
        wins_by_checkmate, wins_by_resign, wins_by_disconnect,
        losses_by_checkmate, losses_by_resign, losses_by_disconnect,
        avg_duration_sec, avg_moves,
        current_win_streak, longest_win_streak, current_loss_streak, longest_loss_streak,
        highest_rating, lowest_rating, last_game_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
      ON CONFLICT (user_id) DO UPDATE SET
        total_games=EXCLUDED.total_games, wins=EXCLUDED.wins,
        losses=EXCLUDED.losses, draws=EXCLUDED.draws,
        white_games=EXCLUDED.white_games, black_games=EXCLUDED.black_games,
        white_wins=EXCLUDED.white_wins, black_wins=EXCLUDED.black_wins,
        white_losses=EXCLUDED.white_losses, black_losses=EXCLUDED.black_losses,
        white_draws=EXCLUDED.white_draws, black_draws=EXCLUDED.black_draws,
        wins_by_checkmate=EXCLUDED.wins_by_checkmate,
        wins_by_resign=EXCLUDED.wins_by_resign,
        wins_by_disconnect=EXCLUDED.wins_by_disconnect,
        losses_by_checkmate=EXCLUDED.losses_by_checkmate,
        losses_by_resign=EXCLUDED.losses_by_resign,
        losses_by_disconnect=EXCLUDED.losses_by_disconnect,
        avg_duration_sec=EXCLUDED.avg_duration_sec, avg_moves=EXCLUDED.avg_moves,
        current_win_streak=EXCLUDED.current_win_streak,
        longest_win_streak=EXCLUDED.longest_win_streak,
        current_loss_streak=EXCLUDED.current_loss_streak,
        longest_loss_streak=EXCLUDED.longest_loss_streak,
        highest_rating=EXCLUDED.highest_rating, lowest_rating=EXCLUDED.lowest_rating,
        last_game_at=EXCLUDED.last_game_at`,
		s.UserID, s.TotalGames, s.Wins, s.Losses, s.Draws,
		s.WhiteGames, s.BlackGames, s.WhiteWins, s.BlackWins,
		s.WhiteLosses, s.BlackLosses, s.WhiteDraws, s.BlackDraws,
		s.WinsByCheckmate, s.WinsByResign, s.WinsByDisconnect,
		s.LossesByCheckmate, s.LossesByResign, s.LossesByDisconnect,
		s.AvgDuration, s.AvgMoves,
		s.CurrentWinStreak, s.LongestWinStreak, s.CurrentLossStreak, s.LongestLossStreak,
		s.HighestRating, s.LowestRating, lastGame,
	)
	return err
}

func (p *Postgres) GetSideWinRate(ctx context.Context, userID string) (*SideWinRate, error) {
	var w SideWinRate
	err := p.db.QueryRowContext(ctx, `SELECT
        user_id,
        white_games, white_wins, white_losses, white_draws, white_win_rate, white_avg_rating_change,
        black_games, black_wins, black_losses, black_draws, black_win_rate, black_avg_rating_change,
        preferred_side, updated_at
      FROM side_win_rates WHERE user_id = $1`, userID,
	).Scan(
		&w.UserID,
		&w.White.Games, &w.White.Wins, &w.White.Losses, &w.White.Draws, &w.White.WinRate, &w.White.AvgRatingChange,
		&w.Black.Games, &w.Black.Wins, &w.Black.Losses, &w.Black.Draws, &w.Black.WinRate, &w.Black.AvgRatingChange,
		&w.PreferredSide, &w.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (p *Postgres) SaveSideWinRate(ctx context.Context, w *SideWinRate) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO side_win_rates (
        user_id,
        white_games, white_wins, white_losses, white_draws, white_win_rate, white_avg_rating_change,
        black_games, black_wins, black_losses, black_draws, black_win_rate, black_avg_rating_change,
        preferred_side, updated_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
      ON CONFLICT (user_id) DO UPDATE SET
        white_games=EXCLUDED.white_games, white_wins=EXCLUDED.white_wins,
        white_losses=EXCLUDED.white_losses, white_draws=EXCLUDED.white_draws,
        white_win_rate=EXCLUDED.white_win_rate,
        white_avg_rating_change=EXCLUDED.white_avg_rating_change,
        black_games=EXCLUDED.black_games, black_wins=EXCLUDED.black_wins,
        black_losses=EXCLUDED.black_losses, black_draws=EXCLUDED.black_draws,
        black_win_rate=EXCLUDED.black_win_rate,
        black_avg_rating_change=EXCLUDED.black_avg_rating_change,
        preferred_side=EXCLUDED.preferred_side, updated_at=EXCLUDED.updated_at`,
		w.UserID,
		w.White.Games, w.White.Wins, w.White.Losses, w.White.Draws, w.White.WinRate, w.White.AvgRatingChange,
		w.Black.Games, w.Black.Wins, w.Black.Losses, w.Black.Draws, w.Black.WinRate, w.Black.AvgRatingChange,
		w.PreferredSide, w.UpdatedAt,
	)
	return err
}
