package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresFromDB(db), mock
}

func TestFindPlayer(t *testing.T) {
	p, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, username, rating FROM players").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "rating"}).AddRow("u1", "alice", 1200))

	pl, err := p.FindPlayer(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FindPlayer: %v", err)
	}
	if pl.Username != "alice" || pl.Rating != 1200 {
		t.Fatalf("unexpected player: %+v", pl)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindPlayerNotFound(t *testing.T) {
	p, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, username, rating FROM players").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "rating"}))

	if _, err := p.FindPlayer(context.Background(), "missing"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("want ErrPlayerNotFound, got %v", err)
	}
}

func TestApplyRatingChange(t *testing.T) {
	p, mock := newMockStore(t)
	mock.ExpectQuery("UPDATE players SET rating = rating").
		WithArgs("u1", 16).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(1216))

	rating, err := p.ApplyRatingChange(context.Background(), "u1", 16)
	if err != nil {
		t.Fatalf("ApplyRatingChange: %v", err)
	}
	if rating != 1216 {
		t.Fatalf("rating = %d, want 1216", rating)
	}
}

func TestCreateMatchRecord(t *testing.T) {
	p, mock := newMockStore(t)
	now := time.Now()
	rec := &MatchRecord{
		ID:       "m1",
		RoomCode: "AB12",
		White:    MatchSide{UserID: "u1", Username: "alice", RatingBefore: 1200, RatingAfter: 1216, RatingChange: 16},
		Black:    MatchSide{UserID: "u2", Username: "bob", RatingBefore: 1200, RatingAfter: 1184, RatingChange: -16},
		Result:   "white_win", Winner: "white", EndReason: "checkmate",
		PGN: "1. e4 e5", FinalFEN: "fen", TotalMoves: 2, Duration: 60,
		StartedAt: now.Add(-time.Minute), EndedAt: now,
	}
	mock.ExpectExec("INSERT INTO match_records").
		WithArgs(
			"m1", "AB12",
			"u1", "alice", 1200, 1216, 16,
			"u2", "bob", 1200, 1184, -16,
			"white_win", "white", "checkmate", "1. e4 e5", "fen", 2, 60,
			rec.StartedAt, rec.EndedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := p.CreateMatchRecord(context.Background(), rec); err != nil {
		t.Fatalf("CreateMatchRecord: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetPlayerStatsAbsent(t *testing.T) {
	p, mock := newMockStore(t)
	mock.ExpectQuery("FROM player_stats").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	s, err := p.GetPlayerStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetPlayerStats: %v", err)
	}
	if s != nil {
		t.Fatal("absent stats must return nil")
	}
}

func TestSavePlayerStatsUpsert(t *testing.T) {
	p, mock := newMockStore(t)
	s := NewPlayerStats("u1", 1000)
	s.ApplyGame(GameFacts{Side: "white", Result: "win", EndReason: "checkmate", Moves: 30, Duration: 300})
	s.ObserveRating(1016)

	mock.ExpectExec("INSERT INTO player_stats").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := p.SavePlayerStats(context.Background(), s); err != nil {
		t.Fatalf("SavePlayerStats: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveSideWinRateUpsert(t *testing.T) {
	p, mock := newMockStore(t)
	w := NewSideWinRate("u1")
	w.ApplyGame("white", "win", 16)

	mock.ExpectExec("INSERT INTO side_win_rates").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := p.SaveSideWinRate(context.Background(), w); err != nil {
		t.Fatalf("SaveSideWinRate: %v", err)
	}
}
