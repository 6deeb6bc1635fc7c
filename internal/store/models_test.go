package store

import "testing"

func TestPlayerStatsApplyGameWin(t *testing.T) {
	s := NewPlayerStats("u1", 1000)
	s.ApplyGame(GameFacts{Side: "white", Result: "win", EndReason: "checkmate", Moves: 40, Duration: 600})

	if s.TotalGames != 1 || s.Wins != 1 || s.WhiteGames != 1 || s.WhiteWins != 1 {
		t.Fatalf("tallies wrong: %+v", s)
	}
	if s.WinsByCheckmate != 1 {
		t.Fatalf("end-reason split wrong: %+v", s)
	}
	if s.CurrentWinStreak != 1 || s.LongestWinStreak != 1 {
		t.Fatalf("streaks wrong: %+v", s)
	}
	if s.AvgDuration != 600 || s.AvgMoves != 40 {
		t.Fatalf("averages wrong: %d/%d", s.AvgDuration, s.AvgMoves)
	}
	if s.LastGameAt.IsZero() {
		t.Fatal("LastGameAt not set")
	}
}

func TestPlayerStatsStreaks(t *testing.T) {
	s := NewPlayerStats("u1", 1000)
	seq := []string{"win", "win", "win", "loss", "loss", "draw", "win"}
	for _, res := range seq {
		s.ApplyGame(GameFacts{Side: "black", Result: res, EndReason: "checkmate", Moves: 30, Duration: 300})
	}
	if s.LongestWinStreak != 3 {
		t.Fatalf("longest win streak = %d, want 3", s.LongestWinStreak)
	}
	if s.LongestLossStreak != 2 {
		t.Fatalf("longest loss streak = %d, want 2", s.LongestLossStreak)
	}
	// The draw reset both current streaks before the final win.
	if s.CurrentWinStreak != 1 || s.CurrentLossStreak != 0 {
		t.Fatalf("current streaks = %d/%d", s.CurrentWinStreak, s.CurrentLossStreak)
	}
	if s.TotalGames != 7 || s.Wins != 4 || s.Losses != 2 || s.Draws != 1 {
		t.Fatalf("totals wrong: %+v", s)
	}
}

func TestPlayerStatsRunningAverages(t *testing.T) {
	s := NewPlayerStats("u1", 1000)
	s.ApplyGame(GameFacts{Side: "white", Result: "win", EndReason: "resign", Moves: 10, Duration: 100})
	s.ApplyGame(GameFacts{Side: "white", Result: "win", EndReason: "resign", Moves: 20, Duration: 300})
	if s.AvgMoves != 15 {
		t.Fatalf("avg moves = %d, want 15", s.AvgMoves)
	}
	if s.AvgDuration != 200 {
		t.Fatalf("avg duration = %d, want 200", s.AvgDuration)
	}
	if s.WinsByResign != 2 {
		t.Fatalf("wins by resign = %d", s.WinsByResign)
	}
}

func TestPlayerStatsObserveRating(t *testing.T) {
	s := NewPlayerStats("u1", 1000)
	s.ObserveRating(1016)
	s.ObserveRating(984)
	s.ObserveRating(1000)
	if s.HighestRating != 1016 || s.LowestRating != 984 {
		t.Fatalf("bounds = %d/%d", s.HighestRating, s.LowestRating)
	}
}

func TestSideWinRatePreferredSide(t *testing.T) {
	w := NewSideWinRate("u1")
	if w.PreferredSide != "neutral" {
		t.Fatalf("fresh record should be neutral, got %s", w.PreferredSide)
	}

	// 3 white wins vs 1 black loss: white leads by more than 10 points.
	for i := 0; i < 3; i++ {
		w.ApplyGame("white", "win", 16)
	}
	w.ApplyGame("black", "loss", -16)

	if w.White.WinRate != 100 || w.Black.WinRate != 0 {
		t.Fatalf("win rates = %d/%d", w.White.WinRate, w.Black.WinRate)
	}
	if w.PreferredSide != "white" {
		t.Fatalf("preferred = %s, want white", w.PreferredSide)
	}
	if w.White.AvgRatingChange != 16 || w.Black.AvgRatingChange != -16 {
		t.Fatalf("avg deltas = %d/%d", w.White.AvgRatingChange, w.Black.AvgRatingChange)
	}
}

func TestSideWinRateNeutralWithinThreshold(t *testing.T) {
	w := NewSideWinRate("u1")
	// 1/2 on white (50%), 1/2 on black (50%): no preference.
	w.ApplyGame("white", "win", 10)
	w.ApplyGame("white", "loss", -10)
	w.ApplyGame("black", "win", 12)
	w.ApplyGame("black", "loss", -12)
	if w.PreferredSide != "neutral" {
		t.Fatalf("preferred = %s, want neutral", w.PreferredSide)
	}
	if w.White.Games != 2 || w.Black.Games != 2 {
		t.Fatalf("games = %d/%d", w.White.Games, w.Black.Games)
	}
}
