package store

import (
	"math"
	"time"
)

// Player is the durable account record this subsystem reads and rating-adjusts.
// Account creation itself belongs to the identity service.
type Player struct {
	ID       string
	Username string
	Rating   int
}

// MatchSide is one player's slice of a match record.
type MatchSide struct {
	UserID       string
	Username     string
	RatingBefore int
	RatingAfter  int
	RatingChange int
}

// MatchRecord is the immutable record of one settled match.
type MatchRecord struct {
	ID        string
	RoomCode  string
	White     MatchSide
	Black     MatchSide
	Result    string
	Winner    string
	EndReason string
	PGN       string
	FinalFEN  string

	TotalMoves int
	Duration   int // seconds
	StartedAt  time.Time
	EndedAt    time.Time
}

// RatingHistory is one player's rating movement for one match.
type RatingHistory struct {
	UserID       string
	MatchID      string
	RatingBefore int
	RatingAfter  int
	RatingChange int
	Reason       string

	OpponentID           string
	OpponentUsername     string
	OpponentRatingBefore int

	CreatedAt time.Time
}

// MatchView is the denormalized self-centric match summary, one row per
// participant, so history queries need no joins.
type MatchView struct {
	UserID           string
	MatchID          string
	OpponentID       string
	OpponentUsername string
	OpponentRating   int
	Side             string
	Result           string
	EndReason        string
	RatingChange     int
	RatingAfter      int
	TotalMoves       int
	Duration         int
	PlayedAt         time.Time
	RoomCode         string
	PGN              string
}

// GameFacts is what a single settled match contributes to a player's
// aggregates.
type GameFacts struct {
	Side      string
	Result    string // win, loss, draw
	EndReason string
	Moves     int
	Duration  int
}

// PlayerStats is the running aggregate per durable identity, mutated in
// place once per settled match.
type PlayerStats struct {
	UserID string

	TotalGames int
	Wins       int
	Losses     int
	Draws      int

	WhiteGames  int
	BlackGames  int
	WhiteWins   int
	BlackWins   int
	WhiteLosses int
	BlackLosses int
	WhiteDraws  int
	BlackDraws  int

	WinsByCheckmate    int
	WinsByResign       int
	WinsByDisconnect   int
	LossesByCheckmate  int
	LossesByResign     int
	LossesByDisconnect int

	AvgDuration int
	AvgMoves    int

	CurrentWinStreak  int
	LongestWinStreak  int
	CurrentLossStreak int
	LongestLossStreak int

	HighestRating int
	LowestRating  int

	LastGameAt time.Time
}

// NewPlayerStats seeds an aggregate for a first-time player. Both rating
// bounds start at the player's current rating.
func NewPlayerStats(userID string, rating int) *PlayerStats {
	return &PlayerStats{UserID: userID, HighestRating: rating, LowestRating: rating}
}

// ApplyGame folds one settled match into the aggregate: totals, per-side
// tallies, end-reason splits, streaks, and the running averages.
func (s *PlayerStats) ApplyGame(g GameFacts) {
	s.TotalGames++
	s.LastGameAt = time.Now()

	white := g.Side == "white"
	if white {
		s.WhiteGames++
	} else {
		s.BlackGames++
	}

	switch g.Result {
	case "win":
		s.Wins++
		if white {
			s.WhiteWins++
		} else {
			s.BlackWins++
		}
		s.CurrentWinStreak++
		s.CurrentLossStreak = 0
		if s.CurrentWinStreak > s.LongestWinStreak {
			s.LongestWinStreak = s.CurrentWinStreak
		}
		switch g.EndReason {
		case "checkmate":
			s.WinsByCheckmate++
		case "resign":
			s.WinsByResign++
		case "disconnect":
			s.WinsByDisconnect++
		}
	case "loss":
		s.Losses++
		if white {
			s.WhiteLosses++
		} else {
			s.BlackLosses++
		}
		s.CurrentLossStreak++
		s.CurrentWinStreak = 0
		if s.CurrentLossStreak > s.LongestLossStreak {
			s.LongestLossStreak = s.CurrentLossStreak
		}
		switch g.EndReason {
		case "checkmate":
			s.LossesByCheckmate++
		case "resign":
			s.LossesByResign++
		case "disconnect":
			s.LossesByDisconnect++
		}
	default:
		s.Draws++
		if white {
			s.WhiteDraws++
		} else {
			s.BlackDraws++
		}
		s.CurrentWinStreak = 0
		s.CurrentLossStreak = 0
	}

	s.AvgDuration = runningAvg(s.AvgDuration, s.TotalGames, g.Duration)
	s.AvgMoves = runningAvg(s.AvgMoves, s.TotalGames, g.Moves)
}

// ObserveRating widens the high/low rating bounds.
func (s *PlayerStats) ObserveRating(rating int) {
	if rating > s.HighestRating {
		s.HighestRating = rating
	}
	if rating < s.LowestRating {
		s.LowestRating = rating
	}
}

// SideStats is the per-side block of SideWinRate.
type SideStats struct {
	Games           int
	Wins            int
	Losses          int
	Draws           int
	WinRate         int // percent
	AvgRatingChange int
}

func (c *SideStats) apply(result string, ratingChange int) {
	c.Games++
	switch result {
	case "win":
		c.Wins++
	case "loss":
		c.Losses++
	default:
		c.Draws++
	}
	c.AvgRatingChange = runningAvg(c.AvgRatingChange, c.Games, ratingChange)
}

// SideWinRate is the per-identity aggregate split by side played, with the
// derived win-rate percentage and preferred-side label.
type SideWinRate struct {
	UserID        string
	White         SideStats
	Black         SideStats
	PreferredSide string // white, black or neutral
	UpdatedAt     time.Time
}

func NewSideWinRate(userID string) *SideWinRate {
	return &SideWinRate{UserID: userID, PreferredSide: "neutral"}
}

// ApplyGame records one match for the given side and refreshes the derived
// fields.
func (w *SideWinRate) ApplyGame(side, result string, ratingChange int) {
	if side == "white" {
		w.White.apply(result, ratingChange)
	} else {
		w.Black.apply(result, ratingChange)
	}
	w.Recalculate()
}

// Recalculate refreshes win rates and the preferred-side label. A side is
// preferred only when its win rate leads by more than ten points.
func (w *SideWinRate) Recalculate() {
	if w.White.Games > 0 {
		w.White.WinRate = int(math.Round(float64(w.White.Wins) / float64(w.White.Games) * 100))
	}
	if w.Black.Games > 0 {
		w.Black.WinRate = int(math.Round(float64(w.Black.Wins) / float64(w.Black.Games) * 100))
	}
	switch {
	case w.White.WinRate > w.Black.WinRate+10:
		w.PreferredSide = "white"
	case w.Black.WinRate > w.White.WinRate+10:
		w.PreferredSide = "black"
	default:
		w.PreferredSide = "neutral"
	}
	w.UpdatedAt = time.Now()
}

func runningAvg(avg, n, sample int) int {
	if n <= 0 {
		return sample
	}
	return int(math.Round(float64(avg*(n-1)+sample) / float64(n)))
}
