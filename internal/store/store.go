// Package store persists settled matches and the derived per-player views.
// The coordinator only depends on the Store interface; the Postgres
// implementation lives alongside an in-memory one used by tests.
package store

import (
	"context"
	"errors"
)

var ErrPlayerNotFound = errors.New("player not found")

// Store is the durable document store consumed by the settlement engine.
// Get* methods return (nil, nil) when no record exists yet; aggregates are
// created lazily on first save.
type Store interface {
	// FindPlayer looks up a durable identity.
	FindPlayer(ctx context.Context, userID string) (*Player, error)
	// ApplyRatingChange adjusts a player's rating atomically and returns the
	// resulting value.
	ApplyRatingChange(ctx context.Context, userID string, delta int) (int, error)

	CreateMatchRecord(ctx context.Context, rec *MatchRecord) error
	CreateRatingHistory(ctx context.Context, h *RatingHistory) error
	CreateMatchView(ctx context.Context, v *MatchView) error

	GetPlayerStats(ctx context.Context, userID string) (*PlayerStats, error)
	SavePlayerStats(ctx context.Context, s *PlayerStats) error

	GetSideWinRate(ctx context.Context, userID string) (*SideWinRate, error)
	SaveSideWinRate(ctx context.Context, w *SideWinRate) error
}
