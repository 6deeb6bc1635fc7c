// Package room holds the in-memory state of live matches: one Session per
// room code, owned by the Registry.
package room

import (
	"strings"
	"sync"
	"time"

	"github.com/vietchess/chess-server/pkg/wire"
)

// Conn is the handle a participant is reachable on. Implemented by the
// websocket client; kept as an interface so session logic is testable
// without a network.
type Conn interface {
	ID() string
	Send(event string, payload any)
}

// Participant fills one seat of a session.
type Participant struct {
	Conn     Conn
	Username string
	UserID   string // empty for guests
}

// Durable reports whether the participant has a persistent account.
func (p *Participant) Durable() bool {
	return p != nil && strings.TrimSpace(p.UserID) != ""
}

// Session is the ephemeral state of one room. All mutation happens under the
// session lock; after Ended flips true the session is effectively frozen and
// may be read without it.
type Session struct {
	mu sync.Mutex

	Code     string
	White    *Participant
	Black    *Participant
	Password string
	Public   bool

	Started bool
	Ended   bool

	// DrawOfferFrom is the side with an open draw offer, empty when none.
	DrawOfferFrom string

	Moves []wire.Move
	PGN   string
	FEN   string

	CreatedAt time.Time
	StartedAt time.Time
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// SideOf returns which seat the connection occupies, by connection identity.
// Caller holds the lock.
func (s *Session) SideOf(connID string) (string, bool) {
	if s.White != nil && s.White.Conn != nil && s.White.Conn.ID() == connID {
		return "white", true
	}
	if s.Black != nil && s.Black.Conn != nil && s.Black.Conn.ID() == connID {
		return "black", true
	}
	return "", false
}

// Seat returns the participant on the given side. Caller holds the lock.
func (s *Session) Seat(side string) *Participant {
	if side == "white" {
		return s.White
	}
	return s.Black
}

// MarkEnded flips the settlement gate. It returns true for exactly one
// caller per session; every later caller sees false. Caller holds the lock.
func (s *Session) MarkEnded() bool {
	if s.Ended {
		return false
	}
	s.Ended = true
	return true
}

// Broadcast sends an event to every occupied seat. Caller holds the lock.
func (s *Session) Broadcast(event string, payload any) {
	for _, p := range []*Participant{s.White, s.Black} {
		if p != nil && p.Conn != nil {
			p.Conn.Send(event, payload)
		}
	}
}

// SendOpponent sends an event to the seat opposite the given connection.
// Caller holds the lock.
func (s *Session) SendOpponent(connID, event string, payload any) {
	for _, p := range []*Participant{s.White, s.Black} {
		if p != nil && p.Conn != nil && p.Conn.ID() != connID {
			p.Conn.Send(event, payload)
		}
	}
}
