package room

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrRoomExists   = errors.New("room code already in use")
	ErrRoomNotFound = errors.New("room not found")
)

// Registry is the process-wide map of live sessions, keyed by room code.
// It is the only global mutable state in the coordinator.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Session)}
}

// Normalize canonicalizes a room code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create registers a new session for code. A create against an existing
// room that has not started, or that the same connection already owns, is
// treated as re-registration: the creator seat and password are refreshed
// and the existing session returned. A create against a started room owned
// by a different connection fails.
func (r *Registry) Create(code string, creator *Participant, password string) (*Session, error) {
	code = Normalize(code)
	if code == "" {
		return nil, ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rooms[code]; ok {
		existing.Lock()
		sameConn := existing.White != nil && existing.White.Conn != nil &&
			creator.Conn != nil && existing.White.Conn.ID() == creator.Conn.ID()
		if !existing.Started || sameConn {
			existing.White = creator
			existing.Password = password
			existing.Public = password == ""
			existing.Unlock()
			return existing, nil
		}
		existing.Unlock()
		return nil, ErrRoomExists
	}

	s := &Session{
		Code:      code,
		White:     creator,
		Password:  password,
		Public:    password == "",
		CreatedAt: time.Now(),
	}
	r.rooms[code] = s
	return s, nil
}

func (r *Registry) Get(code string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.rooms[Normalize(code)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

func (r *Registry) Remove(code string) {
	r.mu.Lock()
	delete(r.rooms, Normalize(code))
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// StatusEntry is the operational view of one live room.
type StatusEntry struct {
	Code    string `json:"code"`
	White   string `json:"white"`
	Black   string `json:"black"`
	Started bool   `json:"started"`
}

// Status snapshots every live room for the admin endpoint.
func (r *Registry) Status() []StatusEntry {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.rooms))
	for _, s := range r.rooms {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	out := make([]StatusEntry, 0, len(sessions))
	for _, s := range sessions {
		s.Lock()
		e := StatusEntry{Code: s.Code, White: "empty", Black: "empty", Started: s.Started}
		if s.White != nil {
			e.White = s.White.Username
		}
		if s.Black != nil {
			e.Black = s.Black.Username
		}
		s.Unlock()
		out = append(out, e)
	}
	return out
}

// Expire removes and returns every session older than maxAge. The sweep is a
// safety net against rooms that were never closed properly.
func (r *Registry) Expire(maxAge time.Duration, now time.Time) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Session
	for code, s := range r.rooms {
		if now.Sub(s.CreatedAt) > maxAge {
			delete(r.rooms, code)
			expired = append(expired, s)
		}
	}
	return expired
}
