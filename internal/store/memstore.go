package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and by deployments that run
// without a database (relay-only mode still needs a Store value to wire).
type Memory struct {
	mu sync.Mutex

	Players map[string]*Player
	Records []*MatchRecord
	History []*RatingHistory
	Views   []*MatchView
	Stats   map[string]*PlayerStats
	Sides   map[string]*SideWinRate
}

func NewMemory() *Memory {
	return &Memory{
		Players: make(map[string]*Player),
		Stats:   make(map[string]*PlayerStats),
		Sides:   make(map[string]*SideWinRate),
	}
}

// AddPlayer seeds a durable identity.
func (m *Memory) AddPlayer(p *Player) {
	m.mu.Lock()
	m.Players[p.ID] = p
	m.mu.Unlock()
}

func (m *Memory) FindPlayer(_ context.Context, userID string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Players[userID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) ApplyRatingChange(_ context.Context, userID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Players[userID]
	if !ok {
		return 0, ErrPlayerNotFound
	}
	p.Rating += delta
	return p.Rating, nil
}

func (m *Memory) CreateMatchRecord(_ context.Context, rec *MatchRecord) error {
	m.mu.Lock()
	m.Records = append(m.Records, rec)
	m.mu.Unlock()
	return nil
}

func (m *Memory) CreateRatingHistory(_ context.Context, h *RatingHistory) error {
	m.mu.Lock()
	m.History = append(m.History, h)
	m.mu.Unlock()
	return nil
}

func (m *Memory) CreateMatchView(_ context.Context, v *MatchView) error {
	m.mu.Lock()
	m.Views = append(m.Views, v)
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetPlayerStats(_ context.Context, userID string) (*PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Stats[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) SavePlayerStats(_ context.Context, s *PlayerStats) error {
	m.mu.Lock()
	cp := *s
	m.Stats[s.UserID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetSideWinRate(_ context.Context, userID string) (*SideWinRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Sides[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (m *Memory) SaveSideWinRate(_ context.Context, w *SideWinRate) error {
	m.mu.Lock()
	cp := *w
	m.Sides[w.UserID] = &cp
	m.mu.Unlock()
	return nil
}

// RecordCount returns how many match records exist; used in race tests.
func (m *Memory) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}
