package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/park285/chessonline-client/internal/domain"
)

// memrepo keeps the archive in process when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID  int64
	games   map[string]*domain.ArchivedGame // owner|game -> game
	byOwner map[string][]*domain.ArchivedGame
	records map[string]*domain.PlayerRecord
}

func NewMemoryRepository() Repository {
	return &memrepo{
		games:   make(map[string]*domain.ArchivedGame),
		byOwner: make(map[string][]*domain.ArchivedGame),
		records: make(map[string]*domain.PlayerRecord),
	}
}

func (m *memrepo) UpsertGame(_ context.Context, g *domain.ArchivedGame) (bool, error) {
	if g == nil {
		return false, nil
	}
	key := g.OwnerID + "|" + g.GameID

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := cloneGame(g)
	if prev, ok := m.games[key]; ok {
		cp.ID = prev.ID
		*prev = *cp
		g.ID = prev.ID
		return false, nil
	}
	m.nextID++
	cp.ID = m.nextID
	g.ID = cp.ID
	m.games[key] = cp
	m.byOwner[g.OwnerID] = append(m.byOwner[g.OwnerID], cp)
	return true, nil
}

func (m *memrepo) RecentGames(_ context.Context, ownerID string, limit int) ([]*domain.ArchivedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byOwner[ownerID]
	items := make([]*domain.ArchivedGame, 0, len(list))
	for _, g := range list {
		items = append(items, cloneGame(g))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(_ context.Context, ownerID, gameID string) (*domain.ArchivedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[ownerID+"|"+gameID]
	if !ok {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *memrepo) GetRecord(_ context.Context, ownerID string) (*domain.PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *memrepo) UpsertRecord(_ context.Context, rec *domain.PlayerRecord) error {
	if rec == nil {
		return nil
	}
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	if prev, ok := m.records[rec.OwnerID]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.records[rec.OwnerID] = &cp
	return nil
}

func (m *memrepo) Close() error { return nil }

func cloneGame(g *domain.ArchivedGame) *domain.ArchivedGame {
	cp := *g
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	cp.MovesSAN = append([]string(nil), g.MovesSAN...)
	return &cp
}
