package record

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/karuha/puzzleboard-go/internal/domain"
)

// memrepo is a development-only in-memory repository implementation used when
// no DB is configured.
type memrepo struct {
	mu sync.RWMutex

	byID    map[string]*domain.GameRecord
	byOwner map[string][]*domain.GameRecord // owner|game -> slice (append, latest last)
	byDay   map[string]*domain.GameRecord   // owner|game|day -> record
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byID:    make(map[string]*domain.GameRecord),
		byOwner: make(map[string][]*domain.GameRecord),
		byDay:   make(map[string]*domain.GameRecord),
	}
}

func ownerKey(owner, gameID string) string    { return owner + "|" + gameID }
func dayKey(owner, gameID, day string) string { return owner + "|" + gameID + "|" + day }

func (m *memrepo) InsertRecord(ctx context.Context, rec *domain.GameRecord) error {
	if rec == nil {
		return ErrDuplicateRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dk := dayKey(rec.Owner, rec.GameID, rec.PuzzleDay)
	if _, exists := m.byDay[dk]; exists {
		return ErrDuplicateRecord
	}

	cp := *rec
	m.byID[cp.ID] = &cp
	m.byDay[dk] = &cp
	ok := ownerKey(rec.Owner, rec.GameID)
	m.byOwner[ok] = append(m.byOwner[ok], &cp)
	return nil
}

func (m *memrepo) LatestRecord(ctx context.Context, owner, gameID string) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byOwner[ownerKey(owner, gameID)]
	if len(list) == 0 {
		return nil, nil
	}
	latest := list[0]
	for _, r := range list[1:] {
		if r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	cp := *latest
	return &cp, nil
}

func (m *memrepo) RecentRecords(ctx context.Context, owner, gameID string, limit int) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byOwner[ownerKey(owner, gameID)]
	items := make([]*domain.GameRecord, 0, len(list))
	for _, r := range list {
		cp := *r
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) UpdateRecordScores(ctx context.Context, id, owner string, scores domain.Scores, failed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok || r.Owner != owner {
		return sql.ErrNoRows
	}
	r.Scores = scores
	r.Failed = failed
	return nil
}
