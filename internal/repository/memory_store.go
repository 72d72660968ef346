package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
)

// MemoryResultStore keeps results in process memory behind a RW mutex. Each
// key is written exactly once per batch run by exactly one worker, so the
// write path only needs mutual exclusion, not ordering.
type MemoryResultStore struct {
	mu   sync.RWMutex
	data map[models.SeriesID]*models.SeriesResult
}

// NewMemoryResultStore creates an empty in-memory store.
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{data: make(map[models.SeriesID]*models.SeriesResult)}
}

func (s *MemoryResultStore) Put(_ context.Context, res *models.SeriesResult) error {
	s.mu.Lock()
	s.data[res.SeriesID] = res
	s.mu.Unlock()
	return nil
}

func (s *MemoryResultStore) Get(_ context.Context, id models.SeriesID) (*models.SeriesResult, error) {
	s.mu.RLock()
	res, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domrepo.ErrNotFound
	}
	return res, nil
}

func (s *MemoryResultStore) Keys(_ context.Context) ([]models.SeriesID, error) {
	s.mu.RLock()
	keys := make([]models.SeriesID, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (s *MemoryResultStore) Health(_ context.Context) error { return nil }

func (s *MemoryResultStore) Close() error { return nil }

var _ domrepo.ResultStore = (*MemoryResultStore)(nil)
