package service

import (
	"context"
	"sync"
	"time"
)

// UsageStore is the in-memory UsageRepo for single-node deployments.
type UsageStore struct {
	mu          sync.RWMutex
	dailyVolume map[string]uint64 // Key: Caller:YYYY-MM-DD
	dailyOps    map[string]int
}

func NewUsageStore() *UsageStore {
	return &UsageStore{
		dailyVolume: make(map[string]uint64),
		dailyOps:    make(map[string]int),
	}
}

func (s *UsageStore) GetDailyUsage(ctx context.Context, caller string) (int, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.makeKey(caller)
	return s.dailyOps[key], s.dailyVolume[key], nil
}

func (s *UsageStore) AddDailyUsage(ctx context.Context, caller string, ops int, volume uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.makeKey(caller)
	s.dailyVolume[key] += volume
	s.dailyOps[key] += ops
	return nil
}

func (s *UsageStore) makeKey(caller string) string {
	// Buckets split on UTC date
	return caller + ":" + time.Now().UTC().Format("2006-01-02")
}
