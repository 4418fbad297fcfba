package jobs

import (
	"context"
	"log"
)

// CachePruner reclaims expired entries and reports how many were dropped.
type CachePruner interface {
	Prune() int
}

// CacheSweeper periodically prunes the transcript/repository cache. Reads
// already drop expired entries lazily; the sweeper reclaims memory for keys
// that are never read again.
type CacheSweeper struct {
	cache CachePruner
}

// NewCacheSweeper creates a new CacheSweeper instance
func NewCacheSweeper(cache CachePruner) *CacheSweeper {
	return &CacheSweeper{cache: cache}
}

// ProcessJobs implements the JobProcessor interface
func (s *CacheSweeper) ProcessJobs(_ context.Context) error {
	if removed := s.cache.Prune(); removed > 0 {
		log.Printf("cache sweep removed %d expired entries", removed)
	}
	return nil
}
