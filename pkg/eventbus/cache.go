package eventbus

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 1000

// Cache remembers processed event ids. It is best effort: entries may be
// evicted and nothing survives a restart.
type Cache interface {
	Contains(id uuid.UUID) bool
	Add(id uuid.UUID)
	Len() int
}

// ProcessedSet keeps ids in insertion order. When it grows past its
// high-water mark it drops the oldest half.
type ProcessedSet struct {
	mu        sync.Mutex
	highWater int
	order     []uuid.UUID
	ids       map[uuid.UUID]struct{}
}

func NewProcessedSet(highWater int) *ProcessedSet {
	if highWater <= 0 {
		highWater = DefaultCacheSize
	}

	return &ProcessedSet{
		highWater: highWater,
		order:     make([]uuid.UUID, 0, highWater+1),
		ids:       make(map[uuid.UUID]struct{}, highWater+1),
	}
}

func (s *ProcessedSet) Contains(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.ids[id]
	return ok
}

func (s *ProcessedSet) Add(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)

	if len(s.order) <= s.highWater {
		return
	}

	drop := len(s.order) - s.highWater/2
	for _, old := range s.order[:drop] {
		delete(s.ids, old)
	}
	kept := make([]uuid.UUID, len(s.order)-drop, s.highWater+1)
	copy(kept, s.order[drop:])
	s.order = kept
}

func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.order)
}

// LRUCache evicts the least recently seen id one at a time.
type LRUCache struct {
	cache *lru.Cache[uuid.UUID, struct{}]
}

func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[uuid.UUID, struct{}](size)
	if err != nil {
		return nil, err
	}

	return &LRUCache{cache: c}, nil
}

func (c *LRUCache) Contains(id uuid.UUID) bool {
	return c.cache.Contains(id)
}

func (c *LRUCache) Add(id uuid.UUID) {
	c.cache.Add(id, struct{}{})
}

func (c *LRUCache) Len() int {
	return c.cache.Len()
}
