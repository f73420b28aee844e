package memory

import (
	"context"
	"time"

	"evoblast-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// DedupRepository keeps completed turns in process memory. Suitable for a single
// instance; use the redis-backed store when running more than one replica.
type DedupRepository struct {
	cache *cache.Cache
}

func NewDedupRepository(ttl time.Duration) *DedupRepository {
	c := cache.New(ttl, 10*time.Minute)
	return &DedupRepository{
		cache: c,
	}
}

func (r *DedupRepository) Get(ctx context.Context, key string) (*contract.CompletedTurn, bool, error) {
	if x, found := r.cache.Get(key); found {
		return x.(*contract.CompletedTurn), true, nil
	}
	return nil, false, nil
}

func (r *DedupRepository) Save(ctx context.Context, key string, turn *contract.CompletedTurn) error {
	r.cache.Set(key, turn, cache.DefaultExpiration)
	return nil
}
