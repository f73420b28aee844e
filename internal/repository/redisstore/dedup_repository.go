package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"evoblast-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// DedupRepository keeps completed turns in Redis with a TTL so retries are
// deduplicated across replicas.
type DedupRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDedupRepository(client *redis.Client, ttl time.Duration) *DedupRepository {
	return &DedupRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *DedupRepository) key(k string) string {
	return "chat:turn:" + k
}

func (r *DedupRepository) Get(ctx context.Context, key string) (*contract.CompletedTurn, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var turn contract.CompletedTurn
	if err := json.Unmarshal([]byte(val), &turn); err != nil {
		return nil, false, err
	}
	return &turn, true, nil
}

func (r *DedupRepository) Save(ctx context.Context, key string, turn *contract.CompletedTurn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), data, r.ttl).Err()
}
