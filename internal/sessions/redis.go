package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore backs the session store with redis so revocation is
// shared across replicas.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (rs *redisStore) Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return rs.client.Set(ctx, redisKeyPrefix+token, userID.String(), ttl).Err()
}

func (rs *redisStore) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	raw, err := rs.client.Get(ctx, redisKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("session lookup: %w", err)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("session payload: %w", err)
	}
	return userID, true, nil
}

func (rs *redisStore) Delete(ctx context.Context, token string) error {
	return rs.client.Del(ctx, redisKeyPrefix+token).Err()
}
