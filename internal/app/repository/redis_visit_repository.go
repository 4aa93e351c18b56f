package repository

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/VisitAudit/internal/app/model"
)

type redisVisitRepository struct {
	client *redis.Client
	key    string
}

// NewRedisVisitRepository stores each visit as a JSON element of the list at key.
func NewRedisVisitRepository(client *redis.Client, key string) VisitRepository {
	return &redisVisitRepository{client: client, key: key}
}

func (r *redisVisitRepository) Append(ctx context.Context, visit *model.VisitRecord) error {
	data, err := json.Marshal(visit)
	if err != nil {
		return fmt.Errorf("encode visit: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("push visit: %w", err)
	}
	return nil
}

func (r *redisVisitRepository) ListAll(ctx context.Context) ([]model.VisitRecord, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("range visits: %w", err)
	}

	out := make([]model.VisitRecord, 0, len(raw))
	for _, item := range raw {
		var v model.VisitRecord
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			return nil, fmt.Errorf("decode visit: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
