package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
)

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// RedisResultStore persists series results in Redis as JSON. Entities
// round-trip losslessly: timestamps serialize as RFC3339Nano and float64
// values use the shortest exact representation.
type RedisResultStore struct {
	client *redis.Client
	prefix string
}

// NewRedisResultStore connects and pings the server.
func NewRedisResultStore(cfg RedisConfig) (*RedisResultStore, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "demand"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisResultStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisResultStore) Put(ctx context.Context, res *models.SeriesResult) error {
	data, err := marshalResult(res)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.resultKey(res.SeriesID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), string(res.SeriesID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store result %s: %w", res.SeriesID, err)
	}
	return nil
}

func (s *RedisResultStore) Get(ctx context.Context, id models.SeriesID) (*models.SeriesResult, error) {
	data, err := s.client.Get(ctx, s.resultKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domrepo.ErrNotFound
		}
		return nil, fmt.Errorf("get result %s: %w", id, err)
	}
	return unmarshalResult(data)
}

func (s *RedisResultStore) Keys(ctx context.Context) ([]models.SeriesID, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list result keys: %w", err)
	}
	keys := make([]models.SeriesID, len(members))
	for i, m := range members {
		keys[i] = models.SeriesID(m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (s *RedisResultStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisResultStore) Close() error {
	return s.client.Close()
}

func (s *RedisResultStore) resultKey(id models.SeriesID) string {
	return fmt.Sprintf("%s:result:%s", s.prefix, id)
}

func (s *RedisResultStore) indexKey() string {
	return s.prefix + ":series"
}

// marshalResult and unmarshalResult are the store codec, split out so the
// round-trip guarantee is testable without a live server.
func marshalResult(res *models.SeriesResult) ([]byte, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result %s: %w", res.SeriesID, err)
	}
	return data, nil
}

func unmarshalResult(data []byte) (*models.SeriesResult, error) {
	var res models.SeriesResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &res, nil
}

var _ domrepo.ResultStore = (*RedisResultStore)(nil)
