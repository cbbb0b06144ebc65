package cache

import (
	"context"
	"fmt"
	"time"

	"monad_community_portal/internal/model"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	pointsKeyPrefix = "points:"
	oauthKeyPrefix  = "oauth:twitter:"

	pointsTTL = 5 * time.Minute
	oauthTTL  = 10 * time.Minute
)

type Config struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Cache keeps hot point totals out of the database and holds short-lived
// OAuth exchange state.
type Cache struct {
	client *redis.Client
}

func New(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client; tests pass a miniredis-backed one.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) GetPoints(ctx context.Context, address string) (*model.PointTotals, bool) {
	raw, err := c.client.Get(ctx, pointsKeyPrefix+address).Result()
	if err != nil {
		return nil, false
	}

	var totals model.PointTotals
	if err := json.Unmarshal([]byte(raw), &totals); err != nil {
		return nil, false
	}

	return &totals, true
}

func (c *Cache) SetPoints(ctx context.Context, address string, totals *model.PointTotals) error {
	raw, err := json.Marshal(totals)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pointsKeyPrefix+address, raw, pointsTTL).Err()
}

// InvalidatePoints drops the cached totals so the next read refetches after
// a confirmed ledger update.
func (c *Cache) InvalidatePoints(ctx context.Context, address string) error {
	return c.client.Del(ctx, pointsKeyPrefix+address).Err()
}

// Twitter OAuth request tokens map back to the wallet that initiated the
// link. TTL bounds abandoned flows.

func (c *Cache) StoreOAuthToken(ctx context.Context, token, address string) error {
	return c.client.Set(ctx, oauthKeyPrefix+token, address, oauthTTL).Err()
}

func (c *Cache) TakeOAuthToken(ctx context.Context, token string) (string, error) {
	key := oauthKeyPrefix + token
	address, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", err
	}
	_ = c.client.Del(ctx, key).Err()
	return address, nil
}
