package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/propfeed/propfeed/internal/entity"
)

const propertyTTL = 1 * time.Hour

// PropertyCache keeps recently read properties in Redis, keyed by slug.
// Writers invalidate on update/delete.
type PropertyCache struct {
	client *redis.Client
}

func NewPropertyCache(addr string) (*PropertyCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &PropertyCache{client: client}, nil
}

func (c *PropertyCache) GetProperty(ctx context.Context, slug string) (*entity.Property, error) {
	data, err := c.client.Get(ctx, "property:"+slug).Bytes()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	var property entity.Property
	if err := json.Unmarshal(data, &property); err != nil {
		return nil, err
	}
	return &property, nil
}

func (c *PropertyCache) SetProperty(ctx context.Context, property *entity.Property) error {
	data, err := json.Marshal(property)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "property:"+property.Slug, data, propertyTTL).Err()
}

func (c *PropertyCache) DeleteProperty(ctx context.Context, slug string) error {
	return c.client.Del(ctx, "property:"+slug).Err()
}

func (c *PropertyCache) Close() error {
	return c.client.Close()
}
