package fetchnearbyresources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"careplan-workers/internal/common/metrics"
	"careplan-workers/internal/models"
)

// Cache keeps non-empty directory results keyed by keyword, radius and
// coordinates rounded to about 100 m.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(q Query) string {
	return fmt.Sprintf("careplan:nearby:v1:%s:%d:%.3f:%.3f", q.Keyword, q.RadiusMeters, q.Latitude, q.Longitude)
}

// Get reports a miss for absent keys and for any cache error.
func (c *Cache) Get(ctx context.Context, q Query) ([]models.GeoCandidate, bool) {
	raw, err := c.client.Get(ctx, cacheKey(q)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.GeoCacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.GeoCacheLookups.WithLabelValues("error").Inc()
		}
		return nil, false
	}

	var candidates []models.GeoCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil || len(candidates) == 0 {
		metrics.GeoCacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.GeoCacheLookups.WithLabelValues("hit").Inc()
	return candidates, true
}

func (c *Cache) Set(ctx context.Context, q Query, candidates []models.GeoCandidate) error {
	if len(candidates) == 0 {
		return nil
	}
	data, err := json.Marshal(candidates)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(q), data, c.ttl).Err()
}
