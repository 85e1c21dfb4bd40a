package geo

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisIndex implements Index using Redis GEO commands, so several API
// instances share one view of joinable rides.
type RedisIndex struct {
	client *redis.Client
	key    string
}

func NewRedisIndex(addr, password, key string) *RedisIndex {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisIndex{client: c, key: key}
}

var _ Index = (*RedisIndex)(nil)

func (r *RedisIndex) Upsert(p RidePoint) {
	ctx := context.Background()
	_, _ = r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Longitude: p.Longitude,
		Latitude:  p.Latitude,
		Name:      p.RideID,
	}).Result()
}

func (r *RedisIndex) Remove(rideID string) {
	ctx := context.Background()
	_ = r.client.ZRem(ctx, r.key, rideID).Err()
}

func (r *RedisIndex) Nearby(lat, lng, radiusKm float64, limit int) []RidePoint {
	ctx := context.Background()
	res, err := r.client.GeoRadius(ctx, r.key, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Count:     limit,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil
	}
	out := make([]RidePoint, 0, len(res))
	for _, g := range res {
		out = append(out, RidePoint{
			RideID:    g.Name,
			Latitude:  g.Latitude,
			Longitude: g.Longitude,
		})
	}
	return out
}
