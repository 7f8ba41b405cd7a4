package rating

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const ratingsKey = "chess:ratings"

// RedisRepository keeps ratings in a single Redis hash so a fleet of
// processes shares one ladder. ApplyDecisive uses optimistic WATCH
// transactions so concurrent finishes never drop an update.
type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(redisURL string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisRepository{rdb: rdb}, nil
}

func (r *RedisRepository) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func (r *RedisRepository) Get(ctx context.Context, id string) (int, error) {
	v, err := r.rdb.HGet(ctx, ratingsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return DefaultRating, nil
	}
	if err != nil {
		return 0, err
	}
	return parseRating(v)
}

func (r *RedisRepository) Register(ctx context.Context, id string, rating int) error {
	return r.rdb.HSet(ctx, ratingsKey, id, rating).Err()
}

func (r *RedisRepository) ApplyDecisive(ctx context.Context, winnerID, loserID string) (Adjustment, error) {
	var adj Adjustment
	// retry a few optimistic rounds before giving up
	for attempt := 0; attempt < 5; attempt++ {
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			vals, err := tx.HMGet(ctx, ratingsKey, winnerID, loserID).Result()
			if err != nil {
				return err
			}
			winner, err := ratingOrDefault(vals[0])
			if err != nil {
				return err
			}
			loser, err := ratingOrDefault(vals[1])
			if err != nil {
				return err
			}
			adj = adjust(winnerID, loserID, winner, loser)
			pipe := tx.TxPipeline()
			pipe.HSet(ctx, ratingsKey, winnerID, adj.WinnerRating, loserID, adj.LoserRating)
			_, err = pipe.Exec(ctx)
			return err
		}, ratingsKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return adj, err
	}
	return Adjustment{}, fmt.Errorf("rating adjustment for %s/%s kept losing watch races", winnerID, loserID)
}

func ratingOrDefault(v any) (int, error) {
	if v == nil {
		return DefaultRating, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected rating value %T", v)
	}
	return parseRating(s)
}

func parseRating(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("corrupt rating value %q: %w", s, err)
	}
	return n, nil
}
