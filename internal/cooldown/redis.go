package cooldown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"CryptoAdvisor/internal/model"
)

// RedisStore keeps the notification history in Redis so cooldowns survive
// restarts. Records live in a sorted set scored by unix milliseconds; the
// newest record per (symbol, type) is mirrored in a hash for O(1) lookups.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisStore creates a RedisStore. If namespace is empty, it uses "cooldown".
func NewRedisStore(rdb *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "cooldown"
	}
	return &RedisStore{rdb: rdb, namespace: namespace}
}

func (s *RedisStore) historyKey() string { return s.namespace + ":history" }
func (s *RedisStore) latestKey() string  { return s.namespace + ":latest" }

func pairField(symbol string, typ model.NotificationType) string {
	return symbol + "|" + string(typ)
}

func (s *RedisStore) Append(ctx context.Context, rec model.NotificationRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	member := string(b)
	score := float64(rec.Timestamp.UnixMilli())
	if err := s.rdb.ZAdd(ctx, s.historyKey(), redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("zadd history: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.latestKey(), pairField(rec.Symbol, rec.Type), member).Err(); err != nil {
		return fmt.Errorf("hset latest: %w", err)
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context, symbol string, typ model.NotificationType) (*model.NotificationRecord, error) {
	b, err := s.rdb.HGet(ctx, s.latestKey(), pairField(symbol, typ)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget latest: %w", err)
	}
	var rec model.NotificationRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		// Corrupted entry; treat as absent and drop it.
		_ = s.rdb.HDel(ctx, s.latestKey(), pairField(symbol, typ)).Err()
		return nil, nil
	}
	return &rec, nil
}

func (s *RedisStore) Prune(ctx context.Context, before time.Time) error {
	upper := "(" + strconv.FormatInt(before.UnixMilli(), 10)
	if err := s.rdb.ZRemRangeByScore(ctx, s.historyKey(), "-inf", upper).Err(); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (s *RedisStore) Since(ctx context.Context, after time.Time) ([]model.NotificationRecord, error) {
	members, err := s.rdb.ZRangeByScore(ctx, s.historyKey(), &redis.ZRangeBy{
		Min: strconv.FormatInt(after.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range history: %w", err)
	}
	out := make([]model.NotificationRecord, 0, len(members))
	for _, m := range members {
		var rec model.NotificationRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
