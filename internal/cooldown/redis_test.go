package cooldown

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoAdvisor/internal/model"
)

func TestNewRedisStore_DefaultNamespace(t *testing.T) {
	s := NewRedisStore(nil, "")
	assert.Equal(t, "cooldown", s.namespace)
	assert.Equal(t, "cooldown:history", s.historyKey())
	assert.Equal(t, "advisor:latest", NewRedisStore(nil, "advisor").latestKey())
}

func TestRedisStore_Append(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	ts := time.UnixMilli(1_700_000_000_000).UTC()
	rec := model.NotificationRecord{Symbol: "BTC", Type: model.NotifyBuy, Timestamp: ts}
	b, _ := json.Marshal(rec)

	mock.ExpectZAdd("cooldown:history", redis.Z{Score: float64(ts.UnixMilli()), Member: string(b)}).SetVal(1)
	mock.ExpectHSet("cooldown:latest", "BTC|BUY", string(b)).SetVal(1)

	s := NewRedisStore(rdb, "")
	require.NoError(t, s.Append(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Latest(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	lvl := 25.0
	ts := time.UnixMilli(1_700_000_000_000).UTC()
	rec := model.NotificationRecord{Symbol: "ETH", Type: model.NotifyProfit, Timestamp: ts, Level: &lvl}
	b, _ := json.Marshal(rec)

	mock.ExpectHGet("cooldown:latest", "ETH|PROFIT").SetVal(string(b))
	mock.ExpectHGet("cooldown:latest", "ETH|LOSS").RedisNil()

	s := NewRedisStore(rdb, "")
	got, err := s.Latest(context.Background(), "ETH", model.NotifyProfit)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Timestamp.Equal(ts))
	require.NotNil(t, got.Level)
	assert.Equal(t, 25.0, *got.Level)

	got, err = s.Latest(context.Background(), "ETH", model.NotifyLoss)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LatestCorruptedEntry(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectHGet("cooldown:latest", "XRP|SELL").SetVal("{not json")
	mock.ExpectHDel("cooldown:latest", "XRP|SELL").SetVal(1)

	s := NewRedisStore(rdb, "")
	got, err := s.Latest(context.Background(), "XRP", model.NotifySell)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LatestError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	boom := errors.New("connection refused")
	mock.ExpectHGet("cooldown:latest", "XRP|SELL").SetErr(boom)

	s := NewRedisStore(rdb, "")
	_, err := s.Latest(context.Background(), "XRP", model.NotifySell)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRedisStore_PruneAndSince(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cutoff := time.UnixMilli(1_700_000_000_000)
	rec := model.NotificationRecord{Symbol: "ADA", Type: model.NotifyLoss, Timestamp: cutoff.Add(time.Minute).UTC()}
	b, _ := json.Marshal(rec)
	ms := strconv.FormatInt(cutoff.UnixMilli(), 10)

	mock.ExpectZRemRangeByScore("cooldown:history", "-inf", "("+ms).SetVal(3)
	mock.ExpectZRangeByScore("cooldown:history", &redis.ZRangeBy{Min: ms, Max: "+inf"}).
		SetVal([]string{string(b), "garbage"})

	s := NewRedisStore(rdb, "")
	ctx := context.Background()
	require.NoError(t, s.Prune(ctx, cutoff))
	got, err := s.Since(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ADA", got[0].Symbol)
	assert.NoError(t, mock.ExpectationsWereMet())
}
