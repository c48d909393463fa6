package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoAdvisor/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGate() (*Gate, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewGate(NewMemoryStore(), WithClock(clock.Now)), clock
}

func level(v float64) *float64 { return &v }

func TestCanSend_IdempotentWithoutRecord(t *testing.T) {
	g, _ := newTestGate()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := g.CanSend(ctx, "BTC", model.NotifyBuy, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCanSend_SellCooldownWithinThirtyMinutes(t *testing.T) {
	g, clock := newTestGate()
	ctx := context.Background()

	require.NoError(t, g.Record(ctx, "XRP", model.NotifySell, nil))

	clock.Advance(10 * time.Minute)
	ok, err := g.CanSend(ctx, "XRP", model.NotifySell, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(10 * time.Minute)
	ok, err = g.CanSend(ctx, "XRP", model.NotifySell, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(10 * time.Minute)
	ok, err = g.CanSend(ctx, "XRP", model.NotifySell, nil)
	require.NoError(t, err)
	assert.True(t, ok, "window elapsed")
}

func TestCanSend_PairsAreIndependent(t *testing.T) {
	g, _ := newTestGate()
	ctx := context.Background()
	require.NoError(t, g.Record(ctx, "BTC", model.NotifyBuy, nil))

	ok, _ := g.CanSend(ctx, "BTC", model.NotifySell, nil)
	assert.True(t, ok)
	ok, _ = g.CanSend(ctx, "ETH", model.NotifyBuy, nil)
	assert.True(t, ok)
	ok, _ = g.CanSend(ctx, "BTC", model.NotifyBuy, nil)
	assert.False(t, ok)
}

func TestCanSend_Windows(t *testing.T) {
	tests := []struct {
		typ    model.NotificationType
		window time.Duration
	}{
		{model.NotifyBuy, time.Hour},
		{model.NotifySell, 30 * time.Minute},
		{model.NotifyProfit, 4 * time.Hour},
		{model.NotifyLoss, 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			g, clock := newTestGate()
			ctx := context.Background()
			require.NoError(t, g.Record(ctx, "ETH", tt.typ, nil))

			clock.Advance(tt.window - time.Second)
			ok, err := g.CanSend(ctx, "ETH", tt.typ, nil)
			require.NoError(t, err)
			assert.False(t, ok)

			clock.Advance(time.Second)
			ok, err = g.CanSend(ctx, "ETH", tt.typ, nil)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestCanSend_LevelOverride(t *testing.T) {
	g, clock := newTestGate()
	ctx := context.Background()
	require.NoError(t, g.Record(ctx, "ETH", model.NotifyProfit, level(25)))
	clock.Advance(time.Minute)

	ok, _ := g.CanSend(ctx, "ETH", model.NotifyProfit, level(40))
	assert.False(t, ok, "15 point swing is not enough")

	ok, _ = g.CanSend(ctx, "ETH", model.NotifyProfit, level(45))
	assert.True(t, ok, "20 point swing overrides")

	ok, _ = g.CanSend(ctx, "ETH", model.NotifyProfit, nil)
	assert.False(t, ok, "missing level cannot override")

	require.NoError(t, g.Record(ctx, "ETH", model.NotifyBuy, level(10)))
	ok, _ = g.CanSend(ctx, "ETH", model.NotifyBuy, level(90))
	assert.False(t, ok, "BUY never overrides")
}

func TestRemaining(t *testing.T) {
	g, clock := newTestGate()
	ctx := context.Background()

	left, err := g.Remaining(ctx, "LTC", model.NotifyLoss)
	require.NoError(t, err)
	assert.Zero(t, left)

	require.NoError(t, g.Record(ctx, "LTC", model.NotifyLoss, level(12)))
	clock.Advance(30 * time.Minute)
	left, err = g.Remaining(ctx, "LTC", model.NotifyLoss)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, left)

	clock.Advance(3 * time.Hour)
	left, _ = g.Remaining(ctx, "LTC", model.NotifyLoss)
	assert.Zero(t, left)
}

func TestSummary_TrailingDay(t *testing.T) {
	g, clock := newTestGate()
	ctx := context.Background()

	require.NoError(t, g.Record(ctx, "BTC", model.NotifyBuy, nil))
	clock.Advance(23 * time.Hour)
	for i := 0; i < 11; i++ {
		require.NoError(t, g.Record(ctx, "ETH", model.NotifySell, nil))
		clock.Advance(time.Minute)
	}
	require.NoError(t, g.Record(ctx, "ADA", model.NotifyLoss, level(11)))

	sum, err := g.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, sum.TotalCount)
	assert.Equal(t, 1, sum.ByType[model.NotifyBuy])
	assert.Equal(t, 11, sum.ByType[model.NotifySell])
	require.Len(t, sum.Recent, 10)
	assert.Equal(t, "ADA", sum.Recent[0].Symbol)
	require.Len(t, sum.Cooldowns, 2, "BUY window expired long ago")
	assert.Equal(t, "ADA", sum.Cooldowns[0].Symbol)
	assert.Equal(t, 2*time.Hour, sum.Cooldowns[0].Remaining)
	assert.Equal(t, model.NotifySell, sum.Cooldowns[1].Type)
	assert.Equal(t, 29*time.Minute, sum.Cooldowns[1].Remaining)

	clock.Advance(2 * time.Hour)
	sum, err = g.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, sum.TotalCount, "BUY record aged out")
	assert.Zero(t, sum.ByType[model.NotifyBuy])
	assert.Empty(t, sum.Cooldowns)
}

func TestRecord_TimestampsMonotonic(t *testing.T) {
	g, clock := newTestGate()
	ctx := context.Background()
	require.NoError(t, g.Record(ctx, "BCH", model.NotifyBuy, nil))
	first := clock.Now()

	clock.Advance(-time.Minute)
	require.NoError(t, g.Record(ctx, "BCH", model.NotifyBuy, nil))

	records, err := g.store.Since(ctx, first.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[1].Timestamp.Before(records[0].Timestamp))
}
