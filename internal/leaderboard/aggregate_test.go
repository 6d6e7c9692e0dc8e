package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeboard/internal/domain"
)

func closedTrade(userID string, side domain.Side, entry, exit, qty float64, closedAt time.Time) *domain.Trade {
	return &domain.Trade{
		UserID:     userID,
		Symbol:     "TSLA",
		Side:       side,
		Quantity:   qty,
		Multiplier: 1,
		EntryPrice: entry,
		ExitPrice:  exit,
		Status:     domain.StatusClosed,
		ClosedAt:   closedAt,
	}
}

func TestAggregate_GroupsByUser(t *testing.T) {
	t1 := time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 10, 2, 10, 0, 0, 0, time.UTC)

	trades := []*domain.Trade{
		closedTrade("u1", domain.SideBuy, 100, 110, 1, t1), // +10, win
		closedTrade("u1", domain.SideBuy, 100, 95, 1, t2),  // -5
		closedTrade("u2", domain.SideSell, 50, 40, 2, t1),  // +20, win
	}

	rows := Aggregate(trades, nil, MetricPnL, 50)
	require.Len(t, rows, 2)

	// u2 leads on pnl
	assert.Equal(t, "u2", rows[0].UserID)
	assert.Equal(t, 1, rows[0].Trades)
	assert.Equal(t, 1, rows[0].Wins)
	assert.InDelta(t, 20, rows[0].PnL, 1e-9)
	assert.InDelta(t, 100, rows[0].Cost, 1e-9)
	assert.Equal(t, t1, rows[0].LastTradeAt)

	assert.Equal(t, "u1", rows[1].UserID)
	assert.Equal(t, 2, rows[1].Trades)
	assert.Equal(t, 1, rows[1].Wins)
	assert.InDelta(t, 0.5, rows[1].WinRate, 1e-9)
	assert.InDelta(t, 5, rows[1].PnL, 1e-9)
	assert.Equal(t, t2, rows[1].LastTradeAt)
}

func TestAggregate_ReturnIsRatioOfSumsNotMeanOfRatios(t *testing.T) {
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		// pnl=100 on cost=1000 (10%)
		closedTrade("u1", domain.SideBuy, 1000, 1100, 1, at),
		// pnl=10 on cost=50 (20%)
		closedTrade("u1", domain.SideBuy, 50, 60, 1, at),
	}

	rows := Aggregate(trades, nil, MetricReturnPct, 50)
	require.Len(t, rows, 1)

	// 110/1050 ≈ 0.10476, not the per-trade mean of 0.15
	assert.InDelta(t, 110.0/1050.0, rows[0].ReturnPct, 1e-9)
}

func TestAggregate_MetricChangesOrdering(t *testing.T) {
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		// whale: +500 on cost 100000 → 0.5% return
		closedTrade("whale", domain.SideBuy, 100000, 100500, 1, at),
		// scalper: +50 on cost 100 → 50% return
		closedTrade("scalper", domain.SideBuy, 100, 150, 1, at),
	}

	byPnL := Aggregate(trades, nil, MetricPnL, 50)
	require.Len(t, byPnL, 2)
	assert.Equal(t, "whale", byPnL[0].UserID)

	byReturn := Aggregate(trades, nil, MetricReturnPct, 50)
	require.Len(t, byReturn, 2)
	assert.Equal(t, "scalper", byReturn[0].UserID)
}

func TestAggregate_TieBreaksOnTradeCount(t *testing.T) {
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		closedTrade("one", domain.SideBuy, 100, 110, 1, at), // +10 in 1 trade
		closedTrade("two", domain.SideBuy, 100, 105, 1, at), // +10 across 2 trades
		closedTrade("two", domain.SideBuy, 100, 105, 1, at),
	}

	rows := Aggregate(trades, nil, MetricPnL, 50)
	require.Len(t, rows, 2)
	assert.Equal(t, "two", rows[0].UserID)
}

func TestAggregate_LimitTruncates(t *testing.T) {
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		closedTrade("a", domain.SideBuy, 100, 130, 1, at), // +30
		closedTrade("b", domain.SideBuy, 100, 120, 1, at), // +20
		closedTrade("c", domain.SideBuy, 100, 110, 1, at), // +10
	}

	rows := Aggregate(trades, nil, MetricPnL, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].UserID)
}

func TestAggregate_JoinsProfilesLeftOuter(t *testing.T) {
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		closedTrade("known", domain.SideBuy, 100, 120, 1, at),
		closedTrade("ghost", domain.SideBuy, 100, 110, 1, at),
	}
	users := map[string]domain.User{
		"known": {ID: "known", DisplayName: "Known Trader", AvatarURL: "https://a/b.png", Handle: "knwn"},
	}

	rows := Aggregate(trades, users, MetricPnL, 50)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].User)
	assert.Equal(t, "Known Trader", rows[0].User.DisplayName)
	assert.Equal(t, "knwn", rows[0].User.Handle)

	// Users without a profile still rank, just with no display data
	assert.Equal(t, "ghost", rows[1].UserID)
	assert.Nil(t, rows[1].User)
}

func TestAggregate_RecomputesFromTradeFields(t *testing.T) {
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	trade := closedTrade("u1", domain.SideBuy, 100, 110, 1, at)
	// A stale stored value must not leak into the board
	trade.PnL = 9999

	rows := Aggregate([]*domain.Trade{trade}, nil, MetricPnL, 50)
	require.Len(t, rows, 1)
	assert.InDelta(t, 10, rows[0].PnL, 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	rows := Aggregate(nil, nil, MetricPnL, 50)
	assert.Empty(t, rows)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricPnL, m)

	m, err = ParseMetric("return_pct")
	require.NoError(t, err)
	assert.Equal(t, MetricReturnPct, m)

	_, err = ParseMetric("sharpe")
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
	assert.Equal(t, 75, ClampLimit(75))
}

func TestUserIDs(t *testing.T) {
	at := time.Now()
	trades := []*domain.Trade{
		closedTrade("a", domain.SideBuy, 1, 2, 1, at),
		closedTrade("b", domain.SideBuy, 1, 2, 1, at),
		closedTrade("a", domain.SideBuy, 1, 2, 1, at),
	}
	assert.Equal(t, []string{"a", "b"}, UserIDs(trades))
}
