// Package leaderboard turns a set of closed trades into ranked per-user
// rows. PnL is recomputed per trade rather than read from the stored values
// so that historical trades written under older calculation rules rank
// consistently with fresh ones.
package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"tradeboard/internal/domain"
	"tradeboard/internal/pnl"
)

// Metric selects the leaderboard sort key.
type Metric string

const (
	MetricPnL       Metric = "pnl"
	MetricReturnPct Metric = "return_pct"
)

// ParseMetric validates a metric selector string. Empty defaults to pnl.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricPnL, MetricReturnPct:
		return Metric(s), nil
	case "":
		return MetricPnL, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ClampLimit forces limit into [1, MaxLimit], substituting the default for
// zero or negative values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Row is a single ranked leaderboard entry for one user.
// ReturnPct is the aggregate ratio sum(pnl)/sum(costBasis) — not an average
// of per-trade returns, and not percentage-scaled.
type Row struct {
	UserID      string       `json:"userId"`
	Trades      int          `json:"trades"`
	Wins        int          `json:"wins"`
	WinRate     float64      `json:"winRate"`
	PnL         float64      `json:"pnl"`
	Cost        float64      `json:"cost"`
	ReturnPct   float64      `json:"returnPct"`
	LastTradeAt time.Time    `json:"lastTradeAt"`
	User        *UserProfile `json:"user,omitempty"`
}

// UserProfile is the display metadata joined into a row. Nil on the row when
// the user has no profile in the reference data.
type UserProfile struct {
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Handle      string `json:"handle,omitempty"`
}

// Board is the full leaderboard response shape.
type Board struct {
	Window Window `json:"window"`
	Metric Metric `json:"metric"`
	Rows   []Row  `json:"rows"`
}

// Aggregate runs the ranking pipeline over an already window-filtered set of
// closed trades: derive per-trade pnl/cost/win, group by user, derive
// aggregate ratios, join profiles, sort by metric, truncate to limit.
func Aggregate(trades []*domain.Trade, users map[string]domain.User, metric Metric, limit int) []Row {
	groups := make(map[string]*Row)
	for _, t := range trades {
		res := pnl.Compute(pnl.FromTrade(t))

		row, ok := groups[t.UserID]
		if !ok {
			row = &Row{UserID: t.UserID}
			groups[t.UserID] = row
		}
		row.Trades++
		if res.Win {
			row.Wins++
		}
		row.PnL += res.PnL
		row.Cost += res.CostBasis
		if t.ClosedAt.After(row.LastTradeAt) {
			row.LastTradeAt = t.ClosedAt
		}
	}

	rows := make([]Row, 0, len(groups))
	for _, row := range groups {
		if row.Trades > 0 {
			row.WinRate = float64(row.Wins) / float64(row.Trades)
		}
		if row.Cost > 0 {
			row.ReturnPct = row.PnL / row.Cost
		}
		if u, ok := users[row.UserID]; ok {
			row.User = &UserProfile{
				DisplayName: u.DisplayName,
				AvatarURL:   u.AvatarURL,
				Handle:      u.Handle,
			}
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].PnL, rows[j].PnL
		if metric == MetricReturnPct {
			a, b = rows[i].ReturnPct, rows[j].ReturnPct
		}
		if a != b {
			return a > b
		}
		return rows[i].Trades > rows[j].Trades
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// UserIDs returns the distinct user IDs across the trade set, for the
// profile join lookup.
func UserIDs(trades []*domain.Trade) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, t := range trades {
		if _, ok := seen[t.UserID]; !ok {
			seen[t.UserID] = struct{}{}
			ids = append(ids, t.UserID)
		}
	}
	return ids
}
