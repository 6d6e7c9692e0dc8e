package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeboard/internal/app"
	"tradeboard/internal/domain"
	"tradeboard/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// memoryTradeRepo is a minimal in-memory ports.TradeRepository for handler tests.
type memoryTradeRepo struct {
	nextID int64
	trades map[int64]*domain.Trade
}

func newMemoryTradeRepo() *memoryTradeRepo {
	return &memoryTradeRepo{nextID: 1, trades: make(map[int64]*domain.Trade)}
}

func (m *memoryTradeRepo) Create(ctx context.Context, trade *domain.Trade) (int64, error) {
	id := m.nextID
	m.nextID++
	trade.ID = id
	m.trades[id] = trade
	return id, nil
}

func (m *memoryTradeRepo) FindByID(ctx context.Context, id int64) (*domain.Trade, error) {
	return m.trades[id], nil
}

func (m *memoryTradeRepo) CloseTrade(ctx context.Context, id int64, upd ports.TradeClose) error {
	t, ok := m.trades[id]
	if !ok {
		return ports.ErrNotFound
	}
	t.ExitPrice = upd.ExitPrice
	t.ClosedAt = upd.ClosedAt
	t.Status = domain.StatusClosed
	t.PnL = upd.PnL
	t.ReturnPct = upd.ReturnPct
	t.Fees += upd.CloseFees
	return nil
}

func (m *memoryTradeRepo) FindClosed(ctx context.Context, start, end time.Time, bounded bool) ([]*domain.Trade, error) {
	out := make([]*domain.Trade, 0)
	for _, t := range m.trades {
		if t.Status != domain.StatusClosed {
			continue
		}
		if bounded && (t.ClosedAt.Before(start) || t.ClosedAt.After(end)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type memoryUserRepo struct{ users map[string]domain.User }

func (m *memoryUserRepo) FindByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *memoryUserRepo) Upsert(ctx context.Context, user domain.User) error {
	m.users[user.ID] = user
	return nil
}

func setupServer(t *testing.T) (*Server, *memoryTradeRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemoryTradeRepo()
	users := &memoryUserRepo{users: map[string]domain.User{
		"uid_123": {ID: "uid_123", DisplayName: "Test Trader", Handle: "tt"},
	}}
	svc, err := app.NewTradeService(&mockLogger{}, repo, users)
	require.NoError(t, err)

	return NewServer(Config{Service: svc, Logger: &mockLogger{}, CORSOrigin: "*"}), repo
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestOpenAndCloseTrade(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/trades/open", map[string]interface{}{
		"userId":     "uid_123",
		"broker":     "tradier",
		"symbol":     "TSLA",
		"assetType":  "option",
		"side":       "buy",
		"quantity":   1,
		"multiplier": 100,
		"entryPrice": 12.25,
		"fees":       0.65,
		"meta":       map[string]interface{}{"optionType": "put", "strike": 435},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var opened openTradeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	assert.True(t, opened.OK)
	require.Equal(t, int64(1), opened.TradeID)

	w = doJSON(t, s, http.MethodPost, "/trades/close", map[string]interface{}{
		"tradeId":   opened.TradeID,
		"exitPrice": 15.05,
		"fees":      0.35,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var closed closeTradeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.True(t, closed.OK)
	assert.InDelta(t, 279.0, closed.PnL, 1e-9)
	assert.InDelta(t, 22.78, closed.ReturnPct, 1e-9)
}

func TestCloseTrade_MissingFields(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/trades/close", map[string]interface{}{"exitPrice": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/trades/close", map[string]interface{}{"tradeId": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCloseTrade_UnknownTrade(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/trades/close", map[string]interface{}{"tradeId": 99, "exitPrice": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLeaderboard(t *testing.T) {
	s, repo := setupServer(t)
	ctx := context.Background()

	closedAt := time.Now().UTC().Add(-time.Hour)
	for i, exit := range []float64{130, 110} {
		trade := &domain.Trade{
			UserID: "uid_123", Side: domain.SideBuy, Quantity: 1,
			EntryPrice: 100, Status: domain.StatusOpen, OpenedAt: closedAt.Add(-time.Hour),
		}
		id, err := repo.Create(ctx, trade)
		require.NoError(t, err)
		require.NoError(t, repo.CloseTrade(ctx, id, ports.TradeClose{ExitPrice: exit, ClosedAt: closedAt.Add(time.Duration(i) * time.Minute)}))
	}
	// An open trade never appears on the board
	_, err := repo.Create(ctx, &domain.Trade{UserID: "uid_open", Side: domain.SideBuy, Quantity: 1, EntryPrice: 10, Status: domain.StatusOpen, OpenedAt: closedAt})
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodGet, "/leaderboard?window=all&metric=pnl", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var board struct {
		Window string `json:"window"`
		Metric string `json:"metric"`
		Rows   []struct {
			UserID string  `json:"userId"`
			Trades int     `json:"trades"`
			PnL    float64 `json:"pnl"`
			User   *struct {
				DisplayName string `json:"displayName"`
			} `json:"user"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))

	assert.Equal(t, "all", board.Window)
	assert.Equal(t, "pnl", board.Metric)
	require.Len(t, board.Rows, 1)
	assert.Equal(t, "uid_123", board.Rows[0].UserID)
	assert.Equal(t, 2, board.Rows[0].Trades)
	assert.InDelta(t, 40.0, board.Rows[0].PnL, 1e-9)
	require.NotNil(t, board.Rows[0].User)
	assert.Equal(t, "Test Trader", board.Rows[0].User.DisplayName)
}

func TestGetLeaderboard_ZeroLimitUsesConfiguredDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := newMemoryTradeRepo()
	svc, err := app.NewTradeService(&mockLogger{}, repo, &memoryUserRepo{users: map[string]domain.User{}})
	require.NoError(t, err)
	s := NewServer(Config{Service: svc, Logger: &mockLogger{}, CORSOrigin: "*", DefaultLimit: 1})

	ctx := context.Background()
	closedAt := time.Now().UTC().Add(-time.Hour)
	for _, user := range []string{"a", "b"} {
		trade := &domain.Trade{UserID: user, Side: domain.SideBuy, Quantity: 1, EntryPrice: 100, Status: domain.StatusOpen, OpenedAt: closedAt.Add(-time.Hour)}
		id, err := repo.Create(ctx, trade)
		require.NoError(t, err)
		require.NoError(t, repo.CloseTrade(ctx, id, ports.TradeClose{ExitPrice: 110, ClosedAt: closedAt}))
	}

	w := doJSON(t, s, http.MethodGet, "/leaderboard?limit=0", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var board struct {
		Rows []struct {
			UserID string `json:"userId"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	// Explicit limit=0 falls back to the configured default of 1
	assert.Len(t, board.Rows, 1)
}

func TestGetLeaderboard_InvalidParams(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodGet, "/leaderboard?window=yearly", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/leaderboard?metric=sharpe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/leaderboard?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
