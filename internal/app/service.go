package app

import (
	"context"
	"fmt"
	"time"

	"tradeboard/internal/domain"
	"tradeboard/internal/leaderboard"
	"tradeboard/internal/pnl"
	"tradeboard/internal/ports"
)

// TradeService orchestrates the trade lifecycle and leaderboard queries.
type TradeService struct {
	logger    ports.Logger
	tradeRepo ports.TradeRepository
	userRepo  ports.UserRepository
	now       func() time.Time // Injectable clock for tests
}

// NewTradeService creates a new application service instance.
func NewTradeService(logger ports.Logger, tradeRepo ports.TradeRepository, userRepo ports.UserRepository) (*TradeService, error) {
	// Validate dependencies
	if logger == nil || tradeRepo == nil || userRepo == nil {
		return nil, fmt.Errorf("missing required dependencies for TradeService")
	}
	return &TradeService{
		logger:    logger,
		tradeRepo: tradeRepo,
		userRepo:  userRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// OpenTradeRequest carries the attributes of a new trade. Only the store
// needs to accept it; there is no required-field validation beyond that.
// Meta is an opaque passthrough for broker-specific instrument data.
type OpenTradeRequest struct {
	UserID     string
	Broker     string
	Symbol     string
	AssetType  string
	Side       domain.Side
	Quantity   float64
	Multiplier float64
	EntryPrice float64
	Fees       float64
	OpenedAt   time.Time
	Meta       map[string]interface{}
}

// OpenTrade persists a new open trade and returns its assigned ID.
// OpenedAt defaults to the current time when omitted.
func (s *TradeService) OpenTrade(ctx context.Context, req OpenTradeRequest) (int64, error) {
	// Normalize to UTC so stored timestamps compare consistently regardless
	// of the caller's zone offset.
	openedAt := req.OpenedAt.UTC()
	if req.OpenedAt.IsZero() {
		openedAt = s.now()
	}

	trade := &domain.Trade{
		UserID:     req.UserID,
		Broker:     req.Broker,
		Symbol:     req.Symbol,
		AssetType:  req.AssetType,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Multiplier: req.Multiplier,
		EntryPrice: req.EntryPrice,
		Fees:       req.Fees,
		Status:     domain.StatusOpen,
		OpenedAt:   openedAt,
		Meta:       req.Meta,
	}

	id, err := s.tradeRepo.Create(ctx, trade)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to open trade", map[string]interface{}{"userID": req.UserID, "symbol": req.Symbol})
		return 0, err
	}
	s.logger.Info(ctx, "Trade opened", map[string]interface{}{"tradeID": id, "userID": req.UserID, "symbol": req.Symbol, "side": req.Side})
	return id, nil
}

// CloseTradeRequest identifies the trade to close and the exit fields.
// ExitPrice is a pointer so that an absent price can be told apart from an
// explicit zero and rejected.
type CloseTradeRequest struct {
	TradeID   int64
	ExitPrice *float64
	Fees      float64
	ClosedAt  time.Time
}

// CloseTradeResult reports the realized figures persisted at close.
type CloseTradeResult struct {
	PnL       float64
	ReturnPct float64
}

// CloseTrade computes realized PnL for the trade and persists the close.
// The stored fee total is incremented by the close-time fee. There is no
// already-closed guard: re-closing recomputes and overwrites (last write wins).
func (s *TradeService) CloseTrade(ctx context.Context, req CloseTradeRequest) (CloseTradeResult, error) {
	if req.TradeID == 0 {
		return CloseTradeResult{}, fmt.Errorf("tradeId required: %w", ports.ErrInvalidRequest)
	}
	if req.ExitPrice == nil {
		return CloseTradeResult{}, fmt.Errorf("exitPrice required: %w", ports.ErrInvalidRequest)
	}

	trade, err := s.tradeRepo.FindByID(ctx, req.TradeID)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to look up trade for close", map[string]interface{}{"tradeID": req.TradeID})
		return CloseTradeResult{}, err
	}
	if trade == nil {
		return CloseTradeResult{}, fmt.Errorf("trade %d: %w", req.TradeID, ports.ErrNotFound)
	}

	closedAt := req.ClosedAt.UTC()
	if req.ClosedAt.IsZero() {
		closedAt = s.now()
	}

	res := pnl.Compute(pnl.Inputs{
		Side:       trade.Side,
		EntryPrice: trade.EntryPrice,
		ExitPrice:  *req.ExitPrice,
		Quantity:   trade.Quantity,
		Multiplier: trade.Multiplier,
		Fees:       trade.Fees + req.Fees, // open-time fees plus close-time fee
	})

	// Persisted returnPct is percentage-scaled; the leaderboard keeps the raw ratio.
	result := CloseTradeResult{
		PnL:       pnl.Round2(res.PnL),
		ReturnPct: pnl.Round2(res.ReturnPct * 100),
	}

	err = s.tradeRepo.CloseTrade(ctx, req.TradeID, ports.TradeClose{
		ExitPrice: *req.ExitPrice,
		ClosedAt:  closedAt,
		PnL:       result.PnL,
		ReturnPct: result.ReturnPct,
		CloseFees: req.Fees,
	})
	if err != nil {
		s.logger.Error(ctx, err, "Failed to persist trade close", map[string]interface{}{"tradeID": req.TradeID})
		return CloseTradeResult{}, err
	}

	s.logger.Info(ctx, "Trade closed", map[string]interface{}{
		"tradeID": req.TradeID, "pnl": result.PnL, "returnPct": result.ReturnPct,
	})
	return result, nil
}

// LeaderboardQuery selects the window, ranking metric and row limit.
type LeaderboardQuery struct {
	Window leaderboard.Window
	Metric leaderboard.Metric
	Limit  int
}

// Leaderboard scans closed trades in the window, recomputes per-trade PnL,
// aggregates per user, joins display profiles and returns ranked rows.
// Zero matching trades yields an empty board, not an error.
func (s *TradeService) Leaderboard(ctx context.Context, q LeaderboardQuery) (*leaderboard.Board, error) {
	window := q.Window
	if window == "" {
		window = leaderboard.WindowAll
	}
	metric := q.Metric
	if metric == "" {
		metric = leaderboard.MetricPnL
	}
	limit := leaderboard.ClampLimit(q.Limit)

	start, end, bounded := window.Range(s.now())
	trades, err := s.tradeRepo.FindClosed(ctx, start, end, bounded)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to query closed trades for leaderboard", map[string]interface{}{"window": window})
		return nil, err
	}

	users, err := s.userRepo.FindByIDs(ctx, leaderboard.UserIDs(trades))
	if err != nil {
		s.logger.Error(ctx, err, "Failed to query user profiles for leaderboard")
		return nil, err
	}

	rows := leaderboard.Aggregate(trades, users, metric, limit)
	s.logger.Debug(ctx, "Leaderboard computed", map[string]interface{}{
		"window": window, "metric": metric, "trades": len(trades), "rows": len(rows),
	})
	return &leaderboard.Board{Window: window, Metric: metric, Rows: rows}, nil
}
