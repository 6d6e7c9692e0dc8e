package ports

import (
	"context"
	"time"

	"tradeboard/internal/domain"
)

// TradeClose carries the fields persisted when a trade is closed.
// CloseFees is added to the stored fee total rather than replacing it.
type TradeClose struct {
	ExitPrice float64
	ClosedAt  time.Time
	PnL       float64
	ReturnPct float64
	CloseFees float64
}

// TradeRepository defines the interface for storing and retrieving trades.
type TradeRepository interface {
	// Create saves a new trade and returns its assigned ID.
	Create(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id int64) (*domain.Trade, error)
	// CloseTrade marks a trade as closed, setting the exit fields and derived
	// values and incrementing the stored fees by upd.CloseFees.
	CloseTrade(ctx context.Context, id int64, upd TradeClose) error
	// FindClosed retrieves all closed trades. When bounded is true only
	// trades with ClosedAt within [start, end] (inclusive) are returned.
	FindClosed(ctx context.Context, start, end time.Time, bounded bool) ([]*domain.Trade, error)
}

// UserRepository defines the interface for the display-only user reference data.
type UserRepository interface {
	// FindByIDs retrieves the users matching the given IDs, keyed by ID.
	// Missing IDs are simply absent from the result; never an error.
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
	// Upsert inserts or replaces a user profile.
	Upsert(ctx context.Context, user domain.User) error
}
