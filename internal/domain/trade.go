package domain

import "time"

// Trade represents a single position lifecycle: opened once, closed once in full.
type Trade struct {
	ID         int64                  // Unique identifier for the trade (assigned by the store)
	UserID     string                 // Owner of the trade (reference into user data, not enforced)
	Broker     string                 // Originating broker (opaque passthrough)
	Symbol     string                 // Instrument symbol (e.g., "TSLA")
	AssetType  string                 // Instrument class (e.g., "equity", "option")
	Side       Side                   // Opening side (buy/long or sell/short)
	Quantity   float64                // Position size, always a positive magnitude
	Multiplier float64                // Contract multiplier (0 means unset, treated as 1)
	EntryPrice float64                // Price at which the position was entered
	ExitPrice  float64                // Price at which the position was exited (0 if open)
	Fees       float64                // Accumulated fees: open-time fee plus close-time fee
	Status     TradeStatus            // Current status (open, closed)
	OpenedAt   time.Time              // Timestamp when the position was opened
	ClosedAt   time.Time              // Timestamp when the position was closed (zero value if open)
	PnL        float64                // Realized profit, persisted at close (2-decimal rounded)
	ReturnPct  float64                // Percentage return on cost basis, persisted at close (2-decimal rounded)
	Meta       map[string]interface{} // Broker-specific instrument metadata (option type, strike, expiry, ...)
}

// IsOpen checks if the trade status is open.
func (t *Trade) IsOpen() bool {
	return t.Status == StatusOpen
}
