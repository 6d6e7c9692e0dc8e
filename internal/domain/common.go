package domain

// Side represents the opening side of a trade.
type Side string

const (
	SideBuy   Side = "buy"
	SideSell  Side = "sell"
	SideLong  Side = "long"
	SideShort Side = "short"
)

// IsLong reports whether the side profits when price rises.
// Any value other than buy/long is treated as a short.
func (s Side) IsLong() bool {
	return s == SideBuy || s == SideLong
}

// TradeStatus represents the lifecycle state of a trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)
