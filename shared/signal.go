package shared

// Signal represents a trade signal derived from market data.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

// String stringifies the provided signal.
func (s Signal) String() string {
	switch s {
	case Hold:
		return "HOLD"
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "unknown"
	}
}

// Side represents the side of an order.
type Side int

const (
	BuySide Side = iota
	SellSide
)

// String stringifies the provided order side.
func (s Side) String() string {
	switch s {
	case BuySide:
		return "BUY"
	case SellSide:
		return "SELL"
	default:
		return "unknown"
	}
}
