package shared

// ExitReason represents the reason a position was exited.
type ExitReason int

const (
	SignalReversal ExitReason = iota
	StopLossHit
	TakeProfitHit
)

// String stringifies the provided exit reason.
func (r ExitReason) String() string {
	switch r {
	case SignalReversal:
		return "signal reversal"
	case StopLossHit:
		return "stop loss hit"
	case TakeProfitHit:
		return "take profit hit"
	default:
		return "unknown"
	}
}
