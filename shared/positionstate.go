package shared

// PositionState represents the agent's current holding state.
type PositionState int

const (
	Flat PositionState = iota
	Long
)

// String stringifies the provided position state.
func (s PositionState) String() string {
	switch s {
	case Flat:
		return "FLAT"
	case Long:
		return "LONG"
	default:
		return "unknown"
	}
}
