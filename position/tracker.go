// Package position owns the agent's long/flat position state. The tracker is
// mutated only by the cycle orchestrator, strictly after order confirmation,
// so no locking is needed.
package position

import (
	"fmt"

	"github.com/avexo/spotbot/shared"
)

// Tracker tracks the current position through its lifecycle. The entry price
// is defined if and only if the state is long.
type Tracker struct {
	state      shared.PositionState
	entryPrice float64
}

// NewTracker initializes a new flat position tracker.
func NewTracker() *Tracker {
	return &Tracker{state: shared.Flat}
}

// State returns the current position state.
func (t *Tracker) State() shared.PositionState {
	return t.state
}

// EntryPrice returns the entry price of the open position. The boolean is
// false when the tracker is flat and no entry price is defined.
func (t *Tracker) EntryPrice() (float64, bool) {
	if t.state != shared.Long {
		return 0, false
	}

	return t.entryPrice, true
}

// Open transitions the tracker from flat to long, recording the provided
// entry price. Opening while already long violates the position invariant
// and leaves the tracker untouched.
func (t *Tracker) Open(entryPrice float64) error {
	if t.state == shared.Long {
		return fmt.Errorf("opening position while %s: %w", t.state.String(), shared.ErrInvariantViolation)
	}
	if entryPrice <= 0 {
		return fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}

	t.state = shared.Long
	t.entryPrice = entryPrice

	return nil
}

// Close transitions the tracker from long to flat and clears the entry
// price. Closing while flat violates the position invariant and leaves the
// tracker untouched.
func (t *Tracker) Close() error {
	if t.state != shared.Long {
		return fmt.Errorf("closing position while %s: %w", t.state.String(), shared.ErrInvariantViolation)
	}

	t.state = shared.Flat
	t.entryPrice = 0

	return nil
}
