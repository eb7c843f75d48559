// Package risk applies the stop loss and take profit overlay to an open
// position ahead of normal signal evaluation.
package risk

import (
	"errors"
	"fmt"

	"github.com/avexo/spotbot/shared"
)

// ManagerConfig represents the risk manager configuration.
type ManagerConfig struct {
	// StopLossPct is the percentage decline from the entry price that forces
	// a position exit.
	StopLossPct float64
	// TakeProfitPct is the percentage rise from the entry price that forces
	// a position exit.
	TakeProfitPct float64
}

// Validate asserts the config sane inputs.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if cfg.StopLossPct <= 0 {
		errs = errors.Join(errs, fmt.Errorf("stop loss percentage must be positive, got %v", cfg.StopLossPct))
	}
	if cfg.TakeProfitPct <= 0 {
		errs = errors.Join(errs, fmt.Errorf("take profit percentage must be positive, got %v", cfg.TakeProfitPct))
	}

	return errs
}

// Manager evaluates the risk overlay for the tracked position.
type Manager struct {
	cfg *ManagerConfig
}

// NewManager initializes a new risk manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating risk manager config: %w", err)
	}

	return &Manager{cfg: cfg}, nil
}

// Evaluate checks the live price against the stop loss and take profit
// thresholds of the open position. It returns the exit reason and true when
// an exit is forced. Flat positions are a no-op.
func (m *Manager) Evaluate(state shared.PositionState, entryPrice float64, currentPrice float64) (shared.ExitReason, bool) {
	if state != shared.Long {
		return 0, false
	}

	priceChangePct := ((currentPrice - entryPrice) / entryPrice) * 100

	switch {
	case priceChangePct <= -m.cfg.StopLossPct:
		return shared.StopLossHit, true
	case priceChangePct >= m.cfg.TakeProfitPct:
		return shared.TakeProfitHit, true
	}

	return 0, false
}
