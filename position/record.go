package position

import (
	"fmt"
	"time"

	"github.com/avexo/spotbot/shared"
	"github.com/google/uuid"
)

// RecordStatus represents the status of a trade record.
type RecordStatus int

const (
	Open RecordStatus = iota
	Closed
)

// String stringifies the provided record status.
func (s RecordStatus) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Record represents a round trip trade opened by a confirmed buy order and
// closed by a confirmed sell order.
type Record struct {
	ID         string
	Symbol     string
	EntryPrice float64
	ExitPrice  float64
	PNLPercent float64
	ExitReason string
	Status     RecordStatus
	CreatedOn  uint64
	ClosedOn   uint64
}

// NewRecord initializes a new open trade record.
func NewRecord(symbol string, entryPrice float64) (*Record, error) {
	if symbol == "" {
		return nil, fmt.Errorf("record symbol cannot be an empty string")
	}
	if entryPrice <= 0 {
		return nil, fmt.Errorf("record entry price must be positive, got %v", entryPrice)
	}

	record := &Record{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		EntryPrice: entryPrice,
		Status:     Open,
		CreatedOn:  uint64(time.Now().Unix()),
	}

	return record, nil
}

// Close closes the trade record using the provided exit details.
func (r *Record) Close(exitPrice float64, reason shared.ExitReason) error {
	if r.Status == Closed {
		return fmt.Errorf("trade record %s is already closed", r.ID)
	}

	r.ExitPrice = exitPrice
	r.ExitReason = reason.String()
	r.PNLPercent = ((exitPrice - r.EntryPrice) / r.EntryPrice) * 100
	r.Status = Closed
	r.ClosedOn = uint64(time.Now().Unix())

	return nil
}
