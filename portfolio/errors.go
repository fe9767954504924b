package portfolio

import "errors"

// Lifecycle and accounting sentinels. These indicate a logic error in
// the driving loop or caller, not a recoverable condition; callers
// should surface them immediately rather than retry.
var (
	// ErrInvalidEntry is returned when opening a position with a
	// non-positive price or share count.
	ErrInvalidEntry = errors.New("invalid position entry")

	// ErrSameDayChurn is returned when a position would be opened and
	// closed on the same date.
	ErrSameDayChurn = errors.New("position churned same-day")

	// ErrAlreadyClosed is returned on any mutation of a closed position.
	ErrAlreadyClosed = errors.New("position already closed")

	// ErrNotClosed is returned when a closed-only accessor is called on
	// an active position.
	ErrNotClosed = errors.New("position not closed")

	// ErrOutOfOrder is returned when a price update would move the
	// ledger backwards in time.
	ErrOutOfOrder = errors.New("price update out of date order")

	// ErrDuplicatePosition is returned when the same (symbol, entry
	// date) identity is recorded twice.
	ErrDuplicatePosition = errors.New("duplicate position")

	// ErrPositionStillOpen is returned when an open position is pushed
	// into the history.
	ErrPositionStillOpen = errors.New("position still open")

	// ErrAlreadyFinished is returned by a repeated Finish call.
	ErrAlreadyFinished = errors.New("simulation already finished")

	// ErrNotFinished is returned by derived-series accessors before
	// Finish has run.
	ErrNotFinished = errors.New("simulation not finished")

	// ErrReconciliationMismatch means the cash and portfolio-value
	// indexes disagree after alignment. The engine's bookkeeping is
	// broken if this fires.
	ErrReconciliationMismatch = errors.New("cash/value series index mismatch")
)
