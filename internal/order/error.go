package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrStatusConflict     = errors.New("order status changed, refresh and try again")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOrderTrashed       = errors.New("order is in trash")
	ErrOrderNotTrashed    = errors.New("order is not in trash")
	ErrTrackingIDRequired = errors.New("tracking id is required")
	ErrReasonRequired     = errors.New("rejection reason is required")
	ErrInvalidOrder       = errors.New("invalid order")
)

const (
	OpAccept  = "accept"
	OpReject  = "reject"
	OpAdvance = "advance"
	OpTrash   = "trash"
	OpRestore = "restore"
)

// ActionError reports a failed review action. Draft holds the input the
// admin typed so it can be handed back for another attempt.
type ActionError struct {
	Op      string
	OrderID int64
	Draft   any
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s order %d: %v", e.Op, e.OrderID, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err was rejected before touching storage.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTrackingIDRequired) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrInvalidOrder)
}
