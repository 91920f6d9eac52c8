package domain

import "fmt"

// StockInsufficientError rejects a mutation whose resulting quantity would
// exceed checked availability. Distinct from a request timeout: the caller
// can recover by asking for less.
type StockInsufficientError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}
