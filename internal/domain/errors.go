package domain

import (
	"errors"
	"fmt"
)

// ErrStockLimit is matched by every StockLimitError.
var ErrStockLimit = errors.New("stock limit exceeded")

// StockLimitError is returned when a requested quantity exceeds the available
// stock. The cart state is left untouched.
type StockLimitError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("Only %d items available in stock", e.Available)
}

func (e *StockLimitError) Is(target error) bool {
	return target == ErrStockLimit
}
