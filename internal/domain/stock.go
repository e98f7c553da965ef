package domain

import "fmt"

// StockViolation describes one line item whose requested quantity exceeds
// the catalog's available stock.
type StockViolation struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

// StockUnavailableError carries every stock violation found during checkout
// validation, so a client can present all problems at once instead of
// discovering them one retry at a time.
type StockUnavailableError struct {
	Violations []StockViolation
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.Violations))
}
