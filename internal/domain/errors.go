package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidConfiguration = errors.New("invalid configuration: pieces per package must be at least 1")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrOutOfStock           = errors.New("out of stock")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrStockChanged         = errors.New("stock changed since the sale was built")
	ErrPaymentRequired      = errors.New("payment amount required unless approval is requested")
	ErrDebtLimitExceeded    = errors.New("debt limit exceeded")
	ErrAlreadyDecided       = errors.New("sale already decided")
	ErrCustomerRequired     = errors.New("customer required to record debt")
	ErrInvalidSale          = errors.New("invalid sale")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("conflict")
)

// ItemError ties a failure to the product line that caused it.
type ItemError struct {
	ProductID string
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("product %s: %v", e.ProductID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func NewItemError(productID string, err error) error {
	return &ItemError{ProductID: productID, Err: err}
}
