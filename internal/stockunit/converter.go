// Package stockunit converts between sealed packages and loose pieces.
package stockunit

import (
	"fmt"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

type Quantity struct {
	Packages int64 `json:"packages"`
	Pieces   int64 `json:"pieces"`
}

func ToPieces(packages int64, pieces int64, piecesPerPackage int64) (int64, error) {
	if piecesPerPackage < 1 {
		return 0, domain.ErrInvalidConfiguration
	}
	if packages < 0 || pieces < 0 {
		return 0, fmt.Errorf("%w: stock counts must not be negative", domain.ErrInvalidQuantity)
	}
	sealed, ok := MulInt64(packages, piecesPerPackage)
	if !ok {
		return 0, fmt.Errorf("%w: stock count out of range", domain.ErrInvalidQuantity)
	}
	total, ok := AddInt64(sealed, pieces)
	if !ok {
		return 0, fmt.Errorf("%w: stock count out of range", domain.ErrInvalidQuantity)
	}
	return total, nil
}

func FromPieces(totalPieces int64, piecesPerPackage int64) (Quantity, error) {
	if piecesPerPackage < 1 {
		return Quantity{}, domain.ErrInvalidConfiguration
	}
	if totalPieces < 0 {
		return Quantity{}, fmt.Errorf("%w: total pieces must not be negative", domain.ErrInvalidQuantity)
	}
	return Quantity{
		Packages: totalPieces / piecesPerPackage,
		Pieces:   totalPieces % piecesPerPackage,
	}, nil
}

func TotalPieces(product domain.Product) (int64, error) {
	return ToPieces(product.PackagesInStock, product.PiecesInStock, product.PiecesPerPackage)
}

// WithTotal returns the product with TotalPieces filled in. Products with a
// broken configuration keep a zero total.
func WithTotal(product domain.Product) domain.Product {
	total, err := TotalPieces(product)
	if err != nil {
		total = 0
	}
	product.TotalPieces = total
	return product
}

// Decrement removes quantity pieces from the product and returns the
// normalized result. The input is left untouched.
func Decrement(product domain.Product, quantity int64) (domain.Product, error) {
	if quantity < 1 {
		return product, domain.ErrInvalidQuantity
	}
	total, err := TotalPieces(product)
	if err != nil {
		return product, err
	}
	if quantity > total {
		return product, domain.ErrInsufficientStock
	}
	return setTotal(product, total-quantity)
}

func setTotal(product domain.Product, total int64) (domain.Product, error) {
	q, err := FromPieces(total, product.PiecesPerPackage)
	if err != nil {
		return product, err
	}
	product.PackagesInStock = q.Packages
	product.PiecesInStock = q.Pieces
	product.TotalPieces = total
	return product, nil
}
