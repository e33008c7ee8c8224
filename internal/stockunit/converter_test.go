package stockunit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

func TestRoundTrip(t *testing.T) {
	for n := int64(1); n <= 24; n++ {
		for packages := int64(0); packages <= 6; packages++ {
			for pieces := int64(0); pieces < n; pieces++ {
				total, err := ToPieces(packages, pieces, n)
				require.NoError(t, err)

				got, err := FromPieces(total, n)
				require.NoError(t, err)
				assert.Equal(t, Quantity{Packages: packages, Pieces: pieces}, got, "n=%d", n)
			}
		}
	}
}

func TestToPiecesRejectsBadConfiguration(t *testing.T) {
	_, err := ToPieces(1, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = FromPieces(10, -3)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestNegativeQuantitiesRejected(t *testing.T) {
	_, err := FromPieces(-1, 12)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = ToPieces(-1, 0, 12)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestDecrementNormalizesStock(t *testing.T) {
	product := domain.Product{ID: "p1", PiecesPerPackage: 12, PackagesInStock: 5, PiecesInStock: 3}

	total, err := TotalPieces(product)
	require.NoError(t, err)
	require.EqualValues(t, 63, total)

	updated, err := Decrement(product, 15)
	require.NoError(t, err)
	assert.EqualValues(t, 4, updated.PackagesInStock)
	assert.EqualValues(t, 0, updated.PiecesInStock)
	assert.EqualValues(t, 48, updated.TotalPieces)
	assert.EqualValues(t, 5, product.PackagesInStock, "input must not be modified")
}

func TestDecrementBreaksOpenPackages(t *testing.T) {
	product := domain.Product{PiecesPerPackage: 10, PackagesInStock: 2, PiecesInStock: 0}

	updated, err := Decrement(product, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated.PackagesInStock)
	assert.EqualValues(t, 7, updated.PiecesInStock)
}

func TestDecrementRejectsOversell(t *testing.T) {
	product := domain.Product{PiecesPerPackage: 6, PackagesInStock: 1, PiecesInStock: 2}

	_, err := Decrement(product, 9)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = Decrement(product, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestWithTotal(t *testing.T) {
	assert.EqualValues(t, 25, WithTotal(domain.Product{PiecesPerPackage: 10, PackagesInStock: 2, PiecesInStock: 5}).TotalPieces)
	assert.EqualValues(t, 0, WithTotal(domain.Product{PiecesPerPackage: 0, PackagesInStock: 2}).TotalPieces)
}

func TestToPiecesRejectsOverflow(t *testing.T) {
	_, err := ToPieces(1<<62+1, 0, 4)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = ToPieces(math.MaxInt64/12, 11, 12)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	total, err := ToPieces(math.MaxInt64/12, 0, 12)
	require.NoError(t, err)
	assert.EqualValues(t, math.MaxInt64/12*12, total)
}

func TestCheckedArithmetic(t *testing.T) {
	_, ok := MulInt64(1<<62, 4)
	assert.False(t, ok)
	_, ok = MulInt64(-1, math.MinInt64)
	assert.False(t, ok)
	got, ok := MulInt64(-3, 7)
	assert.True(t, ok)
	assert.EqualValues(t, -21, got)

	_, ok = AddInt64(math.MaxInt64, 1)
	assert.False(t, ok)
	_, ok = AddInt64(math.MinInt64, -1)
	assert.False(t, ok)
	got, ok = AddInt64(math.MaxInt64, -1)
	assert.True(t, ok)
	assert.EqualValues(t, math.MaxInt64-1, got)
}
