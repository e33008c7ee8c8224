package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

func TestResolvePriceByTier(t *testing.T) {
	product := domain.Product{WholesalePrice: 5000, RetailPrice: 7000, RegularPrice: 8000}

	cases := []struct {
		name     string
		customer *domain.Customer
		want     int64
	}{
		{"walk-in", nil, 8000},
		{"wholesale", &domain.Customer{CustomerType: domain.CustomerTypeWholesale}, 5000},
		{"retail", &domain.Customer{CustomerType: domain.CustomerTypeRetail}, 7000},
		{"regular", &domain.Customer{CustomerType: domain.CustomerTypeRegular}, 8000},
		{"unknown tier", &domain.Customer{CustomerType: "vip"}, 8000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolvePrice(product, tc.customer))
		})
	}
}

func TestResolvePriceDefaultsMissingTierToZero(t *testing.T) {
	product := domain.Product{RetailPrice: 7000, RegularPrice: 8000}
	customer := &domain.Customer{CustomerType: domain.CustomerTypeWholesale}

	assert.Zero(t, ResolvePrice(product, customer))

	product.WholesalePrice = -10
	assert.Zero(t, ResolvePrice(product, customer))
}

func TestIsKnownCustomerType(t *testing.T) {
	assert.True(t, IsKnownCustomerType("wholesale"))
	assert.True(t, IsKnownCustomerType("regular"))
	assert.False(t, IsKnownCustomerType("Wholesale"))
}
