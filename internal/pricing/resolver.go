package pricing

import "github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"

// ResolvePrice picks the unit price for a customer tier. A nil customer is a
// walk-in and pays the regular price. Unknown tiers fall back to regular.
func ResolvePrice(product domain.Product, customer *domain.Customer) int64 {
	if customer == nil {
		return nonNegative(product.RegularPrice)
	}
	switch customer.CustomerType {
	case domain.CustomerTypeWholesale:
		return nonNegative(product.WholesalePrice)
	case domain.CustomerTypeRetail:
		return nonNegative(product.RetailPrice)
	default:
		return nonNegative(product.RegularPrice)
	}
}

func IsKnownCustomerType(customerType string) bool {
	switch customerType {
	case domain.CustomerTypeWholesale, domain.CustomerTypeRetail, domain.CustomerTypeRegular:
		return true
	}
	return false
}

func nonNegative(price int64) int64 {
	if price < 0 {
		return 0
	}
	return price
}
