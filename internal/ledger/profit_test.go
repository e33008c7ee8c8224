package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

func TestLineProfitSubtractsCost(t *testing.T) {
	line := LineProfit(domain.SaleItem{ProductID: "p1", RequestedQuantity: 10, UnitPrice: 5000, Subtotal: 50000}, 4000)

	assert.False(t, line.CostIgnored)
	assert.EqualValues(t, 40000, line.Cost)
	assert.EqualValues(t, 10000, line.Profit)
}

func TestLineProfitIgnoresImplausibleCost(t *testing.T) {
	line := LineProfit(domain.SaleItem{ProductID: "p1", RequestedQuantity: 2, UnitPrice: 5000, Subtotal: 10000}, 10001)

	assert.True(t, line.CostIgnored)
	assert.Zero(t, line.Cost)
	assert.EqualValues(t, 10000, line.Profit)

	line = LineProfit(domain.SaleItem{ProductID: "p1", RequestedQuantity: 2, UnitPrice: 5000, Subtotal: 10000}, 10000)
	assert.False(t, line.CostIgnored, "exactly twice the price is still plausible")
	assert.EqualValues(t, -10000, line.Profit)
}

func TestSaleProfitAggregates(t *testing.T) {
	sale := domain.Sale{
		ID: "sale-1",
		Items: []domain.SaleItem{
			{ProductID: "a", RequestedQuantity: 4, UnitPrice: 2500, Subtotal: 10000},
			{ProductID: "b", RequestedQuantity: 1, UnitPrice: 1000, Subtotal: 1000},
		},
	}

	report := SaleProfit(sale, map[string]int64{"a": 2000, "b": 99999})

	assert.EqualValues(t, 11000, report.Revenue)
	assert.EqualValues(t, 8000, report.Cost)
	assert.EqualValues(t, 3000, report.Profit)
	assert.Equal(t, "27.27", report.MarginPercent)
	assert.Len(t, report.Lines, 2)
	assert.True(t, report.Lines[1].CostIgnored)
}

func TestMarginPercentZeroRevenue(t *testing.T) {
	assert.True(t, MarginPercent(0, 0).IsZero())
}
