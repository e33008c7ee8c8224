package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

// CostLooksWrong reports whether a cost price is more than twice the unit
// price it was sold at. Such costs are data-entry errors and are ignored.
func CostLooksWrong(costPrice int64, unitPrice int64) bool {
	return costPrice > 2*unitPrice
}

func LineProfit(item domain.SaleItem, costPrice int64) domain.LineProfit {
	line := domain.LineProfit{
		ProductID: item.ProductID,
		Revenue:   item.Subtotal,
	}
	if CostLooksWrong(costPrice, item.UnitPrice) {
		line.CostIgnored = true
		line.Profit = line.Revenue
		return line
	}
	line.Cost = costPrice * item.RequestedQuantity
	line.Profit = line.Revenue - line.Cost
	return line
}

// SaleProfit sums line profits. costs maps product id to cost price; missing
// products are treated as zero cost.
func SaleProfit(sale domain.Sale, costs map[string]int64) domain.SaleProfit {
	report := domain.SaleProfit{
		SaleID: sale.ID,
		Lines:  make([]domain.LineProfit, 0, len(sale.Items)),
	}
	for _, item := range sale.Items {
		line := LineProfit(item, costs[item.ProductID])
		report.Lines = append(report.Lines, line)
		report.Revenue += line.Revenue
		report.Cost += line.Cost
		report.Profit += line.Profit
	}
	report.MarginPercent = MarginPercent(report.Profit, report.Revenue).StringFixed(2)
	return report
}

func MarginPercent(profit int64, revenue int64) decimal.Decimal {
	if revenue == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(profit).
		Div(decimal.NewFromInt(revenue)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
