// Package approval implements the sale lifecycle and the commit plan that
// turns a sale into stock and ledger mutations.
package approval

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/ledger"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/reconcile"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/stockunit"
)

func InitialState(requiresApproval bool) string {
	if requiresApproval {
		return domain.SaleStatusPending
	}
	return domain.SaleStatusFinal
}

// Decide moves a pending sale to approved or rejected. Any other state has
// already been decided.
func Decide(current string, approve bool) (string, error) {
	if IsTerminal(current) {
		return current, domain.ErrAlreadyDecided
	}
	if current != domain.SaleStatusPending {
		return current, fmt.Errorf("%w: unknown sale status %q", domain.ErrInvalidSale, current)
	}
	if approve {
		return domain.SaleStatusApproved, nil
	}
	return domain.SaleStatusRejected, nil
}

// IsTerminal reports whether no further transition is allowed.
func IsTerminal(status string) bool {
	switch status {
	case domain.SaleStatusFinal, domain.SaleStatusApproved, domain.SaleStatusRejected:
		return true
	}
	return false
}

type CommitOptions struct {
	// EnforceDebtLimit is set for sales committed at submission. A limit
	// breach then returns ErrDebtLimitExceeded so the caller can route the
	// sale to approval.
	EnforceDebtLimit bool
	Actor            string
	At               time.Time
}

type Plan struct {
	Products    []domain.Product
	Customer    *domain.Customer
	LedgerEntry *domain.DebtLedgerEntry
	// Payment is the amount the commit settles with; an unset payment on an
	// approved sale counts as zero.
	Payment        int64
	Classification reconcile.Result
}

// PlanCommit validates sale against the current (locked) products and customer
// and computes every mutation the commit needs. Nothing is applied here; the
// caller writes the plan in one atomic unit or not at all.
func PlanCommit(sale domain.Sale, products map[string]domain.Product, customer *domain.Customer, opts CommitOptions) (Plan, error) {
	if len(sale.Items) == 0 {
		return Plan{}, fmt.Errorf("%w: sale has no items", domain.ErrInvalidSale)
	}
	if sale.CustomerID != "" && (customer == nil || customer.ID != sale.CustomerID) {
		return Plan{}, fmt.Errorf("customer %s: %w", sale.CustomerID, domain.ErrNotFound)
	}

	wanted := make(map[string]int64, len(sale.Items))
	total := int64(0)
	for _, item := range sale.Items {
		if item.RequestedQuantity < 1 {
			return Plan{}, domain.NewItemError(item.ProductID, domain.ErrInvalidQuantity)
		}
		qty, ok := stockunit.AddInt64(wanted[item.ProductID], item.RequestedQuantity)
		if !ok {
			return Plan{}, domain.NewItemError(item.ProductID, domain.ErrInvalidQuantity)
		}
		wanted[item.ProductID] = qty
		if total, ok = stockunit.AddInt64(total, item.Subtotal); !ok {
			return Plan{}, fmt.Errorf("%w: sale total out of range", domain.ErrInvalidSale)
		}
	}
	if total != sale.TotalAmount {
		return Plan{}, fmt.Errorf("%w: total %d does not match items %d", domain.ErrInvalidSale, sale.TotalAmount, total)
	}

	ids := make([]string, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	updated := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			return Plan{}, domain.NewItemError(id, domain.ErrNotFound)
		}
		next, err := stockunit.Decrement(product, wanted[id])
		if errors.Is(err, domain.ErrInsufficientStock) {
			return Plan{}, domain.NewItemError(id, domain.ErrStockChanged)
		}
		if err != nil {
			return Plan{}, domain.NewItemError(id, err)
		}
		next.UpdatedAt = opts.At
		updated = append(updated, next)
	}

	in := reconcile.Input{
		Total:        sale.TotalAmount,
		Payment:      sale.PaymentAmount,
		ExcessAction: sale.ExcessAction,
		Customer:     customer,
	}
	var (
		res reconcile.Result
		err error
	)
	if opts.EnforceDebtLimit {
		res, err = reconcile.Classify(in)
		if err == nil && res.RequiresApproval {
			return Plan{}, domain.ErrDebtLimitExceeded
		}
	} else {
		res, err = reconcile.ClassifyForCommit(in)
	}
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{Products: updated, Classification: res}
	if sale.PaymentAmount != nil {
		plan.Payment = *sale.PaymentAmount
	}
	if customer != nil {
		cp := *customer
		plan.Customer = &cp
	}
	if res.HasLedgerEffect() {
		entry, next, err := ledger.Append(*customer, domain.LedgerAppend{
			CustomerID:      customer.ID,
			Amount:          res.LedgerAmount,
			TransactionType: res.LedgerType,
			Reference:       sale.ID,
			Actor:           opts.Actor,
			At:              opts.At,
		})
		if err != nil {
			return Plan{}, err
		}
		plan.LedgerEntry = &entry
		plan.Customer = &next
	}
	return plan, nil
}

// Finalize stamps the outcome of a commit or decision onto the sale. A
// committed sale always carries the payment it was settled with.
func Finalize(sale domain.Sale, status string, plan *Plan, decidedBy string, note string, at time.Time) domain.Sale {
	sale.Status = status
	switch status {
	case domain.SaleStatusApproved, domain.SaleStatusRejected:
		approved := status == domain.SaleStatusApproved
		sale.AdminApproved = &approved
		sale.DecidedBy = decidedBy
		sale.DecisionNote = note
		decidedAt := at
		sale.DecidedAt = &decidedAt
	}
	if plan != nil {
		sale.ChangeAmount = plan.Classification.Change
		if sale.PaymentAmount == nil {
			paid := plan.Payment
			sale.PaymentAmount = &paid
		}
	}
	return sale
}
