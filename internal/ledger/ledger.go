// Package ledger builds append-only debt ledger entries. Persistence and the
// atomic customer balance update belong to the store.
package ledger

import (
	"fmt"
	"time"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/xid"
)

// Append computes the next entry for customer and returns it with the customer
// carrying the new balance. Positive amounts pay debt down, negative amounts
// add debt, so balance_after = balance_before - amount.
func Append(customer domain.Customer, in domain.LedgerAppend) (domain.DebtLedgerEntry, domain.Customer, error) {
	if in.Amount == 0 {
		return domain.DebtLedgerEntry{}, customer, fmt.Errorf("%w: ledger amount must not be zero", domain.ErrInvalidSale)
	}
	if in.TransactionType == "" {
		return domain.DebtLedgerEntry{}, customer, fmt.Errorf("%w: transaction type required", domain.ErrInvalidSale)
	}
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	entry := domain.DebtLedgerEntry{
		ID:              xid.New("led"),
		CustomerID:      customer.ID,
		Amount:          in.Amount,
		BalanceBefore:   customer.DebtBalance,
		BalanceAfter:    customer.DebtBalance - in.Amount,
		TransactionType: in.TransactionType,
		Reference:       in.Reference,
		Note:            in.Note,
		CreatedBy:       in.Actor,
		CreatedAt:       at,
	}
	customer.DebtBalance = entry.BalanceAfter
	customer.UpdatedAt = at
	return entry, customer, nil
}

// Payment appends a debt repayment. Paying more than is owed is rejected.
func Payment(customer domain.Customer, amount int64, note string, actor string, at time.Time) (domain.DebtLedgerEntry, domain.Customer, error) {
	if amount <= 0 {
		return domain.DebtLedgerEntry{}, customer, fmt.Errorf("%w: payment must be positive", domain.ErrInvalidSale)
	}
	if amount > customer.DebtBalance {
		return domain.DebtLedgerEntry{}, customer, fmt.Errorf("%w: payment %d exceeds outstanding debt %d", domain.ErrInvalidSale, amount, customer.DebtBalance)
	}
	return Append(customer, domain.LedgerAppend{
		CustomerID:      customer.ID,
		Amount:          amount,
		TransactionType: domain.LedgerTypeDebtPayment,
		Note:            note,
		Actor:           actor,
		At:              at,
	})
}

// Reverse cancels the effect of original with a new opposite entry.
func Reverse(original domain.DebtLedgerEntry, customer domain.Customer, reason string, actor string, at time.Time) (domain.DebtLedgerEntry, domain.Customer, error) {
	if original.CustomerID != customer.ID {
		return domain.DebtLedgerEntry{}, customer, fmt.Errorf("%w: entry belongs to another customer", domain.ErrInvalidSale)
	}
	if original.TransactionType == domain.LedgerTypeReversal {
		return domain.DebtLedgerEntry{}, customer, fmt.Errorf("%w: reversal entries cannot be reversed", domain.ErrConflict)
	}
	return Append(customer, domain.LedgerAppend{
		CustomerID:      customer.ID,
		Amount:          -original.Amount,
		TransactionType: domain.LedgerTypeReversal,
		Reference:       original.ID,
		Note:            reason,
		Actor:           actor,
		At:              at,
	})
}

// VerifyChain checks entries (oldest first) for arithmetic and chaining and
// that the last balance matches current.
func VerifyChain(entries []domain.DebtLedgerEntry, current int64) error {
	running := int64(0)
	for i, entry := range entries {
		if i > 0 && entry.BalanceBefore != running {
			return fmt.Errorf("ledger entry %s: balance_before %d does not follow %d", entry.ID, entry.BalanceBefore, running)
		}
		if entry.BalanceAfter != entry.BalanceBefore-entry.Amount {
			return fmt.Errorf("ledger entry %s: balance_after %d does not match amount %d", entry.ID, entry.BalanceAfter, entry.Amount)
		}
		running = entry.BalanceAfter
	}
	if len(entries) > 0 && running != current {
		return fmt.Errorf("ledger running balance %d does not match customer balance %d", running, current)
	}
	return nil
}
