package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

func TestAppendCreditClearsDebt(t *testing.T) {
	customer := domain.Customer{ID: "c1", DebtBalance: 20000}

	entry, updated, err := Append(customer, domain.LedgerAppend{
		Amount:          20000,
		TransactionType: domain.LedgerTypeOverpaymentCredit,
		Reference:       "sale-1",
		Actor:           "seller",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 20000, entry.Amount)
	assert.EqualValues(t, 20000, entry.BalanceBefore)
	assert.EqualValues(t, 0, entry.BalanceAfter)
	assert.EqualValues(t, 0, updated.DebtBalance)
	assert.Equal(t, "c1", entry.CustomerID)
	assert.Equal(t, "sale-1", entry.Reference)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestAppendDebtIncreasesBalance(t *testing.T) {
	customer := domain.Customer{ID: "c1", DebtBalance: 1000}

	entry, updated, err := Append(customer, domain.LedgerAppend{Amount: -4000, TransactionType: domain.LedgerTypeSaleDebt})
	require.NoError(t, err)
	assert.EqualValues(t, 5000, entry.BalanceAfter)
	assert.EqualValues(t, 5000, updated.DebtBalance)
}

func TestAppendRejectsZeroAmount(t *testing.T) {
	_, _, err := Append(domain.Customer{ID: "c1"}, domain.LedgerAppend{Amount: 0, TransactionType: domain.LedgerTypeSaleDebt})
	assert.ErrorIs(t, err, domain.ErrInvalidSale)
}

func TestPaymentCannotExceedDebt(t *testing.T) {
	customer := domain.Customer{ID: "c1", DebtBalance: 3000}

	_, _, err := Payment(customer, 3001, "", "manager", time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidSale)

	entry, updated, err := Payment(customer, 3000, "cash", "manager", time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerTypeDebtPayment, entry.TransactionType)
	assert.Zero(t, updated.DebtBalance)
}

func TestReverseRestoresBalance(t *testing.T) {
	customer := domain.Customer{ID: "c1"}
	original, customer, err := Append(customer, domain.LedgerAppend{Amount: -7000, TransactionType: domain.LedgerTypeSaleDebt, Reference: "sale-9"})
	require.NoError(t, err)

	reversal, customer, err := Reverse(original, customer, "wrong customer", "manager", time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 7000, reversal.Amount)
	assert.Equal(t, original.ID, reversal.Reference)
	assert.Zero(t, customer.DebtBalance)

	_, _, err = Reverse(reversal, customer, "again", "manager", time.Now())
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, _, err = Reverse(original, domain.Customer{ID: "c2"}, "x", "manager", time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidSale)
}

func TestVerifyChain(t *testing.T) {
	customer := domain.Customer{ID: "c1"}
	var entries []domain.DebtLedgerEntry
	for _, amount := range []int64{-5000, -2000, 3000, 4000} {
		entry, next, err := Append(customer, domain.LedgerAppend{Amount: amount, TransactionType: domain.LedgerTypeSaleDebt})
		require.NoError(t, err)
		entries = append(entries, entry)
		customer = next
	}

	require.NoError(t, VerifyChain(entries, customer.DebtBalance))
	assert.Error(t, VerifyChain(entries, customer.DebtBalance+1))

	entries[2].BalanceBefore++
	assert.Error(t, VerifyChain(entries, customer.DebtBalance))
}
