// Package reconcile classifies a tendered payment against a sale total and
// derives the debt ledger effect.
package reconcile

import (
	"fmt"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/stockunit"
)

type Kind string

const (
	KindFullyPaid       Kind = "fully_paid"
	KindOverpaid        Kind = "overpaid"
	KindUnderpaid       Kind = "underpaid"
	KindAwaitingPayment Kind = "awaiting_payment"
)

type Input struct {
	Total            int64
	Payment          *int64
	ExcessAction     string
	RequiresApproval bool
	Customer         *domain.Customer
}

type Result struct {
	Kind Kind
	// Difference is payment minus total. Zero while the payment is unset.
	Difference       int64
	RequiresApproval bool
	// Promoted is set when the debt limit forced the approval gate.
	Promoted bool
	// LedgerAmount is the signed ledger effect: negative adds debt, positive
	// pays it down. Zero means no entry.
	LedgerAmount int64
	LedgerType   string
	Change       int64
}

func (r Result) HasLedgerEffect() bool {
	return r.LedgerAmount != 0
}

// Classify reconciles a submission. An underpayment that would push the
// customer over the debt limit is promoted to require approval instead of
// being rejected.
func Classify(in Input) (Result, error) {
	if in.Total < 0 {
		return Result{}, fmt.Errorf("%w: total must not be negative", domain.ErrInvalidSale)
	}
	if in.Payment == nil {
		if !in.RequiresApproval {
			return Result{}, domain.ErrPaymentRequired
		}
		return Result{Kind: KindAwaitingPayment, RequiresApproval: true}, nil
	}
	if *in.Payment < 0 {
		return Result{}, fmt.Errorf("%w: payment amount must not be negative", domain.ErrInvalidSale)
	}

	excess := in.ExcessAction
	if excess == "" {
		excess = domain.ExcessActionReturn
	}
	if excess != domain.ExcessActionReturn && excess != domain.ExcessActionDebt {
		return Result{}, fmt.Errorf("%w: unknown excess action %q", domain.ErrInvalidSale, in.ExcessAction)
	}

	diff := *in.Payment - in.Total
	res := Result{Difference: diff, RequiresApproval: in.RequiresApproval}

	switch {
	case diff == 0:
		res.Kind = KindFullyPaid
	case diff > 0:
		res.Kind = KindOverpaid
		if excess == domain.ExcessActionReturn {
			res.Change = diff
			break
		}
		if in.Customer == nil {
			return Result{}, domain.ErrCustomerRequired
		}
		credit := min(diff, max(in.Customer.DebtBalance, 0))
		res.Change = diff - credit
		if credit > 0 {
			res.LedgerAmount = credit
			res.LedgerType = domain.LedgerTypeOverpaymentCredit
		}
	default:
		res.Kind = KindUnderpaid
		if in.Customer == nil {
			return Result{}, domain.ErrCustomerRequired
		}
		res.LedgerAmount = diff
		res.LedgerType = domain.LedgerTypeSaleDebt
		if !res.RequiresApproval && ExceedsLimit(*in.Customer, -diff) {
			res.RequiresApproval = true
			res.Promoted = true
		}
	}
	return res, nil
}

// ClassifyForCommit recomputes the classification for a sale a manager has
// approved. The limit gate is already passed and an unset payment counts as
// nothing paid.
func ClassifyForCommit(in Input) (Result, error) {
	if in.Payment == nil {
		if in.Customer == nil {
			return Result{}, domain.ErrPaymentRequired
		}
		zero := int64(0)
		in.Payment = &zero
	}
	in.RequiresApproval = true
	res, err := Classify(in)
	if err != nil {
		return Result{}, err
	}
	res.Promoted = false
	return res, nil
}

// ExceedsLimit reports whether adding debt to the customer's balance goes past
// its limit. A nil limit is unlimited.
func ExceedsLimit(customer domain.Customer, debt int64) bool {
	if customer.DebtLimit == nil {
		return false
	}
	next, ok := stockunit.AddInt64(customer.DebtBalance, debt)
	return !ok || next > *customer.DebtLimit
}
