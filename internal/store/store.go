package store

import (
	"context"
	"time"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

// Repository is the persistence boundary. CommitSale, DecideSale,
// AppendDebtPayment and ReverseLedgerEntry are atomic: every product, customer
// and ledger mutation they imply is applied together or not at all, with
// concurrent commits serialized per product and per customer.
type Repository interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)

	FindSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	FindSaleByIdempotency(ctx context.Context, key string) (*domain.Sale, error)
	ListPendingSales(ctx context.Context, limit int) ([]domain.Sale, error)
	// CreatePendingSale stores a sale awaiting approval without touching stock
	// or the ledger.
	CreatePendingSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	// CommitSale stores a final sale, decrementing stock and writing the
	// ledger entry. Returns domain.ErrDebtLimitExceeded when the locked
	// customer balance no longer allows the sale without approval.
	CommitSale(ctx context.Context, sale domain.Sale) (*domain.SaleCommit, error)
	DecideSale(ctx context.Context, decision domain.SaleDecision) (*domain.SaleCommit, error)

	AppendDebtPayment(ctx context.Context, payment domain.LedgerAppend) (*domain.DebtLedgerEntry, error)
	ReverseLedgerEntry(ctx context.Context, entryID string, reason string, actor string, at time.Time) (*domain.DebtLedgerEntry, error)
	ListDebtHistory(ctx context.Context, customerID string, limit int) ([]domain.DebtLedgerEntry, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
