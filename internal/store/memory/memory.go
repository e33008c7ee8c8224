package memory

import (
	"context"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/approval"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/ledger"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/stockunit"
)

// Store keeps everything behind one mutex, which serializes every commit
// across products and customers.
type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	customers       map[string]domain.Customer
	salesByID       map[string]*domain.Sale
	salesByIdem     map[string]string
	ledger          map[string][]domain.DebtLedgerEntry
	ledgerByID      map[string]domain.DebtLedgerEntry
	reversed        map[string]bool
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		customers:       make(map[string]domain.Customer),
		salesByID:       make(map[string]*domain.Sale),
		salesByIdem:     make(map[string]string),
		ledger:          make(map[string][]domain.DebtLedgerEntry),
		ledgerByID:      make(map[string]domain.DebtLedgerEntry),
		reversed:        make(map[string]bool),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the dev/demo accounts. Passwords come from
// SEED_MANAGER_PASSWORD and SEED_SELLER_PASSWORD, falling back to fixed dev
// values.
func seedUsers() map[string]domain.UserAccount {
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	sellerPwd := envOr("SEED_SELLER_PASSWORD", "seller123")
	if os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_SELLER_PASSWORD") == "" {
		zap.L().Warn("memory store is using default dev credentials; set SEED_MANAGER_PASSWORD and SEED_SELLER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"manager", managerPwd, domain.RoleManager},
		{"seller", sellerPwd, domain.RoleSeller},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Fatal("hash seed password", zap.String("username", u.username), zap.Error(err))
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	for _, p := range []domain.Product{
		{ID: "PRD-TEA", Name: "Green tea 100g", PiecesPerPackage: 12, PackagesInStock: 5, PiecesInStock: 3, CostPrice: 4000, WholesalePrice: 5000, RetailPrice: 7000, RegularPrice: 8000},
		{ID: "PRD-SUGAR", Name: "Sugar 1kg", PiecesPerPackage: 10, PackagesInStock: 20, CostPrice: 9000, WholesalePrice: 11000, RetailPrice: 12000, RegularPrice: 13000},
		{ID: "PRD-OIL", Name: "Sunflower oil 1L", PiecesPerPackage: 6, PackagesInStock: 10, PiecesInStock: 2, CostPrice: 15000, WholesalePrice: 17000, RetailPrice: 18500, RegularPrice: 20000},
		{ID: "PRD-RICE", Name: "Rice 5kg", PiecesPerPackage: 4, PackagesInStock: 3, CostPrice: 40000, WholesalePrice: 45000, RetailPrice: 48000, RegularPrice: 52000},
		{ID: "PRD-SOAP", Name: "Laundry soap", PiecesPerPackage: 24, CostPrice: 2500, WholesalePrice: 3000, RetailPrice: 3500, RegularPrice: 4000},
	} {
		p.UpdatedAt = now
		s.products[p.ID] = p
	}

	retailLimit := int64(500000)
	regularLimit := int64(30000)
	for _, c := range []domain.Customer{
		{ID: "CUS-WHOLESALE", Name: "Baraka Market", Phone: "+998901112233", CustomerType: domain.CustomerTypeWholesale},
		{ID: "CUS-RETAIL", Name: "Nodira Shop", Phone: "+998935554433", CustomerType: domain.CustomerTypeRetail, DebtLimit: &retailLimit},
		{ID: "CUS-REGULAR", Name: "Aziz", CustomerType: domain.CustomerTypeRegular, DebtLimit: &regularLimit},
	} {
		c.UpdatedAt = now
		s.customers[c.ID] = c
	}

	opening, customer, err := ledger.Append(s.customers["CUS-RETAIL"], domain.LedgerAppend{
		Amount:          -20000,
		TransactionType: domain.LedgerTypeSaleDebt,
		Reference:       "opening-balance",
		Actor:           "system",
		At:              now,
	})
	if err == nil {
		s.customers[customer.ID] = customer
		s.appendLedger(opening)
	}

	s.usersByUsername = seedUsers()
	return s
}

func (s *Store) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		p = stockunit.WithTotal(p)
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) && !strings.Contains(strings.ToLower(p.ID), query) {
			continue
		}
		if filter.InStockOnly && p.TotalPieces == 0 {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = stockunit.WithTotal(p)
	return &p, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = stockunit.WithTotal(p)
		}
	}
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, domain.ErrInvalidSale
	}
	if product.PiecesPerPackage < 1 {
		return nil, domain.ErrInvalidConfiguration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, domain.ErrConflict
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = time.Now().UTC()
	}
	s.products[product.ID] = product
	product = stockunit.WithTotal(product)
	return &product, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, cloneCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c = cloneCustomer(c)
	return &c, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.Name == "" {
		return nil, domain.ErrInvalidSale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[customer.ID]; exists {
		return nil, domain.ErrConflict
	}
	customer.DebtBalance = 0
	if customer.UpdatedAt.IsZero() {
		customer.UpdatedAt = time.Now().UTC()
	}
	s.customers[customer.ID] = cloneCustomer(customer)
	customer = cloneCustomer(customer)
	return &customer, nil
}

func (s *Store) FindSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) FindSaleByIdempotency(_ context.Context, key string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.salesByIdem[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSale(s.salesByID[id]), nil
}

func (s *Store) ListPendingSales(_ context.Context, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sale, 0, 16)
	for _, sale := range s.salesByID {
		if sale.Status == domain.SaleStatusPending {
			out = append(out, *cloneSale(sale))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreatePendingSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, domain.ErrInvalidSale
	}
	sale.Status = domain.SaleStatusPending
	sale.RequiresAdminApproval = true
	sale.AdminApproved = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNewSale(sale); err != nil {
		return nil, err
	}
	s.storeSale(sale)
	return cloneSale(&sale), nil
}

func (s *Store) CommitSale(_ context.Context, sale domain.Sale) (*domain.SaleCommit, error) {
	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, domain.ErrInvalidSale
	}
	at := sale.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
		sale.CreatedAt = at
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNewSale(sale); err != nil {
		return nil, err
	}
	products, customer, err := s.snapshotFor(sale)
	if err != nil {
		return nil, err
	}
	plan, err := approval.PlanCommit(sale, products, customer, approval.CommitOptions{
		EnforceDebtLimit: true,
		Actor:            sale.SellerID,
		At:               at,
	})
	if err != nil {
		return nil, err
	}

	s.applyPlan(plan)
	sale = approval.Finalize(sale, domain.SaleStatusFinal, &plan, "", "", at)
	s.storeSale(sale)
	return commitResult(sale, &plan), nil
}

func (s *Store) DecideSale(_ context.Context, decision domain.SaleDecision) (*domain.SaleCommit, error) {
	at := decision.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.salesByID[decision.SaleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next, err := approval.Decide(stored.Status, decision.Approved)
	if err != nil {
		return nil, err
	}

	sale := *cloneSale(stored)
	if !decision.Approved {
		sale = approval.Finalize(sale, next, nil, decision.ManagerID, decision.Note, at)
		s.storeSale(sale)
		return commitResult(sale, nil), nil
	}

	if decision.PaymentAmount != nil {
		paid := *decision.PaymentAmount
		sale.PaymentAmount = &paid
	}
	if decision.ExcessAction != "" {
		sale.ExcessAction = decision.ExcessAction
	}
	products, customer, err := s.snapshotFor(sale)
	if err != nil {
		return nil, err
	}
	plan, err := approval.PlanCommit(sale, products, customer, approval.CommitOptions{
		Actor: decision.ManagerID,
		At:    at,
	})
	if err != nil {
		return nil, err
	}

	s.applyPlan(plan)
	sale = approval.Finalize(sale, next, &plan, decision.ManagerID, decision.Note, at)
	s.storeSale(sale)
	return commitResult(sale, &plan), nil
}

func (s *Store) AppendDebtPayment(_ context.Context, payment domain.LedgerAppend) (*domain.DebtLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[payment.CustomerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	entry, next, err := ledger.Payment(customer, payment.Amount, payment.Note, payment.Actor, payment.At)
	if err != nil {
		return nil, err
	}
	s.customers[next.ID] = next
	s.appendLedger(entry)
	return &entry, nil
}

func (s *Store) ReverseLedgerEntry(_ context.Context, entryID string, reason string, actor string, at time.Time) (*domain.DebtLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.ledgerByID[entryID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.reversed[entryID] {
		return nil, domain.ErrConflict
	}
	customer, ok := s.customers[original.CustomerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	entry, next, err := ledger.Reverse(original, customer, reason, actor, at)
	if err != nil {
		return nil, err
	}
	s.customers[next.ID] = next
	s.appendLedger(entry)
	s.reversed[entryID] = true
	return &entry, nil
}

func (s *Store) ListDebtHistory(_ context.Context, customerID string, limit int) ([]domain.DebtLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.customers[customerID]; !ok {
		return nil, domain.ErrNotFound
	}
	entries := s.ledger[customerID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return slices.Clone(entries), nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[user.Username]; exists {
		return domain.ErrConflict
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return domain.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// checkNewSale must be called with the write lock held.
func (s *Store) checkNewSale(sale domain.Sale) error {
	if _, exists := s.salesByID[sale.ID]; exists {
		return domain.ErrConflict
	}
	if sale.IdempotencyKey != "" {
		if _, exists := s.salesByIdem[sale.IdempotencyKey]; exists {
			return domain.ErrConflict
		}
	}
	if sale.CustomerID != "" {
		if _, ok := s.customers[sale.CustomerID]; !ok {
			return domain.ErrNotFound
		}
	}
	return nil
}

// snapshotFor must be called with the write lock held.
func (s *Store) snapshotFor(sale domain.Sale) (map[string]domain.Product, *domain.Customer, error) {
	products := make(map[string]domain.Product, len(sale.Items))
	for _, item := range sale.Items {
		p, ok := s.products[item.ProductID]
		if !ok {
			return nil, nil, domain.NewItemError(item.ProductID, domain.ErrNotFound)
		}
		products[p.ID] = p
	}
	if sale.CustomerID == "" {
		return products, nil, nil
	}
	c, ok := s.customers[sale.CustomerID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	c = cloneCustomer(c)
	return products, &c, nil
}

func (s *Store) applyPlan(plan approval.Plan) {
	for _, p := range plan.Products {
		p.TotalPieces = 0
		s.products[p.ID] = p
	}
	if plan.Customer != nil {
		s.customers[plan.Customer.ID] = cloneCustomer(*plan.Customer)
	}
	if plan.LedgerEntry != nil {
		s.appendLedger(*plan.LedgerEntry)
	}
}

func (s *Store) appendLedger(entry domain.DebtLedgerEntry) {
	s.ledger[entry.CustomerID] = append(s.ledger[entry.CustomerID], entry)
	s.ledgerByID[entry.ID] = entry
}

func (s *Store) storeSale(sale domain.Sale) {
	s.salesByID[sale.ID] = cloneSale(&sale)
	if sale.IdempotencyKey != "" {
		s.salesByIdem[sale.IdempotencyKey] = sale.ID
	}
}

func commitResult(sale domain.Sale, plan *approval.Plan) *domain.SaleCommit {
	result := &domain.SaleCommit{Sale: *cloneSale(&sale)}
	if plan == nil {
		return result
	}
	result.Products = make([]domain.Product, 0, len(plan.Products))
	for _, p := range plan.Products {
		result.Products = append(result.Products, stockunit.WithTotal(p))
	}
	if plan.LedgerEntry != nil {
		entry := *plan.LedgerEntry
		result.LedgerEntry = &entry
	}
	if plan.Customer != nil {
		c := cloneCustomer(*plan.Customer)
		result.Customer = &c
	}
	return result
}

func cloneSale(sale *domain.Sale) *domain.Sale {
	if sale == nil {
		return nil
	}
	cp := *sale
	cp.Items = slices.Clone(sale.Items)
	if sale.PaymentAmount != nil {
		v := *sale.PaymentAmount
		cp.PaymentAmount = &v
	}
	if sale.AdminApproved != nil {
		v := *sale.AdminApproved
		cp.AdminApproved = &v
	}
	if sale.DecidedAt != nil {
		v := *sale.DecidedAt
		cp.DecidedAt = &v
	}
	return &cp
}

func cloneCustomer(customer domain.Customer) domain.Customer {
	if customer.DebtLimit != nil {
		v := *customer.DebtLimit
		customer.DebtLimit = &v
	}
	return customer
}
