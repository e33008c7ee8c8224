package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/approval"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/ledger"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/stockunit"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/xid"
)

const (
	productColumns = `id, name, pieces_per_package, packages_in_stock, pieces_in_stock,
		cost_price, wholesale_price, retail_price, regular_price, updated_at`
	customerColumns = `id, name, phone, customer_type, debt_balance, debt_limit, updated_at`
	saleColumns     = `id, COALESCE(customer_id, '') AS customer_id, seller_id, payment_method,
		payment_amount, excess_action, requires_admin_approval, admin_approved, status,
		total_amount, change_amount, COALESCE(idempotency_key, '') AS idempotency_key,
		decided_by, decided_at, decision_note, created_at`
	itemColumns   = `sale_id, product_id, product_name, requested_quantity, unit_price, subtotal, packages_sold, pieces_sold`
	ledgerColumns = `id, customer_id, amount, balance_before, balance_after, transaction_type,
		reference, note, created_by, created_at`
)

type Store struct {
	db *sqlx.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 200
	}

	products := make([]domain.Product, 0, 64)
	err := s.db.SelectContext(ctx, &products, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR id ILIKE '%' || $1 || '%')
		  AND (NOT $2 OR packages_in_stock * pieces_per_package + pieces_in_stock > 0)
		ORDER BY name, id
		LIMIT $3
	`, strings.TrimSpace(filter.Query), filter.InStockOnly, limit)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i] = normalizeProduct(products[i])
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.GetContext(ctx, &product, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	product = normalizeProduct(product)
	return &product, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = normalizeProduct(p)
	}
	return result, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, domain.ErrInvalidSale
	}
	if product.PiecesPerPackage < 1 {
		return nil, domain.ErrInvalidConfiguration
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO products (id, name, pieces_per_package, packages_in_stock, pieces_in_stock,
			cost_price, wholesale_price, retail_price, regular_price, updated_at)
		VALUES (:id, :name, :pieces_per_package, :packages_in_stock, :pieces_in_stock,
			:cost_price, :wholesale_price, :retail_price, :regular_price, :updated_at)
	`, product)
	if err != nil {
		return nil, translateError(err)
	}
	product = stockunit.WithTotal(product)
	return &product, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := make([]domain.Customer, 0, 64)
	if err := s.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM customers ORDER BY name, id`); err != nil {
		return nil, err
	}
	for i := range customers {
		customers[i].UpdatedAt = customers[i].UpdatedAt.UTC()
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return getCustomer(ctx, s.db, id, false)
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.Name == "" {
		return nil, domain.ErrInvalidSale
	}
	customer.DebtBalance = 0
	if customer.UpdatedAt.IsZero() {
		customer.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO customers (id, name, phone, customer_type, debt_balance, debt_limit, updated_at)
		VALUES (:id, :name, :phone, :customer_type, :debt_balance, :debt_limit, :updated_at)
	`, customer)
	if err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

func (s *Store) FindSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	return s.findSale(ctx, "id", id)
}

func (s *Store) FindSaleByIdempotency(ctx context.Context, key string) (*domain.Sale, error) {
	return s.findSale(ctx, "idempotency_key", key)
}

func (s *Store) findSale(ctx context.Context, column string, value string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM sales WHERE `+column+` = $1`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := loadItems(ctx, s.db, []string{sale.ID})
	if err != nil {
		return nil, err
	}
	sale.Items = items[sale.ID]
	normalizeSale(&sale)
	return &sale, nil
}

func (s *Store) ListPendingSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}

	sales := make([]domain.Sale, 0, limit)
	err := s.db.SelectContext(ctx, &sales, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`, domain.SaleStatusPending, limit)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]string, 0, len(sales))
	for _, sale := range sales {
		ids = append(ids, sale.ID)
	}
	items, err := loadItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = items[sales[i].ID]
		normalizeSale(&sales[i])
	}
	return sales, nil
}

func (s *Store) CreatePendingSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, domain.ErrInvalidSale
	}
	sale.Status = domain.SaleStatusPending
	sale.RequiresAdminApproval = true
	sale.AdminApproved = nil
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return insertSale(ctx, tx, sale)
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// CommitSale locks every product on the sale (ordered by id) and then the
// customer row, so concurrent commits touching the same rows serialize.
func (s *Store) CommitSale(ctx context.Context, sale domain.Sale) (*domain.SaleCommit, error) {
	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, domain.ErrInvalidSale
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	var result *domain.SaleCommit
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		products, customer, err := lockSaleRows(ctx, tx, sale)
		if err != nil {
			return err
		}
		plan, err := approval.PlanCommit(sale, products, customer, approval.CommitOptions{
			EnforceDebtLimit: true,
			Actor:            sale.SellerID,
			At:               sale.CreatedAt,
		})
		if err != nil {
			return err
		}
		if err := writePlan(ctx, tx, plan); err != nil {
			return err
		}

		final := approval.Finalize(sale, domain.SaleStatusFinal, &plan, "", "", sale.CreatedAt)
		if err := insertSale(ctx, tx, final); err != nil {
			return err
		}
		result = commitResult(final, &plan)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) DecideSale(ctx context.Context, decision domain.SaleDecision) (*domain.SaleCommit, error) {
	at := decision.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var result *domain.SaleCommit
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var sale domain.Sale
		err := tx.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, decision.SaleID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		next, err := approval.Decide(sale.Status, decision.Approved)
		if err != nil {
			return err
		}
		items, err := loadItems(ctx, tx, []string{sale.ID})
		if err != nil {
			return err
		}
		sale.Items = items[sale.ID]

		if !decision.Approved {
			sale = approval.Finalize(sale, next, nil, decision.ManagerID, decision.Note, at)
			if err := updateSaleDecision(ctx, tx, sale); err != nil {
				return err
			}
			result = commitResult(sale, nil)
			return nil
		}

		if decision.PaymentAmount != nil {
			paid := *decision.PaymentAmount
			sale.PaymentAmount = &paid
		}
		if decision.ExcessAction != "" {
			sale.ExcessAction = decision.ExcessAction
		}
		products, customer, err := lockSaleRows(ctx, tx, sale)
		if err != nil {
			return err
		}
		plan, err := approval.PlanCommit(sale, products, customer, approval.CommitOptions{
			Actor: decision.ManagerID,
			At:    at,
		})
		if err != nil {
			return err
		}
		if err := writePlan(ctx, tx, plan); err != nil {
			return err
		}

		sale = approval.Finalize(sale, next, &plan, decision.ManagerID, decision.Note, at)
		if err := updateSaleDecision(ctx, tx, sale); err != nil {
			return err
		}
		result = commitResult(sale, &plan)
		return nil
	})
	if err != nil {
		return nil, err
	}
	normalizeSale(&result.Sale)
	return result, nil
}

func (s *Store) AppendDebtPayment(ctx context.Context, payment domain.LedgerAppend) (*domain.DebtLedgerEntry, error) {
	var entry domain.DebtLedgerEntry
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		customer, err := getCustomer(ctx, tx, payment.CustomerID, true)
		if err != nil {
			return err
		}
		next, updated, err := ledger.Payment(*customer, payment.Amount, payment.Note, payment.Actor, payment.At)
		if err != nil {
			return err
		}
		if err := updateBalance(ctx, tx, updated); err != nil {
			return err
		}
		entry = next
		return insertLedger(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) ReverseLedgerEntry(ctx context.Context, entryID string, reason string, actor string, at time.Time) (*domain.DebtLedgerEntry, error) {
	var entry domain.DebtLedgerEntry
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var original domain.DebtLedgerEntry
		err := tx.GetContext(ctx, &original, `SELECT `+ledgerColumns+` FROM debt_ledger WHERE id = $1`, entryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		customer, err := getCustomer(ctx, tx, original.CustomerID, true)
		if err != nil {
			return err
		}

		var reversed bool
		err = tx.GetContext(ctx, &reversed, `
			SELECT EXISTS (
				SELECT 1 FROM debt_ledger WHERE transaction_type = $1 AND reference = $2
			)
		`, domain.LedgerTypeReversal, original.ID)
		if err != nil {
			return err
		}
		if reversed {
			return domain.ErrConflict
		}

		next, updated, err := ledger.Reverse(original, *customer, reason, actor, at)
		if err != nil {
			return err
		}
		if err := updateBalance(ctx, tx, updated); err != nil {
			return err
		}
		entry = next
		return insertLedger(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListDebtHistory returns the most recent entries in the order they were
// written.
func (s *Store) ListDebtHistory(ctx context.Context, customerID string, limit int) ([]domain.DebtLedgerEntry, error) {
	if limit < 1 {
		limit = math.MaxInt32
	}
	if _, err := getCustomer(ctx, s.db, customerID, false); err != nil {
		return nil, err
	}

	entries := make([]domain.DebtLedgerEntry, 0, 32)
	err := s.db.SelectContext(ctx, &entries, `
		SELECT `+ledgerColumns+`
		FROM (
			SELECT seq, `+ledgerColumns+`
			FROM debt_ledger
			WHERE customer_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`, customerID, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].CreatedAt = entries[i].CreatedAt.UTC()
	}
	return entries, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES (:id, :actor_username, :actor_role, :action, :entity_type, :entity_id, :detail, :created_at)
	`, entry)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at)
		VALUES (:username, :password, :role, :active, :created_at)
	`, user)
	return translateError(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	users := make([]domain.UserAccount, 0, 16)
	err := s.db.SelectContext(ctx, &users, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username
	`)
	return users, err
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE app_users SET password = $2 WHERE username = $1`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// inTx runs fn in a read-committed transaction. Row locks taken with
// SELECT ... FOR UPDATE provide the serialization; a serialization failure or
// deadlock reported by postgres surfaces as ErrStockChanged.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return translateError(err)
	}
	return translateError(tx.Commit())
}

func lockSaleRows(ctx context.Context, tx *sqlx.Tx, sale domain.Sale) (map[string]domain.Product, *domain.Customer, error) {
	ids := productIDs(sale.Items)
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, nil, err
	}
	var rows []domain.Product
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(query), args...); err != nil {
		return nil, nil, err
	}
	products := make(map[string]domain.Product, len(rows))
	for _, p := range rows {
		products[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, nil, domain.NewItemError(id, domain.ErrNotFound)
		}
	}

	if sale.CustomerID == "" {
		return products, nil, nil
	}
	customer, err := getCustomer(ctx, tx, sale.CustomerID, true)
	if err != nil {
		return nil, nil, err
	}
	return products, customer, nil
}

func getCustomer(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var customer domain.Customer
	if err := sqlx.GetContext(ctx, q, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	customer.UpdatedAt = customer.UpdatedAt.UTC()
	return &customer, nil
}

func loadItems(ctx context.Context, q sqlx.QueryerContext, saleIDs []string) (map[string][]domain.SaleItem, error) {
	type itemRow struct {
		SaleID string `db:"sale_id"`
		domain.SaleItem
	}

	query, args, err := sqlx.In(`SELECT `+itemColumns+` FROM sale_items WHERE sale_id IN (?) ORDER BY sale_id, line_no`, saleIDs)
	if err != nil {
		return nil, err
	}
	var rows []itemRow
	if err := sqlx.SelectContext(ctx, q, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, err
	}
	out := make(map[string][]domain.SaleItem, len(saleIDs))
	for _, row := range rows {
		out[row.SaleID] = append(out[row.SaleID], row.SaleItem)
	}
	return out, nil
}

func writePlan(ctx context.Context, tx *sqlx.Tx, plan approval.Plan) error {
	for _, p := range plan.Products {
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET packages_in_stock = $2, pieces_in_stock = $3, updated_at = $4
			WHERE id = $1
		`, p.ID, p.PackagesInStock, p.PiecesInStock, p.UpdatedAt)
		if err != nil {
			return err
		}
	}
	if plan.LedgerEntry == nil {
		return nil
	}
	if err := updateBalance(ctx, tx, *plan.Customer); err != nil {
		return err
	}
	return insertLedger(ctx, tx, *plan.LedgerEntry)
}

func updateBalance(ctx context.Context, tx *sqlx.Tx, customer domain.Customer) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE customers SET debt_balance = $2, updated_at = $3 WHERE id = $1
	`, customer.ID, customer.DebtBalance, customer.UpdatedAt)
	return err
}

func insertLedger(ctx context.Context, tx *sqlx.Tx, entry domain.DebtLedgerEntry) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO debt_ledger (id, customer_id, amount, balance_before, balance_after,
			transaction_type, reference, note, created_by, created_at)
		VALUES (:id, :customer_id, :amount, :balance_before, :balance_after,
			:transaction_type, :reference, :note, :created_by, :created_at)
	`, entry)
	return err
}

func insertSale(ctx context.Context, tx *sqlx.Tx, sale domain.Sale) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sales (
			id, customer_id, seller_id, payment_method, payment_amount, excess_action,
			requires_admin_approval, admin_approved, status, total_amount, change_amount,
			idempotency_key, decided_by, decided_at, decision_note, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, sale.ID, nullIfEmpty(sale.CustomerID), sale.SellerID, sale.PaymentMethod, sale.PaymentAmount,
		sale.ExcessAction, sale.RequiresAdminApproval, sale.AdminApproved, sale.Status, sale.TotalAmount,
		sale.ChangeAmount, nullIfEmpty(sale.IdempotencyKey), sale.DecidedBy, nullTime(sale.DecidedAt),
		sale.DecisionNote, sale.CreatedAt)
	if err != nil {
		return err
	}

	for i, item := range sale.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, line_no, product_id, product_name, requested_quantity,
				unit_price, subtotal, packages_sold, pieces_sold)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, sale.ID, i+1, item.ProductID, item.ProductName, item.RequestedQuantity,
			item.UnitPrice, item.Subtotal, item.PackagesSold, item.PiecesSold)
		if err != nil {
			return err
		}
	}
	return nil
}

func updateSaleDecision(ctx context.Context, tx *sqlx.Tx, sale domain.Sale) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET status = $2, admin_approved = $3, decided_by = $4, decided_at = $5,
			decision_note = $6, payment_amount = $7, excess_action = $8, change_amount = $9
		WHERE id = $1
	`, sale.ID, sale.Status, sale.AdminApproved, sale.DecidedBy, nullTime(sale.DecidedAt),
		sale.DecisionNote, sale.PaymentAmount, sale.ExcessAction, sale.ChangeAmount)
	return err
}

func commitResult(sale domain.Sale, plan *approval.Plan) *domain.SaleCommit {
	result := &domain.SaleCommit{Sale: sale}
	if plan == nil {
		return result
	}
	for _, p := range plan.Products {
		result.Products = append(result.Products, stockunit.WithTotal(p))
	}
	result.LedgerEntry = plan.LedgerEntry
	result.Customer = plan.Customer
	return result
}

func productIDs(items []domain.SaleItem) []string {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		set[item.ProductID] = struct{}{}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeProduct(p domain.Product) domain.Product {
	p.UpdatedAt = p.UpdatedAt.UTC()
	return stockunit.WithTotal(p)
}

func normalizeSale(sale *domain.Sale) {
	sale.CreatedAt = sale.CreatedAt.UTC()
	if sale.DecidedAt != nil {
		at := sale.DecidedAt.UTC()
		sale.DecidedAt = &at
	}
	if sale.Items == nil {
		sale.Items = []domain.SaleItem{}
	}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", domain.ErrStockChanged, pgErr.Message)
		}
	}
	return err
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
