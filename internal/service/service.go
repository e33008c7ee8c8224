package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/approval"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/cache"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/events"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/ledger"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/metrics"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/pricing"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/reconcile"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/saledraft"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/stockunit"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/store"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/xid"
)

const (
	defaultListLimit      = 50
	defaultProductListCap = 200
	defaultProductTTL     = 30 * time.Second

	promotionReasonDebtLimit = "debt_limit_exceeded"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo       store.Repository
	products   cache.ProductCache
	publisher  events.Publisher
	metrics    *metrics.SaleMetrics
	logger     *zap.Logger
	productTTL time.Duration
	now        func() time.Time
}

func New(repo store.Repository, productCache cache.ProductCache, publisher events.Publisher, saleMetrics *metrics.SaleMetrics, logger *zap.Logger) *Service {
	if productCache == nil {
		productCache = cache.NoopProductCache{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:       repo,
		products:   productCache,
		publisher:  publisher,
		metrics:    saleMetrics,
		logger:     logger.Named("service"),
		productTTL: defaultProductTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) SetProductCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.productTTL = ttl
	}
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, domain.ErrNotFound
	}

	if cached, ok, err := s.products.Get(ctx, id); err != nil {
		s.logger.Warn("product cache read failed", zap.String("product_id", id), zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.products.Set(ctx, *product, s.productTTL); err != nil {
		s.logger.Warn("product cache write failed", zap.String("product_id", id), zap.Error(err))
	}
	return *product, nil
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Limit < 1 || filter.Limit > defaultProductListCap {
		filter.Limit = defaultProductListCap
	}
	return s.repo.ListProducts(ctx, filter)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := requireRole(ctx, domain.RoleManager); err != nil {
		return domain.Product{}, err
	}
	if req.PiecesPerPackage < 1 {
		return domain.Product{}, domain.ErrInvalidConfiguration
	}
	if err := checkProductBounds(req); err != nil {
		return domain.Product{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name required", domain.ErrInvalidSale)
	}
	id := strings.ToUpper(strings.TrimSpace(req.ID))
	if id == "" {
		id = xid.New("prd")
	}

	total, err := stockunit.ToPieces(req.PackagesInStock, req.PiecesInStock, req.PiecesPerPackage)
	if err != nil {
		return domain.Product{}, err
	}
	qty, err := stockunit.FromPieces(total, req.PiecesPerPackage)
	if err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:               id,
		Name:             name,
		PiecesPerPackage: req.PiecesPerPackage,
		PackagesInStock:  qty.Packages,
		PiecesInStock:    qty.Pieces,
		CostPrice:        req.CostPrice,
		WholesalePrice:   req.WholesalePrice,
		RetailPrice:      req.RetailPrice,
		RegularPrice:     req.RegularPrice,
		UpdatedAt:        s.now(),
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,pieces=%d", created.Name, created.TotalPieces))
	return *created, nil
}

func checkProductBounds(req domain.ProductCreateRequest) error {
	if req.PiecesPerPackage > domain.MaxPiecesPerPackage {
		return fmt.Errorf("%w: pieces per package above %d", domain.ErrInvalidQuantity, domain.MaxPiecesPerPackage)
	}
	if req.PackagesInStock > domain.MaxStockCount || req.PiecesInStock > domain.MaxStockCount {
		return fmt.Errorf("%w: stock count above %d", domain.ErrInvalidQuantity, domain.MaxStockCount)
	}
	for _, price := range []int64{req.CostPrice, req.WholesalePrice, req.RetailPrice, req.RegularPrice} {
		if price < 0 || price > domain.MaxPrice {
			return fmt.Errorf("%w: price must be between 0 and %d", domain.ErrInvalidSale, domain.MaxPrice)
		}
	}
	return nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	if _, err := requireRole(ctx, domain.RoleManager); err != nil {
		return domain.Customer{}, err
	}
	if !pricing.IsKnownCustomerType(req.CustomerType) {
		return domain.Customer{}, fmt.Errorf("%w: unknown customer type %q", domain.ErrInvalidSale, req.CustomerType)
	}
	if req.DebtLimit != nil && *req.DebtLimit < 0 {
		return domain.Customer{}, fmt.Errorf("%w: debt limit must not be negative", domain.ErrInvalidSale)
	}

	id := strings.ToUpper(strings.TrimSpace(req.ID))
	if id == "" {
		id = xid.New("cus")
	}
	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		CustomerType: req.CustomerType,
		DebtLimit:    req.DebtLimit,
		UpdatedAt:    s.now(),
	})
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_create", "customer", created.ID, "type="+created.CustomerType)
	return *created, nil
}

// CreateSale builds a sale from the request, reconciles the payment and either
// commits it immediately or parks it for approval. A limit breach detected at
// commit time moves the sale to pending instead of failing.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.SaleResult, error) {
	actor, err := requireRole(ctx, domain.RoleSeller, domain.RoleManager)
	if err != nil {
		return domain.SaleResult{}, err
	}
	if len(req.Items) == 0 {
		return domain.SaleResult{}, fmt.Errorf("%w: sale has no items", domain.ErrInvalidSale)
	}
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	if req.IdempotencyKey != "" {
		existing, err := s.repo.FindSaleByIdempotency(ctx, req.IdempotencyKey)
		if err == nil {
			return replayResult(*existing), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.SaleResult{}, err
		}
	}

	var customer *domain.Customer
	if id := strings.TrimSpace(req.CustomerID); id != "" {
		customer, err = s.repo.GetCustomer(ctx, id)
		if err != nil {
			return domain.SaleResult{}, err
		}
	}

	draft, err := s.buildDraft(ctx, customer, req.Items)
	if err != nil {
		return domain.SaleResult{}, err
	}

	total, err := draft.Total()
	if err != nil {
		return domain.SaleResult{}, err
	}
	res, err := reconcile.Classify(reconcile.Input{
		Total:            total,
		Payment:          req.PaymentAmount,
		ExcessAction:     req.ExcessAction,
		RequiresApproval: req.RequiresApproval,
		Customer:         customer,
	})
	if err != nil {
		return domain.SaleResult{}, err
	}

	excess := req.ExcessAction
	if excess == "" {
		excess = domain.ExcessActionReturn
	}
	sale := domain.Sale{
		ID:                    xid.New("sale"),
		SellerID:              actor.Username,
		Items:                 draft.Items(),
		PaymentMethod:         strings.TrimSpace(req.PaymentMethod),
		PaymentAmount:         req.PaymentAmount,
		ExcessAction:          excess,
		RequiresAdminApproval: res.RequiresApproval,
		Status:                approval.InitialState(res.RequiresApproval),
		TotalAmount:           total,
		IdempotencyKey:        req.IdempotencyKey,
		CreatedAt:             s.now(),
	}
	if customer != nil {
		sale.CustomerID = customer.ID
	}

	result := domain.SaleResult{Classification: string(res.Kind)}
	if res.Promoted {
		result.Promoted = true
		result.PromotionReason = promotionReasonDebtLimit
		s.metrics.IncPromotion()
	}

	started := time.Now()
	if sale.Status == domain.SaleStatusFinal {
		commit, err := s.repo.CommitSale(ctx, sale)
		switch {
		case err == nil:
			result.Sale = commit.Sale
			result.LedgerEntry = commit.LedgerEntry
			s.invalidateProducts(ctx, commit.Products)
		case errors.Is(err, domain.ErrDebtLimitExceeded):
			s.metrics.IncPromotion()
			result.Promoted = true
			result.PromotionReason = promotionReasonDebtLimit
			sale.RequiresAdminApproval = true
			sale.Status = domain.SaleStatusPending
		default:
			return s.saleFailed(ctx, req.IdempotencyKey, err)
		}
	}
	if sale.Status == domain.SaleStatusPending {
		pending, err := s.repo.CreatePendingSale(ctx, sale)
		if err != nil {
			return s.saleFailed(ctx, req.IdempotencyKey, err)
		}
		result.Sale = *pending
	}
	s.metrics.ObserveCommit("create", time.Since(started))
	s.metrics.IncCreated(result.Sale.Status)

	s.publish(ctx, domain.EventSaleCreated, result.Sale)
	s.logAudit(ctx, "sale_create", "sale", result.Sale.ID, fmt.Sprintf(
		"status=%s,total=%d,classification=%s,promoted=%t",
		result.Sale.Status, result.Sale.TotalAmount, result.Classification, result.Promoted,
	))
	s.logger.Info("sale created",
		zap.String("sale_id", result.Sale.ID),
		zap.String("status", result.Sale.Status),
		zap.Int64("total", result.Sale.TotalAmount),
		zap.String("seller", actor.Username),
	)
	return result, nil
}

// DecideSale applies a manager decision to a pending sale. Approval
// re-validates stock and recomputes the ledger effect against current state.
func (s *Service) DecideSale(ctx context.Context, saleID string, req domain.SaleDecisionRequest) (domain.SaleResult, error) {
	actor, err := requireRole(ctx, domain.RoleManager)
	if err != nil {
		return domain.SaleResult{}, err
	}
	if req.Approved == nil {
		return domain.SaleResult{}, fmt.Errorf("%w: approved flag required", domain.ErrInvalidSale)
	}
	if req.PaymentAmount != nil && *req.PaymentAmount < 0 {
		return domain.SaleResult{}, fmt.Errorf("%w: payment amount must not be negative", domain.ErrInvalidSale)
	}

	started := time.Now()
	commit, err := s.repo.DecideSale(ctx, domain.SaleDecision{
		SaleID:        strings.TrimSpace(saleID),
		Approved:      *req.Approved,
		ManagerID:     actor.Username,
		PaymentAmount: req.PaymentAmount,
		ExcessAction:  req.ExcessAction,
		Note:          strings.TrimSpace(req.Note),
		At:            s.now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrStockChanged) {
			s.metrics.IncStockConflict()
		}
		return domain.SaleResult{}, err
	}
	s.metrics.ObserveCommit("decide", time.Since(started))
	s.metrics.IncDecision(commit.Sale.Status)
	s.invalidateProducts(ctx, commit.Products)

	eventType := domain.EventSaleRejected
	if commit.Sale.Status == domain.SaleStatusApproved {
		eventType = domain.EventSaleApproved
	}
	s.publish(ctx, eventType, commit.Sale)
	s.logAudit(ctx, "sale_"+commit.Sale.Status, "sale", commit.Sale.ID, fmt.Sprintf("total=%d,note=%s", commit.Sale.TotalAmount, commit.Sale.DecisionNote))

	return domain.SaleResult{
		Sale:           commit.Sale,
		LedgerEntry:    commit.LedgerEntry,
		Classification: classificationOf(commit.Sale),
	}, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.FindSaleByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListPendingSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if _, err := requireRole(ctx, domain.RoleManager); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = defaultListLimit
	}
	return s.repo.ListPendingSales(ctx, limit)
}

func (s *Service) DebtHistory(ctx context.Context, customerID string, limit int) ([]domain.DebtLedgerEntry, error) {
	if limit < 1 {
		limit = defaultListLimit
	}
	customerID = strings.TrimSpace(customerID)
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListDebtHistory(ctx, customerID, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) < limit {
		if err := ledger.VerifyChain(entries, customer.DebtBalance); err != nil {
			s.logger.Warn("debt ledger does not reconcile",
				zap.String("customer_id", customerID),
				zap.Error(err),
			)
		}
	}
	return entries, nil
}

func (s *Service) RecordDebtPayment(ctx context.Context, customerID string, req domain.DebtPaymentRequest) (domain.DebtLedgerEntry, error) {
	actor, err := requireRole(ctx, domain.RoleSeller, domain.RoleManager)
	if err != nil {
		return domain.DebtLedgerEntry{}, err
	}
	entry, err := s.repo.AppendDebtPayment(ctx, domain.LedgerAppend{
		CustomerID:      strings.TrimSpace(customerID),
		Amount:          req.Amount,
		TransactionType: domain.LedgerTypeDebtPayment,
		Note:            strings.TrimSpace(req.Note),
		Actor:           actor.Username,
		At:              s.now(),
	})
	if err != nil {
		return domain.DebtLedgerEntry{}, err
	}

	s.logAudit(ctx, "debt_payment", "customer", entry.CustomerID, fmt.Sprintf("amount=%d,balance_after=%d", entry.Amount, entry.BalanceAfter))
	return *entry, nil
}

func (s *Service) ReverseLedgerEntry(ctx context.Context, entryID string, req domain.LedgerReversalRequest) (domain.DebtLedgerEntry, error) {
	actor, err := requireRole(ctx, domain.RoleManager)
	if err != nil {
		return domain.DebtLedgerEntry{}, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.DebtLedgerEntry{}, fmt.Errorf("%w: reversal reason required", domain.ErrInvalidSale)
	}

	entry, err := s.repo.ReverseLedgerEntry(ctx, strings.TrimSpace(entryID), reason, actor.Username, s.now())
	if err != nil {
		return domain.DebtLedgerEntry{}, err
	}

	s.logAudit(ctx, "ledger_reversal", "debt_ledger", entryID, fmt.Sprintf("reversal=%s,amount=%d", entry.ID, entry.Amount))
	return *entry, nil
}

// SaleProfit reports profit per line using current product cost prices.
func (s *Service) SaleProfit(ctx context.Context, saleID string) (domain.SaleProfit, error) {
	if _, err := requireRole(ctx, domain.RoleManager); err != nil {
		return domain.SaleProfit{}, err
	}
	sale, err := s.repo.FindSaleByID(ctx, strings.TrimSpace(saleID))
	if err != nil {
		return domain.SaleProfit{}, err
	}

	ids := make([]string, 0, len(sale.Items))
	for _, item := range sale.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.SaleProfit{}, err
	}
	costs := make(map[string]int64, len(products))
	for id, p := range products {
		costs[id] = p.CostPrice
	}
	return ledger.SaleProfit(*sale, costs), nil
}

func (s *Service) buildDraft(ctx context.Context, customer *domain.Customer, items []domain.SaleItemRequest) (*saledraft.Draft, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, strings.TrimSpace(item.ProductID))
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	draft := saledraft.New(customer)
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		product, ok := products[id]
		if !ok {
			return nil, domain.NewItemError(id, domain.ErrNotFound)
		}
		if _, err := draft.AddItem(product, item.Quantity); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

// saleFailed resolves a store failure. A uniqueness conflict on the
// idempotency key means a concurrent request won; its sale is replayed.
func (s *Service) saleFailed(ctx context.Context, idempotencyKey string, err error) (domain.SaleResult, error) {
	if errors.Is(err, domain.ErrStockChanged) {
		s.metrics.IncStockConflict()
	}
	if errors.Is(err, domain.ErrConflict) && idempotencyKey != "" {
		if existing, lookupErr := s.repo.FindSaleByIdempotency(ctx, idempotencyKey); lookupErr == nil {
			return replayResult(*existing), nil
		}
	}
	return domain.SaleResult{}, err
}

func (s *Service) invalidateProducts(ctx context.Context, products []domain.Product) {
	if len(products) == 0 {
		return
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	if err := s.products.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Strings("product_ids", ids), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType string, sale domain.Sale) {
	event := domain.SaleEvent{
		Type:        eventType,
		SaleID:      sale.ID,
		CustomerID:  sale.CustomerID,
		SellerID:    sale.SellerID,
		Status:      sale.Status,
		TotalAmount: sale.TotalAmount,
		DecidedBy:   sale.DecidedBy,
		OccurredAt:  s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish sale event failed", zap.String("type", eventType), zap.String("sale_id", sale.ID), zap.Error(err))
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now(),
	}); err != nil {
		s.logger.Warn("write audit log failed",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err),
		)
	}
}

func requireRole(ctx context.Context, roles ...string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, fmt.Errorf("%w: authenticated actor required", domain.ErrForbidden)
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return domain.Actor{}, fmt.Errorf("%w: role %s not allowed", domain.ErrForbidden, actor.Role)
}

func replayResult(sale domain.Sale) domain.SaleResult {
	return domain.SaleResult{
		Sale:           sale,
		Classification: classificationOf(sale),
		Replayed:       true,
	}
}

func classificationOf(sale domain.Sale) string {
	if sale.PaymentAmount == nil {
		return string(reconcile.KindAwaitingPayment)
	}
	switch diff := *sale.PaymentAmount - sale.TotalAmount; {
	case diff == 0:
		return string(reconcile.KindFullyPaid)
	case diff > 0:
		return string(reconcile.KindOverpaid)
	default:
		return string(reconcile.KindUnderpaid)
	}
}
