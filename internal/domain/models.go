package domain

import "time"

const (
	CustomerTypeWholesale = "wholesale"
	CustomerTypeRetail    = "retail"
	CustomerTypeRegular   = "regular"
)

const (
	ExcessActionReturn = "return"
	ExcessActionDebt   = "debt"
)

const (
	SaleStatusFinal    = "final"
	SaleStatusPending  = "pending"
	SaleStatusApproved = "approved"
	SaleStatusRejected = "rejected"
)

const (
	RoleSeller  = "seller"
	RoleManager = "manager"
)

const (
	LedgerTypeSaleDebt          = "sale_debt"
	LedgerTypeOverpaymentCredit = "overpayment_credit"
	LedgerTypeDebtPayment       = "debt_payment"
	LedgerTypeReversal          = "reversal"
)

const (
	EventSaleCreated  = "sale_created"
	EventSaleApproved = "sale_approved"
	EventSaleRejected = "sale_rejected"
)

type Product struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	PiecesPerPackage int64     `json:"pieces_per_package" db:"pieces_per_package"`
	PackagesInStock  int64     `json:"packages_in_stock" db:"packages_in_stock"`
	PiecesInStock    int64     `json:"pieces_in_stock" db:"pieces_in_stock"`
	TotalPieces      int64     `json:"total_pieces" db:"-"`
	CostPrice        int64     `json:"cost_price" db:"cost_price"`
	WholesalePrice   int64     `json:"wholesale_price" db:"wholesale_price"`
	RetailPrice      int64     `json:"retail_price" db:"retail_price"`
	RegularPrice     int64     `json:"regular_price" db:"regular_price"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type ProductFilter struct {
	Query       string
	InStockOnly bool
	Limit       int
}

// Upper bounds accepted when a product is created. The validate tags on
// ProductCreateRequest repeat them.
const (
	MaxPiecesPerPackage int64 = 100_000
	MaxStockCount       int64 = 1_000_000_000
	MaxPrice            int64 = 1_000_000_000_000
)

type ProductCreateRequest struct {
	ID               string `json:"id" validate:"omitempty,max=64"`
	Name             string `json:"name" validate:"required,max=200"`
	PiecesPerPackage int64  `json:"pieces_per_package" validate:"lte=100000"`
	PackagesInStock  int64  `json:"packages_in_stock" validate:"gte=0,lte=1000000000"`
	PiecesInStock    int64  `json:"pieces_in_stock" validate:"gte=0,lte=1000000000"`
	CostPrice        int64  `json:"cost_price" validate:"gte=0,lte=1000000000000"`
	WholesalePrice   int64  `json:"wholesale_price" validate:"gte=0,lte=1000000000000"`
	RetailPrice      int64  `json:"retail_price" validate:"gte=0,lte=1000000000000"`
	RegularPrice     int64  `json:"regular_price" validate:"gte=0,lte=1000000000000"`
}

type Customer struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone" db:"phone"`
	CustomerType string    `json:"customer_type" db:"customer_type"`
	DebtBalance  int64     `json:"debt_balance" db:"debt_balance"`
	DebtLimit    *int64    `json:"debt_limit" db:"debt_limit"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type CustomerCreateRequest struct {
	ID           string `json:"id" validate:"omitempty,max=64"`
	Name         string `json:"name" validate:"required,max=200"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	CustomerType string `json:"customer_type" validate:"required,oneof=wholesale retail regular"`
	DebtLimit    *int64 `json:"debt_limit" validate:"omitempty,gte=0"`
}

type SaleItem struct {
	ProductID         string `json:"product_id" db:"product_id"`
	ProductName       string `json:"product_name" db:"product_name"`
	RequestedQuantity int64  `json:"requested_quantity" db:"requested_quantity"`
	UnitPrice         int64  `json:"unit_price" db:"unit_price"`
	Subtotal          int64  `json:"subtotal" db:"subtotal"`
	PackagesSold      int64  `json:"packages_sold" db:"packages_sold"`
	PiecesSold        int64  `json:"pieces_sold" db:"pieces_sold"`
}

type Sale struct {
	ID                    string     `json:"id" db:"id"`
	CustomerID            string     `json:"customer_id,omitempty" db:"customer_id"`
	SellerID              string     `json:"seller_id" db:"seller_id"`
	Items                 []SaleItem `json:"items" db:"-"`
	PaymentMethod         string     `json:"payment_method" db:"payment_method"`
	PaymentAmount         *int64     `json:"payment_amount" db:"payment_amount"`
	ExcessAction          string     `json:"excess_action" db:"excess_action"`
	RequiresAdminApproval bool       `json:"requires_admin_approval" db:"requires_admin_approval"`
	AdminApproved         *bool      `json:"admin_approved" db:"admin_approved"`
	Status                string     `json:"status" db:"status"`
	TotalAmount           int64      `json:"total_amount" db:"total_amount"`
	ChangeAmount          int64      `json:"change_amount" db:"change_amount"`
	IdempotencyKey        string     `json:"idempotency_key,omitempty" db:"idempotency_key"`
	DecidedBy             string     `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt             *time.Time `json:"decided_at,omitempty" db:"decided_at"`
	DecisionNote          string     `json:"decision_note,omitempty" db:"decision_note"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
}

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

type SaleCreateRequest struct {
	CustomerID       string            `json:"customer_id"`
	Items            []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod    string            `json:"payment_method" validate:"required"`
	PaymentAmount    *int64            `json:"payment_amount"`
	ExcessAction     string            `json:"excess_action" validate:"omitempty,oneof=return debt"`
	RequiresApproval bool              `json:"requires_approval"`
	IdempotencyKey   string            `json:"idempotency_key" validate:"omitempty,max=128"`
}

type SaleDecisionRequest struct {
	Approved      *bool  `json:"approved" validate:"required"`
	PaymentAmount *int64 `json:"payment_amount"`
	ExcessAction  string `json:"excess_action" validate:"omitempty,oneof=return debt"`
	Note          string `json:"note" validate:"max=500"`
}

// SaleDecision is the store-level command for moving a pending sale to
// approved or rejected.
type SaleDecision struct {
	SaleID        string
	Approved      bool
	ManagerID     string
	PaymentAmount *int64
	ExcessAction  string
	Note          string
	At            time.Time
}

// SaleCommit is what a store returns after a sale was persisted or decided.
type SaleCommit struct {
	Sale        Sale
	LedgerEntry *DebtLedgerEntry
	Products    []Product
	Customer    *Customer
}

type SaleResult struct {
	Sale            Sale             `json:"sale"`
	LedgerEntry     *DebtLedgerEntry `json:"ledger_entry,omitempty"`
	Classification  string           `json:"classification"`
	Promoted        bool             `json:"promoted"`
	PromotionReason string           `json:"promotion_reason,omitempty"`
	Replayed        bool             `json:"replayed,omitempty"`
}

type DebtLedgerEntry struct {
	ID              string    `json:"id" db:"id"`
	CustomerID      string    `json:"customer_id" db:"customer_id"`
	Amount          int64     `json:"amount" db:"amount"`
	BalanceBefore   int64     `json:"balance_before" db:"balance_before"`
	BalanceAfter    int64     `json:"balance_after" db:"balance_after"`
	TransactionType string    `json:"transaction_type" db:"transaction_type"`
	Reference       string    `json:"reference" db:"reference"`
	Note            string    `json:"note,omitempty" db:"note"`
	CreatedBy       string    `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// LedgerAppend is a manual ledger movement that is not tied to a sale commit.
type LedgerAppend struct {
	CustomerID      string
	Amount          int64
	TransactionType string
	Reference       string
	Note            string
	Actor           string
	At              time.Time
}

type DebtPaymentRequest struct {
	Amount int64  `json:"amount" validate:"gt=0"`
	Note   string `json:"note" validate:"max=500"`
}

type LedgerReversalRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type LineProfit struct {
	ProductID   string `json:"product_id"`
	Revenue     int64  `json:"revenue"`
	Cost        int64  `json:"cost"`
	Profit      int64  `json:"profit"`
	CostIgnored bool   `json:"cost_ignored"`
}

type SaleProfit struct {
	SaleID        string       `json:"sale_id"`
	Revenue       int64        `json:"revenue"`
	Cost          int64        `json:"cost"`
	Profit        int64        `json:"profit"`
	MarginPercent string       `json:"margin_percent"`
	Lines         []LineProfit `json:"lines"`
}

type SaleEvent struct {
	Type        string    `json:"type"`
	SaleID      string    `json:"sale_id"`
	CustomerID  string    `json:"customer_id,omitempty"`
	SellerID    string    `json:"seller_id"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	DecidedBy   string    `json:"decided_by,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type SellerCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SellerUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id" db:"id"`
	ActorUsername string    `json:"actor_username" db:"actor_username"`
	ActorRole     string    `json:"actor_role" db:"actor_role"`
	Action        string    `json:"action" db:"action"`
	EntityType    string    `json:"entity_type" db:"entity_type"`
	EntityID      string    `json:"entity_id" db:"entity_id"`
	Detail        string    `json:"detail" db:"detail"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
