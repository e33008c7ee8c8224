// Package saledraft holds the working set of line items for a sale that has
// not been submitted yet.
package saledraft

import (
	"fmt"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/pricing"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/stockunit"
)

var errSubtotalRange = fmt.Errorf("%w: line subtotal out of range", domain.ErrInvalidSale)

// Draft is owned by a single caller and is not safe for concurrent use.
// Stock is checked against the product snapshots it was given; nothing is
// reserved, so the commit step must re-validate.
type Draft struct {
	customer  *domain.Customer
	items     []domain.SaleItem
	snapshots map[string]domain.Product
}

func New(customer *domain.Customer) *Draft {
	return &Draft{
		customer:  cloneCustomer(customer),
		items:     make([]domain.SaleItem, 0, 8),
		snapshots: make(map[string]domain.Product),
	}
}

func (d *Draft) Customer() *domain.Customer {
	return cloneCustomer(d.customer)
}

// AddItem appends a line for product, or grows the existing line for the same
// product. The unit price of an existing line stays frozen.
func (d *Draft) AddItem(product domain.Product, quantity int64) (domain.SaleItem, error) {
	if quantity < 1 {
		return domain.SaleItem{}, domain.NewItemError(product.ID, domain.ErrInvalidQuantity)
	}
	available, err := stockunit.TotalPieces(product)
	if err != nil {
		return domain.SaleItem{}, domain.NewItemError(product.ID, err)
	}
	if available == 0 {
		return domain.SaleItem{}, domain.NewItemError(product.ID, domain.ErrOutOfStock)
	}

	idx := d.indexOf(product.ID)
	wanted := quantity
	if idx >= 0 {
		var ok bool
		if wanted, ok = stockunit.AddInt64(wanted, d.items[idx].RequestedQuantity); !ok {
			return domain.SaleItem{}, domain.NewItemError(product.ID, domain.ErrInvalidQuantity)
		}
	}
	if wanted > available {
		return domain.SaleItem{}, domain.NewItemError(product.ID, domain.ErrInsufficientStock)
	}

	if idx >= 0 {
		item, err := withQuantity(d.items[idx], wanted, product.PiecesPerPackage)
		if err != nil {
			return domain.SaleItem{}, domain.NewItemError(product.ID, err)
		}
		d.items[idx] = item
		d.snapshots[product.ID] = product
		return item, nil
	}

	item := domain.SaleItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   pricing.ResolvePrice(product, d.customer),
	}
	item, err = withQuantity(item, wanted, product.PiecesPerPackage)
	if err != nil {
		return domain.SaleItem{}, domain.NewItemError(product.ID, err)
	}
	d.items = append(d.items, item)
	d.snapshots[product.ID] = product
	return item, nil
}

// AdjustQuantity sets the quantity of an existing line. Quantities below one
// remove the line.
func (d *Draft) AdjustQuantity(productID string, newQuantity int64) error {
	idx := d.indexOf(productID)
	if idx < 0 {
		return domain.NewItemError(productID, domain.ErrNotFound)
	}
	if newQuantity < 1 {
		d.RemoveItem(productID)
		return nil
	}

	product := d.snapshots[productID]
	available, err := stockunit.TotalPieces(product)
	if err != nil {
		return domain.NewItemError(productID, err)
	}
	if available == 0 {
		return domain.NewItemError(productID, domain.ErrOutOfStock)
	}
	if newQuantity > available {
		return domain.NewItemError(productID, domain.ErrInsufficientStock)
	}

	item, err := withQuantity(d.items[idx], newQuantity, product.PiecesPerPackage)
	if err != nil {
		return domain.NewItemError(productID, err)
	}
	d.items[idx] = item
	return nil
}

func (d *Draft) RemoveItem(productID string) {
	idx := d.indexOf(productID)
	if idx < 0 {
		return
	}
	d.items = append(d.items[:idx], d.items[idx+1:]...)
	delete(d.snapshots, productID)
}

// SetCustomer switches the customer and reprices every line for the new tier.
func (d *Draft) SetCustomer(customer *domain.Customer) error {
	d.customer = cloneCustomer(customer)
	return d.RepriceAll()
}

// RepriceAll re-resolves every unit price from the current snapshots and
// customer. Lines are left unchanged when any new subtotal is out of range.
func (d *Draft) RepriceAll() error {
	repriced := make([]domain.SaleItem, len(d.items))
	for i, item := range d.items {
		item.UnitPrice = pricing.ResolvePrice(d.snapshots[item.ProductID], d.customer)
		subtotal, ok := stockunit.MulInt64(item.RequestedQuantity, item.UnitPrice)
		if !ok {
			return domain.NewItemError(item.ProductID, errSubtotalRange)
		}
		item.Subtotal = subtotal
		repriced[i] = item
	}
	d.items = repriced
	return nil
}

// RefreshProduct replaces the snapshot used for stock checks. Prices already
// on the line are not touched until RepriceAll.
func (d *Draft) RefreshProduct(product domain.Product) {
	if d.indexOf(product.ID) < 0 {
		return
	}
	d.snapshots[product.ID] = product
}

func (d *Draft) Items() []domain.SaleItem {
	out := make([]domain.SaleItem, len(d.items))
	copy(out, d.items)
	return out
}

func (d *Draft) Len() int {
	return len(d.items)
}

// Total sums the line subtotals. It fails with ErrInvalidSale when the sum is
// out of range.
func (d *Draft) Total() (int64, error) {
	total := int64(0)
	for _, item := range d.items {
		var ok bool
		if total, ok = stockunit.AddInt64(total, item.Subtotal); !ok {
			return 0, fmt.Errorf("%w: sale total out of range", domain.ErrInvalidSale)
		}
	}
	return total, nil
}

func (d *Draft) indexOf(productID string) int {
	for i, item := range d.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func withQuantity(item domain.SaleItem, quantity int64, piecesPerPackage int64) (domain.SaleItem, error) {
	split, err := stockunit.FromPieces(quantity, piecesPerPackage)
	if err != nil {
		return item, err
	}
	subtotal, ok := stockunit.MulInt64(quantity, item.UnitPrice)
	if !ok {
		return item, errSubtotalRange
	}
	item.RequestedQuantity = quantity
	item.Subtotal = subtotal
	item.PackagesSold = split.Packages
	item.PiecesSold = split.Pieces
	return item, nil
}

func cloneCustomer(customer *domain.Customer) *domain.Customer {
	if customer == nil {
		return nil
	}
	cp := *customer
	if customer.DebtLimit != nil {
		limit := *customer.DebtLimit
		cp.DebtLimit = &limit
	}
	return &cp
}
