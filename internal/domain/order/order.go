package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems = errors.New("items required")
	ErrNotFound   = errors.New("order not found")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// UnknownProductError indicates a requested product does not exist in the
// catalog.
type UnknownProductError struct {
	ProductID int64
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product %d referenced", e.ProductID)
}

// InsufficientStockError indicates a product cannot cover the requested
// quantity.
type InsufficientStockError struct {
	ProductID int64
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Name)
}

// StockConflictError indicates the stock of a product changed between the
// pre-check and the commit, so the conditional decrement touched zero rows
// and the whole transaction was rolled back. Callers may retry.
type StockConflictError struct {
	ProductID int64
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock changed concurrently for product %d", e.ProductID)
}

// Order is a completed purchase. It is immutable once created; in particular
// each item's unit price is the discounted price at order time and is never
// recomputed from the current catalog.
type Order struct {
	ID        int64
	UserID    int64
	Total     int64
	Items     []Item
	CreatedAt time.Time
}

// Item is a single order line.
type Item struct {
	ProductID int64
	Quantity  int
	UnitPrice int64
}

// ItemRequest is one (product, quantity) pair from an incoming cart.
type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create commits the order atomically: it inserts the order and its
	// items, decrements each product's stock, and debits the owner's credit
	// account, all in one transaction. The stock decrements and credit
	// debit are conditional updates; if either touches zero rows the whole
	// transaction is rolled back and a StockConflictError or
	// credit.ErrLimitExceeded is returned. On success the order's ID and
	// CreatedAt are populated.
	Create(ctx context.Context, o *Order) error
	// ListByUser returns the user's orders, newest first, with items.
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	// GetByUser returns one order if it exists and belongs to the user,
	// otherwise ErrNotFound.
	GetByUser(ctx context.Context, id, userID int64) (*Order, error)
}
