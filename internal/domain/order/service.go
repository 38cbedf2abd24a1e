package order

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/product"
)

// Service coordinates order placement: it validates the cart, prices each
// line, checks the credit ceiling, and delegates the atomic commit to the
// order repository.
type Service struct {
	products product.Repository
	credits  credit.Repository
	orders   Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	credits credit.Repository,
	orders Repository,
) *Service {
	return &Service{
		products: products,
		credits:  credits,
		orders:   orders,
	}
}

// PlaceOrder runs the full placement sequence for the given user and cart.
//
// Validation and pricing happen against a single batch read of the catalog.
// Duplicate product entries in the cart are merged by summing quantities, so
// the stock check sees the combined demand. The credit pre-check rejects
// orders that would push used spend above the limit; the commit re-validates
// both stock and credit with conditional updates, so concurrent placements
// can never oversell stock or overdraw the account.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, items []ItemRequest) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	// Validate quantities and merge duplicate product lines, preserving
	// first-occurrence order.
	merged := make([]ItemRequest, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}

	ids := make([]int64, len(merged))
	for i, item := range merged {
		ids[i] = item.ProductID
	}

	// Batch fetch all referenced products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Price each line in input order, checking stock against the merged
	// quantity. Unit prices are captured here and stored with the order.
	orderItems := make([]Item, len(merged))
	var total int64
	for i, item := range merged {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &UnknownProductError{ProductID: item.ProductID}
		}
		if p.Stock < item.Quantity {
			return nil, &InsufficientStockError{ProductID: p.ID, Name: p.Name}
		}

		unitPrice := DiscountedUnitPrice(p.Price, p.Discount)
		orderItems[i] = Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		}
		total += unitPrice * int64(item.Quantity)
	}

	// Credit ceiling pre-check. The commit below re-validates atomically.
	acct, err := s.credits.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acct.Used+total > acct.Limit {
		return nil, credit.ErrLimitExceeded
	}

	o := &Order{
		UserID: userID,
		Total:  total,
		Items:  orderItems,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}
