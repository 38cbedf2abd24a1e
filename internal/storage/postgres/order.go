package postgres

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (user_id, total) VALUES ($1, $2)
		RETURNING id, created_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`

	// Conditional decrement: touches zero rows when stock changed since the
	// pre-check, which aborts the transaction.
	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	// Conditional debit: touches zero rows when a concurrent order already
	// consumed the remaining credit.
	debitCreditSQL = `UPDATE credit_accounts SET credit_used = credit_used + $2
		WHERE user_id = $1 AND credit_used + $2 <= credit_limit`

	listOrdersByUserSQL = `SELECT id, user_id, total, created_at FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	getOrderByUserSQL = `SELECT id, user_id, total, created_at FROM orders
		WHERE id = $1 AND user_id = $2`

	listItemsByOrdersSQL = `SELECT order_id, product_id, quantity, unit_price FROM order_items
		WHERE order_id = ANY($1) ORDER BY id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create commits the order in a single transaction: order + item inserts,
// conditional stock decrements, and the conditional credit debit. Stock
// updates run in ascending product-id order so concurrent commits touching
// the same products cannot deadlock. Any conditional update that affects
// zero rows rolls the whole transaction back.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin order transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := tx.QueryRow(ctx, insertOrderSQL, o.UserID, o.Total).Scan(&o.ID, &o.CreatedAt); err != nil {
		return errors.Wrap(err, "inserting order")
	}

	for _, item := range o.Items {
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			o.ID, item.ProductID, item.Quantity, item.UnitPrice,
		); err != nil {
			return errors.Wrapf(err, "inserting order item for product %d", item.ProductID)
		}
	}

	sorted := make([]order.Item, len(o.Items))
	copy(sorted, o.Items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, item := range sorted {
		ct, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity)
		if err != nil {
			return errors.Wrapf(err, "decrementing stock for product %d", item.ProductID)
		}
		if ct.RowsAffected() == 0 {
			return &order.StockConflictError{ProductID: item.ProductID}
		}
	}

	ct, err := tx.Exec(ctx, debitCreditSQL, o.UserID, o.Total)
	if err != nil {
		return errors.Wrapf(err, "debiting credit for user %d", o.UserID)
	}
	if ct.RowsAffected() == 0 {
		return credit.ErrLimitExceeded
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit order transaction")
	}
	return nil
}

// ListByUser returns the user's orders, newest first, items included.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing orders for user %d", userID)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrapf(err, "listing orders for user %d", userID)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByUser returns one order scoped to its owner, or order.ErrNotFound.
func (r *OrderRepository) GetByUser(ctx context.Context, id, userID int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByUserSQL, id, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "getting order %d", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %d", id)
	}

	orders := []order.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// attachItems loads the items for the given orders in one query and groups
// them in place.
func (r *OrderRepository) attachItems(ctx context.Context, orders []order.Order) error {
	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.pool.Query(ctx, listItemsByOrdersSQL, ids)
	if err != nil {
		return errors.Wrap(err, "listing order items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			item    order.Item
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return errors.Wrap(err, "scanning order item")
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return errors.Wrap(rows.Err(), "listing order items")
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.CreatedAt)
	return o, err
}
