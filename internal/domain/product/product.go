package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is in minor
// currency units; Discount is a whole percentage between 0 and 100.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	Discount    int
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
}

// Repository defines persistence operations for the product catalog. Reads
// are used by order placement; writes are reserved for the admin surface.
// Stock decrements during order placement bypass this interface and happen
// inside the order commit transaction.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
