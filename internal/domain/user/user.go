// Package user holds user identities, their subscriptions, and the
// persistence contract shared by the auth and admin surfaces.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/homesy/homesy/internal/domain/credit"
)

// Sentinel errors for user operations.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Subscription statuses. Admins may override the status; the system itself
// only ever creates active subscriptions.
const (
	SubscriptionActive   = "ACTIVE"
	SubscriptionPaused   = "PAUSED"
	SubscriptionCanceled = "CANCELED"
)

// User is an account holder. PasswordHash is opaque to everything except the
// auth service.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Subscription is the user's plan, created alongside the user at
// registration with a one-month billing period.
type Subscription struct {
	ID                 int64
	UserID             int64
	Status             string
	Price              int64
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// Details bundles a user with their subscription and credit account for the
// admin listing.
type Details struct {
	User         User
	Subscription *Subscription
	Credit       *credit.Account
}

// Update holds optional admin-level field updates. Nil fields are left
// unchanged.
type Update struct {
	Name               *string
	IsAdmin            *bool
	SubscriptionStatus *string
}

// Repository defines persistence operations for users.
type Repository interface {
	// Create inserts the user together with their subscription and credit
	// account in one transaction; registration either fully succeeds or
	// leaves nothing behind. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *User, sub *Subscription, acct *credit.Account) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]Details, error)
	// Apply applies admin field updates and returns the updated record with
	// details. Returns ErrNotFound for an unknown user.
	Apply(ctx context.Context, id int64, upd Update) (*Details, error)
}
