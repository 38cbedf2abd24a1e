// Package credit implements the per-user spending ledger: a credit limit,
// the amount used since the last monthly reset, and the reset policy.
package credit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for credit operations.
var (
	ErrNoAccount     = errors.New("credit account not found")
	ErrLimitExceeded = errors.New("credit limit exceeded")
	ErrInvalidAmount = errors.New("amount must be a positive integer")
)

// Account is the per-user credit ledger row. Used is cumulative spend since
// the last reset; Remaining is derived, never stored. LastResetAt records the
// calendar day of the most recent monthly reset so a second access on the
// same reset day does not zero out spend that happened after the reset.
type Account struct {
	ID          int64
	UserID      int64
	Limit       int64
	Used        int64
	ResetDay    int
	LastResetAt *time.Time
}

// Remaining returns the spendable balance.
func (a *Account) Remaining() int64 {
	return a.Limit - a.Used
}

// Balance is the read model returned to clients.
type Balance struct {
	Limit     int64 `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

// Override holds optional admin-level field overrides. Nil fields are left
// unchanged.
type Override struct {
	Limit    *int64
	Used     *int64
	ResetDay *int
}

// Repository defines persistence operations for credit accounts.
//
// The debit that accompanies an order is deliberately absent here: it must
// run inside the order commit transaction, so it lives with the order
// repository instead.
type Repository interface {
	GetByUser(ctx context.Context, userID int64) (*Account, error)
	// ResetUsed zeroes the used amount and stamps the last reset with the
	// given day, but only if the account has not already been reset on or
	// after that day. An already-reset account and a missing account are
	// both no-ops.
	ResetUsed(ctx context.Context, userID int64, day time.Time) error
	// IncreaseLimit raises the limit by delta and returns the updated
	// account. Returns ErrNoAccount when the user has no account.
	IncreaseLimit(ctx context.Context, userID int64, delta int64) (*Account, error)
	// ApplyOverride applies admin field overrides and returns the updated
	// account.
	ApplyOverride(ctx context.Context, userID int64, o Override) (*Account, error)
}
