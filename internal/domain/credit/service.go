package credit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// MaxAutoIncrease caps how much a single limit-increase request can add.
// Requests above the cap are granted the cap, not rejected.
const MaxAutoIncrease = 2000

// Service implements the credit ledger operations on top of a Repository.
type Service struct {
	accounts Repository
}

// NewService creates a credit Service backed by the given repository.
func NewService(accounts Repository) *Service {
	return &Service{accounts: accounts}
}

// Balance returns the current limit, used amount, and derived remaining
// balance for the user. Returns ErrNoAccount when the user has no account.
func (s *Service) Balance(ctx context.Context, userID int64) (*Balance, error) {
	acct, err := s.accounts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Limit:     acct.Limit,
		Used:      acct.Used,
		Remaining: acct.Remaining(),
	}, nil
}

// ResetIfDue zeroes the used amount when today's day-of-month matches the
// account's reset day. The reset is idempotent per calendar day: once an
// account has been reset on a given day, later calls on the same day leave
// any new spend untouched. A missing account is not an error; the operation
// is a pass-through guard ahead of balance reads.
func (s *Service) ResetIfDue(ctx context.Context, userID int64, today time.Time) error {
	acct, err := s.accounts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoAccount) {
			return nil
		}
		return err
	}

	if today.Day() != acct.ResetDay {
		return nil
	}
	if acct.LastResetAt != nil && sameDay(*acct.LastResetAt, today) {
		return nil
	}

	return s.accounts.ResetUsed(ctx, userID, today)
}

// RequestIncrease raises the user's credit limit by the requested amount,
// capped at MaxAutoIncrease. Every request within the cap auto-approves.
// Returns ErrInvalidAmount for non-positive amounts and ErrNoAccount when
// the user has no account.
func (s *Service) RequestIncrease(ctx context.Context, userID int64, amount int64) (*Balance, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	delta := amount
	if delta > MaxAutoIncrease {
		delta = MaxAutoIncrease
	}

	acct, err := s.accounts.IncreaseLimit(ctx, userID, delta)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Limit:     acct.Limit,
		Used:      acct.Used,
		Remaining: acct.Remaining(),
	}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
