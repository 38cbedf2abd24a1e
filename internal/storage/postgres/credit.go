package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homesy/homesy/internal/domain/credit"
)

const (
	creditColumns = `id, user_id, credit_limit, credit_used, reset_day, last_reset_at`

	getCreditByUserSQL = `SELECT ` + creditColumns + ` FROM credit_accounts WHERE user_id = $1`

	resetCreditUsedSQL = `UPDATE credit_accounts SET credit_used = 0, last_reset_at = $2
		WHERE user_id = $1 AND (last_reset_at IS NULL OR last_reset_at < $2)`

	increaseCreditLimitSQL = `UPDATE credit_accounts SET credit_limit = credit_limit + $2
		WHERE user_id = $1
		RETURNING ` + creditColumns

	overrideCreditSQL = `UPDATE credit_accounts SET
			credit_limit = COALESCE($2, credit_limit),
			credit_used  = COALESCE($3, credit_used),
			reset_day    = COALESCE($4, reset_day)
		WHERE user_id = $1
		RETURNING ` + creditColumns
)

var _ credit.Repository = (*CreditRepository)(nil)

// CreditRepository implements credit.Repository backed by PostgreSQL.
type CreditRepository struct {
	pool *pgxpool.Pool
}

// NewCreditRepository returns a CreditRepository that uses the given pool.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{pool: pool}
}

// GetByUser returns the user's credit account.
func (r *CreditRepository) GetByUser(ctx context.Context, userID int64) (*credit.Account, error) {
	rows, err := r.pool.Query(ctx, getCreditByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "getting credit account for user %d", userID)
	}

	acct, err := pgx.CollectExactlyOneRow(rows, scanCreditAccount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credit.ErrNoAccount
		}
		return nil, errors.Wrapf(err, "getting credit account for user %d", userID)
	}
	return &acct, nil
}

// ResetUsed zeroes the used amount and records the reset day. The guard on
// last_reset_at makes the update a no-op once the account has already been
// reset on or after the given day, so concurrent callers cannot zero spend
// twice.
func (r *CreditRepository) ResetUsed(ctx context.Context, userID int64, day time.Time) error {
	if _, err := r.pool.Exec(ctx, resetCreditUsedSQL, userID, day); err != nil {
		return errors.Wrapf(err, "resetting credit for user %d", userID)
	}
	return nil
}

// IncreaseLimit raises the credit limit by delta and returns the updated
// account.
func (r *CreditRepository) IncreaseLimit(ctx context.Context, userID, delta int64) (*credit.Account, error) {
	rows, err := r.pool.Query(ctx, increaseCreditLimitSQL, userID, delta)
	if err != nil {
		return nil, errors.Wrapf(err, "increasing credit limit for user %d", userID)
	}

	acct, err := pgx.CollectExactlyOneRow(rows, scanCreditAccount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credit.ErrNoAccount
		}
		return nil, errors.Wrapf(err, "increasing credit limit for user %d", userID)
	}
	return &acct, nil
}

// ApplyOverride applies admin field overrides and returns the updated account.
func (r *CreditRepository) ApplyOverride(ctx context.Context, userID int64, o credit.Override) (*credit.Account, error) {
	rows, err := r.pool.Query(ctx, overrideCreditSQL, userID, o.Limit, o.Used, o.ResetDay)
	if err != nil {
		return nil, errors.Wrapf(err, "overriding credit for user %d", userID)
	}

	acct, err := pgx.CollectExactlyOneRow(rows, scanCreditAccount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credit.ErrNoAccount
		}
		return nil, errors.Wrapf(err, "overriding credit for user %d", userID)
	}
	return &acct, nil
}

func scanCreditAccount(row pgx.CollectableRow) (credit.Account, error) {
	var acct credit.Account
	err := row.Scan(
		&acct.ID, &acct.UserID, &acct.Limit, &acct.Used,
		&acct.ResetDay, &acct.LastResetAt,
	)
	return acct, err
}
