package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/user"
)

const (
	userColumns = `id, name, email, password_hash, is_admin, created_at`

	insertUserSQL = `INSERT INTO users (name, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`

	insertSubscriptionSQL = `INSERT INTO subscriptions (user_id, status, price, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	insertCreditAccountSQL = `INSERT INTO credit_accounts (user_id, credit_limit, credit_used, reset_day)
		VALUES ($1, $2, $3, $4) RETURNING id`

	getUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	updateUserSQL = `UPDATE users SET
			name     = COALESCE($2, name),
			is_admin = COALESCE($3, is_admin)
		WHERE id = $1`

	updateSubscriptionStatusSQL = `UPDATE subscriptions SET status = $2 WHERE user_id = $1`

	listUserDetailsSQL = `SELECT
			u.id, u.name, u.email, u.password_hash, u.is_admin, u.created_at,
			s.id, s.status, s.price, s.current_period_start, s.current_period_end,
			c.id, c.credit_limit, c.credit_used, c.reset_day, c.last_reset_at
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id
		LEFT JOIN credit_accounts c ON c.user_id = u.id
		ORDER BY u.id`

	getUserDetailsSQL = `SELECT
			u.id, u.name, u.email, u.password_hash, u.is_admin, u.created_at,
			s.id, s.status, s.price, s.current_period_start, s.current_period_end,
			c.id, c.credit_limit, c.credit_used, c.reset_day, c.last_reset_at
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id
		LEFT JOIN credit_accounts c ON c.user_id = u.id
		WHERE u.id = $1`
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const uniqueViolation = "23505"

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user, subscription, and credit account in one
// transaction. A duplicate email maps to user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User, sub *user.Subscription, acct *credit.Account) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin registration transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.QueryRow(ctx, insertUserSQL, u.Name, u.Email, u.PasswordHash, u.IsAdmin).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrEmailTaken
		}
		return errors.Wrap(err, "inserting user")
	}

	sub.UserID = u.ID
	err = tx.QueryRow(ctx, insertSubscriptionSQL,
		sub.UserID, sub.Status, sub.Price, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
	).Scan(&sub.ID)
	if err != nil {
		return errors.Wrap(err, "inserting subscription")
	}

	acct.UserID = u.ID
	err = tx.QueryRow(ctx, insertCreditAccountSQL,
		acct.UserID, acct.Limit, acct.Used, acct.ResetDay,
	).Scan(&acct.ID)
	if err != nil {
		return errors.Wrap(err, "inserting credit account")
	}

	return errors.Wrap(tx.Commit(ctx), "commit registration transaction")
}

// GetByID returns a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrap(err, "getting user")
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting user")
	}
	return &u, nil
}

// List returns all users with their subscription and credit details.
func (r *UserRepository) List(ctx context.Context) ([]user.Details, error) {
	rows, err := r.pool.Query(ctx, listUserDetailsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	return pgx.CollectRows(rows, scanUserDetails)
}

// Apply applies admin field updates and returns the updated record.
func (r *UserRepository) Apply(ctx context.Context, id int64, upd user.Update) (*user.Details, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin user update transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	ct, err := tx.Exec(ctx, updateUserSQL, id, upd.Name, upd.IsAdmin)
	if err != nil {
		return nil, errors.Wrapf(err, "updating user %d", id)
	}
	if ct.RowsAffected() == 0 {
		return nil, user.ErrNotFound
	}

	if upd.SubscriptionStatus != nil {
		if _, err := tx.Exec(ctx, updateSubscriptionStatusSQL, id, *upd.SubscriptionStatus); err != nil {
			return nil, errors.Wrapf(err, "updating subscription for user %d", id)
		}
	}

	rows, err := tx.Query(ctx, getUserDetailsSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting user %d", id)
	}
	details, err := pgx.CollectExactlyOneRow(rows, scanUserDetails)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting user %d", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit user update transaction")
	}
	return &details, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

func scanUserDetails(row pgx.CollectableRow) (user.Details, error) {
	var (
		d    user.Details
		sub  user.Subscription
		acct credit.Account

		subID    *int64
		status   *string
		price    *int64
		start    *time.Time
		end      *time.Time
		acctID   *int64
		limit    *int64
		used     *int64
		resetDay *int
	)

	err := row.Scan(
		&d.User.ID, &d.User.Name, &d.User.Email, &d.User.PasswordHash, &d.User.IsAdmin, &d.User.CreatedAt,
		&subID, &status, &price, &start, &end,
		&acctID, &limit, &used, &resetDay, &acct.LastResetAt,
	)
	if err != nil {
		return d, err
	}

	if subID != nil {
		sub = user.Subscription{
			ID:                 *subID,
			UserID:             d.User.ID,
			Status:             *status,
			Price:              *price,
			CurrentPeriodStart: *start,
			CurrentPeriodEnd:   *end,
		}
		d.Subscription = &sub
	}
	if acctID != nil {
		acct.ID = *acctID
		acct.UserID = d.User.ID
		acct.Limit = *limit
		acct.Used = *used
		acct.ResetDay = *resetDay
		d.Credit = &acct
	}
	return d, nil
}
