// Package auth is the access gate: it registers accounts, verifies
// credentials, and resolves bearer tokens to a user identity and role.
package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/user"
)

// Defaults applied to every new account at registration.
const (
	DefaultCreditLimit = 5000
	DefaultResetDay    = 1
)

// Sentinel errors for authentication.
var (
	ErrMissingFields      = errors.New("name, email, and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	UserID  int64
	IsAdmin bool
}

// Config holds the token and hashing parameters for the auth service.
type Config struct {
	// Secret signs and verifies HS256 bearer tokens.
	Secret []byte
	// TokenTTL bounds token lifetime.
	TokenTTL time.Duration
	// BcryptCost is the password hashing cost; zero means bcrypt.DefaultCost.
	BcryptCost int
	// SubscriptionPrice is the monthly price attached to new subscriptions,
	// in minor currency units.
	SubscriptionPrice int64
}

// Service implements registration, login, and token verification.
type Service struct {
	users user.Repository
	cfg   Config
	now   func() time.Time
}

// NewService creates an auth Service backed by the given user repository.
func NewService(users user.Repository, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users: users,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Register creates a user with a hashed password, an active one-month
// subscription, and a default credit account in one transaction, and returns
// a signed token for the new identity.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, *user.User, error) {
	if name == "" || email == "" || password == "" {
		return "", nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", nil, errors.Wrap(err, "hash password")
	}

	now := s.now()
	u := &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	sub := &user.Subscription{
		Status:             user.SubscriptionActive,
		Price:              s.cfg.SubscriptionPrice,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}
	acct := &credit.Account{
		Limit:    DefaultCreditLimit,
		ResetDay: DefaultResetDay,
	}

	if err := s.users.Create(ctx, u, sub, acct); err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Login verifies the email/password pair and returns a signed token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, "get user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Authenticate resolves a bearer token to the caller's identity. The user is
// re-read from storage so role changes take effect immediately rather than at
// token expiry.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.cfg.Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "get user")
	}

	return &Identity{UserID: u.ID, IsAdmin: u.IsAdmin}, nil
}

func (s *Service) issueToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}
