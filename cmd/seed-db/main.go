// Command seed-db applies migrations and inserts demo catalog data plus an
// admin account.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/homesy/homesy/internal/domain/auth"
	"github.com/homesy/homesy/internal/domain/credit"
	"github.com/homesy/homesy/internal/domain/product"
	"github.com/homesy/homesy/internal/domain/user"
	"github.com/homesy/homesy/internal/storage/postgres"
)

var demoProducts = []product.Product{
	{Name: "Walnut Desk", Description: "Solid walnut writing desk", Price: 18900, Discount: 10, Stock: 12},
	{Name: "Linen Sofa", Description: "Three-seat linen sofa", Price: 64900, Discount: 0, Stock: 4},
	{Name: "Oak Bookshelf", Description: "Five-shelf oak bookcase", Price: 23900, Discount: 15, Stock: 9},
	{Name: "Ceramic Lamp", Description: "Glazed ceramic table lamp", Price: 7900, Discount: 0, Stock: 30},
	{Name: "Wool Rug", Description: "Hand-woven wool rug, 2x3m", Price: 32900, Discount: 25, Stock: 7},
}

func main() {
	var (
		databaseURL   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminEmail, "admin-email", "admin@homesy.dev", "email for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or HOMESY_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("HOMESY_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or HOMESY_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool)); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedAdmin(ctx, postgres.NewUserRepository(pool), adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin user")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	if len(existing) > 0 {
		slog.Info("products already present, skipping", slog.Int("count", len(existing)))
		return nil
	}

	for i := range demoProducts {
		p := demoProducts[i]
		if err := repo.Create(ctx, &p); err != nil {
			return errors.Wrapf(err, "create product %q", p.Name)
		}
		slog.Info("seeded product", slog.String("name", p.Name), slog.Int64("id", p.ID))
	}
	return nil
}

func seedAdmin(ctx context.Context, repo *postgres.UserRepository, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	now := time.Now()
	u := &user.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
	}
	sub := &user.Subscription{
		Status:             user.SubscriptionActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}
	acct := &credit.Account{
		Limit:    auth.DefaultCreditLimit,
		ResetDay: auth.DefaultResetDay,
	}

	err = repo.Create(ctx, u, sub, acct)
	if errors.Is(err, user.ErrEmailTaken) {
		slog.Info("admin user already present, skipping", slog.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("seeded admin user", slog.String("email", email), slog.Int64("id", u.ID))
	return nil
}
