// Command seed-db loads a JSON fixture of users, categories, products, and
// coupons into the database, and registers one API key per fixture user.
// All upserts are idempotent, so the tool can be re-run safely.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/merxio/marketplace/internal/domain/catalog"
	"github.com/merxio/marketplace/internal/domain/coupon"
	"github.com/merxio/marketplace/internal/domain/user"
	"github.com/merxio/marketplace/internal/repository"
)

type fixture struct {
	Users      []userJSON     `json:"users"`
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
	Coupons    []couponJSON   `json:"coupons"`
}

type userJSON struct {
	ID           string         `json:"id"`
	Username     string         `json:"username"`
	FullName     string         `json:"fullName"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"passwordHash"`
	Phone        string         `json:"phone"`
	Role         string         `json:"role"`
	Addresses    []user.Address `json:"addresses"`
	APIKey       string         `json:"apiKey"`
}

type categoryJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Picture     string `json:"picture"`
}

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Images      string          `json:"images"`
	Stock       int             `json:"stock"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	Status      string          `json:"status"`
	Condition   string          `json:"condition"`
	CategoryID  string          `json:"categoryId"`
	OwnerID     string          `json:"ownerId"`
}

type couponJSON struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Limit       int    `json:"limit"`
	Discount    int    `json:"discount"`
	IsPublic    bool   `json:"isPublic"`
	OwnerID     string `json:"ownerId"`
}

func main() {
	var (
		databaseURL  string
		fixtureFile  string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture-file", "db/seed/fixture.json", "path to the seed fixture JSON file")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or MARKET_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("MARKET_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile, pepper string) error {
	slog.Info("reading fixture", slog.String("path", fixtureFile))

	data, err := os.ReadFile(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture file")
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return errors.Wrap(err, "parse fixture JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seeder := repository.NewSeeder(pool)

	// Users and categories first: products and coupons reference them.
	if err := seedUsers(ctx, seeder, fx.Users, pepper); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedCategories(ctx, seeder, fx.Categories); err != nil {
		return errors.Wrap(err, "seed categories")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(seedProducts(gctx, seeder, fx.Products), "seed products")
	})
	g.Go(func() error {
		return errors.Wrap(seedCoupons(gctx, seeder, fx.Coupons), "seed coupons")
	})
	return g.Wait()
}

func seedUsers(ctx context.Context, seeder *repository.Seeder, users []userJSON, pepper string) error {
	slog.Info("upserting users", slog.Int("count", len(users)))

	for _, u := range users {
		role := user.Role(u.Role)
		if role == "" {
			role = user.RoleUser
		}
		if err := seeder.UpsertUser(ctx, &user.User{
			ID:           u.ID,
			Username:     u.Username,
			FullName:     u.FullName,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Phone:        u.Phone,
			Role:         role,
			Addresses:    u.Addresses,
		}); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.ID)
		}

		if u.APIKey != "" {
			mac := hmac.New(sha256.New, []byte(pepper))
			mac.Write([]byte(u.APIKey))
			keyHash := hex.EncodeToString(mac.Sum(nil))

			if err := seeder.UpsertAPIKey(ctx, "seed-"+u.ID, keyHash, u.Username, u.ID); err != nil {
				return errors.Wrapf(err, "upsert api key for user %s", u.ID)
			}
		}

		slog.Info("upserted user", slog.String("id", u.ID), slog.String("username", u.Username))
	}

	return nil
}

func seedCategories(ctx context.Context, seeder *repository.Seeder, categories []categoryJSON) error {
	slog.Info("upserting categories", slog.Int("count", len(categories)))

	for _, c := range categories {
		if err := seeder.UpsertCategory(ctx, &catalog.Category{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Picture:     c.Picture,
		}); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.ID)
		}
	}

	return nil
}

func seedProducts(ctx context.Context, seeder *repository.Seeder, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		status := catalog.Status(p.Status)
		if status == "" {
			status = catalog.StatusAvailable
		}
		condition := catalog.Condition(p.Condition)
		if condition == "" {
			condition = catalog.ConditionNew
		}
		if err := seeder.UpsertProduct(ctx, &catalog.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Images:      p.Images,
			Stock:       p.Stock,
			Price:       p.Price,
			Discount:    p.Discount,
			Status:      status,
			Condition:   condition,
			CategoryID:  p.CategoryID,
			OwnerID:     p.OwnerID,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, seeder *repository.Seeder, coupons []couponJSON) error {
	slog.Info("upserting coupons", slog.Int("count", len(coupons)))

	for _, c := range coupons {
		if err := seeder.UpsertCoupon(ctx, &coupon.Coupon{
			Code:        c.Code,
			Description: c.Description,
			Limit:       c.Limit,
			Discount:    c.Discount,
			Status:      coupon.StatusActive,
			IsPublic:    c.IsPublic,
			OwnerID:     c.OwnerID,
		}); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}

		slog.Info("upserted coupon", slog.String("code", c.Code))
	}

	return nil
}
