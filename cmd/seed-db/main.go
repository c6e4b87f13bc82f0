package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/hotel-delivery/internal/domain/auth"
	"github.com/xenking/hotel-delivery/internal/domain/menu"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/packaging"
	"github.com/xenking/hotel-delivery/internal/repository"
)

type menuItemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Veg         bool            `json:"veg"`
	Available   bool            `json:"available"`
	Image       string          `json:"image"`
	Rating      decimal.Decimal `json:"rating"`
}

func main() {
	var (
		databaseURL  string
		menuFile     string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "db/seed/menu.json", "path to menu JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or DELIVERY_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or DELIVERY_API_KEY_PEPPER env)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if apiKey == "" {
		apiKey = os.Getenv("DELIVERY_SEED_API_KEY")
	}
	if apiKey == "" {
		lg.Fatal("API key is required: set --api-key or DELIVERY_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("DELIVERY_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, menuFile, apiKey, apiKeyPepper); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, menuFile, apiKey, pepper string) error {
	lg.Info("Connecting to database")
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := repository.RunMigrations(databaseURL); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	menuRepo := repository.NewMenuRepository(pool)
	if err := seedMenu(ctx, lg, menuRepo, menuFile); err != nil {
		return errors.Wrap(err, "seed menu")
	}
	if err := seedOffers(ctx, lg, pool); err != nil {
		return errors.Wrap(err, "seed offers")
	}
	if err := seedPackaging(ctx, lg, packaging.NewService(repository.NewPackagingRepository(pool), menuRepo)); err != nil {
		return errors.Wrap(err, "seed packaging rules")
	}
	if err := seedAPIKey(ctx, lg, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

// seedMenu creates missing items and refreshes the descriptive fields of
// existing ones. Order counts and packaging charges are left alone.
func seedMenu(ctx context.Context, lg *zap.Logger, repo menu.Repository, path string) error {
	lg.Info("Reading menu file", zap.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}
	var items []menuItemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse menu JSON")
	}

	svc := menu.NewService(repo)
	for _, it := range items {
		item := &menu.Item{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Category:    it.Category,
			Veg:         it.Veg,
			Available:   it.Available,
			Image:       it.Image,
			Rating:      it.Rating,
		}
		_, err := repo.GetByID(ctx, it.ID)
		switch {
		case errors.Is(err, menu.ErrNotFound):
			err = svc.Create(ctx, item)
		case err == nil:
			err = svc.Update(ctx, item)
		}
		if err != nil {
			return errors.Wrapf(err, "seed item %s", it.ID)
		}
		lg.Info("Seeded menu item", zap.String("id", it.ID), zap.String("name", it.Name))
	}
	return nil
}

func seedOffers(ctx context.Context, lg *zap.Logger, pool *pgxpool.Pool) error {
	now := time.Now().UTC()
	offers := []offer.Offer{
		{
			Name:          "Welcome Offer",
			Code:          "WELCOME20",
			Description:   "20% off on your first order",
			DiscountType:  offer.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(20),
			MinOrderValue: decimal.NewFromInt(300),
			MaxDiscount:   decimal.NewFromInt(200),
			Applicability: offer.AllItems(),
			StartDate:     now.AddDate(0, 0, -30),
			EndDate:       now.AddDate(0, 0, 60),
		},
		{
			Name:          "Weekend Special",
			Code:          "WEEKEND10",
			Description:   "10% off on all orders during weekends",
			DiscountType:  offer.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			MinOrderValue: decimal.NewFromInt(500),
			MaxDiscount:   decimal.NewFromInt(150),
			Applicability: offer.AllItems(),
			StartDate:     now.AddDate(0, 0, -15),
			EndDate:       now.AddDate(0, 0, 45),
		},
		{
			Name:          "Sweet Tooth",
			Code:          "SWEET50",
			Description:   "50 off when your order has a dessert",
			DiscountType:  offer.DiscountFixed,
			DiscountValue: decimal.NewFromInt(50),
			MinOrderValue: decimal.NewFromInt(250),
			Applicability: offer.Applicability{Kind: offer.ApplyCategory, Category: "desserts"},
			StartDate:     now.AddDate(0, 0, -1),
			EndDate:       now.AddDate(0, 1, 0),
		},
	}
	for i := range offers {
		o := &offers[i]
		if err := offer.CheckConfig(o); err != nil {
			return err
		}
		o.ID = uuid.New().String()
		o.Active = true
		o.CreatedAt = now
	}

	if err := repository.NewOfferRepository(pool).UpsertBatch(ctx, offers); err != nil {
		return err
	}
	lg.Info("Seeded offers", zap.Int("count", len(offers)))
	return nil
}

// seedPackaging creates the demo rules by name when missing. Creating a rule
// recomputes the charges on the menu.
func seedPackaging(ctx context.Context, lg *zap.Logger, svc *packaging.Service) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, r := range existing {
		have[r.Name] = true
	}

	rules := []packaging.Rule{
		{
			Name:           "Standard Packaging",
			ApplicableType: packaging.ApplyAll,
			ApplicableTo:   packaging.Everything(),
			ChargeType:     packaging.ChargeFixed,
			ChargeValue:    decimal.NewFromInt(10),
			Active:         true,
		},
		{
			Name:           "Premium Packaging",
			ApplicableType: packaging.ApplyCategory,
			ApplicableTo:   packaging.Only("main"),
			ChargeType:     packaging.ChargeFixed,
			ChargeValue:    decimal.NewFromInt(20),
			Active:         true,
		},
	}
	for i := range rules {
		if have[rules[i].Name] {
			continue
		}
		if err := svc.Create(ctx, &rules[i]); err != nil {
			return errors.Wrapf(err, "create rule %q", rules[i].Name)
		}
		lg.Info("Seeded packaging rule", zap.String("name", rules[i].Name))
	}
	return svc.Recompute(ctx)
}

func seedAPIKey(ctx context.Context, lg *zap.Logger, repo auth.Repository, apiKey, pepper string) error {
	key := &auth.APIKey{
		ID:      uuid.New().String(),
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "default",
		Scopes:  []string{auth.ScopeAdmin},
	}
	if err := repo.Upsert(ctx, key); err != nil {
		return err
	}
	lg.Info("Seeded API key", zap.String("name", key.Name))
	return nil
}
