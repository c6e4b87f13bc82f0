//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/hotel-delivery/internal/domain/auth"
	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/menu"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
	"github.com/xenking/hotel-delivery/internal/domain/packaging"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("delivery"),
		postgres.WithUsername("delivery"),
		postgres.WithPassword("delivery"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}
	if err := RunMigrations(dsn); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	// Second run must be a no-op.
	if err := RunMigrations(dsn); err != nil {
		log.Fatalf("migrate twice: %v", err)
	}

	testPool, err = NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	return m.Run()
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func seedMenu(t *testing.T, repo *MenuRepository, items ...menu.Item) {
	t.Helper()
	for i := range items {
		require.NoError(t, repo.Create(context.Background(), &items[i]))
	}
}

func TestMenuRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMenuRepository(testPool)
	seedMenu(t, repo,
		menu.Item{ID: "m-paneer", Name: "Paneer Tikka", Price: d("220"), Category: "starters", Available: true, Rating: d("4.5")},
		menu.Item{ID: "m-naan", Name: "Butter Naan", Price: d("45"), Category: "breads", Available: true},
	)

	got, err := repo.GetByID(ctx, "m-paneer")
	require.NoError(t, err)
	assert.Equal(t, "Paneer Tikka", got.Name)
	assert.True(t, d("220").Equal(got.Price))

	_, err = repo.GetByID(ctx, "m-missing")
	require.ErrorIs(t, err, menu.ErrNotFound)

	many, err := repo.GetByIDs(ctx, []string{"m-paneer", "m-naan", "m-missing"})
	require.NoError(t, err)
	assert.Len(t, many, 2)

	require.NoError(t, repo.SetPackagingCharges(ctx, map[string]decimal.Decimal{
		"m-paneer": d("15"),
		"m-naan":   d("2.5"),
	}))
	got, err = repo.GetByID(ctx, "m-naan")
	require.NoError(t, err)
	assert.True(t, d("2.50").Equal(got.PackagingCharge))

	got.Price = d("50")
	got.PackagingCharge = d("99")
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, "m-naan")
	require.NoError(t, err)
	assert.True(t, d("50").Equal(got.Price))
	assert.True(t, d("2.50").Equal(got.PackagingCharge), "update must not touch packaging charge")

	require.ErrorIs(t, repo.Delete(ctx, "m-missing"), menu.ErrNotFound)
}

func TestOfferRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOfferRepository(testPool)
	now := time.Now().UTC().Truncate(time.Second)

	o := &offer.Offer{
		ID: "o-1", Name: "Lunch", Code: "LUNCH10", DiscountType: offer.DiscountPercentage,
		DiscountValue: d("10"), MinOrderValue: d("200"), MaxDiscount: d("50"),
		Applicability: offer.Applicability{Kind: offer.ApplyItems, ItemIDs: []string{"a", "b"}},
		StartDate:     now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: true, CreatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, o))

	dup := *o
	dup.ID = "o-2"
	require.ErrorIs(t, repo.Create(ctx, &dup), offer.ErrDuplicateCode)

	got, err := repo.FindByCode(ctx, "lunch10")
	require.NoError(t, err)
	assert.Equal(t, offer.ApplyItems, got.Applicability.Kind)
	assert.Equal(t, []string{"a", "b"}, got.Applicability.ItemIDs)

	_, err = repo.FindByCode(ctx, "NOPE")
	require.ErrorIs(t, err, offer.ErrNotFound)

	active, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)

	active, err = repo.ListActive(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, repo.UpsertBatch(ctx, []offer.Offer{
		{ID: "o-3", Name: "Campaign", Code: "LUNCH10", DiscountType: offer.DiscountFixed,
			DiscountValue: d("30"), Applicability: offer.AllItems(),
			StartDate: now, EndDate: now.Add(time.Hour), Active: true, CreatedAt: now},
	}))
	got, err = repo.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, offer.DiscountFixed, got.DiscountType)
	assert.Equal(t, offer.ApplyAll, got.Applicability.Kind)
}

func TestPackagingRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPackagingRepository(testPool)
	now := time.Now().UTC()

	rule := &packaging.Rule{
		ID: "r-1", Name: "Bowls", ApplicableType: packaging.ApplyCategory,
		ApplicableTo: packaging.Only("curries", "rice"), ChargeType: packaging.ChargeFixed,
		ChargeValue: d("10"), Active: true, CreatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, rule))
	require.NoError(t, repo.Create(ctx, &packaging.Rule{
		ID: "r-2", Name: "Everything", ApplicableType: packaging.ApplyAll,
		ApplicableTo: packaging.Everything(), ChargeType: packaging.ChargePercentage,
		ChargeValue: d("5"), Active: true, CreatedAt: now.Add(time.Second),
	}))

	rules, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "r-1", rules[0].ID)
	assert.Equal(t, []string{"curries", "rice"}, rules[0].ApplicableTo.Values)
	assert.True(t, rules[1].ApplicableTo.All)

	rule.Active = false
	require.NoError(t, repo.Update(ctx, rule))
	got, err := repo.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.False(t, got.Active)

	require.NoError(t, repo.Delete(ctx, "r-1"))
	_, err = repo.Get(ctx, "r-1")
	require.ErrorIs(t, err, packaging.ErrNotFound)
}

func TestOrderRepository_CreateUpdatesCounters(t *testing.T) {
	ctx := context.Background()
	menuRepo := NewMenuRepository(testPool)
	offers := NewOfferRepository(testPool)
	customers := NewCustomerRepository(testPool)
	orders := NewOrderRepository(testPool)
	now := time.Now().UTC().Truncate(time.Second)

	seedMenu(t, menuRepo, menu.Item{ID: "o-dal", Name: "Dal", Price: d("150"), Category: "curries", Available: true})
	require.NoError(t, offers.Create(ctx, &offer.Offer{
		ID: "o-flat", Name: "Flat", Code: "FLAT25", DiscountType: offer.DiscountFixed, DiscountValue: d("25"),
		Applicability: offer.AllItems(), StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
		Active: true, CreatedAt: now,
	}))
	cust := &customer.Customer{ID: "c-1", Name: "Ravi", Phone: "+919800000001", Address: "Block A", TotalSpent: d("0"), CreatedAt: now}
	require.NoError(t, customers.Create(ctx, cust))

	o := &order.Order{
		ID:       "ord-1",
		Customer: order.Customer{ID: "c-1", Name: "Ravi", Phone: "+919800000001", Address: "Block A"},
		Items: []order.Item{
			{MenuItemID: "o-dal", Name: "Dal", Quantity: 2, Price: d("150"), PackagingCharge: d("10")},
		},
		Subtotal: d("300"), PackagingTotal: d("20"), DiscountAmount: d("25"), Total: d("295"),
		OfferCode: "FLAT25", Status: order.StatusPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, orders.Create(ctx, o))

	got, err := orders.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "FLAT25", got.OfferCode)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, d("295").Equal(got.Total))

	usedOffer, err := offers.FindByCode(ctx, "FLAT25")
	require.NoError(t, err)
	assert.Equal(t, 1, usedOffer.UsageCount)

	c, err := customers.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Orders)
	assert.True(t, d("295").Equal(c.TotalSpent))
	require.NotNil(t, c.LastOrder)

	dal, err := menuRepo.GetByID(ctx, "o-dal")
	require.NoError(t, err)
	assert.Equal(t, 2, dal.OrderCount)

	list, err := orders.List(ctx, order.Filter{Phone: "+919800000001", Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 1)

	require.NoError(t, orders.UpdateStatus(ctx, "ord-1", order.StatusCancelled, now.Add(time.Minute)))
	require.ErrorIs(t, orders.UpdateStatus(ctx, "ord-missing", order.StatusCancelled, now), order.ErrNotFound)

	stats, err := orders.Stats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Orders, 1)
}

func TestOfferRepository_DeleteUsedOffer(t *testing.T) {
	ctx := context.Background()
	offers := NewOfferRepository(testPool)
	customers := NewCustomerRepository(testPool)
	orders := NewOrderRepository(testPool)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, offers.Create(ctx, &offer.Offer{
		ID: "o-gone", Name: "Gone", Code: "GONE15", DiscountType: offer.DiscountFixed, DiscountValue: d("15"),
		Applicability: offer.AllItems(), StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
		Active: true, CreatedAt: now,
	}))
	require.NoError(t, customers.Create(ctx, &customer.Customer{
		ID: "c-3", Name: "Nina", Phone: "+919800000003", TotalSpent: d("0"), CreatedAt: now,
	}))
	require.NoError(t, orders.Create(ctx, &order.Order{
		ID: "ord-gone", Customer: order.Customer{ID: "c-3", Name: "Nina", Phone: "+919800000003", Address: "y"},
		Subtotal: d("100"), PackagingTotal: d("0"), DiscountAmount: d("15"), Total: d("85"),
		OfferCode: "GONE15", Status: order.StatusPending, CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, offers.Delete(ctx, "o-gone"))
	_, err := offers.Get(ctx, "o-gone")
	require.ErrorIs(t, err, offer.ErrNotFound)

	got, err := orders.Get(ctx, "ord-gone")
	require.NoError(t, err)
	assert.Equal(t, "GONE15", got.OfferCode)

	var (
		offerID *string
		code    string
	)
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT offer_id, code FROM applied_offers WHERE order_id = $1`, "ord-gone").Scan(&offerID, &code))
	assert.Nil(t, offerID)
	assert.Equal(t, "GONE15", code)
}

func TestOrderRepository_UnknownOfferRollsBack(t *testing.T) {
	ctx := context.Background()
	customers := NewCustomerRepository(testPool)
	orders := NewOrderRepository(testPool)
	now := time.Now().UTC()

	require.NoError(t, customers.Create(ctx, &customer.Customer{
		ID: "c-2", Name: "Mira", Phone: "+919800000002", TotalSpent: d("0"), CreatedAt: now,
	}))

	err := orders.Create(ctx, &order.Order{
		ID: "ord-bad", Customer: order.Customer{ID: "c-2", Name: "Mira", Phone: "+919800000002", Address: "x"},
		Subtotal: d("10"), PackagingTotal: d("0"), DiscountAmount: d("0"), Total: d("10"),
		OfferCode: "GHOST", Status: order.StatusPending, CreatedAt: now, UpdatedAt: now,
	})
	require.Error(t, err)

	_, err = orders.Get(ctx, "ord-bad")
	require.ErrorIs(t, err, order.ErrNotFound)

	c, err := customers.Get(ctx, "c-2")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Orders)
}

func TestAPIKeyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAPIKeyRepository(testPool)
	hash := auth.HashKey([]byte("pepper"), "secret")

	require.NoError(t, repo.Upsert(ctx, &auth.APIKey{ID: "k-1", KeyHash: hash, Name: "ops", Scopes: []string{auth.ScopeAdmin}}))
	require.NoError(t, repo.Upsert(ctx, &auth.APIKey{ID: "k-2", KeyHash: hash, Name: "ops", Scopes: []string{auth.ScopeAdmin}}))

	got, err := repo.FindByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "k-1", got.ID)
	assert.True(t, got.HasScope(auth.ScopeAdmin))

	_, err = repo.FindByHash(ctx, "nope")
	require.ErrorIs(t, err, auth.ErrNotFound)
}
