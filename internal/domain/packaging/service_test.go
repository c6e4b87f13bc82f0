package packaging

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/hotel-delivery/internal/domain/menu"
)

// --- Mock implementations ---

type memRules struct {
	rules []Rule
}

func (m *memRules) List(_ context.Context) ([]Rule, error) {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

func (m *memRules) Get(_ context.Context, id string) (*Rule, error) {
	for _, r := range m.rules {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRules) Create(_ context.Context, r *Rule) error {
	m.rules = append(m.rules, *r)
	return nil
}

func (m *memRules) Update(_ context.Context, r *Rule) error {
	for i := range m.rules {
		if m.rules[i].ID == r.ID {
			m.rules[i] = *r
			return nil
		}
	}
	return ErrNotFound
}

func (m *memRules) Delete(_ context.Context, id string) error {
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type memCatalog struct {
	items   []menu.Item
	listErr error
	writes  int
}

func (m *memCatalog) List(_ context.Context) ([]menu.Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.items, nil
}

func (m *memCatalog) SetPackagingCharges(_ context.Context, charges map[string]decimal.Decimal) error {
	m.writes++
	for i := range m.items {
		if c, ok := charges[m.items[i].ID]; ok {
			m.items[i].PackagingCharge = c
		}
	}
	return nil
}

func (m *memCatalog) GetByID(_ context.Context, id string) (*menu.Item, error) {
	for _, it := range m.items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, menu.ErrNotFound
}

func (m *memCatalog) GetByIDs(_ context.Context, _ []string) ([]menu.Item, error) { return nil, nil }

func (m *memCatalog) Create(_ context.Context, it *menu.Item) error {
	m.items = append(m.items, *it)
	return nil
}

func (m *memCatalog) Update(_ context.Context, it *menu.Item) error {
	for i := range m.items {
		if m.items[i].ID == it.ID {
			m.items[i] = *it
			return nil
		}
	}
	return menu.ErrNotFound
}

func (m *memCatalog) Delete(_ context.Context, _ string) error { return nil }

func (m *memCatalog) charge(id string) decimal.Decimal {
	for _, it := range m.items {
		if it.ID == id {
			return it.PackagingCharge
		}
	}
	return decimal.Decimal{}
}

// --- Helpers ---

func newCatalog() *memCatalog {
	return &memCatalog{items: []menu.Item{
		{ID: "main-1", Category: "main", Price: d("300")},
		{ID: "start-1", Category: "starters", Price: d("100")},
		{ID: "dess-1", Category: "dessert", Price: d("80")},
	}}
}

func mainsRule(value string) *Rule {
	return &Rule{
		Name:           "mains",
		ApplicableType: ApplyCategory,
		ApplicableTo:   Only("main"),
		ChargeType:     ChargeFixed,
		ChargeValue:    d(value),
		Active:         true,
	}
}

// --- Tests ---

func TestService_CreateAppliesRule(t *testing.T) {
	cat := newCatalog()
	svc := NewService(&memRules{}, cat)

	r := mainsRule("20")
	require.NoError(t, svc.Create(context.Background(), r))

	assert.NotEmpty(t, r.ID)
	assert.True(t, d("20").Equal(cat.charge("main-1")))
	assert.True(t, cat.charge("start-1").IsZero())
}

func TestService_UpdateNarrowingResetsDroppedItems(t *testing.T) {
	cat := newCatalog()
	rules := &memRules{}
	svc := NewService(rules, cat)

	r := &Rule{Name: "all", ApplicableType: ApplyAll, ChargeType: ChargeFixed, ChargeValue: d("5"), Active: true}
	require.NoError(t, svc.Create(context.Background(), r))
	require.True(t, d("5").Equal(cat.charge("dess-1")))

	narrowed := *r
	narrowed.ApplicableType = ApplyCategory
	narrowed.ApplicableTo = Only("dessert")
	narrowed.ChargeValue = d("8")
	require.NoError(t, svc.Update(context.Background(), &narrowed))

	assert.True(t, cat.charge("main-1").IsZero())
	assert.True(t, cat.charge("start-1").IsZero())
	assert.True(t, d("8").Equal(cat.charge("dess-1")))
}

func TestService_DeleteFallsBackToRemainingRules(t *testing.T) {
	cat := newCatalog()
	svc := NewService(&memRules{}, cat)

	all := &Rule{Name: "all", ApplicableType: ApplyAll, ChargeType: ChargeFixed, ChargeValue: d("5"), Active: true}
	require.NoError(t, svc.Create(context.Background(), all))
	mains := mainsRule("20")
	require.NoError(t, svc.Create(context.Background(), mains))
	require.True(t, d("20").Equal(cat.charge("main-1")))

	require.NoError(t, svc.Delete(context.Background(), mains.ID))

	assert.True(t, d("5").Equal(cat.charge("main-1")), "all-items rule takes over")
	assert.True(t, d("5").Equal(cat.charge("start-1")))
}

func TestService_DeactivateResetsCharges(t *testing.T) {
	cat := newCatalog()
	svc := NewService(&memRules{}, cat)

	r := mainsRule("20")
	require.NoError(t, svc.Create(context.Background(), r))

	off := *r
	off.Active = false
	require.NoError(t, svc.Update(context.Background(), &off))

	assert.True(t, cat.charge("main-1").IsZero())
}

func TestService_RejectsBadRuleWithoutWriting(t *testing.T) {
	cat := newCatalog()
	rules := &memRules{}
	svc := NewService(rules, cat)

	bad := mainsRule("20")
	bad.ChargeType = ChargePercentage
	bad.ChargeValue = d("120")

	var cfgErr *ConfigError
	require.ErrorAs(t, svc.Create(context.Background(), bad), &cfgErr)
	assert.Empty(t, rules.rules)
	assert.Zero(t, cat.writes)
}

func TestService_CatalogFailureWritesNothing(t *testing.T) {
	listErr := errors.New("catalog unavailable")
	cat := newCatalog()
	cat.listErr = listErr
	svc := NewService(&memRules{}, cat)

	err := svc.Create(context.Background(), mainsRule("20"))

	require.ErrorIs(t, err, listErr)
	assert.Zero(t, cat.writes)
}

func TestService_ApplyBulk(t *testing.T) {
	cat := newCatalog()
	svc := NewService(&memRules{}, cat)

	require.NoError(t, svc.ApplyBulk(context.Background(), []string{"start-1", "dess-1"}, d("4")))

	assert.True(t, d("4").Equal(cat.charge("start-1")))
	assert.True(t, d("4").Equal(cat.charge("dess-1")))
	assert.True(t, cat.charge("main-1").IsZero())

	var cfgErr *ConfigError
	require.ErrorAs(t, svc.ApplyBulk(context.Background(), []string{"main-1"}, d("-1")), &cfgErr)
}

func TestService_InactiveRuleKeepsBulkCharges(t *testing.T) {
	tests := []struct {
		name   string
		change func(svc *Service, r *Rule) error
	}{
		{
			name:   "delete",
			change: func(svc *Service, r *Rule) error { return svc.Delete(context.Background(), r.ID) },
		},
		{
			name: "update",
			change: func(svc *Service, r *Rule) error {
				edited := *r
				edited.ChargeValue = d("9")
				return svc.Update(context.Background(), &edited)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newCatalog()
			svc := NewService(&memRules{}, cat)
			require.NoError(t, svc.ApplyBulk(context.Background(), []string{"start-1"}, d("4")))

			dormant := &Rule{
				Name: "Everything", ApplicableType: ApplyAll, ApplicableTo: Everything(),
				ChargeType: ChargeFixed, ChargeValue: d("2"), Active: false,
			}
			require.NoError(t, svc.Create(context.Background(), dormant))
			require.NoError(t, tt.change(svc, dormant))

			assert.True(t, d("4").Equal(cat.charge("start-1")))
		})
	}
}

func TestService_RepricesMenuWrites(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()
	svc := NewService(&memRules{}, cat)
	items := menu.NewService(cat, menu.WithRepricer(svc))

	require.NoError(t, svc.Create(ctx, &Rule{
		Name: "Everything", ApplicableType: ApplyAll, ApplicableTo: Everything(),
		ChargeType: ChargePercentage, ChargeValue: d("10"), Active: true,
	}))
	require.True(t, d("30").Equal(cat.charge("main-1")))

	repriced := menu.Item{ID: "main-1", Name: "Thali", Category: "main", Price: d("600")}
	require.NoError(t, items.Update(ctx, &repriced))
	assert.True(t, d("60").Equal(cat.charge("main-1")))

	added := menu.Item{ID: "new-1", Name: "Kheer", Category: "dessert", Price: d("200")}
	require.NoError(t, items.Create(ctx, &added))
	assert.True(t, d("20").Equal(cat.charge("new-1")))
	assert.True(t, d("20").Equal(added.PackagingCharge))
}

func TestService_UpdateMissingRule(t *testing.T) {
	svc := NewService(&memRules{}, newCatalog())

	r := mainsRule("1")
	r.ID = "missing"

	require.ErrorIs(t, svc.Update(context.Background(), r), ErrNotFound)
}
