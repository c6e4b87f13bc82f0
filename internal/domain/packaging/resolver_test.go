package packaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func catalog() []Item {
	return []Item{
		{ID: "main-1", Category: "main", Price: d("300")},
		{ID: "main-2", Category: "main", Price: d("249.99")},
		{ID: "start-1", Category: "starters", Price: d("100")},
		{ID: "dess-1", Category: "dessert", Price: d("80")},
	}
}

func assertCharges(t *testing.T, want map[string]string, got map[string]decimal.Decimal) {
	t.Helper()
	require.Len(t, got, len(want), "got %v", got)
	for id, v := range want {
		c, ok := got[id]
		require.True(t, ok, "missing charge for %s", id)
		assert.True(t, d(v).Equal(c), "item %s: expected %s, got %s", id, v, c)
	}
}

func TestResolveChargesForRule(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want map[string]string
	}{
		{
			name: "fixed charge on a category",
			rule: Rule{Name: "mains box", ApplicableType: ApplyCategory, ApplicableTo: Only("main"), ChargeType: ChargeFixed, ChargeValue: d("20"), Active: true},
			want: map[string]string{"main-1": "20", "main-2": "20"},
		},
		{
			name: "percentage on a category rounds to cents",
			rule: Rule{Name: "mains pct", ApplicableType: ApplyCategory, ApplicableTo: Only("main"), ChargeType: ChargePercentage, ChargeValue: d("5"), Active: true},
			want: map[string]string{"main-1": "15", "main-2": "12.50"},
		},
		{
			name: "all items",
			rule: Rule{Name: "all", ApplicableType: ApplyAll, ChargeType: ChargeFixed, ChargeValue: d("5"), Active: true},
			want: map[string]string{"main-1": "5", "main-2": "5", "start-1": "5", "dess-1": "5"},
		},
		{
			name: "applicable_to all overrides type",
			rule: Rule{Name: "all cats", ApplicableType: ApplyCategory, ApplicableTo: Everything(), ChargeType: ChargeFixed, ChargeValue: d("3"), Active: true},
			want: map[string]string{"main-1": "3", "main-2": "3", "start-1": "3", "dess-1": "3"},
		},
		{
			name: "explicit items",
			rule: Rule{Name: "items", ApplicableType: ApplyItem, ApplicableTo: Only("start-1", "ghost"), ChargeType: ChargeFixed, ChargeValue: d("7.5"), Active: true},
			want: map[string]string{"start-1": "7.50"},
		},
		{
			name: "inactive rule resolves nothing",
			rule: Rule{Name: "off", ApplicableType: ApplyAll, ChargeType: ChargeFixed, ChargeValue: d("5"), Active: false},
			want: map[string]string{},
		},
		{
			name: "zero charge is still a charge",
			rule: Rule{Name: "free", ApplicableType: ApplyCategory, ApplicableTo: Only("dessert"), ChargeType: ChargeFixed, ChargeValue: d("0"), Active: true},
			want: map[string]string{"dess-1": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveChargesForRule(&tt.rule, catalog())
			require.NoError(t, err)
			assertCharges(t, tt.want, got)
		})
	}
}

func TestResolveChargesForRule_SingleCategoryMatch(t *testing.T) {
	items := []Item{
		{ID: "main", Category: "main", Price: d("300")},
		{ID: "starter", Category: "starters", Price: d("100")},
	}
	rule := Rule{Name: "mains", ApplicableType: ApplyCategory, ApplicableTo: Only("main"), ChargeType: ChargeFixed, ChargeValue: d("20"), Active: true}

	got, err := ResolveChargesForRule(&rule, items)

	require.NoError(t, err)
	assertCharges(t, map[string]string{"main": "20"}, got)
	assert.NotContains(t, got, "starter")
}

func TestResolveChargesForRule_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		field string
	}{
		{name: "percentage above 100", rule: Rule{Name: "x", ApplicableType: ApplyAll, ChargeType: ChargePercentage, ChargeValue: d("150")}, field: "charge_value"},
		{name: "negative value", rule: Rule{Name: "x", ApplicableType: ApplyAll, ChargeType: ChargeFixed, ChargeValue: d("-1")}, field: "charge_value"},
		{name: "unknown charge type", rule: Rule{Name: "x", ApplicableType: ApplyAll, ChargeType: "weight"}, field: "charge_type"},
		{name: "unknown applicable type", rule: Rule{Name: "x", ApplicableType: "table", ChargeType: ChargeFixed}, field: "applicable_type"},
		{name: "empty scope", rule: Rule{Name: "x", ApplicableType: ApplyItem, ChargeType: ChargeFixed}, field: "applicable_to"},
		{name: "empty name", rule: Rule{ApplicableType: ApplyAll, ChargeType: ChargeFixed}, field: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveChargesForRule(&tt.rule, catalog())

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestRemoveChargesForRule(t *testing.T) {
	rule := Rule{Name: "mains", ApplicableType: ApplyCategory, ApplicableTo: Only("main"), ChargeType: ChargeFixed, ChargeValue: d("20"), Active: false}

	got := RemoveChargesForRule(&rule, catalog())

	assertCharges(t, map[string]string{"main-1": "0", "main-2": "0"}, got)
}

func TestApplyFixedChargeToItemSet(t *testing.T) {
	got := ApplyFixedChargeToItemSet([]string{"a", "b", "a"}, d("12.345"))

	assertCharges(t, map[string]string{"a": "12.35", "b": "12.35"}, got)
	assert.Empty(t, ApplyFixedChargeToItemSet(nil, d("1")))
}

func TestMaterialize_Precedence(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []Rule{
		{ID: "r-item", Name: "special", ApplicableType: ApplyItem, ApplicableTo: Only("main-1"), ChargeType: ChargeFixed, ChargeValue: d("30"), Active: true, CreatedAt: t0},
		{ID: "r-cat", Name: "mains", ApplicableType: ApplyCategory, ApplicableTo: Only("main"), ChargeType: ChargeFixed, ChargeValue: d("20"), Active: true, CreatedAt: t0.Add(time.Hour)},
		{ID: "r-all", Name: "all", ApplicableType: ApplyAll, ChargeType: ChargeFixed, ChargeValue: d("5"), Active: true, CreatedAt: t0.Add(2 * time.Hour)},
		{ID: "r-off", Name: "disabled", ApplicableType: ApplyItem, ApplicableTo: Only("dess-1"), ChargeType: ChargeFixed, ChargeValue: d("99"), Active: false, CreatedAt: t0.Add(3 * time.Hour)},
	}

	got, err := Materialize(rules, catalog())

	require.NoError(t, err)
	assertCharges(t, map[string]string{
		"main-1":  "30",
		"main-2":  "20",
		"start-1": "5",
		"dess-1":  "5",
	}, got)
}

func TestMaterialize_LaterRuleWinsTie(t *testing.T) {
	rules := []Rule{
		{Name: "old", ApplicableType: ApplyCategory, ApplicableTo: Only("main"), ChargeType: ChargeFixed, ChargeValue: d("10"), Active: true},
		{Name: "new", ApplicableType: ApplyCategory, ApplicableTo: Only("main", "dessert"), ChargeType: ChargePercentage, ChargeValue: d("10"), Active: true},
	}

	got, err := Materialize(rules, catalog())

	require.NoError(t, err)
	assertCharges(t, map[string]string{"main-1": "30", "main-2": "25", "dess-1": "8"}, got)
}

func TestMaterialize_OrderOfRulesOnlyBreaksTies(t *testing.T) {
	specific := Rule{Name: "item", ApplicableType: ApplyItem, ApplicableTo: Only("start-1"), ChargeType: ChargeFixed, ChargeValue: d("9"), Active: true}
	broad := Rule{Name: "all", ApplicableType: ApplyAll, ChargeType: ChargeFixed, ChargeValue: d("1"), Active: true}

	a, err := Materialize([]Rule{specific, broad}, catalog())
	require.NoError(t, err)
	b, err := Materialize([]Rule{broad, specific}, catalog())
	require.NoError(t, err)

	assert.True(t, d("9").Equal(a["start-1"]))
	assert.True(t, d("9").Equal(b["start-1"]))
}

func TestMaterialize_NoRules(t *testing.T) {
	got, err := Materialize(nil, catalog())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScope_JSON(t *testing.T) {
	var s Scope
	require.NoError(t, json.Unmarshal([]byte(`"all"`), &s))
	assert.True(t, s.All)

	require.NoError(t, json.Unmarshal([]byte(`["main","dessert"]`), &s))
	assert.Equal(t, Only("main", "dessert"), s)

	require.NoError(t, json.Unmarshal([]byte(`"main"`), &s))
	assert.Equal(t, Only("main"), s)

	out, err := json.Marshal(Only("a", "b"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(out))

	out, err = json.Marshal(Everything())
	require.NoError(t, err)
	assert.JSONEq(t, `"all"`, string(out))
}
