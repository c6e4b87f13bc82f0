package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/hotel-delivery/internal/domain/offer"
)

func decodeRequest(t *testing.T, body string, dst requestBody) error {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return decodeBody(httptest.NewRecorder(), r, dst)
}

func TestDecodeBody_MenuItem(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		price     string
		available *bool
	}{
		{name: "number price", body: `{"name":"Dal","price":120.5,"category":"Main"}`, price: "120.5"},
		{name: "string price", body: `{"name":"Dal","price":"180.505","category":"Main"}`, price: "180.505"},
		{name: "null price", body: `{"name":"Dal","price":null,"category":"Main"}`, price: "0"},
		{name: "unknown fields skipped", body: `{"name":"Dal","price":1,"packaging_charge":99,"extra":{"a":[1,2]}}`, price: "1"},
		{name: "explicit availability", body: `{"name":"Dal","price":1,"available":false}`, price: "1", available: new(bool)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req menuItemRequest
			require.NoError(t, decodeRequest(t, tt.body, &req))
			assert.Equal(t, "Dal", req.Name)
			assert.True(t, decimal.RequireFromString(tt.price).Equal(req.Price), req.Price.String())
			assert.Equal(t, tt.available, req.Available)
		})
	}
}

func TestDecodeBody_Offer(t *testing.T) {
	var req offerRequest
	require.NoError(t, decodeRequest(t, `{"name":"Drinks","code":"drinks10","discount_type":"fixed",
		"discount_value":10,"applicable_items":"Drinks","start_date":"2020-01-01T00:00:00Z","end_date":null}`, &req))

	assert.Equal(t, offer.DiscountFixed, req.DiscountType)
	require.NotNil(t, req.ApplicableItems)
	assert.Equal(t, offer.ApplyCategory, req.ApplicableItems.Kind)
	assert.Equal(t, 2020, req.StartDate.Year())
	assert.True(t, req.EndDate.IsZero())
	assert.Nil(t, req.Active)
}

func TestDecodeBody_Bulk(t *testing.T) {
	var req bulkRequest
	require.NoError(t, decodeRequest(t, `{"item_ids":["a","b"],"charge":"5"}`, &req))
	assert.Equal(t, []string{"a", "b"}, req.ItemIDs)
	assert.True(t, decimal.NewFromInt(5).Equal(req.Charge))

	req = bulkRequest{}
	require.NoError(t, decodeRequest(t, `{"item_ids":null}`, &req))
	assert.Nil(t, req.ItemIDs)
}

func TestDecodeBody_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		dst  requestBody
	}{
		{name: "truncated", body: `{"item_id":`, dst: &addItemRequest{}},
		{name: "empty", body: ``, dst: &checkoutRequest{}},
		{name: "not an object", body: `[1]`, dst: &applyOfferRequest{}},
		{name: "string quantity", body: `{"quantity":"two"}`, dst: &quantityRequest{}},
		{name: "bad decimal", body: `{"charge":"five"}`, dst: &bulkRequest{}},
		{name: "bad date", body: `{"start_date":"yesterday"}`, dst: &offerRequest{}},
		{name: "bad scope", body: `{"applicable_to":42}`, dst: &ruleRequest{}},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, dst: &menuItemRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeRequest(t, tt.body, tt.dst)
			require.ErrorIs(t, err, errBadRequest)
		})
	}
}
