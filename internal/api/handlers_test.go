package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SidraStore/internal/adapters/cart"
	"SidraStore/internal/adapters/docstore"
	"SidraStore/internal/adapters/localstore"
	"SidraStore/internal/checkout"
	"SidraStore/internal/core/domain"
)

// --- Stub repositories ---

type stubProducts struct {
	products []domain.Product
}

func (s *stubProducts) GetAll(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *stubProducts) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (s *stubProducts) Create(ctx context.Context, product *domain.Product) error {
	product.ID = len(s.products) + 1
	s.products = append(s.products, *product)
	return nil
}

type stubOrders struct {
	orders []domain.Order
	items  map[int][]domain.OrderItem
}

func (s *stubOrders) Create(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	order.ID = len(s.orders) + 1
	s.orders = append(s.orders, *order)
	if s.items == nil {
		s.items = make(map[int][]domain.OrderItem)
	}
	s.items[order.ID] = items
	return nil
}

func (s *stubOrders) GetByID(ctx context.Context, id int) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, nil
}

func (s *stubOrders) GetItems(ctx context.Context, orderID int) ([]domain.OrderItem, error) {
	return s.items[orderID], nil
}

func (s *stubOrders) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	out := make([]domain.Order, 0, limit)
	for i := len(s.orders) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.orders[i])
	}
	return out, nil
}

// --- Fixture ---

func newTestServer(t *testing.T, bin *BinLookupClient) (*httptest.Server, *stubOrders) {
	t.Helper()
	nop := zerolog.Nop()

	products := &stubProducts{products: []domain.Product{
		{ID: 1, NameAr: "عسل سدر", NameEn: "Sidr Honey", Price: "45.00", InStock: 1},
		{ID: 2, NameAr: "سمن بلدي", NameEn: "Traditional Ghee", Price: "60.00", InStock: 1},
	}}
	orders := &stubOrders{}

	store := docstore.NewMemoryStore(nil, &nop)
	kv := localstore.NewMemoryStore()
	delays := checkout.Delays{Transition: 1, Advance: 1, Coalesce: 1, Persist: 1, Resend: 1}
	manager := checkout.NewManager(func(visitorID string) checkout.Deps {
		return checkout.Deps{
			Store:       store,
			Local:       kv,
			Cart:        cart.NewStore(kv, visitorID, &nop),
			Logger:      &nop,
			Delays:      delays,
			LocalPrefix: visitorID,
		}
	}, &nop)
	t.Cleanup(func() { manager.Close(context.Background()) })

	if bin == nil {
		bin = NewBinLookupClient("", "", &nop)
	}
	handlers := NewHandlers(manager, products, orders, bin, &nop)
	server := httptest.NewServer(NewRouter(handlers, &nop))
	t.Cleanup(server.Close)
	return server, orders
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeState(t *testing.T, resp *http.Response) checkout.State {
	t.Helper()
	defer resp.Body.Close()
	var state checkout.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	return state
}

// --- Tests ---

func TestAPI_ListProducts(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []productView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.Equal(t, "Sidr Honey", views[0].NameEn)
	assert.Equal(t, "عسل سدر", views[0].NameAr)
}

func TestAPI_GetProduct_NotFound(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/products/99")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CheckoutCartFlow(t *testing.T) {
	server, _ := newTestServer(t, nil)
	base := server.URL + "/api/checkout/app-1-test"

	resp := postJSON(t, base+"/cart", map[string]any{"productId": 1, "strength": "medium", "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeState(t, resp)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.InDelta(t, 90.0, state.Pricing.Subtotal, 0.001)

	// Unknown product.
	resp = postJSON(t, base+"/cart", map[string]any{"productId": 99, "quantity": 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_SubmitShipping_ReportsFieldErrors(t *testing.T) {
	server, _ := newTestServer(t, nil)
	base := server.URL + "/api/checkout/app-2-test"

	resp := postJSON(t, base+"/shipping", domain.ShippingInfo{FullName: "A", Phone: "123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeState(t, resp)
	assert.Contains(t, state.ShippingErrors, "fullName")
	assert.Contains(t, state.ShippingErrors, "phone")
	assert.Contains(t, state.ShippingErrors, "city")
}

func TestAPI_SubmitCardOtp_Accepted(t *testing.T) {
	server, _ := newTestServer(t, nil)
	base := server.URL + "/api/checkout/app-3-test"

	resp := postJSON(t, base+"/card-otp", map[string]string{"code": "123456"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestAPI_CreateOrder(t *testing.T) {
	server, orders := newTestServer(t, nil)

	resp := postJSON(t, server.URL+"/api/orders", map[string]any{
		"customerName": "Ahmed Ali",
		"subtotal":     "90.00",
		"total":        "103.60",
		"items": []map[string]any{
			{"productId": 1, "productName": "Sidr Honey", "quantity": 2, "pricePerUnit": "45.00", "totalPrice": "90.00"},
		},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, 1, created.ID)
	require.Len(t, orders.orders, 1)
	assert.Equal(t, domain.OrderPending, orders.orders[0].Status)

	// Missing required fields.
	resp = postJSON(t, server.URL+"/api/orders", map[string]any{"customerName": ""})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_BinLookup(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/411111", r.URL.Path)
		fmt.Fprint(w, `{"Scheme":"VISA","Country":{"A2":"SA"}}`)
	}))
	defer provider.Close()

	nop := zerolog.Nop()
	server, _ := newTestServer(t, NewBinLookupClient("test-key", provider.URL, &nop))

	resp := postJSON(t, server.URL+"/api/bin-lookup", map[string]string{"bin": "4111111111111111"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "VISA", out["Scheme"])

	// Too short to be a BIN.
	resp = postJSON(t, server.URL+"/api/bin-lookup", map[string]string{"bin": "4111"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CloseSession(t *testing.T) {
	server, _ := newTestServer(t, nil)
	base := server.URL + "/api/checkout/app-4-test"

	resp := postJSON(t, base+"/cart", map[string]any{"productId": 1, "quantity": 1})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, base+"/", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
