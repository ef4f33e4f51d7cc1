package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osagie/go-crm-backend.git/internal/crm"
)

func newTestServer(t *testing.T) (*httptest.Server, *crm.Service) {
	t.Helper()
	svc := &crm.Service{Store: crm.NewMemStore(), Name: "crm-test"}
	router := NewRouter()
	h := &CRMHandler{Service: svc}
	h.Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, svc
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCreateCustomerEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/customers", crm.CustomerInput{Name: "Ada", Email: "ada@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[createCustomerResp](t, resp)
	assert.Equal(t, "Customer created successfully.", out.Message)
	assert.NotEmpty(t, out.Customer.ID)

	// duplicate -> 409
	resp = postJSON(t, srv.URL+"/customers", crm.CustomerInput{Name: "Dup", Email: "ada@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// invalid email -> 400
	resp = postJSON(t, srv.URL+"/customers", crm.CustomerInput{Name: "Bad", Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// missing fields -> 400
	resp = postJSON(t, srv.URL+"/customers", map[string]string{"name": "NoEmail"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestBulkCreateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/customers/bulk", []crm.CustomerInput{
		{Name: "A", Email: "a@example.com"},
		{Name: "B", Email: "broken"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[bulkCreateResp](t, resp)
	assert.Len(t, out.Customers, 1)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "input 1:")
}

func TestOrderEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	cust := decode[createCustomerResp](t, postJSON(t, srv.URL+"/customers",
		crm.CustomerInput{Name: "Ada", Email: "ada@example.com"}))
	p1 := decode[createProductResp](t, postJSON(t, srv.URL+"/products",
		crm.ProductInput{Name: "Widget", PriceCents: 1000, Stock: 4}))
	p2 := decode[createProductResp](t, postJSON(t, srv.URL+"/products",
		crm.ProductInput{Name: "Gadget", PriceCents: 1500, Stock: 12}))

	resp := postJSON(t, srv.URL+"/orders", crm.OrderInput{
		CustomerID: cust.Customer.ID,
		ProductIDs: []string{p1.Product.ID, p2.Product.ID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[createOrderResp](t, resp)
	assert.Equal(t, 2500, out.Order.TotalCents)

	// unknown customer -> 404
	resp = postJSON(t, srv.URL+"/orders", crm.OrderInput{
		CustomerID: "ghost", ProductIDs: []string{p1.Product.ID},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// one bad product id -> 400
	resp = postJSON(t, srv.URL+"/orders", crm.OrderInput{
		CustomerID: cust.Customer.ID, ProductIDs: []string{p1.Product.ID, "ghost"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// order shows up in the pending list
	listResp, err := http.Get(srv.URL + "/orders?status=PENDING")
	require.NoError(t, err)
	orders := decode[[]crm.OrderWithCustomer](t, listResp)
	require.Len(t, orders, 1)
	assert.Equal(t, "ada@example.com", orders[0].CustomerEmail)

	// restock: only Widget (stock 4) is below threshold
	rr := decode[restockResp](t, postJSON(t, srv.URL+"/products/restock-low", nil))
	assert.True(t, rr.Success)
	require.Len(t, rr.UpdatedProducts, 1)
	assert.Equal(t, "Widget", rr.UpdatedProducts[0].Name)
	assert.Equal(t, 14, rr.UpdatedProducts[0].Stock)

	// summary aggregates
	sumResp, err := http.Get(srv.URL + "/reports/summary")
	require.NoError(t, err)
	sum := decode[crm.Summary](t, sumResp)
	assert.Equal(t, 1, sum.Customers)
	assert.Equal(t, 1, sum.Orders)
	assert.Equal(t, 2500, sum.RevenueCents)
}

func TestProductListFilters(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, p := range []crm.ProductInput{
		{Name: "Cheap Widget", PriceCents: 500, Stock: 2},
		{Name: "Posh Widget", PriceCents: 5000, Stock: 20},
	} {
		resp := postJSON(t, srv.URL+"/products", p)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/products?min_price_cents=1000")
	require.NoError(t, err)
	ps := decode[[]crm.Product](t, resp)
	require.Len(t, ps, 1)
	assert.Equal(t, "Posh Widget", ps[0].Name)

	resp, err = http.Get(srv.URL + "/products?name=widget&max_stock=5")
	require.NoError(t, err)
	ps = decode[[]crm.Product](t, resp)
	require.Len(t, ps, 1)
	assert.Equal(t, "Cheap Widget", ps[0].Name)

	resp, err = http.Get(srv.URL + "/products?min_stock=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetByID(t *testing.T) {
	srv, _ := newTestServer(t)

	cust := decode[createCustomerResp](t, postJSON(t, srv.URL+"/customers",
		crm.CustomerInput{Name: "Ada", Email: "ada@example.com"}))

	resp, err := http.Get(srv.URL + "/customers/" + cust.Customer.ID)
	require.NoError(t, err)
	got := decode[crm.Customer](t, resp)
	assert.Equal(t, "Ada", got.Name)

	resp, err = http.Get(srv.URL + "/customers/ghost")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
