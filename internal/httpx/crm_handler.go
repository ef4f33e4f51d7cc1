package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/osagie/go-crm-backend.git/internal/crm"
)

type CRMHandler struct {
	Service *crm.Service
}

func (h *CRMHandler) Register(r *chi.Mux) {
	r.Post("/customers", h.createCustomer)
	r.Post("/customers/bulk", h.bulkCreateCustomers)
	r.Post("/products", h.createProduct)
	r.Post("/products/restock-low", h.updateLowStock)
	r.Post("/orders", h.createOrder)

	r.Get("/customers", h.listCustomers)
	r.Get("/customers/{id}", h.getCustomer)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/reports/summary", h.summary)
}

type createCustomerResp struct {
	Customer *crm.Customer `json:"customer"`
	Message  string        `json:"message"`
}

type bulkCreateResp struct {
	Customers []crm.Customer `json:"customers"`
	Errors    []string       `json:"errors"`
}

type createProductResp struct {
	Product *crm.Product `json:"product"`
	Message string       `json:"message"`
}

type createOrderResp struct {
	Order   *crm.Order `json:"order"`
	Message string     `json:"message"`
}

type restockResp struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	UpdatedProducts []crm.Product `json:"updated_products"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
}

// errStatus maps the domain sentinels onto HTTP codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, crm.ErrCustomerNotFound), errors.Is(err, crm.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, crm.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, crm.ErrInvalidEmail),
		errors.Is(err, crm.ErrInvalidPhone),
		errors.Is(err, crm.ErrInvalidPrice),
		errors.Is(err, crm.ErrInvalidStock),
		errors.Is(err, crm.ErrNoValidProducts),
		errors.Is(err, crm.ErrInvalidProductIDs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *CRMHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in crm.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if in.Name == "" || in.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Service.CreateCustomer(ctx, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createCustomerResp{Customer: c, Message: "Customer created successfully."})
}

func (h *CRMHandler) bulkCreateCustomers(w http.ResponseWriter, r *http.Request) {
	var in []crm.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	created, msgs, err := h.Service.BulkCreateCustomers(ctx, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	if created == nil {
		created = []crm.Customer{}
	}
	if msgs == nil {
		msgs = []string{}
	}
	writeJSON(w, http.StatusOK, bulkCreateResp{Customers: created, Errors: msgs})
}

func (h *CRMHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in crm.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Service.CreateProduct(ctx, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createProductResp{Product: p, Message: "Product created successfully."})
}

func (h *CRMHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in crm.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if in.CustomerID == "" || len(in.ProductIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.CreateOrder(ctx, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResp{Order: o, Message: "Order created successfully."})
}

func (h *CRMHandler) updateLowStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	updated, msg, err := h.Service.UpdateLowStockProducts(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restockResp{Success: true, Message: msg, UpdatedProducts: updated})
}

func (h *CRMHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	f := crm.CustomerFilter{
		Name:  r.URL.Query().Get("name"),
		Email: r.URL.Query().Get("email"),
	}
	cs, err := h.Service.ListCustomers(ctx, f)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CRMHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	f := crm.ProductFilter{Name: q.Get("name")}
	var parseErr error
	getInt := func(key string) *int {
		v, err := intParam(q.Get(key))
		if err != nil && parseErr == nil {
			parseErr = err
		}
		return v
	}
	f.MinPriceCents = getInt("min_price_cents")
	f.MaxPriceCents = getInt("max_price_cents")
	f.MinStock = getInt("min_stock")
	f.MaxStock = getInt("max_stock")
	if parseErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filter"})
		return
	}
	ps, listErr := h.Service.ListProducts(ctx, f)
	if listErr != nil {
		writeErr(w, listErr)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CRMHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	f := crm.OrderFilter{
		CustomerName: q.Get("customer_name"),
		ProductName:  q.Get("product_name"),
		Status:       crm.Status(q.Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}
	if s := q.Get("since"); s != "" {
		t, err := parseTimeParam(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid since"})
			return
		}
		f.Since = &t
	}
	mp, err := intParam(q.Get("min_products"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filter"})
		return
	}
	f.MinProducts = mp

	os, err := h.Service.ListOrders(ctx, f)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *CRMHandler) getCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Service.GetCustomer(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CRMHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Service.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CRMHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *CRMHandler) summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sum, err := h.Service.Summary(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func intParam(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
