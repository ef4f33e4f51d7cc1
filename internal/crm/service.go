package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/osagie/go-crm-backend.git/internal/kafka"
)

// Restock policy for updateLowStockProducts.
const (
	LowStockThreshold = 10
	RestockAmount     = 10
)

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type ProductInput struct {
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	Stock      int    `json:"stock"`
}

type OrderInput struct {
	CustomerID string     `json:"customer_id"`
	ProductIDs []string   `json:"product_ids"`
	OrderDate  *time.Time `json:"order_date,omitempty"`
}

// EventSink is what the service needs from a producer. *kafka.Producer
// satisfies it; tests plug in a buffer.
type EventSink interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store       Store
	OrderEvents EventSink // optional: crm.order.created
	StockEvents EventSink // optional: crm.product.restocked
	Name        string    // producer name di envelope
}

// CreateCustomer validates, checks uniqueness, persists.
// The EmailExists pre-check only buys a friendly error; the store's
// unique constraint is the authoritative guard under races.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	exists, err := s.Store.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
	}
	if err := ValidatePhone(in.Phone); err != nil {
		return nil, err
	}
	c := &Customer{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BulkCreateCustomers processes entries in order. Entries that pass
// validation are persisted together in one transaction; failing entries
// are skipped and reported as "input N: ..." messages. One bad entry
// never blocks the rest of the batch.
func (s *Service) BulkCreateCustomers(ctx context.Context, in []CustomerInput) ([]Customer, []string, error) {
	var (
		valid []*Customer
		msgs  []string
		seen  = map[string]bool{} // email dipakai di batch ini
	)
	for i, entry := range in {
		if err := s.checkBulkEntry(ctx, entry, seen); err != nil {
			msgs = append(msgs, fmt.Sprintf("input %d: %v", i, err))
			continue
		}
		seen[entry.Email] = true
		valid = append(valid, &Customer{
			ID:        uuid.NewString(),
			Name:      entry.Name,
			Email:     entry.Email,
			Phone:     entry.Phone,
			CreatedAt: time.Now().UTC(),
		})
	}
	if err := s.Store.CreateCustomers(ctx, valid); err != nil {
		return nil, nil, err
	}
	out := make([]Customer, 0, len(valid))
	for _, c := range valid {
		out = append(out, *c)
	}
	return out, msgs, nil
}

func (s *Service) checkBulkEntry(ctx context.Context, entry CustomerInput, seen map[string]bool) error {
	if entry.Name == "" {
		return errors.New("name is required")
	}
	if err := ValidateEmail(entry.Email); err != nil {
		return err
	}
	if seen[entry.Email] {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, entry.Email)
	}
	exists, err := s.Store.EmailExists(ctx, entry.Email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, entry.Email)
	}
	return ValidatePhone(entry.Phone)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := ValidatePrice(in.PriceCents); err != nil {
		return nil, err
	}
	if err := ValidateStock(in.Stock); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &Product{
		ID:         uuid.NewString(),
		Name:       in.Name,
		PriceCents: in.PriceCents,
		Stock:      in.Stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateOrder resolves the customer and products, computes the total
// from the products' current prices, and persists order + associations
// in one transaction. Duplicate product ids in the request refer to the
// same product: they are de-duplicated before resolution, so each
// product is counted once in the total.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	customer, err := s.Store.GetCustomer(ctx, in.CustomerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, in.CustomerID)
		}
		return nil, err
	}

	ids := dedupe(in.ProductIDs)
	if len(ids) == 0 {
		return nil, ErrNoValidProducts
	}
	products, err := s.Store.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoValidProducts
	}
	if len(products) != len(ids) {
		return nil, ErrInvalidProductIDs
	}

	total := 0
	for _, p := range products {
		total += p.PriceCents
	}

	orderDate := time.Now().UTC()
	if in.OrderDate != nil {
		orderDate = *in.OrderDate
	}
	o := &Order{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		ProductIDs: ids,
		TotalCents: total,
		Status:     StatusPending,
		OrderDate:  orderDate,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	s.publishOrderCreated(o, customer.Email)
	return o, nil
}

// UpdateLowStockProducts bumps every product with stock below the
// threshold and reports what changed.
func (s *Service) UpdateLowStockProducts(ctx context.Context) ([]Product, string, error) {
	updated, err := s.Store.RestockBelow(ctx, LowStockThreshold, RestockAmount)
	if err != nil {
		return nil, "", err
	}
	msg := "No low-stock products found."
	if len(updated) > 0 {
		msg = fmt.Sprintf("Updated %d low-stock products (+%d each).", len(updated), RestockAmount)
	}
	s.publishRestocked(updated, msg)
	return updated, msg, nil
}

// ---- queries (pure reads) ----

func (s *Service) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return s.Store.GetCustomer(ctx, id)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.Store.GetProduct(ctx, id)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context, f CustomerFilter) ([]Customer, error) {
	return s.Store.ListCustomers(ctx, f)
}

func (s *Service) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	return s.Store.ListProducts(ctx, f)
}

func (s *Service) ListOrders(ctx context.Context, f OrderFilter) ([]OrderWithCustomer, error) {
	return s.Store.ListOrders(ctx, f)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.Store.Summary(ctx)
}

// ---- events (best-effort, fire-and-forget) ----

func (s *Service) publishOrderCreated(o *Order, email string) {
	if s.OrderEvents == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Name,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderCreatedPayload{
			OrderID:       o.ID,
			CustomerID:    o.CustomerID,
			CustomerEmail: email,
			ProductIDs:    o.ProductIDs,
			TotalCents:    o.TotalCents,
		}),
	}
	s.OrderEvents.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishRestocked(updated []Product, msg string) {
	if s.StockEvents == nil || len(updated) == 0 {
		return
	}
	ps := make([]RestockedProduct, 0, len(updated))
	for _, p := range updated {
		ps = append(ps, RestockedProduct{ProductID: p.ID, Name: p.Name, Stock: p.Stock})
	}
	ev := Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventProductsRestocked,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.Name,
		Payload:      kafkax.MustMarshal(ProductsRestockedPayload{Products: ps, Message: msg}),
	}
	s.StockEvents.Publish([]byte("restock"), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventProductsRestocked)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
