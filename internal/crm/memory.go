package crm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemStore is an in-memory Store. It backs the tests and keeps the
// handlers and jobs runnable without Postgres.
type MemStore struct {
	mu        sync.Mutex
	customers []Customer
	products  []Product
	orders    []Order
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) CreateCustomer(_ context.Context, c *Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addCustomer(c)
}

func (m *MemStore) CreateCustomers(_ context.Context, cs []*Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// all-or-nothing: check the whole slice before touching state
	emails := map[string]bool{}
	for _, c := range cs {
		if m.emailTaken(c.Email) || emails[c.Email] {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, c.Email)
		}
		emails[c.Email] = true
	}
	for _, c := range cs {
		m.customers = append(m.customers, *c)
	}
	return nil
}

func (m *MemStore) addCustomer(c *Customer) error {
	if m.emailTaken(c.Email) {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, c.Email)
	}
	m.customers = append(m.customers, *c)
	return nil
}

func (m *MemStore) emailTaken(email string) bool {
	for _, c := range m.customers {
		if c.Email == email {
			return true
		}
	}
	return false
}

func (m *MemStore) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emailTaken(email), nil
}

func (m *MemStore) GetCustomer(_ context.Context, id string) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.ID == id {
			cc := c
			return &cc, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) ListCustomers(_ context.Context, f CustomerFilter) ([]Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Customer{}
	for _, c := range m.customers {
		if f.Name != "" && !containsFold(c.Name, f.Name) {
			continue
		}
		if f.Email != "" && !containsFold(c.Email, f.Email) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MemStore) CreateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, *p)
	return nil
}

func (m *MemStore) GetProduct(_ context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			pp := p
			return &pp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) GetProducts(_ context.Context, ids []string) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Product{}
	for _, id := range ids {
		for _, p := range m.products {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (m *MemStore) ListProducts(_ context.Context, f ProductFilter) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Product{}
	for _, p := range m.products {
		if f.Name != "" && !containsFold(p.Name, f.Name) {
			continue
		}
		if f.MinPriceCents != nil && p.PriceCents < *f.MinPriceCents {
			continue
		}
		if f.MaxPriceCents != nil && p.PriceCents > *f.MaxPriceCents {
			continue
		}
		if f.MinStock != nil && p.Stock < *f.MinStock {
			continue
		}
		if f.MaxStock != nil && p.Stock > *f.MaxStock {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MemStore) RestockBelow(_ context.Context, threshold, add int) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated := []Product{}
	for i := range m.products {
		if m.products[i].Stock < threshold {
			m.products[i].Stock += add
			m.products[i].UpdatedAt = time.Now().UTC()
			updated = append(updated, m.products[i])
		}
	}
	return updated, nil
}

func (m *MemStore) CreateOrder(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, *o)
	return nil
}

func (m *MemStore) GetOrder(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			oo := o
			return &oo, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) ListOrders(_ context.Context, f OrderFilter) ([]OrderWithCustomer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []OrderWithCustomer{}
	for _, o := range m.orders {
		var cust *Customer
		for _, c := range m.customers {
			if c.ID == o.CustomerID {
				cc := c
				cust = &cc
				break
			}
		}
		if f.CustomerName != "" && (cust == nil || !containsFold(cust.Name, f.CustomerName)) {
			continue
		}
		if f.ProductName != "" && !m.orderHasProductNamed(o, f.ProductName) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Since != nil && o.OrderDate.Before(*f.Since) {
			continue
		}
		if f.MinProducts != nil && len(o.ProductIDs) < *f.MinProducts {
			continue
		}
		row := OrderWithCustomer{Order: o}
		if cust != nil {
			row.CustomerEmail = cust.Email
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *MemStore) orderHasProductNamed(o Order, name string) bool {
	for _, id := range o.ProductIDs {
		for _, p := range m.products {
			if p.ID == id && containsFold(p.Name, name) {
				return true
			}
		}
	}
	return false
}

func (m *MemStore) Summary(_ context.Context) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Summary{Customers: len(m.customers), Orders: len(m.orders)}
	for _, o := range m.orders {
		s.RevenueCents += o.TotalCents
	}
	return s, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
