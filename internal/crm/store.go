package crm

import (
	"context"
	"time"
)

type CustomerFilter struct {
	Name  string // substring match
	Email string
}

type ProductFilter struct {
	Name          string
	MinPriceCents *int
	MaxPriceCents *int
	MinStock      *int
	MaxStock      *int
}

type OrderFilter struct {
	CustomerName string
	ProductName  string
	Status       Status
	Since        *time.Time // order_date >= Since
	MinProducts  *int       // at least N distinct products on the order
}

type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	// CreateCustomers persists the whole slice in one transaction.
	CreateCustomers(ctx context.Context, cs []*Customer) error
	EmailExists(ctx context.Context, email string) (bool, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	ListCustomers(ctx context.Context, f CustomerFilter) ([]Customer, error)
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	// GetProducts returns the products whose ids resolve; missing ids are
	// simply absent from the result.
	GetProducts(ctx context.Context, ids []string) ([]Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	// RestockBelow adds `add` to the stock of every product with
	// stock < threshold, in one transaction, and returns the updated rows.
	RestockBelow(ctx context.Context, threshold, add int) ([]Product, error)
}

type OrderStore interface {
	// CreateOrder persists the order and its product associations
	// atomically.
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]OrderWithCustomer, error)
	Summary(ctx context.Context) (Summary, error)
}

// Store is the full capability set; the pgx and in-memory
// implementations both satisfy it.
type Store interface {
	CustomerStore
	ProductStore
	OrderStore
}
