package crm

import "time"

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int       `json:"price_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	ProductIDs []string  `json:"product_ids"`
	TotalCents int       `json:"total_cents"`
	Status     Status    `json:"status"` // lihat status.go
	OrderDate  time.Time `json:"order_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderWithCustomer joins the customer email onto an order, for the
// reminder listing.
type OrderWithCustomer struct {
	Order
	CustomerEmail string `json:"customer_email"`
}

// Summary holds the aggregate counts consumed by the weekly report.
type Summary struct {
	Customers    int `json:"customers"`
	Orders       int `json:"orders"`
	RevenueCents int `json:"revenue_cents"`
}
