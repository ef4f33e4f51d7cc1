package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osagie/go-crm-backend.git/internal/crm"
)

// Store implements crm.Store on Postgres. The unique index on
// customers.email is the authoritative duplicate guard; unique
// violations are mapped back to crm.ErrDuplicateEmail so racing
// requests still get the right error.
type Store struct{ DB *pgxpool.Pool }

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateCustomer(ctx context.Context, c *crm.Customer) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO customers(id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.Email, c.Phone, c.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", crm.ErrDuplicateEmail, c.Email)
	}
	return err
}

// CreateCustomers inserts the whole batch in one transaction; a failure
// on any row leaves nothing committed.
func (s *Store) CreateCustomers(ctx context.Context, cs []*crm.Customer) error {
	if len(cs) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range cs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO customers(id, name, email, phone, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, c.ID, c.Name, c.Email, c.Phone, c.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", crm.ErrDuplicateEmail, c.Email)
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*crm.Customer, error) {
	var c crm.Customer
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at FROM customers WHERE id=$1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, crm.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context, f crm.CustomerFilter) ([]crm.Customer, error) {
	q := `SELECT id, name, email, phone, created_at FROM customers`
	var w where
	if f.Name != "" {
		w.add(`name ILIKE '%%' || $%d || '%%'`, f.Name)
	}
	if f.Email != "" {
		w.add(`email ILIKE '%%' || $%d || '%%'`, f.Email)
	}
	rows, err := s.DB.Query(ctx, q+w.clause()+` ORDER BY created_at`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []crm.Customer{}
	for rows.Next() {
		var c crm.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateProduct(ctx context.Context, p *crm.Product) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO products(id, name, price_cents, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, p.PriceCents, p.Stock, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *Store) GetProduct(ctx context.Context, id string) (*crm.Product, error) {
	var p crm.Product
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, price_cents, stock, created_at, updated_at
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, crm.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProducts(ctx context.Context, ids []string) ([]crm.Product, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, price_cents, stock, created_at, updated_at
		FROM products WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *Store) ListProducts(ctx context.Context, f crm.ProductFilter) ([]crm.Product, error) {
	q := `SELECT id, name, price_cents, stock, created_at, updated_at FROM products`
	var w where
	if f.Name != "" {
		w.add(`name ILIKE '%%' || $%d || '%%'`, f.Name)
	}
	if f.MinPriceCents != nil {
		w.add(`price_cents >= $%d`, *f.MinPriceCents)
	}
	if f.MaxPriceCents != nil {
		w.add(`price_cents <= $%d`, *f.MaxPriceCents)
	}
	if f.MinStock != nil {
		w.add(`stock >= $%d`, *f.MinStock)
	}
	if f.MaxStock != nil {
		w.add(`stock <= $%d`, *f.MaxStock)
	}
	rows, err := s.DB.Query(ctx, q+w.clause()+` ORDER BY name`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *Store) RestockBelow(ctx context.Context, threshold, add int) ([]crm.Product, error) {
	rows, err := s.DB.Query(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE stock < $1
		RETURNING id, name, price_cents, stock, created_at, updated_at
	`, threshold, add)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]crm.Product, error) {
	out := []crm.Product{}
	for rows.Next() {
		var p crm.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateOrder inserts the order row and its join rows atomically.
func (s *Store) CreateOrder(ctx context.Context, o *crm.Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, customer_id, total_cents, status, order_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.CustomerID, o.TotalCents, o.Status, o.OrderDate, o.CreatedAt); err != nil {
		return err
	}
	for _, pid := range o.ProductIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_products(order_id, product_id) VALUES ($1, $2)
		`, o.ID, pid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*crm.Order, error) {
	var o crm.Order
	err := s.DB.QueryRow(ctx, `
		SELECT o.id, o.customer_id, o.total_cents, o.status, o.order_date, o.created_at,
		       COALESCE(array_agg(op.product_id) FILTER (WHERE op.product_id IS NOT NULL), '{}')
		FROM orders o
		LEFT JOIN order_products op ON op.order_id = o.id
		WHERE o.id = $1
		GROUP BY o.id
	`, id).Scan(&o.ID, &o.CustomerID, &o.TotalCents, &o.Status, &o.OrderDate, &o.CreatedAt, &o.ProductIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, crm.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, f crm.OrderFilter) ([]crm.OrderWithCustomer, error) {
	var w where
	if f.CustomerName != "" {
		w.add(`c.name ILIKE '%%' || $%d || '%%'`, f.CustomerName)
	}
	if f.Status != "" {
		w.add(`o.status = $%d`, string(f.Status))
	}
	if f.Since != nil {
		w.add(`o.order_date >= $%d`, *f.Since)
	}
	if f.ProductName != "" {
		w.add(`EXISTS (
			SELECT 1 FROM order_products opn
			JOIN products p ON p.id = opn.product_id
			WHERE opn.order_id = o.id AND p.name ILIKE '%%' || $%d || '%%')`, f.ProductName)
	}
	having := ""
	if f.MinProducts != nil {
		w.args = append(w.args, *f.MinProducts)
		having = fmt.Sprintf(` HAVING COUNT(op.product_id) >= $%d`, len(w.args))
	}

	q := `
		SELECT o.id, o.customer_id, o.total_cents, o.status, o.order_date, o.created_at, c.email,
		       COALESCE(array_agg(op.product_id) FILTER (WHERE op.product_id IS NOT NULL), '{}')
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		LEFT JOIN order_products op ON op.order_id = o.id` +
		w.clause() +
		` GROUP BY o.id, c.name, c.email` + having + ` ORDER BY o.order_date DESC`

	rows, err := s.DB.Query(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []crm.OrderWithCustomer{}
	for rows.Next() {
		var ord crm.OrderWithCustomer
		if err := rows.Scan(&ord.ID, &ord.CustomerID, &ord.TotalCents, &ord.Status,
			&ord.OrderDate, &ord.CreatedAt, &ord.CustomerEmail, &ord.ProductIDs); err != nil {
			return nil, err
		}
		out = append(out, ord)
	}
	return out, rows.Err()
}

func (s *Store) Summary(ctx context.Context) (crm.Summary, error) {
	var sum crm.Summary
	err := s.DB.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM customers),
		       (SELECT COUNT(*) FROM orders),
		       COALESCE((SELECT SUM(total_cents) FROM orders), 0)
	`).Scan(&sum.Customers, &sum.Orders, &sum.RevenueCents)
	return sum, err
}

// where accumulates AND-ed conditions; each condition template gets the
// 1-based positional index of its argument.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(tmpl string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(tmpl, len(w.args)))
}

func (w *where) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return ` WHERE ` + strings.Join(w.conds, ` AND `)
}
