package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

const productColumns = `id, name, COALESCE(description, '') AS description, COALESCE(category, '') AS category,
	COALESCE(brand, '') AS brand, price, COALESCE(stock_quantity, 0) AS stock_quantity`

const orderColumns = `id, order_id, user_id, COALESCE(status, '') AS status,
	COALESCE(payment_status, '') AS payment_status, total_amount, created_at`

func (s *Store) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	if strings.TrimSpace(p.Name) == "" {
		return 0, &domain.OpError{Op: "sqlstore.create_product", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("name is required")}
	}
	id, err := s.insert(ctx, "sqlstore.create_product",
		`INSERT INTO products (name, description, category, brand, price, stock_quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Category, p.Brand, p.Price, p.StockQuantity, s.now().UTC())
	if err != nil {
		return 0, err
	}
	s.log.Info("product created", "id", id, "name", p.Name)
	return id, nil
}

func (s *Store) ProductByName(ctx context.Context, name string) (*domain.Product, error) {
	var p domain.Product
	ok, err := s.get(ctx, "sqlstore.product_by_name", &p, `SELECT `+productColumns+` FROM products WHERE name = ?`, name)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProductStock(ctx context.Context, name string, stock int) (int64, error) {
	if stock < 0 {
		return 0, &domain.OpError{Op: "sqlstore.update_stock", Kind: domain.KindInvalidConfig, Path: name, Err: fmt.Errorf("stock must not be negative")}
	}
	return s.Exec(ctx, `UPDATE products SET stock_quantity = ? WHERE name = ?`, stock, name)
}

func (s *Store) CreateOrder(ctx context.Context, o domain.Order) (int64, error) {
	if strings.TrimSpace(o.OrderID) == "" {
		return 0, &domain.OpError{Op: "sqlstore.create_order", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("order_id is required")}
	}
	status := o.Status
	if status == "" {
		status = "pending"
	}
	payment := o.PaymentStatus
	if payment == "" {
		payment = "pending"
	}
	created := o.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	id, err := s.insert(ctx, "sqlstore.create_order",
		`INSERT INTO orders (order_id, user_id, status, payment_status, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.UserID, status, payment, o.TotalAmount, created.UTC())
	if err != nil {
		return 0, err
	}
	s.log.Info("order created", "id", id, "order_id", o.OrderID)
	return id, nil
}

func (s *Store) OrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	ok, err := s.get(ctx, "sqlstore.order_by_id", &o, `SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, orderID)
	if err != nil || !ok {
		return nil, err
	}
	return &o, nil
}

func (s *Store) DeleteOrder(ctx context.Context, orderID string) (int64, error) {
	return s.Exec(ctx, `DELETE FROM orders WHERE order_id = ?`, orderID)
}
