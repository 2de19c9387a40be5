package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/chiru781/cursior/internal/domain"
)

// DefaultStock is what cleanup resets test products to.
const DefaultStock = 100

// CleanupTestData removes orders placed during the last day and users with
// test or example addresses, then restocks test products.
func (s *Store) CleanupTestData(ctx context.Context) (domain.CleanupReport, error) {
	var rep domain.CleanupReport
	var err error

	cutoff := s.now().Add(-24 * time.Hour).UTC()
	if rep.Orders, err = s.Exec(ctx, `DELETE FROM orders WHERE created_at > ?`, cutoff); err != nil {
		return rep, err
	}
	if rep.Users, err = s.Exec(ctx, `DELETE FROM users WHERE email LIKE ? OR email LIKE ?`, "%test%", "%example%"); err != nil {
		return rep, err
	}
	if rep.Products, err = s.Exec(ctx, `UPDATE products SET stock_quantity = ? WHERE name LIKE ?`, DefaultStock, "%test%"); err != nil {
		return rep, err
	}

	s.log.Info("test data cleaned up", "orders", rep.Orders, "users", rep.Users, "products", rep.Products)
	return rep, nil
}

// Migrate creates the users, products and orders tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	ts := "DATETIME"
	switch s.driver {
	case driverPostgres:
		id, ts = "SERIAL PRIMARY KEY", "TIMESTAMP"
	case driverMySQL:
		id = "INT AUTO_INCREMENT PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id {{id}},
			email VARCHAR(255) NOT NULL UNIQUE,
			first_name VARCHAR(100),
			last_name VARCHAR(100),
			phone VARCHAR(50),
			password_hash VARCHAR(255),
			status VARCHAR(20),
			failed_login_attempts INT DEFAULT 0,
			locked_until {{ts}} NULL,
			created_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id {{id}},
			name VARCHAR(255) NOT NULL,
			description TEXT,
			category VARCHAR(100),
			brand VARCHAR(100),
			price DECIMAL(10,2) NOT NULL,
			stock_quantity INT DEFAULT 0,
			created_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id {{id}},
			order_id VARCHAR(64) NOT NULL UNIQUE,
			user_id VARCHAR(64),
			status VARCHAR(20),
			payment_status VARCHAR(20),
			total_amount DECIMAL(10,2) NOT NULL,
			created_at {{ts}} NOT NULL
		)`,
	}

	r := strings.NewReplacer("{{id}}", id, "{{ts}}", ts)
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return s.fail("sqlstore.migrate", err)
		}
	}
	return nil
}
