package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiru781/cursior/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, domain.DatabaseConfig{Type: "sqlite", Name: ":memory:"}, WithNow(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestDSN(t *testing.T) {
	driver, dsn, err := DSN(domain.DatabaseConfig{Type: "mysql", Host: "db", Port: 3306, Name: "shop", User: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Contains(t, dsn, "u:p@tcp(db:3306)/shop")
	assert.Contains(t, dsn, "parseTime=true")

	driver, dsn, err = DSN(domain.DatabaseConfig{Type: "postgresql", Host: "localhost", Port: 5432, Name: "shop", User: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "pgx", driver)
	assert.Equal(t, "postgresql://u:p@localhost:5432/shop", dsn)

	_, dsn, err = DSN(domain.DatabaseConfig{Type: "sqlite", Name: "ecommerce_test"})
	require.NoError(t, err)
	assert.Equal(t, "ecommerce_test.db", dsn)

	_, _, err = DSN(domain.DatabaseConfig{Type: "oracle", Name: "x"})
	assert.True(t, domain.IsKind(err, domain.KindUnsupported))
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateUser(ctx, domain.NewUser{Email: "jane@test.com", FirstName: "Jane", LastName: "Doe", Password: "Secret123!"})
	require.NoError(t, err)
	require.Positive(t, id)

	u, err := s.UserByEmail(ctx, "jane@test.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Jane", u.FirstName)
	assert.Equal(t, "active", u.Status)
	assert.Equal(t, HashPassword("Secret123!"), u.PasswordHash)
	assert.Empty(t, u.Phone)

	n, err := s.UpdateUser(ctx, id, map[string]any{"phone": "+1-555-0100", "password": "Other1!"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	u, err = s.UserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "+1-555-0100", u.Phone)
	assert.Equal(t, HashPassword("Other1!"), u.PasswordHash)

	_, err = s.UpdateUser(ctx, id, map[string]any{"is_admin": true})
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))

	n, err = s.DeleteUserByEmail(ctx, "jane@test.com")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	u, err = s.UserByEmail(ctx, "jane@test.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestCreateUserRequiresEmail(t *testing.T) {
	_, err := newStore(t).CreateUser(context.Background(), domain.NewUser{FirstName: "x"})
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
}

func TestLockoutInfo(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateUser(ctx, domain.NewUser{Email: "locked@test.com", Password: "x"})
	require.NoError(t, err)

	lo, err := s.LockoutInfo(ctx, "locked@test.com")
	require.NoError(t, err)
	assert.False(t, lo.Locked)

	_, err = s.UpdateUser(ctx, id, map[string]any{
		"failed_login_attempts": 5,
		"locked_until":          fixedNow.Add(14*time.Minute + 30*time.Second),
	})
	require.NoError(t, err)

	lo, err = s.LockoutInfo(ctx, "locked@test.com")
	require.NoError(t, err)
	assert.True(t, lo.Locked)
	assert.Equal(t, 5, lo.FailedAttempts)
	assert.Equal(t, 15, lo.Minutes)

	lo, err = s.LockoutInfo(ctx, "nobody@test.com")
	require.NoError(t, err)
	assert.False(t, lo.Locked)
}

func TestProductsAndOrders(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreateProduct(ctx, domain.Product{Name: "Laptop", Category: "Electronics", Price: 999.99, StockQuantity: 5})
	require.NoError(t, err)

	n, err := s.UpdateProductStock(ctx, "Laptop", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	p, err := s.ProductByName(ctx, "Laptop")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 0, p.StockQuantity)
	assert.InDelta(t, 999.99, p.Price, 0.001)

	_, err = s.UpdateProductStock(ctx, "Laptop", -1)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))

	_, err = s.CreateOrder(ctx, domain.Order{OrderID: "ORD12345", UserID: "1", TotalAmount: 1029.98})
	require.NoError(t, err)

	o, err := s.OrderByID(ctx, "ORD12345")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "pending", o.PaymentStatus)
	assert.WithinDuration(t, fixedNow, o.CreatedAt, time.Second)

	n, err = s.DeleteOrder(ctx, "ORD12345")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	o, err = s.OrderByID(ctx, "ORD12345")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestCleanupTestData(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, email := range []string{"a@test.com", "b@example.com", "real@shop.io"} {
		_, err := s.CreateUser(ctx, domain.NewUser{Email: email, Password: "x"})
		require.NoError(t, err)
	}
	_, err := s.CreateProduct(ctx, domain.Product{Name: "test widget", Price: 1, StockQuantity: 3})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, domain.Product{Name: "Keyboard", Price: 1, StockQuantity: 3})
	require.NoError(t, err)
	_, err = s.CreateOrder(ctx, domain.Order{OrderID: "NEW0001", TotalAmount: 1, CreatedAt: fixedNow.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.CreateOrder(ctx, domain.Order{OrderID: "OLD0001", TotalAmount: 1, CreatedAt: fixedNow.Add(-48 * time.Hour)})
	require.NoError(t, err)

	rep, err := s.CleanupTestData(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CleanupReport{Orders: 1, Users: 2, Products: 1}, rep)

	p, err := s.ProductByName(ctx, "test widget")
	require.NoError(t, err)
	assert.Equal(t, DefaultStock, p.StockQuantity)

	rows, err := s.Query(ctx, `SELECT email FROM users`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "real@shop.io", rows[0]["email"])
}
