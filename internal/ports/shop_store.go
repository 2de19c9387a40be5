package ports

import (
	"context"

	"github.com/chiru781/cursior/internal/domain"
)

// ShopStore reads and seeds the database of the shop under test.
type ShopStore interface {
	CreateUser(ctx context.Context, u domain.NewUser) (int64, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, fields map[string]any) (int64, error)
	DeleteUser(ctx context.Context, id int64) (int64, error)
	DeleteUserByEmail(ctx context.Context, email string) (int64, error)
	LockoutInfo(ctx context.Context, email string) (domain.Lockout, error)

	CreateProduct(ctx context.Context, p domain.Product) (int64, error)
	ProductByName(ctx context.Context, name string) (*domain.Product, error)
	UpdateProductStock(ctx context.Context, name string, stock int) (int64, error)

	CreateOrder(ctx context.Context, o domain.Order) (int64, error)
	OrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) (int64, error)

	CleanupTestData(ctx context.Context) (domain.CleanupReport, error)
	Close() error
}
