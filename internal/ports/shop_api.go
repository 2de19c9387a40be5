package ports

import (
	"context"
	"net/url"
	"time"

	"github.com/chiru781/cursior/internal/domain"
)

// ShopAPI is the REST surface of the shop under test used by steps.
// Responses never carry Go errors: transport failures come back as
// StatusCode 0 with Err set.
type ShopAPI interface {
	Do(ctx context.Context, method, endpoint string, body any, query url.Values) domain.APIResponse

	RegisterUser(ctx context.Context, user map[string]any) domain.APIResponse
	Login(ctx context.Context, email, password string) domain.APIResponse
	OrderDetails(ctx context.Context, orderID string) domain.APIResponse
	PurchaseProduct(ctx context.Context, purchase map[string]any) domain.APIResponse
	Health(ctx context.Context) domain.APIResponse
	WaitReady(ctx context.Context, attempts int, delay time.Duration) bool

	SetAuthToken(token string)
	ClearAuthToken()
}
