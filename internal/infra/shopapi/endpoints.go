package shopapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/chiru781/cursior/internal/domain"
)

// Auth and users.

func (c *Client) RegisterUser(ctx context.Context, user map[string]any) domain.APIResponse {
	return c.post(ctx, "/auth/register", user)
}

func (c *Client) Login(ctx context.Context, email, password string) domain.APIResponse {
	return c.post(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) User(ctx context.Context, userID string) domain.APIResponse {
	return c.get(ctx, "/users/"+url.PathEscape(userID), nil)
}

func (c *Client) UpdateUser(ctx context.Context, userID string, data map[string]any) domain.APIResponse {
	return c.put(ctx, "/users/"+url.PathEscape(userID), data)
}

// Products.

func (c *Client) Products(ctx context.Context, filters map[string]string) domain.APIResponse {
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	return c.get(ctx, "/products", q)
}

func (c *Client) Product(ctx context.Context, productID string) domain.APIResponse {
	return c.get(ctx, "/products/"+url.PathEscape(productID), nil)
}

func (c *Client) SearchProducts(ctx context.Context, query string) domain.APIResponse {
	return c.get(ctx, "/products/search", url.Values{"q": {query}})
}

func (c *Client) CreateProduct(ctx context.Context, product map[string]any) domain.APIResponse {
	return c.post(ctx, "/products", product)
}

func (c *Client) UpdateProduct(ctx context.Context, productID string, product map[string]any) domain.APIResponse {
	return c.put(ctx, "/products/"+url.PathEscape(productID), product)
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) domain.APIResponse {
	return c.remove(ctx, "/products/"+url.PathEscape(productID))
}

// PurchaseProduct completes a purchase in one call. Steps use it to play
// a concurrent shopper.
func (c *Client) PurchaseProduct(ctx context.Context, purchase map[string]any) domain.APIResponse {
	return c.post(ctx, "/products/purchase", purchase)
}

// Cart.

func cartPath(userID string) string {
	return "/users/" + url.PathEscape(userID) + "/cart"
}

func (c *Client) Cart(ctx context.Context, userID string) domain.APIResponse {
	return c.get(ctx, cartPath(userID), nil)
}

func (c *Client) AddToCart(ctx context.Context, userID, productID string, quantity int) domain.APIResponse {
	if quantity <= 0 {
		quantity = 1
	}
	return c.post(ctx, cartPath(userID), map[string]any{"product_id": productID, "quantity": quantity})
}

func (c *Client) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) domain.APIResponse {
	return c.put(ctx, cartPath(userID)+"/"+url.PathEscape(itemID), map[string]any{"quantity": quantity})
}

func (c *Client) RemoveFromCart(ctx context.Context, userID, itemID string) domain.APIResponse {
	return c.remove(ctx, cartPath(userID)+"/"+url.PathEscape(itemID))
}

func (c *Client) ClearCart(ctx context.Context, userID string) domain.APIResponse {
	return c.remove(ctx, cartPath(userID))
}

// Orders.

func (c *Client) CreateOrder(ctx context.Context, order map[string]any) domain.APIResponse {
	return c.post(ctx, "/orders", order)
}

func (c *Client) OrderDetails(ctx context.Context, orderID string) domain.APIResponse {
	return c.get(ctx, "/orders/"+url.PathEscape(orderID), nil)
}

func (c *Client) UserOrders(ctx context.Context, userID string) domain.APIResponse {
	return c.get(ctx, "/users/"+url.PathEscape(userID)+"/orders", nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) domain.APIResponse {
	return c.patch(ctx, "/orders/"+url.PathEscape(orderID), map[string]string{"status": status})
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) domain.APIResponse {
	return c.patch(ctx, "/orders/"+url.PathEscape(orderID)+"/cancel", nil)
}

// Payments.

func (c *Client) ProcessPayment(ctx context.Context, payment map[string]any) domain.APIResponse {
	return c.post(ctx, "/payments", payment)
}

func (c *Client) Payment(ctx context.Context, paymentID string) domain.APIResponse {
	return c.get(ctx, "/payments/"+url.PathEscape(paymentID), nil)
}

// RefundPayment refunds amount, or the whole payment when amount is 0.
func (c *Client) RefundPayment(ctx context.Context, paymentID string, amount float64) domain.APIResponse {
	body := map[string]any{}
	if amount > 0 {
		body["amount"] = amount
	}
	return c.post(ctx, "/payments/"+url.PathEscape(paymentID)+"/refund", body)
}

// Admin.

func (c *Client) AdminStats(ctx context.Context) domain.APIResponse {
	return c.get(ctx, "/admin/stats", nil)
}

func (c *Client) AdminUsers(ctx context.Context, page, limit int) domain.APIResponse {
	return c.get(ctx, "/admin/users", pageQuery(page, limit))
}

func (c *Client) AdminOrders(ctx context.Context, page, limit int) domain.APIResponse {
	return c.get(ctx, "/admin/orders", pageQuery(page, limit))
}

func pageQuery(page, limit int) url.Values {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
}

func (c *Client) Health(ctx context.Context) domain.APIResponse {
	return c.get(ctx, "/health", nil)
}
