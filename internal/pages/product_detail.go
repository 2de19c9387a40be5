package pages

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

var (
	detailTitle        = domain.Class("product-title")
	detailPrice        = domain.Class("product-price")
	detailDescription  = domain.Class("product-description")
	detailStockStatus  = domain.Class("stock-status")
	detailStockMessage = domain.Class("stock-message")
	detailQuantity     = domain.ID("quantity")
	detailQuantityAlt  = domain.Name("quantity")
	detailPlus         = domain.Class("quantity-plus")
	detailMinus        = domain.Class("quantity-minus")
	detailAddToCart    = domain.ID("addToCart")
	detailAddToCartAlt = domain.XPath(`//button[contains(text(), 'Add to Cart')]`)
	detailBuyNow       = domain.ID("buyNow")
	detailWishlist     = domain.ID("addToWishlist")
	detailReviewCount  = domain.Class("review-count")
	detailRating       = domain.Class("rating-stars")
	detailStarFilled   = domain.Class("star-filled")
	detailSpinner      = domain.Class("loading-spinner")
	detailError        = domain.Class("error-message")

	digitsRe = regexp.MustCompile(`\d+`)
)

type ProductDetail struct {
	Base
}

func NewProductDetail(base Base) *ProductDetail { return &ProductDetail{Base: base} }

// IsLoaded requires the title and a way to add the product to the cart.
func (p *ProductDetail) IsLoaded(ctx context.Context) bool {
	if !p.Visible(ctx, detailTitle) {
		return false
	}
	return p.Present(ctx, detailAddToCart) || p.Present(ctx, detailAddToCartAlt)
}

func (p *ProductDetail) Title(ctx context.Context) (string, error) {
	return p.Text(ctx, detailTitle)
}

func (p *ProductDetail) Price(ctx context.Context) (float64, error) {
	t, err := p.Text(ctx, detailPrice)
	if err != nil {
		return 0, err
	}
	v, _ := ParsePrice(t)
	return v, nil
}

func (p *ProductDetail) Description(ctx context.Context) string {
	return p.TextOr(ctx, detailDescription, "")
}

func (p *ProductDetail) StockStatus(ctx context.Context) string {
	return p.FirstText(ctx, "Unknown", detailStockStatus)
}

func (p *ProductDetail) StockMessage(ctx context.Context) string {
	return p.FirstText(ctx, "Stock information not available", detailStockMessage)
}

func (p *ProductDetail) InStock(ctx context.Context) bool {
	s := strings.ToLower(p.StockStatus(ctx))
	return strings.Contains(s, "in stock") || strings.Contains(s, "available")
}

func (p *ProductDetail) quantityInput(ctx context.Context) domain.Locator {
	if p.Present(ctx, detailQuantity) {
		return detailQuantity
	}
	return detailQuantityAlt
}

// Quantity reads the quantity input, defaulting to 1.
func (p *ProductDetail) Quantity(ctx context.Context) int {
	v, err := p.b.Attribute(ctx, p.quantityInput(ctx), "value")
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 1
	}
	return n
}

func (p *ProductDetail) SetQuantity(ctx context.Context, n int) error {
	return p.Type(ctx, p.quantityInput(ctx), strconv.Itoa(n))
}

func (p *ProductDetail) IncreaseQuantity(ctx context.Context) error {
	return p.Click(ctx, detailPlus)
}

func (p *ProductDetail) DecreaseQuantity(ctx context.Context) error {
	return p.Click(ctx, detailMinus)
}

// AddToCart clicks the add button and waits for the cart counter to move.
// A shop error shown instead ends the wait early; the caller asserts on it.
func (p *ProductDetail) AddToCart(ctx context.Context) error {
	before := p.CartCount(ctx)
	p.log.Info("product.add_to_cart", "cart_count", before)
	if err := p.ClickFirst(ctx, detailAddToCart, detailAddToCartAlt); err != nil {
		return err
	}
	p.WaitForSpinner(ctx, detailSpinner)
	updated := p.waitUntil(ctx, p.wait, func() bool {
		return p.CartCount(ctx) != before || p.Present(ctx, detailError)
	})
	if !updated {
		p.log.Warn("product.cart.unchanged", "cart_count", before)
	}
	return nil
}

func (p *ProductDetail) BuyNow(ctx context.Context) (*Checkout, error) {
	if err := p.Click(ctx, detailBuyNow); err != nil {
		return nil, err
	}
	p.WaitForPageLoad(ctx)
	return NewCheckout(p.Base), nil
}

func (p *ProductDetail) AddToWishlist(ctx context.Context) error {
	return p.Click(ctx, detailWishlist)
}

func (p *ProductDetail) ReviewCount(ctx context.Context) int {
	m := digitsRe.FindString(p.TextOr(ctx, detailReviewCount, ""))
	n, _ := strconv.Atoi(m)
	return n
}

// Rating prefers the data-rating attribute and otherwise counts filled stars.
func (p *ProductDetail) Rating(ctx context.Context) float64 {
	if !p.Present(ctx, detailRating) {
		return 0
	}
	if v, err := p.b.Attribute(ctx, detailRating, "data-rating"); err == nil && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	stars, err := child("pages.product_detail.rating", detailRating, 0, detailStarFilled)
	if err != nil {
		return 0
	}
	n, _ := p.b.Count(ctx, stars)
	return float64(n)
}
