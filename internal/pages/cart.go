package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

var (
	cartItem         = domain.Class("cart-item")
	cartItemName     = domain.Class("item-name")
	cartItemPrice    = domain.Class("item-price")
	cartItemQuantity = domain.Class("item-quantity")
	cartItemTotal    = domain.Class("item-total")
	cartQtyInput     = domain.Name("quantity")
	cartUpdate       = domain.Class("update-quantity")
	cartRemove       = domain.Class("remove-item")
	cartSubtotal     = domain.Class("cart-subtotal")
	cartTax          = domain.Class("cart-tax")
	cartShipping     = domain.Class("cart-shipping")
	cartTotal        = domain.Class("cart-total")
	cartCheckout     = domain.ID("proceedToCheckout")
	cartCheckoutAlt  = domain.XPath(`//button[contains(text(), 'Checkout')]`)
	cartContinue     = domain.ID("continueShopping")
	cartClear        = domain.ID("clearCart")
	cartEmpty        = domain.Class("empty-cart-message")
)

type Cart struct {
	Base
}

func NewCart(base Base) *Cart { return &Cart{Base: base} }

func (p *Cart) Open(ctx context.Context) error {
	return p.Base.Open(ctx, "/cart")
}

func (p *Cart) IsLoaded(ctx context.Context) bool {
	return p.URLContains(ctx, "cart")
}

func (p *Cart) IsEmpty(ctx context.Context) bool {
	if p.Visible(ctx, cartEmpty) {
		return true
	}
	n, err := p.b.Count(ctx, cartItem)
	return err == nil && n == 0
}

func (p *Cart) itemCount(ctx context.Context) int {
	n, err := p.b.Count(ctx, cartItem)
	if err != nil {
		return 0
	}
	return n
}

// Items reads every cart line. A quantity without digits counts as 1.
func (p *Cart) Items(ctx context.Context) ([]domain.CartItem, error) {
	const op = "pages.cart.items"
	n := p.itemCount(ctx)
	items := make([]domain.CartItem, 0, n)
	for i := 0; i < n; i++ {
		it := domain.CartItem{Index: i, Quantity: 1}
		for _, f := range []struct {
			loc domain.Locator
			dst *string
		}{
			{cartItemName, &it.Name},
			{cartItemPrice, &it.Price},
			{cartItemTotal, &it.Total},
		} {
			loc, err := child(op, cartItem, i, f.loc)
			if err != nil {
				return nil, err
			}
			*f.dst = p.TextOr(ctx, loc, "")
		}
		qloc, err := child(op, cartItem, i, cartItemQuantity)
		if err != nil {
			return nil, err
		}
		if q, err := strconv.Atoi(digitsRe.FindString(p.TextOr(ctx, qloc, ""))); err == nil {
			it.Quantity = q
		}
		items = append(items, it)
	}
	return items, nil
}

// find returns the index of the first line whose name contains name,
// ignoring case.
func (p *Cart) find(ctx context.Context, op, name string) (int, error) {
	items, err := p.Items(ctx)
	if err != nil {
		return 0, err
	}
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), strings.ToLower(name)) {
			return it.Index, nil
		}
	}
	return 0, &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: name, Err: fmt.Errorf("item %q not in cart", name)}
}

func (p *Cart) Subtotal(ctx context.Context) string {
	return p.TextOr(ctx, cartSubtotal, "")
}

func (p *Cart) Tax(ctx context.Context) string {
	return p.TextOr(ctx, cartTax, "$0.00")
}

func (p *Cart) Shipping(ctx context.Context) string {
	return p.TextOr(ctx, cartShipping, "$0.00")
}

func (p *Cart) Total(ctx context.Context) (string, error) {
	return p.Text(ctx, cartTotal)
}

// UpdateQuantity sets the quantity of the named line and confirms it with
// the update button, or Enter where the line has none.
func (p *Cart) UpdateQuantity(ctx context.Context, name string, qty int) error {
	const op = "pages.cart.update_quantity"
	i, err := p.find(ctx, op, name)
	if err != nil {
		return err
	}
	input, err := child(op, cartItem, i, cartQtyInput)
	if err != nil {
		return err
	}
	p.log.Info("cart.update_quantity", "item", name, "quantity", qty)
	if err := p.Type(ctx, input, strconv.Itoa(qty)); err != nil {
		return err
	}
	update, err := child(op, cartItem, i, cartUpdate)
	if err != nil {
		return err
	}
	if p.Present(ctx, update) {
		err = p.Click(ctx, update)
	} else {
		err = p.PressEnter(ctx, input)
	}
	if err != nil {
		return err
	}
	p.WaitForPageLoad(ctx)
	return nil
}

func (p *Cart) Remove(ctx context.Context, name string) error {
	const op = "pages.cart.remove"
	i, err := p.find(ctx, op, name)
	if err != nil {
		return err
	}
	btn, err := child(op, cartItem, i, cartRemove)
	if err != nil {
		return err
	}
	p.log.Info("cart.remove", "item", name)
	if err := p.AcceptConfirm(ctx); err != nil {
		return err
	}
	if err := p.Click(ctx, btn); err != nil {
		return err
	}
	p.WaitForPageLoad(ctx)
	return nil
}

// Clear empties the cart with the clear button, or line by line.
func (p *Cart) Clear(ctx context.Context) error {
	if err := p.AcceptConfirm(ctx); err != nil {
		return err
	}
	if p.Present(ctx, cartClear) {
		if err := p.Click(ctx, cartClear); err != nil {
			return err
		}
		p.WaitForPageLoad(ctx)
		return nil
	}
	for n := p.itemCount(ctx); n > 0; n-- {
		btn, err := child("pages.cart.clear", cartItem, 0, cartRemove)
		if err != nil {
			return err
		}
		if err := p.Click(ctx, btn); err != nil {
			return err
		}
		p.WaitForPageLoad(ctx)
	}
	return nil
}

func (p *Cart) ProceedToCheckout(ctx context.Context) (*Checkout, error) {
	if err := p.ClickFirst(ctx, cartCheckout, cartCheckoutAlt); err != nil {
		return nil, err
	}
	p.WaitForPageLoad(ctx)
	return NewCheckout(p.Base), nil
}

func (p *Cart) ContinueShopping(ctx context.Context) (*Products, error) {
	if err := p.Click(ctx, cartContinue); err != nil {
		return nil, err
	}
	p.WaitForPageLoad(ctx)
	return NewProducts(p.Base), nil
}
