package pages

import (
	"context"
	"fmt"
	"regexp"

	"github.com/chiru781/cursior/internal/domain"
)

var (
	checkoutShipping = map[string]domain.Locator{
		"address": domain.ID("address"),
		"city":    domain.ID("city"),
		"state":   domain.ID("state"),
		"zip":     domain.ID("zip"),
		"country": domain.ID("country"),
	}
	checkoutPayment = map[string]domain.Locator{
		"card_number": domain.ID("cardNumber"),
		"expiry":      domain.ID("expiry"),
		"cvv":         domain.ID("cvv"),
		"name":        domain.ID("cardholderName"),
	}
	checkoutMethod = domain.ID("paymentMethod")
	checkoutPlace  = domain.ID("placeOrder")
	checkoutError  = domain.Class("error-message")

	confirmationOrderID = domain.Class("order-id")
	confirmationMessage = domain.Class("confirmation-message")
	confirmationDetails = domain.Class("order-details")

	orderIDRe = regexp.MustCompile(`[A-Z0-9]{6,}`)
)

type Checkout struct {
	Base
}

func NewCheckout(base Base) *Checkout { return &Checkout{Base: base} }

func (p *Checkout) IsLoaded(ctx context.Context) bool {
	return p.Visible(ctx, checkoutPlace) || p.URLContains(ctx, "checkout")
}

// EnterShipping types value into a shipping field. Select-backed fields such
// as country fall back to choosing the option.
func (p *Checkout) EnterShipping(ctx context.Context, field, value string) error {
	return p.enter(ctx, "pages.checkout.enter_shipping", checkoutShipping, field, value)
}

func (p *Checkout) EnterPayment(ctx context.Context, field, value string) error {
	return p.enter(ctx, "pages.checkout.enter_payment", checkoutPayment, field, value)
}

func (p *Checkout) enter(ctx context.Context, op string, fields map[string]domain.Locator, field, value string) error {
	loc, ok := fields[normalizeField(field)]
	if !ok {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: field, Err: fmt.Errorf("unknown field %q", field)}
	}
	if err := p.Type(ctx, loc, value); err != nil {
		if serr := p.Select(ctx, loc, value); serr == nil {
			return nil
		}
		return err
	}
	return nil
}

func (p *Checkout) SelectPaymentMethod(ctx context.Context, method string) error {
	p.log.Info("checkout.payment_method", "method", method)
	return p.Select(ctx, checkoutMethod, method)
}

func (p *Checkout) PlaceOrder(ctx context.Context) (*OrderConfirmation, error) {
	p.log.Info("checkout.place_order")
	if err := p.Click(ctx, checkoutPlace); err != nil {
		return nil, err
	}
	p.WaitForPageLoad(ctx)
	return NewOrderConfirmation(p.Base), nil
}

func (p *Checkout) ErrorMessage(ctx context.Context) string {
	return p.FirstText(ctx, "No error message found", checkoutError)
}

type OrderConfirmation struct {
	Base
}

func NewOrderConfirmation(base Base) *OrderConfirmation { return &OrderConfirmation{Base: base} }

func (p *OrderConfirmation) IsDisplayed(ctx context.Context) bool {
	return p.WaitVisible(ctx, confirmationMessage, LongWait) == nil ||
		p.Visible(ctx, confirmationOrderID)
}

func (p *OrderConfirmation) Message(ctx context.Context) string {
	return p.TextOr(ctx, confirmationMessage, "")
}

func (p *OrderConfirmation) Details(ctx context.Context) string {
	return p.TextOr(ctx, confirmationDetails, "")
}

// OrderID extracts the order number from the order id element.
func (p *OrderConfirmation) OrderID(ctx context.Context) (string, bool) {
	t := p.FirstText(ctx, "", confirmationOrderID)
	id := orderIDRe.FindString(t)
	return id, id != ""
}
