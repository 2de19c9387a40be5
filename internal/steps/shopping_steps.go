package steps

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/pages"
)

const defaultStockProduct = "Limited Edition Watch"

func shoppingSteps(r *Registrar, w *World) {
	r.Step(`^I am logged into the application$`, w.loggedIn)
	r.Step(`^I am on the products page$`, w.onProductsPage)
	r.Step(`^I search for "([^"]*)"$`, w.searchFor)
	r.Step(`^I select the first product from search results$`, w.selectFirstProduct)
	r.Step(`^I add the product to cart$`, w.addProductToCart)
	r.Step(`^I proceed to checkout$`, w.proceedToCheckout)
	r.Step(`^I enter shipping information$`, w.enterShipping)
	r.Step(`^I select payment method "([^"]*)"$`, w.selectPaymentMethod)
	r.Step(`^I enter payment details$`, w.enterPayment)
	r.Step(`^I place the order$`, w.placeOrder)
	r.Step(`^I should see order confirmation$`, w.seeOrderConfirmation)
	r.Step(`^I should receive order confirmation email$`, w.receiveOrderEmail)
	r.Step(`^the order should be saved in database$`, w.orderInDatabase)

	r.Step(`^I have products in my cart$`, w.productsInCart)
	r.Step(`^I update (\w+) quantity to (\d+)$`, w.updateQuantity)
	r.Step(`^I remove (\w+) from cart$`, w.removeFromCart)
	r.Step(`^cart total should be updated to "([^"]*)"$`, w.cartTotalIs)
	r.Step(`^cart should contain only (\w+)$`, w.cartContainsOnly)

	r.Step(`^I apply filters$`, w.applyFilters)
	r.Step(`^I sort by "([^"]*)"$`, w.sortBy)
	r.Step(`^I should see only filtered products$`, w.onlyFilteredProducts)
	r.Step(`^products should be sorted by price ascending$`, w.sortedByPriceAscending)
	r.Step(`^filter count should be displayed$`, w.filterCountDisplayed)

	r.Step(`^I have items in cart$`, w.itemsInCart)
	r.Step(`^product "([^"]*)" has (\d+) items? in stock$`, w.productStock)
	r.Step(`^another user purchases (\d+) items?$`, w.anotherUserPurchases)
	r.Step(`^I refresh the product page$`, w.refreshProduct)
	r.Step(`^I should see "([^"]*)" items? left in stock$`, w.seeStockLeft)
	r.Step(`^another user purchases the last item$`, w.anotherUserPurchasesLast)
	r.Step(`^I should see "Item out of stock" error$`, w.seeOutOfStock)
}

func (w *World) loggedIn(ctx context.Context) error {
	d, err := w.dashboardPage(ctx)
	if err != nil {
		return err
	}
	if d.IsLoggedIn(ctx) {
		return nil
	}
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	if err := p.Open(ctx); err != nil {
		return err
	}
	u := w.deps.Config.TestUser("valid")
	if err := p.Login(ctx, u.Email, u.Password, false); err != nil {
		return err
	}
	if !w.waitForURL(ctx, "dashboard") && !d.IsLoggedIn(ctx) {
		return failf("steps.shopping.login", "login as %s did not reach the dashboard", u.Email)
	}
	return nil
}

func (w *World) onProductsPage(ctx context.Context) error {
	p, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	if err := p.Open(ctx); err != nil {
		return err
	}
	if !p.IsLoaded(ctx) {
		return failf("steps.products.open", "products page did not load")
	}
	return nil
}

func (w *World) searchFor(ctx context.Context, term string) error {
	p, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	term, err = w.resolve(term)
	if err != nil {
		return err
	}
	return p.Search(ctx, term)
}

func (w *World) selectFirstProduct(ctx context.Context) error {
	p, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	detail, err := p.OpenFirst(ctx)
	if err != nil {
		return err
	}
	if !detail.IsLoaded(ctx) {
		return failf("steps.products.select", "product detail page did not load")
	}
	w.detail = detail
	return nil
}

func (w *World) addProductToCart(ctx context.Context) error {
	p, err := w.detailPage(ctx)
	if err != nil {
		return err
	}
	return p.AddToCart(ctx)
}

func (w *World) proceedToCheckout(ctx context.Context) error {
	cart, err := w.cartPage(ctx)
	if err != nil {
		return err
	}
	if err := cart.Open(ctx); err != nil {
		return err
	}
	co, err := cart.ProceedToCheckout(ctx)
	if err != nil {
		return err
	}
	w.checkout = co
	w.last = pageCheckout
	if !co.IsLoaded(ctx) {
		return failf("steps.checkout.open", "checkout page did not load")
	}
	return nil
}

func (w *World) enterShipping(ctx context.Context, table *godog.Table) error {
	co, err := w.checkoutPage(ctx)
	if err != nil {
		return err
	}
	rows, err := w.resolvePairs(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := co.EnterShipping(ctx, row.Key, row.Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) selectPaymentMethod(ctx context.Context, method string) error {
	co, err := w.checkoutPage(ctx)
	if err != nil {
		return err
	}
	return co.SelectPaymentMethod(ctx, method)
}

// enterPayment keeps an "email" row for the confirmation mail check instead
// of typing it into the card form.
func (w *World) enterPayment(ctx context.Context, table *godog.Table) error {
	co, err := w.checkoutPage(ctx)
	if err != nil {
		return err
	}
	rows, err := w.resolvePairs(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		key := strings.ToLower(row.Key)
		w.paymentData[key] = row.Value
		if key == "email" {
			continue
		}
		if err := co.EnterPayment(ctx, row.Key, row.Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) placeOrder(ctx context.Context) error {
	co, err := w.checkoutPage(ctx)
	if err != nil {
		return err
	}
	w.last = pageCheckout
	conf, err := co.PlaceOrder(ctx)
	if err != nil {
		return err
	}
	w.confirmation = conf
	return nil
}

func (w *World) seeOrderConfirmation(ctx context.Context) error {
	const op = "steps.checkout.confirmation"
	if w.confirmation == nil {
		return failf(op, "no order was placed in this scenario")
	}
	if !w.confirmation.IsDisplayed(ctx) {
		return failf(op, "order confirmation is not displayed")
	}
	id, ok := w.confirmation.OrderID(ctx)
	if !ok {
		return failf(op, "no order id on the confirmation page")
	}
	w.orderID = id
	w.log.Info("order.placed", "order_id", id)
	return nil
}

func (w *World) receiveOrderEmail(ctx context.Context) error {
	email := w.paymentData["email"]
	if email == "" {
		email = w.deps.Config.TestUser("valid").Email
	}
	return w.waitForEmail(ctx, "steps.checkout.email", email, "Order Confirmation")
}

func (w *World) orderInDatabase(ctx context.Context) error {
	const op = "steps.checkout.db_order"
	st, err := w.store(op)
	if err != nil {
		return err
	}
	if w.orderID == "" {
		return failf(op, "no order id recorded in this scenario")
	}
	o, err := st.OrderByID(ctx, w.orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return failf(op, "order %s not found in database", w.orderID)
	}
	w.trackOrder(w.orderID)
	if o.Status != "pending" && o.Status != "processing" {
		return failf(op, "expected order status pending or processing, got %q", o.Status)
	}
	return nil
}

// productsInCart empties the cart and adds each product|quantity row
// through search.
func (w *World) productsInCart(ctx context.Context, table *godog.Table) error {
	cart, err := w.cartPage(ctx)
	if err != nil {
		return err
	}
	if err := cart.Open(ctx); err != nil {
		return err
	}
	if !cart.IsEmpty(ctx) {
		if err := cart.Clear(ctx); err != nil {
			return err
		}
	}
	products, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	recs, err := w.resolveRecords(table)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		name := rec["product"]
		qty := 1
		if q := rec["quantity"]; q != "" {
			if qty, err = strconv.Atoi(q); err != nil {
				return fmt.Errorf("quantity %q for %s: %w", q, name, err)
			}
		}
		if err := products.Open(ctx); err != nil {
			return err
		}
		if err := products.Search(ctx, name); err != nil {
			return err
		}
		detail, err := products.OpenFirst(ctx)
		if err != nil {
			return err
		}
		if err := detail.SetQuantity(ctx, qty); err != nil {
			return err
		}
		if err := detail.AddToCart(ctx); err != nil {
			return err
		}
		w.log.Info("cart.added", "product", name, "quantity", qty)
	}
	return cart.Open(ctx)
}

func (w *World) updateQuantity(ctx context.Context, item string, qty int) error {
	cart, err := w.cartPage(ctx)
	if err != nil {
		return err
	}
	return cart.UpdateQuantity(ctx, item, qty)
}

func (w *World) removeFromCart(ctx context.Context, item string) error {
	cart, err := w.cartPage(ctx)
	if err != nil {
		return err
	}
	return cart.Remove(ctx, item)
}

func (w *World) cartTotalIs(ctx context.Context, want string) error {
	cart, err := w.cartPage(ctx)
	if err != nil {
		return err
	}
	got, err := cart.Total(ctx)
	if err != nil {
		return err
	}
	return expectEqual("steps.cart.total", "cart total", strings.TrimSpace(got), want)
}

func (w *World) cartContainsOnly(ctx context.Context, item string) error {
	const op = "steps.cart.only"
	cart, err := w.cartPage(ctx)
	if err != nil {
		return err
	}
	items, err := cart.Items(ctx)
	if err != nil {
		return err
	}
	if len(items) != 1 {
		return failf(op, "expected 1 item in cart, got %d", len(items))
	}
	return expectContains(op, "cart item", items[0].Name, item)
}

func (w *World) applyFilters(ctx context.Context, table *godog.Table) error {
	p, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	rows, err := w.resolvePairs(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := p.ApplyFilter(ctx, row.Key, row.Value); err != nil {
			return err
		}
		w.filters[strings.ToLower(row.Key)] = row.Value
	}
	return nil
}

func (w *World) sortBy(ctx context.Context, option string) error {
	p, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	return p.Sort(ctx, option)
}

// priceRange parses "min-max".
func priceRange(s string) (lo, hi float64, err error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("price range %q is not min-max", s)
	}
	if lo, err = strconv.ParseFloat(strings.TrimSpace(a), 64); err != nil {
		return 0, 0, fmt.Errorf("price range %q: %w", s, err)
	}
	if hi, err = strconv.ParseFloat(strings.TrimSpace(b), 64); err != nil {
		return 0, 0, fmt.Errorf("price range %q: %w", s, err)
	}
	return lo, hi, nil
}

func (w *World) onlyFilteredProducts(ctx context.Context) error {
	const op = "steps.products.filtered"
	p, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	cards, err := p.Displayed(ctx)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return failf(op, "no products displayed")
	}
	var lo, hi float64
	rng, hasRange := w.filters["price_range"]
	if hasRange {
		if lo, hi, err = priceRange(rng); err != nil {
			return err
		}
	}
	for _, c := range cards {
		if want, ok := w.filters["category"]; ok && !strings.EqualFold(c.Category, want) {
			return failf(op, "product %q has category %q, want %q", c.Title, c.Category, want)
		}
		if want, ok := w.filters["brand"]; ok && !strings.EqualFold(c.Brand, want) {
			return failf(op, "product %q has brand %q, want %q", c.Title, c.Brand, want)
		}
		if hasRange && (c.Price < lo || c.Price > hi) {
			return failf(op, "product %q costs %.2f, outside %s", c.Title, c.Price, rng)
		}
	}
	return nil
}

func (w *World) sortedByPriceAscending(ctx context.Context) error {
	p, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	prices, err := p.Prices(ctx)
	if err != nil {
		return err
	}
	if !sort.Float64sAreSorted(prices) {
		return failf("steps.products.sorted", "prices are not ascending: %v", prices)
	}
	return nil
}

func (w *World) filterCountDisplayed(ctx context.Context) error {
	const op = "steps.products.filter_count"
	p, err := w.productsPage(ctx)
	if err != nil {
		return err
	}
	if !p.FilterCountVisible(ctx) {
		return failf(op, "filter count is not displayed")
	}
	text := p.FilterCount(ctx)
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil || n <= 0 {
		return failf(op, "expected a positive filter count, got %q", text)
	}
	return nil
}

// itemsInCart leaves a cart that already holds something untouched and
// otherwise adds the first listed product.
func (w *World) itemsInCart(ctx context.Context) error {
	cart, err := w.cartPage(ctx)
	if err != nil {
		return err
	}
	if err := cart.Open(ctx); err != nil {
		return err
	}
	if !cart.IsEmpty(ctx) {
		w.log.Info("cart.already_filled")
		return nil
	}
	if err := w.onProductsPage(ctx); err != nil {
		return err
	}
	if err := w.selectFirstProduct(ctx); err != nil {
		return err
	}
	if err := w.addProductToCart(ctx); err != nil {
		return err
	}
	if err := cart.Open(ctx); err != nil {
		return err
	}
	if cart.IsEmpty(ctx) {
		return failf("steps.cart.fill", "cart is still empty after adding a product")
	}
	return nil
}

func (w *World) productStock(ctx context.Context, name string, stock int) error {
	st, err := w.store("steps.stock.set")
	if err != nil {
		return err
	}
	name, err = w.resolve(name)
	if err != nil {
		return err
	}
	if _, err := st.UpdateProductStock(ctx, name, stock); err != nil {
		return err
	}
	w.product = name
	return nil
}

func (w *World) purchase(ctx context.Context, qty int) error {
	const op = "steps.stock.purchase"
	api, err := w.api(op)
	if err != nil {
		return err
	}
	product := w.product
	if product == "" {
		product = defaultStockProduct
	}
	body, err := w.payload(map[string]any{
		"product_name": product,
		"quantity":     qty,
		"user_id":      "{{purchase_user_id}}",
	}, domain.Vars{"purchase_user_id": "test_user_2"})
	if err != nil {
		return err
	}
	resp := api.PurchaseProduct(ctx, body)
	w.apiResp = &resp
	if resp.Err != nil {
		return resp.Err
	}
	if resp.StatusCode != 200 {
		return failf(op, "purchase of %d %s returned %d", qty, product, resp.StatusCode)
	}
	return nil
}

func (w *World) anotherUserPurchases(ctx context.Context, qty int) error {
	return w.purchase(ctx, qty)
}

func (w *World) anotherUserPurchasesLast(ctx context.Context) error {
	return w.purchase(ctx, 1)
}

func (w *World) refreshProduct(ctx context.Context) error {
	b, err := w.base(ctx)
	if err != nil {
		return err
	}
	if err := b.Refresh(ctx); err != nil {
		return err
	}
	w.detail = pages.NewProductDetail(b)
	return nil
}

func (w *World) seeStockLeft(ctx context.Context, want string) error {
	p, err := w.detailPage(ctx)
	if err != nil {
		return err
	}
	return expectContains("steps.stock.left", "stock message", p.StockMessage(ctx), want)
}

// seeOutOfStock looks at checkout when it was used, else at the product
// page.
func (w *World) seeOutOfStock(ctx context.Context) error {
	const op = "steps.stock.out"
	if w.last == pageCheckout {
		co, err := w.checkoutPage(ctx)
		if err != nil {
			return err
		}
		return expectContains(op, "checkout error", co.ErrorMessage(ctx), "out of stock")
	}
	p, err := w.detailPage(ctx)
	if err != nil {
		return err
	}
	return expectContains(op, "stock message", p.StockMessage(ctx), "out of stock")
}
