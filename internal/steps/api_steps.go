package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/shopapi"
	ucassert "github.com/chiru781/cursior/internal/usecase/assert"
	ucextract "github.com/chiru781/cursior/internal/usecase/extract"
)

func apiSteps(r *Registrar, w *World) {
	r.Step(`^I am authenticated through API$`, w.authenticateThroughAPI)
	r.Step(`^I have placed an order with order ID "([^"]*)"$`, w.seedOrder)
	r.Step(`^I fetch order details through API$`, w.fetchOrder)
	r.Step(`^the API should return correct order information$`, w.orderInformation)
	r.Step(`^order status should be "([^"]*)"$`, w.orderStatus)
	r.Step(`^payment status should be "([^"]*)"$`, w.paymentStatus)

	r.Step(`^the API response status should be (\d+)$`, w.responseStatus)
	r.Step(`^the API response should contain fields "([^"]*)"$`, w.responseFields)
	r.Step(`^I save the API response field "([^"]*)" as "([^"]*)"$`, w.saveResponseField)
}

func (w *World) seedOrder(ctx context.Context, id string) error {
	st, err := w.store("steps.orders.seed")
	if err != nil {
		return err
	}
	id, err = w.resolve(id)
	if err != nil {
		return err
	}
	if _, err := st.CreateOrder(ctx, domain.Order{
		OrderID:       id,
		UserID:        "test_user_1",
		Status:        "processing",
		PaymentStatus: "completed",
		TotalAmount:   99.99,
	}); err != nil {
		return err
	}
	w.orderID = id
	w.trackOrder(id)
	return nil
}

func (w *World) fetchOrder(ctx context.Context) error {
	const op = "steps.orders.fetch"
	api, err := w.api(op)
	if err != nil {
		return err
	}
	if w.orderID == "" {
		return failf(op, "no order id recorded in this scenario")
	}
	resp := api.OrderDetails(ctx, w.orderID)
	w.apiResp = &resp
	return resp.Err
}

func (w *World) response(op string) (domain.APIResponse, error) {
	if w.apiResp == nil {
		return domain.APIResponse{}, failf(op, "no API call was made in this scenario")
	}
	return *w.apiResp, nil
}

// orderFields are the keys every order document carries.
var orderFields = []string{"order_id", "status", "payment_status", "total_amount"}

func (w *World) orderInformation(context.Context) error {
	const op = "steps.orders.information"
	resp, err := w.response(op)
	if err != nil {
		return err
	}
	if err := shopapi.VerifySchema(resp, orderFields); err != nil {
		return err
	}
	got, _ := shopapi.Field(resp, "order_id")
	return expectEqual(op, "order_id", fmt.Sprint(got), w.orderID)
}

// authenticateThroughAPI logs the valid test user in and makes the API
// client send its token on every later call of the run, until the
// scenario ends.
func (w *World) authenticateThroughAPI(ctx context.Context) error {
	const op = "steps.api.login"
	api, err := w.api(op)
	if err != nil {
		return err
	}
	u := w.deps.Config.TestUser("valid")
	resp := api.Login(ctx, u.Email, u.Password)
	w.apiResp = &resp
	if resp.Err != nil {
		return resp.Err
	}
	if r := ucassert.Status(200, resp.StatusCode); !r.Passed {
		return failf(op, "login as %s: %s", u.Email, r.Message)
	}
	for _, key := range []string{"token", "access_token", "$.data.token"} {
		if tok, ok := shopapi.Field(resp, key); ok && tok != nil && fmt.Sprint(tok) != "" {
			api.SetAuthToken(fmt.Sprint(tok))
			w.apiAuthed = true
			return nil
		}
	}
	return failf(op, "login response for %s carries no token", u.Email)
}

func (w *World) responseField(op, expr, want string) error {
	resp, err := w.response(op)
	if err != nil {
		return err
	}
	results := ucassert.Evaluate(domain.ResponseExpectation{
		JSONPath: map[string]domain.JSONPathCheck{expr: {Eq: &want}},
	}, resp)
	return ucassert.Failures(results)
}

func (w *World) orderStatus(_ context.Context, want string) error {
	return w.responseField("steps.orders.status", "$.status", want)
}

func (w *World) paymentStatus(_ context.Context, want string) error {
	return w.responseField("steps.orders.payment_status", "$.payment_status", want)
}

func (w *World) responseStatus(_ context.Context, want int) error {
	const op = "steps.api.status"
	resp, err := w.response(op)
	if err != nil {
		return err
	}
	if r := ucassert.Status(want, resp.StatusCode); !r.Passed {
		return failf(op, "%s", r.Message)
	}
	return nil
}

// responseFields checks a comma separated list of keys or JSONPath
// expressions, whatever the status.
func (w *World) responseFields(_ context.Context, list string) error {
	const op = "steps.api.fields"
	resp, err := w.response(op)
	if err != nil {
		return err
	}
	var keys []string
	for _, k := range strings.Split(list, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if missing := shopapi.MissingKeys(resp, keys); len(missing) > 0 {
		return failf(op, "missing keys in response: %s", strings.Join(missing, ", "))
	}
	return nil
}

// saveResponseField binds a JSONPath value for {{name}} in later steps.
func (w *World) saveResponseField(_ context.Context, expr, name string) error {
	const op = "steps.api.save"
	resp, err := w.response(op)
	if err != nil {
		return err
	}
	v, err := ucextract.Value(resp, expr)
	if err != nil {
		return err
	}
	w.vars.Bind(name, v)
	return nil
}
