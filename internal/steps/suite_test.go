package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/browser/browsertest"
	"github.com/chiru781/cursior/internal/infra/screenshots"
	"github.com/chiru781/cursior/internal/infra/shopapi"
	"github.com/chiru781/cursior/internal/infra/sqlstore"
	"github.com/chiru781/cursior/internal/ports"
)

const shopURL = "https://shop.test"

var (
	emailInput    = domain.ID("email")
	passwordInput = domain.ID("password")
	loginBtn      = domain.ID("loginButton")
	errorMessage  = domain.Class("error-message")
	welcome       = domain.Class("welcome-message")
	logoutBtn     = domain.ID("logoutButton")
	registerBtn   = domain.ID("registerButton")
	firstName     = domain.ID("firstName")
	terms         = domain.ID("termsAndConditions")
	productItem   = domain.Class("product-item")
	addToCartBtn  = domain.ID("addToCart")
	cartCount     = domain.Class("cart-count")
	cartLine      = domain.Class("cart-item")
	cartEmpty     = domain.Class("empty-cart-message")
)

type factory struct {
	mu     sync.Mutex
	opened []*browsertest.Fake
	// cartItems is the number of lines the shop's cart starts with.
	cartItems int
}

func (f *factory) Open(context.Context, domain.Config) (ports.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := newShop(f.cartItems)
	f.opened = append(f.opened, b)
	return b, nil
}

func (f *factory) browsers() []*browsertest.Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*browsertest.Fake(nil), f.opened...)
}

// newShop fakes the screens of the shop that the suite scenarios visit. The
// cart starts with cartItems lines.
func newShop(cartItems int) *browsertest.Fake {
	var mu sync.Mutex
	inCart := cartItems

	f := browsertest.New()
	f.OnNavigate(func(f *browsertest.Fake, url string) {
		switch {
		case strings.HasSuffix(url, "/cart"):
			mu.Lock()
			n := inCart
			mu.Unlock()
			if n == 0 {
				f.Remove(cartLine).SetText(cartEmpty, "Your cart is empty")
				return
			}
			lines := make([]*browsertest.Element, n)
			for i := range lines {
				lines[i] = &browsertest.Element{}
			}
			f.Remove(cartEmpty).Set(cartLine, lines...)
		case strings.HasSuffix(url, "/login"):
			f.Set(emailInput, &browsertest.Element{}).
				Set(passwordInput, &browsertest.Element{}).
				Set(loginBtn, &browsertest.Element{})
		case strings.HasSuffix(url, "/register"):
			f.Set(firstName, &browsertest.Element{}).
				Set(emailInput, &browsertest.Element{}).
				Set(passwordInput, &browsertest.Element{}).
				Set(terms, &browsertest.Element{Attrs: map[string]string{"type": "checkbox"}}).
				Set(registerBtn, &browsertest.Element{})
		case strings.HasSuffix(url, "/products"):
			f.Set(domain.ID("searchBox"), &browsertest.Element{}).
				Set(domain.ID("categoryFilter"), &browsertest.Element{Options: []string{"Electronics", "Books"}}).
				Set(domain.ID("sortBy"), &browsertest.Element{}).
				Set(productItem, &browsertest.Element{}, &browsertest.Element{}).
				SetChild(productItem, 0, domain.Class("product-title"), &browsertest.Element{Text: "Mouse"}).
				SetChild(productItem, 0, domain.Class("product-price"), &browsertest.Element{Text: "$25.00"}).
				SetChild(productItem, 0, domain.Class("product-category"), &browsertest.Element{Text: "Electronics"}).
				SetChild(productItem, 1, domain.Class("product-title"), &browsertest.Element{Text: "Laptop"}).
				SetChild(productItem, 1, domain.Class("product-price"), &browsertest.Element{Text: "$1,299.99"}).
				SetChild(productItem, 1, domain.Class("product-category"), &browsertest.Element{Text: "Electronics"}).
				SetText(domain.Class("filter-count"), "2 products")
		}
	})
	f.OnClick(loginBtn, func(f *browsertest.Fake) {
		email, _ := f.Typed(emailInput)
		pw, _ := f.Typed(passwordInput)
		if email == "test@example.com" && pw == "SecurePass123!" {
			f.SetURL(shopURL + "/dashboard").
				SetText(welcome, "Welcome back, Test User").
				Set(logoutBtn, &browsertest.Element{})
			return
		}
		f.SetText(errorMessage, "Invalid email or password")
	})
	f.OnClick(registerBtn, func(f *browsertest.Fake) {
		f.SetText(errorMessage, "Email already exists")
	})
	first, _ := productItem.Child(0, domain.Class("product-title"))
	f.OnClick(first, func(f *browsertest.Fake) {
		f.SetURL(shopURL+"/products/1").
			SetText(domain.Class("product-title"), "Mouse").
			Set(addToCartBtn, &browsertest.Element{})
	})
	f.OnClick(addToCartBtn, func(f *browsertest.Fake) {
		mu.Lock()
		inCart++
		n := inCart
		mu.Unlock()
		f.SetText(cartCount, strconv.Itoa(n))
	})
	return f
}

func testDeps(t *testing.T) (*Deps, *factory) {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.App.BaseURL = shopURL
	cfg.Timeouts.Explicit = 50 * time.Millisecond
	dir := t.TempDir()
	cfg.Paths.Reports = dir
	cfg.Paths.Screenshots = dir + "/screenshots"
	cfg.Paths.Logs = ""
	cfg.Paths.TestData = dir + "/test_data"
	cfg.Features.API = false
	cfg.Features.Database = false

	f := &factory{}
	return &Deps{
		Config:      cfg,
		Browsers:    f,
		Screenshots: screenshots.New(cfg.Paths.Screenshots),
		Recorder:    NewRecorder(),
	}, f
}

func run(t *testing.T, d *Deps, feature string) int {
	t.Helper()
	fsys := fstest.MapFS{"features/test.feature": &fstest.MapFile{Data: []byte(feature)}}
	return godog.TestSuite{
		Name:                 "steps",
		TestSuiteInitializer: func(ts *godog.TestSuiteContext) { InitializeSuite(ts, d) },
		ScenarioInitializer:  func(sc *godog.ScenarioContext) { InitializeScenario(sc, d) },
		Options: &godog.Options{
			Format:      "progress",
			Output:      io.Discard,
			FS:          fsys,
			Paths:       []string{"features/test.feature"},
			Strict:      true,
			NoColors:    true,
			Concurrency: 1,
		},
	}.Run()
}

func TestLoginScenarios(t *testing.T) {
	d, f := testDeps(t)
	d.Recorder.SetFeature("features/test.feature", "User Login")

	status := run(t, d, `Feature: User Login

  @smoke
  Scenario: Successful login
    Given I am on the login page
    When I enter valid login credentials
    And I click login button
    Then I should be redirected to dashboard
    And I should see welcome message "Welcome"

  Scenario: Invalid credentials
    Given I am on the login page
    When I enter login credentials
      | field    | value         |
      | email    | {{$email}}    |
      | password | wrongpassword |
    And I click login button
    Then I should see error message "Invalid email or password"
    And I should remain on login page
`)
	require.Equal(t, 0, status)

	results := d.Recorder.Results()
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, domain.StatusPassed, r.Status, r.Name)
		assert.Equal(t, "User Login", r.Feature)
		assert.Empty(t, r.Screenshots)
	}

	browsers := f.browsers()
	require.Len(t, browsers, 2)
	for _, b := range browsers {
		assert.True(t, b.Closed())
	}
}

func TestFailedStepCapturesScreenshots(t *testing.T) {
	d, _ := testDeps(t)

	status := run(t, d, `Feature: Dashboard

  Scenario: Wrong greeting
    Given I am on the login page
    When I enter valid login credentials
    And I click login button
    Then I should see welcome message "Goodbye"
    And I should see my profile information
`)
	assert.Equal(t, 1, status)

	results := d.Recorder.Results()
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.StatusFailed, r.Status)
	assert.Equal(t, "test", r.Feature)
	assert.Contains(t, r.Error, "Goodbye")

	var failed []domain.StepResult
	for _, st := range r.Steps {
		if st.Status == domain.StatusFailed {
			failed = append(failed, st)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, `I should see welcome message "Goodbye"`, failed[0].Text)

	require.Len(t, r.Screenshots, 2)
	assert.True(t, strings.HasPrefix(r.Screenshots[0].Name, "failed_step_"))
	assert.True(t, strings.HasPrefix(r.Screenshots[1].Name, "failed_scenario_"))
	assert.FileExists(t, r.Screenshots[1].Path)
}

func TestUndefinedStepIsRecorded(t *testing.T) {
	d, _ := testDeps(t)

	status := run(t, d, `Feature: Undefined

  Scenario: Unknown step
    Given I am on the login page
    When I dance on the keyboard
`)
	assert.NotEqual(t, 0, status)

	results := d.Recorder.Results()
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusUndefined, results[0].Status)
}

func TestDryRunNeverOpensABrowser(t *testing.T) {
	d, f := testDeps(t)
	d.DryRun = true

	status := run(t, d, `Feature: Dry

  Scenario: Anything
    Given I am on the login page
    When I have attempted login 5 times with wrong password
    Then the account should be locked for 15 minutes
`)
	assert.Equal(t, 0, status)
	assert.Empty(t, f.browsers())
	require.Len(t, d.Recorder.Results(), 1)
	assert.Equal(t, domain.StatusPassed, d.Recorder.Results()[0].Status)
}

func TestDisabledSubsystemFailsClearly(t *testing.T) {
	d, f := testDeps(t)

	status := run(t, d, `Feature: Orders

  Scenario: API is off
    Given I have placed an order with order ID "ORD123"
`)
	assert.Equal(t, 1, status)
	results := d.Recorder.Results()
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "ENABLE_DATABASE_TESTING")
	assert.Empty(t, f.browsers())
}

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()
	st, err := sqlstore.Open(ctx, domain.DatabaseConfig{Type: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))
	return st
}

func TestOrderDetailsThroughAPI(t *testing.T) {
	var health, unauthorized atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			health.Add(1)
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		case "/auth/login":
			_, _ = io.WriteString(w, `{"token":"tok-123","user_id":"test_user_1"}`)
		case "/orders/ORD123":
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				unauthorized.Add(1)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":"unauthorized"}`)
				return
			}
			_, _ = io.WriteString(w, `{"order_id":"ORD123","status":"processing","payment_status":"completed","total_amount":99.99,"coupon":null}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d, _ := testDeps(t)
	d.Config.Features.API = true
	d.Config.Features.Database = true
	d.Config.App.APIBaseURL = srv.URL
	d.Config.Runtime.APIRetries = 0
	d.APIReadyAttempts = 1
	client := shopapi.New(d.Config)
	d.API = client
	st := openStore(t)
	d.Store = st

	status := run(t, d, `Feature: Orders

  @api @database
  Scenario: Fetch an order
    Given I am authenticated through API
    And I have placed an order with order ID "ORD123"
    When I fetch order details through API
    Then the API should return correct order information
    And the API response status should be 200
    And the API response should contain fields "order_id, total_amount, coupon"
    And order status should be "processing"
    And payment status should be "completed"
    When I save the API response field "$.total_amount" as "total"
`)
	require.Equal(t, 0, status)
	assert.Equal(t, int32(1), health.Load(), "readiness is checked once before the suite")
	assert.Zero(t, unauthorized.Load())

	o, err := st.OrderByID(context.Background(), "ORD123")
	require.NoError(t, err)
	assert.Nil(t, o, "order created by the scenario is cleaned up")

	resp := client.OrderDetails(context.Background(), "ORD123")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "token is cleared when the scenario ends")
}

func TestOrderInformationChecksTheOrderSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/health" {
			_, _ = io.WriteString(w, `{"status":"ok"}`)
			return
		}
		_, _ = io.WriteString(w, `{"order_id":"ORD123","status":"processing"}`)
	}))
	defer srv.Close()

	d, _ := testDeps(t)
	d.Config.Features.API = true
	d.Config.Features.Database = true
	d.Config.App.APIBaseURL = srv.URL
	d.Config.Runtime.APIRetries = 0
	d.APIReadyAttempts = 1
	d.API = shopapi.New(d.Config)
	d.Store = openStore(t)

	status := run(t, d, `Feature: Orders

  Scenario: Incomplete order document
    Given I have placed an order with order ID "ORD123"
    When I fetch order details through API
    Then the API should return correct order information
`)
	assert.Equal(t, 1, status)

	res := d.Recorder.Results()
	require.Len(t, res, 1)
	assert.Contains(t, res[0].Error, "payment_status")
	assert.Contains(t, res[0].Error, "total_amount")
}

func TestDuplicateRegistration(t *testing.T) {
	d, _ := testDeps(t)
	d.Config.Features.Database = true
	st := openStore(t)
	d.Store = st

	status := run(t, d, `Feature: Registration

  Scenario: Duplicate email
    Given a user with email "dupe@example.com" already exists
    And I am on the registration page
    When I enter registration details
      | field      | value            |
      | first_name | Dupe             |
      | last_name  |                  |
      | email      | dupe@example.com |
    And I accept terms and conditions
    And I click register button
    Then I should see error message "already exists"
`)
	require.Equal(t, 0, status)

	u, err := st.UserByEmail(context.Background(), "dupe@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestFilterAndSortProducts(t *testing.T) {
	d, _ := testDeps(t)

	status := run(t, d, `Feature: Catalogue

  Scenario: Filter electronics
    Given I am on the products page
    When I apply filters
      | category | Electronics |
    And I sort by "price_low_to_high"
    Then I should see only filtered products
    And products should be sorted by price ascending
    And filter count should be displayed
`)
	assert.Equal(t, 0, status)
}

func TestDefinitionsCoverEveryArea(t *testing.T) {
	defs := Definitions()
	areas := map[string]int{}
	seen := map[string]bool{}
	for _, d := range defs {
		areas[d.Area]++
		assert.False(t, seen[d.Pattern], "duplicate pattern %s", d.Pattern)
		seen[d.Pattern] = true
	}
	assert.Equal(t, 19, areas["login"])
	assert.Equal(t, 12, areas["registration"])
	assert.Greater(t, areas["shopping"], 20)
	assert.Greater(t, areas["api"], 4)
}

func TestRegisterThroughAPIUsesRunVariables(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		case "/auth/register":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			bodies <- body
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"user_id":"u1"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d, _ := testDeps(t)
	d.Config.Features.API = true
	d.Config.App.APIBaseURL = srv.URL
	d.Config.Runtime.APIRetries = 0
	d.APIReadyAttempts = 1
	d.API = shopapi.New(d.Config)
	d.Vars = domain.Vars{"api_email": "fixed@example.com", "api_first_name": "Ada"}

	status := run(t, d, `Feature: Registration

  Scenario: Register through the API
    When I register a new user through API with valid data
    Then the API response status should be 201
`)
	require.Equal(t, 0, status)

	body := <-bodies
	assert.Equal(t, "fixed@example.com", body["email"])
	assert.Equal(t, "Ada", body["first_name"])
	assert.NotEmpty(t, body["last_name"])
	assert.NotContains(t, body["password"], "{{")
}

func TestItemsInCartKeepsAFilledCart(t *testing.T) {
	d, f := testDeps(t)
	f.cartItems = 2

	status := run(t, d, `Feature: Cart

  Scenario: Cart already holds items
    Given I have items in cart
`)
	require.Equal(t, 0, status)

	opened := f.browsers()
	require.Len(t, opened, 1)
	assert.False(t, opened[0].Clicked(addToCartBtn), "nothing is added to a filled cart")
	for _, u := range opened[0].History() {
		assert.NotContains(t, u, "/products", "products page is not visited")
	}
}

func TestItemsInCartFillsAnEmptyCart(t *testing.T) {
	d, f := testDeps(t)

	status := run(t, d, `Feature: Cart

  Scenario: Empty cart gets one product
    Given I have items in cart
`)
	require.Equal(t, 0, status)

	opened := f.browsers()
	require.Len(t, opened, 1)
	assert.True(t, opened[0].Clicked(addToCartBtn))
	assert.Equal(t, "1", opened[0].Element(cartCount).Text)
}

func TestSuiteHooksPrepareDirectoriesAndLogFeatures(t *testing.T) {
	d, _ := testDeps(t)
	d.Recorder.SetFeature("features/test.feature", "User Login")
	var logs bytes.Buffer
	d.Log = slog.New(slog.NewJSONHandler(&logs, nil))

	status := run(t, d, `Feature: User Login

  Scenario: First visit
    Given I am on the login page

  Scenario: Second visit
    Given I am on the login page
`)
	require.Equal(t, 0, status)

	_, err := os.Stat(d.Config.Paths.TestData)
	require.NoError(t, err, "test data directory is created before the run")

	var starts, ends []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		switch rec["msg"] {
		case "feature.start":
			starts = append(starts, rec)
		case "feature.end":
			ends = append(ends, rec)
		}
	}
	require.Len(t, starts, 1, "feature.start is logged once per feature")
	assert.Equal(t, "User Login", starts[0]["feature"])
	require.Len(t, ends, 1)
	assert.Equal(t, "User Login", ends[0]["feature"])
	assert.EqualValues(t, 2, ends[0]["total"])
	assert.EqualValues(t, 2, ends[0]["passed"])
}
