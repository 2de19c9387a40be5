package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cucumber/godog"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/emailqueue"
)

const apiUserPassword = "APITest123!"

func registrationSteps(r *Registrar, w *World) {
	r.Step(`^I am on the registration page$`, w.onRegistrationPage)
	r.Step(`^I enter valid registration details$`, w.enterValidRegistration)
	r.Step(`^I enter registration details$`, w.enterRegistration)
	r.Step(`^I accept terms and conditions$`, w.acceptTerms)
	r.Step(`^I click register button$`, w.clickRegister)
	r.Step(`^I should see registration success message$`, w.seeRegistrationSuccess)
	r.Step(`^I should receive a welcome email$`, w.receiveWelcomeEmail)
	r.Step(`^a user with email "([^"]*)" already exists$`, w.userExists)
	r.Step(`^I register a new user through API with valid data$`, w.registerThroughAPI)
	r.Step(`^the user should be created in the database$`, w.userInDatabase)
	r.Step(`^the user status should be "([^"]*)"$`, w.userStatus)
	r.Step(`^a welcome email should be queued$`, w.welcomeEmailQueued)
}

func (w *World) onRegistrationPage(ctx context.Context) error {
	p, err := w.registrationPage(ctx)
	if err != nil {
		return err
	}
	if err := p.Open(ctx); err != nil {
		return err
	}
	w.last = pageRegistration
	if !p.IsLoaded(ctx) {
		return failf("steps.registration.open", "registration page did not load")
	}
	return nil
}

func (w *World) enterValidRegistration(ctx context.Context, table *godog.Table) error {
	return w.fillRegistration(ctx, table, false)
}

// enterRegistration leaves fields with empty values untouched.
func (w *World) enterRegistration(ctx context.Context, table *godog.Table) error {
	return w.fillRegistration(ctx, table, true)
}

func (w *World) fillRegistration(ctx context.Context, table *godog.Table, skipEmpty bool) error {
	p, err := w.registrationPage(ctx)
	if err != nil {
		return err
	}
	rows, err := w.resolvePairs(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if skipEmpty && row.Value == "" {
			continue
		}
		if err := p.EnterField(ctx, row.Key, row.Value); err != nil {
			return fmt.Errorf("field %s: %w", row.Key, err)
		}
		w.userData[strings.ToLower(row.Key)] = row.Value
	}
	w.trackUser(w.userData["email"])
	w.last = pageRegistration
	return nil
}

func (w *World) acceptTerms(ctx context.Context) error {
	p, err := w.registrationPage(ctx)
	if err != nil {
		return err
	}
	return p.AcceptTerms(ctx)
}

func (w *World) clickRegister(ctx context.Context) error {
	p, err := w.registrationPage(ctx)
	if err != nil {
		return err
	}
	w.last = pageRegistration
	return p.ClickRegister(ctx)
}

func (w *World) seeRegistrationSuccess(ctx context.Context) error {
	p, err := w.registrationPage(ctx)
	if err != nil {
		return err
	}
	return expectContains("steps.registration.success", "success message", p.SuccessMessage(ctx), "successful")
}

func (w *World) receiveWelcomeEmail(ctx context.Context) error {
	email := w.userData["email"]
	if email == "" {
		return failf("steps.registration.welcome_email", "no registration email recorded in this scenario")
	}
	return w.waitForEmail(ctx, "steps.registration.welcome_email", email, "Welcome")
}

func (w *World) userExists(ctx context.Context, email string) error {
	st, err := w.store("steps.registration.seed_user")
	if err != nil {
		return err
	}
	email, err = w.resolve(email)
	if err != nil {
		return err
	}
	if u, err := st.UserByEmail(ctx, email); err != nil {
		return err
	} else if u != nil {
		w.log.Info("registration.user_exists", "email", email)
		return nil
	}
	if _, err := st.CreateUser(ctx, domain.NewUser{
		Email:     email,
		FirstName: "Existing",
		LastName:  "User",
		Password:  "hashedpassword123",
	}); err != nil {
		return err
	}
	w.trackUser(email)
	return nil
}

func (w *World) registerThroughAPI(ctx context.Context) error {
	const op = "steps.registration.api"
	api, err := w.api(op)
	if err != nil {
		return err
	}
	user, err := w.payload(map[string]any{
		"first_name": "{{api_first_name}}",
		"last_name":  "{{api_last_name}}",
		"email":      "{{api_email}}",
		"password":   "{{api_password}}",
		"phone":      "{{api_phone}}",
	}, domain.Vars{
		"api_first_name": gofakeit.FirstName(),
		"api_last_name":  gofakeit.LastName(),
		"api_email":      "{{$email}}",
		"api_password":   apiUserPassword,
		"api_phone":      gofakeit.Phone(),
	})
	if err != nil {
		return err
	}
	email := fmt.Sprint(user["email"])
	w.trackUser(email)

	resp := api.RegisterUser(ctx, user)
	w.apiResp = &resp
	if resp.Err != nil {
		return resp.Err
	}
	if resp.StatusCode != 201 {
		return failf(op, "expected status 201, got %d: %s", resp.StatusCode, resp.Raw)
	}
	w.apiUser = user
	w.userData["email"] = email
	return nil
}

func (w *World) userInDatabase(ctx context.Context) error {
	const op = "steps.registration.db_user"
	st, err := w.store(op)
	if err != nil {
		return err
	}
	email := w.userData["email"]
	u, err := st.UserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return failf(op, "user %s not found in database", email)
	}
	if w.apiUser != nil {
		if err := expectEqual(op, "first name", u.FirstName, fmt.Sprint(w.apiUser["first_name"])); err != nil {
			return err
		}
		if err := expectEqual(op, "last name", u.LastName, fmt.Sprint(w.apiUser["last_name"])); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) userStatus(ctx context.Context, want string) error {
	const op = "steps.registration.db_status"
	st, err := w.store(op)
	if err != nil {
		return err
	}
	email := w.userData["email"]
	u, err := st.UserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return failf(op, "user %s not found in database", email)
	}
	return expectEqual(op, "user status", u.Status, want)
}

func (w *World) welcomeEmailQueued(ctx context.Context) error {
	const op = "steps.registration.queue"
	if !w.deps.Config.Features.Email {
		w.log.Info("email.queue.skipped")
		return nil
	}
	if w.deps.Queue == nil {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: fmt.Errorf("no email queue configured")}
	}
	jobs, err := w.deps.Queue.Jobs(ctx)
	if err != nil {
		return err
	}
	email := w.userData["email"]
	if _, ok := emailqueue.FindJob(jobs, email, "welcome"); !ok {
		return failf(op, "no welcome email queued for %s among %d jobs", email, len(jobs))
	}
	return nil
}
