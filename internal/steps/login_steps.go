package steps

import (
	"context"
	"strings"

	"github.com/cucumber/godog"
)

func loginSteps(r *Registrar, w *World) {
	r.Step(`^I am on the login page$`, w.onLoginPage)
	r.Step(`^I enter login credentials$`, w.enterLoginCredentials)
	r.Step(`^I enter valid login credentials$`, w.enterValidLoginCredentials)
	r.Step(`^I click login button$`, w.clickLogin)
	r.Step(`^I check "Remember me" checkbox$`, w.checkRememberMe)
	r.Step(`^I logout$`, w.logout)
	r.Step(`^I close the browser$`, w.closeTheBrowser)
	r.Step(`^I reopen the browser and visit login page$`, w.reopenBrowser)
	r.Step(`^I click "Login with Google" button$`, w.clickGoogle)
	r.Step(`^I authorize the application on Google$`, w.authorizeGoogle)
	r.Step(`^I should be redirected to dashboard$`, w.redirectedToDashboard)
	r.Step(`^I should see welcome message "([^"]*)"$`, w.seeWelcomeMessage)
	r.Step(`^I should see my profile information$`, w.seeProfile)
	r.Step(`^I should see error message "([^"]*)"$`, w.seeErrorMessage)
	r.Step(`^I should remain on login page$`, w.remainOnLogin)
	r.Step(`^I have attempted login (\d+) times with wrong password$`, w.failedLoginAttempts)
	r.Step(`^the account should be locked for (\d+) minutes$`, w.accountLocked)
	r.Step(`^I should be automatically logged in$`, w.automaticallyLoggedIn)
	r.Step(`^my profile should be populated with Google data$`, w.profileFromGoogle)
}

func (w *World) onLoginPage(ctx context.Context) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	if err := p.Open(ctx); err != nil {
		return err
	}
	w.last = pageLogin
	if !p.IsLoaded(ctx) {
		return failf("steps.login.open", "login page did not load")
	}
	return nil
}

func (w *World) enterLoginCredentials(ctx context.Context, table *godog.Table) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	rows, err := w.resolvePairs(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		switch strings.ToLower(row.Key) {
		case "email":
			err = p.EnterEmail(ctx, row.Value)
		case "password":
			err = p.EnterPassword(ctx, row.Value)
		default:
			w.log.Warn("login.unknown_field", "field", row.Key)
			continue
		}
		if err != nil {
			return err
		}
		w.loginData[strings.ToLower(row.Key)] = row.Value
	}
	return nil
}

func (w *World) enterValidLoginCredentials(ctx context.Context) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	u := w.deps.Config.TestUser("valid")
	if err := p.EnterEmail(ctx, u.Email); err != nil {
		return err
	}
	if err := p.EnterPassword(ctx, u.Password); err != nil {
		return err
	}
	w.loginData["email"], w.loginData["password"] = u.Email, u.Password
	return nil
}

func (w *World) clickLogin(ctx context.Context) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	w.last = pageLogin
	return p.ClickLogin(ctx)
}

func (w *World) checkRememberMe(ctx context.Context) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	return p.CheckRememberMe(ctx)
}

func (w *World) logout(ctx context.Context) error {
	p, err := w.dashboardPage(ctx)
	if err != nil {
		return err
	}
	return p.Logout(ctx)
}

func (w *World) closeTheBrowser(context.Context) error {
	w.closeBrowser()
	return nil
}

func (w *World) reopenBrowser(ctx context.Context) error {
	w.closeBrowser()
	return w.onLoginPage(ctx)
}

func (w *World) clickGoogle(ctx context.Context) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	return p.ClickGoogle(ctx)
}

func (w *World) authorizeGoogle(ctx context.Context) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	if !w.waitForURL(ctx, "accounts.google.com", "dashboard") {
		return failf("steps.login.google", "no redirect to the Google sign-in page")
	}
	return p.HandleGoogleOAuth(ctx)
}

func (w *World) redirectedToDashboard(ctx context.Context) error {
	p, err := w.dashboardPage(ctx)
	if err != nil {
		return err
	}
	if !w.waitForURL(ctx, "dashboard") {
		return failf("steps.dashboard.redirect", "expected dashboard URL, got %q", p.CurrentURL(ctx))
	}
	if !p.IsLoaded(ctx) {
		return failf("steps.dashboard.redirect", "dashboard did not load")
	}
	return nil
}

func (w *World) seeWelcomeMessage(ctx context.Context, want string) error {
	p, err := w.dashboardPage(ctx)
	if err != nil {
		return err
	}
	want, err = w.resolve(want)
	if err != nil {
		return err
	}
	return expectContains("steps.dashboard.welcome", "welcome message", p.WelcomeMessage(ctx), want)
}

func (w *World) seeProfile(ctx context.Context) error {
	p, err := w.dashboardPage(ctx)
	if err != nil {
		return err
	}
	if !p.ProfileVisible(ctx) {
		return failf("steps.dashboard.profile", "profile section is not displayed")
	}
	return nil
}

// seeErrorMessage checks the error shown by the page used last.
func (w *World) seeErrorMessage(ctx context.Context, want string) error {
	want, err := w.resolve(want)
	if err != nil {
		return err
	}
	var got string
	switch w.last {
	case pageRegistration:
		p, err := w.registrationPage(ctx)
		if err != nil {
			return err
		}
		got = p.ErrorMessage(ctx)
	case pageCheckout:
		p, err := w.checkoutPage(ctx)
		if err != nil {
			return err
		}
		got = p.ErrorMessage(ctx)
	default:
		p, err := w.loginPage(ctx)
		if err != nil {
			return err
		}
		got = p.ErrorMessage(ctx)
	}
	return expectContains("steps.error_message", "error message", got, want)
}

func (w *World) remainOnLogin(ctx context.Context) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	if !p.URLContains(ctx, "login") {
		return failf("steps.login.remain", "expected to stay on the login page, got %q", p.CurrentURL(ctx))
	}
	return nil
}

func (w *World) failedLoginAttempts(ctx context.Context, n int) error {
	p, err := w.loginPage(ctx)
	if err != nil {
		return err
	}
	email := w.deps.Config.TestUser("valid").Email
	w.loginData["email"] = email
	for i := 0; i < n; i++ {
		if err := p.Open(ctx); err != nil {
			return err
		}
		if err := p.Login(ctx, email, "wrongpassword", false); err != nil {
			return err
		}
		w.log.Info("login.failed_attempt", "attempt", i+1, "of", n)
		w.pause(ctx)
	}
	w.last = pageLogin
	return nil
}

func (w *World) accountLocked(ctx context.Context, minutes int) error {
	const op = "steps.login.locked"
	st, err := w.store(op)
	if err != nil {
		return err
	}
	email := w.loginData["email"]
	if email == "" {
		email = w.deps.Config.TestUser("valid").Email
	}
	lock, err := st.LockoutInfo(ctx, email)
	if err != nil {
		return err
	}
	if !lock.Locked {
		return failf(op, "account %s is not locked after %d failed attempts", email, lock.FailedAttempts)
	}
	return expectEqual(op, "lockout minutes", lock.Minutes, minutes)
}

func (w *World) automaticallyLoggedIn(ctx context.Context) error {
	b, err := w.base(ctx)
	if err != nil {
		return err
	}
	if !w.waitForURL(ctx, "dashboard") {
		return failf("steps.login.remembered", "expected to be logged in automatically, got %q", b.CurrentURL(ctx))
	}
	return nil
}

func (w *World) profileFromGoogle(ctx context.Context) error {
	const op = "steps.dashboard.google_profile"
	p, err := w.dashboardPage(ctx)
	if err != nil {
		return err
	}
	data := p.ProfileData(ctx)
	if data.Name == "" {
		return failf(op, "profile name is empty")
	}
	if data.Email == "" {
		return failf(op, "profile email is empty")
	}
	return expectEqual(op, "auth provider", data.AuthProvider, "google")
}
