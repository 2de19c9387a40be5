package pages

import (
	"context"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

var (
	loginEmail       = domain.ID("email")
	loginEmailAlt    = domain.Name("email")
	loginPassword    = domain.ID("password")
	loginPasswordAlt = domain.Name("password")
	loginButton      = domain.ID("loginButton")
	loginButtonAlt   = domain.XPath(`//button[contains(text(), 'Login') or contains(text(), 'Sign In')]`)
	loginRemember    = domain.ID("rememberMe")
	loginRememberAlt = domain.Name("remember")
	loginForgot      = domain.LinkText("Forgot Password?")
	loginGoogle      = domain.ID("googleLogin")
	loginGoogleAlt   = domain.XPath(`//button[contains(text(), 'Google')]`)
	loginFacebook    = domain.ID("facebookLogin")
	loginRegister    = domain.LinkText("Create Account")
	loginError       = domain.Class("error-message")
	loginSuccess     = domain.Class("success-message")
	loginSpinner     = domain.Class("loading-spinner")

	loginErrorFallbacks = []domain.Locator{
		domain.Class("alert-danger"),
		domain.Class("error"),
		domain.XPath(`//*[contains(@class, 'error')]`),
		domain.XPath(`//*[contains(text(), 'Invalid') or contains(text(), 'incorrect')]`),
	}
)

type Login struct {
	Base
}

func NewLogin(base Base) *Login { return &Login{Base: base} }

func (p *Login) Open(ctx context.Context) error {
	return p.Base.Open(ctx, "/login")
}

func (p *Login) IsLoaded(ctx context.Context) bool {
	return p.Visible(ctx, loginEmail) || p.Visible(ctx, loginEmailAlt)
}

func (p *Login) EnterEmail(ctx context.Context, email string) error {
	return p.TypeFirst(ctx, email, loginEmail, loginEmailAlt)
}

func (p *Login) EnterPassword(ctx context.Context, password string) error {
	return p.TypeFirst(ctx, password, loginPassword, loginPasswordAlt)
}

// CheckRememberMe ticks the checkbox unless it already is.
func (p *Login) CheckRememberMe(ctx context.Context) error {
	loc := loginRemember
	if !p.Present(ctx, loc) {
		loc = loginRememberAlt
	}
	if p.Checked(ctx, loc) {
		return nil
	}
	return p.Click(ctx, loc)
}

func (p *Login) ClickLogin(ctx context.Context) error {
	if err := p.ClickFirst(ctx, loginButton, loginButtonAlt); err != nil {
		return err
	}
	p.WaitForSpinner(ctx, loginSpinner)
	return nil
}

func (p *Login) ClickForgotPassword(ctx context.Context) error {
	return p.Click(ctx, loginForgot)
}

func (p *Login) ClickGoogle(ctx context.Context) error {
	return p.ClickFirst(ctx, loginGoogle, loginGoogleAlt)
}

func (p *Login) ClickFacebook(ctx context.Context) error {
	return p.Click(ctx, loginFacebook)
}

func (p *Login) ClickCreateAccount(ctx context.Context) error {
	return p.Click(ctx, loginRegister)
}

func (p *Login) ErrorMessage(ctx context.Context) string {
	locs := append([]domain.Locator{loginError}, loginErrorFallbacks...)
	return p.FirstText(ctx, "Error message not found", locs...)
}

func (p *Login) SuccessMessage(ctx context.Context) string {
	return p.FirstText(ctx, "Success message not found", loginSuccess)
}

// Login fills the form and submits it.
func (p *Login) Login(ctx context.Context, email, password string, remember bool) error {
	p.log.Info("login.submit", "email", email, "remember", remember)
	if err := p.EnterEmail(ctx, email); err != nil {
		return err
	}
	if err := p.EnterPassword(ctx, password); err != nil {
		return err
	}
	if remember {
		if err := p.CheckRememberMe(ctx); err != nil {
			return err
		}
	}
	return p.ClickLogin(ctx)
}

// HandleGoogleOAuth waits for the provider redirect to settle. Consent
// screens are not automated; test environments stub the provider.
func (p *Login) HandleGoogleOAuth(ctx context.Context) error {
	p.WaitForPageLoad(ctx)
	if u := p.CurrentURL(ctx); strings.Contains(u, "accounts.google.com") {
		p.log.Info("login.oauth.provider_page", "url", u)
	}
	return nil
}

func (p *Login) ClearForm(ctx context.Context) error {
	if err := p.EnterEmail(ctx, ""); err != nil {
		return err
	}
	return p.EnterPassword(ctx, "")
}
