package pages

import (
	"context"

	"github.com/chiru781/cursior/internal/domain"
)

var (
	dashboardWelcome    = domain.Class("welcome-message")
	dashboardWelcomeAlt = domain.XPath(`//*[contains(text(), 'Welcome')]`)
	dashboardProfile    = domain.Class("user-profile")
	dashboardLogout     = domain.ID("logoutButton")
	dashboardLogoutAlt  = domain.XPath(`//a[contains(text(), 'Logout')]`)
	dashboardSection    = domain.Class("profile-section")
	dashboardUserName   = domain.Class("user-name")
	dashboardUserEmail  = domain.Class("user-email")
	dashboardProvider   = domain.Class("auth-provider")
)

type Dashboard struct {
	Base
}

func NewDashboard(base Base) *Dashboard { return &Dashboard{Base: base} }

func (p *Dashboard) IsLoaded(ctx context.Context) bool {
	if p.WaitVisible(ctx, dashboardWelcome, 0) == nil {
		return true
	}
	return p.URLContains(ctx, "dashboard")
}

func (p *Dashboard) IsLoggedIn(ctx context.Context) bool {
	return p.Visible(ctx, dashboardLogout) || p.Visible(ctx, dashboardLogoutAlt) || p.Visible(ctx, dashboardProfile)
}

func (p *Dashboard) WelcomeMessage(ctx context.Context) string {
	return p.FirstText(ctx, "Welcome message not found", dashboardWelcome, dashboardWelcomeAlt)
}

func (p *Dashboard) ProfileVisible(ctx context.Context) bool {
	return p.Visible(ctx, dashboardProfile)
}

// ProfileData reads the profile section. Missing parts stay empty except the
// auth provider, which defaults to "local".
func (p *Dashboard) ProfileData(ctx context.Context) domain.ProfileData {
	data := domain.ProfileData{AuthProvider: "local"}
	if !p.Visible(ctx, dashboardSection) {
		return data
	}
	if loc, err := dashboardSection.Child(0, dashboardUserName); err == nil {
		data.Name = p.TextOr(ctx, loc, "")
	}
	if loc, err := dashboardSection.Child(0, dashboardUserEmail); err == nil {
		data.Email = p.TextOr(ctx, loc, "")
	}
	if loc, err := dashboardSection.Child(0, dashboardProvider); err == nil && p.Present(ctx, loc) {
		if v, err := p.b.Attribute(ctx, loc, "data-provider"); err == nil && v != "" {
			data.AuthProvider = v
		}
	}
	return data
}

func (p *Dashboard) Logout(ctx context.Context) error {
	p.log.Info("dashboard.logout")
	if err := p.ClickFirst(ctx, dashboardLogout, dashboardLogoutAlt); err != nil {
		return err
	}
	p.WaitForPageLoad(ctx)
	return nil
}
