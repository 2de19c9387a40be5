package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

// RegistrationFields lists the form fields in the order they are filled.
var RegistrationFields = []string{"first_name", "last_name", "email", "password", "confirm_password", "phone"}

var (
	registrationInputs = map[string][2]domain.Locator{
		"first_name":       {domain.ID("firstName"), domain.Name("first_name")},
		"last_name":        {domain.ID("lastName"), domain.Name("last_name")},
		"email":            {domain.ID("email"), domain.Name("email")},
		"password":         {domain.ID("password"), domain.Name("password")},
		"confirm_password": {domain.ID("confirmPassword"), domain.Name("confirm_password")},
		"phone":            {domain.ID("phone"), domain.Name("phone")},
	}
	registrationIDs = map[string]string{
		"first_name":       "firstName",
		"last_name":        "lastName",
		"email":            "email",
		"password":         "password",
		"confirm_password": "confirmPassword",
		"phone":            "phone",
	}

	registrationTerms     = domain.ID("termsAndConditions")
	registrationTermsAlt  = domain.Name("terms")
	registrationButton    = domain.ID("registerButton")
	registrationButtonAlt = domain.XPath(`//button[contains(text(), 'Register')]`)
	registrationSuccess   = domain.Class("success-message")
	registrationError     = domain.Class("error-message")

	registrationSuccessFallbacks = []domain.Locator{
		domain.Class("alert-success"),
		domain.Class("success"),
		domain.XPath(`//*[contains(@class, 'success')]`),
		domain.XPath(`//*[contains(text(), 'successful')]`),
	}
	registrationErrorFallbacks = []domain.Locator{
		domain.Class("alert-danger"),
		domain.Class("error"),
		domain.Class("field-error"),
		domain.XPath(`//*[contains(@class, 'error')]`),
		domain.XPath(`//*[contains(@class, 'danger')]`),
	}
)

type Registration struct {
	Base
}

func NewRegistration(base Base) *Registration { return &Registration{Base: base} }

func (p *Registration) Open(ctx context.Context) error {
	return p.Base.Open(ctx, "/register")
}

func (p *Registration) IsLoaded(ctx context.Context) bool {
	return p.Visible(ctx, registrationButton) || p.Visible(ctx, registrationInputs["first_name"][0])
}

// EnterField types value into the named field. Unknown names are logged
// and ignored.
func (p *Registration) EnterField(ctx context.Context, field, value string) error {
	locs, ok := registrationInputs[normalizeField(field)]
	if !ok {
		p.log.Warn("registration.unknown_field", "field", field)
		return nil
	}
	return p.TypeFirst(ctx, value, locs[0], locs[1])
}

// Fill enters every known field present in data, in form order. Fields
// outside the form are passed to EnterField and so only logged.
func (p *Registration) Fill(ctx context.Context, data map[string]string) error {
	seen := map[string]bool{}
	for _, f := range RegistrationFields {
		for k, v := range data {
			if normalizeField(k) != f {
				continue
			}
			seen[k] = true
			if err := p.EnterField(ctx, f, v); err != nil {
				return fmt.Errorf("field %s: %w", f, err)
			}
		}
	}
	for k, v := range data {
		if !seen[k] {
			_ = p.EnterField(ctx, k, v)
		}
	}
	return nil
}

func (p *Registration) AcceptTerms(ctx context.Context) error {
	loc := registrationTerms
	if !p.Present(ctx, loc) {
		loc = registrationTermsAlt
	}
	if p.Checked(ctx, loc) {
		return nil
	}
	return p.Click(ctx, loc)
}

func (p *Registration) ClickRegister(ctx context.Context) error {
	return p.ClickFirst(ctx, registrationButton, registrationButtonAlt)
}

func (p *Registration) Register(ctx context.Context, data map[string]string, acceptTerms bool) error {
	p.log.Info("registration.submit", "email", data["email"])
	if err := p.Fill(ctx, data); err != nil {
		return err
	}
	if acceptTerms {
		if err := p.AcceptTerms(ctx); err != nil {
			return err
		}
	}
	return p.ClickRegister(ctx)
}

func (p *Registration) SuccessMessage(ctx context.Context) string {
	locs := append([]domain.Locator{registrationSuccess}, registrationSuccessFallbacks...)
	return p.FirstText(ctx, "Success message not found", locs...)
}

func (p *Registration) ErrorMessage(ctx context.Context) string {
	locs := append([]domain.Locator{registrationError}, registrationErrorFallbacks...)
	return p.FirstText(ctx, "Error message not found", locs...)
}

// FieldError returns the validation message shown next to field.
func (p *Registration) FieldError(ctx context.Context, field string) string {
	id, ok := registrationIDs[normalizeField(field)]
	if !ok {
		return "Unknown field"
	}
	return p.FirstText(ctx, "Field error not found",
		domain.ID(id+"-error"),
		domain.XPath(fmt.Sprintf(`//input[@id='%s']/..//span[@class='error']`, id)),
	)
}

func (p *Registration) ClearAll(ctx context.Context) error {
	for _, f := range RegistrationFields {
		if err := p.EnterField(ctx, f, ""); err != nil {
			return err
		}
	}
	return nil
}

// normalizeField accepts "First Name", "first-name" and "first_name".
func normalizeField(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
