package config

import (
	"errors"
	"fmt"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct constraints of cfg. Every violated field is
// reported, joined into one error.
func Validate(cfg domain.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domain.OpError{
			Op:   "config.validate",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, invalidField("", fe.Namespace(), rule(fe)))
	}
	return errors.Join(errs...)
}

func rule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "url":
		return fmt.Sprintf("must be an absolute URL, got %q", fmt.Sprint(fe.Value()))
	case "gt", "gte":
		return fmt.Sprintf("must be %s %s, got %v", map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
