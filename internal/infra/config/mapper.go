package config

import (
	"errors"
	"fmt"

	"github.com/chiru781/cursior/internal/domain"
)

// MapEnv converts raw environment values into a Config on top of the defaults.
func MapEnv(source string, e EnvConfig) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	for _, kv := range e.pairs() {
		if err := cfg.Set(kv[0], kv[1]); err != nil {
			return domain.Config{}, invalidField(source, kv[0], cause(err))
		}
	}
	return cfg, nil
}

// cause strips the Set wrapping so the message names the variable once.
func cause(err error) string {
	var oe *domain.OpError
	if errors.As(err, &oe) {
		if inner := errors.Unwrap(oe.Err); inner != nil {
			return inner.Error()
		}
		return oe.Err.Error()
	}
	return err.Error()
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "config.map",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, domain.ErrInvalidConfig),
	}
}
