package steps

import (
	"fmt"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

// failf reports a failed expectation.
func failf(op, format string, args ...any) error {
	return &domain.OpError{Op: op, Kind: domain.KindAssertion, Err: fmt.Errorf(format, args...)}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func expectContains(op, what, got, want string) error {
	if !containsFold(got, want) {
		return failf(op, "expected %s to contain %q, got %q", what, want, got)
	}
	return nil
}

func expectEqual[T comparable](op, what string, got, want T) error {
	if got != want {
		return failf(op, "expected %s %v, got %v", what, want, got)
	}
	return nil
}
