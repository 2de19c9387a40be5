package shopapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/chiru781/cursior/internal/domain"
)

// VerifySchema checks that resp is a 200 whose body carries every key.
// Keys starting with "$" are JSONPath expressions; others name top-level
// fields. The error lists everything missing.
func VerifySchema(resp domain.APIResponse, keys []string) error {
	const op = "shopapi.verify_schema"
	if resp.StatusCode != http.StatusOK {
		return &domain.OpError{Op: op, Kind: domain.KindAssertion,
			Err: fmt.Errorf("expected status 200, got %d", resp.StatusCode)}
	}

	if missing := MissingKeys(resp, keys); len(missing) > 0 {
		return &domain.OpError{Op: op, Kind: domain.KindAssertion,
			Err: fmt.Errorf("missing keys in response: %s", strings.Join(missing, ", "))}
	}
	return nil
}

// MissingKeys returns the keys absent from the response body, in order.
func MissingKeys(resp domain.APIResponse, keys []string) []string {
	var missing []string
	for _, key := range keys {
		if !hasKey(resp.Data, key) {
			missing = append(missing, key)
		}
	}
	return missing
}

func hasKey(doc any, key string) bool {
	_, ok := lookup(doc, key)
	return ok
}

// lookup finds key in doc. A key holding null is present; only an absent
// key, or a path that cannot be followed, is reported as missing.
func lookup(doc any, key string) (any, bool) {
	if strings.HasPrefix(key, "$") {
		v, err := jsonpath.Get(key, doc)
		return v, err == nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Field reads one value from a JSON response with a JSONPath expression or
// a top-level field name. A present null comes back as (nil, true).
func Field(resp domain.APIResponse, key string) (any, bool) {
	return lookup(resp.Data, key)
}
