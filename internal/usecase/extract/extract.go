// Package extract binds values from API responses to scenario variables.
package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/chiru781/cursior/internal/domain"
)

// Apply evaluates rules (variable name to JSONPath) against resp. A failing
// rule is reported and does not stop the others. Bare names are treated as
// top-level fields.
func Apply(resp domain.APIResponse, rules domain.ExtractSpec) (domain.Vars, []domain.ExtractResult) {
	if len(rules) == 0 {
		return domain.Vars{}, []domain.ExtractResult{}
	}

	names := make([]string, 0, len(rules))
	for k := range rules {
		names = append(names, k)
	}
	sort.Strings(names)

	doc, docErr := document(resp)
	vars := domain.Vars{}
	results := make([]domain.ExtractResult, 0, len(names))
	report := func(name string, ok bool, format string, args ...any) {
		results = append(results, domain.ExtractResult{Name: name, Success: ok, Message: fmt.Sprintf(format, args...)})
	}

	for _, name := range names {
		expr := strings.TrimSpace(rules[name])
		switch {
		case expr == "":
			report(name, false, "extract %q: empty jsonpath expression", name)
			continue
		case docErr != nil:
			report(name, false, "extract %q (%s): %v", name, expr, docErr)
			continue
		case !strings.HasPrefix(expr, "$"):
			expr = "$." + expr
		}

		val, err := jsonpath.Get(expr, doc)
		if err != nil {
			report(name, false, "extract %q (%s): jsonpath error: %v", name, expr, err)
			continue
		}
		s, err := toString(val)
		if err != nil {
			report(name, false, "extract %q (%s): %v", name, expr, err)
			continue
		}
		vars[name] = s
		report(name, true, "extracted %q", name)
	}
	return vars, results
}

// Value extracts a single expression and fails with an assertion error.
func Value(resp domain.APIResponse, expr string) (string, error) {
	vars, res := Apply(resp, domain.ExtractSpec{"value": expr})
	if !res[0].Success {
		return "", &domain.OpError{Op: "extract.value", Kind: domain.KindAssertion, Path: expr, Err: fmt.Errorf("%s", res[0].Message)}
	}
	return vars["value"], nil
}

func document(resp domain.APIResponse) (any, error) {
	switch resp.Data.(type) {
	case map[string]any, []any:
		return resp.Data, nil
	}
	var doc any
	if err := json.Unmarshal(resp.Raw, &doc); err != nil {
		return nil, fmt.Errorf("response body is not valid JSON")
	}
	return doc, nil
}

func toString(v any) (string, error) {
	if arr, ok := v.([]any); ok {
		switch len(arr) {
		case 0:
			return "", fmt.Errorf("no value found")
		case 1:
			return toString(arr[0])
		}
		b, err := json.Marshal(arr)
		return string(b), err
	}

	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("no value found")
	case string:
		if t == "" {
			return "", fmt.Errorf("no value found")
		}
		return t, nil
	case float64:
		return fmt.Sprint(t), nil
	case map[string]any:
		if len(t) == 0 {
			return "", fmt.Errorf("no value found")
		}
		b, err := json.Marshal(t)
		return string(b), err
	default:
		return fmt.Sprint(t), nil
	}
}
