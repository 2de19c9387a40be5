// Package assert evaluates API responses against declarative expectations.
// Steps build the expectations from Gherkin tables.
package assert

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/chiru781/cursior/internal/domain"
)

func pass(name, format string, args ...any) domain.CheckResult {
	return domain.CheckResult{Name: name, Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) domain.CheckResult {
	return domain.CheckResult{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func Status(expected, got int) domain.CheckResult {
	if got == expected {
		return pass("status", "status %d", got)
	}
	return fail("status", "expected status %d, got %d", expected, got)
}

func MaxLatency(maxMs int, latencyMs int64) domain.CheckResult {
	if latencyMs <= int64(maxMs) {
		return pass("max_ms", "latency %dms <= %dms", latencyMs, maxMs)
	}
	return fail("max_ms", "expected latency <= %dms, got %dms", maxMs, latencyMs)
}

// Evaluate applies exp to resp. JSONPath checks run in expression order so
// results are stable.
func Evaluate(exp domain.ResponseExpectation, resp domain.APIResponse) []domain.CheckResult {
	var out []domain.CheckResult

	if exp.Status != nil {
		out = append(out, Status(*exp.Status, resp.StatusCode))
	}
	if exp.MaxLatencyMS != nil {
		out = append(out, MaxLatency(*exp.MaxLatencyMS, resp.Duration.Milliseconds()))
	}
	if len(exp.JSONPath) == 0 {
		return out
	}

	exprs := make([]string, 0, len(exp.JSONPath))
	for e := range exp.JSONPath {
		exprs = append(exprs, e)
	}
	sort.Strings(exprs)

	doc, err := document(resp)
	for _, expr := range exprs {
		var val any
		getErr := err
		if getErr == nil {
			val, getErr = jsonpath.Get(expr, doc)
		}
		out = append(out, jsonPathChecks(expr, exp.JSONPath[expr], val, getErr)...)
	}
	return out
}

// Failures joins the messages of failed checks, or returns nil.
func Failures(results []domain.CheckResult) error {
	var msgs []string
	for _, r := range results {
		if !r.Passed {
			msgs = append(msgs, r.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return &domain.OpError{Op: "assert.response", Kind: domain.KindAssertion, Err: fmt.Errorf("%s", strings.Join(msgs, "; "))}
}

// document prefers the decoded payload and falls back to parsing Raw.
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

func jsonPathChecks(expr string, c domain.JSONPathCheck, val any, getErr error) []domain.CheckResult {
	var out []domain.CheckResult
	if c.Exists {
		out = append(out, checkExists(expr, val, getErr))
	}
	if c.Eq != nil {
		out = append(out, compareString("jsonpath.eq", expr, val, getErr, func(s string) (bool, string) {
			return s == *c.Eq, fmt.Sprintf("expected %q, got %q", *c.Eq, s)
		}))
	}
	if c.Contains != nil {
		out = append(out, compareString("jsonpath.contains", expr, val, getErr, func(s string) (bool, string) {
			return strings.Contains(s, *c.Contains), fmt.Sprintf("%q does not contain %q", s, *c.Contains)
		}))
	}
	if c.Matches != nil {
		re, err := regexp.Compile(*c.Matches)
		if err != nil {
			out = append(out, fail("jsonpath.matches", "jsonpath %q: invalid regex %q: %v", expr, *c.Matches, err))
		} else {
			out = append(out, compareString("jsonpath.matches", expr, val, getErr, func(s string) (bool, string) {
				return re.MatchString(s), fmt.Sprintf("%q does not match %q", s, *c.Matches)
			}))
		}
	}
	if c.Gt != nil {
		out = append(out, compareNumber("jsonpath.gt", expr, val, getErr, func(f float64) (bool, string) {
			return f > *c.Gt, fmt.Sprintf("expected > %v, got %v", *c.Gt, f)
		}))
	}
	if c.Lt != nil {
		out = append(out, compareNumber("jsonpath.lt", expr, val, getErr, func(f float64) (bool, string) {
			return f < *c.Lt, fmt.Sprintf("expected < %v, got %v", *c.Lt, f)
		}))
	}
	return out
}

func checkExists(expr string, val any, getErr error) domain.CheckResult {
	if getErr != nil {
		return fail("jsonpath.exists", "jsonpath %q: %v", expr, getErr)
	}
	if isEmpty(val) {
		return fail("jsonpath.exists", "jsonpath %q: expected value to exist, got empty", expr)
	}
	return pass("jsonpath.exists", "jsonpath %q exists", expr)
}

func compareString(name, expr string, val any, getErr error, ok func(string) (bool, string)) domain.CheckResult {
	if getErr != nil {
		return fail(name, "jsonpath %q: %v", expr, getErr)
	}
	s, err := ToString(val)
	if err != nil {
		return fail(name, "jsonpath %q: %v", expr, err)
	}
	if good, msg := ok(s); !good {
		return fail(name, "jsonpath %q: %s", expr, msg)
	}
	return pass(name, "jsonpath %q ok", expr)
}

func compareNumber(name, expr string, val any, getErr error, ok func(float64) (bool, string)) domain.CheckResult {
	if getErr != nil {
		return fail(name, "jsonpath %q: %v", expr, getErr)
	}
	f, err := toFloat64(val)
	if err != nil {
		return fail(name, "jsonpath %q: %v", expr, err)
	}
	if good, msg := ok(f); !good {
		return fail(name, "jsonpath %q: %s", expr, msg)
	}
	return pass(name, "jsonpath %q ok", expr)
}

// ToString renders a JSON scalar the way it reads in a feature file.
func ToString(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("value is null")
	default:
		return fmt.Sprint(v), nil
	}
}

func toFloat64(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", val)
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
