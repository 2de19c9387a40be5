package assert

import (
	"strings"
	"testing"
	"time"

	"github.com/chiru781/cursior/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func jsonResp(status int, body string) domain.APIResponse {
	return domain.APIResponse{StatusCode: status, Raw: []byte(body), Data: body, Duration: 100 * time.Millisecond}
}

func TestStatus(t *testing.T) {
	if r := Status(200, 200); !r.Passed || r.Name != "status" {
		t.Fatalf("expected passing status check, got %+v", r)
	}
	r := Status(200, 500)
	if r.Passed {
		t.Fatalf("expected fail")
	}
	if r.Message != "expected status 200, got 500" {
		t.Fatalf("unexpected message: %q", r.Message)
	}
}

func TestMaxLatency(t *testing.T) {
	if r := MaxLatency(500, 500); !r.Passed {
		t.Fatalf("expected equal latency to pass")
	}
	r := MaxLatency(100, 250)
	if r.Passed || r.Message != "expected latency <= 100ms, got 250ms" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestEvaluate_NoExpectations(t *testing.T) {
	if out := Evaluate(domain.ResponseExpectation{}, jsonResp(200, `{}`)); len(out) != 0 {
		t.Fatalf("expected 0 results, got %d", len(out))
	}
}

func TestEvaluate_UsesDecodedData(t *testing.T) {
	resp := domain.APIResponse{
		StatusCode: 200,
		Data:       map[string]any{"order_id": "ORD12345", "total_amount": 1029.98},
	}
	exp := domain.ResponseExpectation{
		Status: ptr(200),
		JSONPath: map[string]domain.JSONPathCheck{
			"$.order_id":     {Exists: true, Eq: ptr("ORD12345")},
			"$.total_amount": {Gt: ptr(1000.0), Lt: ptr(2000.0)},
		},
	}

	out := Evaluate(exp, resp)
	if len(out) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(out), out)
	}
	if err := Failures(out); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}
}

func TestEvaluate_ParsesRawWhenDataIsText(t *testing.T) {
	exp := domain.ResponseExpectation{
		JSONPath: map[string]domain.JSONPathCheck{"$.status": {Contains: ptr("process")}},
	}
	out := Evaluate(exp, jsonResp(200, `{"status":"processing"}`))
	if len(out) != 1 || !out[0].Passed {
		t.Fatalf("expected contains to pass, got %+v", out)
	}
}

func TestEvaluate_InvalidBodyFailsEveryJSONPathCheck(t *testing.T) {
	exp := domain.ResponseExpectation{
		JSONPath: map[string]domain.JSONPathCheck{
			"$.name": {Exists: true},
			"$.age":  {Exists: true},
		},
	}
	out := Evaluate(exp, jsonResp(200, "not json"))
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	for _, r := range out {
		if r.Passed || r.Name != "jsonpath.exists" {
			t.Fatalf("unexpected result %+v", r)
		}
	}
}

func TestEvaluate_OrderIsStable(t *testing.T) {
	exp := domain.ResponseExpectation{
		Status:       ptr(200),
		MaxLatencyMS: ptr(50),
		JSONPath: map[string]domain.JSONPathCheck{
			"$.b": {Exists: true},
			"$.a": {Exists: true},
		},
	}
	out := Evaluate(exp, jsonResp(200, `{"a":1,"b":2}`))
	if len(out) != 4 {
		t.Fatalf("expected 4 results, got %d", len(out))
	}
	if out[0].Name != "status" || out[1].Name != "max_ms" {
		t.Fatalf("expected status then max_ms, got %s, %s", out[0].Name, out[1].Name)
	}
	if out[1].Passed {
		t.Fatalf("expected 100ms to exceed the 50ms budget")
	}
	if !strings.Contains(out[2].Message, "$.a") {
		t.Fatalf("expected $.a before $.b, got %q", out[2].Message)
	}
}

func TestEvaluate_MatchesAndInvalidRegex(t *testing.T) {
	exp := domain.ResponseExpectation{
		JSONPath: map[string]domain.JSONPathCheck{
			"$.order_id": {Matches: ptr(`^[A-Z0-9]{6,}$`)},
			"$.status":   {Matches: ptr(`(`)},
		},
	}
	out := Evaluate(exp, jsonResp(200, `{"order_id":"ORD12345","status":"pending"}`))
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if !out[0].Passed {
		t.Fatalf("expected order id to match: %s", out[0].Message)
	}
	if out[1].Passed || !strings.Contains(out[1].Message, "invalid regex") {
		t.Fatalf("expected invalid regex failure, got %+v", out[1])
	}
}

func TestFailuresJoinsMessages(t *testing.T) {
	err := Failures([]domain.CheckResult{
		{Name: "status", Passed: false, Message: "expected status 200, got 404"},
		{Name: "jsonpath.exists", Passed: true, Message: "ok"},
		{Name: "jsonpath.eq", Passed: false, Message: `jsonpath "$.status": expected "shipped", got "pending"`},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.KindAssertion) {
		t.Fatalf("expected assertion kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "shipped") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestToString(t *testing.T) {
	cases := map[any]string{"a": "a", 7.0: "7", 1029.98: "1029.98", true: "true"}
	for in, want := range cases {
		got, err := ToString(in)
		if err != nil || got != want {
			t.Fatalf("%v: expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := ToString(nil); err == nil {
		t.Fatalf("expected null to fail")
	}
}
