package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VarResolver resolves {{var}} placeholders in step arguments and API payloads.
// Built-ins: {{$timestamp}}, {{$uuid}}, {{$email}} and {{$password}}.
type VarResolver struct {
	now    func() time.Time
	uuidV4 func() (string, error)
}

// VarResolverOption configures VarResolver.
type VarResolverOption func(*VarResolver)

// WithNow overrides the clock (useful for tests).
func WithNow(now func() time.Time) VarResolverOption {
	return func(r *VarResolver) { r.now = now }
}

// WithUUID overrides UUID generation (useful for tests).
func WithUUID(gen func() (string, error)) VarResolverOption {
	return func(r *VarResolver) { r.uuidV4 = gen }
}

func NewVarResolver(opts ...VarResolverOption) *VarResolver {
	r := &VarResolver{
		now: time.Now,
		uuidV4: func() (string, error) {
			u, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return u.String(), nil
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RuntimeResolver caches built-ins for one scenario so a {{$email}} typed in
// one step and checked in a later step is the same address.
type RuntimeResolver struct {
	base     Vars
	builtins Vars
	inner    *VarResolver
}

func (r *VarResolver) NewRuntime(vars Vars) (*RuntimeResolver, error) {
	ts := strconv.FormatInt(r.now().Unix(), 10)

	u, err := r.uuidV4()
	if err != nil {
		return nil, &OpError{
			Op:   "vars.builtins.uuid",
			Kind: KindExecution,
			Err:  err,
		}
	}
	short := strings.ReplaceAll(u, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}

	baseCopy := Vars{}
	for k, v := range vars {
		baseCopy[k] = v
	}

	return &RuntimeResolver{
		base: baseCopy,
		builtins: Vars{
			"$timestamp": ts,
			"$uuid":      u,
			"$email":     "test+" + short + "@example.com",
			"$password":  "Aa1!" + short,
		},
		inner: r,
	}, nil
}

// Bind adds or replaces a scenario variable.
func (rr *RuntimeResolver) Bind(name, value string) {
	rr.base[name] = value
}

// Lookup returns a bound variable or built-in.
func (rr *RuntimeResolver) Lookup(name string) (string, bool) {
	if v, ok := rr.builtins[name]; ok {
		return v, true
	}
	v, ok := rr.base[name]
	return v, ok
}

// ResolveString resolves placeholders in a string.
func (rr *RuntimeResolver) ResolveString(s string) (string, error) {
	return rr.inner.resolveStringWith(rr.base, rr.builtins, s)
}

// ResolveVars resolves every value of a key/value table.
func (rr *RuntimeResolver) ResolveVars(in Vars) (Vars, error) {
	out := make(Vars, len(in))
	for k, v := range in {
		rv, err := rr.ResolveString(v)
		if err != nil {
			return nil, wrapField(err, k)
		}
		out[k] = rv
	}
	return out, nil
}

// ResolveJSONValue recursively resolves string values inside JSON-like structures.
// Supported types: map[string]any, []any, string, numbers/bools/nil (left unchanged).
func (rr *RuntimeResolver) ResolveJSONValue(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return rr.ResolveString(t)

	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			rv, err := rr.ResolveJSONValue(vv)
			if err != nil {
				return nil, wrapField(err, k)
			}
			out[k] = rv
		}
		return out, nil

	case []any:
		out := make([]any, 0, len(t))
		for _, it := range t {
			rv, err := rr.ResolveJSONValue(it)
			if err != nil {
				return nil, err
			}
			out = append(out, rv)
		}
		return out, nil

	default:
		return v, nil
	}
}

func (r *VarResolver) resolveStringWith(vars Vars, builtins Vars, s string) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(s); {
		if i+1 < len(s) && s[i] == '{' && s[i+1] == '{' {
			start := i + 2

			end := strings.Index(s[start:], "}}")
			if end < 0 {
				return "", &OpError{
					Op:   "vars.resolve",
					Kind: KindInvalidConfig,
					Err:  errors.New("unclosed placeholder"),
				}
			}
			end = start + end

			name := strings.TrimSpace(s[start:end])
			if name == "" {
				return "", &OpError{
					Op:   "vars.resolve",
					Kind: KindInvalidConfig,
					Err:  errors.New("empty placeholder"),
				}
			}

			val, ok := builtins[name]
			if !ok {
				val, ok = vars[name]
			}
			if !ok {
				return "", &OpError{
					Op:   "vars.resolve",
					Kind: KindMissingVar,
					Err:  fmt.Errorf("missing variable: %s", name),
				}
			}

			b.WriteString(val)
			i = end + 2
			continue
		}

		b.WriteByte(s[i])
		i++
	}

	return b.String(), nil
}

func wrapField(err error, field string) error {
	return &OpError{
		Op:   "vars.resolve",
		Kind: KindOf(err),
		Err:  fmt.Errorf("%s: %w", field, err),
	}
}
