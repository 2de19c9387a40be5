package steps

import (
	"reflect"

	"github.com/cucumber/godog"
)

// Module registers the step definitions of one feature area.
type Module struct {
	Area     string
	Register func(r *Registrar, w *World)
}

// Modules lists every step module in registration order.
var Modules = []Module{
	{Area: "login", Register: loginSteps},
	{Area: "registration", Register: registrationSteps},
	{Area: "shopping", Register: shoppingSteps},
	{Area: "api", Register: apiSteps},
}

// Definition describes one registered step expression.
type Definition struct {
	Area    string
	Pattern string
}

// Registrar forwards step definitions to godog. In dry-run mode handlers are
// swapped for no-ops with the same signature so matching still works.
type Registrar struct {
	sc     *godog.ScenarioContext
	dryRun bool
	area   string
	defs   []Definition
}

func (r *Registrar) Step(expr string, fn any) {
	r.defs = append(r.defs, Definition{Area: r.area, Pattern: expr})
	if r.sc == nil {
		return
	}
	if r.dryRun {
		fn = noop(fn)
	}
	r.sc.Step(expr, fn)
}

func noop(fn any) any {
	t := reflect.TypeOf(fn)
	return reflect.MakeFunc(t, func([]reflect.Value) []reflect.Value {
		out := make([]reflect.Value, t.NumOut())
		for i := range out {
			out[i] = reflect.Zero(t.Out(i))
		}
		return out
	}).Interface()
}

func register(sc *godog.ScenarioContext, w *World, dryRun bool) *Registrar {
	r := &Registrar{sc: sc, dryRun: dryRun}
	for _, m := range Modules {
		r.area = m.Area
		m.Register(r, w)
	}
	return r
}

// Definitions lists every step expression known to the suite.
func Definitions() []Definition {
	return register(nil, newWorld(&Deps{}), false).defs
}
