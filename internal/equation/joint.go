package equation

import (
	"fmt"

	"github.com/san-kum/neurodyn/internal/dynamo"
)

// argSource locates one member argument inside the joint argument list.
type argSource struct {
	fromVars bool
	idx      int
}

type memberPlan struct {
	eq     *Equation
	vars   []int
	params []argSource
}

// Joint merges equations that share state into one coupled equation.
//
// The joint variables are the members' variables in member order. A
// member parameter that names another member's variable is bound to that
// variable; the remaining parameters are merged in first-seen order. Every
// member must use the same time name.
func Joint(eqs ...*Equation) (*Equation, error) {
	if len(eqs) == 0 {
		return nil, dynamo.Buildf("joint", "", dynamo.ErrBuild, "no member equations")
	}

	timeName := eqs[0].sig.Time
	varPos := make(map[string]int)
	var vars []string
	for i, eq := range eqs {
		if eq == nil {
			return nil, dynamo.Buildf("joint", "", dynamo.ErrBuild, "member %d is nil", i)
		}
		if eq.sig.Time != timeName {
			return nil, dynamo.Buildf("joint", eq.sig.Time, dynamo.ErrBuild,
				"member %d names time %q, member 0 names it %q", i, eq.sig.Time, timeName)
		}
		for _, v := range eq.sig.Vars {
			if _, dup := varPos[v]; dup {
				return nil, dynamo.Buildf("joint", v, dynamo.ErrDuplicateVar,
					"claimed by more than one member equation")
			}
			varPos[v] = len(vars)
			vars = append(vars, v)
		}
	}

	paramPos := make(map[string]int)
	var params []string
	plans := make([]memberPlan, len(eqs))
	for i, eq := range eqs {
		plan := memberPlan{eq: eq, vars: make([]int, len(eq.sig.Vars))}
		for j, v := range eq.sig.Vars {
			plan.vars[j] = varPos[v]
		}
		for _, p := range eq.sig.Params {
			if vi, ok := varPos[p]; ok {
				plan.params = append(plan.params, argSource{fromVars: true, idx: vi})
				continue
			}
			pi, ok := paramPos[p]
			if !ok {
				pi = len(params)
				paramPos[p] = pi
				params = append(params, p)
			}
			plan.params = append(plan.params, argSource{idx: pi})
		}
		plans[i] = plan
	}

	sig := Signature{Vars: vars, Time: timeName, Params: params}
	if err := checkSignature(sig); err != nil {
		return nil, err
	}

	total := len(vars)
	f := func(vs []dynamo.Vec, t float64, ps []dynamo.Vec) []dynamo.Vec {
		out := make([]dynamo.Vec, 0, total)
		for _, plan := range plans {
			mv := make([]dynamo.Vec, len(plan.vars))
			for j, idx := range plan.vars {
				mv[j] = vs[idx]
			}
			mp := make([]dynamo.Vec, len(plan.params))
			for j, src := range plan.params {
				if src.fromVars {
					mp[j] = vs[src.idx]
				} else {
					mp[j] = ps[src.idx]
				}
			}
			d := plan.eq.f(mv, t, mp)
			if len(d) != len(plan.vars) {
				panic(fmt.Errorf("%w: member %v returned %d derivatives", dynamo.ErrShape, plan.eq.sig.Vars, len(d)))
			}
			out = append(out, d...)
		}
		return out
	}

	return &Equation{sig: sig, f: f, members: append([]*Equation(nil), eqs...)}, nil
}
