package integrators

import (
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
)

type boundDelay struct {
	name string
	idx  int
	buf  StateDelay
}

// DDE integrates delay differential equations with an explicit tableau.
// The derivative function reads past values through delay buffers it
// closes over; after every step the new value of each registered state
// delay is pushed into its buffer. Advancing the buffers is left to the
// runner, which updates them once per step after all systems have moved.
type DDE struct {
	RK
	delays []boundDelay
}

// DDEInt builds a delay integrator. Any fixed-step explicit method may be
// used.
func DDEInt(eq *equation.Equation, opts ...Option) (*DDE, error) {
	o := resolve(opts)
	if err := o.validate(eq); err != nil {
		return nil, err
	}
	if !isExplicit(o.method) {
		return nil, dynamo.Buildf("ddeint", o.method, dynamo.ErrUnknownMethod, "no explicit tableau registered")
	}

	d := &DDE{RK: RK{base: newBase(eq, o)}}
	seen := make(map[string]bool, len(o.delays))
	for _, nd := range o.delays {
		idx := eq.VarIndex(nd.name)
		switch {
		case idx < 0:
			return nil, dynamo.Buildf("ddeint", nd.name, dynamo.ErrBuild, "state delay names no variable")
		case nd.buf == nil:
			return nil, dynamo.Buildf("ddeint", nd.name, dynamo.ErrBuild, "nil delay buffer")
		case seen[nd.name]:
			return nil, dynamo.Buildf("ddeint", nd.name, dynamo.ErrDuplicateVar, "state delay registered twice")
		}
		seen[nd.name] = true
		d.delays = append(d.delays, boundDelay{name: nd.name, idx: idx, buf: nd.buf})
	}

	tb, err := tableauFor(o)
	if err != nil {
		return nil, err
	}
	d.tableau = tb
	if err := d.build(tb, o); err != nil {
		return nil, err
	}
	return d, nil
}

// StateDelays lists the variables whose history is recorded.
func (d *DDE) StateDelays() []string {
	names := make([]string, len(d.delays))
	for i, bd := range d.delays {
		names[i] = bd.name
	}
	return names
}

func (d *DDE) Step(vars []dynamo.Vec, t float64, params []dynamo.Vec) []dynamo.Vec {
	return d.StepDt(vars, t, params, d.dt)
}

func (d *DDE) StepDt(vars []dynamo.Vec, t float64, params []dynamo.Vec, dt float64) []dynamo.Vec {
	out := d.RK.StepDt(vars, t, params, dt)
	for _, bd := range d.delays {
		if err := bd.buf.Push(out[bd.idx]); err != nil {
			d.logger.Warn("state delay push failed", "var", bd.name, "t", t, "err", err)
		}
	}
	return out
}
