package models

import (
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/integrators"
)

// neuron holds what every spiking population shares: the integrator, an
// input current and spike bookkeeping.
type neuron struct {
	size       int
	integ      integrators.Integrator
	input      dynamo.Vec
	spike      []bool
	tLastSpike dynamo.Vec
}

const neverSpiked = -1e7

func newNeuron(size int) neuron {
	return neuron{
		size:       size,
		input:      make(dynamo.Vec, size),
		spike:      make([]bool, size),
		tLastSpike: dynamo.Fill(size, neverSpiked),
	}
}

// detect marks upward crossings of vth between prev and next at time t.
func (n *neuron) detect(prev, next dynamo.Vec, vth, t float64) {
	for i := range n.spike {
		n.spike[i] = prev[i] < vth && next[i] >= vth
		if n.spike[i] {
			n.tLastSpike[i] = t
		}
	}
}

func (n *neuron) resetNeuron() {
	n.input.SetAll(0)
	n.tLastSpike.SetAll(neverSpiked)
	for i := range n.spike {
		n.spike[i] = false
	}
}

func (n *neuron) Size() int                          { return n.size }
func (n *neuron) Integrator() integrators.Integrator { return n.integ }
func (n *neuron) Input() dynamo.Vec                  { return n.input }

func (n *neuron) Spikes() []bool { return append([]bool(nil), n.spike...) }

func (n *neuron) spikeVec() dynamo.Vec {
	return each(n.size, func(i int) float64 {
		if n.spike[i] {
			return 1
		}
		return 0
	})
}
