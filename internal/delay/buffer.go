package delay

import (
	"math"

	"github.com/san-kum/neurodyn/internal/dynamo"
)

// Delay is either one lag shared by every element or one lag per element.
type Delay struct {
	uniform bool
	value   float64
	values  []float64
}

// Uniform is a single lag applied to every element.
func Uniform(d float64) Delay { return Delay{uniform: true, value: d} }

// PerElement gives each element of a one-dimensional signal its own lag.
func PerElement(ds ...float64) Delay {
	return Delay{values: append([]float64(nil), ds...)}
}

// Reader is the read side of a buffer, for consumers that do not own it.
type Reader[T any] interface {
	Pull() []T
	Oldest() []T
	Latest() []T
	At(i int) T
	Len() int
}

// Buffer is a fixed-depth ring of past values of a signal.
//
// A value pushed in one step is returned by Pull after depth-1 calls to
// Update. With a uniform delay every element shares one read and one
// write index; with per-element delays each element has its own depth
// and index pair inside a shared ring of the largest depth.
//
// Only the owner should call Push, Update and Reset. Hand other
// components the [Reader] view.
type Buffer[T any] struct {
	size    []int
	n       int
	uniform bool
	depth   int
	depths  []int
	data    [][]T

	inIdx, outIdx   int
	inIdxs, outIdxs []int
}

// New allocates a buffer for a signal of the given shape. The uniform
// depth is ceil(delay/dt)+1; a per-element depth is round(delay_i/dt)+1,
// rounding half to even. Depths are never less than one.
func New[T any](size []int, d Delay, dt float64) (*Buffer[T], error) {
	if len(size) == 0 {
		return nil, dynamo.Buildf("delay", "", dynamo.ErrShape, "empty size")
	}
	n := 1
	for _, s := range size {
		if s <= 0 {
			return nil, dynamo.Buildf("delay", "", dynamo.ErrShape, "size %v has a non-positive dimension", size)
		}
		n *= s
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, dynamo.Buildf("delay", "", dynamo.ErrShape, "dt must be positive and finite, got %v", dt)
	}

	b := &Buffer[T]{size: append([]int(nil), size...), n: n, uniform: d.uniform}
	if d.uniform {
		if err := checkLag(d.value); err != nil {
			return nil, err
		}
		b.depth = max(int(math.Ceil(d.value/dt))+1, 1)
		b.depths = []int{b.depth}
	} else {
		if len(size) != 1 {
			return nil, dynamo.Buildf("delay", "", dynamo.ErrShape,
				"per-element delays need a one-dimensional signal, got size %v", size)
		}
		if len(d.values) != size[0] {
			return nil, dynamo.Buildf("delay", "", dynamo.ErrShape,
				"%d delays for %d elements", len(d.values), size[0])
		}
		b.depths = make([]int, n)
		for i, lag := range d.values {
			if err := checkLag(lag); err != nil {
				return nil, err
			}
			b.depths[i] = max(int(math.RoundToEven(lag/dt))+1, 1)
			b.depth = max(b.depth, b.depths[i])
		}
		b.inIdxs = make([]int, n)
		b.outIdxs = make([]int, n)
	}

	b.data = make([][]T, b.depth)
	for i := range b.data {
		b.data[i] = make([]T, n)
	}
	b.Reset()
	return b, nil
}

func checkLag(d float64) error {
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return dynamo.Buildf("delay", "", dynamo.ErrShape, "delay must be finite and non-negative, got %v", d)
	}
	return nil
}

// Push writes v into the current write slot.
func (b *Buffer[T]) Push(v []T) error {
	if len(v) != b.n {
		return dynamo.Buildf("delay push", "", dynamo.ErrShape, "got %d values, want %d", len(v), b.n)
	}
	if b.uniform {
		copy(b.data[b.inIdx], v)
		return nil
	}
	for i, x := range v {
		b.data[b.inIdxs[i]][i] = x
	}
	return nil
}

// Pull returns the delayed value.
func (b *Buffer[T]) Pull() []T {
	out := make([]T, b.n)
	if b.uniform {
		copy(out, b.data[b.outIdx])
		return out
	}
	for i := range out {
		out[i] = b.data[b.outIdxs[i]][i]
	}
	return out
}

// Oldest is Pull.
func (b *Buffer[T]) Oldest() []T { return b.Pull() }

// Latest returns the contents of the write slot without advancing.
func (b *Buffer[T]) Latest() []T {
	out := make([]T, b.n)
	if b.uniform {
		copy(out, b.data[b.inIdx])
		return out
	}
	for i := range out {
		out[i] = b.data[b.inIdxs[i]][i]
	}
	return out
}

// At returns the delayed value of element i.
func (b *Buffer[T]) At(i int) T {
	if b.uniform {
		return b.data[b.outIdx][i]
	}
	return b.data[b.outIdxs[i]][i]
}

// Update advances the read and write indices by one slot. Stored values
// are untouched.
func (b *Buffer[T]) Update() {
	if b.uniform {
		b.inIdx = (b.inIdx + 1) % b.depth
		b.outIdx = (b.outIdx + 1) % b.depth
		return
	}
	for i, d := range b.depths {
		b.inIdxs[i] = (b.inIdxs[i] + 1) % d
		b.outIdxs[i] = (b.outIdxs[i] + 1) % d
	}
}

// Reset zeroes the storage and restores the initial indices: write at
// depth-1, read at 0.
func (b *Buffer[T]) Reset() {
	var zero T
	for _, row := range b.data {
		for i := range row {
			row[i] = zero
		}
	}
	if b.uniform {
		b.inIdx, b.outIdx = b.depth-1, 0
		return
	}
	for i, d := range b.depths {
		b.inIdxs[i], b.outIdxs[i] = d-1, 0
	}
}

// Fill sets every slot to v, giving the buffer a constant history. It
// does not move the indices.
func (b *Buffer[T]) Fill(v []T) error {
	if len(v) != b.n {
		return dynamo.Buildf("delay fill", "", dynamo.ErrShape, "got %d values, want %d", len(v), b.n)
	}
	for _, row := range b.data {
		copy(row, v)
	}
	return nil
}

// Depth is the number of slots in the ring, the largest element depth.
func (b *Buffer[T]) Depth() int { return b.depth }

// Depths returns the depth of each element, or the single shared depth
// of a uniform buffer.
func (b *Buffer[T]) Depths() []int { return append([]int(nil), b.depths...) }

func (b *Buffer[T]) Size() []int   { return append([]int(nil), b.size...) }
func (b *Buffer[T]) Len() int      { return b.n }
func (b *Buffer[T]) Uniform() bool { return b.uniform }
