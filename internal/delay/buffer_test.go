package delay_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/neurodyn/internal/delay"
	"github.com/san-kum/neurodyn/internal/dynamo"
)

var _ = Describe("Buffer", func() {
	Describe("uniform delay", func() {
		DescribeTable("depth is ceil(delay/dt)+1",
			func(d, dt float64, depth int) {
				b, err := delay.New[float64]([]int{2}, delay.Uniform(d), dt)
				Expect(err).NotTo(HaveOccurred())
				Expect(b.Depth()).To(Equal(depth))
				Expect(b.Uniform()).To(BeTrue())
			},
			Entry("whole steps", 3.0, 1.0, 4),
			Entry("fractional lag rounds up", 2.5, 1.0, 4),
			Entry("no delay", 0.0, 0.1, 1),
			Entry("sub-step lag", 0.05, 0.1, 2),
		)

		It("returns the first pushed value after depth-1 updates", func() {
			const depth = 5
			b, err := delay.New[float64]([]int{3}, delay.Uniform(depth-1), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Depth()).To(Equal(depth))

			for k := 0; k < depth; k++ {
				v := float64(k)
				Expect(b.Push([]float64{v, 10 + v, 20 + v})).To(Succeed())
				if k < depth-1 {
					b.Update()
				}
			}
			Expect(b.Pull()).To(Equal([]float64{0, 10, 20}))
			Expect(b.Oldest()).To(Equal(b.Pull()))
			Expect(b.Latest()).To(Equal([]float64{4, 14, 24}))
		})

		It("delays a stream by depth-1 steps when pulled before pushing", func() {
			b, err := delay.New[float64]([]int{1}, delay.Uniform(2), 1)
			Expect(err).NotTo(HaveOccurred())

			var got []float64
			for k := 1; k <= 6; k++ {
				got = append(got, b.At(0))
				Expect(b.Push([]float64{float64(k)})).To(Succeed())
				b.Update()
			}
			Expect(got).To(Equal([]float64{0, 0, 1, 2, 3, 4}))
		})

		It("leaves stored values alone on update", func() {
			b, err := delay.New[float64]([]int{1}, delay.Uniform(1), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Push([]float64{7})).To(Succeed())
			b.Update()
			b.Update()
			Expect(b.Latest()).To(Equal([]float64{7}))
		})

		It("works for non-numeric element types", func() {
			b, err := delay.New[bool]([]int{2}, delay.Uniform(1), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Push([]bool{true, false})).To(Succeed())
			b.Update()
			Expect(b.Pull()).To(Equal([]bool{true, false}))
		})
	})

	Describe("per-element delay", func() {
		It("gives each element its own lag", func() {
			b, err := delay.New[float64]([]int{2}, delay.PerElement(1, 3), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Uniform()).To(BeFalse())
			Expect(b.Depths()).To(Equal([]int{2, 4}))
			Expect(b.Depth()).To(Equal(4))

			var first, second []float64
			for k := 1; k <= 8; k++ {
				out := b.Pull()
				first = append(first, out[0])
				second = append(second, out[1])
				Expect(b.Push([]float64{float64(k), float64(100 + k)})).To(Succeed())
				b.Update()
			}
			Expect(first).To(Equal([]float64{0, 1, 2, 3, 4, 5, 6, 7}))
			Expect(second).To(Equal([]float64{0, 0, 0, 101, 102, 103, 104, 105}))
		})

		It("rounds half to even", func() {
			b, err := delay.New[float64]([]int{3}, delay.PerElement(0.5, 1.5, 2.5), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Depths()).To(Equal([]int{1, 3, 3}))
		})

		It("treats a zero lag as no history", func() {
			b, err := delay.New[float64]([]int{2}, delay.PerElement(0, 0), 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Depths()).To(Equal([]int{1, 1}))
			Expect(b.Push([]float64{3, 4})).To(Succeed())
			Expect(b.Pull()).To(Equal([]float64{3, 4}))
		})
	})

	Describe("Reset", func() {
		for _, d := range []delay.Delay{delay.Uniform(3), delay.PerElement(3, 3)} {
			It("restores the power-on state", func() {
				b, err := delay.New[float64]([]int{2}, d, 1)
				Expect(err).NotTo(HaveOccurred())
				for k := 0; k < 7; k++ {
					Expect(b.Push([]float64{1, 2})).To(Succeed())
					b.Update()
				}

				b.Reset()
				for k := 0; k < b.Depth(); k++ {
					Expect(b.Pull()).To(Equal([]float64{0, 0}))
					b.Update()
				}

				b.Reset()
				Expect(b.Push([]float64{5, 6})).To(Succeed())
				for k := 0; k < b.Depth()-1; k++ {
					Expect(b.Pull()).To(Equal([]float64{0, 0}))
					b.Update()
				}
				Expect(b.Pull()).To(Equal([]float64{5, 6}))
			})
		}
	})

	Describe("Fill", func() {
		It("sets a constant history", func() {
			b, err := delay.New[float64]([]int{1}, delay.Uniform(2), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Fill([]float64{1.2})).To(Succeed())
			Expect(b.Pull()).To(Equal([]float64{1.2}))
			Expect(b.Fill([]float64{1, 2})).To(MatchError(dynamo.ErrShape))
		})
	})

	Describe("construction and shape errors", func() {
		DescribeTable("rejects",
			func(size []int, d delay.Delay, dt float64) {
				_, err := delay.New[float64](size, d, dt)
				Expect(err).To(MatchError(dynamo.ErrShape))
				Expect(err).To(MatchError(dynamo.ErrBuild))
			},
			Entry("empty size", []int{}, delay.Uniform(1), 0.1),
			Entry("zero dimension", []int{0}, delay.Uniform(1), 0.1),
			Entry("negative dimension", []int{3, -1}, delay.Uniform(1), 0.1),
			Entry("zero dt", []int{3}, delay.Uniform(1), 0.0),
			Entry("negative delay", []int{3}, delay.Uniform(-1), 0.1),
			Entry("multi-dimensional per-element", []int{2, 2}, delay.PerElement(1, 2), 0.1),
			Entry("delay count mismatch", []int{3}, delay.PerElement(1, 2), 0.1),
			Entry("negative element delay", []int{2}, delay.PerElement(1, -2), 0.1),
		)

		It("rejects a push of the wrong length", func() {
			b, err := delay.New[float64]([]int{2, 3}, delay.Uniform(1), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Len()).To(Equal(6))
			Expect(b.Size()).To(Equal([]int{2, 3}))
			Expect(b.Push([]float64{1, 2})).To(MatchError(dynamo.ErrShape))
		})
	})

	It("exposes a read-only view", func() {
		b, err := delay.New[float64]([]int{1}, delay.Uniform(0), 1)
		Expect(err).NotTo(HaveOccurred())
		var r delay.Reader[float64] = b
		Expect(b.Push([]float64{9})).To(Succeed())
		Expect(r.At(0)).To(Equal(9.0))
		Expect(r.Len()).To(Equal(1))
	})
})
