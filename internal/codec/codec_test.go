package codec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bellman/internal/codec"
)

var _ = Describe("Codec", func() {
	Describe("Size", func() {
		It("multiplies the dimension sizes", func() {
			Expect(codec.Size([]int{5, 5, 5, 5, 5, 5})).To(Equal(15625))
			Expect(codec.Size([]int{7})).To(Equal(7))
		})

		It("rejects empty and non-positive dimensions", func() {
			_, err := codec.Size(nil)
			Expect(err).To(MatchError(codec.ErrEmptyDims))
			_, err = codec.Size([]int{3, 0})
			Expect(err).To(MatchError(codec.ErrDimensionSize))
		})
	})

	Describe("Encode", func() {
		It("treats the first dimension as least significant", func() {
			dims := []int{3, 4, 5}
			Expect(codec.Encode([]int{0, 0, 0}, dims)).To(Equal(0))
			Expect(codec.Encode([]int{1, 0, 0}, dims)).To(Equal(1))
			Expect(codec.Encode([]int{0, 1, 0}, dims)).To(Equal(3))
			Expect(codec.Encode([]int{0, 0, 1}, dims)).To(Equal(12))
			Expect(codec.Encode([]int{2, 3, 4}, dims)).To(Equal(59))
		})

		It("rejects coordinates outside their dimension", func() {
			_, err := codec.Encode([]int{3, 0}, []int{3, 3})
			Expect(err).To(MatchError(codec.ErrCoordinateRange))
			_, err = codec.Encode([]int{0, -1}, []int{3, 3})
			Expect(err).To(MatchError(codec.ErrCoordinateRange))
		})

		It("rejects mismatched lengths", func() {
			_, err := codec.Encode([]int{1}, []int{3, 3})
			Expect(err).To(MatchError(codec.ErrDimensionMismatch))
		})
	})

	Describe("Decode", func() {
		It("splits an index with repeated mod and div", func() {
			Expect(codec.Decode(59, []int{3, 4, 5})).To(Equal([]int{2, 3, 4}))
			Expect(codec.Decode(13, []int{3, 4, 5})).To(Equal([]int{1, 0, 1}))
		})

		It("rejects indices outside the space", func() {
			_, err := codec.Decode(60, []int{3, 4, 5})
			Expect(err).To(MatchError(codec.ErrIndexRange))
			_, err = codec.Decode(-1, []int{3, 4, 5})
			Expect(err).To(MatchError(codec.ErrIndexRange))
		})
	})

	DescribeTable("round trips every coordinate tuple",
		func(dims []int) {
			c, err := codec.New(dims...)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < c.Size(); i++ {
				coords, err := c.Decode(i)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.Encode(coords...)).To(Equal(i))

				back, err := c.Decode(i)
				Expect(err).NotTo(HaveOccurred())
				Expect(back).To(Equal(coords))
			}
		},
		Entry("single dimension", []int{9}),
		Entry("square grid", []int{4, 4}),
		Entry("mixed radix", []int{2, 3, 5, 7}),
		Entry("grid-boi layout", []int{3, 2, 3, 2, 3, 2}),
		Entry("unit dimensions", []int{1, 4, 1}),
	)

	It("copies the dimension slice", func() {
		dims := []int{2, 2}
		c, err := codec.New(dims...)
		Expect(err).NotTo(HaveOccurred())
		dims[0] = 9
		Expect(c.Dims()).To(Equal([]int{2, 2}))
		Expect(c.Size()).To(Equal(4))
	})
})
