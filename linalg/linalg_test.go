package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Dot(t *testing.T) {
	type TestCase struct {
		Name string
		X, Y []float32
		Want float64
	}

	testCases := []TestCase{
		{
			Name: "long",
			X:    []float32{15, 6, 1, 12, 13, 9, 15, 18, 14, 6, 17, 16, 1, 3, 3, 9, 5, 13, 6, 20},
			Y:    []float32{9, 2, 18, 13, 10, 1, 7, 10, 8, 7, 11, 18, 5, 19, 17, 19, 15, 0, 17, 18},
			Want: 2195,
		},
		{
			Name: "remainder",
			X:    []float32{1, 2, 3},
			Y:    []float32{4, 5, 6},
			Want: 32,
		},
	}

	for _, tc := range testCases {
		assert.InEpsilon(t, tc.Want, Dot(tc.X, tc.Y), 0.0001, tc.Name)
	}
}

func Test_DotF64(t *testing.T) {
	x := []float32{1, 2, 3, 4, 5}
	y := []float64{5, 4, 3, 2, 1}
	assert.InEpsilon(t, 35.0, DotF64(x, y), 0.0001)

	u := []uint8{2, 0, 1}
	v := []float64{0.5, 1.0, -1.0}
	assert.InDelta(t, 0.0, DotF64(u, v), 1e-9)
}

func Test_SqL2(t *testing.T) {
	x := []float64{0, 0, 0, 0, 0}
	y := []float64{1, 2, 3, 4, 5}
	assert.InEpsilon(t, 55.0, SqL2(x, y), 0.0001)
	assert.Equal(t, 0.0, SqL2(y, y))
}

func Test_SqNorm(t *testing.T) {
	assert.InEpsilon(t, 25.0, SqNorm([]float64{3, 4}), 0.0001)
}
