package linalg

import (
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

func Min[T Number](x, y T) T {
	if x < y {
		return x
	}
	return y
}

func Max[T Number](x, y T) T {
	if x > y {
		return x
	}
	return y
}

// Dot computes the inner product of x and y in float64.
func Dot[T Number](x, y []T) float64 {
	dot := 0.0

	i := 0
	for ; i < len(x)%4; i++ {
		dot += float64(x[i]) * float64(y[i])
	}

	for ; i < len(x); i += 4 {
		mul0 := float64(x[i+0]) * float64(y[i+0])
		mul1 := float64(x[i+1]) * float64(y[i+1])
		mul2 := float64(x[i+2]) * float64(y[i+2])
		mul3 := float64(x[i+3]) * float64(y[i+3])
		dot += mul0 + mul1 + mul2 + mul3
	}

	return dot
}

// DotF64 computes the inner product of a feature vector and a float64
// coefficient vector. Hash projections run against float64 planes, so this
// avoids materializing a converted copy of the feature.
func DotF64[T Number](x []T, y []float64) float64 {
	dot := 0.0

	i := 0
	for ; i < len(x)%4; i++ {
		dot += float64(x[i]) * y[i]
	}

	for ; i < len(x); i += 4 {
		mul0 := float64(x[i+0]) * y[i+0]
		mul1 := float64(x[i+1]) * y[i+1]
		mul2 := float64(x[i+2]) * y[i+2]
		mul3 := float64(x[i+3]) * y[i+3]
		dot += mul0 + mul1 + mul2 + mul3
	}

	return dot
}

// SqL2 computes the squared euclidean distance between x and y.
func SqL2[T Number](x, y []T) float64 {
	dist := 0.0

	i := 0
	for ; i < len(x)%4; i++ {
		diff := float64(x[i]) - float64(y[i])
		dist += diff * diff
	}

	for ; i < len(x); i += 4 {
		diff0 := float64(x[i+0]) - float64(y[i+0])
		diff1 := float64(x[i+1]) - float64(y[i+1])
		diff2 := float64(x[i+2]) - float64(y[i+2])
		diff3 := float64(x[i+3]) - float64(y[i+3])
		dist += diff0*diff0 + diff1*diff1 + diff2*diff2 + diff3*diff3
	}

	return dist
}

// SqNorm computes the squared euclidean norm of x.
func SqNorm[T Number](x []T) float64 {
	return Dot(x, x)
}
