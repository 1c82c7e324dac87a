package metric

import (
	"math"

	"github.com/ar90n/privamaam/linalg"
)

// Kind names a supported metric on the public configuration surface.
type Kind string

const (
	Euclidean Kind = "euclidean"
	Angular   Kind = "angular"
)

type Metric[T linalg.Number] interface {
	CalcDistance(a []T, b []T) float64
}

type SqL2Dist[T linalg.Number] struct {
}

func (em SqL2Dist[T]) CalcDistance(lhs, rhs []T) float64 {
	return linalg.SqL2(lhs, rhs)
}

type CosineDist[T linalg.Number] struct {
}

func (cd CosineDist[T]) CalcDistance(lhs, rhs []T) float64 {
	norm := math.Sqrt(linalg.SqNorm(lhs) * linalg.SqNorm(rhs))
	if norm == 0 {
		return 1.0
	}
	return 1.0 - linalg.Dot(lhs, rhs)/norm
}

// For returns the distance used to evaluate answers under kind. The second
// return is false for an unsupported kind.
func For[T linalg.Number](kind Kind) (Metric[T], bool) {
	switch kind {
	case Euclidean:
		return SqL2Dist[T]{}, true
	case Angular:
		return CosineDist[T]{}, true
	}
	return nil, false
}
