// Package lshash samples locality-sensitive hash functions. A sampled
// function maps a feature vector to a discrete code; closer vectors collide
// with higher probability under the family's metric.
package lshash

import (
	"encoding/gob"
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ar90n/privamaam"
	"github.com/ar90n/privamaam/linalg"
	"github.com/ar90n/privamaam/metric"
)

// DefaultBucketWidth is the projection quantization width used by the
// p-stable family when the caller does not pick one. Wider buckets raise
// collision probability across the board; the LSH gap between near and far
// pairs is preserved for any positive width.
const DefaultBucketWidth = 4.0

// Func is one sampled hash function. Implementations evaluate in O(d) and
// are immutable after sampling.
type Func[T linalg.Number] interface {
	Hash(feature []T) uint64
}

// Family samples hash functions for a fixed dimension. Sampling consumes
// only the supplied generator, so a seeded generator reproduces the exact
// same functions.
type Family[T linalg.Number] interface {
	Dim() int
	Sample(rng *rand.Rand) Func[T]
}

// ForMetric returns the hash family matching kind: p-stable projections for
// euclidean distance, hyperplane signs for angular distance.
func ForMetric[T linalg.Number](kind metric.Kind, dim int, width float64) (Family[T], error) {
	switch kind {
	case metric.Euclidean:
		return NewPStableFamily[T](dim, width)
	case metric.Angular:
		return NewSignFamily[T](dim)
	}
	return nil, errors.Wrapf(privamaam.ErrConfiguration, "unsupported metric %q", kind)
}

// PStableFamily samples hash functions of the form
// floor((a.x + b) / w) with a drawn from a standard Gaussian,
// following Datar et al., "Locality-Sensitive Hashing Scheme Based on
// p-Stable Distributions".
type PStableFamily[T linalg.Number] struct {
	dim   int
	width float64
}

func NewPStableFamily[T linalg.Number](dim int, width float64) (*PStableFamily[T], error) {
	if dim <= 0 {
		return nil, errors.Wrapf(privamaam.ErrConfiguration, "dimension must be positive: %d", dim)
	}
	if width <= 0 {
		return nil, errors.Wrapf(privamaam.ErrConfiguration, "bucket width must be positive: %f", width)
	}

	return &PStableFamily[T]{dim: dim, width: width}, nil
}

func (f *PStableFamily[T]) Dim() int {
	return f.dim
}

func (f *PStableFamily[T]) Sample(rng *rand.Rand) Func[T] {
	normal := distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: rng}
	plane := make([]float64, f.dim)
	for i := range plane {
		plane[i] = normal.Rand()
	}

	return &PStableFunc[T]{
		Plane:  plane,
		Offset: rng.Float64() * f.width,
		Width:  f.width,
	}
}

type PStableFunc[T linalg.Number] struct {
	Plane  []float64
	Offset float64
	Width  float64
}

func (h *PStableFunc[T]) Hash(feature []T) uint64 {
	projected := (linalg.DotF64(feature, h.Plane) + h.Offset) / h.Width
	return uint64(int64(math.Floor(projected)))
}

// SignFamily samples random hyperplanes through the origin; the hash is the
// side of the plane the feature falls on. Collision probability is
// 1 - angle/pi, which is monotone in angular distance.
type SignFamily[T linalg.Number] struct {
	dim int
}

func NewSignFamily[T linalg.Number](dim int) (*SignFamily[T], error) {
	if dim <= 0 {
		return nil, errors.Wrapf(privamaam.ErrConfiguration, "dimension must be positive: %d", dim)
	}

	return &SignFamily[T]{dim: dim}, nil
}

func (f *SignFamily[T]) Dim() int {
	return f.dim
}

func (f *SignFamily[T]) Sample(rng *rand.Rand) Func[T] {
	normal := distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: rng}
	plane := make([]float64, f.dim)
	for i := range plane {
		plane[i] = normal.Rand()
	}

	return &SignFunc[T]{Plane: plane}
}

type SignFunc[T linalg.Number] struct {
	Plane []float64
}

func (h *SignFunc[T]) Hash(feature []T) uint64 {
	if 0.0 <= linalg.DotF64(feature, h.Plane) {
		return 1
	}
	return 0
}

// Register registers the concrete hash function types for gob so indexes
// holding them can be serialized. Call before encoding or decoding.
func Register[T linalg.Number]() {
	gob.Register(&PStableFunc[T]{})
	gob.Register(&SignFunc[T]{})
}
