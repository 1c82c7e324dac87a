// Package dataset generates and serializes the point sets the index is
// exercised with. The core trusts already-validated slices; this package is
// the boundary where files and generated samples are checked.
package dataset

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ar90n/privamaam"
	"github.com/ar90n/privamaam/linalg"
)

// Generate draws n vectors of dimension dim with i.i.d. Gaussian
// coordinates of standard deviation sigma.
func Generate[T constraints.Float](n, dim int, sigma float64, rng *rand.Rand) ([][]T, error) {
	if n <= 0 {
		return nil, errors.Wrapf(privamaam.ErrConfiguration, "sample count must be positive: %d", n)
	}
	if dim <= 0 {
		return nil, errors.Wrapf(privamaam.ErrConfiguration, "dimension must be positive: %d", dim)
	}
	if sigma <= 0 {
		return nil, errors.Wrapf(privamaam.ErrConfiguration, "sigma must be positive: %f", sigma)
	}

	normal := distuv.Normal{Mu: 0.0, Sigma: sigma, Src: rng}
	features := make([][]T, n)
	for i := range features {
		feature := make([]T, dim)
		for j := range feature {
			feature[j] = T(normal.Rand())
		}
		features[i] = feature
	}

	return features, nil
}

// Normalize scales every vector onto the unit sphere in place. A zero
// vector cannot be normalized and is reported as a numeric error.
func Normalize[T constraints.Float](features [][]T) error {
	for i, feature := range features {
		norm := math.Sqrt(linalg.SqNorm(feature))
		if norm == 0 {
			return errors.Wrapf(privamaam.ErrNumeric, "vector %d has zero norm", i)
		}

		inv := 1.0 / norm
		for j := range feature {
			feature[j] = T(float64(feature[j]) * inv)
		}
	}
	return nil
}

// Validate checks that every vector has the expected dimension and only
// finite coordinates.
func Validate[T constraints.Float](features [][]T, dim int) error {
	for i, feature := range features {
		if len(feature) != dim {
			return errors.Wrapf(privamaam.ErrConfiguration, "vector %d: dimension mismatch: expected %d, got %d", i, dim, len(feature))
		}
		for j, v := range feature {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return errors.Wrapf(privamaam.ErrNumeric, "vector %d: coordinate %d is %f", i, j, f)
			}
		}
	}
	return nil
}

// Save writes features as a little-endian stream with a (count, dim)
// header. The element width is T's, so readers must load with the same
// element type.
func Save[T constraints.Float](w io.Writer, features [][]T) error {
	if len(features) == 0 {
		return errors.Wrap(privamaam.ErrConfiguration, "nothing to save")
	}

	dim := len(features[0])
	if err := Validate(features, dim); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(features))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
		return err
	}
	for _, feature := range features {
		if err := binary.Write(w, binary.LittleEndian, feature); err != nil {
			return err
		}
	}

	return nil
}

// Load reads a stream written by Save and validates it.
func Load[T constraints.Float](r io.Reader) ([][]T, error) {
	var count, dim uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, err
	}
	if count == 0 || dim == 0 {
		return nil, errors.Wrapf(privamaam.ErrConfiguration, "invalid header: count=%d dim=%d", count, dim)
	}

	features := make([][]T, count)
	for i := range features {
		feature := make([]T, dim)
		if err := binary.Read(r, binary.LittleEndian, feature); err != nil {
			return nil, err
		}
		features[i] = feature
	}

	if err := Validate(features, int(dim)); err != nil {
		return nil, err
	}
	return features, nil
}
