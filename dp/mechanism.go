// Package dp implements the report-noisy-max selection mechanism and the
// privacy accounting behind it. The mechanism is purely functional: given
// scores, parameters and a randomness source it returns one candidate index.
package dp

import (
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrPrivacyConfiguration marks invalid (epsilon, delta) or noise
	// settings. The mechanism fails closed instead of weakening the budget.
	ErrPrivacyConfiguration = errors.New("invalid privacy configuration")

	// ErrEmptyCandidateSet marks a selection over an empty universe.
	ErrEmptyCandidateSet = errors.New("empty candidate set")
)

// Noise picks the distribution the selector perturbs scores with.
type Noise uint8

const (
	// Laplace gives pure epsilon-DP with scale 2*sensitivity/epsilon.
	Laplace Noise = iota
	// Gumbel makes the noisy arg-max equivalent to the exponential
	// mechanism at the same scale.
	Gumbel
	// Gaussian covers the (epsilon, delta>0) regime with
	// sigma = (2*sensitivity/epsilon) * sqrt(2*ln(1.25/delta)).
	Gaussian
)

func (n Noise) String() string {
	switch n {
	case Laplace:
		return "laplace"
	case Gumbel:
		return "gumbel"
	case Gaussian:
		return "gaussian"
	}
	return "unknown"
}

// ParseNoise maps a configuration string onto a Noise kind.
func ParseNoise(s string) (Noise, error) {
	switch s {
	case "laplace":
		return Laplace, nil
	case "gumbel":
		return Gumbel, nil
	case "gaussian":
		return Gaussian, nil
	}
	return 0, errors.Wrapf(ErrPrivacyConfiguration, "unknown noise kind %q", s)
}

// Params fixes the privacy budget of a single top-1 query.
type Params struct {
	Epsilon float64
	Delta   float64
	Noise   Noise
}

func (p Params) Validate() error {
	if !(0 < p.Epsilon) || math.IsInf(p.Epsilon, 0) {
		return errors.Wrapf(ErrPrivacyConfiguration, "epsilon must be positive and finite: %f", p.Epsilon)
	}
	if !(0 <= p.Delta && p.Delta < 1) {
		return errors.Wrapf(ErrPrivacyConfiguration, "delta must be in [0, 1): %f", p.Delta)
	}

	switch p.Noise {
	case Laplace, Gumbel:
	case Gaussian:
		if p.Delta == 0 {
			return errors.Wrap(ErrPrivacyConfiguration, "gaussian noise requires delta > 0")
		}
	default:
		return errors.Wrapf(ErrPrivacyConfiguration, "unknown noise kind: %d", p.Noise)
	}

	return nil
}

// Selection is the outcome of one noisy arg-max draw.
type Selection struct {
	Index      int
	Score      float64
	NoisyScore float64
}

// SelectTop1 draws one independent noise sample per candidate in the
// universe 0..n-1, adds it to the candidate's score (implicitly zero for
// candidates absent from scores) and returns the arg-max. Exact ties after
// noise break to the lowest index; for continuous noise they occur with
// probability zero and do not affect the guarantee.
//
// The caller owns rng and must hand an independent stream to every query;
// sharing a stream position across queries correlates their noise.
func SelectTop1(scores map[uint32]uint32, n int, p Params, rng *rand.Rand) (Selection, error) {
	if err := p.Validate(); err != nil {
		return Selection{}, err
	}
	if n <= 0 {
		return Selection{}, errors.Wrapf(ErrEmptyCandidateSet, "candidate universe has %d points", n)
	}

	sampler, err := newSampler(p, rng)
	if err != nil {
		return Selection{}, err
	}

	best := Selection{Index: -1, NoisyScore: math.Inf(-1)}
	for i := 0; i < n; i++ {
		score := float64(scores[uint32(i)])
		noisy := score + sampler.Rand()
		if best.NoisyScore < noisy {
			best = Selection{Index: i, Score: score, NoisyScore: noisy}
		}
	}

	return best, nil
}

func newSampler(p Params, src rand.Source) (interface{ Rand() float64 }, error) {
	scale, err := noiseScale(p.Epsilon, p.Delta, p.Noise)
	if err != nil {
		return nil, err
	}

	switch p.Noise {
	case Laplace:
		return distuv.Laplace{Mu: 0.0, Scale: scale, Src: src}, nil
	case Gumbel:
		return distuv.GumbelRight{Mu: 0.0, Beta: scale, Src: src}, nil
	case Gaussian:
		return distuv.Normal{Mu: 0.0, Sigma: scale, Src: src}, nil
	}
	return nil, errors.Wrapf(ErrPrivacyConfiguration, "unknown noise kind: %d", p.Noise)
}
