package dp

import (
	"math"

	"github.com/cockroachdb/errors"
)

// scoreSensitivity bounds how much one changed dataset point can move any
// single candidate's collision count: the changed point occupies one bucket
// per table, so a table flip moves the count by at most one.
const scoreSensitivity = 1.0

// Calibrate returns the noise scale for one top-1 query at the given budget.
// The scale is strictly decreasing in epsilon. The number of tables bounds
// the score range but not the per-candidate sensitivity, so it does not
// enter the scale; it is validated here because a degenerate table count
// signals a miswired caller.
func Calibrate(epsilon, delta float64, tables int, noise Noise) (float64, error) {
	if tables < 1 {
		return 0, errors.Wrapf(ErrPrivacyConfiguration, "table count must be positive: %d", tables)
	}
	if err := (Params{Epsilon: epsilon, Delta: delta, Noise: noise}).Validate(); err != nil {
		return 0, err
	}

	return noiseScale(epsilon, delta, noise)
}

func noiseScale(epsilon, delta float64, noise Noise) (float64, error) {
	base := 2.0 * scoreSensitivity / epsilon
	switch noise {
	case Laplace, Gumbel:
		return base, nil
	case Gaussian:
		return base * math.Sqrt(2.0*math.Log(1.25/delta)), nil
	}
	return 0, errors.Wrapf(ErrPrivacyConfiguration, "unknown noise kind: %d", noise)
}

// ComposeBasic bounds the budget of queries independent invocations against
// the same index: epsilons and deltas add linearly.
func ComposeBasic(epsilon, delta float64, queries int) (float64, float64, error) {
	if err := validateComposition(epsilon, delta, queries); err != nil {
		return 0, 0, err
	}

	q := float64(queries)
	return q * epsilon, q * delta, nil
}

// ComposeAdvanced bounds the same composition with the Dwork-Rothblum-Vadhan
// advanced composition theorem at slack deltaSlack, falling back to the
// basic bound when that is tighter (it is for small query counts). The
// returned epsilon never drops below a single query's epsilon: a loose
// slack can push the advanced term under it, and composing can only
// consume budget, not refund it. The returned delta is
// queries*delta + deltaSlack.
func ComposeAdvanced(epsilon, delta, deltaSlack float64, queries int) (float64, float64, error) {
	if err := validateComposition(epsilon, delta, queries); err != nil {
		return 0, 0, err
	}
	if !(0 < deltaSlack && deltaSlack < 1) {
		return 0, 0, errors.Wrapf(ErrPrivacyConfiguration, "delta slack must be in (0, 1): %f", deltaSlack)
	}

	q := float64(queries)
	basic := q * epsilon
	advanced := epsilon*math.Sqrt(2.0*q*math.Log(1.0/deltaSlack)) + q*epsilon*math.Expm1(epsilon)

	return math.Max(epsilon, math.Min(basic, advanced)), q*delta + deltaSlack, nil
}

func validateComposition(epsilon, delta float64, queries int) error {
	if queries < 1 {
		return errors.Wrapf(ErrPrivacyConfiguration, "query count must be positive: %d", queries)
	}
	if !(0 < epsilon) || math.IsInf(epsilon, 0) {
		return errors.Wrapf(ErrPrivacyConfiguration, "epsilon must be positive and finite: %f", epsilon)
	}
	if !(0 <= delta && delta < 1) {
		return errors.Wrapf(ErrPrivacyConfiguration, "delta must be in [0, 1): %f", delta)
	}
	return nil
}
