package privamaam

import (
	"github.com/cockroachdb/errors"

	"github.com/ar90n/privamaam/dp"
)

var (
	// ErrConfiguration marks invalid build-time parameters: bad dimension,
	// metric, hash counts or an empty dataset.
	ErrConfiguration = errors.New("invalid index configuration")

	// ErrNumeric marks non-finite input coordinates. NaN and Inf are
	// rejected at the build and query boundaries rather than propagated
	// into hash or noise computations.
	ErrNumeric = errors.New("non-finite value in input")
)

// Query-time privacy failures, re-exported so callers can match the whole
// taxonomy against one package.
var (
	ErrPrivacyConfiguration = dp.ErrPrivacyConfiguration
	ErrEmptyCandidateSet    = dp.ErrEmptyCandidateSet
)
