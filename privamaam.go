// Package privamaam provides a linear-space approximate nearest neighbor
// index whose top-1 answers satisfy (epsilon, delta)-differential privacy.
//
// The dataset is bucketed by L tensorized locality-sensitive hash tables.
// A query accumulates per-candidate collision counts and a report-noisy-max
// mechanism perturbs those counts before the arg-max index is released, so
// the identity of the reported neighbor is differentially private with
// respect to the presence of any single stored point.
package privamaam

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"time"

	"golang.org/x/exp/rand"

	"github.com/ar90n/privamaam/dp"
	"github.com/ar90n/privamaam/linalg"
)

// QueryResult is the released answer together with its pre- and post-noise
// scores. The scores are diagnostics for the caller's evaluation layer; only
// Index is covered by the privacy guarantee.
type QueryResult struct {
	Index      int
	Score      float64
	NoisyScore float64
}

// Index is a built, read-only tensor hash structure. Implementations must be
// safe for unlimited concurrent readers.
type Index[T linalg.Number] interface {
	// Score returns the collision count per candidate position. Candidates
	// absent from the map have an implicit score of zero.
	Score(ctx context.Context, query []T) (map[uint32]uint32, error)
	// Size returns the number of stored points.
	Size() int
}

// Query answers a differentially private top-1 query with fresh randomness
// for the noise draws. Repeated calls against the same index consume privacy
// budget additively; see dp.ComposeBasic and dp.ComposeAdvanced.
func Query[T linalg.Number](ctx context.Context, index Index[T], query []T, params dp.Params) (QueryResult, error) {
	return QuerySeeded(ctx, index, query, params, RandomSeed())
}

// QuerySeeded is Query with an explicit seed for the selector's noise
// stream. Two calls with identical index, query, params and seed return
// identical results. Reusing a seed across queries correlates their noise
// and voids the per-query guarantee.
func QuerySeeded[T linalg.Number](ctx context.Context, index Index[T], query []T, params dp.Params, seed uint64) (QueryResult, error) {
	if err := params.Validate(); err != nil {
		return QueryResult{}, err
	}

	scores, err := index.Score(ctx, query)
	if err != nil {
		return QueryResult{}, err
	}

	rng := rand.New(rand.NewSource(seed))
	selection, err := dp.SelectTop1(scores, index.Size(), params, rng)
	if err != nil {
		return QueryResult{}, err
	}

	return QueryResult{
		Index:      selection.Index,
		Score:      selection.Score,
		NoisyScore: selection.NoisyScore,
	}, nil
}

// RandomSeed draws a seed from the OS entropy source.
func RandomSeed() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}
