package lshash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/ar90n/privamaam"
	"github.com/ar90n/privamaam/metric"
)

func Test_FamilyValidation(t *testing.T) {
	type TestCase struct {
		Name  string
		Build func() error
	}

	testCases := []TestCase{
		{
			Name: "p-stable zero dim",
			Build: func() error {
				_, err := NewPStableFamily[float64](0, DefaultBucketWidth)
				return err
			},
		},
		{
			Name: "p-stable negative dim",
			Build: func() error {
				_, err := NewPStableFamily[float64](-3, DefaultBucketWidth)
				return err
			},
		},
		{
			Name: "p-stable zero width",
			Build: func() error {
				_, err := NewPStableFamily[float64](8, 0.0)
				return err
			},
		},
		{
			Name: "sign zero dim",
			Build: func() error {
				_, err := NewSignFamily[float64](0)
				return err
			},
		},
		{
			Name: "unsupported metric",
			Build: func() error {
				_, err := ForMetric[float64](metric.Kind("hamming"), 8, DefaultBucketWidth)
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.ErrorIs(t, tc.Build(), privamaam.ErrConfiguration)
		})
	}
}

func Test_SampleIsReproducible(t *testing.T) {
	family, err := NewPStableFamily[float64](16, DefaultBucketWidth)
	require.NoError(t, err)

	lhs := family.Sample(rand.New(rand.NewSource(7)))
	rhs := family.Sample(rand.New(rand.NewSource(7)))

	feature := make([]float64, 16)
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 64; trial++ {
		for i := range feature {
			feature[i] = rng.Float64()*10 - 5
		}
		assert.Equal(t, lhs.Hash(feature), rhs.Hash(feature))
	}
}

func Test_PStableLocality(t *testing.T) {
	const dim = 8
	const samples = 300

	family, err := NewPStableFamily[float64](dim, DefaultBucketWidth)
	require.NoError(t, err)

	query := make([]float64, dim)
	near := make([]float64, dim)
	far := make([]float64, dim)
	near[0] = 0.1
	far[0] = 50.0

	rng := rand.New(rand.NewSource(42))
	nearCollisions := 0
	farCollisions := 0
	for i := 0; i < samples; i++ {
		h := family.Sample(rng)
		code := h.Hash(query)
		if h.Hash(near) == code {
			nearCollisions++
		}
		if h.Hash(far) == code {
			farCollisions++
		}
	}

	assert.Greater(t, nearCollisions, farCollisions)
	assert.Greater(t, nearCollisions, samples/2)
}

func Test_SignLocality(t *testing.T) {
	const dim = 4
	const samples = 300

	family, err := NewSignFamily[float64](dim)
	require.NoError(t, err)

	query := []float64{1, 0, 0, 0}
	aligned := []float64{0.9, 0.1, 0, 0}
	opposite := []float64{-1, 0, 0, 0}

	rng := rand.New(rand.NewSource(13))
	alignedCollisions := 0
	oppositeCollisions := 0
	for i := 0; i < samples; i++ {
		h := family.Sample(rng)
		code := h.Hash(query)
		if h.Hash(aligned) == code {
			alignedCollisions++
		}
		if h.Hash(opposite) == code {
			oppositeCollisions++
		}
	}

	// Antipodal points never share a sign, modulo the measure-zero plane hit.
	assert.Greater(t, alignedCollisions, samples*3/4)
	assert.Less(t, oppositeCollisions, samples/10)
}

func Test_ForMetric(t *testing.T) {
	euclidean, err := ForMetric[float32](metric.Euclidean, 3, DefaultBucketWidth)
	require.NoError(t, err)
	assert.Equal(t, 3, euclidean.Dim())

	angular, err := ForMetric[float32](metric.Angular, 5, DefaultBucketWidth)
	require.NoError(t, err)
	assert.Equal(t, 5, angular.Dim())
}
