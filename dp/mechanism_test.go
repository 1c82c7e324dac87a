package dp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func Test_ParamsValidate(t *testing.T) {
	type TestCase struct {
		Name   string
		Params Params
		Valid  bool
	}

	testCases := []TestCase{
		{Name: "ok laplace", Params: Params{Epsilon: 1.0}, Valid: true},
		{Name: "ok gumbel", Params: Params{Epsilon: 0.5, Noise: Gumbel}, Valid: true},
		{Name: "ok gaussian", Params: Params{Epsilon: 1.0, Delta: 1e-6, Noise: Gaussian}, Valid: true},
		{Name: "zero epsilon", Params: Params{Epsilon: 0.0}, Valid: false},
		{Name: "negative epsilon", Params: Params{Epsilon: -1.0}, Valid: false},
		{Name: "negative delta", Params: Params{Epsilon: 1.0, Delta: -0.1}, Valid: false},
		{Name: "delta one", Params: Params{Epsilon: 1.0, Delta: 1.0}, Valid: false},
		{Name: "gaussian zero delta", Params: Params{Epsilon: 1.0, Noise: Gaussian}, Valid: false},
		{Name: "unknown noise", Params: Params{Epsilon: 1.0, Noise: Noise(42)}, Valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			err := tc.Params.Validate()
			if tc.Valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrPrivacyConfiguration)
			}
		})
	}
}

func Test_ParseNoise(t *testing.T) {
	for s, want := range map[string]Noise{"laplace": Laplace, "gumbel": Gumbel, "gaussian": Gaussian} {
		got, err := ParseNoise(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, s, got.String())
	}

	_, err := ParseNoise("uniform")
	assert.ErrorIs(t, err, ErrPrivacyConfiguration)
}

func Test_SelectTop1EmptyUniverse(t *testing.T) {
	_, err := SelectTop1(nil, 0, Params{Epsilon: 1.0}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrEmptyCandidateSet)
}

func Test_SelectTop1SingleCandidate(t *testing.T) {
	for trial := uint64(0); trial < 32; trial++ {
		sel, err := SelectTop1(map[uint32]uint32{0: 5}, 1, Params{Epsilon: 0.01}, rand.New(rand.NewSource(trial)))
		require.NoError(t, err)
		assert.Equal(t, 0, sel.Index)
		assert.Equal(t, 5.0, sel.Score)
	}
}

func Test_SelectTop1Deterministic(t *testing.T) {
	scores := map[uint32]uint32{0: 3, 2: 7, 5: 1}

	for _, noise := range []Noise{Laplace, Gumbel, Gaussian} {
		params := Params{Epsilon: 2.0, Noise: noise}
		if noise == Gaussian {
			params.Delta = 1e-6
		}

		lhs, err := SelectTop1(scores, 8, params, rand.New(rand.NewSource(99)))
		require.NoError(t, err)
		rhs, err := SelectTop1(scores, 8, params, rand.New(rand.NewSource(99)))
		require.NoError(t, err)

		assert.Equal(t, lhs, rhs)
	}
}

func Test_SelectTop1DominantScoreWins(t *testing.T) {
	// Score gap of 100 at scale 2/10 makes any other outcome astronomically
	// unlikely over 200 trials.
	scores := map[uint32]uint32{3: 100}
	wins := 0
	for trial := uint64(0); trial < 200; trial++ {
		sel, err := SelectTop1(scores, 10, Params{Epsilon: 10.0}, rand.New(rand.NewSource(trial)))
		require.NoError(t, err)
		if sel.Index == 3 {
			wins++
		}
	}
	assert.Equal(t, 200, wins)
}

func Test_SelectTop1ZeroScores(t *testing.T) {
	// All-zero universe: the selector must still return a valid index.
	counts := make([]int, 4)
	for trial := uint64(0); trial < 400; trial++ {
		sel, err := SelectTop1(map[uint32]uint32{}, 4, Params{Epsilon: 1.0}, rand.New(rand.NewSource(trial)))
		require.NoError(t, err)
		require.GreaterOrEqual(t, sel.Index, 0)
		require.Less(t, sel.Index, 4)
		assert.Equal(t, 0.0, sel.Score)
		counts[sel.Index]++
	}

	// Roughly uniform: every candidate should win sometimes.
	for i, c := range counts {
		assert.Greater(t, c, 0, "candidate %d never selected", i)
	}
}

func Test_SelectTop1NoisyScoreMatchesSelection(t *testing.T) {
	scores := map[uint32]uint32{1: 4}
	sel, err := SelectTop1(scores, 3, Params{Epsilon: 5.0}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, float64(scores[uint32(sel.Index)]), sel.Score)
}
