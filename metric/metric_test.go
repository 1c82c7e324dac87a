package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SqL2Dist(t *testing.T) {
	m := SqL2Dist[float64]{}
	assert.InDelta(t, 2.0, m.CalcDistance([]float64{0, 0}, []float64{1, 1}), 1e-12)
}

func Test_CosineDist(t *testing.T) {
	m := CosineDist[float64]{}
	assert.InDelta(t, 0.0, m.CalcDistance([]float64{1, 0}, []float64{2, 0}), 1e-12)
	assert.InDelta(t, 1.0, m.CalcDistance([]float64{1, 0}, []float64{0, 3}), 1e-12)
	assert.InDelta(t, 1.0, m.CalcDistance([]float64{0, 0}, []float64{0, 3}), 1e-12)
}

func Test_For(t *testing.T) {
	_, ok := For[float32](Euclidean)
	assert.True(t, ok)
	_, ok = For[float32](Angular)
	assert.True(t, ok)
	_, ok = For[float32](Kind("hamming"))
	assert.False(t, ok)
}
