package main

import (
	"context"
	"fmt"

	"github.com/ar90n/privamaam"
	"github.com/ar90n/privamaam/dp"
	"github.com/ar90n/privamaam/index"
	"github.com/ar90n/privamaam/metric"
)

func main() {
	features := [][]float64{
		{0, 0},
		{0, 1},
		{10, 10},
	}

	ctx := context.Background()
	tensor, err := index.NewTensorIndexBuilder[float64](2).
		SetHashesPerTable(2).
		SetTables(20).
		SetMetric(metric.Euclidean).
		SetSeed(42).
		Build(ctx, features)
	if err != nil {
		panic(err)
	}

	query := []float64{0, 0.1}
	params := dp.Params{Epsilon: 5.0, Noise: dp.Laplace}

	scale, err := dp.Calibrate(params.Epsilon, params.Delta, tensor.NumTables(), params.Noise)
	if err != nil {
		panic(err)
	}
	fmt.Printf("noise scale at epsilon=%.1f: %.3f\n", params.Epsilon, scale)

	const trials = 1000
	hits := make([]int, len(features))
	for seed := uint64(0); seed < trials; seed++ {
		result, err := privamaam.QuerySeeded(ctx, tensor, query, params, seed)
		if err != nil {
			panic(err)
		}
		hits[result.Index]++
	}

	for i, h := range hits {
		fmt.Printf("point %d selected in %d/%d trials\n", i, h, trials)
	}

	epsilonTotal, _, err := dp.ComposeBasic(params.Epsilon, params.Delta, trials)
	if err != nil {
		panic(err)
	}
	fmt.Printf("budget consumed across all trials: epsilon=%.1f\n", epsilonTotal)
}
