package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/rand"

	"github.com/ar90n/privamaam"
	"github.com/ar90n/privamaam/dataset"
	"github.com/ar90n/privamaam/dp"
	"github.com/ar90n/privamaam/index"
	"github.com/ar90n/privamaam/lshash"
	"github.com/ar90n/privamaam/metric"
)

var log = logrus.New()

func genAction(c *cli.Context) error {
	n := c.Int("num")
	dim := c.Int("dim")
	sigma := c.Float64("sigma")
	normalize := c.Bool("normalize")
	seed := seedOrRandom(c)
	outputName := c.String("output")

	rng := rand.New(rand.NewSource(seed))
	features, err := dataset.Generate[float64](n, dim, sigma, rng)
	if err != nil {
		return err
	}
	if normalize {
		if err := dataset.Normalize(features); err != nil {
			return err
		}
	}

	file, err := os.Create(outputName)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := dataset.Save(file, features); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"num":    n,
		"dim":    dim,
		"sigma":  sigma,
		"seed":   seed,
		"output": outputName,
	}).Info("dataset generated")
	return nil
}

func buildAction(c *cli.Context) error {
	profileOutputName := c.String("profile-output")
	if profileOutputName != "" {
		f, err := os.Create(profileOutputName)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	inputName := c.String("input")
	outputName := c.String("output")
	seed := seedOrRandom(c)

	file, err := os.Open(inputName)
	if err != nil {
		return err
	}
	defer file.Close()

	features, err := dataset.Load[float64](file)
	if err != nil {
		return err
	}

	builder := index.NewTensorIndexBuilder[float64](len(features[0])).
		SetTables(c.Int("tables")).
		SetHashesPerTable(c.Int("hashes")).
		SetMetric(metric.Kind(c.String("metric"))).
		SetBucketWidth(c.Float64("width")).
		SetSeed(seed).
		SetMaxGoroutines(c.Int("max-goroutines"))

	tensor, err := builder.Build(context.Background(), features)
	if err != nil {
		return err
	}

	out, err := os.Create(outputName)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := tensor.Save(out); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"num":    tensor.Size(),
		"tables": tensor.NumTables(),
		"params": builder.GetPrameterString(),
		"seed":   seed,
		"output": outputName,
	}).Info("index built")
	return nil
}

type queryReport struct {
	Query      []float64 `json:"query"`
	Index      int       `json:"selected_index"`
	Score      float64   `json:"score"`
	NoisyScore float64   `json:"noisy_score"`
}

func queryAction(c *cli.Context) error {
	tensor, err := loadTensorIndex(c.String("index"))
	if err != nil {
		return err
	}

	query, err := parsePoint(c.String("point"))
	if err != nil {
		return err
	}

	params := dp.Params{Epsilon: c.Float64("epsilon"), Delta: c.Float64("delta")}
	if params.Noise, err = dp.ParseNoise(c.String("noise")); err != nil {
		return err
	}

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	trials := c.Int("trials")
	seed := seedOrRandom(c)
	for i := 0; i < trials; i++ {
		result, err := privamaam.QuerySeeded(ctx, tensor, query, params, seed+uint64(i))
		if err != nil {
			return err
		}

		report := queryReport{
			Query:      query,
			Index:      result.Index,
			Score:      result.Score,
			NoisyScore: result.NoisyScore,
		}
		if err := enc.Encode(report); err != nil {
			return err
		}
	}

	epsilonTotal, deltaTotal, err := dp.ComposeBasic(params.Epsilon, params.Delta, trials)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"trials":        trials,
		"epsilon_total": epsilonTotal,
		"delta_total":   deltaTotal,
	}).Info("privacy budget consumed")
	return nil
}

type evalReport struct {
	Queries      int     `json:"queries"`
	Trials       int     `json:"trials"`
	HitRate      float64 `json:"hit_rate"`
	EpsilonTotal float64 `json:"epsilon_total"`
	DeltaTotal   float64 `json:"delta_total"`
}

func evalAction(c *cli.Context) error {
	tensor, err := loadTensorIndex(c.String("index"))
	if err != nil {
		return err
	}

	file, err := os.Open(c.String("queries"))
	if err != nil {
		return err
	}
	defer file.Close()

	queries, err := dataset.Load[float64](file)
	if err != nil {
		return err
	}

	kind := metric.Kind(c.String("metric"))
	dist, ok := metric.For[float64](kind)
	if !ok {
		return fmt.Errorf("unknown metric name: %s", kind)
	}

	params := dp.Params{Epsilon: c.Float64("epsilon"), Delta: c.Float64("delta")}
	if params.Noise, err = dp.ParseNoise(c.String("noise")); err != nil {
		return err
	}

	ctx := context.Background()
	trials := c.Int("trials")
	seed := seedOrRandom(c)
	hits := 0
	for _, query := range queries {
		truth := nearestIndex(tensor.Features, query, dist)
		for i := 0; i < trials; i++ {
			result, err := privamaam.QuerySeeded(ctx, tensor, query, params, seed)
			if err != nil {
				return err
			}
			seed++
			if result.Index == truth {
				hits++
			}
		}
	}

	total := len(queries) * trials
	epsilonTotal, deltaTotal, err := dp.ComposeAdvanced(params.Epsilon, params.Delta, c.Float64("delta-slack"), total)
	if err != nil {
		return err
	}

	report := evalReport{
		Queries:      len(queries),
		Trials:       trials,
		HitRate:      float64(hits) / float64(total),
		EpsilonTotal: epsilonTotal,
		DeltaTotal:   deltaTotal,
	}
	return json.NewEncoder(os.Stdout).Encode(report)
}

func loadTensorIndex(name string) (*index.TensorIndex[float64], error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return index.LoadTensorIndex[float64](file)
}

func nearestIndex(features [][]float64, query []float64, dist metric.Metric[float64]) int {
	best := 0
	bestDist := dist.CalcDistance(query, features[0])
	for i := 1; i < len(features); i++ {
		d := dist.CalcDistance(query, features[i])
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func parsePoint(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	point := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point component %q: %w", part, err)
		}
		point[i] = v
	}
	return point, nil
}

func seedOrRandom(c *cli.Context) uint64 {
	if c.IsSet("seed") {
		return c.Uint64("seed")
	}
	return privamaam.RandomSeed()
}

func main() {
	app := &cli.App{
		Name:  "privamaam",
		Usage: "differentially private top-1 ANN queries over a tensorized LSH index",
		Commands: []*cli.Command{
			{
				Name:   "gen",
				Usage:  "generate a Gaussian dataset",
				Action: genAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "num", Value: 1000},
					&cli.IntFlag{Name: "dim", Value: 16},
					&cli.Float64Flag{Name: "sigma", Value: 1.0},
					&cli.BoolFlag{Name: "normalize"},
					&cli.Uint64Flag{Name: "seed"},
					&cli.StringFlag{Name: "output", Value: "dataset.bin"},
				},
			},
			{
				Name:   "build",
				Usage:  "build a tensor LSH index from a dataset",
				Action: buildAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Required: true},
					&cli.StringFlag{Name: "output", Value: "index.bin"},
					&cli.IntFlag{Name: "tables", Value: 8},
					&cli.IntFlag{Name: "hashes", Value: 4},
					&cli.StringFlag{Name: "metric", Value: string(metric.Euclidean)},
					&cli.Float64Flag{Name: "width", Value: lshash.DefaultBucketWidth},
					&cli.Uint64Flag{Name: "seed"},
					&cli.IntFlag{Name: "max-goroutines"},
					&cli.StringFlag{Name: "profile-output"},
				},
			},
			{
				Name:   "query",
				Usage:  "run differentially private top-1 queries",
				Action: queryAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "index", Required: true},
					&cli.StringFlag{Name: "point", Required: true, Usage: "comma-separated coordinates"},
					&cli.Float64Flag{Name: "epsilon", Value: 1.0},
					&cli.Float64Flag{Name: "delta", Value: 0.0},
					&cli.StringFlag{Name: "noise", Value: "laplace"},
					&cli.IntFlag{Name: "trials", Value: 1},
					&cli.Uint64Flag{Name: "seed"},
				},
			},
			{
				Name:   "eval",
				Usage:  "measure hit rate against the true nearest neighbor",
				Action: evalAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "index", Required: true},
					&cli.StringFlag{Name: "queries", Required: true},
					&cli.StringFlag{Name: "metric", Value: string(metric.Euclidean)},
					&cli.Float64Flag{Name: "epsilon", Value: 1.0},
					&cli.Float64Flag{Name: "delta", Value: 0.0},
					&cli.Float64Flag{Name: "delta-slack", Value: 1e-9},
					&cli.StringFlag{Name: "noise", Value: "laplace"},
					&cli.IntFlag{Name: "trials", Value: 10},
					&cli.Uint64Flag{Name: "seed"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
