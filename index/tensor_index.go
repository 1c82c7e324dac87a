// Package index builds and queries the tensorized LSH structure: L hash
// tables, each keyed by the concatenation of k independently sampled hash
// functions. Space is one bucket entry per point per table, linear in the
// dataset for fixed k and L.
package index

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/rand"

	"github.com/ar90n/privamaam"
	"github.com/ar90n/privamaam/linalg"
	"github.com/ar90n/privamaam/lshash"
	"github.com/ar90n/privamaam/metric"
)

const (
	defaultTables         = 8
	defaultHashesPerTable = 4

	// A composite key mixes at most this many elementary hash words.
	maxHashesPerTable = 64

	// Past this many hash evaluations per point the table contents are
	// dominated by singleton buckets and the collision signal degenerates.
	hashBudgetFactor = 16
)

// Table is one tensor hash table. Every stored point occupies exactly one
// bucket, identified by the composite key of its k hash codes.
type Table[T linalg.Number] struct {
	Funcs   []lshash.Func[T]
	Buckets map[uint64][]uint32
}

// Key computes the composite bucket key of feature under this table.
func (t Table[T]) Key(feature []T) uint64 {
	key := keySalt
	for _, f := range t.Funcs {
		key = combineKey(key, f.Hash(feature))
	}
	return key
}

// TensorIndex holds the dataset and its L tables. It is immutable once
// built and safe for unlimited concurrent readers.
type TensorIndex[T linalg.Number] struct {
	Features [][]T
	Tables   []Table[T]
	Dim      int
}

var _ privamaam.Index[float32] = (*TensorIndex[float32])(nil)

func (ti *TensorIndex[T]) Size() int {
	return len(ti.Features)
}

func (ti *TensorIndex[T]) NumTables() int {
	return len(ti.Tables)
}

// Score counts, per candidate, the tables in which the candidate shares the
// query's bucket. Candidates with zero collisions are omitted from the map;
// downstream selection treats them as score zero. Cost is one key
// evaluation per table plus the occupancy of the touched buckets.
func (ti *TensorIndex[T]) Score(ctx context.Context, query []T) (map[uint32]uint32, error) {
	if err := validateFeature(query, ti.Dim); err != nil {
		return nil, err
	}

	scores := make(map[uint32]uint32)
	for _, table := range ti.Tables {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, id := range table.Buckets[table.Key(query)] {
			scores[id]++
		}
	}

	return scores, nil
}

func (ti TensorIndex[T]) Save(w io.Writer) error {
	lshash.Register[T]()
	return saveIndex(&ti, w)
}

func LoadTensorIndex[T linalg.Number](r io.Reader) (*TensorIndex[T], error) {
	lshash.Register[T]()
	index, err := loadIndex[TensorIndex[T]](r)
	if err != nil {
		return nil, err
	}

	return &index, nil
}

// TensorIndexBuilder assembles a TensorIndex. Construction is one-shot; the
// resulting index accepts no further inserts.
type TensorIndexBuilder[T linalg.Number] struct {
	dim            int
	tables         int
	hashesPerTable int
	metricKind     metric.Kind
	width          float64
	seed           uint64
	maxGoroutines  int
}

func NewTensorIndexBuilder[T linalg.Number](dim int) *TensorIndexBuilder[T] {
	return &TensorIndexBuilder[T]{
		dim:            dim,
		tables:         defaultTables,
		hashesPerTable: defaultHashesPerTable,
		metricKind:     metric.Euclidean,
		width:          lshash.DefaultBucketWidth,
		seed:           privamaam.RandomSeed(),
		maxGoroutines:  runtime.NumCPU(),
	}
}

// SetTables sets L. More tables improve recall of true near neighbors and
// widen the score range, at linear cost in space and query time.
func (tib *TensorIndexBuilder[T]) SetTables(tables int) *TensorIndexBuilder[T] {
	tib.tables = tables
	return tib
}

// SetHashesPerTable sets k. Larger k sharpens buckets (fewer, closer
// collisions) at the price of recall per table.
func (tib *TensorIndexBuilder[T]) SetHashesPerTable(hashes int) *TensorIndexBuilder[T] {
	tib.hashesPerTable = hashes
	return tib
}

func (tib *TensorIndexBuilder[T]) SetMetric(kind metric.Kind) *TensorIndexBuilder[T] {
	tib.metricKind = kind
	return tib
}

// SetBucketWidth sets the p-stable quantization width. Ignored by the
// angular family.
func (tib *TensorIndexBuilder[T]) SetBucketWidth(width float64) *TensorIndexBuilder[T] {
	tib.width = width
	return tib
}

// SetSeed fixes all hash-function sampling, making construction
// reproducible byte for byte.
func (tib *TensorIndexBuilder[T]) SetSeed(seed uint64) *TensorIndexBuilder[T] {
	tib.seed = seed
	return tib
}

// SetMaxGoroutines caps build parallelism. Values below one select the
// number of CPUs.
func (tib *TensorIndexBuilder[T]) SetMaxGoroutines(maxGoroutines int) *TensorIndexBuilder[T] {
	if maxGoroutines < 1 {
		maxGoroutines = runtime.NumCPU()
	}
	tib.maxGoroutines = maxGoroutines
	return tib
}

func (tib TensorIndexBuilder[T]) GetPrameterString() string {
	return fmt.Sprintf("metric=%s_k=%d_tables=%d_width=%f", tib.metricKind, tib.hashesPerTable, tib.tables, tib.width)
}

// Build buckets every feature into each of the L tables. Tables are built
// in parallel; each task writes only its own table's bucket map.
func (tib *TensorIndexBuilder[T]) Build(ctx context.Context, features [][]T) (*TensorIndex[T], error) {
	if err := tib.validate(len(features)); err != nil {
		return nil, err
	}
	if err := validateFeatures(features, tib.dim); err != nil {
		return nil, err
	}

	family, err := lshash.ForMetric[T](tib.metricKind, tib.dim, tib.width)
	if err != nil {
		return nil, err
	}

	tables := make([]Table[T], tib.tables)
	p := pool.New().WithMaxGoroutines(tib.maxGoroutines).WithErrors()
	for i := 0; i < tib.tables; i++ {
		i := i
		p.Go(func() error {
			rng := rand.New(rand.NewSource(tableSeed(tib.seed, uint64(i))))

			funcs := make([]lshash.Func[T], tib.hashesPerTable)
			for j := range funcs {
				funcs[j] = family.Sample(rng)
			}

			table := Table[T]{
				Funcs:   funcs,
				Buckets: make(map[uint64][]uint32),
			}
			for id, feature := range features {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				key := table.Key(feature)
				table.Buckets[key] = append(table.Buckets[key], uint32(id))
			}

			tables[i] = table
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &TensorIndex[T]{
		Features: features,
		Tables:   tables,
		Dim:      tib.dim,
	}, nil
}

func (tib TensorIndexBuilder[T]) validate(n int) error {
	if tib.dim <= 0 {
		return errors.Wrapf(privamaam.ErrConfiguration, "dimension must be positive: %d", tib.dim)
	}
	if tib.tables < 1 {
		return errors.Wrapf(privamaam.ErrConfiguration, "table count must be positive: %d", tib.tables)
	}
	if tib.hashesPerTable < 1 || maxHashesPerTable < tib.hashesPerTable {
		return errors.Wrapf(privamaam.ErrConfiguration, "hashes per table must be in [1, %d]: %d", maxHashesPerTable, tib.hashesPerTable)
	}
	if n == 0 {
		return errors.Wrap(privamaam.ErrConfiguration, "dataset must not be empty")
	}
	if hashBudgetFactor*n < tib.hashesPerTable*tib.tables {
		return errors.Wrapf(privamaam.ErrConfiguration,
			"k*L = %d exceeds %d*n = %d; buckets would degenerate to singletons",
			tib.hashesPerTable*tib.tables, hashBudgetFactor, hashBudgetFactor*n)
	}
	return nil
}

func validateFeatures[T linalg.Number](features [][]T, dim int) error {
	for i, feature := range features {
		if err := validateFeature(feature, dim); err != nil {
			return errors.Wrapf(err, "feature %d", i)
		}
	}
	return nil
}

func validateFeature[T linalg.Number](feature []T, dim int) error {
	if len(feature) != dim {
		return errors.Wrapf(privamaam.ErrConfiguration, "dimension mismatch: expected %d, got %d", dim, len(feature))
	}
	for j, v := range feature {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.Wrapf(privamaam.ErrNumeric, "coordinate %d is %f", j, f)
		}
	}
	return nil
}
