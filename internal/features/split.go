package features

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
)

// DefaultTestFraction is the share of rows held out for evaluation.
const DefaultTestFraction = 0.2

// Split holds row indices of the train and test partitions.
type Split struct {
	Train      []int `json:"-"`
	Test       []int `json:"-"`
	Stratified bool  `json:"stratified"`
}

// TestSize returns the number of held-out rows for n rows: the ceiling of
// n*fraction, at least one, and leaving at least one training row.
func TestSize(n int, fraction float64) int {
	if fraction <= 0 || fraction >= 1 {
		fraction = DefaultTestFraction
	}
	size := int(math.Ceil(float64(n) * fraction))
	return max(1, min(size, n-1))
}

// SplitRows partitions n rows into train and test indices using a seeded
// shuffle. When strata has more than one distinct value and every value
// occurs at least twice, each stratum contributes to the test set in
// proportion to its size. Otherwise the split is a plain shuffle.
func SplitRows(n int, strata []int, fraction float64, seed uint64) (Split, error) {
	if n < 2 {
		return Split{}, ErrTooFewRows
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	nTest := TestSize(n, fraction)

	if groups, ok := stratify(strata, n, nTest); ok {
		return splitStratified(groups, n, nTest, rng), nil
	}

	perm := rng.Perm(n)
	test := slices.Clone(perm[:nTest])
	train := slices.Clone(perm[nTest:])
	slices.Sort(test)
	slices.Sort(train)

	return Split{Train: train, Test: test}, nil
}

// stratify groups row indices by stratum, ordered by stratum value.
func stratify(strata []int, n, nTest int) ([][]int, bool) {
	if len(strata) != n {
		return nil, false
	}

	byValue := make(map[int][]int)
	for i, s := range strata {
		byValue[s] = append(byValue[s], i)
	}

	if len(byValue) < 2 || nTest < len(byValue) || n-nTest < len(byValue) {
		return nil, false
	}

	keys := make([]int, 0, len(byValue))
	for k, rows := range byValue {
		if len(rows) < 2 {
			return nil, false
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	groups := make([][]int, len(keys))
	for i, k := range keys {
		groups[i] = byValue[k]
	}
	return groups, true
}

func splitStratified(groups [][]int, n, nTest int, rng *rand.Rand) Split {
	quota := allocate(groups, n, nTest)

	var train, test []int
	for g, rows := range groups {
		shuffled := slices.Clone(rows)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		test = append(test, shuffled[:quota[g]]...)
		train = append(train, shuffled[quota[g]:]...)
	}

	slices.Sort(test)
	slices.Sort(train)
	return Split{Train: train, Test: test, Stratified: true}
}

// allocate distributes nTest across groups by largest remainder, keeping at
// least one row of every group for training.
func allocate(groups [][]int, n, nTest int) []int {
	type share struct {
		group int
		rem   float64
	}

	quota := make([]int, len(groups))
	shares := make([]share, len(groups))
	assigned := 0

	for g, rows := range groups {
		exact := float64(nTest) * float64(len(rows)) / float64(n)
		quota[g] = min(int(exact), len(rows)-1)
		shares[g] = share{g, exact - float64(quota[g])}
		assigned += quota[g]
	}

	slices.SortStableFunc(shares, func(a, b share) int {
		return cmp.Compare(b.rem, a.rem)
	})

	for assigned < nTest {
		progressed := false
		for _, s := range shares {
			if assigned == nTest {
				break
			}
			if quota[s.group] < len(groups[s.group])-1 {
				quota[s.group]++
				assigned++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	return quota
}
