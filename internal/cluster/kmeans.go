package cluster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyInput is returned when there are no points to cluster.
	ErrEmptyInput = errors.New("input data cannot be empty")
	// ErrTooFewPoints is returned when there are fewer points than clusters.
	ErrTooFewPoints = errors.New("number of data points is less than K")
	// ErrDegenerate is returned when there are fewer distinct points than clusters.
	ErrDegenerate = errors.New("number of distinct points is less than K")
	// ErrNonFinite is returned when a feature is NaN or infinite.
	ErrNonFinite = errors.New("input contains NaN or infinity")
	// ErrNotConverged is returned when no restart converged within MaxIter.
	ErrNotConverged = errors.New("k-means did not converge")
)

// KMeans partitions points into K clusters with Lloyd's algorithm, seeded by
// k-means++. All randomness comes from Seed, so Fit is reproducible.
type KMeans struct {
	K       int
	MaxIter int
	// NInit is the number of k-means++ restarts; the lowest inertia wins.
	NInit int
	// Tol is the convergence threshold on centroid movement, relative to the
	// mean per-feature variance of the data.
	Tol  float64
	Seed int64

	Centroids  [][]float64
	Inertia    float64 // Sum of squared distances to nearest centroid
	Iterations int
}

// NewKMeans creates a KMeans model with the default schedule.
func NewKMeans(k int, seed int64) *KMeans {
	return &KMeans{
		K:       k,
		MaxIter: 300,
		NInit:   10,
		Tol:     1e-4,
		Seed:    seed,
	}
}

// Fit finds the centroids and returns the cluster label of every row of X.
func (m *KMeans) Fit(X [][]float64) ([]int, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, ErrEmptyInput
	}
	n, p := len(X), len(X[0])
	if n < m.K {
		return nil, fmt.Errorf("%w: n_samples=%d, K=%d", ErrTooFewPoints, n, m.K)
	}
	distinct := map[string]struct{}{}
	for i, row := range X {
		if len(row) != p {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), p)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w (row %d)", ErrNonFinite, i)
			}
		}
		distinct[pointKey(row)] = struct{}{}
	}
	if len(distinct) < m.K {
		return nil, fmt.Errorf("%w: %d distinct, K=%d", ErrDegenerate, len(distinct), m.K)
	}

	tol := m.Tol * meanVariance(X)
	rng := rand.New(rand.NewSource(m.Seed))
	nInit := m.NInit
	if nInit < 1 {
		nInit = 1
	}

	var (
		bestLabels []int
		bestCenter [][]float64
		bestIner   = math.Inf(1)
		bestIter   int
		converged  bool
	)
	for run := 0; run < nInit; run++ {
		centers, err := m.initCenters(X, rng)
		if err != nil {
			return nil, err
		}
		labels, centers, inertia, iters, ok := m.lloyd(X, centers, tol)
		if !ok {
			continue
		}
		converged = true
		if inertia < bestIner {
			bestLabels, bestCenter, bestIner, bestIter = labels, centers, inertia, iters
		}
	}
	if !converged {
		return nil, fmt.Errorf("%w after %d iterations", ErrNotConverged, m.MaxIter)
	}
	m.Centroids = bestCenter
	m.Inertia = bestIner
	m.Iterations = bestIter
	return bestLabels, nil
}

// Predict assigns each row of X to its nearest centroid.
func (m *KMeans) Predict(X [][]float64) ([]int, error) {
	if len(m.Centroids) == 0 {
		return nil, errors.New("model is not fitted")
	}
	if len(X) == 0 {
		return nil, errors.New("input data for prediction cannot be empty")
	}
	if len(X[0]) != len(m.Centroids[0]) {
		return nil, errors.New("feature count mismatch between input data and model centroids")
	}
	labels := make([]int, len(X))
	for i, x := range X {
		labels[i], _ = nearest(x, m.Centroids)
	}
	return labels, nil
}

// lloyd runs assignment/update steps from the given centers until the
// centroid shift drops to tol or labels stop changing.
func (m *KMeans) lloyd(X [][]float64, centers [][]float64, tol float64) ([]int, [][]float64, float64, int, bool) {
	n, p := len(X), len(X[0])
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	converged := false
	it := 0
	for it = 1; it <= m.MaxIter; it++ {
		changed := false
		for i, x := range X {
			k, _ := nearest(x, centers)
			if labels[i] != k {
				changed = true
			}
			labels[i] = k
		}

		sums := make([][]float64, m.K)
		counts := make([]int, m.K)
		for k := range sums {
			sums[k] = make([]float64, p)
		}
		for i, x := range X {
			floats.Add(sums[labels[i]], x)
			counts[labels[i]]++
		}
		m.relocateEmpty(X, labels, centers, sums, counts)

		shift := 0.0
		for k := range centers {
			if counts[k] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[k]), sums[k])
			d := floats.Distance(sums[k], centers[k], 2)
			shift += d * d
			centers[k] = sums[k]
		}
		if !changed || shift <= tol {
			converged = true
			break
		}
	}

	// Labels must match the final centroids.
	inertia := 0.0
	for i, x := range X {
		k, d2 := nearest(x, centers)
		labels[i] = k
		inertia += d2
	}
	return labels, centers, inertia, min(it, m.MaxIter), converged
}

// relocateEmpty moves the seed of any empty cluster to the point farthest
// from its current centroid, taking that point out of its old cluster.
func (m *KMeans) relocateEmpty(X [][]float64, labels []int, centers, sums [][]float64, counts []int) {
	for k := range counts {
		if counts[k] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, x := range X {
			if counts[labels[i]] < 2 {
				continue
			}
			if d := sqDist(x, centers[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			continue
		}
		old := labels[far]
		floats.Sub(sums[old], X[far])
		counts[old]--
		labels[far] = k
		copy(sums[k], X[far])
		counts[k] = 1
	}
}

// initCenters picks K starting centroids with k-means++.
func (m *KMeans) initCenters(X [][]float64, rng *rand.Rand) ([][]float64, error) {
	n := len(X)
	centers := make([][]float64, 0, m.K)

	// First center: pick randomly
	centers = append(centers, append([]float64{}, X[rng.Intn(n)]...))

	distSq := make([]float64, n)
	for len(centers) < m.K {
		total := 0.0
		for i, x := range X {
			_, d2 := nearest(x, centers)
			distSq[i] = d2
			total += d2
		}
		r := rng.Float64() * total
		pick := -1
		cumulative := 0.0
		for i, d2 := range distSq {
			if d2 == 0 {
				continue
			}
			cumulative += d2
			pick = i
			if cumulative > r {
				break
			}
		}
		if pick < 0 {
			return nil, fmt.Errorf("%w: only %d distinct centers available, K=%d", ErrDegenerate, len(centers), m.K)
		}
		centers = append(centers, append([]float64{}, X[pick]...))
	}
	return centers, nil
}

// pointKey identifies a point by value, so -0 and 0 share a key.
func pointKey(row []float64) string {
	b := make([]byte, 0, 8*len(row))
	for _, v := range row {
		if v == 0 {
			v = 0
		}
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return string(b)
}

func nearest(x []float64, centers [][]float64) (int, float64) {
	best, bestD := 0, math.MaxFloat64
	for k, c := range centers {
		if d := sqDist(x, c); d < bestD {
			best, bestD = k, d
		}
	}
	return best, bestD
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func meanVariance(X [][]float64) float64 {
	p := len(X[0])
	col := make([]float64, len(X))
	total := 0.0
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		total += stat.PopVariance(col, nil)
	}
	return total / float64(p)
}
