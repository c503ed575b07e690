package cluster

import (
	"sort"

	"github.com/KaramelBytes/segloom/internal/features"
)

const (
	// NumClusters is fixed for every run.
	NumClusters = 3
	// Seed makes centroid initialisation reproducible across runs.
	Seed = 42
)

// Clustered is an encoded dataset with one cluster label per row.
type Clustered struct {
	*features.Encoded
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
}

// Assign clusters enc on [Age, Gender, Income, Spending Score] at raw scale.
func Assign(enc *features.Encoded) (*Clustered, error) {
	km := NewKMeans(NumClusters, Seed)
	labels, err := km.Fit(enc.Matrix())
	if err != nil {
		return nil, err
	}
	return &Clustered{
		Encoded:    enc,
		Labels:     labels,
		Centroids:  km.Centroids,
		Inertia:    km.Inertia,
		Iterations: km.Iterations,
	}, nil
}

// Present returns the distinct labels that have at least one row, ascending.
func (c *Clustered) Present() []int {
	seen := map[int]bool{}
	var out []int
	for _, l := range c.Labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}

// Sizes returns the row count of every cluster, empty ones included.
func (c *Clustered) Sizes() []int {
	sizes := make([]int, NumClusters)
	for _, l := range c.Labels {
		sizes[l]++
	}
	return sizes
}

// Members returns the rows that belong to cluster k.
func (c *Clustered) Members(k int) []features.Row {
	var out []features.Row
	for i, l := range c.Labels {
		if l == k {
			out = append(out, c.Rows[i])
		}
	}
	return out
}
