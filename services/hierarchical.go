package services

import (
	"math"

	"ai-startup-map/models"
)

// Hierarchical is agglomerative clustering with Ward linkage, cut at k clusters.
type Hierarchical struct{}

// NewHierarchical returns the Ward agglomerative algorithm.
func NewHierarchical() *Hierarchical { return &Hierarchical{} }

func (h *Hierarchical) Name() string { return "hierarchical" }

// Fit merges the closest pair of clusters until k remain. Distances are
// updated with the Lance-Williams recurrence for Ward's criterion; ties
// merge the lowest-index pair first.
func (h *Hierarchical) Fit(data [][]float64, k int) ([]int, error) {
	n := len(data)
	if k < 1 || k > n {
		return nil, models.Errorf(models.KindInvalidConfig, "hierarchical", "k=%d for %d rows", k, n)
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			d := sqDist(data[i], data[j])
			dist[i][j], dist[j][i] = d, d
		}
	}

	size := make([]int, n)
	active := make([]bool, n)
	parent := make([]int, n)
	for i := range size {
		size[i], active[i], parent[i] = 1, true, i
	}

	for clusters := n; clusters > k; clusters-- {
		a, b, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					a, b, best = i, j, dist[i][j]
				}
			}
		}

		// Merge b into a.
		na, nb := float64(size[a]), float64(size[b])
		for m := 0; m < n; m++ {
			if !active[m] || m == a || m == b {
				continue
			}
			nm := float64(size[m])
			d := ((na+nm)*dist[a][m] + (nb+nm)*dist[b][m] - nm*dist[a][b]) / (na + nb + nm)
			dist[a][m], dist[m][a] = d, d
		}
		size[a] += size[b]
		active[b] = false
		parent[b] = a
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = root(parent, i)
	}
	return labels, nil
}

func root(parent []int, i int) int {
	for parent[i] != i {
		i = parent[i]
	}
	return i
}
