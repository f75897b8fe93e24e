package services

import (
	"math"
	"math/rand"

	"ai-startup-map/models"
)

// KMeans is Lloyd's algorithm with k-means++ seeding and restarts. A fixed
// seed makes every run reproducible.
type KMeans struct {
	Seed     int64
	Restarts int
	MaxIter  int
	// Tol is relative to the mean column variance of the data.
	Tol float64
}

// NewKMeans returns KMeans with 10 restarts, 300 iterations and tol 1e-4.
func NewKMeans(seed int64) *KMeans {
	return &KMeans{Seed: seed, Restarts: 10, MaxIter: 300, Tol: 1e-4}
}

func (km *KMeans) Name() string { return "kmeans" }

// Fit returns the labels of the restart with the lowest inertia.
func (km *KMeans) Fit(data [][]float64, k int) ([]int, error) {
	if k < 1 || k > len(data) {
		return nil, models.Errorf(models.KindInvalidConfig, "kmeans", "k=%d for %d rows", k, len(data))
	}
	rng := rand.New(rand.NewSource(km.Seed))
	restarts := km.Restarts
	if restarts < 1 {
		restarts = 1
	}

	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < restarts; r++ {
		labels, inertia := km.run(data, k, rng)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best, nil
}

func (km *KMeans) run(data [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centers := seedCenters(data, k, rng)
	labels := make([]int, len(data))
	tol := km.Tol * meanVariance(data)

	for iter := 0; iter < km.MaxIter; iter++ {
		assign(data, centers, labels)
		fillEmpty(data, centers, labels, k)
		next := means(data, labels, k)
		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		if shift <= tol {
			break
		}
	}

	assign(data, centers, labels)
	fillEmpty(data, centers, labels, k)
	centers = means(data, labels, k)

	var inertia float64
	for i, row := range data {
		inertia += sqDist(row, centers[labels[i]])
	}
	return labels, inertia
}

// seedCenters picks k initial centers by k-means++: each next center is drawn
// with probability proportional to its squared distance from the chosen ones.
func seedCenters(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	chosen := make([]bool, n)
	first := rng.Intn(n)
	chosen[first] = true
	centers := [][]float64{clonePoint(data[first])}

	d2 := make([]float64, n)
	for i := range data {
		d2[i] = sqDist(data[i], centers[0])
	}

	for len(centers) < k {
		var sum float64
		for i := range d2 {
			sum += d2[i]
		}

		pick := -1
		if sum > 0 {
			target := rng.Float64() * sum
			var acc float64
			for i := range d2 {
				acc += d2[i]
				if acc >= target && d2[i] > 0 {
					pick = i
					break
				}
			}
		}
		if pick < 0 {
			// Every remaining point coincides with a center.
			for i := range chosen {
				if !chosen[i] {
					pick = i
					break
				}
			}
		}

		chosen[pick] = true
		c := clonePoint(data[pick])
		centers = append(centers, c)
		for i := range data {
			if d := sqDist(data[i], c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centers
}

// assign sets each label to the nearest center; ties go to the lower index.
func assign(data, centers [][]float64, labels []int) {
	for i, row := range data {
		best, bestD := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(row, center); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
	}
}

// fillEmpty moves, for each empty cluster, the point farthest from its own
// center into it. Only points of clusters with more than one member move.
func fillEmpty(data, centers [][]float64, labels []int, k int) {
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, row := range data {
			if counts[labels[i]] <= 1 {
				continue
			}
			if d := sqDist(row, centers[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			return
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c]++
		centers[c] = clonePoint(data[far])
	}
}

func means(data [][]float64, labels []int, k int) [][]float64 {
	dim := 0
	if len(data) > 0 {
		dim = len(data[0])
	}
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)
	for i, row := range data {
		l := labels[i]
		counts[l]++
		for j, v := range row {
			sums[l][j] += v
		}
	}
	for c := range sums {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
	}
	return sums
}

func meanVariance(data [][]float64) float64 {
	if len(data) == 0 || len(data[0]) == 0 {
		return 0
	}
	mean := means(data, make([]int, len(data)), 1)[0]
	var total float64
	for _, row := range data {
		total += sqDist(row, mean)
	}
	return total / float64(len(data)) / float64(len(data[0]))
}

func clonePoint(p []float64) []float64 {
	return append([]float64(nil), p...)
}
