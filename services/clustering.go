package services

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"ai-startup-map/metrics"
	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// Numeric columns that join the flag columns in the clustering matrix.
const (
	ColFundingAmount = "funding_amount"
	ColMinPrice      = "min_price"
	ColMaxPrice      = "max_price"
	ColPriceTiers    = "price_tiers"
)

// Algorithm partitions the rows of a standardized matrix into k clusters.
type Algorithm interface {
	Name() string
	Fit(data [][]float64, k int) ([]int, error)
}

// Registry maps algorithm names to implementations.
type Registry struct {
	algorithms map[string]Algorithm
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{algorithms: map[string]Algorithm{}}
}

// DefaultRegistry holds kmeans (seeded with seed) and hierarchical.
func DefaultRegistry(seed int64) *Registry {
	r := NewRegistry()
	r.Register(NewKMeans(seed))
	r.Register(NewHierarchical())
	return r
}

// Register adds or replaces an algorithm.
func (r *Registry) Register(a Algorithm) {
	if r.algorithms == nil {
		r.algorithms = map[string]Algorithm{}
	}
	r.algorithms[a.Name()] = a
}

// Resolve returns the algorithm registered under name.
func (r *Registry) Resolve(name string) (Algorithm, error) {
	if a, ok := r.algorithms[name]; ok {
		return a, nil
	}
	return nil, models.Errorf(models.KindInvalidMethod, "cluster",
		"method %q is not registered (known: %v)", name, r.Names())
}

// Names lists the registered algorithms, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.algorithms))
	for n := range r.algorithms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MatrixColumns returns the clustering feature columns of t, in matrix order.
func MatrixColumns(t *models.Table) []string {
	var cols []string
	if t.HasFundingAmount {
		cols = append(cols, ColFundingAmount)
	}
	cols = append(cols, t.FeatureColumns...)
	if t.HasPriceSummary {
		cols = append(cols, ColMinPrice, ColMaxPrice, ColPriceTiers)
	}
	return cols
}

// NumericValue reads a clustering column of e. Undefined values read as 0.
func NumericValue(e *models.CanonicalEntity, col string) float64 {
	switch col {
	case ColFundingAmount:
		return deref(e.FundingAmount)
	case ColMinPrice:
		return deref(e.Price.MinPrice)
	case ColMaxPrice:
		return deref(e.Price.MaxPrice)
	case ColPriceTiers:
		if e.Price.PriceTiers == nil {
			return 0
		}
		return float64(*e.Price.PriceTiers)
	}
	return float64(e.Feature(col))
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// FeatureMatrix builds one row per entity over MatrixColumns.
func FeatureMatrix(t *models.Table) ([]string, [][]float64) {
	cols := MatrixColumns(t)
	rows := make([][]float64, t.Len())
	for i := range t.Entities {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = NumericValue(&t.Entities[i], c)
		}
		rows[i] = row
	}
	return cols, rows
}

// Standardize scales every column to zero mean and unit population variance.
// Zero-variance columns become all 0.
func Standardize(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i := range rows {
		out[i] = make([]float64, len(rows[i]))
	}
	if len(rows) == 0 {
		return out
	}

	col := make([]float64, len(rows))
	for j := range rows[0] {
		for i := range rows {
			col[i] = rows[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			continue
		}
		for i := range rows {
			out[i][j] = (rows[i][j] - mean) / std
		}
	}
	return out
}

// ClusterEngine assigns clusters, projections and cluster names to a prepared table.
type ClusterEngine struct {
	logger   *utils.Logger
	registry *Registry
	metrics  *metrics.Recorder
}

// NewClusterEngine creates a ClusterEngine over registry. rec may be nil.
func NewClusterEngine(logger *utils.Logger, registry *Registry, rec *metrics.Recorder) *ClusterEngine {
	return &ClusterEngine{logger: logger, registry: registry, metrics: rec}
}

// PrepareFeatures selects the numeric feature columns for clustering and
// marks the table prepared. Undefined values are read as 0 by FeatureMatrix;
// the entity fields themselves stay undefined.
func (c *ClusterEngine) PrepareFeatures(t *models.Table) *models.Table {
	out := t.Clone()
	out.Prepared = true
	c.logger.Info("[cluster] Selected %d features for clustering", len(MatrixColumns(out)))
	return out
}

// Apply clusters the table into k segments with the named method, then
// projects it to 2D and names each cluster from its centroid.
func (c *ClusterEngine) Apply(t *models.Table, method string, k int) (*models.Table, error) {
	if !t.Prepared {
		return nil, models.NewError(models.KindClusteringPrecondition, "cluster",
			"features have not been prepared")
	}
	algo, err := c.registry.Resolve(method)
	if err != nil {
		return nil, err
	}
	if k < 1 || k > t.Len() {
		return nil, models.Errorf(models.KindInvalidConfig, "cluster",
			"cluster count %d outside [1, %d]", k, t.Len())
	}

	out := t.Clone()
	cols, rows := FeatureMatrix(out)
	scaled := Standardize(rows)

	labels, err := algo.Fit(scaled, k)
	if err != nil {
		return nil, fmt.Errorf("cluster: fit %s: %w", method, err)
	}
	labels = RenumberLabels(labels)

	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	for i := range out.Entities {
		id := labels[i]
		out.Entities[i].ClusterID = &id
		out.Entities[i].ClusterSize = sizes[id]
	}

	points, err := Project2D(scaled)
	if err != nil {
		return nil, err
	}
	for i := range out.Entities {
		out.Entities[i].PCA = points[i]
	}

	names := NameClusters(out, labels)
	for i := range out.Entities {
		out.Entities[i].ClusterName = names[labels[i]]
	}
	out.Clustered = true

	c.metrics.SetClusters(len(sizes))
	c.logger.Info("[cluster] Applied %s clustering with %d clusters over %d features",
		method, len(sizes), len(cols))
	return out, nil
}

// RenumberLabels relabels clusters 0, 1, ... in order of first appearance.
func RenumberLabels(labels []int) []int {
	next := 0
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = next
			mapping[l] = id
			next++
		}
		out[i] = id
	}
	return out
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
