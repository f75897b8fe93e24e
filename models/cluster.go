package models

// FeatureWeight pairs a feature column with its value within a cluster.
type FeatureWeight struct {
	Column string
	Value  float64
}

// ClusterProfile summarises one cluster for the analysis report.
type ClusterProfile struct {
	ID          int
	Name        string
	Theme       string
	Size        int
	TopFeatures []FeatureWeight
	Companies   []string
	Density     float64
	Saturation  float64
}

// AnalysisReport holds the computed cluster analysis over a scored table.
type AnalysisReport struct {
	TotalEntities int
	Method        string
	Clusters      []ClusterProfile
	// DefensibilityCounts and SaturationCounts are keyed by bucket label.
	DefensibilityCounts map[string]int
	SaturationCounts    map[string]int
	MostDefensible      []*CanonicalEntity
}
