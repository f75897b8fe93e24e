package services

import (
	"math"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// Bucket labels.
const (
	DefensibilityHigh   = "High defensibility"
	DefensibilityMedium = "Medium defensibility"
	DefensibilityLow    = "Low defensibility"

	SaturationHigh     = "Highly saturated"
	SaturationModerate = "Moderately saturated"
	SaturationLow      = "Low saturation"
)

// DefensibilityFactor is one weighted term of the defensibility score.
type DefensibilityFactor struct {
	Column string
	Weight float64
}

// DefensibilityFactors are summed in this order. funding_amount is divided
// by its column maximum when that maximum is positive.
var DefensibilityFactors = []DefensibilityFactor{
	{ColFundingAmount, 0.3},
	{"has_neural", 0.1},
	{"has_language_model", 0.15},
	{"is_enterprise", 0.15},
	{"is_open_source", -0.1},
	{"is_api", 0.1},
}

// densityEpsilon keeps the density of coincident points finite.
const densityEpsilon = 0.01

// ScoringEngine computes defensibility and saturation for a clustered table.
type ScoringEngine struct {
	logger *utils.Logger
}

// NewScoringEngine creates a ScoringEngine with the given logger.
func NewScoringEngine(logger *utils.Logger) *ScoringEngine {
	return &ScoringEngine{logger: logger}
}

// Apply scores every entity. The table must be clustered.
func (s *ScoringEngine) Apply(t *models.Table) (*models.Table, error) {
	if !t.Clustered {
		return nil, models.NewError(models.KindClusteringPrecondition, "score", "table has not been clustered")
	}
	out := t.Clone()
	used := s.scoreDefensibility(out)
	s.scoreSaturation(out)
	out.Scored = true

	s.logger.Info("[score] Scored %d entities using %d defensibility factors", out.Len(), used)
	return out, nil
}

// scoreDefensibility returns how many factors were present.
func (s *ScoringEngine) scoreDefensibility(t *models.Table) int {
	raw := make([]float64, t.Len())
	used := 0
	for _, f := range DefensibilityFactors {
		if f.Column == ColFundingAmount {
			if !t.HasFundingAmount {
				continue
			}
			var peak float64
			for i := range t.Entities {
				peak = math.Max(peak, deref(t.Entities[i].FundingAmount))
			}
			for i := range t.Entities {
				v := deref(t.Entities[i].FundingAmount)
				if peak > 0 {
					v /= peak
				}
				raw[i] += v * f.Weight
			}
			used++
			continue
		}
		if !t.HasFeature(f.Column) {
			s.logger.Debug("[score] Defensibility factor %s absent, skipped", f.Column)
			continue
		}
		for i := range t.Entities {
			raw[i] += float64(t.Entities[i].Feature(f.Column)) * f.Weight
		}
		used++
	}

	scores := MinMaxScale(raw, 100)
	for i := range t.Entities {
		t.Entities[i].DefensibilityScore = scores[i]
		t.Entities[i].Defensibility = DefensibilityBucket(scores[i])
	}
	return used
}

func (s *ScoringEngine) scoreSaturation(t *models.Table) {
	members := make(map[int][]models.Point)
	for i := range t.Entities {
		if id := t.Entities[i].ClusterID; id != nil {
			members[*id] = append(members[*id], t.Entities[i].PCA)
		}
	}

	density := make(map[int]float64, len(members))
	var maxDensity float64
	for id, pts := range members {
		density[id] = ClusterDensity(pts)
		maxDensity = math.Max(maxDensity, density[id])
	}

	total := float64(t.Len())
	for i := range t.Entities {
		e := &t.Entities[i]
		if e.ClusterID == nil {
			continue
		}
		id := *e.ClusterID
		score := 50 * float64(len(members[id])) / total
		if maxDensity > 0 {
			score += 50 * density[id] / maxDensity
		}
		e.SaturationScore = score
		e.Saturation = SaturationBucket(score)
	}
}

// ClusterDensity is 1 / (mean pairwise distance + 0.01); a cluster with at
// most one point has density 0.
func ClusterDensity(points []models.Point) float64 {
	if len(points) <= 1 {
		return 0
	}
	var sum float64
	pairs := 0
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			sum += math.Hypot(points[i].X-points[j].X, points[i].Y-points[j].Y)
			pairs++
		}
	}
	return 1 / (sum/float64(pairs) + densityEpsilon)
}

// MinMaxScale rescales values onto [0, top]. Equal values all map to 0.
func MinMaxScale(values []float64, top float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi <= lo {
		return out
	}
	for i, v := range values {
		out[i] = top * (v - lo) / (hi - lo)
	}
	return out
}

// DefensibilityBucket maps a score to its label; 70 and 40 are inclusive.
func DefensibilityBucket(score float64) string {
	switch {
	case score >= 70:
		return DefensibilityHigh
	case score >= 40:
		return DefensibilityMedium
	}
	return DefensibilityLow
}

// SaturationBucket maps a score to its label; 70 and 40 are inclusive.
func SaturationBucket(score float64) string {
	switch {
	case score >= 70:
		return SaturationHigh
	case score >= 40:
		return SaturationModerate
	}
	return SaturationLow
}
