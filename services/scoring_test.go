package services

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-startup-map/models"
)

func clusteredTable(t *testing.T) *models.Table {
	t.Helper()
	c := newTestClusterEngine()
	out, err := c.Apply(c.PrepareFeatures(separableTable()), "kmeans", 2)
	require.NoError(t, err)
	return out
}

func TestScoringRequiresClusters(t *testing.T) {
	s := NewScoringEngine(newTestLogger())
	_, err := s.Apply(separableTable())
	assert.ErrorIs(t, err, models.ErrClusteringPrecondition)
}

func TestScoringApply(t *testing.T) {
	s := NewScoringEngine(newTestLogger())
	out, err := s.Apply(clusteredTable(t))
	require.NoError(t, err)
	assert.True(t, out.Scored)

	for i, e := range out.Entities {
		assert.GreaterOrEqual(t, e.DefensibilityScore, 0.0)
		assert.LessOrEqual(t, e.DefensibilityScore, 100.0)
		if i%2 == 0 {
			assert.Equal(t, 0.0, e.DefensibilityScore, e.Name)
			assert.Equal(t, DefensibilityLow, e.Defensibility)
		} else {
			assert.Equal(t, 100.0, e.DefensibilityScore, e.Name)
			assert.Equal(t, DefensibilityHigh, e.Defensibility)
		}
		// Two equal-sized clusters of coincident points.
		assert.InDelta(t, 75, e.SaturationScore, 1e-9)
		assert.Equal(t, SaturationHigh, e.Saturation)
	}
}

func TestScoringFundingFactor(t *testing.T) {
	tbl := clusteredTable(t)
	tbl.HasFundingAmount = true
	for i := range tbl.Entities {
		amount := float64(i)
		tbl.Entities[i].FundingAmount = &amount
	}
	tbl.Entities[0].FundingAmount = nil

	out, err := NewScoringEngine(newTestLogger()).Apply(tbl)
	require.NoError(t, err)
	// Entity 5 has the top funding and the enterprise flag.
	assert.Equal(t, 100.0, out.Entities[5].DefensibilityScore)
	assert.Equal(t, 0.0, out.Entities[0].DefensibilityScore)
}

func TestBuckets(t *testing.T) {
	tests := []struct {
		score         float64
		defensibility string
		saturation    string
	}{
		{100, DefensibilityHigh, SaturationHigh},
		{70, DefensibilityHigh, SaturationHigh},
		{69.99, DefensibilityMedium, SaturationModerate},
		{40, DefensibilityMedium, SaturationModerate},
		{39.99, DefensibilityLow, SaturationLow},
		{0, DefensibilityLow, SaturationLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.defensibility, DefensibilityBucket(tt.score), tt.score)
		assert.Equal(t, tt.saturation, SaturationBucket(tt.score), tt.score)
	}
}

func TestClusterDensity(t *testing.T) {
	assert.Equal(t, 0.0, ClusterDensity(nil))
	assert.Equal(t, 0.0, ClusterDensity([]models.Point{{X: 3, Y: 4}}))
	assert.InDelta(t, 1/1.01, ClusterDensity([]models.Point{{}, {X: 1}}), 1e-9)
	assert.InDelta(t, 100, ClusterDensity([]models.Point{{X: 2}, {X: 2}}), 1e-9)
}

func TestMinMaxScale(t *testing.T) {
	assert.Equal(t, []float64{0, 50, 100}, MinMaxScale([]float64{1, 2, 3}, 100))
	assert.Equal(t, []float64{0, 0}, MinMaxScale([]float64{4, 4}, 100), "zero spread")
	assert.Empty(t, MinMaxScale(nil, 100))
}

func TestInsightGenerate(t *testing.T) {
	scored, err := NewScoringEngine(newTestLogger()).Apply(clusteredTable(t))
	require.NoError(t, err)

	svc := NewInsightService(newTestLogger())
	r := svc.Generate(scored, "kmeans")

	assert.Equal(t, 6, r.TotalEntities)
	assert.Equal(t, "kmeans", r.Method)
	require.Len(t, r.Clusters, 2)
	assert.Equal(t, "LLM", r.Clusters[0].Name)
	assert.Equal(t, 3, r.Clusters[0].Size)
	assert.Equal(t, []string{"co-0", "co-2", "co-4"}, r.Clusters[0].Companies)
	require.NotEmpty(t, r.Clusters[0].TopFeatures)
	assert.Equal(t, "has_llm", r.Clusters[0].TopFeatures[0].Column)
	assert.Equal(t, "B2B focused", r.Clusters[1].Theme)

	assert.Equal(t, 3, r.DefensibilityCounts[DefensibilityHigh])
	assert.Equal(t, 3, r.DefensibilityCounts[DefensibilityLow])
	assert.Equal(t, 6, r.SaturationCounts[SaturationHigh])

	require.Len(t, r.MostDefensible, 5)
	for i := 1; i < len(r.MostDefensible); i++ {
		assert.GreaterOrEqual(t, r.MostDefensible[i-1].DefensibilityScore, r.MostDefensible[i].DefensibilityScore)
	}
	assert.Equal(t, "co-1", r.MostDefensible[0].Name)
}

func TestInsightGenerateUnclustered(t *testing.T) {
	r := NewInsightService(newTestLogger()).Generate(separableTable(), "kmeans")
	assert.Equal(t, 6, r.TotalEntities)
	assert.Empty(t, r.Clusters)
	assert.Empty(t, r.MostDefensible)
}

func TestClusterTheme(t *testing.T) {
	tests := []struct {
		name  string
		means map[string]float64
		top   []models.FeatureWeight
		want  string
	}{
		{"funded", map[string]float64{ColFundingAmount: 0.8, "is_b2b": 0.9}, nil, "Well-funded startups"},
		{"b2b", map[string]float64{"is_b2b": 0.9}, nil, "B2B focused"},
		{"saas", map[string]float64{"is_saas": 0.71}, nil, "SaaS products"},
		{"gpt", map[string]float64{"has_gpt": 0.6}, nil, "GPT/LLM focused"},
		{"fallback", map[string]float64{"use_code": 0.4}, []models.FeatureWeight{{Column: "use_code", Value: 0.4}}, "use_code focused"},
		{"empty", map[string]float64{}, nil, "Unclassified"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clusterTheme(tt.means, tt.top), tt.name)
	}
}

func TestInsightPrint(t *testing.T) {
	scored, err := NewScoringEngine(newTestLogger()).Apply(clusteredTable(t))
	require.NoError(t, err)
	svc := NewInsightService(newTestLogger())

	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(scored, "kmeans"))
	out := buf.String()

	assert.Contains(t, out, "AI STARTUP MARKET MAP")
	assert.Contains(t, out, "Cluster 0: LLM")
	assert.Contains(t, out, "B2B & Enterprise")
	assert.Contains(t, out, DefensibilityHigh)
	assert.Contains(t, out, "Most Defensible Companies")
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Яндекс...", truncate("Яндекс Инструменты", 9))
	assert.Equal(t, "株式会社...", truncate("株式会社テキストフォージ", 7))
}

func TestInsightPrintNonASCIINames(t *testing.T) {
	scored, err := NewScoringEngine(newTestLogger()).Apply(clusteredTable(t))
	require.NoError(t, err)
	for i := range scored.Entities {
		scored.Entities[i].Name = strings.Repeat("Искусственный интеллект ", 3) + "株式会社"
	}
	svc := NewInsightService(newTestLogger())

	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(scored, "kmeans"))
	assert.True(t, utf8.Valid(buf.Bytes()))
}
