package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

const (
	topFeatureCount    = 5
	mostDefensibleTop  = 5
	exampleCompanyShow = 6
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises a clustered table per cluster. Scores and buckets are
// counted when the table has been scored.
func (s *InsightService) Generate(t *models.Table, method string) *models.AnalysisReport {
	report := &models.AnalysisReport{
		TotalEntities:       t.Len(),
		Method:              method,
		DefensibilityCounts: make(map[string]int),
		SaturationCounts:    make(map[string]int),
	}
	if t.Len() == 0 || !t.Clustered {
		return report
	}

	cols := MatrixColumns(t)
	for _, id := range t.ClusterIDs() {
		var members []*models.CanonicalEntity
		for i := range t.Entities {
			if e := &t.Entities[i]; e.ClusterID != nil && *e.ClusterID == id {
				members = append(members, e)
			}
		}
		report.Clusters = append(report.Clusters, s.profile(id, members, cols))
	}

	if t.Scored {
		ranked := make([]*models.CanonicalEntity, 0, t.Len())
		for i := range t.Entities {
			e := &t.Entities[i]
			report.DefensibilityCounts[e.Defensibility]++
			report.SaturationCounts[e.Saturation]++
			ranked = append(ranked, e)
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].DefensibilityScore > ranked[j].DefensibilityScore
		})
		if len(ranked) > mostDefensibleTop {
			ranked = ranked[:mostDefensibleTop]
		}
		report.MostDefensible = ranked
	}

	s.logger.Debug("[insights] Profiled %d clusters", len(report.Clusters))
	return report
}

func (s *InsightService) profile(id int, members []*models.CanonicalEntity, cols []string) models.ClusterProfile {
	p := models.ClusterProfile{ID: id, Size: len(members)}
	if len(members) == 0 {
		return p
	}
	p.Name = members[0].ClusterName
	p.Saturation = round2(members[0].SaturationScore)

	means := make(map[string]float64, len(cols))
	weights := make([]models.FeatureWeight, 0, len(cols))
	points := make([]models.Point, 0, len(members))
	for _, e := range members {
		p.Companies = append(p.Companies, e.Name)
		points = append(points, e.PCA)
	}
	for _, c := range cols {
		var sum float64
		for _, e := range members {
			sum += NumericValue(e, c)
		}
		means[c] = sum / float64(len(members))
		weights = append(weights, models.FeatureWeight{Column: c, Value: means[c]})
	}

	sort.SliceStable(weights, func(i, j int) bool { return weights[i].Value > weights[j].Value })
	if len(weights) > topFeatureCount {
		weights = weights[:topFeatureCount]
	}
	p.TopFeatures = weights
	p.Theme = clusterTheme(means, weights)
	p.Density = round2(ClusterDensity(points))
	return p
}

// clusterTheme applies the theme rules in order; the fallback names the
// feature with the highest mean.
func clusterTheme(means map[string]float64, top []models.FeatureWeight) string {
	if v, ok := means[ColFundingAmount]; ok && v > 0.7 {
		return "Well-funded startups"
	}
	if v, ok := means["is_b2b"]; ok && v > 0.7 {
		return "B2B focused"
	}
	if v, ok := means["is_saas"]; ok && v > 0.7 {
		return "SaaS products"
	}
	if v, ok := means["has_gpt"]; ok && v > 0.5 {
		return "GPT/LLM focused"
	}
	if len(top) == 0 {
		return "Unclassified"
	}
	return top[0].Column + " focused"
}

// Print renders the report as a boxed terminal summary.
func (s *InsightService) Print(w io.Writer, r *models.AnalysisReport) {
	sep := strings.Repeat("═", 62)
	thin := strings.Repeat("─", 62)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 AI STARTUP MARKET MAP\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Entities analysed : \033[1m%d\033[0m\n", r.TotalEntities)
	fmt.Fprintf(w, "  Method            : \033[1m%s\033[0m\n", r.Method)
	fmt.Fprintf(w, "  Clusters          : \033[1m%d\033[0m\n", len(r.Clusters))
	fmt.Fprintln(w)

	for _, c := range r.Clusters {
		fmt.Fprintf(w, "\033[1;33m  Cluster %d: %s\033[0m (%d companies)\n", c.ID, c.Name, c.Size)
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  Theme      : %s\n", c.Theme)
		fmt.Fprintf(w, "  Density    : %.2f   Saturation : %.2f\n", c.Density, c.Saturation)
		for _, f := range c.TopFeatures {
			fmt.Fprintf(w, "    %-28s %.2f\n", truncate(f.Column, 28), f.Value)
		}
		examples := c.Companies
		if len(examples) > exampleCompanyShow {
			examples = examples[:exampleCompanyShow]
		}
		fmt.Fprintf(w, "  Companies  : %s\n", truncate(strings.Join(examples, ", "), 50))
		fmt.Fprintln(w)
	}

	if len(r.DefensibilityCounts) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Defensibility\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		printCounts(w, r.DefensibilityCounts, []string{DefensibilityHigh, DefensibilityMedium, DefensibilityLow})
		fmt.Fprintln(w)

		fmt.Fprintf(w, "\033[1;33m  Market Saturation\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		printCounts(w, r.SaturationCounts, []string{SaturationHigh, SaturationModerate, SaturationLow})
		fmt.Fprintln(w)
	}

	if len(r.MostDefensible) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Most Defensible Companies\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for i, e := range r.MostDefensible {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%.2f\033[0m\n",
				i+1, truncate(e.Name, 38), e.DefensibilityScore)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(w io.Writer, counts map[string]int, order []string) {
	for _, label := range order {
		bar := strings.Repeat("█", counts[label])
		fmt.Fprintf(w, "  %-22s %s (%d)\n", label, bar, counts[label])
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
