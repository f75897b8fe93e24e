package services

import (
	"regexp"
	"strconv"
	"strings"

	"ai-startup-map/metrics"
	"ai-startup-map/models"
	"ai-startup-map/utils"
)

var digitsRegexp = regexp.MustCompile(`\d+`)

// SizeCategorizer buckets employee-count text into ordinal size classes.
type SizeCategorizer struct {
	logger  *utils.Logger
	metrics *metrics.Recorder
}

// NewSizeCategorizer creates a SizeCategorizer. rec may be nil.
func NewSizeCategorizer(logger *utils.Logger, rec *metrics.Recorder) *SizeCategorizer {
	return &SizeCategorizer{logger: logger, metrics: rec}
}

// Apply sets size_category and the five one-hot size columns. Without a
// company_size column the stage is skipped with a SchemaMismatch.
func (s *SizeCategorizer) Apply(t *models.Table) (*models.Table, error) {
	out := t.Clone()
	if !out.HasSourceColumn(models.ColCompanySize) {
		return out, models.NewError(models.KindSchemaMismatch, "size", "no company_size column in any source")
	}

	for _, c := range models.SizeCategories {
		out.AddFeatureColumn(c.Column())
	}

	counts := make(map[models.SizeCategory]int)
	for i := range out.Entities {
		e := &out.Entities[i]
		e.SizeCategory = CategorizeSize(e.CompanySize)
		if e.SizeCategory == models.SizeUnknown && strings.TrimSpace(e.CompanySize) != "" {
			s.metrics.ParseFailure(models.ColCompanySize)
		}
		for _, c := range models.SizeCategories {
			e.SetFeature(c.Column(), c == e.SizeCategory)
		}
		counts[e.SizeCategory]++
	}
	out.HasSize = true

	s.logger.Info("[size] Micro=%d Small=%d Medium=%d Large=%d Unknown=%d",
		counts[models.SizeMicro], counts[models.SizeSmall], counts[models.SizeMedium],
		counts[models.SizeLarge], counts[models.SizeUnknown])
	return out, nil
}

// EstimateEmployees returns the largest number in text, after removing
// thousands separators. It reports false when text holds no digits.
func EstimateEmployees(text string) (int, bool) {
	s := strings.ReplaceAll(text, ",", "")
	best, found := 0, false
	for _, m := range digitsRegexp.FindAllString(s, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	return best, found
}

// CategorizeSize maps employee-count text such as "50-100 employees" to a bucket.
func CategorizeSize(text string) models.SizeCategory {
	n, ok := EstimateEmployees(text)
	if !ok {
		return models.SizeUnknown
	}
	switch {
	case n < 10:
		return models.SizeMicro
	case n < 50:
		return models.SizeSmall
	case n < 250:
		return models.SizeMedium
	}
	return models.SizeLarge
}
