package services

import (
	"regexp"
	"strconv"
	"strings"

	"ai-startup-map/metrics"
	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// fundingRegexp captures the first numeric token of a funding text.
var fundingRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

// FundingNormalizer converts funding text to millions of USD.
type FundingNormalizer struct {
	logger  *utils.Logger
	metrics *metrics.Recorder
}

// NewFundingNormalizer creates a FundingNormalizer. rec may be nil.
func NewFundingNormalizer(logger *utils.Logger, rec *metrics.Recorder) *FundingNormalizer {
	return &FundingNormalizer{logger: logger, metrics: rec}
}

// Apply derives funding_amount for every entity. Without a funding column the
// stage is skipped: the returned table has no funding_amount and the error is
// a SchemaMismatch.
func (f *FundingNormalizer) Apply(t *models.Table) (*models.Table, error) {
	out := t.Clone()
	if !out.HasSourceColumn(models.ColFunding) {
		return out, models.NewError(models.KindSchemaMismatch, "funding", "no funding column in any source")
	}

	parsed, failed := 0, 0
	for i := range out.Entities {
		e := &out.Entities[i]
		e.FundingAmount = nil
		amount, ok := ParseFunding(e.Funding)
		if !ok {
			if strings.TrimSpace(e.Funding) != "" {
				failed++
				f.metrics.ParseFailure(models.ColFunding)
				f.logger.Debug("[funding] Could not parse %q for %s", e.Funding, e.Name)
			}
			continue
		}
		e.FundingAmount = &amount
		parsed++
	}
	out.HasFundingAmount = true

	f.logger.Info("[funding] Parsed %d funding amounts (%d unparseable, %d empty)",
		parsed, failed, out.Len()-parsed-failed)
	return out, nil
}

// ParseFunding extracts an amount in millions of USD from text such as
// "$1.2B", "$500K" or "$1,500M". It reports false for missing, "N/A" or
// digit-free input.
func ParseFunding(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "n/a") {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", "")
	match := fundingRegexp.FindString(s)
	if match == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}

	// First unit found wins, in this order.
	switch {
	case strings.Contains(s, "B"):
		amount *= 1000
	case strings.Contains(s, "M"):
	case strings.Contains(s, "K"):
		amount *= 0.001
	}
	return amount, true
}
