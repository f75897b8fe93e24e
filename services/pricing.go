package services

import (
	"regexp"
	"strconv"
	"strings"

	"ai-startup-map/metrics"
	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// pricePattern is a pricing-model flag and the pattern that sets it.
// Patterns are case-sensitive.
type pricePattern struct {
	column string
	re     *regexp.Regexp
}

var pricePatterns = []pricePattern{
	{"has_free_tier", regexp.MustCompile(`Free|free`)},
	{"has_enterprise", regexp.MustCompile(`Enterprise|enterprise|Contact|contact`)},
	{"has_startup_plan", regexp.MustCompile(`Startup|startup|Small business`)},
	{"has_subscription", regexp.MustCompile(`Subscription|subscription|monthly|yearly|annual`)},
	{"has_usage_based", regexp.MustCompile(`Usage|usage|Pay as you|consumption|credits`)},
	{"has_tiered", regexp.MustCompile(`Basic|Pro|Premium|Standard|Plus|Advanced`)},
	{"has_freemium", regexp.MustCompile(`Freemium|freemium|Free.*Premium|free.*paid`)},
}

// PricingColumns lists the pricing flags in the order they are added.
func PricingColumns() []string {
	cols := make([]string, len(pricePatterns))
	for i, p := range pricePatterns {
		cols[i] = p.column
	}
	return cols
}

// dollarRegexp captures "$<amount>", allowing thousands separators.
var dollarRegexp = regexp.MustCompile(`\$(\d[\d,]*(?:\.\d+)?)`)

// PricingAnalyzer derives pricing-model flags and price points.
type PricingAnalyzer struct {
	logger  *utils.Logger
	metrics *metrics.Recorder
}

// NewPricingAnalyzer creates a PricingAnalyzer. rec may be nil.
func NewPricingAnalyzer(logger *utils.Logger, rec *metrics.Recorder) *PricingAnalyzer {
	return &PricingAnalyzer{logger: logger, metrics: rec}
}

// Apply sets the pricing flags and the price summary of every entity.
// Without a pricing column the stage is skipped with a SchemaMismatch.
func (p *PricingAnalyzer) Apply(t *models.Table) (*models.Table, error) {
	out := t.Clone()
	if !out.HasSourceColumn(models.ColPricing) {
		return out, models.NewError(models.KindSchemaMismatch, "pricing", "no pricing column in any source")
	}

	for _, pp := range pricePatterns {
		out.AddFeatureColumn(pp.column)
	}

	withPrices := 0
	for i := range out.Entities {
		e := &out.Entities[i]
		for _, pp := range pricePatterns {
			e.SetFeature(pp.column, pp.re.MatchString(e.Pricing))
		}
		e.Price = ParsePricePoints(e.Pricing)
		switch {
		case e.Price.PriceTiers != nil:
			withPrices++
		case strings.TrimSpace(e.Pricing) != "":
			p.metrics.ParseFailure(models.ColPricing)
		}
	}
	out.HasPriceSummary = true

	p.logger.Info("[pricing] Analysed pricing for %d entities (%d with price points)", out.Len(), withPrices)
	return out, nil
}

// ParsePricePoints collects every dollar amount in text. All fields are nil
// when the text holds none.
func ParsePricePoints(text string) models.PriceSummary {
	var prices []float64
	for _, m := range dollarRegexp.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		prices = append(prices, v)
	}
	if len(prices) == 0 {
		return models.PriceSummary{}
	}

	lo, hi := prices[0], prices[0]
	for _, v := range prices[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	tiers := len(prices)
	return models.PriceSummary{MinPrice: &lo, MaxPrice: &hi, PriceTiers: &tiers}
}
