package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-startup-map/metrics"
	"ai-startup-map/models"
)

func TestParseFunding(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"$1.2B", 1200, true},
		{"$500K", 0.5, true},
		{"$10M", 10, true},
		{"$1,500M", 1500, true},
		{"25", 25, true},
		{"Series A: $12.5M", 12.5, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"undisclosed", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFunding(tt.raw)
		assert.Equal(t, tt.wantOK, ok, tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, tt.raw)
	}
}

func TestFundingApply(t *testing.T) {
	rec := metrics.NewRecorder()
	f := NewFundingNormalizer(newTestLogger(), rec)
	in := models.NewTable([]models.CanonicalEntity{
		{Name: "a", Funding: "$2B"},
		{Name: "b", Funding: "unknown"},
		{Name: "c"},
	}, columns(models.ColFunding))

	out, err := f.Apply(in)
	require.NoError(t, err)
	assert.True(t, out.HasFundingAmount)
	require.NotNil(t, out.Entities[0].FundingAmount)
	assert.Equal(t, 2000.0, *out.Entities[0].FundingAmount)
	assert.Nil(t, out.Entities[1].FundingAmount)
	assert.Nil(t, out.Entities[2].FundingAmount)
	assert.Nil(t, in.Entities[0].FundingAmount, "input table must not change")
}

func TestFundingSkippedWithoutColumn(t *testing.T) {
	f := NewFundingNormalizer(newTestLogger(), nil)
	in := models.NewTable([]models.CanonicalEntity{{Name: "a", Funding: "$2B"}}, columns())

	out, err := f.Apply(in)
	assert.ErrorIs(t, err, models.ErrSchemaMismatch)
	require.NotNil(t, out)
	assert.False(t, out.HasFundingAmount)
}

func TestParsePricePoints(t *testing.T) {
	got := ParsePricePoints("Basic $10/month, Pro $1,200/year, Team $49.50")
	require.NotNil(t, got.MinPrice)
	assert.Equal(t, 10.0, *got.MinPrice)
	assert.Equal(t, 1200.0, *got.MaxPrice)
	assert.Equal(t, 3, *got.PriceTiers)

	none := ParsePricePoints("Contact sales")
	assert.Nil(t, none.MinPrice)
	assert.Nil(t, none.MaxPrice)
	assert.Nil(t, none.PriceTiers)
}

func TestPricingApplyFlags(t *testing.T) {
	p := NewPricingAnalyzer(newTestLogger(), nil)
	in := models.NewTable([]models.CanonicalEntity{
		{Name: "a", Pricing: "Free tier, Pro plan $20 monthly"},
		{Name: "b", Pricing: "FREE FOREVER"},
		{Name: "c", Pricing: "Contact us for Enterprise"},
	}, columns(models.ColPricing))

	out, err := p.Apply(in)
	require.NoError(t, err)
	assert.True(t, out.HasPriceSummary)
	for _, col := range PricingColumns() {
		assert.True(t, out.HasFeature(col), col)
	}

	a, b, c := out.Entities[0], out.Entities[1], out.Entities[2]
	assert.Equal(t, 1, a.Feature("has_free_tier"))
	assert.Equal(t, 1, a.Feature("has_tiered"))
	assert.Equal(t, 1, a.Feature("has_subscription"))
	assert.Equal(t, 0, a.Feature("has_enterprise"))
	assert.Equal(t, 20.0, *a.Price.MinPrice)

	assert.Equal(t, 0, b.Feature("has_free_tier"), "patterns are case-sensitive")
	assert.Nil(t, b.Price.PriceTiers)

	assert.Equal(t, 1, c.Feature("has_enterprise"))
}

func TestPricingSkippedWithoutColumn(t *testing.T) {
	p := NewPricingAnalyzer(newTestLogger(), nil)
	out, err := p.Apply(models.NewTable([]models.CanonicalEntity{{Name: "a"}}, columns()))
	assert.ErrorIs(t, err, models.ErrSchemaMismatch)
	assert.False(t, out.HasFeature("has_free_tier"))
}

func TestCategorizeSize(t *testing.T) {
	tests := []struct {
		text string
		want models.SizeCategory
	}{
		{"5 employees", models.SizeMicro},
		{"1-9", models.SizeMicro},
		{"10-49", models.SizeSmall},
		{"50-100 employees", models.SizeMedium},
		{"249", models.SizeMedium},
		{"250", models.SizeLarge},
		{"1,001-5,000 employees", models.SizeLarge},
		{"", models.SizeUnknown},
		{"unknown", models.SizeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategorizeSize(tt.text), tt.text)
	}
}

func TestEstimateEmployees(t *testing.T) {
	n, ok := EstimateEmployees("1,001-5,000")
	assert.True(t, ok)
	assert.Equal(t, 5000, n)

	_, ok = EstimateEmployees("a handful")
	assert.False(t, ok)
}

func TestSizeApplyOneHot(t *testing.T) {
	s := NewSizeCategorizer(newTestLogger(), nil)
	in := models.NewTable([]models.CanonicalEntity{
		{Name: "a", CompanySize: "11-50"},
		{Name: "b"},
	}, columns(models.ColCompanySize))

	out, err := s.Apply(in)
	require.NoError(t, err)
	assert.True(t, out.HasSize)

	assert.Equal(t, models.SizeMedium, out.Entities[0].SizeCategory)
	assert.Equal(t, models.SizeUnknown, out.Entities[1].SizeCategory)
	for _, e := range out.Entities {
		sum := 0
		for _, c := range models.SizeCategories {
			sum += e.Feature(c.Column())
		}
		assert.Equal(t, 1, sum, e.Name)
	}
	assert.Equal(t, 1, out.Entities[1].Feature("size_unknown"))
}
