package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-startup-map/models"
)

func TestColumnName(t *testing.T) {
	assert.Equal(t, "is_open_source", ColumnName("is_", "open-source"))
	assert.Equal(t, "has_machine_learning", ColumnName("has_", "machine learning"))
	assert.Equal(t, "gtm_product_led", ColumnName("gtm_", "product-led"))
	assert.Equal(t, "has_llm", ColumnName("has_", "LLM"))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		col  string
		want string
	}{
		{"has_llm", "LLM"},
		{"is_open_source", "Open-source"},
		{"has_free_tier", "Free tier"},
		{"kw_agents", "Agents"},
		{"use_customer_service", "Customer service"},
		{"is_something_else", "Something else"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayName(tt.col), tt.col)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"AI is great, really!", []string{"great", "really"}},
		{"an of to", nil},
		{"GPT-4 models 2024", []string{"models"}},
		{"openai's platform powers europe's largest startups, (agents).",
			[]string{"openai", "platform", "powers", "europe", "largest", "startups", "agents"}},
		{"Europe\u2019s founders we've met", []string{"europe", "founders", "met"}},
		{"teams they'll love and haven't tried", []string{"teams", "love", "tried"}},
		{"sellers' tools", []string{"sellers", "tools"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.text), tt.text)
	}
}

func TestMostCommonKeepsFirstOccurrenceOnTies(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, MostCommon([]string{"b", "a", "b", "c", "a"}, 2))
	assert.Equal(t, []string{"x", "y"}, MostCommon([]string{"x", "y"}, 5))
}

func TestFeatureApplyVocabularyFlags(t *testing.T) {
	x := NewFeatureExtractor(newTestLogger())
	in := models.NewTable([]models.CanonicalEntity{
		{Name: "a", Description: "An open-source LLM platform for developers"},
		{Name: "b", Description: "A community-driven, viral product"},
	}, columns())

	out, err := x.Apply(in)
	require.NoError(t, err)
	for _, v := range Vocabularies {
		for _, col := range v.Columns() {
			assert.True(t, out.HasFeature(col), col)
		}
	}

	a := out.Entities[0]
	assert.Equal(t, 1, a.Feature("is_open_source"))
	assert.Equal(t, 1, a.Feature("has_llm"))
	assert.Equal(t, 1, a.Feature("is_platform"))
	assert.Equal(t, 0, a.Feature("is_b2c"))
	assert.Equal(t, "open_source", a.BusinessModel)

	b := out.Entities[1]
	assert.Equal(t, 1, b.Feature("gtm_community"))
	assert.Equal(t, 1, b.Feature("gtm_viral"))
	assert.Equal(t, "community", b.GTMMotion, "first highest flag wins")
	assert.Equal(t, Unspecified, b.BusinessModel)
	assert.Equal(t, Unspecified, a.GTMMotion)
	assert.True(t, out.HasSummaries)
}

func TestFeatureApplyCategoriesOnlyWhenColumnPresent(t *testing.T) {
	x := NewFeatureExtractor(newTestLogger())
	entities := []models.CanonicalEntity{{Name: "a", Description: "Tools for teams", Categories: "SaaS; B2B"}}

	with, err := x.Apply(models.NewTable(entities, columns(models.ColCategories)))
	require.NoError(t, err)
	assert.Equal(t, 1, with.Entities[0].Feature("is_saas"))
	assert.Equal(t, 1, with.Entities[0].Feature("is_b2b"))
	assert.Equal(t, "b2b", with.Entities[0].BusinessModel)

	without, err := x.Apply(models.NewTable(entities, columns()))
	require.NoError(t, err)
	assert.Equal(t, 0, without.Entities[0].Feature("is_saas"))
	assert.Equal(t, 0, without.Entities[0].Feature("has_ai"), "categories never set technique flags")
}

func TestFeatureApplyKeywords(t *testing.T) {
	x := NewFeatureExtractor(newTestLogger())
	in := models.NewTable([]models.CanonicalEntity{
		{Name: "a", Description: "Models generate images. Models train fast."},
		{Name: "b", Description: "Agents answer tickets"},
	}, columns())

	out, err := x.Apply(in)
	require.NoError(t, err)
	assert.True(t, out.HasKeywords)
	assert.Equal(t, []string{"models", "generate", "images", "train", "fast"}, out.Entities[0].Keywords)

	require.True(t, out.HasFeature("kw_models"))
	assert.Equal(t, 1, out.Entities[0].Feature("kw_models"))
	assert.Equal(t, 0, out.Entities[1].Feature("kw_models"))
	assert.Equal(t, 1, out.Entities[1].Feature("kw_agents"))
	assert.LessOrEqual(t, len(out.FeatureColumnsWithPrefix("kw_")), 20)
}
