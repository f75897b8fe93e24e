package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// scoredTable is a two-entity table in the state the pipeline hands to the
// checkpoint 2 writer.
func scoredTable() *models.Table {
	t := models.NewTable([]models.CanonicalEntity{
		{
			Name:         "Acme",
			Description:  "LLM agents, for sales",
			Website:      "https://acme.ai/",
			WebsiteClean: "acme.ai",
			Funding:      "$1.2B",
			Source:       "Crunchbase",
			Sources:      []string{"Crunchbase", "ProductHunt"},

			FundingAmount: floatPtr(1200),
			Features:      map[string]int{"has_llm": 1, "is_b2b": 0, "kw_agents": 1},
			Keywords:      []string{"agents", "sales"},
			Price:         models.PriceSummary{MinPrice: floatPtr(9.5), MaxPrice: floatPtr(99), PriceTiers: intPtr(2)},
			SizeCategory:  models.SizeSmall,

			GTMMotion:      "unspecified",
			PrimaryUseCase: "sales",
			BusinessModel:  "unspecified",

			ClusterID:          intPtr(0),
			ClusterName:        "LLM",
			ClusterSize:        1,
			PCA:                models.Point{X: 1.25, Y: -0.5},
			DefensibilityScore: 100,
			Defensibility:      "High defensibility",
			SaturationScore:    25,
			Saturation:         "Low saturation",
		},
		{
			Name:        "Beta",
			Description: "B2B \"vision\" tools",
			Source:      "ProductHunt",
			Sources:     []string{"ProductHunt"},

			Features:     map[string]int{"has_llm": 0, "is_b2b": 1, "kw_agents": 0},
			SizeCategory: models.SizeUnknown,

			GTMMotion:      "unspecified",
			PrimaryUseCase: "unspecified",
			BusinessModel:  "b2b",

			ClusterID:          intPtr(1),
			ClusterName:        "B2B",
			ClusterSize:        1,
			PCA:                models.Point{X: -1.25, Y: 0.5},
			DefensibilityScore: 0,
			Defensibility:      "Low defensibility",
			SaturationScore:    25,
			Saturation:         "Low saturation",
		},
	}, map[string]bool{models.ColName: true, models.ColDescription: true, models.ColWebsite: true, models.ColFunding: true})
	t.FeatureColumns = []string{"has_llm", "is_b2b", "kw_agents"}
	t.HasFundingAmount = true
	t.HasKeywords = true
	t.HasPriceSummary = true
	t.HasSize = true
	t.HasSummaries = true
	t.Prepared = true
	t.Clustered = true
	t.Scored = true
	return t
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "clustered.csv")
	in := scoredTable()

	w := NewCheckpointWriter(utils.NewNopLogger())
	require.NoError(t, w.WriteClustered(path, in))

	got, err := NewCheckpointReader(utils.NewNopLogger()).Read(path)
	require.NoError(t, err)

	assert.Equal(t, in.Entities, got.Entities)
	assert.Equal(t, in.FeatureColumns, got.FeatureColumns)
	assert.True(t, got.HasSourceColumn(models.ColWebsite))
	assert.True(t, got.HasSourceColumn(models.ColFunding))
	assert.False(t, got.HasSourceColumn(models.ColPricing))
	assert.True(t, got.HasFundingAmount)
	assert.True(t, got.HasPriceSummary)
	assert.True(t, got.HasSize)
	assert.True(t, got.HasSummaries)
	assert.True(t, got.Clustered)
	assert.True(t, got.Scored)
}

func TestCheckpointProcessedHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processed.csv")
	tbl := scoredTable()

	require.NoError(t, NewCheckpointWriter(utils.NewNopLogger()).WriteProcessed(path, tbl))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	header := strings.SplitN(string(raw), "\n", 2)[0]
	assert.Equal(t, "name,description,website,website_clean,funding,source,sources,funding_amount,"+
		"has_llm,is_b2b,kw_agents,keywords,min_price,max_price,price_tiers,size_category,"+
		"gtm_motion,primary_use_case,business_model", header)

	got, err := NewCheckpointReader(utils.NewNopLogger()).Read(path)
	require.NoError(t, err)
	assert.False(t, got.Clustered, "checkpoint 1 carries no clusters")
	assert.Nil(t, got.Entities[0].ClusterID)
	assert.Nil(t, got.Entities[1].FundingAmount)
	assert.Nil(t, got.Entities[1].Price.PriceTiers)
}

func TestWriteClusteredRefusesIncompleteTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clustered.csv")
	w := NewCheckpointWriter(utils.NewNopLogger())

	unscored := scoredTable()
	unscored.Scored = false
	assert.ErrorIs(t, w.WriteClustered(path, unscored), models.ErrContractViolation)

	unassigned := scoredTable()
	unassigned.Entities[1].ClusterID = nil
	assert.ErrorIs(t, w.WriteClustered(path, unassigned), models.ErrContractViolation)

	unnamed := scoredTable()
	unnamed.Entities[0].ClusterName = ""
	assert.ErrorIs(t, w.WriteClustered(path, unnamed), models.ErrContractViolation)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckpointAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processed.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, NewCheckpointWriter(utils.NewNopLogger()).WriteProcessed(path, scoredTable()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "name,description"))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")
}

func TestCheckpointReadErrors(t *testing.T) {
	dir := t.TempDir()
	r := NewCheckpointReader(utils.NewNopLogger())

	_, err := r.Read(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, models.ErrMissingInput)

	badFlag := writeFile(t, dir, "bad.csv", "name,description,has_llm\nAcme,desc,2\n")
	_, err = r.Read(badFlag)
	assert.ErrorIs(t, err, models.ErrContractViolation)

	noName := writeFile(t, dir, "noname.csv", "description\ndesc\n")
	_, err = r.Read(noName)
	assert.ErrorIs(t, err, models.ErrContractViolation)
}

func TestIsFeatureColumn(t *testing.T) {
	for _, col := range []string{"has_llm", "is_open_source", "gtm_viral", "use_code", "kw_agents", "size_micro"} {
		assert.True(t, isFeatureColumn(col), col)
	}
	for _, col := range []string{"size_category", "gtm_motion", "name", "funding_amount", "primary_use_case"} {
		assert.False(t, isFeatureColumn(col), col)
	}
}
