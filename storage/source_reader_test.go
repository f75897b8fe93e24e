package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSourceReaderAliasesAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cb.csv",
		"\ufeffCompany_Name,Tagline,Total_Funding,URL\n"+
			"Acme, Agents for sales ,$10M,https://acme.ai\n"+
			"Beta,Vision API,nan,\n")

	r := NewSourceReader(utils.NewNopLogger())
	table, err := r.Read(models.SourceSpec{Name: "Crunchbase", Path: path}, 0)
	require.NoError(t, err)

	assert.Equal(t, "Crunchbase", table.Source)
	assert.True(t, table.HasColumn(models.ColName))
	assert.True(t, table.HasColumn(models.ColFunding))
	assert.True(t, table.HasColumn(models.ColWebsite))
	assert.False(t, table.HasColumn(models.ColPricing))

	require.Len(t, table.Records, 2)
	assert.Equal(t, models.SourceRecord{
		Name: "Acme", Description: "Agents for sales", Funding: "$10M",
		Website: "https://acme.ai", Source: "Crunchbase", Row: 1,
	}, table.Records[0])
	assert.Equal(t, "", table.Records[1].Funding, "nan is a missing value")
	assert.Equal(t, 2, table.Records[1].Row)
}

func TestSourceReaderErrors(t *testing.T) {
	dir := t.TempDir()
	r := NewSourceReader(utils.NewNopLogger())

	noDesc := writeFile(t, dir, "bad.csv", "name,funding\nAcme,$1M\n")
	_, err := r.Read(models.SourceSpec{Name: "Bad", Path: noDesc}, 0)
	assert.ErrorIs(t, err, models.ErrSchemaMismatch)

	empty := writeFile(t, dir, "empty.csv", "")
	_, err = r.Read(models.SourceSpec{Name: "Empty", Path: empty}, 0)
	assert.ErrorIs(t, err, models.ErrSchemaMismatch)

	_, err = r.Read(models.SourceSpec{Name: "Gone", Path: filepath.Join(dir, "gone.csv")}, 0)
	assert.ErrorIs(t, err, models.ErrMissingInput)
}

func TestSourceReaderReadAll(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "ph.csv", "product_name,description,pricing\nBeta,Bots,Free\n")
	r := NewSourceReader(utils.NewNopLogger())

	tables, err := r.ReadAll([]models.SourceSpec{
		{Name: "Crunchbase", Path: filepath.Join(dir, "missing.csv")},
		{Name: "ProductHunt", Path: good},
	})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "ProductHunt", tables[0].Source)
	assert.Equal(t, 1, tables[0].Priority, "priority is the configured position")
	assert.Equal(t, "Free", tables[0].Records[0].Pricing)

	_, err = r.ReadAll([]models.SourceSpec{{Name: "X", Path: filepath.Join(dir, "nope.csv")}})
	assert.ErrorIs(t, err, models.ErrMissingInput)
}

func TestFindColumnPrefersEarlierCandidate(t *testing.T) {
	header := []string{"company", "Name", "summary"}
	assert.Equal(t, 1, findColumn(header, headerAliases[models.ColName]))
	assert.Equal(t, 2, findColumn(header, headerAliases[models.ColDescription]))
	assert.Equal(t, -1, findColumn(header, headerAliases[models.ColFunding]))
}
