package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// headerAliases lists, per recognised column, the header names accepted for
// it in preference order. Matching is case-insensitive.
var headerAliases = map[string][]string{
	models.ColName:        {"name", "company_name", "product_name", "company"},
	models.ColDescription: {"description", "tagline", "summary", "about"},
	models.ColFunding:     {"funding", "total_funding", "funding_total"},
	models.ColWebsite:     {"website", "url", "homepage"},
	models.ColPricing:     {"pricing", "price"},
	models.ColCompanySize: {"company_size", "employees", "size"},
	models.ColCategories:  {"categories", "category", "industry", "tags"},
}

// SourceReader loads scraped source tables from CSV files.
type SourceReader struct {
	logger *utils.Logger
}

// NewSourceReader creates a SourceReader with the given logger.
func NewSourceReader(logger *utils.Logger) *SourceReader {
	return &SourceReader{logger: logger}
}

// ReadAll reads every spec, tagging rows with the spec name and giving each
// table its position as priority. Unreadable sources are skipped with a
// warning; if none can be read the error is MissingInput.
func (r *SourceReader) ReadAll(specs []models.SourceSpec) ([]models.SourceTable, error) {
	var tables []models.SourceTable
	for i, spec := range specs {
		t, err := r.Read(spec, i)
		if err != nil {
			r.logger.Warn("[source] Skipping %s: %v", spec.Name, err)
			continue
		}
		r.logger.Info("[source] Loaded %d %s records from %s", len(t.Records), spec.Name, spec.Path)
		tables = append(tables, *t)
	}
	if len(tables) == 0 {
		return nil, models.Errorf(models.KindMissingInput, "source",
			"none of %d configured sources could be read", len(specs))
	}
	return tables, nil
}

// Read loads one source file. A missing or unreadable file is MissingInput;
// a header without name and description is SchemaMismatch.
func (r *SourceReader) Read(spec models.SourceSpec, priority int) (*models.SourceTable, error) {
	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, models.WrapError(err, models.KindMissingInput, "source", spec.Path)
	}
	defer f.Close()

	table, err := readSourceCSV(f, spec.Name)
	if err != nil {
		return nil, err
	}
	table.Priority = priority
	table.Path = spec.Path
	return table, nil
}

func readSourceCSV(in io.Reader, source string) (*models.SourceTable, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, models.NewError(models.KindSchemaMismatch, "source", source+": empty file")
		}
		return nil, models.WrapError(err, models.KindMissingInput, "source", source+": read header")
	}
	for i := range header {
		header[i] = cleanCell(header[i])
	}

	index := make(map[string]int)
	columns := make(map[string]bool)
	for col, aliases := range headerAliases {
		if idx := findColumn(header, aliases); idx >= 0 {
			index[col] = idx
			columns[col] = true
		}
	}
	for _, col := range models.RequiredColumns {
		if !columns[col] {
			return nil, models.Errorf(models.KindSchemaMismatch, "source",
				"%s: header has no %q column", source, col)
		}
	}

	table := &models.SourceTable{Source: source, Columns: columns}
	row := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.WrapError(err, models.KindMissingInput, "source",
				fmt.Sprintf("%s: row %d", source, row+1))
		}
		row++
		get := func(col string) string {
			idx, ok := index[col]
			if !ok || idx >= len(rec) {
				return ""
			}
			return missing(cleanCell(rec[idx]))
		}
		table.Records = append(table.Records, models.SourceRecord{
			Name:        get(models.ColName),
			Description: get(models.ColDescription),
			Funding:     get(models.ColFunding),
			Website:     get(models.ColWebsite),
			Pricing:     get(models.ColPricing),
			CompanySize: get(models.ColCompanySize),
			Categories:  get(models.ColCategories),
			Source:      source,
			Row:         row,
		})
	}
	return table, nil
}

// findColumn returns the header index of the first candidate present.
func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

// missing maps the spellings scrapers use for an absent value to "".
func missing(v string) string {
	switch strings.ToLower(v) {
	case "nan", "null", "none":
		return ""
	}
	return v
}
