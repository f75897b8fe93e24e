package models

// Column names recognised in source tables. Every other header is ignored.
const (
	ColName        = "name"
	ColDescription = "description"
	ColFunding     = "funding"
	ColWebsite     = "website"
	ColPricing     = "pricing"
	ColCompanySize = "company_size"
	ColCategories  = "categories"
)

// RequiredColumns must be present in a source header for the source to be usable.
var RequiredColumns = []string{ColName, ColDescription}

// OptionalColumns are merged when any source supplies them.
var OptionalColumns = []string{ColFunding, ColWebsite, ColPricing, ColCompanySize, ColCategories}

// SourceRecord holds one unprocessed row from one scraped source table.
// An empty field means the cell was missing in the source file.
type SourceRecord struct {
	Name        string
	Description string
	Funding     string
	Website     string
	Pricing     string
	CompanySize string
	Categories  string
	Source      string
	Row         int
}

// SourceTable is the full contents of one source file, tagged with its source name.
// Priority orders sources during merge: lower wins conflicting fields.
type SourceTable struct {
	Source   string
	Priority int
	Path     string
	Columns  map[string]bool
	Records  []SourceRecord
}

// HasColumn reports whether the source header supplied col.
func (t *SourceTable) HasColumn(col string) bool {
	return t.Columns[col]
}

// SourceSpec names one source file to read. Specs are merged in slice order,
// so the first spec has the highest priority.
type SourceSpec struct {
	Name string
	Path string
}
