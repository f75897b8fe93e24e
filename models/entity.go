package models

import "sort"

// SizeCategory is the ordinal employee-count bucket of an entity.
type SizeCategory string

const (
	SizeMicro   SizeCategory = "Micro (1-9)"
	SizeSmall   SizeCategory = "Small (10-49)"
	SizeMedium  SizeCategory = "Medium (50-249)"
	SizeLarge   SizeCategory = "Large (250+)"
	SizeUnknown SizeCategory = "Unknown"
)

// SizeCategories lists every bucket in ordinal order, Unknown last.
var SizeCategories = []SizeCategory{SizeMicro, SizeSmall, SizeMedium, SizeLarge, SizeUnknown}

// Column returns the one-hot feature column name for the bucket.
func (s SizeCategory) Column() string {
	switch s {
	case SizeMicro:
		return "size_micro"
	case SizeSmall:
		return "size_small"
	case SizeMedium:
		return "size_medium"
	case SizeLarge:
		return "size_large"
	}
	return "size_unknown"
}

// PriceSummary holds the dollar amounts found in a pricing text.
// All three fields are nil when no amount was found.
type PriceSummary struct {
	MinPrice   *float64
	MaxPrice   *float64
	PriceTiers *int
}

// Point is a 2D projected coordinate.
type Point struct {
	X float64
	Y float64
}

// CanonicalEntity is one deduplicated company/product record owned by the pipeline.
type CanonicalEntity struct {
	Name         string
	Website      string
	WebsiteClean string
	Description  string
	Funding      string
	Pricing      string
	CompanySize  string
	Categories   string
	Source       string
	Sources      []string

	FundingAmount *float64
	Features      map[string]int
	Keywords      []string
	Price         PriceSummary
	SizeCategory  SizeCategory

	GTMMotion      string
	PrimaryUseCase string
	BusinessModel  string

	ClusterID          *int
	ClusterName        string
	ClusterSize        int
	PCA                Point
	DefensibilityScore float64
	Defensibility      string
	SaturationScore    float64
	Saturation         string
}

// Feature returns the 0/1 value of a feature column; absent columns read as 0.
func (e *CanonicalEntity) Feature(col string) int {
	return e.Features[col]
}

// SetFeature stores a boolean as 0/1.
func (e *CanonicalEntity) SetFeature(col string, on bool) {
	if e.Features == nil {
		e.Features = make(map[string]int)
	}
	if on {
		e.Features[col] = 1
	} else {
		e.Features[col] = 0
	}
}

// Record converts the entity back into a source row, used when re-deduplicating.
func (e *CanonicalEntity) Record() SourceRecord {
	return SourceRecord{
		Name:        e.Name,
		Description: e.Description,
		Funding:     e.Funding,
		Website:     e.Website,
		Pricing:     e.Pricing,
		CompanySize: e.CompanySize,
		Categories:  e.Categories,
		Source:      e.Source,
	}
}

func (e CanonicalEntity) clone() CanonicalEntity {
	out := e
	out.Sources = append([]string(nil), e.Sources...)
	out.Keywords = append([]string(nil), e.Keywords...)
	if e.Features != nil {
		out.Features = make(map[string]int, len(e.Features))
		for k, v := range e.Features {
			out.Features[k] = v
		}
	}
	if e.FundingAmount != nil {
		v := *e.FundingAmount
		out.FundingAmount = &v
	}
	if e.ClusterID != nil {
		v := *e.ClusterID
		out.ClusterID = &v
	}
	out.Price = PriceSummary{}
	if e.Price.MinPrice != nil {
		v := *e.Price.MinPrice
		out.Price.MinPrice = &v
	}
	if e.Price.MaxPrice != nil {
		v := *e.Price.MaxPrice
		out.Price.MaxPrice = &v
	}
	if e.Price.PriceTiers != nil {
		v := *e.Price.PriceTiers
		out.Price.PriceTiers = &v
	}
	return out
}

// Table is the value threaded through the pipeline stages. Stages never modify
// the table they receive; they Clone it and return the derived copy.
type Table struct {
	Entities []CanonicalEntity

	// SourceColumns records which optional source columns any input supplied.
	SourceColumns map[string]bool
	// FeatureColumns lists the 0/1 columns in the order stages added them.
	FeatureColumns []string

	HasFundingAmount bool
	HasPriceSummary  bool
	HasSize          bool
	HasSummaries     bool
	HasKeywords      bool

	// Prepared is set once missing numeric values have been imputed for clustering.
	Prepared bool
	// Clustered is set once cluster ids, names and projections are assigned.
	Clustered bool
	// Scored is set once both composite scores are finalized.
	Scored bool
}

// NewTable creates an empty table with the given source columns.
func NewTable(entities []CanonicalEntity, sourceColumns map[string]bool) *Table {
	cols := make(map[string]bool, len(sourceColumns))
	for k, v := range sourceColumns {
		cols[k] = v
	}
	return &Table{Entities: entities, SourceColumns: cols}
}

// Len returns the number of entities.
func (t *Table) Len() int { return len(t.Entities) }

// HasSourceColumn reports whether any source supplied col.
func (t *Table) HasSourceColumn(col string) bool {
	return t.SourceColumns[col]
}

// HasFeature reports whether a feature column has been derived.
func (t *Table) HasFeature(col string) bool {
	for _, c := range t.FeatureColumns {
		if c == col {
			return true
		}
	}
	return false
}

// AddFeatureColumn registers col once, keeping first-added order.
func (t *Table) AddFeatureColumn(col string) {
	if !t.HasFeature(col) {
		t.FeatureColumns = append(t.FeatureColumns, col)
	}
}

// FeatureColumnsWithPrefix returns feature columns starting with prefix, in table order.
func (t *Table) FeatureColumnsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range t.FeatureColumns {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := *t
	out.SourceColumns = make(map[string]bool, len(t.SourceColumns))
	for k, v := range t.SourceColumns {
		out.SourceColumns[k] = v
	}
	out.FeatureColumns = append([]string(nil), t.FeatureColumns...)
	out.Entities = make([]CanonicalEntity, len(t.Entities))
	for i, e := range t.Entities {
		out.Entities[i] = e.clone()
	}
	return &out
}

// ClusterIDs returns the distinct cluster ids present, ascending.
func (t *Table) ClusterIDs() []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, e := range t.Entities {
		if e.ClusterID == nil {
			continue
		}
		if _, ok := seen[*e.ClusterID]; ok {
			continue
		}
		seen[*e.ClusterID] = struct{}{}
		ids = append(ids, *e.ClusterID)
	}
	sort.Ints(ids)
	return ids
}
