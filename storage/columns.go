package storage

import (
	"strconv"
	"strings"

	"ai-startup-map/models"
)

// Checkpoint column names beyond the source text columns and feature flags.
const (
	colWebsiteClean       = "website_clean"
	colSource             = "source"
	colSources            = "sources"
	colFundingAmount      = "funding_amount"
	colKeywords           = "keywords"
	colMinPrice           = "min_price"
	colMaxPrice           = "max_price"
	colPriceTiers         = "price_tiers"
	colSizeCategory       = "size_category"
	colGTMMotion          = "gtm_motion"
	colPrimaryUseCase     = "primary_use_case"
	colBusinessModel      = "business_model"
	colCluster            = "cluster"
	colClusterName        = "cluster_name"
	colClusterSize        = "cluster_size"
	colPCAX               = "pca_x"
	colPCAY               = "pca_y"
	colDefensibilityScore = "defensibility_score"
	colDefensibility      = "defensibility"
	colSaturationScore    = "saturation_score"
	colSaturation         = "saturation"
	listSeparator         = ";"
)

// ClusteredColumns are guaranteed in checkpoint 2 on top of checkpoint 1.
var ClusteredColumns = []string{
	colCluster, colClusterName, colClusterSize, colPCAX, colPCAY,
	colDefensibilityScore, colDefensibility, colSaturationScore, colSaturation,
}

type columnKind int

const (
	kindText columnKind = iota
	kindReal
	kindInt
)

// column is one checkpoint column. value returns nil for an undefined cell.
type column struct {
	name  string
	kind  columnKind
	value func(e *models.CanonicalEntity) any
}

func textColumn(name string, get func(e *models.CanonicalEntity) string) column {
	return column{name: name, kind: kindText, value: func(e *models.CanonicalEntity) any { return get(e) }}
}

func realPtrColumn(name string, get func(e *models.CanonicalEntity) *float64) column {
	return column{name: name, kind: kindReal, value: func(e *models.CanonicalEntity) any {
		if p := get(e); p != nil {
			return *p
		}
		return nil
	}}
}

func realColumn(name string, get func(e *models.CanonicalEntity) float64) column {
	return column{name: name, kind: kindReal, value: func(e *models.CanonicalEntity) any { return get(e) }}
}

// checkpointColumns lists the columns of checkpoint 1 (clustered false) or
// checkpoint 2 for t, in file order.
func checkpointColumns(t *models.Table, clustered bool) []column {
	cols := []column{
		textColumn(models.ColName, func(e *models.CanonicalEntity) string { return e.Name }),
		textColumn(models.ColDescription, func(e *models.CanonicalEntity) string { return e.Description }),
	}
	if t.HasSourceColumn(models.ColWebsite) {
		cols = append(cols,
			textColumn(models.ColWebsite, func(e *models.CanonicalEntity) string { return e.Website }),
			textColumn(colWebsiteClean, func(e *models.CanonicalEntity) string { return e.WebsiteClean }))
	}
	if t.HasSourceColumn(models.ColFunding) {
		cols = append(cols, textColumn(models.ColFunding, func(e *models.CanonicalEntity) string { return e.Funding }))
	}
	if t.HasSourceColumn(models.ColPricing) {
		cols = append(cols, textColumn(models.ColPricing, func(e *models.CanonicalEntity) string { return e.Pricing }))
	}
	if t.HasSourceColumn(models.ColCompanySize) {
		cols = append(cols, textColumn(models.ColCompanySize, func(e *models.CanonicalEntity) string { return e.CompanySize }))
	}
	if t.HasSourceColumn(models.ColCategories) {
		cols = append(cols, textColumn(models.ColCategories, func(e *models.CanonicalEntity) string { return e.Categories }))
	}
	cols = append(cols,
		textColumn(colSource, func(e *models.CanonicalEntity) string { return e.Source }),
		textColumn(colSources, func(e *models.CanonicalEntity) string { return strings.Join(e.Sources, listSeparator) }))

	if t.HasFundingAmount {
		cols = append(cols, realPtrColumn(colFundingAmount, func(e *models.CanonicalEntity) *float64 { return e.FundingAmount }))
	}
	for _, fc := range t.FeatureColumns {
		fc := fc
		cols = append(cols, column{name: fc, kind: kindInt, value: func(e *models.CanonicalEntity) any {
			return e.Feature(fc)
		}})
	}
	if t.HasKeywords {
		cols = append(cols, textColumn(colKeywords, func(e *models.CanonicalEntity) string {
			return strings.Join(e.Keywords, listSeparator)
		}))
	}
	if t.HasPriceSummary {
		cols = append(cols,
			realPtrColumn(colMinPrice, func(e *models.CanonicalEntity) *float64 { return e.Price.MinPrice }),
			realPtrColumn(colMaxPrice, func(e *models.CanonicalEntity) *float64 { return e.Price.MaxPrice }),
			column{name: colPriceTiers, kind: kindInt, value: func(e *models.CanonicalEntity) any {
				if e.Price.PriceTiers == nil {
					return nil
				}
				return *e.Price.PriceTiers
			}})
	}
	if t.HasSize {
		cols = append(cols, textColumn(colSizeCategory, func(e *models.CanonicalEntity) string { return string(e.SizeCategory) }))
	}
	if t.HasSummaries {
		cols = append(cols,
			textColumn(colGTMMotion, func(e *models.CanonicalEntity) string { return e.GTMMotion }),
			textColumn(colPrimaryUseCase, func(e *models.CanonicalEntity) string { return e.PrimaryUseCase }),
			textColumn(colBusinessModel, func(e *models.CanonicalEntity) string { return e.BusinessModel }))
	}

	if !clustered {
		return cols
	}
	return append(cols,
		column{name: colCluster, kind: kindInt, value: func(e *models.CanonicalEntity) any {
			if e.ClusterID == nil {
				return nil
			}
			return *e.ClusterID
		}},
		textColumn(colClusterName, func(e *models.CanonicalEntity) string { return e.ClusterName }),
		column{name: colClusterSize, kind: kindInt, value: func(e *models.CanonicalEntity) any { return e.ClusterSize }},
		realColumn(colPCAX, func(e *models.CanonicalEntity) float64 { return e.PCA.X }),
		realColumn(colPCAY, func(e *models.CanonicalEntity) float64 { return e.PCA.Y }),
		realColumn(colDefensibilityScore, func(e *models.CanonicalEntity) float64 { return e.DefensibilityScore }),
		textColumn(colDefensibility, func(e *models.CanonicalEntity) string { return e.Defensibility }),
		realColumn(colSaturationScore, func(e *models.CanonicalEntity) float64 { return e.SaturationScore }),
		textColumn(colSaturation, func(e *models.CanonicalEntity) string { return e.Saturation }),
	)
}

// formatCell renders a column value for CSV; undefined is the empty string.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// isFeatureColumn reports whether a checkpoint header is a 0/1 flag.
func isFeatureColumn(name string) bool {
	if name == colSizeCategory || name == colGTMMotion {
		return false
	}
	for _, p := range []string{"has_", "is_", "gtm_", "use_", "kw_", "size_"} {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
