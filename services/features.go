package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// Unspecified is the summary label of an entity with no flag set in a group.
const Unspecified = "unspecified"

const (
	defaultKeywordsPerEntity = 5
	defaultGlobalKeywords    = 20
)

// FeatureExtractor derives vocabulary flags, keywords and summary labels from
// descriptions (and categories, for business models).
type FeatureExtractor struct {
	logger            *utils.Logger
	keywordsPerEntity int
	globalKeywords    int
}

// NewFeatureExtractor creates a FeatureExtractor keeping the top 5 keywords
// per entity and the top 20 across the table.
func NewFeatureExtractor(logger *utils.Logger) *FeatureExtractor {
	return &FeatureExtractor{
		logger:            logger,
		keywordsPerEntity: defaultKeywordsPerEntity,
		globalKeywords:    defaultGlobalKeywords,
	}
}

// Apply adds the vocabulary flag columns, the kw_ columns and the
// gtm_motion / primary_use_case / business_model labels.
func (x *FeatureExtractor) Apply(t *models.Table) (*models.Table, error) {
	out := t.Clone()
	matchCategories := out.HasSourceColumn(models.ColCategories)

	flags := 0
	for _, v := range Vocabularies {
		terms := make([]string, len(v.Terms))
		for i, term := range v.Terms {
			terms[i] = matchText(term)
		}
		cols := v.Columns()
		for _, c := range cols {
			out.AddFeatureColumn(c)
		}
		for i := range out.Entities {
			e := &out.Entities[i]
			desc := matchText(e.Description)
			cats := ""
			if v.MatchCategories && matchCategories {
				cats = matchText(e.Categories)
			}
			for j, term := range terms {
				on := strings.Contains(desc, term) || (cats != "" && strings.Contains(cats, term))
				e.SetFeature(cols[j], on)
			}
		}
		flags += len(cols)
		x.logger.Debug("[features] %s: %d flag columns", v.Name, len(cols))
	}

	top := x.applyKeywords(out)

	for i := range out.Entities {
		e := &out.Entities[i]
		e.GTMMotion = summarise(e, GTMMotions)
		e.PrimaryUseCase = summarise(e, UseCases)
		e.BusinessModel = summarise(e, BusinessModels)
	}
	out.HasSummaries = true

	x.logger.Info("[features] Extracted %d vocabulary flags and top %d keywords for %d entities",
		flags, len(top), out.Len())
	return out, nil
}

// applyKeywords stores per-entity keywords and adds one kw_ column per global
// top keyword. It returns the global keywords.
func (x *FeatureExtractor) applyKeywords(t *models.Table) []string {
	var all []string
	for i := range t.Entities {
		e := &t.Entities[i]
		e.Keywords = ExtractKeywords(matchText(e.Description), x.keywordsPerEntity)
		all = append(all, e.Keywords...)
	}
	t.HasKeywords = true

	top := MostCommon(all, x.globalKeywords)
	for _, word := range top {
		col := "kw_" + word
		t.AddFeatureColumn(col)
		for i := range t.Entities {
			e := &t.Entities[i]
			e.SetFeature(col, containsString(e.Keywords, word))
		}
	}
	return top
}

// summarise returns the term of the first highest flag in v, without its
// prefix, or Unspecified when every flag is 0.
func summarise(e *models.CanonicalEntity, v Vocabulary) string {
	best, bestCol := 0, ""
	for _, col := range v.Columns() {
		if val := e.Feature(col); val > best {
			best, bestCol = val, col
		}
	}
	if bestCol == "" {
		return Unspecified
	}
	return strings.TrimPrefix(bestCol, v.Prefix)
}

// matchText folds text for case-insensitive matching.
func matchText(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
