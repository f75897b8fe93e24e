package services

import (
	"sort"
	"strings"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// Merger folds source rows into canonical entities.
type Merger struct {
	logger *utils.Logger
}

// NewMerger creates a Merger with the given logger.
func NewMerger(logger *utils.Logger) *Merger {
	return &Merger{logger: logger}
}

// mergeRow is one row in merge order, with the source tags it already carries.
type mergeRow struct {
	rec      models.SourceRecord
	priority int
	sources  []string
}

// Merge concatenates the source tables and deduplicates them. Rows are ordered
// by (source priority, row number); for every field the first non-missing
// value in that order wins.
func (m *Merger) Merge(tables []models.SourceTable) (*models.Table, error) {
	if len(tables) == 0 {
		return nil, models.NewError(models.KindMissingInput, "merge", "no source table could be read")
	}

	columns := make(map[string]bool)
	var rows []mergeRow
	for _, t := range tables {
		for col, ok := range t.Columns {
			if ok {
				columns[col] = true
			}
		}
		for _, r := range t.Records {
			if r.Source == "" {
				r.Source = t.Source
			}
			rows = append(rows, mergeRow{rec: r, priority: t.Priority, sources: []string{r.Source}})
		}
	}

	// Stable on the input order, so equal (priority, row) pairs keep table order.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].priority != rows[j].priority {
			return rows[i].priority < rows[j].priority
		}
		return rows[i].rec.Row < rows[j].rec.Row
	})

	entities := m.fold(rows, columns[models.ColWebsite])
	m.logger.Info("[merge] Merged %d rows from %d sources → %d unique entities",
		len(rows), len(tables), len(entities))

	return models.NewTable(entities, columns), nil
}

// Dedup re-runs deduplication over an already merged table. The first entity
// of each key keeps its derived columns and absorbs the fields of later ones,
// so deduplicating a merged table returns it unchanged.
func (m *Merger) Dedup(t *models.Table) *models.Table {
	out := t.Clone()
	hasWebsite := out.HasSourceColumn(models.ColWebsite)
	index := make(map[string]int, len(out.Entities))
	kept := make([]models.CanonicalEntity, 0, len(out.Entities))

	for _, e := range out.Entities {
		key := mergeKey(e.Record(), hasWebsite)
		if key == "" {
			m.logger.Warn("[merge] Dropping entity with neither name nor website")
			continue
		}
		if i, ok := index[key]; ok {
			absorb(&kept[i], e.Record(), e.Sources)
			continue
		}
		index[key] = len(kept)
		kept = append(kept, e)
	}

	if folded := len(out.Entities) - len(kept); folded > 0 {
		m.logger.Info("[merge] Dedup folded %d duplicate entities", folded)
	}
	out.Entities = kept
	return out
}

func (m *Merger) fold(rows []mergeRow, hasWebsite bool) []models.CanonicalEntity {
	index := make(map[string]int)
	entities := make([]models.CanonicalEntity, 0, len(rows))
	dropped := 0

	for _, r := range rows {
		key := mergeKey(r.rec, hasWebsite)
		if key == "" {
			dropped++
			m.logger.Warn("[merge] Dropping %s row %d with neither name nor website", r.rec.Source, r.rec.Row)
			continue
		}

		i, seen := index[key]
		if !seen {
			index[key] = len(entities)
			entities = append(entities, newEntity(r))
			continue
		}
		m.logger.Debug("[merge] Duplicate %q folded into entity %d", key, i)
		absorb(&entities[i], r.rec, r.sources)
	}

	if dropped > 0 {
		m.logger.Warn("[merge] Dropped %d rows without a merge key", dropped)
	}
	return entities
}

// mergeKey is "web:<normalized website>" when the row has one and any source
// supplied a website column, else "name:<trimmed name>". Empty means unkeyable.
func mergeKey(r models.SourceRecord, hasWebsite bool) string {
	if hasWebsite {
		if w := NormalizeWebsite(r.Website); w != "" {
			return "web:" + w
		}
	}
	if name := strings.TrimSpace(r.Name); name != "" {
		return "name:" + name
	}
	return ""
}

func newEntity(r mergeRow) models.CanonicalEntity {
	e := models.CanonicalEntity{
		Name:        strings.TrimSpace(r.rec.Name),
		Description: r.rec.Description,
		Funding:     r.rec.Funding,
		Website:     strings.TrimSpace(r.rec.Website),
		Pricing:     r.rec.Pricing,
		CompanySize: r.rec.CompanySize,
		Categories:  r.rec.Categories,
		Source:      r.rec.Source,
	}
	e.WebsiteClean = NormalizeWebsite(e.Website)
	e.Sources = appendSources(nil, r.sources)
	return e
}

func absorb(e *models.CanonicalEntity, rec models.SourceRecord, sources []string) {
	fill(&e.Name, strings.TrimSpace(rec.Name))
	fill(&e.Description, rec.Description)
	fill(&e.Funding, rec.Funding)
	if e.Website == "" {
		e.Website = strings.TrimSpace(rec.Website)
		e.WebsiteClean = NormalizeWebsite(e.Website)
	}
	fill(&e.Pricing, rec.Pricing)
	fill(&e.CompanySize, rec.CompanySize)
	fill(&e.Categories, rec.Categories)
	e.Sources = appendSources(e.Sources, sources)
}

func fill(dst *string, v string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func appendSources(dst, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found && s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}

// NormalizeWebsite lower-cases a URL and strips the scheme, a leading "www."
// and trailing slashes. An empty or blank input returns "".
func NormalizeWebsite(raw string) string {
	w := strings.ToLower(strings.TrimSpace(raw))
	if w == "" || w == "n/a" {
		return ""
	}
	w = strings.TrimPrefix(w, "https://")
	w = strings.TrimPrefix(w, "http://")
	w = strings.TrimPrefix(w, "www.")
	return strings.TrimRight(w, "/")
}
