package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// CheckpointWriter persists tables as CSV checkpoints. Files are written to a
// temporary sibling and renamed into place, so a failed write leaves any
// previous checkpoint intact.
type CheckpointWriter struct {
	logger *utils.Logger
}

// NewCheckpointWriter creates a CheckpointWriter with the given logger.
func NewCheckpointWriter(logger *utils.Logger) *CheckpointWriter {
	return &CheckpointWriter{logger: logger}
}

// WriteProcessed writes checkpoint 1: the feature-augmented table.
func (w *CheckpointWriter) WriteProcessed(path string, t *models.Table) error {
	if err := writeCSVAtomic(path, checkpointColumns(t, false), t); err != nil {
		return err
	}
	w.logger.Info("[checkpoint] Processed data saved to %s (%d entities)", path, t.Len())
	return nil
}

// WriteClustered writes checkpoint 2. It refuses a table that is not fully
// clustered and scored.
func (w *CheckpointWriter) WriteClustered(path string, t *models.Table) error {
	if err := ValidateClustered(t); err != nil {
		return err
	}
	if err := writeCSVAtomic(path, checkpointColumns(t, true), t); err != nil {
		return err
	}
	w.logger.Info("[checkpoint] Clustered data saved to %s (%d entities)", path, t.Len())
	return nil
}

// ValidateClustered checks that every column guaranteed by checkpoint 2 can
// be filled for every entity.
func ValidateClustered(t *models.Table) error {
	if !t.Clustered {
		return models.NewError(models.KindContractViolation, "checkpoint", "table has not been clustered")
	}
	if !t.Scored {
		return models.NewError(models.KindContractViolation, "checkpoint", "table has not been scored")
	}
	for i := range t.Entities {
		e := &t.Entities[i]
		if e.ClusterID == nil {
			return models.Errorf(models.KindContractViolation, "checkpoint",
				"entity %q has no cluster assignment", e.Name)
		}
		if e.ClusterName == "" || e.Defensibility == "" || e.Saturation == "" {
			return models.Errorf(models.KindContractViolation, "checkpoint",
				"entity %q is missing cluster name or score buckets", e.Name)
		}
	}
	return nil
}

func writeCSVAtomic(path string, cols []column, t *models.Table) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("checkpoint: create output dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("checkpoint: create temp file %q: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	cw := csv.NewWriter(f)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err = cw.Write(header); err != nil {
		return fmt.Errorf("checkpoint: write header: %w", err)
	}
	row := make([]string, len(cols))
	for i := range t.Entities {
		for j, c := range cols {
			row[j] = formatCell(c.value(&t.Entities[i]))
		}
		if err = cw.Write(row); err != nil {
			return fmt.Errorf("checkpoint: write row: %w", err)
		}
	}
	cw.Flush()
	if err = cw.Error(); err != nil {
		return fmt.Errorf("checkpoint: flush: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("checkpoint: sync: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("checkpoint: close: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("checkpoint: rename into place: %w", err)
	}
	return nil
}

// CheckpointReader loads a checkpoint written by CheckpointWriter.
type CheckpointReader struct {
	logger *utils.Logger
}

// NewCheckpointReader creates a CheckpointReader with the given logger.
func NewCheckpointReader(logger *utils.Logger) *CheckpointReader {
	return &CheckpointReader{logger: logger}
}

// Read loads a checkpoint. Feature columns are recovered from the header in
// file order. A missing file is MissingInput; malformed content is a
// ContractViolation.
func (r *CheckpointReader) Read(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.WrapError(err, models.KindMissingInput, "checkpoint", path)
	}
	defer f.Close()

	t, err := readCheckpoint(f)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %q: %w", path, err)
	}
	r.logger.Info("[checkpoint] Loaded %d entities with %d feature columns from %s",
		t.Len(), len(t.FeatureColumns), path)
	return t, nil
}

func readCheckpoint(in io.Reader) (*models.Table, error) {
	reader := csv.NewReader(in)
	header, err := reader.Read()
	if err != nil {
		return nil, models.WrapError(err, models.KindContractViolation, "checkpoint", "read header")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		header[i] = cleanCell(h)
		index[header[i]] = i
	}
	for _, col := range models.RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, models.Errorf(models.KindContractViolation, "checkpoint", "header has no %q column", col)
		}
	}

	sourceCols := make(map[string]bool)
	for _, col := range models.OptionalColumns {
		if _, ok := index[col]; ok {
			sourceCols[col] = true
		}
	}
	t := models.NewTable(nil, sourceCols)
	for _, h := range header {
		if isFeatureColumn(h) {
			t.AddFeatureColumn(h)
		}
	}
	has := func(col string) bool {
		_, ok := index[col]
		return ok
	}
	t.HasFundingAmount = has(colFundingAmount)
	t.HasKeywords = has(colKeywords)
	t.HasPriceSummary = has(colMinPrice) && has(colMaxPrice) && has(colPriceTiers)
	t.HasSize = has(colSizeCategory)
	t.HasSummaries = has(colGTMMotion) && has(colPrimaryUseCase) && has(colBusinessModel)
	clustered := true
	for _, col := range ClusteredColumns {
		clustered = clustered && has(col)
	}

	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, models.WrapError(err, models.KindContractViolation, "checkpoint", fmt.Sprintf("line %d", line))
		}
		e, err := parseEntity(rec, index, t, clustered)
		if err != nil {
			return nil, models.WrapError(err, models.KindContractViolation, "checkpoint", fmt.Sprintf("line %d", line))
		}
		t.Entities = append(t.Entities, e)
	}

	if clustered {
		t.Clustered = true
		t.Scored = true
		for i := range t.Entities {
			if t.Entities[i].ClusterID == nil {
				t.Clustered, t.Scored = false, false
				break
			}
		}
	}
	return t, nil
}

func parseEntity(rec []string, index map[string]int, t *models.Table, clustered bool) (models.CanonicalEntity, error) {
	get := func(col string) string {
		if i, ok := index[col]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}
	e := models.CanonicalEntity{
		Name:         get(models.ColName),
		Description:  get(models.ColDescription),
		Website:      get(models.ColWebsite),
		WebsiteClean: get(colWebsiteClean),
		Funding:      get(models.ColFunding),
		Pricing:      get(models.ColPricing),
		CompanySize:  get(models.ColCompanySize),
		Categories:   get(models.ColCategories),
		Source:       get(colSource),
		Sources:      splitList(get(colSources)),
	}

	var err error
	if t.HasFundingAmount {
		if e.FundingAmount, err = parseOptFloat(get(colFundingAmount)); err != nil {
			return e, fmt.Errorf("%s: %w", colFundingAmount, err)
		}
	}
	for _, col := range t.FeatureColumns {
		v := get(col)
		switch v {
		case "0", "":
			e.SetFeature(col, false)
		case "1":
			e.SetFeature(col, true)
		default:
			return e, fmt.Errorf("%s: flag value %q is not 0 or 1", col, v)
		}
	}
	if t.HasKeywords {
		e.Keywords = splitList(get(colKeywords))
	}
	if t.HasPriceSummary {
		if e.Price.MinPrice, err = parseOptFloat(get(colMinPrice)); err != nil {
			return e, fmt.Errorf("%s: %w", colMinPrice, err)
		}
		if e.Price.MaxPrice, err = parseOptFloat(get(colMaxPrice)); err != nil {
			return e, fmt.Errorf("%s: %w", colMaxPrice, err)
		}
		if e.Price.PriceTiers, err = parseOptInt(get(colPriceTiers)); err != nil {
			return e, fmt.Errorf("%s: %w", colPriceTiers, err)
		}
	}
	if t.HasSize {
		e.SizeCategory = models.SizeCategory(get(colSizeCategory))
	}
	if t.HasSummaries {
		e.GTMMotion = get(colGTMMotion)
		e.PrimaryUseCase = get(colPrimaryUseCase)
		e.BusinessModel = get(colBusinessModel)
	}

	if !clustered {
		return e, nil
	}
	if e.ClusterID, err = parseOptInt(get(colCluster)); err != nil {
		return e, fmt.Errorf("%s: %w", colCluster, err)
	}
	e.ClusterName = get(colClusterName)
	e.Defensibility = get(colDefensibility)
	e.Saturation = get(colSaturation)
	size, err := parseOptInt(get(colClusterSize))
	if err != nil {
		return e, fmt.Errorf("%s: %w", colClusterSize, err)
	}
	if size != nil {
		e.ClusterSize = *size
	}
	for _, f := range []struct {
		col string
		dst *float64
	}{
		{colPCAX, &e.PCA.X},
		{colPCAY, &e.PCA.Y},
		{colDefensibilityScore, &e.DefensibilityScore},
		{colSaturationScore, &e.SaturationScore},
	} {
		v, err := parseOptFloat(get(f.col))
		if err != nil {
			return e, fmt.Errorf("%s: %w", f.col, err)
		}
		if v != nil {
			*f.dst = *v
		}
	}
	return e, nil
}

func parseOptFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}
