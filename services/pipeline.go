package services

import (
	"context"
	"fmt"
	"time"

	"ai-startup-map/metrics"
	"ai-startup-map/models"
	"ai-startup-map/utils"
)

// SourceLoader reads the configured source tables.
type SourceLoader interface {
	ReadAll(specs []models.SourceSpec) ([]models.SourceTable, error)
}

// CheckpointWriter persists the two checkpoints.
type CheckpointWriter interface {
	WriteProcessed(path string, t *models.Table) error
	WriteClustered(path string, t *models.Table) error
}

// CheckpointLoader reads a checkpoint back into a table.
type CheckpointLoader interface {
	Read(path string) (*models.Table, error)
}

// Sink mirrors checkpoint 2 into an external store.
type Sink interface {
	Write(ctx context.Context, runID string, t *models.Table) error
}

// RunOptions selects inputs, outputs and the clustering setup of a run.
type RunOptions struct {
	Sources       []models.SourceSpec
	ProcessedPath string
	ClusteredPath string
	Method        string
	Clusters      int
}

// Deps are the I/O collaborators of a Pipeline. Sinks and Metrics may be empty.
type Deps struct {
	Sources  SourceLoader
	Writer   CheckpointWriter
	Reader   CheckpointLoader
	Sinks    []Sink
	Registry *Registry
	Metrics  *metrics.Recorder
}

// Pipeline runs the stages in order. Every stage receives the previous
// stage's table and returns a new one.
type Pipeline struct {
	logger  *utils.Logger
	runID   string
	deps    Deps
	merger  *Merger
	funding *FundingNormalizer
	pricing *PricingAnalyzer
	size    *SizeCategorizer
	feature *FeatureExtractor
	cluster *ClusterEngine
	scoring *ScoringEngine
	insight *InsightService
}

// NewPipeline wires every stage with a logger tagged by runID.
func NewPipeline(logger *utils.Logger, runID string, deps Deps) *Pipeline {
	log := logger.With("run_id", runID)
	if deps.Registry == nil {
		deps.Registry = DefaultRegistry(42)
	}
	return &Pipeline{
		logger:  log,
		runID:   runID,
		deps:    deps,
		merger:  NewMerger(log.With("stage", "merge")),
		funding: NewFundingNormalizer(log.With("stage", "funding"), deps.Metrics),
		pricing: NewPricingAnalyzer(log.With("stage", "pricing"), deps.Metrics),
		size:    NewSizeCategorizer(log.With("stage", "size"), deps.Metrics),
		feature: NewFeatureExtractor(log.With("stage", "features")),
		cluster: NewClusterEngine(log.With("stage", "cluster"), deps.Registry, deps.Metrics),
		scoring: NewScoringEngine(log.With("stage", "score")),
		insight: NewInsightService(log.With("stage", "insights")),
	}
}

// Insights exposes the report service for printing.
func (p *Pipeline) Insights() *InsightService { return p.insight }

// Process merges the sources, derives every feature and writes checkpoint 1.
func (p *Pipeline) Process(opts RunOptions) (*models.Table, error) {
	p.logger.Info("=== Processing %d sources ===", len(opts.Sources))

	tables, err := p.deps.Sources.ReadAll(opts.Sources)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read sources: %w", err)
	}
	for _, st := range tables {
		p.deps.Metrics.SourceRows(st.Source, len(st.Records))
	}

	start := time.Now()
	t, err := p.merger.Merge(tables)
	if err != nil {
		return nil, fmt.Errorf("pipeline: merge: %w", err)
	}
	t = p.merger.Dedup(t)
	p.deps.Metrics.ObserveStage("merge", t.Len(), time.Since(start))
	if t.Len() == 0 {
		return nil, models.NewError(models.KindMissingInput, "pipeline", "sources produced no entities")
	}

	for _, s := range []struct {
		name string
		fn   func(*models.Table) (*models.Table, error)
	}{
		{"funding", p.funding.Apply},
		{"features", p.feature.Apply},
		{"pricing", p.pricing.Apply},
		{"size", p.size.Apply},
	} {
		if t, err = p.stage(s.name, t, s.fn); err != nil {
			return nil, err
		}
	}

	if err := p.deps.Writer.WriteProcessed(opts.ProcessedPath, t); err != nil {
		return nil, fmt.Errorf("pipeline: write processed checkpoint: %w", err)
	}
	return t, nil
}

// Analyze reads checkpoint 1, clusters and scores it, writes checkpoint 2,
// mirrors it into the sinks and returns the cluster report.
func (p *Pipeline) Analyze(ctx context.Context, opts RunOptions) (*models.Table, *models.AnalysisReport, error) {
	p.logger.Info("=== Analyzing %s (%s, k=%d) ===", opts.ProcessedPath, opts.Method, opts.Clusters)

	t, err := p.deps.Reader.Read(opts.ProcessedPath)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: read processed checkpoint: %w", err)
	}

	t = p.cluster.PrepareFeatures(t)
	if t, err = p.stage("cluster", t, func(in *models.Table) (*models.Table, error) {
		return p.cluster.Apply(in, opts.Method, opts.Clusters)
	}); err != nil {
		return nil, nil, err
	}
	if t, err = p.stage("score", t, p.scoring.Apply); err != nil {
		return nil, nil, err
	}

	if err := p.deps.Writer.WriteClustered(opts.ClusteredPath, t); err != nil {
		return nil, nil, fmt.Errorf("pipeline: write clustered checkpoint: %w", err)
	}
	for _, sink := range p.deps.Sinks {
		if err := sink.Write(ctx, p.runID, t); err != nil {
			p.logger.Error("Mirror write failed: %v", err)
		}
	}

	report := p.insight.Generate(t, opts.Method)
	return t, report, nil
}

// Run processes the sources and then analyzes the resulting checkpoint.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*models.Table, *models.AnalysisReport, error) {
	if _, err := p.Process(opts); err != nil {
		return nil, nil, err
	}
	t, report, err := p.Analyze(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	p.deps.Metrics.MarkSuccess(time.Now())
	return t, report, nil
}

// stage runs fn on t. A SchemaMismatch skips the stage with a warning and
// returns t unchanged; any other error aborts the run.
func (p *Pipeline) stage(name string, t *models.Table, fn func(*models.Table) (*models.Table, error)) (*models.Table, error) {
	start := time.Now()
	out, err := fn(t)
	if err != nil {
		if models.KindOf(err) == models.KindSchemaMismatch {
			p.logger.Warn("[%s] Stage skipped: %v", name, err)
			p.deps.Metrics.StageSkipped(name)
			return t, nil
		}
		return nil, fmt.Errorf("pipeline: %s: %w", name, err)
	}
	p.deps.Metrics.ObserveStage(name, out.Len(), time.Since(start))
	return out, nil
}
