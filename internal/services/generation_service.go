package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tsgen/internal/config"
	apperrors "tsgen/internal/errors"
	"tsgen/internal/exporter"
	"tsgen/internal/generator"
	"tsgen/internal/infrastructure"
	"tsgen/internal/scenario"
	"tsgen/internal/table"
	api "tsgen/pkg/contracts/api/v1"
)

// Run is one completed generation.
type Run struct {
	ID          string
	Scenario    string
	GeneratedAt time.Time
	Table       *table.Table
	Summary     api.Summary
}

// GenerationService builds engines from scenarios, runs them and exports
// the results.
type GenerationService struct {
	builder  *scenario.Builder
	store    *ScenarioStore
	exporter *exporter.FileExporter
	cfg      config.GenerationConfig
	metrics  *infrastructure.GenerationMetrics
	logger   *slog.Logger
}

// NewGenerationService wires the service. metrics may be nil.
func NewGenerationService(
	builder *scenario.Builder,
	store *ScenarioStore,
	files *exporter.FileExporter,
	cfg config.GenerationConfig,
	metrics *infrastructure.GenerationMetrics,
	logger *slog.Logger,
) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{
		builder:  builder,
		store:    store,
		exporter: files,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With(slog.String("service", "generation")),
	}
}

// Config returns the generation limits.
func (s *GenerationService) Config() config.GenerationConfig { return s.cfg }

// Kinds lists the factor kinds scenarios may use.
func (s *GenerationService) Kinds() []string { return scenario.Kinds() }

// Scenarios lists the stored scenarios.
func (s *GenerationService) Scenarios(ctx context.Context) ([]api.ScenarioInfo, error) {
	return s.store.List(ctx)
}

// Generate runs doc. A seed option overrides the document's seed, which
// overrides the configured default.
func (s *GenerationService) Generate(ctx context.Context, doc *scenario.Document, opts ...generator.Option) (*Run, error) {
	var extra []generator.Option
	if doc.Seed == nil && s.cfg.DefaultSeed != 0 {
		extra = append(extra, generator.WithSeed(s.cfg.DefaultSeed))
	}
	extra = append(extra, opts...)

	engine, err := s.builder.Build(doc, extra...)
	if err != nil {
		return nil, err
	}

	rows := engine.Features().Size() * engine.DateRange().Days()
	if s.cfg.MaxRows > 0 && rows > s.cfg.MaxRows {
		return nil, apperrors.NewWithDetails(http.StatusRequestEntityTooLarge, "TOO_MANY_ROWS",
			fmt.Sprintf("scenario %q would generate %d rows, limit is %d", doc.Name, rows, s.cfg.MaxRows),
			map[string]interface{}{"rows": rows, "max_rows": s.cfg.MaxRows})
	}

	run := &Run{ID: uuid.New().String(), Scenario: doc.Name}
	ctx = infrastructure.EnsureTraceID(ctx)

	if s.metrics != nil {
		s.metrics.ActiveGenerations.Add(ctx, 1)
		defer s.metrics.ActiveGenerations.Add(ctx, -1)
	}

	start := time.Now()
	out, err := engine.Generate(ctx)
	duration := time.Since(start)
	s.metrics.RecordGeneration(ctx, doc.Name, rows, duration, err)
	if err != nil {
		return nil, err
	}

	run.GeneratedAt = time.Now().UTC()
	run.Table = out
	run.Summary = Summarize(out, engine.FactorNames(), engine.DateRange().Days(), duration)

	s.logger.InfoContext(ctx, "Scenario generated",
		slog.String("run_id", run.ID),
		slog.String("scenario", doc.Name),
		slog.Int("rows", run.Summary.Rows),
		slog.Float64("mean", run.Summary.Mean),
		slog.Duration("duration", duration))
	return run, nil
}

// GenerateStored loads a stored scenario by name and runs it.
func (s *GenerationService) GenerateStored(ctx context.Context, name string, opts ...generator.Option) (*Run, error) {
	doc, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, doc, opts...)
}

// Export writes a run to the output directory.
func (s *GenerationService) Export(ctx context.Context, run *Run, format exporter.Format, opts exporter.Options) (string, error) {
	return s.exporter.Export(ctx, run.Scenario, format, run.Table, opts)
}

// RunBatch generates and exports stored scenarios concurrently, at most
// Workers at a time. A failing scenario is reported in its result and does
// not stop the others; only cancellation of ctx aborts the batch.
func (s *GenerationService) RunBatch(ctx context.Context, names []string, format exporter.Format, opts exporter.Options) (*api.BatchResponse, error) {
	if len(names) == 0 {
		return nil, apperrors.NewAppValidationError("batch needs at least one scenario")
	}
	if s.cfg.MaxBatch > 0 && len(names) > s.cfg.MaxBatch {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("batch of %d scenarios exceeds the limit of %d", len(names), s.cfg.MaxBatch))
	}

	results := make([]api.RunResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.Workers > 0 {
		g.SetLimit(s.cfg.Workers)
	}

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.runOne(gctx, name, format, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &api.BatchResponse{Runs: results}
	for _, r := range results {
		if r.Error != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	s.logger.InfoContext(ctx, "Batch completed",
		slog.Int("scenarios", len(names)),
		slog.Int("succeeded", resp.Succeeded),
		slog.Int("failed", resp.Failed))
	return resp, nil
}

func (s *GenerationService) runOne(ctx context.Context, name string, format exporter.Format, opts exporter.Options) api.RunResult {
	result := api.RunResult{Scenario: name}

	run, err := s.GenerateStored(ctx, name)
	if err != nil {
		s.logger.WarnContext(ctx, "Scenario failed",
			slog.String("scenario", name),
			slog.String("error", err.Error()))
		result.Error = err.Error()
		return result
	}
	result.RunID = run.ID
	result.Summary = &run.Summary

	path, err := s.Export(ctx, run, format, opts)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.File = path
	return result
}

// TableResponse renders a run for the JSON API.
func TableResponse(run *Run, precision int) api.TableResponse {
	records := run.Table.Records(precision)
	return api.TableResponse{
		RunID:       run.ID,
		Scenario:    run.Scenario,
		GeneratedAt: run.GeneratedAt,
		Header:      records[0],
		Records:     records[1:],
		Summary:     run.Summary,
	}
}
