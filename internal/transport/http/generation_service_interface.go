package http

import (
	"context"

	"tsgen/internal/exporter"
	"tsgen/internal/generator"
	"tsgen/internal/scenario"
	"tsgen/internal/services"
	api "tsgen/pkg/contracts/api/v1"
)

// GenerationServiceInterface defines the generation operations the HTTP
// layer depends on.
type GenerationServiceInterface interface {
	Kinds() []string
	Scenarios(ctx context.Context) ([]api.ScenarioInfo, error)
	Generate(ctx context.Context, doc *scenario.Document, opts ...generator.Option) (*services.Run, error)
	GenerateStored(ctx context.Context, name string, opts ...generator.Option) (*services.Run, error)
	RunBatch(ctx context.Context, names []string, format exporter.Format, opts exporter.Options) (*api.BatchResponse, error)
}

var _ GenerationServiceInterface = (*services.GenerationService)(nil)
