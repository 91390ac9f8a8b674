package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/exporter"
	"tsgen/internal/generator"
	"tsgen/internal/middleware"
	"tsgen/internal/scenario"
	"tsgen/internal/services"
	api "tsgen/pkg/contracts/api/v1"
)

var outputFormats = []string{api.FormatJSON, api.FormatCSV, api.FormatXLSX, api.FormatArrow}

// GenerationHandler serves scenario generation over HTTP
type GenerationHandler struct {
	service      GenerationServiceInterface
	validation   *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	precision    int
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewGenerationHandler creates a generation handler. precision is used when
// a request does not ask for one.
func NewGenerationHandler(
	service GenerationServiceInterface,
	validation *middleware.ValidationMiddleware,
	precision int,
	logger *slog.Logger,
	errorHandler *apperrors.ErrorHandler,
) *GenerationHandler {
	return &GenerationHandler{
		service:      service,
		validation:   validation,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		precision:    precision,
		logger:       logger.With(slog.String("component", "generation_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the generation routes
func (h *GenerationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/factors", h.ListFactorKinds)
	r.Get("/scenarios", h.ListScenarios)

	r.Group(func(r chi.Router) {
		r.Use(h.validation.ContentTypeValidator())
		r.Use(h.validation.ValidateRequest)

		r.Post("/generate", h.Generate)
		r.Post("/scenarios/{name}/generate", h.GenerateStored)
		r.Post("/batch", h.RunBatch)
	})

	return r
}

// ListFactorKinds handles GET /api/v1/factors
func (h *GenerationHandler) ListFactorKinds(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.FactorKindsResponse{Kinds: h.service.Kinds()})
}

// ListScenarios handles GET /api/v1/scenarios
func (h *GenerationHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	infos, err := h.service.Scenarios(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.ScenarioListResponse{Scenarios: infos, Count: len(infos)})
}

// Generate handles POST /api/v1/generate. The body is a scenario document in
// JSON or YAML, chosen by Content-Type.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}

	doc, err := scenario.Parse(r.Body, bodyFormat(r))
	if err != nil {
		if errors.Is(err, apperrors.ErrParsing) {
			err = apperrors.InvalidRequestWithError(err)
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	run, err := h.service.Generate(r.Context(), doc, params.options()...)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeRun(w, r, run, params)
}

// GenerateStored handles POST /api/v1/scenarios/{name}/generate
func (h *GenerationHandler) GenerateStored(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}

	run, err := h.service.GenerateStored(r.Context(), chi.URLParam(r, "name"), params.options()...)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeRun(w, r, run, params)
}

// RunBatch handles POST /api/v1/batch
func (h *GenerationHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req api.BatchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	precision := h.precision
	if req.Precision != nil {
		precision = *req.Precision
	}

	resp, err := h.service.RunBatch(r.Context(), req.Scenarios, format, exporter.Options{Precision: precision})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	status := http.StatusOK
	if resp.Failed > 0 && resp.Succeeded > 0 {
		status = http.StatusMultiStatus
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

type generateParams struct {
	format    exporter.Format
	precision int
	seed      *int64
}

func (p generateParams) options() []generator.Option {
	if p.seed == nil {
		return nil
	}
	return []generator.Option{generator.WithSeed(*p.seed)}
}

// params reads format, precision and seed from the query string.
func (h *GenerationHandler) params(w http.ResponseWriter, r *http.Request) (generateParams, bool) {
	var p generateParams

	format, ok := h.query.ValidateEnum(w, r, "format", outputFormats, api.FormatJSON)
	if !ok {
		return p, false
	}
	p.format = exporter.Format(format)

	if p.precision, ok = h.query.ValidateInt(w, r, "precision", -1, 15, h.precision); !ok {
		return p, false
	}
	if p.seed, ok = h.query.ValidateInt64(w, r, "seed"); !ok {
		return p, false
	}
	return p, true
}

func (h *GenerationHandler) writeRun(w http.ResponseWriter, r *http.Request, run *services.Run, p generateParams) {
	w.Header().Set(middleware.RunIDHeader, run.ID)

	if p.format == exporter.FormatJSON {
		render.JSON(w, r, services.TableResponse(run, p.precision))
		return
	}

	w.Header().Set("Content-Type", p.format.ContentType())
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": run.Scenario + p.format.Extension()}))
	if err := exporter.Write(w, p.format, run.Table, exporter.Options{Precision: p.precision}); err != nil {
		// Headers are gone; all that is left is to log and cut the response short
		h.logger.ErrorContext(r.Context(), "failed to stream table",
			slog.String("run_id", run.ID),
			slog.String("format", string(p.format)),
			slog.String("error", err.Error()))
		panic(http.ErrAbortHandler)
	}

	h.logger.DebugContext(r.Context(), "table streamed",
		slog.String("run_id", run.ID),
		slog.String("format", string(p.format)),
		slog.Int("rows", run.Table.Len()))
}

func bodyFormat(r *http.Request) scenario.Format {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return scenario.FormatYAML
	}
	return scenario.FormatJSON
}
