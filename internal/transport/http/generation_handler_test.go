package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/exporter"
	"tsgen/internal/generator"
	"tsgen/internal/middleware"
	"tsgen/internal/scenario"
	"tsgen/internal/services"
	"tsgen/internal/table"
	api "tsgen/pkg/contracts/api/v1"
)

// MockGenerationService is a mock implementation of GenerationServiceInterface
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) Kinds() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockGenerationService) Scenarios(ctx context.Context) ([]api.ScenarioInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.ScenarioInfo), args.Error(1)
}

func (m *MockGenerationService) Generate(ctx context.Context, doc *scenario.Document, opts ...generator.Option) (*services.Run, error) {
	args := m.Called(doc.Name, len(opts))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Run), args.Error(1)
}

func (m *MockGenerationService) GenerateStored(ctx context.Context, name string, opts ...generator.Option) (*services.Run, error) {
	args := m.Called(name, len(opts))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Run), args.Error(1)
}

func (m *MockGenerationService) RunBatch(ctx context.Context, names []string, format exporter.Format, opts exporter.Options) (*api.BatchResponse, error) {
	args := m.Called(names, format, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.BatchResponse), args.Error(1)
}

const yamlScenario = `name: weekly
start: 2020-01-01
end: 2020-01-02
factors:
  - kind: weekday
`

func testRun(t *testing.T) *services.Run {
	t.Helper()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := table.New([]time.Time{start, start.AddDate(0, 0, 1)})
	require.NoError(t, tbl.AddValues(generator.ValueColumn, []float64{1.5, 2.25}))
	return &services.Run{
		ID:          "run-1",
		Scenario:    "weekly",
		GeneratedAt: start,
		Table:       tbl,
		Summary:     services.Summarize(tbl, nil, 2, 0),
	}
}

func newTestRouter(svc GenerationServiceInterface) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := apperrors.NewErrorHandler(logger, false)
	validation := middleware.NewValidationMiddleware(logger, errorHandler, 1<<20)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/v1", NewGenerationHandler(svc, validation, 3, logger, errorHandler).Routes())
	return r
}

func serve(r http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGenerationHandler_ListFactorKinds(t *testing.T) {
	svc := new(MockGenerationService)
	svc.On("Kinds").Return([]string{"linear_trend", "weekday"})

	rec := serve(newTestRouter(svc), http.MethodGet, "/api/v1/factors", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"kinds":["linear_trend","weekday"]}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestGenerationHandler_ListScenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockGenerationService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "lists scenarios",
			setupMock: func(m *MockGenerationService) {
				m.On("Scenarios").Return([]api.ScenarioInfo{{Name: "retail", File: "retail.yaml", Factors: 3}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":1`,
		},
		{
			name: "storage failure",
			setupMock: func(m *MockGenerationService) {
				m.On("Scenarios").Return(nil, apperrors.NewStorageError("failed to read scenario directory", errors.New("permission denied")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal Server Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockGenerationService)
			tt.setupMock(svc)

			rec := serve(newTestRouter(svc), http.MethodGet, "/api/v1/scenarios", "", "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestGenerationHandler_Generate(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		contentType    string
		body           string
		setupMock      func(*MockGenerationService, *services.Run)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "yaml body, json response",
			target:      "/api/v1/generate",
			contentType: "application/yaml",
			body:        yamlScenario,
			setupMock: func(m *MockGenerationService, run *services.Run) {
				m.On("Generate", "weekly", 0).Return(run, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"records":[["2020-01-01","1.500"],["2020-01-02","2.250"]]`,
		},
		{
			name:        "json body with seed and precision",
			target:      "/api/v1/generate?seed=9&precision=1",
			contentType: "application/json",
			body:        `{"name":"weekly","start":"2020-01-01","end":"2020-01-02"}`,
			setupMock: func(m *MockGenerationService, run *services.Run) {
				m.On("Generate", "weekly", 1).Return(run, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `["2020-01-01","1.5"]`,
		},
		{
			name:           "invalid scenario",
			target:         "/api/v1/generate",
			contentType:    "application/yaml",
			body:           "name: weekly\nstart: 2020-01-01\n",
			setupMock:      func(m *MockGenerationService, run *services.Run) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"/errors/scenario/invalid"`,
		},
		{
			name:           "unknown field",
			target:         "/api/v1/generate",
			contentType:    "application/json",
			body:           `{"name":"weekly","colour":"red"}`,
			setupMock:      func(m *MockGenerationService, run *services.Run) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_REQUEST"`,
		},
		{
			name:           "bad format",
			target:         "/api/v1/generate?format=pdf",
			contentType:    "application/yaml",
			body:           yamlScenario,
			setupMock:      func(m *MockGenerationService, run *services.Run) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name:           "unsupported content type",
			target:         "/api/v1/generate",
			contentType:    "text/plain",
			body:           yamlScenario,
			setupMock:      func(m *MockGenerationService, run *services.Run) {},
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedBody:   `"UNSUPPORTED_MEDIA_TYPE"`,
		},
		{
			name:        "too many rows",
			target:      "/api/v1/generate",
			contentType: "application/yaml",
			body:        yamlScenario,
			setupMock: func(m *MockGenerationService, run *services.Run) {
				m.On("Generate", "weekly", 0).Return(nil, apperrors.NewWithDetails(
					http.StatusRequestEntityTooLarge, "TOO_MANY_ROWS", "too many rows", nil))
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   `"/errors/payload-too-large"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockGenerationService)
			run := testRun(t)
			tt.setupMock(svc, run)

			rec := serve(newTestRouter(svc), http.MethodPost, tt.target, tt.contentType, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "run-1", rec.Header().Get(middleware.RunIDHeader))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestGenerationHandler_GenerateStoredCSV(t *testing.T) {
	svc := new(MockGenerationService)
	svc.On("GenerateStored", "weekly", 0).Return(testRun(t), nil)

	rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/scenarios/weekly/generate?format=csv&precision=2", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=weekly.csv`, rec.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"date", "value"},
		{"2020-01-01", "1.50"},
		{"2020-01-02", "2.25"},
	}, records)
	svc.AssertExpectations(t)
}

func TestGenerationHandler_GenerateStoredNotFound(t *testing.T) {
	svc := new(MockGenerationService)
	svc.On("GenerateStored", "absent", 0).Return(nil, apperrors.NewNotFoundError("scenario absent"))

	rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/scenarios/absent/generate", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "scenario absent not found")
}

func TestGenerationHandler_RunBatch(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockGenerationService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "all succeed",
			body: `{"scenarios":["weekly"],"format":"xlsx","precision":2}`,
			setupMock: func(m *MockGenerationService) {
				m.On("RunBatch", []string{"weekly"}, exporter.FormatXLSX, exporter.Options{Precision: 2}).
					Return(&api.BatchResponse{Runs: []api.RunResult{{Scenario: "weekly", File: "out/weekly.xlsx"}}, Succeeded: 1}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"succeeded":1`,
		},
		{
			name: "partial failure uses default format and precision",
			body: `{"scenarios":["weekly","broken"]}`,
			setupMock: func(m *MockGenerationService) {
				m.On("RunBatch", []string{"weekly", "broken"}, exporter.FormatCSV, exporter.Options{Precision: 3}).
					Return(&api.BatchResponse{Succeeded: 1, Failed: 1}, nil)
			},
			expectedStatus: http.StatusMultiStatus,
			expectedBody:   `"failed":1`,
		},
		{
			name:           "empty batch",
			body:           `{"scenarios":[]}`,
			setupMock:      func(m *MockGenerationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"scenarios"`,
		},
		{
			name:           "path traversal",
			body:           `{"scenarios":["../secrets"]}`,
			setupMock:      func(m *MockGenerationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"scenarios[0]"`,
		},
		{
			name:           "malformed json",
			body:           `{"scenarios":`,
			setupMock:      func(m *MockGenerationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_JSON"`,
		},
		{
			name: "cancelled",
			body: `{"scenarios":["weekly"]}`,
			setupMock: func(m *MockGenerationService) {
				m.On("RunBatch", []string{"weekly"}, exporter.FormatCSV, exporter.Options{Precision: 3}).
					Return(nil, context.DeadlineExceeded)
			},
			expectedStatus: http.StatusGatewayTimeout,
			expectedBody:   `"/errors/timeout"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockGenerationService)
			tt.setupMock(svc)

			rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/batch", "application/json", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestGenerationHandler_JSONSummary(t *testing.T) {
	svc := new(MockGenerationService)
	svc.On("GenerateStored", "weekly", 0).Return(testRun(t), nil)

	rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/scenarios/weekly/generate", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.TableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "weekly", resp.Scenario)
	assert.Equal(t, []string{"date", "value"}, resp.Header)
	assert.Equal(t, 2, resp.Summary.Rows)
	assert.InDelta(t, 3.75, resp.Summary.Total, 1e-9)
}
