package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/scenario"
	api "tsgen/pkg/contracts/api/v1"
)

var scenarioExtensions = []string{".yaml", ".yml", ".json"}

// ScenarioStore reads scenario documents from a directory. Files are read
// on every call so edits show up without a restart.
type ScenarioStore struct {
	dir    string
	logger *slog.Logger
}

// NewScenarioStore creates a store over dir.
func NewScenarioStore(dir string, logger *slog.Logger) *ScenarioStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScenarioStore{dir: dir, logger: logger}
}

// Dir returns the scenario directory.
func (s *ScenarioStore) Dir() string { return s.dir }

// Load reads the scenario stored under name, without extension.
func (s *ScenarioStore) Load(ctx context.Context, name string) (*scenario.Document, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, apperrors.NewAppValidationError("invalid scenario name").WithContext("name", name)
	}

	for _, ext := range scenarioExtensions {
		path := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		s.logger.DebugContext(ctx, "Loading scenario",
			slog.String("scenario", name),
			slog.String("path", path))
		return scenario.LoadFile(path)
	}
	return nil, apperrors.NewNotFoundError("scenario " + name)
}

// List describes every readable scenario, sorted by name. Files that fail
// to parse are logged and skipped.
func (s *ScenarioStore) List(ctx context.Context) ([]api.ScenarioInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []api.ScenarioInfo{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read scenario directory", err).WithContext("path", s.dir)
	}

	infos := make([]api.ScenarioInfo, 0, len(entries))
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || !isScenarioExt(ext) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		doc, err := scenario.LoadFile(path)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping unreadable scenario",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}

		info := api.ScenarioInfo{
			Name:    strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			File:    entry.Name(),
			Start:   doc.Start,
			End:     doc.End,
			Factors: len(doc.Factors),
		}
		if fi, err := entry.Info(); err == nil {
			info.ModTime = fi.ModTime()
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func isScenarioExt(ext string) bool {
	for _, e := range scenarioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
