package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "tsgen/internal/errors"
)

// Paths holds the resolved, absolute file system locations.
type Paths struct {
	BaseDir           string
	DataDir           string
	OutputDir         string
	LogsDir           string
	ScenarioDir       string
	LogFile           string
	GDPFile           string
	IndustryIndexFile string
}

// BaseDir returns the directory relative paths resolve against: the
// directory of the loaded config file, else the working directory.
func (c *Config) BaseDir() (string, error) {
	if c.file != "" {
		return filepath.Abs(filepath.Dir(c.file))
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// GetPaths resolves every configured path.
func (c *Config) GetPaths() (*Paths, error) {
	base, err := c.BaseDir()
	if err != nil {
		return nil, err
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:           base,
		DataDir:           resolve(c.Paths.DataDir),
		OutputDir:         resolve(c.Paths.OutputDir),
		LogsDir:           resolve(c.Paths.LogsDir),
		ScenarioDir:       resolve(c.Paths.ScenarioDir),
		LogFile:           resolve(c.Logging.FilePath),
		GDPFile:           resolve(c.Reference.GDPFile),
		IndustryIndexFile: resolve(c.Reference.IndustryIndexFile),
	}, nil
}

// DataFile resolves a reference file named by a scenario document. Only
// local paths inside DataDir are accepted; absolute paths and paths that
// climb out of DataDir are configuration errors.
func (p *Paths) DataFile(name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", apperrors.Configf("reference file %q must be a relative path inside the data directory", name).
			WithContext("source", name)
	}
	if p.DataDir == "" {
		return "", apperrors.Configf("no data directory configured for reference file %q", name)
	}
	return filepath.Join(p.DataDir, name), nil
}

// EnsureDirectories creates the directories the application writes to.
func (p *Paths) EnsureDirectories() error {
	logger := slog.Default()
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
