package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tsgen/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tsgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     error
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.True(t, cfg.Server.RateLimit.Enabled)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, 1_000_000, cfg.Generation.MaxRows)
				assert.Equal(t, 6, cfg.Generation.Precision)
				assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
				assert.Empty(t, cfg.File())
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9000
logging:
  level: debug
reference:
  gdp_file: ref/gdp.xlsx
  gdp_sheet: Data
generation:
  default_seed: 42
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "absent keys keep defaults")
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "ref/gdp.xlsx", cfg.Reference.GDPFile)
				assert.Equal(t, "Data", cfg.Reference.GDPSheet)
				assert.Equal(t, int64(42), cfg.Generation.DefaultSeed)
			},
		},
		{
			name: "env overrides file",
			file: "server:\n  port: 9000\n",
			env: map[string]string{
				"TSGEN_SERVER_PORT":         "9100",
				"TSGEN_SERVER_READ_TIMEOUT": "30s",
				"TSGEN_GENERATION_MAX_ROWS": "10",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9100, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 10, cfg.Generation.MaxRows)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"TSGEN_SERVER_PORT": "99999"},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "invalid log level",
			file:    "logging:\n  level: loud\n",
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "malformed file",
			file:    "server: [",
			wantErr: apperrors.ErrParsing,
		},
		{
			name:    "invalid sample ratio",
			env:     map[string]string{"TSGEN_TELEMETRY_SAMPLE_RATIO": "2"},
			wantErr: apperrors.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestLoad_UsesConfigEnv(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 7070\n")
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, path, cfg.File())
}

func TestGetPaths_ResolveAgainstConfigDir(t *testing.T) {
	path := writeConfig(t, "reference:\n  gdp_file: ref/gdp.csv\n  industry_index_file: /abs/index.csv\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	paths, err := cfg.GetPaths()
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "ref", "gdp.csv"), paths.GDPFile)
	assert.Equal(t, "/abs/index.csv", paths.IndustryIndexFile)
	assert.Equal(t, filepath.Join(dir, "output"), paths.OutputDir)

	require.NoError(t, paths.EnsureDirectories())
	assert.True(t, FileExists(paths.OutputDir))
	assert.True(t, FileExists(paths.LogsDir))

	resolved, err := paths.DataFile("gdp.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "gdp.csv"), resolved)
}

func TestPaths_DataFile(t *testing.T) {
	paths := &Paths{DataDir: filepath.Join(t.TempDir(), "data")}

	tests := []struct {
		name    string
		source  string
		want    string
		wantErr bool
	}{
		{name: "file in data dir", source: "gdp.csv", want: filepath.Join(paths.DataDir, "gdp.csv")},
		{name: "nested file", source: "eu/index.xlsx", want: filepath.Join(paths.DataDir, "eu", "index.xlsx")},
		{name: "inner parent stays inside", source: "eu/../gdp.csv", want: filepath.Join(paths.DataDir, "gdp.csv")},
		{name: "absolute path", source: "/etc/passwd", wantErr: true},
		{name: "parent directory", source: "../secret.csv", wantErr: true},
		{name: "climbs out through subdir", source: "eu/../../secret.csv", wantErr: true},
		{name: "empty", source: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := paths.DataFile(tt.source)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := (&Paths{}).DataFile("gdp.csv")
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}
