package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, logs := NewTestLogger(nil)

	scoped := logger.With(slog.String("service", "generation"))
	scoped.Info("Scenario generated", slog.Int("rows", 20))
	logger.WithGroup("http").Warn("slow request", slog.String("path", "/api/v1/batch"))
	logger.Error("export failed")

	require.Equal(t, 3, logs.Count())

	rec, ok := logs.Find("generated")
	require.True(t, ok)
	assert.Equal(t, "generation", rec.Attrs["service"])
	assert.Equal(t, int64(20), rec.Attrs["rows"])

	warn := logs.RecordsAt(slog.LevelWarn)
	require.Len(t, warn, 1)
	assert.Equal(t, "/api/v1/batch", warn[0].Attrs["http.path"])

	AssertLogContains(t, logs, slog.LevelInfo, "Scenario")
	AssertLogAttr(t, logs, "service", "generation")

	logs.Clear()
	assert.Zero(t, logs.Count())
	AssertNoErrors(t, logs)
}

func TestFixtures(t *testing.T) {
	dir := ScenarioDir(t, map[string]string{"a.yaml": "name: a\n"})
	data, err := os.ReadFile(filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "name: a\n", string(data))

	assert.True(t, filepath.IsAbs(ReferenceFile(t, "gdp_per_capita.csv")))
}
