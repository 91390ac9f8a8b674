package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weeklyScenario = `name: weekly
start: 2020-01-01
end: 2020-01-14
base_value: 10
features:
  store: [north, south]
factors:
  - kind: weekday
  - kind: white_noise
    stdev: 0.1
`

type testEnv struct {
	config   string
	scenario string
	out      string
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := fmt.Sprintf(`paths:
  output_dir: %q
  logs_dir: %q
reference:
  gdp_file: ""
  industry_index_file: ""
logging:
  level: warn
`, filepath.Join(dir, "output"), filepath.Join(dir, "logs"))
	configPath := filepath.Join(dir, "tsgen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))

	scenarioPath := filepath.Join(dir, "weekly.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(weeklyScenario), 0644))

	return testEnv{config: configPath, scenario: scenarioPath, out: filepath.Join(dir, "output")}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantSeedSet bool
		wantFiles   []string
		wantErr     bool
	}{
		{name: "repeated scenarios", args: []string{"-scenario", "a.yaml", "-scenario", "b.json"}, wantFiles: []string{"a.yaml", "b.json"}},
		{name: "positional scenarios", args: []string{"-format", "xlsx", "a.yaml"}, wantFiles: []string{"a.yaml"}},
		{name: "explicit zero seed", args: []string{"-seed", "0", "a.yaml"}, wantSeedSet: true, wantFiles: []string{"a.yaml"}},
		{name: "unknown flag", args: []string{"-colour", "red"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeedSet, opts.seedSet)
			assert.Equal(t, tt.wantFiles, []string(opts.scenarios))
		})
	}
}

func TestRun_List(t *testing.T) {
	out, err := runCLI(t, "-list")
	require.NoError(t, err)
	assert.Contains(t, out, "linear_trend\n")
	assert.Contains(t, out, "holiday\n")
}

func TestRun_Help(t *testing.T) {
	_, err := runCLI(t, "-h")
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRun_CSV(t *testing.T) {
	env := setupTestEnv(t)

	out, err := runCLI(t, "-config", env.config, "-scenario", env.scenario, "-seed", "5", "-precision", "2")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(env.out, "weekly.csv"), path)

	records := readCSV(t, path)
	require.Len(t, records, 29)
	assert.Equal(t, []string{"date", "store", "base_amount", "weekend_trend_factor", "white_noise", "total_factor", "value"}, records[0])
	assert.Equal(t, "10.00", records[1][2])

	again, err := runCLI(t, "-config", env.config, "-scenario", env.scenario, "-seed", "5", "-precision", "2")
	require.NoError(t, err)
	assert.Equal(t, records, readCSV(t, strings.TrimSpace(again)), "same seed, same series")
}

func TestRun_OutOverride(t *testing.T) {
	env := setupTestEnv(t)
	other := filepath.Join(t.TempDir(), "elsewhere")

	out, err := runCLI(t, "-config", env.config, "-out", other, "-format", "json", env.scenario)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(other, "weekly.json"), strings.TrimSpace(out))

	data, err := os.ReadFile(filepath.Join(other, "weekly.json"))
	require.NoError(t, err)
	var body struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Len(t, body.Rows, 28)
}

func TestRun_Arrow(t *testing.T) {
	env := setupTestEnv(t)

	out, err := runCLI(t, "-config", env.config, "-format", "feather", env.scenario)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(env.out, "weekly.arrow"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r, err := ipc.NewFileReader(f)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Record(0)
	require.NoError(t, err)
	assert.EqualValues(t, 28, rec.NumRows())
	assert.Equal(t, "value", rec.ColumnName(int(rec.NumCols())-1))
}

func TestRun_Partition(t *testing.T) {
	env := setupTestEnv(t)

	out, err := runCLI(t, "-config", env.config, "-partition", "store", env.scenario)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		filepath.Join(env.out, "weekly_north.csv"),
		filepath.Join(env.out, "weekly_south.csv"),
	}, lines)
	assert.Len(t, readCSV(t, lines[0]), 15)
}

func TestRun_Errors(t *testing.T) {
	env := setupTestEnv(t)
	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: broken\nstart: 2020-01-01\n"), 0644))

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "no scenario", args: []string{"-config", env.config}, wantMsg: "no scenario"},
		{name: "bad format", args: []string{"-config", env.config, "-format", "pdf", env.scenario}, wantMsg: "unsupported output format"},
		{name: "missing file", args: []string{"-config", env.config, "absent.yaml"}, wantMsg: "absent.yaml"},
		{name: "invalid scenario", args: []string{"-config", env.config, broken}, wantMsg: "end is required"},
		{name: "unknown partition", args: []string{"-config", env.config, "-partition", "region", env.scenario}, wantMsg: "region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
