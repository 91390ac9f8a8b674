package api

import "time"

// Summary describes the value column of a generated table.
type Summary struct {
	Rows     int      `json:"rows"`
	Days     int      `json:"days"`
	Factors  []string `json:"factors"`
	Total    float64  `json:"total"`
	Mean     float64  `json:"mean"`
	StdDev   float64  `json:"std_dev"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Duration string   `json:"duration"`
}

// TableResponse is a generated table in row-major string form, header
// first.
type TableResponse struct {
	RunID       string     `json:"run_id"`
	Scenario    string     `json:"scenario"`
	GeneratedAt time.Time  `json:"generated_at"`
	Header      []string   `json:"header"`
	Records     [][]string `json:"records"`
	Summary     Summary    `json:"summary"`
}

// FactorKindsResponse lists the factor kinds a scenario may use.
type FactorKindsResponse struct {
	Kinds []string `json:"kinds"`
}

// ScenarioInfo describes a stored scenario.
type ScenarioInfo struct {
	Name    string    `json:"name"`
	File    string    `json:"file"`
	Start   string    `json:"start"`
	End     string    `json:"end"`
	Factors int       `json:"factors"`
	ModTime time.Time `json:"modified"`
}

// ScenarioListResponse lists stored scenarios.
type ScenarioListResponse struct {
	Scenarios []ScenarioInfo `json:"scenarios"`
	Count     int            `json:"count"`
}

// RunResult is the outcome of one scenario of a batch.
type RunResult struct {
	RunID    string   `json:"run_id"`
	Scenario string   `json:"scenario"`
	File     string   `json:"file,omitempty"`
	Summary  *Summary `json:"summary,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// BatchResponse reports every run of a batch in request order.
type BatchResponse struct {
	Runs      []RunResult `json:"runs"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}
