// Package shared holds helpers used by more than one package. It has no
// domain logic of its own.
//
// The testutil subpackage captures slog output and writes scenario
// fixtures for tests:
//
//	logger, logs := testutil.NewTestLogger(t)
//	svc := services.NewScenarioStore(testutil.ScenarioDir(t, files), logger)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Skipping unreadable scenario")
package shared
