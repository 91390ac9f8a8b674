// Package services implements the application layer between the transports
// (HTTP handlers and the command line) and the generator.
//
// GenerationService turns scenario documents into runs: it builds an engine,
// enforces the configured row and batch limits, records metrics and exports
// results. Batches of stored scenarios run concurrently on a bounded worker
// pool; a failing scenario is reported in its result without stopping the
// rest.
//
// ScenarioStore reads scenario files from the scenario directory, and
// HealthService reports liveness, readiness and version information.
package services
