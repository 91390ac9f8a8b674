// Package app provides application initialization and lifecycle management
// for the series generator server. It wires configuration, logging,
// OpenTelemetry, the scenario builder and the HTTP layer together.
//
// # Initialization Flow
//
//	1. Resolve paths and create the output and log directories
//	2. Initialize OpenTelemetry and the generation metrics
//	3. Wire the holiday registry and reference datasets into a scenario builder
//	4. Create the generation and health services
//	5. Set up HTTP handlers and middleware
//
// # Usage
//
//	cfg, _ := config.Load()
//	logger, _ := infrastructure.InitializeLogger(cfg.Logging)
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run stops on SIGINT, SIGTERM or context cancellation. In-flight requests
// get Server.ShutdownTimeout to complete before the telemetry providers are
// flushed.
//
// # Error Handling
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
