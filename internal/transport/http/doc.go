// Package http implements the HTTP handlers of the series generator. Handlers
// are a thin layer over the services package: they parse the request,
// delegate, and render the result or an RFC 7807 problem.
//
// # Routes
//
//	GET  /api/health                           liveness summary
//	GET  /api/health/ready                     reference data and output checks
//	GET  /api/health/live                      runtime details
//	GET  /api/version                          build information
//	GET  /api/v1/factors                       factor kinds a scenario may use
//	GET  /api/v1/scenarios                     stored scenarios
//	POST /api/v1/generate                      generate from a scenario in the body
//	POST /api/v1/scenarios/{name}/generate     generate a stored scenario
//	POST /api/v1/batch                         generate and export stored scenarios
//
// The generate endpoints accept format (json, csv, xlsx), precision and seed
// query parameters. JSON responses carry the header and formatted records;
// csv and xlsx are streamed as attachments. Every generated response has an
// X-Run-ID header.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/scenario/invalid",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "[VALIDATION] invalid scenario: factors[0].kind is required",
//	    "instance": "/api/v1/generate",
//	    "trace_id": "6f1c..."
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// GenerationServiceInterface.
package http
