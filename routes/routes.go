// Package routes wires the PipelineController to gin route groups.
//
// Structure:
//   - api.go: stage routes under /v1/pipeline/* and the SetupAllRoutes entrypoint
//   - web.go: human-facing index/docs/status routes
package routes
