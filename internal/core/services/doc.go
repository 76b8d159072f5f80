// Package services implements the driving port interfaces.
// Services contain the core business logic: the connection registry,
// the ingestion job manager and the status polling discipline.
// They orchestrate calls to driven ports (connectors, pipeline, sink).
package services
