// Package domain defines the core business entities for vectorbridge.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Connection: A registered handle to a document repository
//   - Job: One ingestion request spanning a batch of file references
//   - FileProgress: Per-file status record within a job
//   - FileInfo: Uniform file description across source types
//   - Chunk: A unit of content written to the vector sink
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
