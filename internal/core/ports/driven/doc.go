// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connector: Lists, searches and fetches files from one source
//   - ConnectorFactory: Creates connectors from connection configuration
//   - ChunkPipeline: Transforms file content into content chunks
//   - VectorSink: Embeds and stores chunks in the vector store
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
