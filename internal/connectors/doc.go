// Package connectors wires concrete document-repository connectors into
// the connector factory. Each source type lives in its own subpackage.
package connectors
