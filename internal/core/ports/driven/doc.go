// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). The core services depend on these interfaces;
// adapters implement them. Swapping an embedding model, vector index or
// generation backend never touches the core.
package driven
