// Package services contains the core business logic, free of adapter
// concerns. Services depend only on the port interfaces and are wired to
// concrete adapters by the CLI layer.
package services
