// Package driving provides interfaces for primary/inbound ports. These are
// the operations the application exposes to callers such as the CLI; an HTTP
// layer would consume the same interfaces.
package driving
