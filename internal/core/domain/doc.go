// Package domain contains the core business entities and rules for Elimu Core:
// documents, pages, chunks, retrieval results and synthesized answers.
// It has no dependencies on adapters or infrastructure.
package domain
