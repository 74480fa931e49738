// Package chunker splits arbitrary-length text into model-safe chunks
// bounded by phoneme token counts. It prefers sentence boundaries,
// falls back to clause boundaries for oversized sentences, and packs
// individual words as a last resort.
package chunker
