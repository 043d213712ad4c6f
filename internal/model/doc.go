// Package model holds the per-exchange ingestion entities.
//
// Decoding is lenient: absent or wrongly typed optional fields take their
// documented defaults instead of failing the whole payload.
package model
