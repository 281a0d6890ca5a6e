// Package store declares the persistence contracts for kanji items and the
// review log, plus the sentinel errors every backend maps its failures to.
//
// Updates are compare-and-swap on the item version; a stale write returns
// ErrVersionConflict and the caller re-reads. Backends live under
// internal/platform.
package store
