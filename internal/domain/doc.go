// Package domain contains the core entities of the kanji review engine: the
// Kanji Item with its mastery counters, review results, review filters and the
// review events recorded for auditing. It is independent of any storage or
// delivery mechanism.
package domain
