// Package service contains the application use cases of the kanji engine:
// adding and looking up items, and computing learning statistics. Reviews live
// in the kanji_review subpackage.
//
// Services depend on the store interfaces from internal/store, never on a
// concrete database, and receive every dependency through their constructor.
// Expected conditions are reported with sentinel or validation errors that the
// API layer maps to status codes; anything unexpected is wrapped in a
// ServiceError carrying the failed operation.
package service
