// Package api adapts the kanji, review and stats services to the JSON HTTP
// API used by the React client. Handlers decode and validate requests, call
// one service operation and translate its errors with HandleAPIError.
package api
