// Package events provides the in-process event bus of the kanji engine.
//
// Services emit domain events (a kanji was created, a review was applied, an
// import was requested) without knowing who consumes them. Handlers append to
// the review log, fan events out to server-sent event subscribers, or turn
// import requests into background tasks.
package events
