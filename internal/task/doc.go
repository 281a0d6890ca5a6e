// Package task runs background work off the request path: a bounded queue of
// tasks drained by a fixed pool of workers. Data-file imports requested over
// HTTP or by the directory watcher run here.
package task
