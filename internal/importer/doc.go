// Package importer loads kanji data files (CSV and YAML) into a KanjiStore.
//
// CSV files follow the kanji_class_N.csv convention: N is the grade class
// of every row, readings are separated by "・", and the example column holds
// "japanese::reading::meaning" entries joined by "||". Existing characters
// are refreshed in place; their scheduling state is never reset.
//
// Imports run directly (ImportDir, AutoImport) or on the worker pool through
// FileTask, fed by a Watcher that reacts to changes in the data directory.
package importer
