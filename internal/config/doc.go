// Package config loads settings from defaults, an optional YAML file and
// KANJI_* environment variables, then validates them.
package config
