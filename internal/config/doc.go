// Package config provides configuration for rewind.
//
// Settings come from three layers, later layers overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension
//  3. Environment variables prefixed with REWIND_
//
// Environment variable names map onto settings by section and camelCase
// name: REWIND_HISTORY_MAX_SIZE sets history.maxSize.
//
// # Example
//
//	[history]
//	maxSize = 100
//	debounceDelay = "300ms"
//	compressionThreshold = 16384
//
//	[log]
//	level = "info"
//
// A Watcher reloads the file on change and hands the new Config to a
// callback; invalid files are reported and the previous values kept.
package config
