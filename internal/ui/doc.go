// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger turns shell command events into concise log lines
// when the console log format is active, and Table renders aligned columns for
// reports such as the bad-branch summary and the workspace status.
package ui
