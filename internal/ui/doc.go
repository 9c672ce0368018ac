// Package ui renders styled, non-interactive terminal output for the CLI.
//
// A small [lipgloss] palette colors export summaries and history listings.
// Renderers are pure: they take the run data and return a string for the
// command layer to write. There is no event loop and no input handling.
package ui
