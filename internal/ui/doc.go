// Package ui holds the color themes shared by the CLI presenter and the
// dashboard. ANSI themes drive CLI output; TUITheme carries the matching
// lipgloss palette. Both honour --no-color and NO_COLOR.
package ui
