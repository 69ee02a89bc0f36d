// Package color provides minimal ANSI colorization for CLI output.
package color

import (
	"fmt"
	"os"
	"strings"
)

// ANSI color codes
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

// Color represents a colorizer that can be enabled or disabled.
type Color struct {
	enabled bool
}

// New creates a new Color instance.
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

// shouldEnableColor determines if color should be enabled based on environment.
func shouldEnableColor() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}
	return true
}

func (c *Color) wrap(code, text string) string {
	if !c.enabled {
		return text
	}
	return code + text + reset
}

// Add colors a string to indicate additions.
func (c *Color) Add(text string) string { return c.wrap(green, text) }

// Change colors a string to indicate modifications.
func (c *Color) Change(text string) string { return c.wrap(yellow, text) }

// Destroy colors a string to indicate deletions.
func (c *Color) Destroy(text string) string { return c.wrap(red, text) }

// Error colors a string for error reporting.
func (c *Color) Error(text string) string { return c.wrap(red, text) }

// Bold makes text bold.
func (c *Color) Bold(text string) string { return c.wrap(bold, text) }

// Cyan colors text cyan (for headers and labels).
func (c *Color) Cyan(text string) string { return c.wrap(cyan, text) }

// FormatSummaryLine formats per-bucket summary counts with colors.
func (c *Color) FormatSummaryLine(objectType string, added, changed, removed int) string {
	parts := []string{
		c.Add(fmt.Sprintf("%d added", added)),
		c.Change(fmt.Sprintf("%d changed", changed)),
		c.Destroy(fmt.Sprintf("%d removed", removed)),
	}
	return fmt.Sprintf("  %s: %s", objectType, strings.Join(parts, ", "))
}

// FormatHeader formats the top summary header.
func (c *Color) FormatHeader(added, changed, removed int) string {
	parts := []string{
		c.Add(fmt.Sprintf("%d to add", added)),
		c.Change(fmt.Sprintf("%d to change", changed)),
		c.Destroy(fmt.Sprintf("%d to remove", removed)),
	}
	return fmt.Sprintf("Diff: %s.", strings.Join(parts, ", "))
}
