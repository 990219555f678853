package ui

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorPass    = 114 // green
	colorWarn    = 179 // amber
	colorFail    = 203 // red
	colorReview  = 141 // purple
	colorPending = 252 // near white
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderStatus returns the status name colored by workflow state.
func RenderStatus(s model.Status) string {
	switch s {
	case model.StatusDone:
		return paint(colorPass, string(s))
	case model.StatusInProgress:
		return paint(colorWarn, string(s))
	case model.StatusBlocked:
		return paint(colorFail, string(s))
	case model.StatusReview:
		return paint(colorReview, string(s))
	default:
		return paint(colorPending, string(s))
	}
}

// Expand markers shown in front of grid rows.
const (
	MarkerCollapsed = "▸"
	MarkerExpanded  = "▾"
	MarkerLeaf      = " "
)

// TreePrefix returns the indentation and expand marker for a grid row at the
// given depth.
func TreePrefix(depth int, hasChildren, expanded bool) string {
	marker := MarkerLeaf
	if hasChildren {
		marker = MarkerCollapsed
		if expanded {
			marker = MarkerExpanded
		}
	}
	return strings.Repeat("  ", depth) + RenderAccent(marker) + " "
}

// ProgressBar renders pct as a fixed-width bar, e.g. "[####------] 40%".
// Values outside 0..100 are clamped.
func ProgressBar(pct, width int) string {
	pct = max(0, min(100, pct))
	if width <= 0 {
		width = 10
	}
	filled := pct * width / 100
	bar := strings.Repeat("#", filled) + RenderMuted(strings.Repeat("-", width-filled))
	return fmt.Sprintf("[%s] %3d%%", bar, pct)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
