// Package ui holds terminal presentation helpers for the console command.
package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI256 color codes for the console output.
const (
	colorFlagged = 203 // red, flagged entities
	colorAccent  = 74  // blue, node ids
	colorMuted   = 245 // medium gray, secondary detail
	colorOK      = 114 // green, connected state
	colorWarn    = 215 // orange, reconnecting state
)

var noColor bool

// ShouldUseColor returns true when ANSI colors should be used on stdout.
// It respects NO_COLOR, CLICOLOR_FORCE, CLICOLOR, and TTY detection.
func ShouldUseColor() bool {
	// https://no-color.org: any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	// CLICOLOR_FORCE=1 forces color even without a TTY.
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	// CLICOLOR=0 explicitly disables color.
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderFlagged returns s styled for a flagged entity.
func RenderFlagged(s string) string { return render(colorFlagged, s) }

// RenderAccent returns s in the accent color used for node ids.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted color used for secondary detail.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderState colors a connection state: green while connected, orange
// while retrying, muted otherwise.
func RenderState(state string) string {
	switch state {
	case "connected":
		return render(colorOK, state)
	case "connecting", "reconnect_wait":
		return render(colorWarn, state)
	default:
		return render(colorMuted, state)
	}
}
