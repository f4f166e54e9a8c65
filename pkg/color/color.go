// Package color provides terminal styling for agent-chat output.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var state struct {
	once       sync.Once
	enabled    atomic.Bool
	overridden atomic.Bool
}

// Init initializes the color system based on environment and flags.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if state.overridden.Load() {
			return
		}
		enabled := true
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			enabled = false
		}
		if os.Getenv("TERM") == "dumb" {
			enabled = false
		}
		if noColorFlag || !term.IsTerminal(int(os.Stdout.Fd())) {
			enabled = false
		}
		state.enabled.Store(enabled)
	})
	if noColorFlag {
		state.enabled.Store(false)
	}
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled.Load()
}

// Disable turns off color output.
func Disable() {
	state.overridden.Store(true)
	state.enabled.Store(false)
}

// Enable turns on color output.
func Enable() {
	state.overridden.Store(true)
	state.enabled.Store(true)
}

var renderer = lipgloss.NewRenderer(os.Stdout)

// ANSI palette indices, rendered by lipgloss at the terminal's capability.
var (
	green  = renderer.NewStyle().Foreground(lipgloss.Color("2"))
	red    = renderer.NewStyle().Foreground(lipgloss.Color("1"))
	yellow = renderer.NewStyle().Foreground(lipgloss.Color("3"))
	cyan   = renderer.NewStyle().Foreground(lipgloss.Color("6"))
	blue   = renderer.NewStyle().Foreground(lipgloss.Color("4"))
	bold   = renderer.NewStyle().Bold(true)
	faint  = renderer.NewStyle().Faint(true)
	code   = renderer.NewStyle().Bold(true).Faint(true)
)

func render(style lipgloss.Style, s string) string {
	if !Enabled() {
		return s
	}
	return style.Render(s)
}

// Success formats a success message in green.
func Success(s string) string {
	return render(green, s)
}

// Successf formats a success message with printf-style arguments.
func Successf(format string, args ...any) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error formats an error message in red.
func Error(s string) string {
	return render(red, s)
}

// Errorf formats an error message with printf-style arguments.
func Errorf(format string, args ...any) string {
	return Error(fmt.Sprintf(format, args...))
}

// Warning formats a warning message in yellow.
func Warning(s string) string {
	return render(yellow, s)
}

// Warningf formats a warning message with printf-style arguments.
func Warningf(format string, args ...any) string {
	return Warning(fmt.Sprintf(format, args...))
}

// Info formats an informational message in cyan.
func Info(s string) string {
	return render(cyan, s)
}

// Infof formats an informational message with printf-style arguments.
func Infof(format string, args ...any) string {
	return Info(fmt.Sprintf(format, args...))
}

// Name formats an agent display name.
func Name(s string) string {
	return render(blue, s)
}

// Header formats a header in bold.
func Header(s string) string {
	return render(bold, s)
}

// Dim formats dimmed text (timestamps, secondary information).
func Dim(s string) string {
	return render(faint, s)
}

// Highlight highlights important text in yellow.
func Highlight(s string) string {
	return Warning(s)
}

// Code formats command strings in a distinct style.
func Code(s string) string {
	return render(code, s)
}

var (
	boldGreen = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	boldCyan  = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

// SuccessLine renders "✓ Label: value".
func SuccessLine(label, value string) string {
	return join(Success("✓"), render(boldGreen, label), value)
}

// InfoLine renders "• Label: value".
func InfoLine(label, value string) string {
	return join(Info("•"), render(boldCyan, label), value)
}

func join(parts ...string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		if p != "" {
			out += " " + p
		}
	}
	return out
}
